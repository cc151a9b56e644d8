package service

import (
	"context"
	"fmt"
	"time"

	"revenue-settlement-engine/internal/core/domain"
	"revenue-settlement-engine/internal/core/ports"
	"revenue-settlement-engine/pkg/apperror"
	"revenue-settlement-engine/pkg/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// SettlementOrchestratorService implements ports.SettlementService. One run
// walks the brand hierarchy, converts each distinct level's pass-up rate into
// the settlement currency, evaluates the named rule, and commits the
// resulting deltas through the unit ledger.
//
// The run is persisted as a state machine
// PENDING -> RULES_EVALUATED -> RATES_CONVERTED -> LEDGER_COMMITTED | FAILED
// so that a failure between ledger legs is diagnosable from the record alone.
// Callers only ever observe LEDGER_COMMITTED or FAILED.
type SettlementOrchestratorService struct {
	ledger      ports.UnitLedger
	rates       ports.RateProvider
	settlements ports.SettlementRepository
	metrics     *metrics.Metrics
	log         zerolog.Logger
}

// NewSettlementOrchestratorService creates a new SettlementOrchestratorService.
func NewSettlementOrchestratorService(
	ledger ports.UnitLedger,
	rates ports.RateProvider,
	settlements ports.SettlementRepository,
	m *metrics.Metrics,
	log zerolog.Logger,
) *SettlementOrchestratorService {
	return &SettlementOrchestratorService{
		ledger:      ledger,
		rates:       rates,
		settlements: settlements,
		metrics:     m,
		log:         log,
	}
}

// Settle runs the full hierarchy settlement for one transaction event.
func (s *SettlementOrchestratorService) Settle(ctx context.Context, event domain.SettlementEvent) (*domain.SettlementResult, error) {
	if event.UserID == "" || event.Currency == "" || event.Hierarchy.Brand.BrandID == "" {
		return nil, apperror.ErrMissingFields("user_id, currency, hierarchy.brand")
	}
	if !event.Value.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}

	start := time.Now()
	settlement := &domain.Settlement{
		ID:        uuid.New(),
		Kind:      event.Kind,
		UserID:    event.UserID,
		BrandID:   event.Hierarchy.Brand.BrandID,
		Currency:  event.Currency,
		Value:     event.Value,
		State:     domain.SettlementPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.settlements.Create(ctx, settlement); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create settlement record: %w", err))
	}

	log := s.log.With().
		Str("settlement_id", settlement.ID.String()).
		Str("kind", string(event.Kind)).
		Str("user_id", event.UserID).
		Str("brand_id", event.Hierarchy.Brand.BrandID).
		Logger()

	// Stage 1: rule evaluation. An evaluation failure degrades to the
	// pass-through split, same as no rule matching, but is logged so the
	// two cases stay distinguishable.
	ruleRes := EvaluateRule(event.Rules, event.RuleName, event.Value, event.SellerProfit)
	if !ruleRes.Evaluated() {
		log.Warn().Err(ruleRes.Err).Str("rule", event.RuleName).Msg("rule evaluation failed, using pass-through split")
	}
	outcome := ruleRes.Outcome
	s.transition(ctx, log, settlement.ID, domain.SettlementRulesEvaluated, "")

	// Stage 2: convert each distinct hierarchy level's rate into the
	// settlement currency. A brand that is its own parent or master appears
	// once, so it is credited at most once.
	table, err := s.rates.Rates(ctx)
	if err != nil {
		s.fail(ctx, log, settlement.ID, "rates unavailable")
		return s.failedResult(settlement.ID, "rates unavailable"), apperror.ErrExternalService(fmt.Errorf("rate provider: %w", err))
	}

	levels := event.Hierarchy.DistinctLevels()
	shares := make([]domain.LevelShare, 0, len(levels))
	sum := decimal.Zero
	for _, lvl := range levels {
		converted, convErr := ConvertAmount(lvl.Rate, lvl.Currency, event.Currency, table)
		if convErr != nil {
			s.metrics.ConversionFailures.Inc()
			reason := fmt.Sprintf("rate conversion failed for brand %s", lvl.BrandID)
			log.Error().Err(convErr).Str("level_brand_id", lvl.BrandID).Str("level_currency", lvl.Currency).Msg("rate conversion failed")
			s.fail(ctx, log, settlement.ID, reason)
			return s.failedResult(settlement.ID, reason), nil
		}
		shares = append(shares, domain.LevelShare{BrandID: lvl.BrandID, Amount: converted})
		sum = sum.Add(converted)
	}

	// The residual is what remains of the transaction value after passing
	// each level's cost up the chain. It never goes negative.
	residual := event.Value.Sub(sum)
	if residual.IsNegative() {
		residual = decimal.Zero
	}
	sellerCredit := outcome.SellerProfit.Add(residual)
	s.transition(ctx, log, settlement.ID, domain.SettlementRatesConverted, "")

	// Stage 3: commit ledger deltas. Any rejected or failed leg fails the
	// whole settlement; the state record shows how far it got.
	for _, share := range shares {
		if !share.Amount.IsPositive() {
			continue
		}
		if reason := s.credit(ctx, ports.LedgerRequest{
			Collection: domain.CollectionBrands,
			EntityID:   share.BrandID,
			Field:      domain.FieldRevenue,
			Amount:     share.Amount,
			Direction:  domain.DirectionCredit,
		}); reason != "" {
			s.fail(ctx, log, settlement.ID, reason)
			return s.failedResult(settlement.ID, reason), nil
		}
	}

	if sellerCredit.IsPositive() {
		if reason := s.credit(ctx, ports.LedgerRequest{
			Collection: domain.CollectionBrands,
			EntityID:   event.Hierarchy.Brand.BrandID,
			Field:      domain.FieldRevenue,
			Amount:     sellerCredit,
			Direction:  domain.DirectionCredit,
		}); reason != "" {
			s.fail(ctx, log, settlement.ID, reason)
			return s.failedResult(settlement.ID, reason), nil
		}
	}

	if reason := s.creditUser(ctx, event); reason != "" {
		s.fail(ctx, log, settlement.ID, reason)
		return s.failedResult(settlement.ID, reason), nil
	}

	s.transition(ctx, log, settlement.ID, domain.SettlementLedgerCommitted, "")
	s.metrics.Settlements.WithLabelValues(string(domain.SettlementLedgerCommitted)).Inc()
	s.metrics.SettlementDuration.Observe(time.Since(start).Seconds())
	log.Info().
		Str("residual", residual.String()).
		Str("seller_credit", sellerCredit.String()).
		Int("levels", len(shares)).
		Msg("settlement committed")

	return &domain.SettlementResult{
		SettlementID: settlement.ID,
		State:        domain.SettlementLedgerCommitted,
		Shares:       shares,
		Residual:     residual,
		SellerCredit: sellerCredit,
		Outcome:      outcome,
	}, nil
}

// creditUser applies the transaction-kind specific user-side credit.
func (s *SettlementOrchestratorService) creditUser(ctx context.Context, event domain.SettlementEvent) string {
	switch event.Kind {
	case domain.KindUnitPurchase:
		return s.credit(ctx, ports.LedgerRequest{
			Collection: domain.CollectionUsers,
			EntityID:   event.UserID,
			Field:      domain.FieldAIUnits,
			Amount:     event.Value,
			Direction:  domain.DirectionCredit,
		})
	case domain.KindUtilityTopup:
		// Mille moves on the user and the owning brand's aggregate together.
		res, err := s.ledger.TransferMille(ctx, ports.MilleRequest{
			UserID:    event.UserID,
			BrandID:   event.Hierarchy.Brand.BrandID,
			Amount:    event.Value,
			Direction: domain.DirectionCredit,
		})
		if err != nil {
			return "ledger commit failed"
		}
		if !res.Status {
			return res.Msg
		}
	}
	return ""
}

// credit applies one ledger credit and reduces the outcome to an empty
// string on success or a failure reason.
func (s *SettlementOrchestratorService) credit(ctx context.Context, req ports.LedgerRequest) string {
	res, err := s.ledger.CreditOrDebit(ctx, req)
	if err != nil {
		return "ledger commit failed"
	}
	if !res.Status {
		return res.Msg
	}
	return ""
}

// transition records a state change. A failed write does not abort the run;
// the record is diagnostic, the ledger is the source of truth.
func (s *SettlementOrchestratorService) transition(ctx context.Context, log zerolog.Logger, id uuid.UUID, state domain.SettlementState, reason string) {
	if err := s.settlements.UpdateState(ctx, id, state, reason); err != nil {
		log.Error().Err(err).Str("state", string(state)).Msg("settlement state update failed")
	}
}

func (s *SettlementOrchestratorService) fail(ctx context.Context, log zerolog.Logger, id uuid.UUID, reason string) {
	s.transition(ctx, log, id, domain.SettlementFailed, reason)
	s.metrics.Settlements.WithLabelValues(string(domain.SettlementFailed)).Inc()
	log.Warn().Str("reason", reason).Msg("settlement failed")
}

func (s *SettlementOrchestratorService) failedResult(id uuid.UUID, reason string) *domain.SettlementResult {
	return &domain.SettlementResult{
		SettlementID: id,
		State:        domain.SettlementFailed,
		Reason:       reason,
	}
}
