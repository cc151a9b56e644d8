package service

import (
	"context"
	"errors"
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

// UnitLedgerService implements ports.UnitLedger. It is the only component
// that mutates balances, and it only does so through the store's atomic
// conditional-delta primitive.
type UnitLedgerService struct {
	store   ports.LedgerStore
	sagas   ports.SagaRepository
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewUnitLedgerService creates a new UnitLedgerService.
func NewUnitLedgerService(store ports.LedgerStore, sagas ports.SagaRepository, m *metrics.Metrics, log zerolog.Logger) *UnitLedgerService {
	return &UnitLedgerService{store: store, sagas: sagas, metrics: m, log: log}
}

// allowedFields is the closed set of (collection, field) pairs the ledger
// may touch.
var allowedFields = map[string]map[string]bool{
	domain.CollectionUsers:   {domain.FieldAIUnits: true, domain.FieldMille: true},
	domain.CollectionBrands:  {domain.FieldChildrenMille: true, domain.FieldRevenue: true},
	domain.CollectionWallets: {domain.FieldBalance: true},
}

func operationFor(direction domain.LedgerDirection) domain.LedgerOperation {
	if direction == domain.DirectionDebit {
		return domain.OpDecrement
	}
	return domain.OpIncrement
}

// CreditOrDebit applies one atomic mutation to one entity's balance field.
// Precondition failures return a structured negative result with no error;
// storage failures are logged with full context and returned as errors.
func (s *UnitLedgerService) CreditOrDebit(ctx context.Context, req ports.LedgerRequest) (domain.LedgerResult, error) {
	if req.EntityID == "" || req.Field == "" || req.Collection == "" {
		return domain.LedgerResult{Status: false, Msg: "entity id, collection and field are required"}, nil
	}
	if !req.Direction.Valid() {
		return domain.LedgerResult{Status: false, Msg: fmt.Sprintf("direction must be credit or debit, got %q", req.Direction)}, nil
	}
	if !req.Amount.IsPositive() {
		return domain.LedgerResult{Status: false, Msg: "amount must be a positive number"}, nil
	}
	if !allowedFields[req.Collection][req.Field] {
		return domain.LedgerResult{Status: false, Msg: fmt.Sprintf("field %s.%s is not a balance field", req.Collection, req.Field)}, nil
	}

	op := operationFor(req.Direction)
	newValue, err := s.store.ApplyDelta(ctx, domain.LedgerMutation{
		Collection: req.Collection,
		EntityID:   req.EntityID,
		Field:      req.Field,
		Delta:      req.Amount,
		Op:         op,
	})
	if err != nil {
		s.metrics.LedgerMutations.WithLabelValues(string(op), "rejected").Inc()
		switch {
		case errors.Is(err, ports.ErrInsufficientBalance):
			return domain.LedgerResult{Status: false, Msg: "insufficient balance"}, nil
		case errors.Is(err, ports.ErrNotFound):
			return domain.LedgerResult{Status: false, Msg: "account not found"}, nil
		default:
			s.log.Error().Err(err).
				Str("collection", req.Collection).
				Str("entity_id", req.EntityID).
				Str("field", req.Field).
				Str("amount", req.Amount.String()).
				Str("direction", string(req.Direction)).
				Msg("ledger mutation failed")
			return domain.LedgerResult{Status: false, Msg: "ledger unavailable"}, apperror.ErrExternalService(err)
		}
	}

	s.metrics.LedgerMutations.WithLabelValues(string(op), "applied").Inc()
	s.log.Info().
		Str("collection", req.Collection).
		Str("entity_id", req.EntityID).
		Str("field", req.Field).
		Str("amount", req.Amount.String()).
		Str("direction", string(req.Direction)).
		Msg("ledger mutation applied")

	return domain.LedgerResult{Status: true, NewValue: newValue, Msg: "ok"}, nil
}

// TransferMille moves mille for a user and mirrors the same signed delta on
// the owning brand's aggregate. The two legs are not transactionally atomic
// at the storage layer; a persisted saga record tracks each leg so a
// half-applied pair can be compensated. Partial application is reported as
// failure to the caller.
func (s *UnitLedgerService) TransferMille(ctx context.Context, req ports.MilleRequest) (domain.LedgerResult, error) {
	if req.UserID == "" || req.BrandID == "" {
		return domain.LedgerResult{Status: false, Msg: "user id and brand id are required"}, nil
	}
	if !req.Direction.Valid() {
		return domain.LedgerResult{Status: false, Msg: fmt.Sprintf("direction must be credit or debit, got %q", req.Direction)}, nil
	}
	if !req.Amount.IsPositive() {
		return domain.LedgerResult{Status: false, Msg: "amount must be a positive number"}, nil
	}

	saga := &domain.MilleSaga{
		ID:        uuid.New(),
		UserID:    req.UserID,
		BrandID:   req.BrandID,
		Amount:    req.Amount,
		Direction: req.Direction,
		UserLeg:   domain.SagaLegPending,
		BrandLeg:  domain.SagaLegPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.sagas.Create(ctx, saga); err != nil {
		s.log.Error().Err(err).Str("user_id", req.UserID).Str("brand_id", req.BrandID).Msg("mille saga create failed")
		return domain.LedgerResult{Status: false, Msg: "ledger unavailable"}, apperror.ErrExternalService(err)
	}

	// Leg 1: user's personal mille balance.
	userRes, err := s.CreditOrDebit(ctx, ports.LedgerRequest{
		Collection: domain.CollectionUsers,
		EntityID:   req.UserID,
		Field:      domain.FieldMille,
		Amount:     req.Amount,
		Direction:  req.Direction,
	})
	if err != nil || !userRes.Status {
		s.markLeg(ctx, saga.ID, domain.SagaLegUser, domain.SagaLegFailed)
		return userRes, err
	}
	s.markLeg(ctx, saga.ID, domain.SagaLegUser, domain.SagaLegApplied)

	// Leg 2: the owning brand's aggregate, same signed delta.
	brandRes, err := s.CreditOrDebit(ctx, ports.LedgerRequest{
		Collection: domain.CollectionBrands,
		EntityID:   req.BrandID,
		Field:      domain.FieldChildrenMille,
		Amount:     req.Amount,
		Direction:  req.Direction,
	})
	if err != nil || !brandRes.Status {
		// The user leg is already applied and there is no implicit rollback.
		// Log everything a compensator needs and report the pair failed.
		s.markLeg(ctx, saga.ID, domain.SagaLegBrand, domain.SagaLegFailed)
		s.log.Error().
			Str("saga_id", saga.ID.String()).
			Str("user_id", req.UserID).
			Str("brand_id", req.BrandID).
			Str("amount", req.Amount.String()).
			Str("direction", string(req.Direction)).
			Msg("mille brand leg failed after user leg applied; compensation required")
		return domain.LedgerResult{Status: false, Msg: "mille transfer incomplete"}, err
	}
	s.markLeg(ctx, saga.ID, domain.SagaLegBrand, domain.SagaLegApplied)

	return domain.LedgerResult{Status: true, NewValue: userRes.NewValue, Msg: "ok"}, nil
}

func (s *UnitLedgerService) markLeg(ctx context.Context, id uuid.UUID, leg domain.SagaLeg, status domain.SagaLegStatus) {
	if err := s.sagas.MarkLeg(ctx, id, leg, status); err != nil {
		s.log.Warn().Err(err).Str("saga_id", id.String()).Str("leg", string(leg)).Msg("saga leg update failed")
	}
}

// Balance reads a balance field without mutating it.
func (s *UnitLedgerService) Balance(ctx context.Context, collection, entityID, field string) (decimal.Decimal, error) {
	return s.store.GetBalance(ctx, collection, entityID, field)
}
