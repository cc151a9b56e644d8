package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SettlementState is the lifecycle of one settlement run. Callers only ever
// observe a terminal state: LedgerCommitted or Failed.
type SettlementState string

const (
	SettlementPending         SettlementState = "PENDING"
	SettlementRulesEvaluated  SettlementState = "RULES_EVALUATED"
	SettlementRatesConverted  SettlementState = "RATES_CONVERTED"
	SettlementLedgerCommitted SettlementState = "LEDGER_COMMITTED"
	SettlementFailed          SettlementState = "FAILED"
)

// IsTerminal reports whether the state is final.
func (s SettlementState) IsTerminal() bool {
	return s == SettlementLedgerCommitted || s == SettlementFailed
}

// SettlementKind tags the transaction event that triggered the settlement.
type SettlementKind string

const (
	KindOrderPaid    SettlementKind = "order_paid"
	KindUnitPurchase SettlementKind = "unit_purchase"
	KindUtilityTopup SettlementKind = "utility_topup"
)

// HierarchyLevel is one brand in the ownership chain with its configured
// pass-up rate, expressed in that brand's own currency.
type HierarchyLevel struct {
	BrandID  string          `json:"brand_id"`
	Currency string          `json:"currency"`
	Rate     decimal.Decimal `json:"rate"`
}

// Hierarchy is the ownership chain of the transacting brand. Parent and
// Master may coincide with the brand itself (terminal node); such a level
// must be credited at most once even though two roles reference it.
type Hierarchy struct {
	Brand  HierarchyLevel `json:"brand"`
	Parent HierarchyLevel `json:"parent"`
	Master HierarchyLevel `json:"master"`
}

// DistinctLevels walks brand, parent, master and returns each distinct brand
// id exactly once, in that order. Empty ids are skipped.
func (h Hierarchy) DistinctLevels() []HierarchyLevel {
	seen := make(map[string]bool, 3)
	levels := make([]HierarchyLevel, 0, 3)
	for _, lvl := range []HierarchyLevel{h.Brand, h.Parent, h.Master} {
		if lvl.BrandID == "" || seen[lvl.BrandID] {
			continue
		}
		seen[lvl.BrandID] = true
		levels = append(levels, lvl)
	}
	return levels
}

// SettlementEvent is the validated input to a settlement run.
type SettlementEvent struct {
	Kind         SettlementKind  `json:"kind"`
	UserID       string          `json:"user_id"`
	Value        decimal.Decimal `json:"value"`
	Currency     string          `json:"currency"`
	SellerProfit decimal.Decimal `json:"seller_profit"`
	RuleName     string          `json:"rule_name"`
	Rules        []Rule          `json:"rules"`
	Hierarchy    Hierarchy       `json:"hierarchy"`
}

// Settlement is the persisted record of one settlement run.
type Settlement struct {
	ID        uuid.UUID       `json:"id"`
	Kind      SettlementKind  `json:"kind"`
	UserID    string          `json:"user_id"`
	BrandID   string          `json:"brand_id"`
	Currency  string          `json:"currency"`
	Value     decimal.Decimal `json:"value"`
	State     SettlementState `json:"state"`
	Reason    string          `json:"reason,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// LevelShare is one hierarchy level's converted share of a settlement.
type LevelShare struct {
	BrandID string          `json:"brand_id"`
	Amount  decimal.Decimal `json:"amount"`
}

// SettlementResult is what the request layer receives back.
type SettlementResult struct {
	SettlementID uuid.UUID       `json:"settlement_id"`
	State        SettlementState `json:"state"`
	Reason       string          `json:"reason,omitempty"`
	Shares       []LevelShare    `json:"shares"`
	Residual     decimal.Decimal `json:"residual"`
	SellerCredit decimal.Decimal `json:"seller_credit"`
	Outcome      RuleOutcome     `json:"outcome"`
}

// SagaLeg identifies one half of a two-entity ledger mutation.
type SagaLeg string

const (
	SagaLegUser  SagaLeg = "user"
	SagaLegBrand SagaLeg = "brand"
)

// SagaLegStatus tracks one leg of a two-leg mutation.
type SagaLegStatus string

const (
	SagaLegPending SagaLegStatus = "PENDING"
	SagaLegApplied SagaLegStatus = "APPLIED"
	SagaLegFailed  SagaLegStatus = "FAILED"
)

// MilleSaga records a two-leg mille mutation (user balance plus the owning
// brand's aggregate) so a half-applied pair can be found and compensated.
// The storage layer offers no multi-document transaction; this record is the
// audit trail that makes the gap operable.
type MilleSaga struct {
	ID        uuid.UUID       `json:"id"`
	UserID    string          `json:"user_id"`
	BrandID   string          `json:"brand_id"`
	Amount    decimal.Decimal `json:"amount"`
	Direction LedgerDirection `json:"direction"`
	UserLeg   SagaLegStatus   `json:"user_leg"`
	BrandLeg  SagaLegStatus   `json:"brand_leg"`
	CreatedAt time.Time       `json:"created_at"`
}
