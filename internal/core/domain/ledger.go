package domain

import (
	"github.com/shopspring/decimal"
)

// LedgerDirection is the caller-facing credit/debit enum.
type LedgerDirection string

const (
	DirectionCredit LedgerDirection = "credit"
	DirectionDebit  LedgerDirection = "debit"
)

// Valid reports whether the direction is one of the two allowed values.
func (d LedgerDirection) Valid() bool {
	return d == DirectionCredit || d == DirectionDebit
}

// LedgerOperation is the storage-level primitive applied to a field.
type LedgerOperation string

const (
	OpIncrement LedgerOperation = "increment"
	OpDecrement LedgerOperation = "decrement"
)

// Balance collections and fields the ledger may touch. Mutations are
// restricted to this closed set; anything else is rejected before it
// reaches the store.
const (
	CollectionUsers   = "users"
	CollectionBrands  = "brands"
	CollectionWallets = "wallets"

	FieldAIUnits       = "ai_units"
	FieldMille         = "mille"
	FieldChildrenMille = "children_mille"
	FieldRevenue       = "revenue"
	FieldBalance       = "balance"
)

// LedgerMutation is one atomic intended change to one numeric field of one
// entity. Delta is always positive; Op carries the sign.
type LedgerMutation struct {
	Collection string
	EntityID   string
	Field      string
	Delta      decimal.Decimal
	Op         LedgerOperation
}

// SignedDelta returns the delta with the operation's sign applied.
func (m LedgerMutation) SignedDelta() decimal.Decimal {
	if m.Op == OpDecrement {
		return m.Delta.Neg()
	}
	return m.Delta
}

// LedgerResult is the structured outcome consumed by the request layer.
// Status is false on every rejected precondition and business-rule failure;
// Msg is short and human-readable, never an internal error string.
type LedgerResult struct {
	Status   bool            `json:"status"`
	NewValue decimal.Decimal `json:"new_value"`
	Msg      string          `json:"msg"`
}
