package ports

import (
	"context"
	"errors"

	"revenue-settlement-engine/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sentinel errors the storage adapters translate driver errors into, so the
// service layer never inspects pg error codes.
var (
	// ErrInsufficientBalance: the conditional delta would take the field
	// below zero; nothing was changed.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrNotFound: no row matched the id.
	ErrNotFound = errors.New("entity not found")
	// ErrDuplicate: a unique constraint rejected the insert.
	ErrDuplicate = errors.New("record already exists")
)

// LedgerStore applies atomic field deltas. ApplyDelta must be a single
// conditional update expressing the delta, never a read-then-write pair,
// so concurrent debits cannot both approve an overdraft from the same
// pre-debit balance.
type LedgerStore interface {
	// ApplyDelta applies the mutation and returns the post-mutation value.
	// Returns ErrInsufficientBalance (decrement below zero, no change) or
	// ErrNotFound.
	ApplyDelta(ctx context.Context, m domain.LedgerMutation) (decimal.Decimal, error)
	// GetBalance reads the current value of a balance field.
	GetBalance(ctx context.Context, collection, entityID, field string) (decimal.Decimal, error)
}

// WalletRepository persists custodial wallet records. Create returns
// ErrDuplicate when the deterministic id already exists: wallet creation is
// create-once, never an upsert.
type WalletRepository interface {
	Create(ctx context.Context, w *domain.WalletRecord) error
	GetByID(ctx context.Context, id string) (*domain.WalletRecord, error)
	// GetByAddress matches any of the three address encodings.
	GetByAddress(ctx context.Context, address string) (*domain.WalletRecord, error)
}

// SettlementRepository persists settlement run records and their state
// transitions.
type SettlementRepository interface {
	Create(ctx context.Context, s *domain.Settlement) error
	UpdateState(ctx context.Context, id uuid.UUID, state domain.SettlementState, reason string) error
}

// SagaRepository persists two-leg mutation records. A saga whose legs
// disagree after the run is the signal for manual or automated compensation.
type SagaRepository interface {
	Create(ctx context.Context, s *domain.MilleSaga) error
	MarkLeg(ctx context.Context, id uuid.UUID, leg domain.SagaLeg, status domain.SagaLegStatus) error
}
