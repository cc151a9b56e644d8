package integration

import (
	"context"
	"fmt"
	"sync"

	"revenue-settlement-engine/internal/core/domain"
	"revenue-settlement-engine/internal/core/ports"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- In-Memory Ledger Store ---

// inMemoryLedgerStore mirrors the conditional-update contract of the postgres
// store: one mutex guards the check and the write, so a decrement can never
// approve an overdraft from a stale read.
type inMemoryLedgerStore struct {
	mu       sync.Mutex
	balances map[string]decimal.Decimal
}

func newInMemoryLedgerStore() *inMemoryLedgerStore {
	return &inMemoryLedgerStore{balances: make(map[string]decimal.Decimal)}
}

func balanceKey(collection, entityID, field string) string {
	return collection + "/" + entityID + "/" + field
}

func (s *inMemoryLedgerStore) seed(collection, entityID, field string, value decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[balanceKey(collection, entityID, field)] = value
}

func (s *inMemoryLedgerStore) ApplyDelta(ctx context.Context, m domain.LedgerMutation) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := balanceKey(m.Collection, m.EntityID, m.Field)
	current, ok := s.balances[key]
	if !ok {
		return decimal.Zero, ports.ErrNotFound
	}

	next := current.Add(m.SignedDelta())
	if next.IsNegative() {
		return decimal.Zero, ports.ErrInsufficientBalance
	}
	s.balances[key] = next
	return next, nil
}

func (s *inMemoryLedgerStore) GetBalance(ctx context.Context, collection, entityID, field string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.balances[balanceKey(collection, entityID, field)]
	if !ok {
		return decimal.Zero, ports.ErrNotFound
	}
	return v, nil
}

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu      sync.RWMutex
	wallets map[string]*domain.WalletRecord
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{wallets: make(map[string]*domain.WalletRecord)}
}

func (r *inMemoryWalletRepo) Create(ctx context.Context, w *domain.WalletRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.wallets[w.ID]; ok {
		return ports.ErrDuplicate
	}
	cp := *w
	r.wallets[w.ID] = &cp
	return nil
}

func (r *inMemoryWalletRepo) GetByID(ctx context.Context, id string) (*domain.WalletRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *inMemoryWalletRepo) GetByAddress(ctx context.Context, address string) (*domain.WalletRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.wallets {
		if w.Address == address || w.LegacyAddress == address || w.NestedAddress == address {
			cp := *w
			return &cp, nil
		}
	}
	return nil, nil
}

// --- In-Memory Settlement Repo ---

type inMemorySettlementRepo struct {
	mu          sync.RWMutex
	settlements map[uuid.UUID]*domain.Settlement
}

func newInMemorySettlementRepo() *inMemorySettlementRepo {
	return &inMemorySettlementRepo{settlements: make(map[uuid.UUID]*domain.Settlement)}
}

func (r *inMemorySettlementRepo) Create(ctx context.Context, s *domain.Settlement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.settlements[s.ID] = &cp
	return nil
}

func (r *inMemorySettlementRepo) UpdateState(ctx context.Context, id uuid.UUID, state domain.SettlementState, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.settlements[id]
	if !ok {
		return ports.ErrNotFound
	}
	s.State = state
	s.Reason = reason
	return nil
}

func (r *inMemorySettlementRepo) get(id uuid.UUID) *domain.Settlement {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.settlements[id]
	if !ok {
		return nil
	}
	cp := *s
	return &cp
}

// --- In-Memory Saga Repo ---

type inMemorySagaRepo struct {
	mu    sync.RWMutex
	sagas map[uuid.UUID]*domain.MilleSaga
}

func newInMemorySagaRepo() *inMemorySagaRepo {
	return &inMemorySagaRepo{sagas: make(map[uuid.UUID]*domain.MilleSaga)}
}

func (r *inMemorySagaRepo) Create(ctx context.Context, s *domain.MilleSaga) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.sagas[s.ID] = &cp
	return nil
}

func (r *inMemorySagaRepo) MarkLeg(ctx context.Context, id uuid.UUID, leg domain.SagaLeg, status domain.SagaLegStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sagas[id]
	if !ok {
		return ports.ErrNotFound
	}
	switch leg {
	case domain.SagaLegUser:
		s.UserLeg = status
	case domain.SagaLegBrand:
		s.BrandLeg = status
	default:
		return fmt.Errorf("unknown saga leg %q", leg)
	}
	return nil
}

func (r *inMemorySagaRepo) all() []domain.MilleSaga {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.MilleSaga, 0, len(r.sagas))
	for _, s := range r.sagas {
		out = append(out, *s)
	}
	return out
}
