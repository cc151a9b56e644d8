package postgres

import (
	"context"
	"fmt"

	"revenue-settlement-engine/internal/core/domain"
	"revenue-settlement-engine/internal/core/ports"

	"github.com/google/uuid"
)

// SettlementRepo implements ports.SettlementRepository.
type SettlementRepo struct {
	pool Pool
}

// NewSettlementRepo creates a new SettlementRepo.
func NewSettlementRepo(pool Pool) *SettlementRepo {
	return &SettlementRepo{pool: pool}
}

// Create inserts a new settlement run record.
func (r *SettlementRepo) Create(ctx context.Context, s *domain.Settlement) error {
	query := `INSERT INTO settlements (id, kind, user_id, brand_id, currency, value, state, reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8, $9, $9)`

	_, err := r.pool.Exec(ctx, query,
		s.ID, s.Kind, s.UserID, s.BrandID, s.Currency,
		s.Value.String(), s.State, s.Reason, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert settlement: %w", err)
	}
	return nil
}

// UpdateState records a state transition. Reason is only meaningful for the
// FAILED state and is empty otherwise.
func (r *SettlementRepo) UpdateState(ctx context.Context, id uuid.UUID, state domain.SettlementState, reason string) error {
	query := `UPDATE settlements SET state = $1, reason = $2, updated_at = NOW() WHERE id = $3`

	tag, err := r.pool.Exec(ctx, query, state, reason, id)
	if err != nil {
		return fmt.Errorf("update settlement state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}
