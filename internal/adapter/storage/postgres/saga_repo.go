package postgres

import (
	"context"
	"fmt"

	"revenue-settlement-engine/internal/core/domain"
	"revenue-settlement-engine/internal/core/ports"

	"github.com/google/uuid"
)

// sagaLegColumns maps a saga leg to its status column. Identifiers are
// interpolated, so the map is the whitelist.
var sagaLegColumns = map[domain.SagaLeg]string{
	domain.SagaLegUser:  "user_leg",
	domain.SagaLegBrand: "brand_leg",
}

// SagaRepo implements ports.SagaRepository. A persisted saga whose legs
// disagree after a run is the compensation work queue.
type SagaRepo struct {
	pool Pool
}

// NewSagaRepo creates a new SagaRepo.
func NewSagaRepo(pool Pool) *SagaRepo {
	return &SagaRepo{pool: pool}
}

// Create inserts a new two-leg mutation record with both legs pending.
func (r *SagaRepo) Create(ctx context.Context, s *domain.MilleSaga) error {
	query := `INSERT INTO mille_sagas (id, user_id, brand_id, amount, direction, user_leg, brand_leg, created_at)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		s.ID, s.UserID, s.BrandID, s.Amount.String(), s.Direction,
		s.UserLeg, s.BrandLeg, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert mille saga: %w", err)
	}
	return nil
}

// MarkLeg records the outcome of one leg.
func (r *SagaRepo) MarkLeg(ctx context.Context, id uuid.UUID, leg domain.SagaLeg, status domain.SagaLegStatus) error {
	column, ok := sagaLegColumns[leg]
	if !ok {
		return fmt.Errorf("unknown saga leg %q", leg)
	}

	query := fmt.Sprintf(`UPDATE mille_sagas SET %s = $1 WHERE id = $2`, column)

	tag, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("mark saga leg %s: %w", leg, err)
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}
