package postgres

import (
	"context"
	"errors"
	"fmt"

	"revenue-settlement-engine/internal/core/domain"
	"revenue-settlement-engine/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// balanceColumns is the closed set of (table, column) pairs ApplyDelta may
// touch. Identifiers are interpolated into SQL, so anything outside this set
// is rejected before a query is built.
var balanceColumns = map[string]map[string]bool{
	domain.CollectionUsers:   {domain.FieldAIUnits: true, domain.FieldMille: true},
	domain.CollectionBrands:  {domain.FieldChildrenMille: true, domain.FieldRevenue: true},
	domain.CollectionWallets: {domain.FieldBalance: true},
}

// LedgerRepo implements ports.LedgerStore on PostgreSQL.
type LedgerRepo struct {
	pool Pool
}

// NewLedgerRepo creates a new LedgerRepo.
func NewLedgerRepo(pool Pool) *LedgerRepo {
	return &LedgerRepo{pool: pool}
}

// ApplyDelta applies the mutation as one conditional UPDATE and journals the
// committed delta into ledger_entries in the same transaction. The
// non-negative guard lives in the WHERE clause, so two concurrent debits can
// never both approve an overdraft from the same pre-debit read. Values travel
// as text and are applied as numeric, never as floats.
func (r *LedgerRepo) ApplyDelta(ctx context.Context, m domain.LedgerMutation) (decimal.Decimal, error) {
	if !balanceColumns[m.Collection][m.Field] {
		return decimal.Zero, fmt.Errorf("%s.%s is not a balance column", m.Collection, m.Field)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("begin ledger transaction: %w", err)
	}

	query := fmt.Sprintf(
		`UPDATE %s SET %s = %s + $1::numeric, updated_at = NOW()
		WHERE id = $2 AND %s + $1::numeric >= 0
		RETURNING %s::text`,
		m.Collection, m.Field, m.Field, m.Field, m.Field,
	)

	var raw string
	if err := tx.QueryRow(ctx, query, m.SignedDelta().String(), m.EntityID).Scan(&raw); err != nil {
		_ = tx.Rollback(ctx)
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, r.classifyMiss(ctx, m)
		}
		return decimal.Zero, fmt.Errorf("apply delta to %s.%s: %w", m.Collection, m.Field, err)
	}

	newValue, err := decimal.NewFromString(raw)
	if err != nil {
		_ = tx.Rollback(ctx)
		return decimal.Zero, fmt.Errorf("parse %s.%s value %q: %w", m.Collection, m.Field, raw, err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO ledger_entries (id, collection, entity_id, field, delta, new_value, created_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, NOW())`,
		uuid.New(), m.Collection, m.EntityID, m.Field, m.SignedDelta().String(), raw,
	)
	if err != nil {
		_ = tx.Rollback(ctx)
		return decimal.Zero, fmt.Errorf("journal ledger entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, fmt.Errorf("commit ledger transaction: %w", err)
	}
	return newValue, nil
}

// classifyMiss distinguishes a missing row from a rejected overdraft after
// the conditional update matched nothing.
func (r *LedgerRepo) classifyMiss(ctx context.Context, m domain.LedgerMutation) error {
	query := fmt.Sprintf(`SELECT 1 FROM %s WHERE id = $1`, m.Collection)

	var one int
	err := r.pool.QueryRow(ctx, query, m.EntityID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return ports.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("classify miss on %s: %w", m.Collection, err)
	}
	return ports.ErrInsufficientBalance
}

// GetBalance reads the current value of one balance column.
func (r *LedgerRepo) GetBalance(ctx context.Context, collection, entityID, field string) (decimal.Decimal, error) {
	if !balanceColumns[collection][field] {
		return decimal.Zero, fmt.Errorf("%s.%s is not a balance column", collection, field)
	}

	query := fmt.Sprintf(`SELECT %s::text FROM %s WHERE id = $1`, field, collection)

	var raw string
	err := r.pool.QueryRow(ctx, query, entityID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, ports.ErrNotFound
		}
		return decimal.Zero, fmt.Errorf("get %s.%s: %w", collection, field, err)
	}

	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse %s.%s value %q: %w", collection, field, raw, err)
	}
	return value, nil
}
