package postgres

import (
	"context"
	"errors"
	"fmt"

	"revenue-settlement-engine/internal/core/domain"
	"revenue-settlement-engine/internal/core/ports"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const walletColumns = `id, brand_id, user_id, wallet_type, currency, address, legacy_address,
		nested_address, public_key, encrypted_private_key, webhook_registration, balance::text, created_at`

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// Create inserts a new wallet record. The deterministic id is the primary
// key, so a concurrent provision of the same tuple surfaces as ErrDuplicate
// instead of a second address.
func (r *WalletRepo) Create(ctx context.Context, w *domain.WalletRecord) error {
	query := `INSERT INTO wallets (id, brand_id, user_id, wallet_type, currency, address, legacy_address,
		nested_address, public_key, encrypted_private_key, webhook_registration, balance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 0, $12)`

	_, err := r.pool.Exec(ctx, query,
		w.ID, w.BrandID, w.UserID, w.WalletType, w.Currency,
		w.Address, w.LegacyAddress, w.NestedAddress,
		w.PublicKey, w.EncryptedPrivateKey, w.WebhookRegistration, w.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ports.ErrDuplicate
		}
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// GetByID fetches a wallet by its deterministic id.
func (r *WalletRepo) GetByID(ctx context.Context, id string) (*domain.WalletRecord, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1`

	w, err := r.scanWallet(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get wallet by id: %w", err)
	}
	return w, nil
}

// GetByAddress matches a wallet by any of its three address encodings.
// Deposit notifications carry only the on-chain address, never the id.
func (r *WalletRepo) GetByAddress(ctx context.Context, address string) (*domain.WalletRecord, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets
		WHERE address = $1 OR legacy_address = $1 OR nested_address = $1`

	w, err := r.scanWallet(r.pool.QueryRow(ctx, query, address))
	if err != nil {
		return nil, fmt.Errorf("get wallet by address: %w", err)
	}
	return w, nil
}

func (r *WalletRepo) scanWallet(row pgx.Row) (*domain.WalletRecord, error) {
	w := &domain.WalletRecord{}
	var balance string
	err := row.Scan(
		&w.ID, &w.BrandID, &w.UserID, &w.WalletType, &w.Currency,
		&w.Address, &w.LegacyAddress, &w.NestedAddress,
		&w.PublicKey, &w.EncryptedPrivateKey, &w.WebhookRegistration,
		&balance, &w.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if w.Balance, err = decimal.NewFromString(balance); err != nil {
		return nil, fmt.Errorf("parse wallet balance %q: %w", balance, err)
	}
	return w, nil
}
