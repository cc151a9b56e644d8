package ports

import (
	"context"
	"time"

	"revenue-settlement-engine/internal/core/domain"

	"github.com/shopspring/decimal"
)

// EncryptionService handles AES-256-GCM encryption/decryption of key
// material at rest.
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// RateProvider supplies the current exchange-rate table. Implementations are
// read-through caches with a bounded staleness window, injected explicitly
// rather than an ambient process-wide map.
type RateProvider interface {
	Rates(ctx context.Context) (domain.RateTable, error)
}

// RateSource fetches a fresh table from the upstream rate service.
type RateSource interface {
	Fetch(ctx context.Context) (domain.RateTable, error)
}

// RateCache stores a rate table with a TTL. Get returns nil when the cache
// is cold or expired.
type RateCache interface {
	Get(ctx context.Context) (*domain.RateTable, error)
	Set(ctx context.Context, table domain.RateTable, ttl time.Duration) error
}

// KeyGenerator produces fresh wallet key material for the configured network.
type KeyGenerator interface {
	Generate() (*domain.Keypair, error)
}

// WebhookRegistrar registers a deposit address with the external
// ledger-watching service so incoming transactions are pushed, not polled.
type WebhookRegistrar interface {
	// RegisterAddress returns the watcher's registration id.
	RegisterAddress(ctx context.Context, address string, confirmations int) (string, error)
}

// --- Service Ports (Business Logic) ---

// LedgerRequest is the validated input for a single-entity unit operation.
type LedgerRequest struct {
	Collection string
	EntityID   string
	Field      string
	Amount     decimal.Decimal
	Direction  domain.LedgerDirection
}

// MilleRequest is the validated input for a two-leg mille operation: the
// user's personal balance and the owning brand's aggregate move together.
type MilleRequest struct {
	UserID    string
	BrandID   string
	Amount    decimal.Decimal
	Direction domain.LedgerDirection
}

// UnitLedger is the only component allowed to mutate balances.
type UnitLedger interface {
	CreditOrDebit(ctx context.Context, req LedgerRequest) (domain.LedgerResult, error)
	TransferMille(ctx context.Context, req MilleRequest) (domain.LedgerResult, error)
}

// ProvisionRequest identifies the wallet tuple to provision.
type ProvisionRequest struct {
	BrandID    string
	WalletType string
	UserID     string
	Currency   string
}

// WalletProvisioner creates custodial wallets and reconciles deposit
// notifications against them.
type WalletProvisioner interface {
	Provision(ctx context.Context, req ProvisionRequest) (*domain.WalletRecord, error)
	HandleDeposit(ctx context.Context, n domain.DepositNotification) (domain.LedgerResult, error)
}

// SettlementService runs the full hierarchy settlement for one transaction
// event.
type SettlementService interface {
	Settle(ctx context.Context, event domain.SettlementEvent) (*domain.SettlementResult, error)
}
