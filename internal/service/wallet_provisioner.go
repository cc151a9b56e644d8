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

	"github.com/rs/zerolog"
)

// WalletProvisionerService implements ports.WalletProvisioner.
//
// Provisioning is create-once: the wallet id is derived deterministically
// from (brand, type, user, currency) and an existing record is a conflict,
// never an overwrite. All-or-nothing: a record is persisted only after key
// generation, encryption and watcher registration have all succeeded, since
// an unmonitored address can never receive ledger credit.
type WalletProvisionerService struct {
	wallets          ports.WalletRepository
	keys             ports.KeyGenerator
	encSvc           ports.EncryptionService
	registrar        ports.WebhookRegistrar
	ledger           ports.UnitLedger
	minConfirmations int
	metrics          *metrics.Metrics
	log              zerolog.Logger
}

// NewWalletProvisionerService creates a new WalletProvisionerService.
func NewWalletProvisionerService(
	wallets ports.WalletRepository,
	keys ports.KeyGenerator,
	encSvc ports.EncryptionService,
	registrar ports.WebhookRegistrar,
	ledger ports.UnitLedger,
	minConfirmations int,
	m *metrics.Metrics,
	log zerolog.Logger,
) *WalletProvisionerService {
	return &WalletProvisionerService{
		wallets:          wallets,
		keys:             keys,
		encSvc:           encSvc,
		registrar:        registrar,
		ledger:           ledger,
		minConfirmations: minConfirmations,
		metrics:          m,
		log:              log,
	}
}

// Provision creates the custodial wallet for the given tuple.
func (s *WalletProvisionerService) Provision(ctx context.Context, req ports.ProvisionRequest) (*domain.WalletRecord, error) {
	if req.BrandID == "" || req.WalletType == "" || req.UserID == "" || req.Currency == "" {
		return nil, apperror.ErrMissingFields("brand_id, wallet_type, user_id, currency")
	}

	id := domain.WalletID(req.BrandID, req.WalletType, req.UserID, req.Currency)

	existing, err := s.wallets.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lookup wallet %s: %w", id, err))
	}
	if existing != nil {
		return nil, apperror.ErrWalletAlreadyExists()
	}

	keypair, err := s.keys.Generate()
	if err != nil {
		return nil, apperror.ErrProvisioningFailed(fmt.Errorf("generate keypair: %w", err))
	}

	encryptedKey, err := s.encSvc.Encrypt(keypair.PrivateKeyWIF)
	if err != nil {
		return nil, apperror.ErrEncryptionFailure(fmt.Errorf("encrypt private key: %w", err))
	}

	// Register before persisting: a stored wallet without a watcher
	// registration would silently swallow deposits.
	registrationID, err := s.registrar.RegisterAddress(ctx, keypair.Address, s.minConfirmations)
	if err != nil {
		s.log.Error().Err(err).
			Str("wallet_id", id).
			Str("address", keypair.Address).
			Msg("watcher registration failed, aborting provisioning")
		return nil, apperror.ErrProvisioningFailed(fmt.Errorf("register webhook: %w", err))
	}

	record := &domain.WalletRecord{
		ID:                  id,
		BrandID:             req.BrandID,
		UserID:              req.UserID,
		WalletType:          req.WalletType,
		Currency:            req.Currency,
		Address:             keypair.Address,
		LegacyAddress:       keypair.LegacyAddress,
		NestedAddress:       keypair.NestedAddress,
		PublicKey:           keypair.PublicKeyHex,
		EncryptedPrivateKey: encryptedKey,
		WebhookRegistration: registrationID,
		CreatedAt:           time.Now().UTC(),
	}

	if err := s.wallets.Create(ctx, record); err != nil {
		if errors.Is(err, ports.ErrDuplicate) {
			// Raced with a concurrent provision of the same tuple.
			return nil, apperror.ErrWalletAlreadyExists()
		}
		return nil, apperror.InternalError(fmt.Errorf("persist wallet %s: %w", id, err))
	}

	s.metrics.WalletsProvisioned.Inc()
	s.log.Info().
		Str("wallet_id", id).
		Str("brand_id", req.BrandID).
		Str("user_id", req.UserID).
		Str("currency", req.Currency).
		Str("address", keypair.Address).
		Msg("wallet provisioned")

	return record, nil
}

// HandleDeposit reconciles a chain watcher notification. Wallets are matched
// strictly by on-chain address; a notification for an unknown address is
// rejected and logged, never credited to a best-guess account.
func (s *WalletProvisionerService) HandleDeposit(ctx context.Context, n domain.DepositNotification) (domain.LedgerResult, error) {
	if n.Address == "" {
		return domain.LedgerResult{Status: false, Msg: "address is required"}, nil
	}

	wallet, err := s.wallets.GetByAddress(ctx, n.Address)
	if err != nil {
		return domain.LedgerResult{Status: false, Msg: "ledger unavailable"}, apperror.InternalError(fmt.Errorf("lookup address: %w", err))
	}
	if wallet == nil {
		s.metrics.DepositsRejected.Inc()
		s.log.Warn().
			Str("address", n.Address).
			Int("tx_count", len(n.Transactions)).
			Msg("deposit notification for unmonitored address discarded")
		return domain.LedgerResult{Status: false, Msg: "address is not monitored"}, apperror.ErrUnknownDepositAddress()
	}

	value := n.ConfirmedValue(s.minConfirmations)
	if !value.IsPositive() {
		return domain.LedgerResult{Status: false, Msg: "no confirmed transactions"}, nil
	}

	res, err := s.ledger.CreditOrDebit(ctx, ports.LedgerRequest{
		Collection: domain.CollectionWallets,
		EntityID:   wallet.ID,
		Field:      domain.FieldBalance,
		Amount:     value,
		Direction:  domain.DirectionCredit,
	})
	if err != nil {
		return res, err
	}

	s.log.Info().
		Str("wallet_id", wallet.ID).
		Str("address", n.Address).
		Str("value", value.String()).
		Msg("deposit credited")

	return res, nil
}
