package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// WalletID derives the deterministic identity of a custodial wallet from its
// owning tuple. Repeated provisioning requests for the same tuple resolve to
// the same id, which is what makes wallet creation a create-once operation.
func WalletID(brandID, walletType, userID, currency string) string {
	h := sha256.Sum256([]byte(brandID + "|" + walletType + "|" + userID + "|" + strings.ToUpper(currency)))
	return hex.EncodeToString(h[:])
}

// WalletRecord is a provisioned custodial deposit wallet. The private key is
// stored AES-encrypted only; the plaintext never leaves the provisioner.
type WalletRecord struct {
	ID                  string          `json:"id"`
	BrandID             string          `json:"brand_id"`
	UserID              string          `json:"user_id"`
	WalletType          string          `json:"wallet_type"`
	Currency            string          `json:"currency"`
	Address             string          `json:"address"`
	LegacyAddress       string          `json:"legacy_address"`
	NestedAddress       string          `json:"nested_address"`
	PublicKey           string          `json:"public_key"`
	EncryptedPrivateKey string          `json:"-"`
	WebhookRegistration string          `json:"webhook_registration"`
	Balance             decimal.Decimal `json:"balance"`
	CreatedAt           time.Time       `json:"created_at"`
}

// Keypair is fresh key material produced by the chain key generator.
// PrivateKeyWIF is plaintext and must be encrypted before persistence.
type Keypair struct {
	PrivateKeyWIF string
	PublicKeyHex  string
	Address       string // native segwit
	LegacyAddress string
	NestedAddress string
}

// DepositTx is one on-chain transaction inside a deposit notification.
type DepositTx struct {
	TxID          string          `json:"txid"`
	Value         decimal.Decimal `json:"value"`
	Confirmations int             `json:"confirmations"`
}

// DepositNotification is the chain watcher's webhook payload. Wallets are
// matched strictly by Address; a notification for an unknown address is
// discarded, never credited to a best-guess account.
type DepositNotification struct {
	Address      string      `json:"address"`
	Transactions []DepositTx `json:"transactions"`
}

// ConfirmedValue sums the value of transactions at or above the
// confirmation threshold.
func (n DepositNotification) ConfirmedValue(minConfirmations int) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range n.Transactions {
		if tx.Confirmations >= minConfirmations {
			total = total.Add(tx.Value)
		}
	}
	return total
}
