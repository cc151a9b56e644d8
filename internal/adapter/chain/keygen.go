package chain

import (
	"encoding/hex"
	"fmt"

	"revenue-settlement-engine/config"
	"revenue-settlement-engine/internal/core/domain"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
)

// KeyGen implements ports.KeyGenerator. Each call produces a fresh keypair
// with three address encodings derived from the same public key, so
// depositors can use legacy, native-segwit or nested-segwit wallet software.
type KeyGen struct {
	params *chaincfg.Params
}

// NewKeyGen creates a key generator for the configured network.
func NewKeyGen(cfg config.ChainConfig) *KeyGen {
	params := &chaincfg.TestNet3Params
	if cfg.IsMainnet() {
		params = &chaincfg.MainNetParams
	}
	return &KeyGen{params: params}
}

// Generate produces a fresh keypair. The WIF is plaintext; the caller owns
// encrypting it before anything is persisted.
func (g *KeyGen) Generate() (*domain.Keypair, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate private key: %w", err)
	}

	wif, err := btcutil.NewWIF(priv, g.params, true)
	if err != nil {
		return nil, fmt.Errorf("encode wif: %w", err)
	}

	pubBytes := priv.PubKey().SerializeCompressed()
	pubKeyHash := btcutil.Hash160(pubBytes)

	legacy, err := btcutil.NewAddressPubKeyHash(pubKeyHash, g.params)
	if err != nil {
		return nil, fmt.Errorf("derive legacy address: %w", err)
	}

	segwit, err := btcutil.NewAddressWitnessPubKeyHash(pubKeyHash, g.params)
	if err != nil {
		return nil, fmt.Errorf("derive segwit address: %w", err)
	}

	// Nested segwit wraps the witness program in a P2SH script.
	script, err := txscript.PayToAddrScript(segwit)
	if err != nil {
		return nil, fmt.Errorf("build witness script: %w", err)
	}
	nested, err := btcutil.NewAddressScriptHash(script, g.params)
	if err != nil {
		return nil, fmt.Errorf("derive nested address: %w", err)
	}

	return &domain.Keypair{
		PrivateKeyWIF: wif.String(),
		PublicKeyHex:  hex.EncodeToString(pubBytes),
		Address:       segwit.EncodeAddress(),
		LegacyAddress: legacy.EncodeAddress(),
		NestedAddress: nested.EncodeAddress(),
	}, nil
}
