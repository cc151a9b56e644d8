package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEncryption(t *testing.T) *AESEncryptionService {
	t.Helper()
	svc, err := NewAESEncryptionService("test-passphrase", "test-salt")
	require.NoError(t, err)
	return svc
}

func TestNewAESEncryptionService_RequiresSecrets(t *testing.T) {
	_, err := NewAESEncryptionService("", "salt")
	assert.Error(t, err)

	_, err = NewAESEncryptionService("passphrase", "")
	assert.Error(t, err)
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	svc := newTestEncryption(t)

	plaintext := "cMahEQivR8WIFyLGzSMzf7hiBTh6SUqWVPPTz2nW2nXh7pYcXorq"
	ciphertext, err := svc.Encrypt(plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, ciphertext)

	decrypted, err := svc.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestEncrypt_NonceMakesCiphertextUnique(t *testing.T) {
	svc := newTestEncryption(t)

	a, err := svc.Encrypt("same input")
	require.NoError(t, err)
	b, err := svc.Encrypt("same input")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecrypt_RejectsGarbage(t *testing.T) {
	svc := newTestEncryption(t)

	_, err := svc.Decrypt("not-hex!")
	assert.Error(t, err)

	_, err = svc.Decrypt("abcd")
	assert.Error(t, err, "ciphertext shorter than the nonce")

	// Valid hex, wrong key material.
	other, err := NewAESEncryptionService("different-passphrase", "test-salt")
	require.NoError(t, err)
	ciphertext, err := other.Encrypt("secret")
	require.NoError(t, err)
	_, err = svc.Decrypt(ciphertext)
	assert.Error(t, err)
}

func TestKeyDerivation_Deterministic(t *testing.T) {
	a, err := NewAESEncryptionService("p", "s")
	require.NoError(t, err)
	b, err := NewAESEncryptionService("p", "s")
	require.NoError(t, err)

	// Same passphrase+salt must decrypt each other's output.
	ciphertext, err := a.Encrypt("hello")
	require.NoError(t, err)
	plaintext, err := b.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "hello", plaintext)
}
