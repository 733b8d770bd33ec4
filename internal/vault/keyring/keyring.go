// Package keyring derives per-key-ID encryption keys from a master secret.
// The engine never manages secret distribution; the master secret arrives
// via configuration and individual 32-byte keys are derived on demand with
// HKDF-SHA256, so rotating a key ID never requires shipping new material.
package keyring

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	id "veritas/pkg/domain"
	dErrors "veritas/pkg/domain-errors"
)

// Keyring derives vault and seal keys from a single master secret.
type Keyring struct {
	master []byte
}

// New creates a keyring over the given master secret. The secret must be at
// least 32 bytes of high-entropy material.
func New(master []byte) (*Keyring, error) {
	if len(master) < 32 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "master secret must be at least 32 bytes")
	}
	return &Keyring{master: master}, nil
}

// VaultKey derives the 32-byte AES key for the given vault key ID.
func (k *Keyring) VaultKey(keyID id.KeyID) ([]byte, error) {
	return k.derive("veritas/vault/" + string(keyID))
}

// SealKey derives the 32-byte HMAC key for the given seal key ID.
func (k *Keyring) SealKey(keyID id.KeyID) ([]byte, error) {
	return k.derive("veritas/seal/" + string(keyID))
}

// BindingKey derives the HMAC key binding dual-control approvals.
func (k *Keyring) BindingKey() ([]byte, error) {
	return k.derive("veritas/approval-binding")
}

func (k *Keyring) derive(info string) ([]byte, error) {
	r := hkdf.New(sha256.New, k.master, nil, []byte(info))
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive key %q: %w", info, err)
	}
	return key, nil
}
