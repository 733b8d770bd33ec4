// Package vault provides authenticated encryption for confidential identity
// payloads. AES-256-GCM turns undetected tampering into a loud decryption
// failure: a wrong key, a flipped ciphertext byte, or a doctored tag all
// collapse into the same authentication error, never into silently-wrong
// plaintext.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	id "veritas/pkg/domain"
	dErrors "veritas/pkg/domain-errors"
)

const (
	keySize = 32
	ivSize  = 12
	tagSize = 16
)

// ErrAuthentication is returned by Decrypt when the key is wrong or the
// ciphertext or tag has been tampered with. The three causes are
// indistinguishable on purpose.
var ErrAuthentication = errors.New("vault: authentication failed")

// Record is one encrypted identity payload. It never carries key material,
// only the identifier of the key that encrypted it.
type Record struct {
	EncryptedPayload string   `json:"encryptedPayload"`
	IV               string   `json:"iv"`
	AuthTag          string   `json:"authTag"`
	KeyID            id.KeyID `json:"keyId"`
}

// Encrypt serializes payload and encrypts it under key with a fresh random
// 12-byte IV. Each call produces a distinct IV and ciphertext even for
// identical plaintext, so records cannot be correlated by ciphertext.
func Encrypt(payload map[string]any, key []byte, keyID id.KeyID) (Record, error) {
	if len(key) != keySize {
		return Record{}, dErrors.Newf(dErrors.CodeInvalidInput, "vault key must be %d bytes, got %d", keySize, len(key))
	}
	if keyID == "" {
		return Record{}, dErrors.New(dErrors.CodeInvalidInput, "keyId is required")
	}

	plaintext, err := json.Marshal(payload)
	if err != nil {
		return Record{}, fmt.Errorf("serialize payload: %w", err)
	}

	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return Record{}, fmt.Errorf("generate iv: %w", err)
	}

	gcm, err := newGCM(key)
	if err != nil {
		return Record{}, err
	}

	sealed := gcm.Seal(nil, iv, plaintext, nil)
	ciphertext, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	return Record{
		EncryptedPayload: hex.EncodeToString(ciphertext),
		IV:               hex.EncodeToString(iv),
		AuthTag:          hex.EncodeToString(tag),
		KeyID:            keyID,
	}, nil
}

// Decrypt authenticates and decrypts a record, returning the original
// payload. Absent optional fields stay absent: the payload round-trips
// exactly as it was encrypted.
func Decrypt(rec Record, key []byte) (map[string]any, error) {
	if len(key) != keySize {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "vault key must be %d bytes, got %d", keySize, len(key))
	}

	ciphertext, err := hex.DecodeString(rec.EncryptedPayload)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "encryptedPayload is not valid hex")
	}
	iv, err := hex.DecodeString(rec.IV)
	if err != nil || len(iv) != ivSize {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "iv must be 12 hex-encoded bytes")
	}
	tag, err := hex.DecodeString(rec.AuthTag)
	if err != nil || len(tag) != tagSize {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "authTag must be 16 hex-encoded bytes")
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, iv, append(ciphertext, tag...), nil)
	if err != nil {
		return nil, ErrAuthentication
	}

	var payload map[string]any
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return nil, fmt.Errorf("deserialize payload: %w", err)
	}
	return payload, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}
	return gcm, nil
}
