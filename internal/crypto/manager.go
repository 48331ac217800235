// ABOUTME: Authenticated encryption of secret key material with per-principal derived keys
// ABOUTME: PBKDF2-SHA256 over master secret + stored principal salt, AES-256-GCM envelope

package crypto

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// ErrDecryptionFailed is returned for every decryption failure: wrong
// principal, corrupted ciphertext, or wrong master secret. The causes are
// deliberately indistinguishable to the caller.
var ErrDecryptionFailed = errors.New("decryption failed")

const (
	// DefaultKDFIterations is the PBKDF2 work factor.
	DefaultKDFIterations = 100_000

	// MinKDFIterations is the lowest work factor the manager accepts.
	MinKDFIterations = 10_000

	// SaltLen is the length in bytes of per-principal KDF salts.
	SaltLen = 16

	keyLen         = 32
	envelopePrefix = "v1:"
)

// SaltStore supplies the stored per-principal KDF salt, generating a random
// one on first use and never regenerating it for an existing principal.
type SaltStore interface {
	GetOrCreateSalt(ctx context.Context, principalID string) ([]byte, error)
}

// Manager derives a symmetric key per principal and performs authenticated
// encryption of secret material. It knows nothing about accounts or chains.
type Manager struct {
	masterSecret []byte
	iterations   int
	salts        SaltStore
}

// NewManager creates an encryption manager. The master secret comes from
// process configuration and is never logged. A zero iterations value selects
// DefaultKDFIterations.
func NewManager(masterSecret []byte, iterations int, salts SaltStore) (*Manager, error) {
	if len(masterSecret) == 0 {
		return nil, errors.New("master secret is empty")
	}
	if iterations == 0 {
		iterations = DefaultKDFIterations
	}
	if iterations < MinKDFIterations {
		return nil, fmt.Errorf("kdf iterations %d below minimum %d", iterations, MinKDFIterations)
	}
	if salts == nil {
		return nil, errors.New("salt store is required")
	}
	return &Manager{
		masterSecret: masterSecret,
		iterations:   iterations,
		salts:        salts,
	}, nil
}

// deriveKey runs the KDF for one principal. The stored random salt binds the
// derived key to the principal: ciphertext for principal A cannot decrypt
// under principal B's derivation input.
func (m *Manager) deriveKey(ctx context.Context, principalID string) ([]byte, error) {
	salt, err := m.salts.GetOrCreateSalt(ctx, principalID)
	if err != nil {
		return nil, fmt.Errorf("loading principal salt: %w", err)
	}
	return pbkdf2.Key(m.masterSecret, salt, m.iterations, keyLen, sha256.New), nil
}

// Encrypt authenticated-encrypts plaintext under the key derived for
// principalID and returns an opaque ciphertext string.
func (m *Manager) Encrypt(ctx context.Context, plaintext, principalID string) (string, error) {
	if principalID == "" {
		return "", errors.New("principal id is empty")
	}

	key, err := m.deriveKey(ctx, principalID)
	if err != nil {
		return "", err
	}

	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return envelopePrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt under the same principal's derived key. Every
// failure mode surfaces as ErrDecryptionFailed.
func (m *Manager) Decrypt(ctx context.Context, ciphertext, principalID string) (string, error) {
	if principalID == "" {
		return "", ErrDecryptionFailed
	}

	key, err := m.deriveKey(ctx, principalID)
	if err != nil {
		return "", fmt.Errorf("loading principal salt: %w", err)
	}

	encoded, ok := strings.CutPrefix(ciphertext, envelopePrefix)
	if !ok {
		return "", ErrDecryptionFailed
	}

	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	if len(sealed) < gcm.NonceSize() {
		return "", ErrDecryptionFailed
	}
	nonce, body := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, body, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}

// newGCM builds the AEAD for a derived key.
func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating gcm: %w", err)
	}
	return gcm, nil
}

// NewSalt generates a random per-principal KDF salt.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}
	return salt, nil
}
