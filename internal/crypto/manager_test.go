// ABOUTME: Tests for the encryption manager
// ABOUTME: Covers round-trips, cross-principal failure, tampering, and salt handling

package crypto

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memorySaltStore is an in-memory SaltStore for tests.
type memorySaltStore struct {
	salts map[string][]byte
	calls int
}

func newMemorySaltStore() *memorySaltStore {
	return &memorySaltStore{salts: make(map[string][]byte)}
}

func (s *memorySaltStore) GetOrCreateSalt(_ context.Context, principalID string) ([]byte, error) {
	s.calls++
	if salt, ok := s.salts[principalID]; ok {
		return salt, nil
	}
	salt, err := NewSalt()
	if err != nil {
		return nil, err
	}
	s.salts[principalID] = salt
	return salt, nil
}

// testIterations keeps the KDF cheap enough for the test suite while staying
// above the enforced minimum.
const testIterations = MinKDFIterations

func newTestManager(t *testing.T) (*Manager, *memorySaltStore) {
	t.Helper()
	salts := newMemorySaltStore()
	m, err := NewManager([]byte("test-master-secret"), testIterations, salts)
	require.NoError(t, err)
	return m, salts
}

func TestNewManager_Validation(t *testing.T) {
	salts := newMemorySaltStore()

	_, err := NewManager(nil, testIterations, salts)
	assert.Error(t, err, "empty master secret should be rejected")

	_, err = NewManager([]byte("secret"), MinKDFIterations-1, salts)
	assert.Error(t, err, "work factor below minimum should be rejected")

	_, err = NewManager([]byte("secret"), testIterations, nil)
	assert.Error(t, err, "nil salt store should be rejected")

	m, err := NewManager([]byte("secret"), 0, salts)
	require.NoError(t, err)
	assert.Equal(t, DefaultKDFIterations, m.iterations)
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	secrets := []string{
		"SBZVMB74Z76I7I3YT75JTFF7TBAYSGUWL6HLHFUGZCDOSPYTJSXMGJ5R",
		"",
		"short",
		strings.Repeat("x", 4096),
	}

	for _, plaintext := range secrets {
		ciphertext, err := m.Encrypt(ctx, plaintext, "user_1")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(ciphertext, "v1:"))
		if plaintext != "" {
			assert.NotContains(t, ciphertext, plaintext)
		}

		got, err := m.Decrypt(ctx, ciphertext, "user_1")
		require.NoError(t, err)
		assert.Equal(t, plaintext, got)
	}
}

func TestEncrypt_FreshNoncePerCall(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	a, err := m.Encrypt(ctx, "same plaintext", "user_1")
	require.NoError(t, err)
	b, err := m.Encrypt(ctx, "same plaintext", "user_1")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestDecrypt_CrossPrincipalFails(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	ciphertext, err := m.Encrypt(ctx, "user one's secret", "user_1")
	require.NoError(t, err)

	_, err = m.Decrypt(ctx, ciphertext, "user_2")
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestDecrypt_TamperedCiphertextFails(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	ciphertext, err := m.Encrypt(ctx, "secret", "user_1")
	require.NoError(t, err)

	cases := map[string]string{
		"missing prefix":    strings.TrimPrefix(ciphertext, "v1:"),
		"bad base64":        "v1:!!!not-base64!!!",
		"truncated body":    ciphertext[:len(ciphertext)/2],
		"flipped tail byte": flipTail(ciphertext),
		"empty":             "",
	}

	for name, tampered := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := m.Decrypt(ctx, tampered, "user_1")
			assert.ErrorIs(t, err, ErrDecryptionFailed)
		})
	}
}

func TestDecrypt_WrongMasterSecretFails(t *testing.T) {
	salts := newMemorySaltStore()
	ctx := context.Background()

	a, err := NewManager([]byte("master-a"), testIterations, salts)
	require.NoError(t, err)
	b, err := NewManager([]byte("master-b"), testIterations, salts)
	require.NoError(t, err)

	ciphertext, err := a.Encrypt(ctx, "secret", "user_1")
	require.NoError(t, err)

	_, err = b.Decrypt(ctx, ciphertext, "user_1")
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestEncrypt_EmptyPrincipalRejected(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.Encrypt(context.Background(), "secret", "")
	assert.Error(t, err)

	_, err = m.Decrypt(context.Background(), "v1:whatever", "")
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestSaltStability(t *testing.T) {
	m, salts := newTestManager(t)
	ctx := context.Background()

	ciphertext, err := m.Encrypt(ctx, "secret", "user_1")
	require.NoError(t, err)

	// Same stored salt must keep old ciphertext decryptable.
	got, err := m.Decrypt(ctx, ciphertext, "user_1")
	require.NoError(t, err)
	assert.Equal(t, "secret", got)

	// A regenerated salt would orphan the ciphertext.
	fresh, err := NewSalt()
	require.NoError(t, err)
	salts.salts["user_1"] = fresh

	_, err = m.Decrypt(ctx, ciphertext, "user_1")
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestNewSalt(t *testing.T) {
	a, err := NewSalt()
	require.NoError(t, err)
	b, err := NewSalt()
	require.NoError(t, err)

	assert.Len(t, a, SaltLen)
	assert.NotEqual(t, a, b)
}

// flipTail swaps the last character of a base64 envelope for a different one.
func flipTail(s string) string {
	last := s[len(s)-1]
	replacement := byte('A')
	if last == 'A' {
		replacement = 'B'
	}
	return s[:len(s)-1] + string(replacement)
}
