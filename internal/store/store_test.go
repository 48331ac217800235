// ABOUTME: Tests for SQLite account persistence
// ABOUTME: Covers CRUD, the (chain, public_key) uniqueness constraint, and listing

package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

// testAccount builds an account row for owner with a unique public key.
func testAccount(owner string) *Account {
	suffix := uuid.New().String()
	return &Account{
		ID:               "account_" + suffix,
		OwnerPrincipalID: owner,
		Chain:            "stellar",
		PublicKey:        "G" + suffix,
		EncryptedSecret:  "v1:ciphertext-" + suffix,
		DisplayName:      "Test Account",
		Source:           SourceGenerated,
		CreatedAt:        time.Now().UTC(),
	}
}

func TestCreateAndGetAccount(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	account := testAccount("user_1")
	require.NoError(t, s.CreateAccount(ctx, account))

	got, err := s.GetAccount(ctx, account.ID)
	require.NoError(t, err)

	assert.Equal(t, account.ID, got.ID)
	assert.Equal(t, "user_1", got.OwnerPrincipalID)
	assert.Equal(t, account.Chain, got.Chain)
	assert.Equal(t, account.PublicKey, got.PublicKey)
	assert.Equal(t, account.EncryptedSecret, got.EncryptedSecret)
	assert.Equal(t, "Test Account", got.DisplayName)
	assert.Equal(t, SourceGenerated, got.Source)
	assert.WithinDuration(t, account.CreatedAt, got.CreatedAt, time.Second)
	assert.Nil(t, got.LastUsedAt)
}

func TestGetAccount_NotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.GetAccount(context.Background(), "account_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateAccount_DuplicatePublicKey(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	first := testAccount("user_1")
	require.NoError(t, s.CreateAccount(ctx, first))

	// Same (chain, public_key) under a different owner must still collide.
	second := testAccount("user_2")
	second.PublicKey = first.PublicKey
	err := s.CreateAccount(ctx, second)
	assert.ErrorIs(t, err, ErrDuplicateAccount)

	count, err := s.CountAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCreateAccount_SamePublicKeyDifferentChain(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	first := testAccount("user_1")
	require.NoError(t, s.CreateAccount(ctx, first))

	second := testAccount("user_1")
	second.PublicKey = first.PublicKey
	second.Chain = "otherchain"
	assert.NoError(t, s.CreateAccount(ctx, second))
}

func TestListAccountsByOwners(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	var ids []string
	for i, owner := range []string{"user_1", "user_1", "user_2", "system_agent"} {
		account := testAccount(owner)
		account.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.CreateAccount(ctx, account))
		ids = append(ids, account.ID)
	}

	// Single owner.
	got, err := s.ListAccountsByOwners(ctx, []string{"user_1"}, "")
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Newest first.
	assert.Equal(t, ids[1], got[0].ID)
	assert.Equal(t, ids[0], got[1].ID)

	// Owner set.
	got, err = s.ListAccountsByOwners(ctx, []string{"system_agent", "user_1"}, "")
	require.NoError(t, err)
	assert.Len(t, got, 3)

	// Unrelated owner sees nothing.
	got, err = s.ListAccountsByOwners(ctx, []string{"user_3"}, "")
	require.NoError(t, err)
	assert.Empty(t, got)

	// Empty owner set returns no rows.
	got, err = s.ListAccountsByOwners(ctx, nil, "")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListAccountsByOwners_ChainFilter(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	stellar := testAccount("user_1")
	require.NoError(t, s.CreateAccount(ctx, stellar))

	other := testAccount("user_1")
	other.Chain = "otherchain"
	require.NoError(t, s.CreateAccount(ctx, other))

	got, err := s.ListAccountsByOwners(ctx, []string{"user_1"}, "stellar")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, stellar.ID, got[0].ID)
}

func TestDeleteAccount(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	account := testAccount("user_1")
	require.NoError(t, s.CreateAccount(ctx, account))

	require.NoError(t, s.DeleteAccount(ctx, account.ID))

	_, err := s.GetAccount(ctx, account.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.DeleteAccount(ctx, account.ID), ErrNotFound)
}

func TestTouchAccountLastUsed(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	account := testAccount("user_1")
	require.NoError(t, s.CreateAccount(ctx, account))

	require.NoError(t, s.TouchAccountLastUsed(ctx, account.ID))

	got, err := s.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastUsedAt)
	assert.WithinDuration(t, time.Now().UTC(), *got.LastUsedAt, 5*time.Second)

	assert.ErrorIs(t, s.TouchAccountLastUsed(ctx, "account_missing"), ErrNotFound)
}

func TestOwnerImmutableAtStoreSurface(t *testing.T) {
	// The store interface exposes no update of owner_principal_id; the only
	// mutating operations are delete and the last_used_at touch. This pins
	// the surface so an update method can't sneak in unnoticed.
	var s AccountStore = setupTestStore(t)

	switch s.(type) {
	case interface {
		UpdateAccount(ctx context.Context, a *Account) error
	}:
		t.Fatal("store must not expose an account update method")
	default:
	}
}

func TestEmptyDisplayNameRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	account := testAccount("user_1")
	account.DisplayName = ""
	require.NoError(t, s.CreateAccount(ctx, account))

	got, err := s.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Empty(t, got.DisplayName)
}

func TestRepeatedImportsOfSameKey(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	shared := testAccount("user_1")
	require.NoError(t, s.CreateAccount(ctx, shared))

	// The constraint lives in the schema, so every later writer loses no
	// matter which owner it claims.
	for i := 2; i <= 4; i++ {
		account := testAccount(fmt.Sprintf("user_%d", i))
		account.Chain = shared.Chain
		account.PublicKey = shared.PublicKey
		assert.ErrorIs(t, s.CreateAccount(ctx, account), ErrDuplicateAccount)
	}

	count, err := s.CountAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
