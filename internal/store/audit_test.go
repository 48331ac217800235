// ABOUTME: Tests for the append-only audit log
// ABOUTME: Covers appending, filtering, and ordering of entries

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAuditLog_GeneratesIDAndTimestamp(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	entry := &AuditEntry{
		ActorPrincipalID: "user_1",
		Action:           AuditExportAccount,
		AccountID:        "account_1",
		Chain:            "stellar",
		PublicKey:        "GABC",
	}
	require.NoError(t, s.AppendAuditLog(ctx, entry))

	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.Timestamp.IsZero())
}

func TestListAuditEntries(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Minute)
	seed := []*AuditEntry{
		{ActorPrincipalID: "user_1", Action: AuditGenerateAccount, AccountID: "account_1", Timestamp: base},
		{ActorPrincipalID: "user_1", Action: AuditExportAccount, AccountID: "account_1", Timestamp: base.Add(time.Second)},
		{ActorPrincipalID: "user_2", Action: AuditDeleteAccount, AccountID: "account_2", Timestamp: base.Add(2 * time.Second)},
	}
	for _, e := range seed {
		require.NoError(t, s.AppendAuditLog(ctx, e))
	}

	// All entries, newest first.
	got, err := s.ListAuditEntries(ctx, AuditFilter{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, AuditDeleteAccount, got[0].Action)
	assert.Equal(t, AuditGenerateAccount, got[2].Action)

	// By actor.
	got, err = s.ListAuditEntries(ctx, AuditFilter{ActorPrincipalID: "user_1"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// By action.
	action := AuditExportAccount
	got, err = s.ListAuditEntries(ctx, AuditFilter{Action: &action})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "account_1", got[0].AccountID)

	// By account.
	got, err = s.ListAuditEntries(ctx, AuditFilter{AccountID: "account_2"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "user_2", got[0].ActorPrincipalID)

	// Limit.
	got, err = s.ListAuditEntries(ctx, AuditFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestAuditDetailRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	entry := &AuditEntry{
		ActorPrincipalID: "user_1",
		Action:           AuditImportAccount,
		AccountID:        "account_1",
		Detail:           map[string]any{"display_name": "Trading", "source": "imported"},
	}
	require.NoError(t, s.AppendAuditLog(ctx, entry))

	got, err := s.ListAuditEntries(ctx, AuditFilter{AccountID: "account_1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Trading", got[0].Detail["display_name"])
	assert.Equal(t, "imported", got[0].Detail["source"])
}

func TestAuditRejectsUnknownAction(t *testing.T) {
	s := setupTestStore(t)

	err := s.AppendAuditLog(context.Background(), &AuditEntry{
		ActorPrincipalID: "user_1",
		Action:           AuditAction("drop_tables"),
		AccountID:        "account_1",
	})
	assert.Error(t, err)
}
