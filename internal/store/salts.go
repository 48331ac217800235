// ABOUTME: Per-principal KDF salt persistence
// ABOUTME: Salts are generated once at first use and never regenerated

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/yusefmosiah/tuxedo-vault/internal/crypto"
)

// GetOrCreateSalt returns the stored KDF salt for a principal, generating a
// random one on first use. An existing salt is never replaced: regeneration
// would orphan every ciphertext encrypted under it.
func (s *SQLiteStore) GetOrCreateSalt(ctx context.Context, principalID string) ([]byte, error) {
	if principalID == "" {
		return nil, fmt.Errorf("principal id is empty")
	}

	salt, err := crypto.NewSalt()
	if err != nil {
		return nil, err
	}

	// Insert-or-ignore keeps the first writer's salt under concurrent first
	// use; the select below reads whichever row won.
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO principal_salts (principal_id, salt, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(principal_id) DO NOTHING
	`, principalID, salt, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("inserting principal salt: %w", err)
	}

	var stored []byte
	err = s.db.QueryRowContext(ctx, `
		SELECT salt FROM principal_salts WHERE principal_id = ?
	`, principalID).Scan(&stored)
	if err != nil {
		return nil, fmt.Errorf("querying principal salt: %w", err)
	}

	return stored, nil
}

// CountSalts returns the number of principals with a stored salt.
func (s *SQLiteStore) CountSalts(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM principal_salts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting principal salts: %w", err)
	}
	return count, nil
}
