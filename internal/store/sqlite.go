// ABOUTME: SQLite implementation of the vault store using modernc.org/sqlite
// ABOUTME: Provides account/salt/audit persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS accounts (
			id                 TEXT PRIMARY KEY,
			owner_principal_id TEXT NOT NULL,
			chain              TEXT NOT NULL,
			public_key         TEXT NOT NULL,
			encrypted_secret   TEXT NOT NULL,
			display_name       TEXT,
			source             TEXT NOT NULL DEFAULT 'generated',
			created_at         TEXT NOT NULL,
			last_used_at       TEXT,

			UNIQUE(chain, public_key),
			CHECK (source IN ('generated', 'imported'))
		);

		CREATE INDEX IF NOT EXISTS idx_accounts_owner ON accounts(owner_principal_id);
		CREATE INDEX IF NOT EXISTS idx_accounts_chain ON accounts(chain);

		CREATE TABLE IF NOT EXISTS principal_salts (
			principal_id TEXT PRIMARY KEY,
			salt         BLOB NOT NULL,
			created_at   TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS audit_log (
			audit_id           TEXT PRIMARY KEY,
			actor_principal_id TEXT NOT NULL,
			action             TEXT NOT NULL,
			account_id         TEXT NOT NULL,
			chain              TEXT,
			public_key         TEXT,
			ts                 TEXT NOT NULL,
			detail_json        TEXT,

			CHECK (action IN (
				'generate_account',
				'import_account',
				'export_account',
				'delete_account',
				'provision_agent_account'
			))
		);

		CREATE INDEX IF NOT EXISTS idx_audit_ts ON audit_log(ts DESC);
		CREATE INDEX IF NOT EXISTS idx_audit_actor ON audit_log(actor_principal_id);
		CREATE INDEX IF NOT EXISTS idx_audit_account ON audit_log(account_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// CreateAccount inserts a new account row. Returns ErrDuplicateAccount if the
// (chain, public_key) pair is already registered under any owner.
func (s *SQLiteStore) CreateAccount(ctx context.Context, account *Account) error {
	query := `
		INSERT INTO accounts (id, owner_principal_id, chain, public_key, encrypted_secret, display_name, source, created_at, last_used_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		account.ID,
		account.OwnerPrincipalID,
		account.Chain,
		account.PublicKey,
		account.EncryptedSecret,
		nullString(account.DisplayName),
		account.Source,
		account.CreatedAt.UTC().Format(time.RFC3339),
		nullTime(account.LastUsedAt),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateAccount
		}
		return fmt.Errorf("inserting account: %w", err)
	}

	s.logger.Debug("created account", "id", account.ID, "chain", account.Chain, "source", account.Source)
	return nil
}

// GetAccount retrieves an account by ID.
// Returns ErrNotFound if the account doesn't exist.
func (s *SQLiteStore) GetAccount(ctx context.Context, id string) (*Account, error) {
	query := `
		SELECT id, owner_principal_id, chain, public_key, encrypted_secret, display_name, source, created_at, last_used_at
		FROM accounts
		WHERE id = ?
	`

	account, err := scanAccount(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying account: %w", err)
	}
	return account, nil
}

// ListAccountsByOwners returns accounts owned by any of the given principals,
// newest first. An empty owner set returns no rows. An empty chain matches
// all chains.
func (s *SQLiteStore) ListAccountsByOwners(ctx context.Context, ownerIDs []string, chain string) ([]*Account, error) {
	if len(ownerIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?, ", len(ownerIDs))
	placeholders = placeholders[:len(placeholders)-2]

	query := fmt.Sprintf(`
		SELECT id, owner_principal_id, chain, public_key, encrypted_secret, display_name, source, created_at, last_used_at
		FROM accounts
		WHERE owner_principal_id IN (%s)
	`, placeholders)

	args := make([]any, 0, len(ownerIDs)+1)
	for _, id := range ownerIDs {
		args = append(args, id)
	}
	if chain != "" {
		query += " AND chain = ?"
		args = append(args, chain)
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning account row: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating account rows: %w", err)
	}

	return accounts, nil
}

// DeleteAccount removes an account by ID.
// Returns ErrNotFound if the account doesn't exist.
func (s *SQLiteStore) DeleteAccount(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Debug("deleted account", "id", id)
	return nil
}

// TouchAccountLastUsed stamps the account's last_used_at with the current time.
// Returns ErrNotFound if the account doesn't exist.
func (s *SQLiteStore) TouchAccountLastUsed(ctx context.Context, id string) error {
	now := time.Now().UTC().Format(time.RFC3339)

	result, err := s.db.ExecContext(ctx, `UPDATE accounts SET last_used_at = ? WHERE id = ?`, now, id)
	if err != nil {
		return fmt.Errorf("updating last_used_at: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// CountAccounts returns the total number of stored accounts.
func (s *SQLiteStore) CountAccounts(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting accounts: %w", err)
	}
	return count, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanAccount reads one account row.
func scanAccount(row rowScanner) (*Account, error) {
	var account Account
	var displayName sql.NullString
	var createdAt string
	var lastUsedAt sql.NullString

	err := row.Scan(
		&account.ID,
		&account.OwnerPrincipalID,
		&account.Chain,
		&account.PublicKey,
		&account.EncryptedSecret,
		&displayName,
		&account.Source,
		&createdAt,
		&lastUsedAt,
	)
	if err != nil {
		return nil, err
	}

	account.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	if displayName.Valid {
		account.DisplayName = displayName.String
	}
	if lastUsedAt.Valid {
		t, err := time.Parse(time.RFC3339, lastUsedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing last_used_at: %w", err)
		}
		account.LastUsedAt = &t
	}

	return &account, nil
}

// isConstraintViolation checks if the error is a SQLite UNIQUE constraint violation
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "constraint failed")
}

// nullString returns nil for empty strings, otherwise the string
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nullTime returns nil for a nil time, otherwise the RFC3339 string
func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// Ensure SQLiteStore implements the Store interface
var _ Store = (*SQLiteStore)(nil)
