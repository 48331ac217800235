// ABOUTME: Store interfaces and data types for vault persistence
// ABOUTME: Defines Account, salt, and audit records plus their storage contracts

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateAccount is returned when an account with the same
// (chain, public_key) is already registered, regardless of owner.
var ErrDuplicateAccount = errors.New("account already registered")

// Account source constants.
const (
	SourceGenerated = "generated"
	SourceImported  = "imported"
)

// Account is one blockchain keypair record. The secret key is stored only as
// ciphertext produced by the encryption manager keyed to OwnerPrincipalID;
// the owner is immutable after creation.
type Account struct {
	ID               string
	OwnerPrincipalID string
	Chain            string
	PublicKey        string
	EncryptedSecret  string
	DisplayName      string
	Source           string // "generated" | "imported"
	CreatedAt        time.Time
	LastUsedAt       *time.Time
}

// AccountStore defines persistence for account records. Creation and deletion
// are single-statement transactions; the (chain, public_key) uniqueness
// invariant is enforced by the storage layer, not check-then-insert.
type AccountStore interface {
	CreateAccount(ctx context.Context, account *Account) error
	GetAccount(ctx context.Context, id string) (*Account, error)

	// ListAccountsByOwners returns accounts owned by any of the given
	// principals, newest first. An empty chain matches all chains.
	ListAccountsByOwners(ctx context.Context, ownerIDs []string, chain string) ([]*Account, error)

	DeleteAccount(ctx context.Context, id string) error
	TouchAccountLastUsed(ctx context.Context, id string) error
	CountAccounts(ctx context.Context) (int, error)
}

// SaltStore holds per-principal KDF salts, generated once at first use and
// never regenerated for an existing principal.
type SaltStore interface {
	GetOrCreateSalt(ctx context.Context, principalID string) ([]byte, error)
}

// Store is the full persistence surface the vault requires.
type Store interface {
	AccountStore
	SaltStore
	AuditStore

	// Close releases any resources held by the store.
	Close() error
}
