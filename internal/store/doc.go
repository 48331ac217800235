// Package store provides persistent storage for the vault using SQLite.
//
// # Tables
//
//   - accounts: one row per keypair, owner immutable, secret stored only as
//     ciphertext, UNIQUE(chain, public_key) enforced by the schema so
//     concurrent imports of the same external account cannot race.
//   - principal_salts: per-principal KDF salts, written once at first use.
//   - audit_log: append-only record of account lifecycle actions.
//
// SQLiteStore implements all store interfaces in a single struct, allowing
// easy composition while maintaining clear interface boundaries.
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
package store
