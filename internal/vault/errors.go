// ABOUTME: Typed error taxonomy surfaced by the account manager
// ABOUTME: Everything from underlying libraries is normalized into these at the boundary

package vault

import (
	"errors"
)

// ErrAccountNotFound indicates the referenced account ID does not exist.
var ErrAccountNotFound = errors.New("account not found")

// ErrPermissionDenied indicates the account exists but is not owned by any
// principal in the caller's authority set. The message never names the true
// owner.
var ErrPermissionDenied = errors.New("permission denied")

// ErrInvalidKeyFormat indicates an import of a malformed chain-native secret.
// Caller-correctable.
var ErrInvalidKeyFormat = errors.New("invalid key format")

// ErrUnsupportedChain indicates the requested chain has no registered adapter.
var ErrUnsupportedChain = errors.New("unsupported chain")

// ErrDuplicateAccount indicates the (chain, public_key) pair is already
// registered.
var ErrDuplicateAccount = errors.New("account already registered")

// ErrDecryptionFailed indicates stored ciphertext did not authenticate under
// the owner's derived key. Rare outside permission-denied paths, so it is
// treated as an internal-consistency signal and logged loudly where raised.
var ErrDecryptionFailed = errors.New("decryption failed")

// ErrStoreUnavailable indicates a transient storage failure. Safe to retry
// with backoff; read-only operations are retried a bounded number of times
// inside the manager.
var ErrStoreUnavailable = errors.New("store unavailable")

// ErrInternal is the normalized form of any failure that fits none of the
// categories above. Details are logged, never surfaced.
var ErrInternal = errors.New("internal error")
