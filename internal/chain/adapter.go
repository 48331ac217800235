// ABOUTME: Adapter interface and keypair type for chain-specific key handling
// ABOUTME: Adapters are stateless and pure over key bytes, one per supported network

package chain

import (
	"errors"
)

// ErrInvalidKeyFormat is returned when a secret key is not a valid
// chain-native encoding (wrong alphabet, length, or checksum).
var ErrInvalidKeyFormat = errors.New("invalid key format")

// ErrUnsupportedChain is returned when no adapter is registered for the
// requested chain name.
var ErrUnsupportedChain = errors.New("unsupported chain")

// Keypair is a chain-native keypair materialized in memory. Callers use it
// immediately and let it go out of scope; it is never persisted or logged.
type Keypair struct {
	Chain     string
	PublicKey string
	SecretKey string
}

// Adapter is the capability set every supported chain implements. All methods
// are pure functions over key material: no network calls, no state.
type Adapter interface {
	// Name returns the chain identifier, e.g. "stellar".
	Name() string

	// Generate produces a new keypair from the chain SDK's randomness source.
	Generate() (*Keypair, error)

	// Import parses a chain-native secret key representation.
	// Returns ErrInvalidKeyFormat if the encoding or checksum is invalid.
	Import(secretKey string) (*Keypair, error)

	// Export returns the chain-native secret representation, the inverse of
	// Import. Returns ErrInvalidKeyFormat if the keypair's secret is invalid.
	Export(kp *Keypair) (string, error)

	// ValidateAddress reports whether the address is syntactically valid for
	// this chain. Pure checksum validation, no network call.
	ValidateAddress(address string) bool
}
