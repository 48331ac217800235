// ABOUTME: Stellar adapter over the stellar/go SDK keypair and strkey packages
// ABOUTME: Handles G.../S... strkey encodings with checksum validation

package chain

import (
	"fmt"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/strkey"
)

// ChainStellar is the registry name for the Stellar adapter.
const ChainStellar = "stellar"

// Stellar network labels. Informational only; the adapter never talks to a
// Horizon server.
const (
	StellarPubnet  = "pubnet"
	StellarTestnet = "testnet"
)

// StellarAdapter implements Adapter for the Stellar network using the SDK's
// strkey encodings (G... public keys, S... secret seeds).
type StellarAdapter struct {
	network string
}

// NewStellarAdapter creates a Stellar adapter. The network label is carried
// for operator display; key handling is identical on pubnet and testnet.
func NewStellarAdapter(network string) *StellarAdapter {
	if network == "" {
		network = StellarPubnet
	}
	return &StellarAdapter{network: network}
}

// Name returns "stellar".
func (a *StellarAdapter) Name() string {
	return ChainStellar
}

// Network returns the configured network label.
func (a *StellarAdapter) Network() string {
	return a.network
}

// Generate produces a new random Stellar keypair.
func (a *StellarAdapter) Generate() (*Keypair, error) {
	full, err := keypair.Random()
	if err != nil {
		return nil, fmt.Errorf("generating stellar keypair: %w", err)
	}
	return &Keypair{
		Chain:     ChainStellar,
		PublicKey: full.Address(),
		SecretKey: full.Seed(),
	}, nil
}

// Import parses a Stellar secret seed (S...) and derives its public address.
func (a *StellarAdapter) Import(secretKey string) (*Keypair, error) {
	full, err := keypair.ParseFull(secretKey)
	if err != nil {
		return nil, fmt.Errorf("%w: not a stellar secret seed", ErrInvalidKeyFormat)
	}
	return &Keypair{
		Chain:     ChainStellar,
		PublicKey: full.Address(),
		SecretKey: full.Seed(),
	}, nil
}

// Export returns the secret seed in its chain-native S... form.
func (a *StellarAdapter) Export(kp *Keypair) (string, error) {
	if !strkey.IsValidEd25519SecretSeed(kp.SecretKey) {
		return "", fmt.Errorf("%w: not a stellar secret seed", ErrInvalidKeyFormat)
	}
	return kp.SecretKey, nil
}

// ValidateAddress reports whether the address is a well-formed Stellar
// public key (G..., valid checksum).
func (a *StellarAdapter) ValidateAddress(address string) bool {
	return strkey.IsValidEd25519PublicKey(address)
}

var _ Adapter = (*StellarAdapter)(nil)
