// ABOUTME: Tests for the chain adapter registry
// ABOUTME: Covers registration, lookup, and the unsupported-chain error

package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	adapter := NewStellarAdapter(StellarTestnet)

	require.NoError(t, reg.Register(adapter))

	got, err := reg.Get(ChainStellar)
	require.NoError(t, err)
	assert.Same(t, adapter, got)
}

func TestRegistry_UnknownChain(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Get("solana")
	assert.ErrorIs(t, err, ErrUnsupportedChain)
}

func TestRegistry_DuplicateRegistration(t *testing.T) {
	reg := NewRegistry()

	require.NoError(t, reg.Register(NewStellarAdapter(StellarTestnet)))
	err := reg.Register(NewStellarAdapter(StellarPubnet))
	assert.Error(t, err)
}

func TestRegistry_Names(t *testing.T) {
	reg := NewRegistry()
	assert.Empty(t, reg.Names())

	require.NoError(t, reg.Register(NewStellarAdapter(StellarTestnet)))
	assert.Equal(t, []string{ChainStellar}, reg.Names())
}
