package sim_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/shade/internal/provider"
	"github.com/mrz1836/shade/internal/provider/sim"
	shadeerr "github.com/mrz1836/shade/pkg/errors"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestNewMnemonicTwelveWords(t *testing.T) {
	t.Parallel()
	mnemonic, err := sim.NewMnemonic()
	require.NoError(t, err)
	assert.Len(t, strings.Fields(mnemonic), 12)

	_, err = sim.DeriveWallet(mnemonic)
	require.NoError(t, err)
}

func TestDeriveWalletDeterministic(t *testing.T) {
	t.Parallel()
	first, err := sim.DeriveWallet(testMnemonic)
	require.NoError(t, err)
	second, err := sim.DeriveWallet(testMnemonic)
	require.NoError(t, err)

	assert.Equal(t, first.Address, second.Address)
	assert.Equal(t, first.ShieldedAddress, second.ShieldedAddress)

	assert.True(t, strings.HasPrefix(first.Address, "mn1q"), "coin address %q", first.Address)
	assert.True(t, strings.HasPrefix(first.ShieldedAddress, "mn1s"), "shielded address %q", first.ShieldedAddress)
	assert.Len(t, first.Address, 4+40)
	assert.Len(t, first.ShieldedAddress, 4+40)
	assert.NotEqual(t, first.Address[4:], first.ShieldedAddress[4:])
}

func TestDeriveWalletInvalidMnemonic(t *testing.T) {
	t.Parallel()
	_, err := sim.DeriveWallet("definitely not a valid seed phrase")
	require.ErrorIs(t, err, shadeerr.ErrInvalidMnemonic)
}

func TestSignBindsIntent(t *testing.T) {
	t.Parallel()
	wallet, err := sim.DeriveWallet(testMnemonic)
	require.NoError(t, err)

	intent := provider.TxIntent{
		Contract: "0200dc00",
		Circuit:  "contributeData",
		Params:   map[string]any{"dataHash": "0xabc", "dataQuality": 80},
		Nonce:    "req-000001",
	}

	sig1, err := wallet.Sign(intent)
	require.NoError(t, err)
	sig2, err := wallet.Sign(intent)
	require.NoError(t, err)
	assert.Equal(t, sig1, sig2)
	assert.True(t, strings.HasPrefix(sig1, "sim:"))

	intent.Nonce = "req-000002"
	sig3, err := wallet.Sign(intent)
	require.NoError(t, err)
	assert.NotEqual(t, sig1, sig3)
}
