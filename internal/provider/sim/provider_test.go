package sim_test

import (
	"context"
	"encoding/json"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/shade/internal/chain"
	"github.com/mrz1836/shade/internal/provider"
	"github.com/mrz1836/shade/internal/provider/sim"
	"github.com/mrz1836/shade/internal/simnet"
	shadeerr "github.com/mrz1836/shade/pkg/errors"
)

func newProvider(t *testing.T, approver sim.Approver) (*sim.Provider, *simnet.Ledger, *sim.Wallet) {
	t.Helper()

	wallet, err := sim.DeriveWallet(testMnemonic)
	require.NoError(t, err)

	ledger := simnet.New(simnet.DefaultConfig())
	p, err := sim.New(sim.Options{Wallet: wallet, Ledger: ledger, Approver: approver})
	require.NoError(t, err)
	return p, ledger, wallet
}

func TestEnableApproved(t *testing.T) {
	t.Parallel()
	p, _, wallet := newProvider(t, sim.StaticApprover(true))
	ctx := context.Background()

	enabled, err := p.IsEnabled(ctx)
	require.NoError(t, err)
	assert.False(t, enabled)

	state, err := p.Enable(ctx)
	require.NoError(t, err)
	assert.Equal(t, wallet.Address, state.Address)
	assert.Equal(t, wallet.ShieldedAddress, state.ShieldedAddress)
	assert.Equal(t, chain.Devnet, state.Network)
	assert.Zero(t, state.Balance.Cmp(sim.DefaultBalance))

	enabled, err = p.IsEnabled(ctx)
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestEnableRejected(t *testing.T) {
	t.Parallel()
	p, _, _ := newProvider(t, sim.StaticApprover(false))

	_, err := p.Enable(context.Background())
	require.ErrorIs(t, err, shadeerr.ErrUserRejected)

	enabled, err := p.IsEnabled(context.Background())
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestSignRequiresEnable(t *testing.T) {
	t.Parallel()
	p, _, _ := newProvider(t, sim.StaticApprover(true))

	_, err := p.SignTx(context.Background(), provider.TxIntent{Circuit: "joinDAO"})
	require.ErrorIs(t, err, shadeerr.ErrNotConnected)
}

func TestSignRejected(t *testing.T) {
	t.Parallel()
	approvals := 0
	// Approve the connection, reject the signature.
	approver := sim.ApproverFunc(func(action, _ string) (bool, error) {
		approvals++
		return action == "connect", nil
	})
	p, _, _ := newProvider(t, approver)

	_, err := p.Enable(context.Background())
	require.NoError(t, err)

	_, err = p.SignTx(context.Background(), provider.TxIntent{Circuit: "joinDAO"})
	require.ErrorIs(t, err, shadeerr.ErrUserRejected)
	assert.Equal(t, 2, approvals)
}

func TestEnvelopeCarriesCallerAndSignature(t *testing.T) {
	t.Parallel()
	p, _, wallet := newProvider(t, sim.StaticApprover(true))
	ctx := context.Background()

	_, err := p.Enable(ctx)
	require.NoError(t, err)

	intent := provider.TxIntent{
		Contract: "0200dc00",
		Circuit:  "contributeData",
		Params:   map[string]any{"dataHash": "0xabc", "dataQuality": 75, "timestamp": 1_760_000_000},
		Nonce:    "req-aabbcc",
	}
	signed, err := p.SignTx(ctx, intent)
	require.NoError(t, err)

	var env simnet.Envelope
	require.NoError(t, json.Unmarshal(signed.Raw, &env))
	assert.Equal(t, wallet.Address, env.Caller)
	assert.Equal(t, intent.Circuit, env.Intent.Circuit)
	assert.Equal(t, intent.Nonce, env.Intent.Nonce)
	assert.True(t, strings.HasPrefix(env.Signature, "sim:"))
}

func TestSignSubmitSettles(t *testing.T) {
	t.Parallel()
	p, ledger, wallet := newProvider(t, sim.StaticApprover(true))
	ctx := context.Background()

	_, err := p.Enable(ctx)
	require.NoError(t, err)

	signed, err := p.SignTx(ctx, provider.TxIntent{
		Contract: "0200dc00",
		Circuit:  "contributeData",
		Params:   map[string]any{"dataHash": "0xfeed", "dataQuality": 60, "timestamp": 1_760_000_000},
	})
	require.NoError(t, err)

	hash, err := p.SubmitTx(ctx, signed)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "0x"))

	var status chain.TxStatus
	for i := 0; i < 10; i++ {
		status, err = ledger.TransactionStatus(ctx, hash)
		require.NoError(t, err)
		if status.Kind != chain.StatusPending {
			break
		}
	}
	require.Equal(t, chain.StatusConfirmed, status.Kind)

	rewards, err := ledger.QueryCircuit(ctx, "0200dc00", "getMyRewards", wallet.Address, nil)
	require.NoError(t, err)
	assert.Zero(t, rewards.Cmp(big.NewInt(600)))
}

func TestSubmitMalformedEnvelope(t *testing.T) {
	t.Parallel()
	p, _, _ := newProvider(t, sim.StaticApprover(true))

	_, err := p.SubmitTx(context.Background(), provider.SignedTx{Raw: []byte("not json")})
	require.ErrorIs(t, err, shadeerr.ErrSubmissionFailed)
}

func TestSetBalanceNotifiesSubscribers(t *testing.T) {
	t.Parallel()
	p, _, _ := newProvider(t, sim.StaticApprover(true))

	var got *provider.WalletState
	unsub, err := p.On(provider.EventStateChanged, func(ev provider.Event) {
		got = ev.State
	})
	require.NoError(t, err)
	defer unsub()

	p.SetBalance(big.NewInt(42))
	require.NotNil(t, got)
	assert.Zero(t, got.Balance.Cmp(big.NewInt(42)))
}

func TestDisconnectNotifiesAndDisables(t *testing.T) {
	t.Parallel()
	p, _, _ := newProvider(t, sim.StaticApprover(true))
	ctx := context.Background()

	_, err := p.Enable(ctx)
	require.NoError(t, err)

	fired := false
	_, err = p.On(provider.EventDisconnect, func(provider.Event) { fired = true })
	require.NoError(t, err)

	p.Disconnect()
	assert.True(t, fired)

	enabled, err := p.IsEnabled(ctx)
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	t.Parallel()
	p, _, _ := newProvider(t, sim.StaticApprover(true))

	calls := 0
	unsub, err := p.On(provider.EventStateChanged, func(provider.Event) { calls++ })
	require.NoError(t, err)

	p.SetBalance(big.NewInt(1))
	unsub()
	unsub() // Safe to call twice
	p.SetBalance(big.NewInt(2))

	assert.Equal(t, 1, calls)
}

func TestSourceProbe(t *testing.T) {
	t.Parallel()
	p, _, _ := newProvider(t, sim.StaticApprover(true))

	src := sim.Source(p)
	found, err := src.Probe(context.Background())
	require.NoError(t, err)
	assert.Same(t, provider.Provider(p), found)
}
