package session_test

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/shade/internal/chain"
	"github.com/mrz1836/shade/internal/provider"
	"github.com/mrz1836/shade/internal/provider/providertest"
	"github.com/mrz1836/shade/internal/session"
	shadeerr "github.com/mrz1836/shade/pkg/errors"
)

func newManager(sources ...provider.Source) *session.Manager {
	return session.NewManager(provider.NewDetector(sources...), nil)
}

func TestInitializeFindsProvider(t *testing.T) {
	t.Parallel()
	m := newManager(providertest.Source("midnight.lace", providertest.New()))

	state, err := m.Initialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, session.Available, state)
	assert.Equal(t, session.Available, m.CurrentState())
}

func TestInitializeUnavailableWhenNoProvider(t *testing.T) {
	t.Parallel()
	m := newManager(
		providertest.AbsentSource("midnight.lace"),
		providertest.AbsentSource("cardano.midnight"),
	)

	state, err := m.Initialize(context.Background())
	require.ErrorIs(t, err, shadeerr.ErrProviderNotFound)
	assert.Equal(t, session.Unavailable, state)

	var se *shadeerr.ShadeError
	require.ErrorAs(t, err, &se)
	assert.NotEmpty(t, se.Suggestion)
}

func TestInitializeIdempotentOnceAvailable(t *testing.T) {
	t.Parallel()
	fake := providertest.New()
	calls := 0
	m := session.NewManager(provider.NewDetector(provider.Source{
		Name: "midnight.lace",
		Probe: func(_ context.Context) (provider.Provider, error) {
			calls++
			return fake, nil
		},
	}), nil)

	for i := 0; i < 3; i++ {
		state, err := m.Initialize(context.Background())
		require.NoError(t, err)
		assert.Equal(t, session.Available, state)
	}
	assert.Equal(t, 1, calls)
}

func TestConnectEstablishesSession(t *testing.T) {
	t.Parallel()
	fake := providertest.New()
	m := newManager(providertest.Source("midnight.lace", fake))

	snap, err := m.Connect(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.Equal(t, session.Connected, m.CurrentState())
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, "mn1qtest000coinpublickey", snap.Address)
	assert.Equal(t, chain.Devnet, snap.Network)
	assert.EqualValues(t, 5_000_000, snap.Balance.Int64())
	assert.False(t, snap.LastRefresh.IsZero())
	assert.Equal(t, 1, fake.EnableCalls)
}

func TestConnectEmitsConnectedEvent(t *testing.T) {
	t.Parallel()
	m := newManager(providertest.Source("midnight.lace", providertest.New()))

	var got []session.Event
	m.Subscribe(session.EventConnected, func(evt session.Event) {
		got = append(got, evt)
	})

	_, err := m.Connect(context.Background())
	require.NoError(t, err)

	require.Len(t, got, 1)
	require.NotNil(t, got[0].Session)
	assert.Equal(t, "mn1qtest000coinpublickey", got[0].Session.Address)
}

func TestConnectWhenAlreadyConnectedReturnsSession(t *testing.T) {
	t.Parallel()
	fake := providertest.New()
	m := newManager(providertest.Source("midnight.lace", fake))

	first, err := m.Connect(context.Background())
	require.NoError(t, err)

	second, err := m.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, fake.EnableCalls)
}

func TestConnectUserRejectionReturnsToAvailable(t *testing.T) {
	t.Parallel()
	fake := providertest.New()
	fake.RejectEnable()
	m := newManager(providertest.Source("midnight.lace", fake))

	_, err := m.Connect(context.Background())
	require.ErrorIs(t, err, shadeerr.ErrUserRejected)
	assert.Equal(t, session.Available, m.CurrentState())
	assert.Nil(t, m.Snapshot())

	// The provider is still present, so a fresh approval succeeds.
	fake.EnableErr = nil
	snap, err := m.Connect(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, snap)
	assert.Equal(t, session.Connected, m.CurrentState())
}

func TestConnectWithoutProviderIsUnavailable(t *testing.T) {
	t.Parallel()
	m := newManager(providertest.AbsentSource("midnight.lace"))

	_, err := m.Connect(context.Background())
	require.ErrorIs(t, err, shadeerr.ErrProviderNotFound)
	assert.Equal(t, session.Unavailable, m.CurrentState())
}

func TestConcurrentConnectRejected(t *testing.T) {
	t.Parallel()
	fake := providertest.New()
	fake.EnableGate = make(chan struct{})
	m := newManager(providertest.Source("midnight.lace", fake))

	var wg sync.WaitGroup
	wg.Add(1)
	firstErr := make(chan error, 1)
	go func() {
		defer wg.Done()
		_, err := m.Connect(context.Background())
		firstErr <- err
	}()

	// Wait for the first Connect to reach the enable suspension point.
	require.Eventually(t, func() bool {
		return m.CurrentState() == session.Connecting
	}, time.Second, time.Millisecond)

	_, err := m.Connect(context.Background())
	require.ErrorIs(t, err, shadeerr.ErrAlreadyConnecting)

	close(fake.EnableGate)
	wg.Wait()
	require.NoError(t, <-firstErr)
	assert.Equal(t, session.Connected, m.CurrentState())
	assert.Equal(t, 1, fake.EnableCalls)
}

func TestDisconnectClearsSession(t *testing.T) {
	t.Parallel()
	fake := providertest.New()
	m := newManager(providertest.Source("midnight.lace", fake))

	_, err := m.Connect(context.Background())
	require.NoError(t, err)

	var events []session.EventKind
	m.Subscribe(session.EventDisconnected, func(evt session.Event) {
		events = append(events, evt.Kind)
	})

	m.Disconnect()
	assert.Equal(t, session.Disconnected, m.CurrentState())
	assert.Nil(t, m.Snapshot())
	assert.Equal(t, []session.EventKind{session.EventDisconnected}, events)
	assert.Equal(t, 0, fake.HandlerCount(provider.EventStateChanged))
	assert.Equal(t, 0, fake.HandlerCount(provider.EventDisconnect))

	_, err = m.Handle()
	require.ErrorIs(t, err, shadeerr.ErrNotConnected)
}

func TestDisconnectFromAnyStateSucceeds(t *testing.T) {
	t.Parallel()
	m := newManager(providertest.AbsentSource("midnight.lace"))

	m.Disconnect() // Uninitialized
	assert.Equal(t, session.Disconnected, m.CurrentState())

	m.Disconnect() // Already disconnected
	assert.Equal(t, session.Disconnected, m.CurrentState())
}

func TestReconnectAfterDisconnect(t *testing.T) {
	t.Parallel()
	fake := providertest.New()
	m := newManager(providertest.Source("midnight.lace", fake))

	first, err := m.Connect(context.Background())
	require.NoError(t, err)
	m.Disconnect()

	second, err := m.Connect(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, session.Connected, m.CurrentState())
}

func TestRefreshStateOverwritesSnapshot(t *testing.T) {
	t.Parallel()
	fake := providertest.New()
	m := newManager(providertest.Source("midnight.lace", fake))

	_, err := m.Connect(context.Background())
	require.NoError(t, err)

	var changed []*session.Snapshot
	m.Subscribe(session.EventStateChanged, func(evt session.Event) {
		changed = append(changed, evt.Session)
	})

	fake.StateValue = &provider.WalletState{
		Address: "mn1qtest000coinpublickey",
		Balance: big.NewInt(7_500_000),
		Network: chain.Devnet,
	}

	snap, err := m.RefreshState(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 7_500_000, snap.Balance.Int64())

	require.Len(t, changed, 1)
	assert.EqualValues(t, 7_500_000, changed[0].Balance.Int64())
}

func TestRefreshStateRequiresConnection(t *testing.T) {
	t.Parallel()
	m := newManager(providertest.Source("midnight.lace", providertest.New()))

	_, err := m.RefreshState(context.Background())
	require.ErrorIs(t, err, shadeerr.ErrNotConnected)
}

func TestRefreshStateRetriesTransientFailure(t *testing.T) {
	t.Parallel()
	fake := providertest.New()
	m := newManager(providertest.Source("midnight.lace", fake))

	_, err := m.Connect(context.Background())
	require.NoError(t, err)

	fake.StateErrOnce = chain.WrapRetryable(assert.AnError)

	snap, err := m.RefreshState(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, snap)
}

func TestRefreshStateSurfacesPermanentFailure(t *testing.T) {
	t.Parallel()
	fake := providertest.New()
	m := newManager(providertest.Source("midnight.lace", fake))

	_, err := m.Connect(context.Background())
	require.NoError(t, err)

	fake.StateErr = assert.AnError

	_, err = m.RefreshState(context.Background())
	require.ErrorIs(t, err, assert.AnError)
}

// closeRecorder tracks whether the manager released the provider.
type closeRecorder struct {
	*providertest.Fake
	closed bool
}

func (c *closeRecorder) Close() { c.closed = true }

func TestCloseReleasesProvider(t *testing.T) {
	t.Parallel()
	rec := &closeRecorder{Fake: providertest.New()}
	m := newManager(provider.Source{
		Name: "midnight.lace",
		Probe: func(_ context.Context) (provider.Provider, error) {
			return rec, nil
		},
	})

	_, err := m.Connect(context.Background())
	require.NoError(t, err)

	m.Close()
	assert.True(t, rec.closed)
	_, err = m.Handle()
	require.ErrorIs(t, err, shadeerr.ErrNotConnected)
}

func TestProviderStateChangedUpdatesSession(t *testing.T) {
	t.Parallel()
	fake := providertest.New()
	m := newManager(providertest.Source("midnight.lace", fake))

	_, err := m.Connect(context.Background())
	require.NoError(t, err)

	var balances []int64
	m.Subscribe(session.EventStateChanged, func(evt session.Event) {
		balances = append(balances, evt.Session.Balance.Int64())
	})

	fake.EmitStateChanged(&provider.WalletState{
		Address: "mn1qtest000coinpublickey",
		Balance: big.NewInt(1_000_000),
		Network: chain.Devnet,
	})
	fake.EmitStateChanged(&provider.WalletState{
		Address: "mn1qtest000coinpublickey",
		Balance: big.NewInt(2_000_000),
		Network: chain.Devnet,
	})

	// Delivered in emission order.
	assert.Equal(t, []int64{1_000_000, 2_000_000}, balances)
	assert.EqualValues(t, 2_000_000, m.Snapshot().Balance.Int64())
}

func TestProviderDisconnectTearsDownSession(t *testing.T) {
	t.Parallel()
	fake := providertest.New()
	m := newManager(providertest.Source("midnight.lace", fake))

	_, err := m.Connect(context.Background())
	require.NoError(t, err)

	var order []session.EventKind
	m.Subscribe(session.EventStateChanged, func(evt session.Event) {
		order = append(order, evt.Kind)
	})
	m.Subscribe(session.EventDisconnected, func(evt session.Event) {
		order = append(order, evt.Kind)
	})

	fake.EmitStateChanged(providertest.DefaultState())
	fake.EmitDisconnect()

	assert.Equal(t, []session.EventKind{session.EventStateChanged, session.EventDisconnected}, order)
	assert.Equal(t, session.Disconnected, m.CurrentState())
	assert.Nil(t, m.Snapshot())
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	t.Parallel()
	m := newManager(providertest.Source("midnight.lace", providertest.New()))

	calls := 0
	token := m.Subscribe(session.EventConnected, func(session.Event) { calls++ })
	m.Unsubscribe(token)

	_, err := m.Connect(context.Background())
	require.NoError(t, err)
	assert.Zero(t, calls)
}

func TestConnectCancelDuringApproval(t *testing.T) {
	t.Parallel()
	fake := providertest.New()
	fake.EnableGate = make(chan struct{})
	m := newManager(providertest.Source("midnight.lace", fake))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := m.Connect(ctx)
		done <- err
	}()

	require.Eventually(t, func() bool {
		return m.CurrentState() == session.Connecting
	}, time.Second, time.Millisecond)
	cancel()

	err := <-done
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, session.Available, m.CurrentState())
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	t.Parallel()
	m := newManager(providertest.Source("midnight.lace", providertest.New()))

	_, err := m.Connect(context.Background())
	require.NoError(t, err)

	snap := m.Snapshot()
	snap.Balance.SetInt64(1)
	assert.EqualValues(t, 5_000_000, m.Snapshot().Balance.Int64())
}

func TestStateString(t *testing.T) {
	t.Parallel()
	for state, want := range map[session.State]string{
		session.Uninitialized: "uninitialized",
		session.Detecting:     "detecting",
		session.Unavailable:   "unavailable",
		session.Available:     "available",
		session.Connecting:    "connecting",
		session.Connected:     "connected",
		session.Disconnected:  "disconnected",
		session.State(99):     "unknown",
	} {
		assert.Equal(t, want, state.String())
	}
}
