package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mrz1836/shade/internal/chain"
	"github.com/mrz1836/shade/internal/config"
	"github.com/mrz1836/shade/internal/provider"
	shadeerr "github.com/mrz1836/shade/pkg/errors"
)

// Detector locates a wallet provider. Satisfied by provider.Detector.
type Detector interface {
	Detect(ctx context.Context) (*provider.Handle, error)
}

// Manager drives the session state machine over a detected provider.
// It is safe for concurrent use; at most one Connect is in flight at a
// time and the wallet session is mutated only by the manager itself.
type Manager struct {
	mu         sync.Mutex
	state      State
	connecting bool // Covers the whole Connect flow, including detection
	detector   Detector
	handle     *provider.Handle
	session    *walletSession
	unsubs     []provider.Unsubscribe
	bus        *bus
	log        *config.Logger
}

// NewManager creates a session manager over the given detector.
// A nil logger falls back to the null logger.
func NewManager(detector Detector, log *config.Logger) *Manager {
	if log == nil {
		log = config.NullLogger()
	}
	return &Manager{
		state:    Uninitialized,
		detector: detector,
		bus:      newBus(),
		log:      log,
	}
}

// CurrentState returns the session state.
func (m *Manager) CurrentState() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Connected reports whether wallet operations are currently permitted.
func (m *Manager) Connected() bool {
	return m.CurrentState() == Connected
}

// Snapshot returns a read-only copy of the active session, or nil when no
// session is active.
func (m *Manager) Snapshot() *Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.snapshot()
}

// LastRefresh returns when provider state was last read into the session.
// Zero when no session is active.
func (m *Manager) LastRefresh() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return time.Time{}
	}
	return m.session.lastRefresh
}

// Handle returns the provider handle for wallet operations. Fails with
// NOT_CONNECTED unless the session is connected.
func (m *Manager) Handle() (*provider.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Connected || m.handle == nil {
		return nil, shadeerr.ErrNotConnected
	}
	return m.handle, nil
}

// Subscribe registers a handler for session events. Events are delivered in
// subscription order.
func (m *Manager) Subscribe(kind EventKind, handler Handler) Token {
	return m.bus.subscribe(kind, handler)
}

// Unsubscribe removes a subscription.
func (m *Manager) Unsubscribe(token Token) {
	m.bus.unsubscribe(token)
}

// Initialize runs provider detection. Idempotent: calling while Available,
// Connecting, or Connected is a no-op returning the current state.
func (m *Manager) Initialize(ctx context.Context) (State, error) {
	m.mu.Lock()
	switch m.state {
	case Available, Connecting, Connected:
		s := m.state
		m.mu.Unlock()
		return s, nil
	case Uninitialized, Detecting, Unavailable, Disconnected:
	}
	m.state = Detecting
	m.mu.Unlock()

	handle, err := m.detector.Detect(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.state = Unavailable
		m.handle = nil
		return Unavailable, err
	}
	m.handle = handle
	m.state = Available
	return Available, nil
}

// Connect authorizes a wallet session. It runs detection first when needed,
// invokes the provider's enable flow (which may suspend awaiting user
// approval; cancel via ctx), and on success subscribes to provider
// notifications and transitions to Connected.
//
// Exactly one Connect may be in flight: a concurrent call fails immediately
// with ALREADY_CONNECTING. User rejection returns the session to Available,
// since the provider is still present.
func (m *Manager) Connect(ctx context.Context) (*Snapshot, error) {
	m.mu.Lock()
	if m.connecting {
		m.mu.Unlock()
		return nil, shadeerr.ErrAlreadyConnecting
	}
	if m.state == Connected {
		snap := m.session.snapshot()
		m.mu.Unlock()
		return snap, nil
	}
	m.connecting = true
	needDetect := m.handle == nil || m.state == Uninitialized || m.state == Unavailable || m.state == Disconnected
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.connecting = false
		m.mu.Unlock()
	}()

	if needDetect {
		if _, err := m.Initialize(ctx); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	handle := m.handle
	if handle == nil {
		m.state = Unavailable
		m.mu.Unlock()
		return nil, shadeerr.ErrProviderNotFound
	}
	m.state = Connecting
	m.mu.Unlock()

	// Suspension point: the user decides in the provider's own UI.
	state, err := handle.Enable(ctx)
	if err != nil {
		m.mu.Lock()
		if errors.Is(err, shadeerr.ErrProviderNotFound) {
			m.state = Unavailable
		} else {
			// Rejection or transient enable failure: the provider is
			// still present, so a fresh Connect may succeed.
			m.state = Available
		}
		m.mu.Unlock()
		m.log.Debug("connect failed: %v", err)
		return nil, err
	}

	m.mu.Lock()
	m.session = &walletSession{
		id:              newSessionID(),
		address:         state.Address,
		shieldedAddress: state.ShieldedAddress,
		balance:         state.Balance,
		network:         state.Network,
		lastRefresh:     time.Now(),
	}
	m.subscribeProviderLocked(handle)
	m.state = Connected
	snap := m.session.snapshot()
	m.mu.Unlock()

	m.log.Debug("session %s connected to %s via %s", snap.ID, snap.Network, handle.Origin())
	m.bus.publish(Event{Kind: EventConnected, Session: snap})
	return snap, nil
}

// Disconnect tears the session down locally. Best effort from any state:
// it never requires provider acknowledgment and always succeeds.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	wasDisconnected := m.state == Disconnected
	unsubs := m.unsubs
	m.unsubs = nil
	m.session = nil
	m.state = Disconnected
	m.mu.Unlock()

	for _, u := range unsubs {
		u()
	}

	if !wasDisconnected {
		m.bus.publish(Event{Kind: EventDisconnected})
	}
}

// Close disconnects and releases the detected provider, stopping any
// event loops it runs. A later Connect re-detects from scratch.
func (m *Manager) Close() {
	m.Disconnect()

	m.mu.Lock()
	handle := m.handle
	m.handle = nil
	m.mu.Unlock()

	if handle != nil {
		handle.Close()
	}
}

// RefreshState re-reads provider state and overwrites the session snapshot.
// The provider is the authoritative source; local figures always lose.
func (m *Manager) RefreshState(ctx context.Context) (*Snapshot, error) {
	m.mu.Lock()
	if m.state != Connected || m.handle == nil {
		m.mu.Unlock()
		return nil, shadeerr.ErrNotConnected
	}
	handle := m.handle
	m.mu.Unlock()

	// Transient transport failures (as tagged by the provider's node
	// client) are retried; user-level errors surface immediately.
	state, err := chain.Retry(ctx, func() (*provider.WalletState, error) {
		return handle.State(ctx)
	})
	if err != nil {
		return nil, shadeerr.Wrap(err, "refreshing wallet state")
	}

	m.mu.Lock()
	if m.state != Connected || m.session == nil {
		// Disconnected while the read was in flight; drop the result.
		m.mu.Unlock()
		return nil, shadeerr.ErrNotConnected
	}
	m.applyStateLocked(state)
	snap := m.session.snapshot()
	m.mu.Unlock()

	m.bus.publish(Event{Kind: EventStateChanged, Session: snap})
	return snap, nil
}

// subscribeProviderLocked wires provider notifications into session events.
// Caller holds m.mu.
func (m *Manager) subscribeProviderLocked(handle *provider.Handle) {
	if unsub, err := handle.On(provider.EventStateChanged, m.onProviderStateChanged); err == nil {
		m.unsubs = append(m.unsubs, unsub)
	} else {
		m.log.Debug("provider does not deliver stateChanged events: %v", err)
	}
	if unsub, err := handle.On(provider.EventDisconnect, m.onProviderDisconnect); err == nil {
		m.unsubs = append(m.unsubs, unsub)
	} else {
		m.log.Debug("provider does not deliver disconnect events: %v", err)
	}
}

// onProviderStateChanged translates a provider stateChanged notification
// into a session event.
func (m *Manager) onProviderStateChanged(evt provider.Event) {
	if evt.State == nil {
		return
	}

	m.mu.Lock()
	if m.state != Connected || m.session == nil {
		m.mu.Unlock()
		return
	}
	m.applyStateLocked(evt.State)
	snap := m.session.snapshot()
	m.mu.Unlock()

	m.bus.publish(Event{Kind: EventStateChanged, Session: snap})
}

// onProviderDisconnect forces the same transition as a local Disconnect.
func (m *Manager) onProviderDisconnect(_ provider.Event) {
	m.Disconnect()
}

// applyStateLocked overwrites the session snapshot from provider state.
// Caller holds m.mu and has verified an active session.
func (m *Manager) applyStateLocked(state *provider.WalletState) {
	m.session.address = state.Address
	if state.ShieldedAddress != "" {
		m.session.shieldedAddress = state.ShieldedAddress
	}
	m.session.balance = state.Balance
	if state.Network != "" {
		m.session.network = state.Network
	}
	m.session.lastRefresh = time.Now()
}
