// Package provider locates and normalizes wallet providers behind a single
// capability interface. Applications never talk to a wallet host directly;
// they hold a Handle produced by detection and invoke its normalized surface.
package provider

import (
	"context"
	"math/big"

	"github.com/mrz1836/shade/internal/chain"
)

// EventKind identifies a provider notification.
type EventKind string

// Provider event kinds.
const (
	EventStateChanged EventKind = "stateChanged"
	EventDisconnect   EventKind = "disconnect"
)

// Event is a provider-originated notification.
type Event struct {
	Kind  EventKind
	State *WalletState // Populated for stateChanged events
}

// Handler receives provider events.
type Handler func(Event)

// WalletState is the provider's view of the authorized wallet.
type WalletState struct {
	Address         string          // Public (coin) address
	ShieldedAddress string          // Privacy-preserving address, may be empty
	Balance         *big.Int        // Native token balance in smallest units
	Network         chain.NetworkID // Network the wallet is attached to
}

// Clone returns a deep copy of the state.
func (s *WalletState) Clone() *WalletState {
	if s == nil {
		return nil
	}
	out := *s
	if s.Balance != nil {
		out.Balance = new(big.Int).Set(s.Balance)
	}
	return &out
}

// TxIntent is the unsigned contract call handed to the provider for signing.
type TxIntent struct {
	Contract string         `json:"contract"`
	Circuit  string         `json:"circuit"`
	Params   map[string]any `json:"params"`
	Nonce    string         `json:"nonce,omitempty"`
}

// SignedTx is an opaque signed transaction blob produced by the provider.
type SignedTx struct {
	Raw []byte `json:"raw"`
}

// Capabilities records which optional operations a provider supports.
// Callers must consult these flags before invoking optional surface; the
// Handle enforces this and reports CAPABILITY_UNAVAILABLE otherwise.
type Capabilities struct {
	Enable    bool
	State     bool
	SignTx    bool
	SubmitTx  bool
	Subscribe bool
}

// Unsubscribe cancels an event subscription. Safe to call more than once.
type Unsubscribe func()

// Provider is the raw surface a concrete wallet provider exposes. Shade code
// outside this package should use a Handle, which layers capability checks
// on top.
type Provider interface {
	// Name returns the provider's self-reported name.
	Name() string

	// APIVersion returns the provider's connector API version.
	APIVersion() string

	// Capabilities reports the optional operations this provider supports.
	Capabilities() Capabilities

	// IsEnabled reports whether the wallet has already authorized this
	// application.
	IsEnabled(ctx context.Context) (bool, error)

	// Enable requests wallet authorization. It may suspend indefinitely
	// while the user decides in the wallet's own UI; cancel via ctx.
	// Returns USER_REJECTED when the user declines.
	Enable(ctx context.Context) (*WalletState, error)

	// State re-reads the current wallet state.
	State(ctx context.Context) (*WalletState, error)

	// SignTx signs a contract call intent. May suspend awaiting user
	// approval; returns USER_REJECTED when declined.
	SignTx(ctx context.Context, intent TxIntent) (SignedTx, error)

	// SubmitTx submits a signed transaction and returns the network
	// transaction hash.
	SubmitTx(ctx context.Context, tx SignedTx) (string, error)

	// On registers a handler for the given event kind.
	On(kind EventKind, handler Handler) (Unsubscribe, error)
}
