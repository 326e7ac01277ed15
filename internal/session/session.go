// Package session owns the wallet connection state machine. It drives
// provider detection and authorization, holds the single active wallet
// session, and re-emits provider notifications as ordered session events.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"time"

	"github.com/mrz1836/shade/internal/chain"
)

// State is a position in the session state machine.
type State int

// Session states. Unavailable and Disconnected are re-entrant: a new
// Connect transitions back through Detecting/Connecting. Connected is the
// only state from which wallet operations are permitted.
const (
	Uninitialized State = iota
	Detecting
	Unavailable
	Available
	Connecting
	Connected
	Disconnected
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Detecting:
		return "detecting"
	case Unavailable:
		return "unavailable"
	case Available:
		return "available"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Snapshot is the read-only projection of the active wallet session handed
// to callers. The manager owns the live session exclusively; snapshots are
// deep copies and never mutate under the caller.
type Snapshot struct {
	ID              string          // Opaque session id
	Address         string          // Public (coin) address
	ShieldedAddress string          // Privacy-preserving address, may be empty
	Balance         *big.Int        // Balance at the last refresh
	Network         chain.NetworkID // Network the wallet is attached to
	LastRefresh     time.Time       // When the provider state was last read
}

// walletSession is the manager-private mutable session.
type walletSession struct {
	id              string
	address         string
	shieldedAddress string
	balance         *big.Int
	network         chain.NetworkID
	lastRefresh     time.Time
}

// snapshot returns a read-only deep copy.
func (w *walletSession) snapshot() *Snapshot {
	if w == nil {
		return nil
	}
	out := &Snapshot{
		ID:              w.id,
		Address:         w.address,
		ShieldedAddress: w.shieldedAddress,
		Network:         w.network,
		LastRefresh:     w.lastRefresh,
	}
	if w.balance != nil {
		out.Balance = new(big.Int).Set(w.balance)
	}
	return out
}

// newSessionID generates an opaque session identifier.
func newSessionID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand.Read only fails on a broken system RNG; an opaque
		// constant id still works for a single local session.
		return "session-degraded"
	}
	return hex.EncodeToString(buf)
}
