// Package simnet is an in-process simulated ledger node. It settles
// submitted transactions with configurable latency and models the circuit
// semantics of the three deployed contract families, so the full
// submit-confirm-query round trip can run without a live network.
//
// Simnet models circuit semantics only; no proofs are generated or
// verified.
package simnet

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/mrz1836/shade/internal/chain"
	"github.com/mrz1836/shade/internal/contracts"
	"github.com/mrz1836/shade/internal/provider"
)

// Envelope is the signed transaction wire format the simulated network
// accepts. Real providers hand the network an opaque blob; simnet's blob is
// JSON so circuit semantics can be applied on settlement.
type Envelope struct {
	Intent    provider.TxIntent `json:"intent"`
	Caller    string            `json:"caller"`
	Signature string            `json:"signature"`
}

// Config shapes the simulated network.
type Config struct {
	Network      chain.NetworkID
	Addresses    contracts.Addresses
	ConfirmAfter int              // Status polls before a submitted tx settles
	Now          func() time.Time // Defaults to time.Now
}

// DefaultConfig returns a devnet simnet that settles on the second poll.
func DefaultConfig() Config {
	return Config{
		Network: chain.Devnet,
		Addresses: contracts.Addresses{
			DataContribution: "0200dc00",
			Governance:       "0200da00",
			Treasury:         "0200ea00",
		},
		ConfirmAfter: 2,
	}
}

// account is the per-caller contract state across all three families.
type account struct {
	contributions uint64
	rewards       *big.Int // Pending contribution rewards
	treasury      *big.Int // Claimed balance held by the treasury
	member        bool
}

// proposal is a governance proposal.
type proposal struct {
	id        uint64
	title     string
	createdAt int64 // Unix seconds, from the circuit's currentTime param
	yes       uint64
	no        uint64
	voters    map[string]bool
	executed  bool
}

// tx is a submitted transaction awaiting settlement.
type tx struct {
	hash        string
	envelope    Envelope
	polls       int
	status      chain.StatusKind
	reason      string
	confirmedAt int // Poll count at which the tx settled
}

// Ledger is the simulated node. All methods are safe for concurrent use.
type Ledger struct {
	mu        sync.Mutex
	cfg       Config
	txs       map[string]*tx
	accounts  map[string]*account
	proposals map[uint64]*proposal
	nextID    uint64
}

// New creates a ledger.
func New(cfg Config) *Ledger {
	if cfg.ConfirmAfter <= 0 {
		cfg.ConfirmAfter = DefaultConfig().ConfirmAfter
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Network == "" {
		cfg.Network = chain.Devnet
	}
	return &Ledger{
		cfg:       cfg,
		txs:       make(map[string]*tx),
		accounts:  make(map[string]*account),
		proposals: make(map[uint64]*proposal),
	}
}

// Addresses returns the deployed contract addresses.
func (l *Ledger) Addresses() contracts.Addresses {
	return l.cfg.Addresses
}

// Submit accepts a signed transaction blob and returns its network hash.
// Settlement is deferred: circuit semantics are applied when the
// transaction confirms, not here.
func (l *Ledger) Submit(raw []byte) (string, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", fmt.Errorf("decoding transaction envelope: %w", err)
	}
	if env.Caller == "" {
		return "", fmt.Errorf("transaction envelope has no caller")
	}

	sum := blake2b.Sum256(raw)
	hash := "0x" + hex.EncodeToString(sum[:])

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.txs[hash]; !exists {
		l.txs[hash] = &tx{hash: hash, envelope: env, status: chain.StatusPending}
	}
	return hash, nil
}

// TransactionStatus implements chain.StatusReader. Each poll advances the
// simulated settlement clock; once a transaction reaches the configured
// depth its circuit is applied exactly once and the outcome is frozen.
func (l *Ledger) TransactionStatus(_ context.Context, hash string) (chain.TxStatus, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t, ok := l.txs[hash]
	if !ok {
		return chain.TxStatus{Hash: hash, Kind: chain.StatusUnknown}, nil
	}

	t.polls++
	if t.status == chain.StatusPending && t.polls >= l.cfg.ConfirmAfter {
		if reason := l.applyLocked(t.envelope); reason != "" {
			t.status = chain.StatusRejected
			t.reason = reason
		} else {
			t.status = chain.StatusConfirmed
		}
		t.confirmedAt = t.polls
	}

	status := chain.TxStatus{Hash: hash, Kind: t.status, Reason: t.reason}
	if t.status == chain.StatusConfirmed {
		status.Confirmations = uint64(t.polls - t.confirmedAt + 1)
	}
	return status, nil
}

// QueryCircuit implements chain.CircuitQuerier for the read-only circuits.
func (l *Ledger) QueryCircuit(_ context.Context, contract, circuit, caller string, _ map[string]any) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct := l.accountLocked(caller)
	switch {
	case contract == l.cfg.Addresses.DataContribution && circuit == "getMyContributions":
		return new(big.Int).SetUint64(acct.contributions), nil
	case contract == l.cfg.Addresses.DataContribution && circuit == "getMyRewards":
		return new(big.Int).Set(acct.rewards), nil
	case contract == l.cfg.Addresses.Treasury && circuit == "getMyBalance":
		return new(big.Int).Set(acct.treasury), nil
	default:
		return nil, fmt.Errorf("unknown circuit %s on contract %s", circuit, contract)
	}
}

// NetworkID implements chain.NetworkIdentifier.
func (l *Ledger) NetworkID(_ context.Context) (chain.NetworkID, error) {
	return l.cfg.Network, nil
}

// accountLocked returns the caller's account, creating it on first touch.
// Caller holds l.mu.
func (l *Ledger) accountLocked(caller string) *account {
	acct, ok := l.accounts[caller]
	if !ok {
		acct = &account{rewards: new(big.Int), treasury: new(big.Int)}
		l.accounts[caller] = acct
	}
	return acct
}

// Compile-time interface check
var _ chain.Node = (*Ledger)(nil)
