// Package providertest provides a scriptable fake wallet provider for tests.
package providertest

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/mrz1836/shade/internal/chain"
	"github.com/mrz1836/shade/internal/provider"
	shadeerr "github.com/mrz1836/shade/pkg/errors"
)

// DefaultState returns a plausible wallet state for tests.
func DefaultState() *provider.WalletState {
	return &provider.WalletState{
		Address:         "mn1qtest000coinpublickey",
		ShieldedAddress: "mn1shielded000publickey",
		Balance:         big.NewInt(5_000_000),
		Network:         chain.Devnet,
	}
}

// Fake is a scriptable provider.Provider implementation.
type Fake struct {
	mu sync.Mutex

	NameValue    string
	Version      string
	Caps         provider.Capabilities
	Enabled      bool
	StateValue   *provider.WalletState
	EnableErr    error // Returned by Enable when set
	StateErr     error
	StateErrOnce error // Returned by the next State call only, then cleared
	SignErr      error
	SubmitErr    error
	SubmitHash   string
	EnableGate   chan struct{} // When set, Enable blocks until closed or ctx done
	SignGate     chan struct{} // When set, SignTx blocks until closed or ctx done
	EnableCalls  int
	SignCalls    int
	SubmitCalls  int
	SignedIntent *provider.TxIntent // Last intent handed to SignTx

	handlers map[provider.EventKind][]handlerEntry
	nextID   int
}

type handlerEntry struct {
	id int
	fn provider.Handler
}

// New returns a fake provider with full capabilities and a default state.
func New() *Fake {
	return &Fake{
		NameValue:  "Fake Wallet",
		Version:    "3.0.0",
		Caps:       provider.Capabilities{Enable: true, State: true, SignTx: true, SubmitTx: true, Subscribe: true},
		StateValue: DefaultState(),
		SubmitHash: "0xfake0000000000000000000000000000000000000000000000000000000000ff",
		handlers:   make(map[provider.EventKind][]handlerEntry),
	}
}

// Name implements provider.Provider.
func (f *Fake) Name() string { return f.NameValue }

// APIVersion implements provider.Provider.
func (f *Fake) APIVersion() string { return f.Version }

// Capabilities implements provider.Provider.
func (f *Fake) Capabilities() provider.Capabilities { return f.Caps }

// IsEnabled implements provider.Provider.
func (f *Fake) IsEnabled(_ context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Enabled, nil
}

// Enable implements provider.Provider.
func (f *Fake) Enable(ctx context.Context) (*provider.WalletState, error) {
	f.mu.Lock()
	f.EnableCalls++
	gate := f.EnableGate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.EnableErr != nil {
		return nil, f.EnableErr
	}
	f.Enabled = true
	return f.StateValue.Clone(), nil
}

// State implements provider.Provider.
func (f *Fake) State(_ context.Context) (*provider.WalletState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.StateErrOnce != nil {
		err := f.StateErrOnce
		f.StateErrOnce = nil
		return nil, err
	}
	if f.StateErr != nil {
		return nil, f.StateErr
	}
	return f.StateValue.Clone(), nil
}

// SignTx implements provider.Provider.
func (f *Fake) SignTx(ctx context.Context, intent provider.TxIntent) (provider.SignedTx, error) {
	f.mu.Lock()
	f.SignCalls++
	f.SignedIntent = &intent
	gate := f.SignGate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return provider.SignedTx{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SignErr != nil {
		return provider.SignedTx{}, f.SignErr
	}
	return provider.SignedTx{Raw: []byte(fmt.Sprintf("signed:%s/%s", intent.Contract, intent.Circuit))}, nil
}

// SubmitTx implements provider.Provider.
func (f *Fake) SubmitTx(_ context.Context, _ provider.SignedTx) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SubmitCalls++
	if f.SubmitErr != nil {
		return "", f.SubmitErr
	}
	return f.SubmitHash, nil
}

// On implements provider.Provider.
func (f *Fake) On(kind provider.EventKind, handler provider.Handler) (provider.Unsubscribe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	id := f.nextID
	f.handlers[kind] = append(f.handlers[kind], handlerEntry{id: id, fn: handler})

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		entries := f.handlers[kind]
		for i, e := range entries {
			if e.id == id {
				f.handlers[kind] = append(entries[:i:i], entries[i+1:]...)
				return
			}
		}
	}, nil
}

// HandlerCount returns the number of registered handlers for a kind.
func (f *Fake) HandlerCount(kind provider.EventKind) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handlers[kind])
}

// EmitStateChanged delivers a stateChanged event to registered handlers.
func (f *Fake) EmitStateChanged(state *provider.WalletState) {
	f.mu.Lock()
	f.StateValue = state.Clone()
	entries := append([]handlerEntry(nil), f.handlers[provider.EventStateChanged]...)
	f.mu.Unlock()

	for _, e := range entries {
		e.fn(provider.Event{Kind: provider.EventStateChanged, State: state.Clone()})
	}
}

// EmitDisconnect delivers a disconnect event to registered handlers.
func (f *Fake) EmitDisconnect() {
	f.mu.Lock()
	f.Enabled = false
	entries := append([]handlerEntry(nil), f.handlers[provider.EventDisconnect]...)
	f.mu.Unlock()

	for _, e := range entries {
		e.fn(provider.Event{Kind: provider.EventDisconnect})
	}
}

// RejectEnable scripts Enable to fail as a user rejection.
func (f *Fake) RejectEnable() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.EnableErr = shadeerr.ErrUserRejected
}

// RejectSign scripts SignTx to fail as a user rejection.
func (f *Fake) RejectSign() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SignErr = shadeerr.ErrUserRejected
}

// Source wraps the fake as a detection source with the given origin.
func Source(origin provider.Origin, f *Fake) provider.Source {
	return provider.Source{
		Name: origin,
		Probe: func(_ context.Context) (provider.Provider, error) {
			return f, nil
		},
	}
}

// AbsentSource is a detection source with nothing injected at it.
func AbsentSource(origin provider.Origin) provider.Source {
	return provider.Source{
		Name: origin,
		Probe: func(_ context.Context) (provider.Provider, error) {
			return nil, shadeerr.ErrProviderNotFound
		},
	}
}

// Compile-time interface check
var _ provider.Provider = (*Fake)(nil)
