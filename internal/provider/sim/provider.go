package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"sync"

	"github.com/mrz1836/shade/internal/config"
	"github.com/mrz1836/shade/internal/provider"
	"github.com/mrz1836/shade/internal/simnet"
	shadeerr "github.com/mrz1836/shade/pkg/errors"
)

// Approver decides whether a wallet action proceeds, standing in for the
// approval UI of a real wallet. detail is a short human-readable summary of
// what is being approved.
type Approver interface {
	Approve(action, detail string) (bool, error)
}

// ApproverFunc adapts a function to the Approver interface.
type ApproverFunc func(action, detail string) (bool, error)

// Approve implements Approver.
func (f ApproverFunc) Approve(action, detail string) (bool, error) {
	return f(action, detail)
}

// StaticApprover always answers the same way. Use Approve-all for scripted
// runs and Reject-all to exercise rejection paths.
func StaticApprover(approve bool) Approver {
	return ApproverFunc(func(_, _ string) (bool, error) {
		return approve, nil
	})
}

// DefaultBalance is the starting native-token balance of a fresh simulated
// wallet, in smallest units.
var DefaultBalance = big.NewInt(1_000_000_000)

// Options configures a simulated provider.
type Options struct {
	Wallet   *Wallet
	Ledger   *simnet.Ledger
	Approver Approver
	Balance  *big.Int // Defaults to DefaultBalance
	Log      *config.Logger
}

// Provider is an in-process wallet provider over a simulated ledger.
type Provider struct {
	wallet   *Wallet
	ledger   *simnet.Ledger
	approver Approver
	log      *config.Logger

	mu       sync.Mutex
	enabled  bool
	balance  *big.Int
	handlers map[provider.EventKind][]handlerEntry
	nextID   int
}

type handlerEntry struct {
	id int
	fn provider.Handler
}

// New creates a simulated provider.
func New(opts Options) (*Provider, error) {
	if opts.Wallet == nil {
		return nil, fmt.Errorf("sim provider requires a wallet")
	}
	if opts.Ledger == nil {
		return nil, fmt.Errorf("sim provider requires a ledger")
	}
	if opts.Approver == nil {
		opts.Approver = StaticApprover(true)
	}
	if opts.Balance == nil {
		opts.Balance = DefaultBalance
	}
	if opts.Log == nil {
		opts.Log = config.NullLogger()
	}
	return &Provider{
		wallet:   opts.Wallet,
		ledger:   opts.Ledger,
		approver: opts.Approver,
		log:      opts.Log,
		balance:  new(big.Int).Set(opts.Balance),
		handlers: make(map[provider.EventKind][]handlerEntry),
	}, nil
}

// Source wraps the provider as a detection source.
func Source(p *Provider) provider.Source {
	return provider.Source{
		Name: "sim",
		Probe: func(_ context.Context) (provider.Provider, error) {
			return p, nil
		},
	}
}

// Name implements provider.Provider.
func (p *Provider) Name() string { return "Shade Simulated Wallet" }

// APIVersion implements provider.Provider.
func (p *Provider) APIVersion() string { return "1.0.0" }

// Capabilities implements provider.Provider.
func (p *Provider) Capabilities() provider.Capabilities {
	return provider.Capabilities{Enable: true, State: true, SignTx: true, SubmitTx: true, Subscribe: true}
}

// IsEnabled implements provider.Provider.
func (p *Provider) IsEnabled(_ context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled, nil
}

// Enable implements provider.Provider, consulting the approval policy in
// place of a wallet UI.
func (p *Provider) Enable(ctx context.Context) (*provider.WalletState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ok, err := p.approver.Approve("connect", "authorize this application to use the simulated wallet")
	if err != nil {
		return nil, fmt.Errorf("approval policy: %w", err)
	}
	if !ok {
		return nil, shadeerr.ErrUserRejected
	}

	p.mu.Lock()
	p.enabled = true
	p.mu.Unlock()
	return p.State(ctx)
}

// State implements provider.Provider.
func (p *Provider) State(ctx context.Context) (*provider.WalletState, error) {
	network, err := p.ledger.NetworkID(ctx)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return &provider.WalletState{
		Address:         p.wallet.Address,
		ShieldedAddress: p.wallet.ShieldedAddress,
		Balance:         new(big.Int).Set(p.balance),
		Network:         network,
	}, nil
}

// SignTx implements provider.Provider. The approval policy gates every
// signature, mirroring a wallet's per-transaction prompt.
func (p *Provider) SignTx(ctx context.Context, intent provider.TxIntent) (provider.SignedTx, error) {
	if err := ctx.Err(); err != nil {
		return provider.SignedTx{}, err
	}

	p.mu.Lock()
	enabled := p.enabled
	p.mu.Unlock()
	if !enabled {
		return provider.SignedTx{}, shadeerr.ErrNotConnected
	}

	detail := fmt.Sprintf("sign %s on contract %s", intent.Circuit, intent.Contract)
	ok, err := p.approver.Approve("sign", detail)
	if err != nil {
		return provider.SignedTx{}, fmt.Errorf("approval policy: %w", err)
	}
	if !ok {
		return provider.SignedTx{}, shadeerr.ErrUserRejected
	}

	signature, err := p.wallet.Sign(intent)
	if err != nil {
		return provider.SignedTx{}, err
	}

	raw, err := json.Marshal(simnet.Envelope{
		Intent:    intent,
		Caller:    p.wallet.Address,
		Signature: signature,
	})
	if err != nil {
		return provider.SignedTx{}, fmt.Errorf("encoding envelope: %w", err)
	}
	return provider.SignedTx{Raw: raw}, nil
}

// SubmitTx implements provider.Provider, handing the envelope straight to
// the in-process ledger.
func (p *Provider) SubmitTx(_ context.Context, tx provider.SignedTx) (string, error) {
	hash, err := p.ledger.Submit(tx.Raw)
	if err != nil {
		return "", shadeerr.WithDetails(shadeerr.ErrSubmissionFailed, map[string]string{"cause": err.Error()})
	}
	p.log.Debug("sim wallet submitted %s", hash)
	return hash, nil
}

// On implements provider.Provider.
func (p *Provider) On(kind provider.EventKind, handler provider.Handler) (provider.Unsubscribe, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.nextID++
	id := p.nextID
	p.handlers[kind] = append(p.handlers[kind], handlerEntry{id: id, fn: handler})

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		entries := p.handlers[kind]
		for i, e := range entries {
			if e.id == id {
				p.handlers[kind] = append(entries[:i:i], entries[i+1:]...)
				return
			}
		}
	}, nil
}

// SetBalance updates the wallet balance and notifies stateChanged
// subscribers, the way a real wallet pushes balance updates.
func (p *Provider) SetBalance(balance *big.Int) {
	p.mu.Lock()
	p.balance = new(big.Int).Set(balance)
	entries := append([]handlerEntry(nil), p.handlers[provider.EventStateChanged]...)
	state := &provider.WalletState{
		Address:         p.wallet.Address,
		ShieldedAddress: p.wallet.ShieldedAddress,
		Balance:         new(big.Int).Set(p.balance),
	}
	p.mu.Unlock()

	for _, e := range entries {
		e.fn(provider.Event{Kind: provider.EventStateChanged, State: state})
	}
}

// Disconnect revokes the wallet authorization and notifies disconnect
// subscribers.
func (p *Provider) Disconnect() {
	p.mu.Lock()
	p.enabled = false
	entries := append([]handlerEntry(nil), p.handlers[provider.EventDisconnect]...)
	p.mu.Unlock()

	for _, e := range entries {
		e.fn(provider.Event{Kind: provider.EventDisconnect})
	}
}

// Compile-time interface check
var _ provider.Provider = (*Provider)(nil)
