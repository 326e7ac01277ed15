// Package bridge implements a wallet provider over JSON-RPC-to-HTTP, for
// Lace-style wallet hosts that expose a local provider bridge. The two
// browser injection points of the connector API map to two bridge
// endpoints, probed in the same fixed priority order.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/mrz1836/shade/internal/chain"
	"github.com/mrz1836/shade/internal/chain/rpc"
	"github.com/mrz1836/shade/internal/config"
	"github.com/mrz1836/shade/internal/provider"
	shadeerr "github.com/mrz1836/shade/pkg/errors"
)

// Wallet-host error codes, following the connector convention of 4001 for
// an explicit user rejection.
const (
	codeUserRejected = 4001
)

// Long-poll wait requested from the wallet host, milliseconds.
const pollWaitMS = 25_000

// helloResult is the wallet_hello capability exchange.
type helloResult struct {
	Name         string `json:"name"`
	APIVersion   string `json:"apiVersion"`
	Capabilities struct {
		Enable    bool `json:"enable"`
		State     bool `json:"state"`
		SignTx    bool `json:"signTx"`
		SubmitTx  bool `json:"submitTx"`
		Subscribe bool `json:"subscribe"`
	} `json:"capabilities"`
}

// walletStateWire is the wallet state as the host reports it.
type walletStateWire struct {
	Address         string      `json:"address"`
	ShieldedAddress string      `json:"shieldedAddress,omitempty"`
	Balance         hexutil.Big `json:"balance"`
	Network         string      `json:"network"`
}

func (w *walletStateWire) toState() *provider.WalletState {
	return &provider.WalletState{
		Address:         w.Address,
		ShieldedAddress: w.ShieldedAddress,
		Balance:         new(big.Int).Set((*big.Int)(&w.Balance)),
		Network:         chain.NetworkID(w.Network),
	}
}

type eventWire struct {
	Kind  string           `json:"kind"`
	State *walletStateWire `json:"state,omitempty"`
}

type pollResult struct {
	Cursor uint64      `json:"cursor"`
	Events []eventWire `json:"events"`
}

type handlerEntry struct {
	id int
	fn provider.Handler
}

// Provider is a wallet provider backed by a bridge endpoint.
type Provider struct {
	client *rpc.Client
	name   string
	api    string
	caps   provider.Capabilities
	log    *config.Logger

	mu       sync.Mutex
	handlers map[provider.EventKind][]handlerEntry
	nextID   int
	cursor   uint64
	polling  bool
	stop     chan struct{}
}

// Probe performs the wallet_hello capability exchange against an endpoint.
// An unreachable endpoint reports ErrProviderNotFound so detection can move
// on to the next source.
func Probe(ctx context.Context, endpoint string, log *config.Logger) (provider.Provider, error) {
	if log == nil {
		log = config.NullLogger()
	}
	client := rpc.NewClient(endpoint)

	result, err := client.Call(ctx, "wallet_hello")
	if err != nil {
		client.Close()
		log.Debug("bridge probe %s: %v", endpoint, err)
		return nil, shadeerr.ErrProviderNotFound
	}

	var hello helloResult
	if err := unmarshal(result, &hello); err != nil {
		client.Close()
		return nil, err
	}

	return &Provider{
		client: client,
		name:   hello.Name,
		api:    hello.APIVersion,
		caps: provider.Capabilities{
			Enable:    hello.Capabilities.Enable,
			State:     hello.Capabilities.State,
			SignTx:    hello.Capabilities.SignTx,
			SubmitTx:  hello.Capabilities.SubmitTx,
			Subscribe: hello.Capabilities.Subscribe,
		},
		log:      log,
		handlers: make(map[provider.EventKind][]handlerEntry),
		stop:     make(chan struct{}),
	}, nil
}

// Sources builds the ordered detection source list for the two bridge
// endpoints. The primary namespace always wins when both respond.
func Sources(primary, legacy string, log *config.Logger) []provider.Source {
	return []provider.Source{
		{
			Name: "midnight.lace",
			Probe: func(ctx context.Context) (provider.Provider, error) {
				return Probe(ctx, primary, log)
			},
		},
		{
			Name: "cardano.midnight",
			Probe: func(ctx context.Context) (provider.Provider, error) {
				return Probe(ctx, legacy, log)
			},
		},
	}
}

// Name implements provider.Provider.
func (p *Provider) Name() string { return p.name }

// APIVersion implements provider.Provider.
func (p *Provider) APIVersion() string { return p.api }

// Capabilities implements provider.Provider.
func (p *Provider) Capabilities() provider.Capabilities { return p.caps }

// IsEnabled implements provider.Provider.
func (p *Provider) IsEnabled(ctx context.Context) (bool, error) {
	result, err := p.client.Call(ctx, "wallet_isEnabled")
	if err != nil {
		return false, mapWalletError(err)
	}
	var enabled bool
	if err := unmarshal(result, &enabled); err != nil {
		return false, err
	}
	return enabled, nil
}

// Enable implements provider.Provider. The host blocks the call while the
// user decides; cancellation propagates through the HTTP request.
func (p *Provider) Enable(ctx context.Context) (*provider.WalletState, error) {
	result, err := p.client.Call(ctx, "wallet_enable")
	if err != nil {
		return nil, mapWalletError(err)
	}
	var wire walletStateWire
	if err := unmarshal(result, &wire); err != nil {
		return nil, err
	}
	return wire.toState(), nil
}

// State implements provider.Provider.
func (p *Provider) State(ctx context.Context) (*provider.WalletState, error) {
	result, err := p.client.Call(ctx, "wallet_getState")
	if err != nil {
		return nil, mapWalletError(err)
	}
	var wire walletStateWire
	if err := unmarshal(result, &wire); err != nil {
		return nil, err
	}
	return wire.toState(), nil
}

// SignTx implements provider.Provider.
func (p *Provider) SignTx(ctx context.Context, intent provider.TxIntent) (provider.SignedTx, error) {
	result, err := p.client.Call(ctx, "wallet_signTx", intent)
	if err != nil {
		return provider.SignedTx{}, mapWalletError(err)
	}
	var raw hexutil.Bytes
	if err := unmarshal(result, &raw); err != nil {
		return provider.SignedTx{}, err
	}
	return provider.SignedTx{Raw: raw}, nil
}

// SubmitTx implements provider.Provider.
func (p *Provider) SubmitTx(ctx context.Context, tx provider.SignedTx) (string, error) {
	result, err := p.client.Call(ctx, "wallet_submitTx", hexutil.Bytes(tx.Raw))
	if err != nil {
		return "", mapWalletError(err)
	}
	var hash string
	if err := unmarshal(result, &hash); err != nil {
		return "", err
	}
	return hash, nil
}

// On implements provider.Provider. The first subscription starts the
// long-poll loop against wallet_pollEvents.
func (p *Provider) On(kind provider.EventKind, handler provider.Handler) (provider.Unsubscribe, error) {
	p.mu.Lock()
	p.nextID++
	id := p.nextID
	p.handlers[kind] = append(p.handlers[kind], handlerEntry{id: id, fn: handler})
	if !p.polling {
		p.polling = true
		go p.pollLoop()
	}
	p.mu.Unlock()

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

// Close stops the event loop and releases the HTTP client.
func (p *Provider) Close() {
	p.mu.Lock()
	select {
	case <-p.stop:
	default:
		close(p.stop)
	}
	p.mu.Unlock()
	p.client.Close()
}

// pollLoop long-polls the host for events until Close. Failed polls back
// off linearly so an unreachable host is not hammered; a successful poll
// resets the backoff.
func (p *Provider) pollLoop() {
	backoff := chain.DefaultRetryConfig()
	failures := 0
	for {
		select {
		case <-p.stop:
			return
		default:
		}

		p.mu.Lock()
		cursor := p.cursor
		p.mu.Unlock()

		result, err := p.client.Call(context.Background(), "wallet_pollEvents", cursor, pollWaitMS)
		if err != nil {
			p.log.Debug("bridge event poll failed: %v", err)
			failures++
			if !p.pause(backoff.Delay(failures - 1)) {
				return
			}
			continue
		}

		var poll pollResult
		if err := unmarshal(result, &poll); err != nil {
			p.log.Debug("bridge event poll decode failed: %v", err)
			failures++
			if !p.pause(backoff.Delay(failures - 1)) {
				return
			}
			continue
		}
		failures = 0

		p.mu.Lock()
		p.cursor = poll.Cursor
		p.mu.Unlock()

		for _, evt := range poll.Events {
			p.dispatch(evt)
		}
	}
}

// pause sleeps between failed polls. Reports false once Close is called.
func (p *Provider) pause(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-p.stop:
		return false
	case <-timer.C:
		return true
	}
}

// dispatch delivers one host event to the matching handlers, in
// registration order.
func (p *Provider) dispatch(evt eventWire) {
	kind := provider.EventKind(evt.Kind)

	p.mu.Lock()
	entries := append([]handlerEntry(nil), p.handlers[kind]...)
	p.mu.Unlock()

	out := provider.Event{Kind: kind}
	if evt.State != nil {
		out.State = evt.State.toState()
	}
	for _, e := range entries {
		e.fn(out)
	}
}

// unmarshal decodes a wallet response, treating a missing result as an
// error rather than a zero value.
func unmarshal(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return rpc.ErrNilResponse
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding wallet response: %w", err)
	}
	return nil
}

// mapWalletError translates wallet-host error codes to the local taxonomy.
func mapWalletError(err error) error {
	var rpcErr *rpc.RPCError
	if errors.As(err, &rpcErr) && rpcErr.Code == codeUserRejected {
		return shadeerr.ErrUserRejected
	}
	return err
}

// Compile-time interface check
var _ provider.Provider = (*Provider)(nil)
