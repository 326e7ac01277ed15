// Package pipeline drives contract calls through the wallet provider and
// tracks their settlement on the network. Execute returns a Pending receipt
// as soon as the network accepts the submission; settlement is observed
// separately through AwaitConfirmation so callers are never blocked on it.
package pipeline

import (
	"context"
	"time"

	"github.com/mrz1836/shade/internal/chain"
	"github.com/mrz1836/shade/internal/config"
	"github.com/mrz1836/shade/internal/metrics"
	"github.com/mrz1836/shade/internal/provider"
	"github.com/mrz1836/shade/internal/session"
	shadeerr "github.com/mrz1836/shade/pkg/errors"
)

// SessionSource exposes the session surface the pipeline depends on.
// Satisfied by session.Manager.
type SessionSource interface {
	Handle() (*provider.Handle, error)
	Snapshot() *session.Snapshot
}

// Validator checks a request against the contract registry before any
// provider interaction. Satisfied by contracts.Registry.
type Validator interface {
	Validate(contract, circuit string, params map[string]any) error
}

// ConfirmConfig bounds confirmation polling. RetryBudget caps consecutive
// transient failures of one status poll; MaxPolls caps successful polls that
// still report pending, so a wait always terminates.
type ConfirmConfig struct {
	PollInterval time.Duration
	RetryBudget  int
	MaxPolls     int
}

// DefaultConfirmConfig returns the default polling bounds: 2s interval,
// 3 transient failures, 30 pending polls (one minute of waiting).
func DefaultConfirmConfig() ConfirmConfig {
	return ConfirmConfig{
		PollInterval: 2 * time.Second,
		RetryBudget:  3,
		MaxPolls:     30,
	}
}

// Pipeline executes contract calls against a connected wallet session.
type Pipeline struct {
	sessions  SessionSource
	node      chain.Node
	validator Validator
	limiter   *chain.RateLimiter
	endpoint  string
	confirm   ConfirmConfig
	log       *config.Logger
}

// New creates a pipeline. The validator may be nil when requests are
// pre-validated by the caller. endpoint keys the poll rate limiter so
// concurrent waits against the same node share one budget.
func New(sessions SessionSource, node chain.Node, validator Validator, endpoint string, confirm ConfirmConfig, log *config.Logger) *Pipeline {
	if confirm.PollInterval <= 0 {
		confirm.PollInterval = DefaultConfirmConfig().PollInterval
	}
	if confirm.RetryBudget <= 0 {
		confirm.RetryBudget = DefaultConfirmConfig().RetryBudget
	}
	if confirm.MaxPolls <= 0 {
		confirm.MaxPolls = DefaultConfirmConfig().MaxPolls
	}
	if log == nil {
		log = config.NullLogger()
	}
	return &Pipeline{
		sessions:  sessions,
		node:      node,
		validator: validator,
		limiter:   chain.DefaultRateLimiter(),
		endpoint:  endpoint,
		confirm:   confirm,
		log:       log,
	}
}

// stalenessWindow is how old session data may be before query results are
// flagged stale. Matches the wallet refresh cadence of the provider bridge.
const stalenessWindow = 30 * time.Second

// Execute builds, signs, and submits a contract call. It requires a
// connected session and a registry-known operation before any provider
// interaction; signing may suspend for user approval (cancel via ctx).
// The returned receipt is Pending: settlement has not been observed yet.
func (p *Pipeline) Execute(ctx context.Context, req Request) (*Receipt, error) {
	corrID := req.CorrelationID
	if corrID == "" {
		corrID = newCorrelationID()
	}

	handle, err := p.sessions.Handle()
	if err != nil {
		return nil, err
	}

	if p.validator != nil {
		if err := p.validator.Validate(req.Contract, req.Circuit, req.Params); err != nil {
			return nil, shadeerr.WithDetails(err, map[string]string{"correlation_id": corrID})
		}
	}

	intent := provider.TxIntent{
		Contract: req.Contract,
		Circuit:  req.Circuit,
		Params:   req.Params,
		Nonce:    corrID,
	}

	p.log.Debug("[%s] signing %s.%s", corrID, req.Contract, req.Circuit)
	signed, err := handle.SignTx(ctx, intent)
	metrics.Global.RecordProviderOp(err)
	if err != nil {
		p.log.Debug("[%s] signing failed: %v", corrID, err)
		return nil, err
	}

	hash, err := handle.SubmitTx(ctx, signed)
	metrics.Global.RecordProviderOp(err)
	if err != nil {
		p.log.Error("[%s] submission failed: %v", corrID, err)
		return nil, shadeerr.WithDetails(
			shadeerr.Wrap(shadeerr.ErrSubmissionFailed, "submitting %s.%s", req.Contract, req.Circuit),
			map[string]string{"correlation_id": corrID, "provider_error": err.Error()},
		)
	}

	p.log.Debug("[%s] submitted as %s", corrID, hash)
	metrics.Global.RecordSubmission()
	return &Receipt{
		CorrelationID: corrID,
		TxHash:        hash,
		Status:        StatusPending,
		SubmittedAt:   time.Now(),
	}, nil
}

// AwaitConfirmation polls the network until the transaction reaches
// minConfirmations, is rejected, or the polling bounds run out. The wait is
// always bounded; canceling ctx returns the receipt unchanged. Rejection and
// timeout both produce a terminal Failed receipt, with distinct errors.
func (p *Pipeline) AwaitConfirmation(ctx context.Context, receipt *Receipt, minConfirmations uint64) (*Receipt, error) {
	if receipt == nil || receipt.TxHash == "" {
		return nil, shadeerr.WithDetails(shadeerr.ErrInvalidParameters, map[string]string{
			"reason": "receipt has no transaction hash",
		})
	}
	if receipt.Terminal() {
		return receipt.clone(), receipt.Err
	}
	if minConfirmations == 0 {
		minConfirmations = 1
	}

	r := receipt.clone()
	// Transient poll failures (as tagged by the node client) retry with
	// linear backoff; anything else gives up on the first occurrence.
	retryCfg := chain.RetryConfig{
		MaxAttempts: p.confirm.RetryBudget + 1,
		BaseDelay:   p.confirm.PollInterval,
		MaxDelay:    p.confirm.PollInterval * time.Duration(p.confirm.RetryBudget),
	}
	for polls := 0; polls < p.confirm.MaxPolls; polls++ {
		status, err := chain.RetryWithConfig(ctx, retryCfg, func() (chain.TxStatus, error) {
			if err := p.limiter.Wait(ctx, p.endpoint); err != nil {
				return chain.TxStatus{}, err
			}
			return p.node.TransactionStatus(ctx, r.TxHash)
		})
		if err != nil {
			if ctx.Err() != nil {
				return r, ctx.Err()
			}
			p.log.Debug("[%s] status polling gave up: %v", r.CorrelationID, err)
			return p.fail(r, shadeerr.ErrConfirmationTimeout, map[string]string{
				"tx_hash":    r.TxHash,
				"last_error": err.Error(),
			})
		}

		switch status.Kind {
		case chain.StatusRejected:
			return p.fail(r, shadeerr.ErrTxRejected, map[string]string{
				"tx_hash": r.TxHash,
				"reason":  status.Reason,
			})
		case chain.StatusConfirmed:
			r.Confirmations = status.Confirmations
			if status.Confirmations >= minConfirmations {
				r.Status = StatusConfirmed
				r.SettledAt = time.Now()
				metrics.Global.RecordSettlement(true)
				p.log.Debug("[%s] confirmed at depth %d", r.CorrelationID, status.Confirmations)
				return r, nil
			}
		case chain.StatusPending, chain.StatusUnknown:
		}

		if err := sleep(ctx, p.confirm.PollInterval); err != nil {
			return r, err
		}
	}

	return p.fail(r, shadeerr.ErrConfirmationTimeout, map[string]string{"tx_hash": r.TxHash})
}

// Query performs a read-only circuit call scoped to the session's wallet
// address. It never signs or submits anything and produces no receipt.
func (p *Pipeline) Query(ctx context.Context, req Request) (*QueryResult, error) {
	corrID := req.CorrelationID
	if corrID == "" {
		corrID = newCorrelationID()
	}

	if _, err := p.sessions.Handle(); err != nil {
		return nil, err
	}
	snap := p.sessions.Snapshot()
	if snap == nil {
		return nil, shadeerr.ErrNotConnected
	}

	if p.validator != nil {
		if err := p.validator.Validate(req.Contract, req.Circuit, req.Params); err != nil {
			return nil, shadeerr.WithDetails(err, map[string]string{"correlation_id": corrID})
		}
	}

	value, err := p.node.QueryCircuit(ctx, req.Contract, req.Circuit, snap.Address, req.Params)
	if err != nil {
		p.log.Error("[%s] query %s.%s failed: %v", corrID, req.Contract, req.Circuit, err)
		return nil, shadeerr.WithDetails(
			shadeerr.Wrap(err, "querying %s.%s", req.Contract, req.Circuit),
			map[string]string{"correlation_id": corrID},
		)
	}

	return &QueryResult{
		CorrelationID: corrID,
		Value:         value,
		AsOf:          snap.LastRefresh,
		Stale:         time.Since(snap.LastRefresh) > stalenessWindow,
	}, nil
}

// fail marks the receipt terminal with the given cause and returns both.
func (p *Pipeline) fail(r *Receipt, cause error, details map[string]string) (*Receipt, error) {
	err := shadeerr.WithDetails(cause, details)
	r.Status = StatusFailed
	r.SettledAt = time.Now()
	r.Err = err
	metrics.Global.RecordSettlement(false)
	p.log.Error("[%s] settlement failed: %v", r.CorrelationID, err)
	return r, err
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
