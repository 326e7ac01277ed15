package contracts

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/mrz1836/shade/internal/config"
	"github.com/mrz1836/shade/internal/metrics"
	"github.com/mrz1836/shade/internal/pipeline"
	shadeerr "github.com/mrz1836/shade/pkg/errors"
)

// Executor is the pipeline surface the facade drives. Satisfied by
// pipeline.Pipeline.
type Executor interface {
	Execute(ctx context.Context, req pipeline.Request) (*pipeline.Receipt, error)
	Query(ctx context.Context, req pipeline.Request) (*pipeline.QueryResult, error)
}

// Answer is a read-only circuit result after the degrade policy has been
// applied: failed queries report zero rather than an error, with Degraded
// set so callers can tell a real zero from a fallback.
type Answer struct {
	Value    *big.Int
	Stale    bool
	Degraded bool
}

// Facade exposes the contract operations as typed methods. Parameter maps,
// freshness stamping, and the degrade-to-zero query policy all live here so
// callers never build raw requests.
type Facade struct {
	registry *Registry
	exec     Executor
	log      *config.Logger
	now      func() time.Time
}

// NewFacade creates a facade over the registry and pipeline.
func NewFacade(registry *Registry, exec Executor, log *config.Logger) *Facade {
	if log == nil {
		log = config.NullLogger()
	}
	return &Facade{
		registry: registry,
		exec:     exec,
		log:      log,
		now:      time.Now,
	}
}

// ContributeData submits a data contribution. A zero timestamp is stamped
// with the current time.
func (f *Facade) ContributeData(ctx context.Context, dataHash string, quality int, at time.Time) (*pipeline.Receipt, error) {
	if at.IsZero() {
		at = f.now()
	}
	return f.execute(ctx, "contributeData", map[string]any{
		"dataHash":    dataHash,
		"dataQuality": quality,
		"timestamp":   at.Unix(),
	})
}

// ClaimRewards claims all accumulated contribution rewards.
func (f *Facade) ClaimRewards(ctx context.Context) (*pipeline.Receipt, error) {
	return f.execute(ctx, "claimRewards", map[string]any{})
}

// GetMyContributions returns the caller's contribution count.
func (f *Facade) GetMyContributions(ctx context.Context) (*Answer, error) {
	return f.query(ctx, "getMyContributions")
}

// GetMyRewards returns the caller's pending reward balance.
func (f *Facade) GetMyRewards(ctx context.Context) (*Answer, error) {
	return f.query(ctx, "getMyRewards")
}

// CreateProposal opens a governance proposal.
func (f *Facade) CreateProposal(ctx context.Context, title, description string) (*pipeline.Receipt, error) {
	return f.execute(ctx, "createProposal", map[string]any{
		"title":       title,
		"description": description,
	})
}

// Vote casts a vote on a proposal. Whether the proposal exists is decided
// on-chain, not here.
func (f *Facade) Vote(ctx context.Context, proposalID uint64, support bool) (*pipeline.Receipt, error) {
	return f.execute(ctx, "vote", map[string]any{
		"proposalId": proposalID,
		"support":    support,
	})
}

// JoinDAO registers the caller as a DAO member.
func (f *Facade) JoinDAO(ctx context.Context) (*pipeline.Receipt, error) {
	return f.execute(ctx, "joinDAO", map[string]any{})
}

// ExecuteProposal finalizes a proposal after its voting period.
func (f *Facade) ExecuteProposal(ctx context.Context, proposalID uint64) (*pipeline.Receipt, error) {
	return f.execute(ctx, "executeProposal", map[string]any{
		"proposalId": proposalID,
	})
}

// GetMyBalance returns the caller's treasury balance.
func (f *Facade) GetMyBalance(ctx context.Context) (*Answer, error) {
	return f.query(ctx, "getMyBalance")
}

// RequestWithdrawal asks the treasury to release funds.
func (f *Facade) RequestWithdrawal(ctx context.Context, amount *big.Int) (*pipeline.Receipt, error) {
	return f.execute(ctx, "requestWithdrawal", map[string]any{
		"amount": amount,
	})
}

// execute builds and submits a state-changing request for the named
// operation, stamping the freshness field when the circuit requires one.
func (f *Facade) execute(ctx context.Context, name string, params map[string]any) (*pipeline.Receipt, error) {
	op, err := f.registry.Resolve(name)
	if err != nil {
		return nil, err
	}
	if op.timeField != "" {
		params[op.timeField] = f.now().Unix()
	}
	return f.exec.Execute(ctx, pipeline.Request{
		Contract: f.registry.Address(op.Family),
		Circuit:  op.Circuit,
		Params:   params,
	})
}

// query runs a read-only circuit. Failures other than a missing session
// degrade to zero: the read path must never break the caller's flow, only
// log why the figure is a fallback.
func (f *Facade) query(ctx context.Context, name string) (*Answer, error) {
	op, err := f.registry.Resolve(name)
	if err != nil {
		return nil, err
	}

	result, err := f.exec.Query(ctx, pipeline.Request{
		Contract: f.registry.Address(op.Family),
		Circuit:  op.Circuit,
		Params:   map[string]any{},
	})
	if err != nil {
		if errors.Is(err, shadeerr.ErrNotConnected) {
			return nil, err
		}
		f.log.Error("%s degraded to zero: %v", name, err)
		metrics.Global.RecordQuery(true)
		return &Answer{Value: big.NewInt(0), Degraded: true}, nil
	}
	metrics.Global.RecordQuery(false)

	value := result.Value
	if value == nil {
		value = big.NewInt(0)
	}
	return &Answer{Value: value, Stale: result.Stale}, nil
}
