package cli

import (
	"context"
	"fmt"

	"github.com/mrz1836/shade/internal/chain"
	"github.com/mrz1836/shade/internal/chain/rpc"
	"github.com/mrz1836/shade/internal/config"
	"github.com/mrz1836/shade/internal/contracts"
	"github.com/mrz1836/shade/internal/output"
	"github.com/mrz1836/shade/internal/pipeline"
	"github.com/mrz1836/shade/internal/provider"
	"github.com/mrz1836/shade/internal/provider/bridge"
	"github.com/mrz1836/shade/internal/provider/sim"
	"github.com/mrz1836/shade/internal/session"
	"github.com/mrz1836/shade/internal/simnet"
	shadeerr "github.com/mrz1836/shade/pkg/errors"
)

// app is the wired wallet stack, built lazily by the first command that
// needs wallet access.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
var app *App

// App wires the session manager, transaction pipeline, and contract facade
// for the configured provider.
type App struct {
	Sessions *session.Manager
	Pipeline *pipeline.Pipeline
	Facade   *contracts.Facade
	Registry *contracts.Registry

	closers []func()
}

// getApp returns the wired application, building it on first use.
func getApp() (*App, error) {
	if app != nil {
		return app, nil
	}

	built, err := buildApp(cfg, logger)
	if err != nil {
		return nil, err
	}
	app = built
	return app, nil
}

// closeApp releases provider and node resources.
func closeApp() {
	if app == nil {
		return
	}
	for _, closeFn := range app.closers {
		closeFn()
	}
	app = nil
}

func buildApp(cfg *config.Config, log *config.Logger) (*App, error) {
	addrs := contracts.Addresses{
		DataContribution: cfg.Contracts.DataContribution,
		Governance:       cfg.Contracts.Governance,
		Treasury:         cfg.Contracts.Treasury,
	}
	registry := contracts.NewRegistry(addrs)

	var (
		sources []provider.Source
		node    chain.Node
		limit   string
		closers []func()
	)

	switch cfg.Provider.Kind {
	case "sim":
		simProvider, ledger, err := buildSimProvider(cfg, log)
		if err != nil {
			return nil, err
		}
		sources = []provider.Source{sim.Source(simProvider)}
		node = ledger
		limit = "simnet"

	case "", "bridge":
		sources = bridge.Sources(cfg.Provider.Endpoint, cfg.Provider.LegacyEndpoint, log)
		client := rpc.NewClient(cfg.Network.RPC)
		closers = append(closers, client.Close)
		node = client
		limit = cfg.Network.RPC

	default:
		return nil, shadeerr.WithDetails(shadeerr.ErrConfigInvalid, map[string]string{
			"provider.kind": cfg.Provider.Kind,
			"reason":        `must be "bridge" or "sim"`,
		})
	}

	sessions := session.NewManager(provider.NewDetector(sources...), log)
	// The session manager owns the detected provider, including the bridge
	// event loop; closing it must come before the node client goes away.
	closers = append([]func(){sessions.Close}, closers...)
	confirm := pipeline.ConfirmConfig{
		PollInterval: cfg.Confirm.PollInterval(),
		RetryBudget:  cfg.Confirm.RetryBudget,
		MaxPolls:     pipeline.DefaultConfirmConfig().MaxPolls,
	}
	pipe := pipeline.New(sessions, node, registry, limit, confirm, log)

	return &App{
		Sessions: sessions,
		Pipeline: pipe,
		Facade:   contracts.NewFacade(registry, pipe, log),
		Registry: registry,
		closers:  closers,
	}, nil
}

// buildSimProvider loads the keystore and binds a simulated wallet to an
// in-process ledger.
func buildSimProvider(cfg *config.Config, log *config.Logger) (*sim.Provider, *simnet.Ledger, error) {
	keystorePath := config.ExpandHome(cfg.Provider.Keystore)
	passphrase, err := promptPassphrase("Keystore passphrase: ")
	if err != nil {
		return nil, nil, err
	}

	wallet, err := sim.LoadKeystore(keystorePath, passphrase)
	if err != nil {
		return nil, nil, err
	}

	network, _ := chain.ParseNetworkID(cfg.Network.ID)
	ledger := simnet.New(simnet.Config{
		Network: network,
		Addresses: contracts.Addresses{
			DataContribution: cfg.Contracts.DataContribution,
			Governance:       cfg.Contracts.Governance,
			Treasury:         cfg.Contracts.Treasury,
		},
	})

	simProvider, err := sim.New(sim.Options{
		Wallet:   wallet,
		Ledger:   ledger,
		Approver: approverFromConfig(cfg.Provider.Approval),
		Log:      log,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("building sim provider: %w", err)
	}
	return simProvider, ledger, nil
}

// approverFromConfig maps the configured approval mode to a policy.
// Unknown modes fall back to interactive prompting.
func approverFromConfig(mode string) sim.Approver {
	switch mode {
	case "approve":
		return sim.StaticApprover(true)
	case "reject":
		return sim.StaticApprover(false)
	default:
		return sim.ApproverFunc(promptApproval)
	}
}

// minConfirmations returns the configured confirmation depth, at least 1.
func minConfirmations() uint64 {
	if cfg.Confirm.MinConfs < 1 {
		return 1
	}
	return uint64(cfg.Confirm.MinConfs)
}

// ensureConnected establishes the wallet session for this invocation. An
// already-authorized wallet reconnects without a new approval prompt.
func ensureConnected(ctx context.Context, a *App) error {
	if a.Sessions.Connected() {
		return nil
	}
	_, err := a.Sessions.Connect(ctx)
	return err
}

// finishTx renders a submitted transaction's receipt, optionally waiting
// for settlement first. Settlement failures still render the receipt before
// surfacing the error so exit codes reflect the outcome.
func finishTx(ctx context.Context, a *App, receipt *pipeline.Receipt, wait bool) error {
	var waitErr error
	if wait {
		settled, err := a.Pipeline.AwaitConfirmation(ctx, receipt, minConfirmations())
		if settled != nil {
			receipt = settled
		}
		waitErr = err
	}

	if err := output.NewReceiptView(receipt).Render(formatter); err != nil {
		return err
	}
	return waitErr
}
