package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/shade/internal/chain"
	"github.com/mrz1836/shade/internal/contracts"
	"github.com/mrz1836/shade/internal/output"
	"github.com/mrz1836/shade/internal/simnet"
)

// simnetCmd runs a local simulated ledger node.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var simnetCmd = &cobra.Command{
	Use:   "simnet",
	Short: "Run a local simulated ledger node",
	Long: `Serve the simulated ledger over JSON-RPC. Useful for developing
against the contract families without a real network: point network.rpc at
the listen address and transactions settle after a couple of status polls.`,
	Example: `  shade simnet --listen 127.0.0.1:9944`,
	RunE:    runSimnet,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var simnetListen string

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	simnetCmd.Flags().StringVar(&simnetListen, "listen", "127.0.0.1:9944", "listen address for the JSON-RPC server")
	rootCmd.AddCommand(simnetCmd)
}

func runSimnet(cmd *cobra.Command, _ []string) error {
	network, _ := chain.ParseNetworkID(cfg.Network.ID)
	ledger := simnet.New(simnet.Config{
		Network: network,
		Addresses: contracts.Addresses{
			DataContribution: cfg.Contracts.DataContribution,
			Governance:       cfg.Contracts.Governance,
			Treasury:         cfg.Contracts.Treasury,
		},
	})

	server := &http.Server{
		Addr:              simnetListen,
		Handler:           simnet.NewServer(ledger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Shut down when the command context is canceled.
	go func() {
		<-cmd.Context().Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	output.Infof("simnet listening on %s (network %s)", simnetListen, network)
	logger.Debug("simnet serving on %s", simnetListen)

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
