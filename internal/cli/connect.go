package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrz1836/shade/internal/output"
)

// connectCmd establishes a wallet session.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect to the wallet provider",
	Long: `Detect the wallet provider and request authorization for this
application. The wallet may prompt for approval; the command waits until the
user decides or the context is canceled.`,
	Example: `  shade connect`,
	RunE:    runConnect,
}

// statusCmd reports the session state.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show the wallet session status",
	Example: `  shade status
  shade status --refresh`,
	RunE: runStatus,
}

// disconnectCmd tears down the wallet session.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var disconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Disconnect the wallet session",
	Long: `End the wallet session locally. The wallet's own authorization is
not revoked; reconnecting may succeed without a new approval prompt.`,
	Example: `  shade disconnect`,
	RunE:    runDisconnect,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var statusRefresh bool

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	statusCmd.Flags().BoolVar(&statusRefresh, "refresh", false, "re-read wallet state from the provider first")

	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(disconnectCmd)
}

func runConnect(cmd *cobra.Command, _ []string) error {
	a, err := getApp()
	if err != nil {
		return err
	}

	snapshot, err := a.Sessions.Connect(cmd.Context())
	if err != nil {
		return err
	}

	return output.NewSessionView(a.Sessions.CurrentState(), snapshot).Render(formatter)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	a, err := getApp()
	if err != nil {
		return err
	}

	if _, err := a.Sessions.Initialize(cmd.Context()); err != nil {
		return err
	}

	if statusRefresh && a.Sessions.Connected() {
		if _, err := a.Sessions.RefreshState(cmd.Context()); err != nil {
			return err
		}
	}

	return output.NewSessionView(a.Sessions.CurrentState(), a.Sessions.Snapshot()).Render(formatter)
}

func runDisconnect(_ *cobra.Command, _ []string) error {
	a, err := getApp()
	if err != nil {
		return err
	}

	a.Sessions.Disconnect()
	return output.FormatSuccess(formatter.Writer(), "disconnected", formatter.Format())
}
