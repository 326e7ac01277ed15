package cli

import (
	"math/big"

	"github.com/spf13/cobra"

	"github.com/mrz1836/shade/internal/output"
	shadeerr "github.com/mrz1836/shade/pkg/errors"
)

// treasuryCmd is the parent command for treasury operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var treasuryCmd = &cobra.Command{
	Use:   "treasury",
	Short: "Manage your treasury balance",
	Long: `The treasury holds claimed contribution rewards. Check your balance
or request a withdrawal.`,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var treasuryBalanceCmd = &cobra.Command{
	Use:     "balance",
	Short:   "Show your treasury balance",
	Example: `  shade treasury balance`,
	RunE:    runTreasuryBalance,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var treasuryWithdrawCmd = &cobra.Command{
	Use:     "withdraw",
	Short:   "Request a withdrawal from your treasury balance",
	Example: `  shade treasury withdraw --amount 500 --wait`,
	RunE:    runTreasuryWithdraw,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	treasuryWithdrawAmount string
	treasuryWithdrawWait   bool
)

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	treasuryWithdrawCmd.Flags().StringVar(&treasuryWithdrawAmount, "amount", "", "amount in smallest units (required)")
	treasuryWithdrawCmd.Flags().BoolVar(&treasuryWithdrawWait, "wait", false, "wait for the transaction to settle")
	_ = treasuryWithdrawCmd.MarkFlagRequired("amount")

	treasuryCmd.AddCommand(treasuryBalanceCmd)
	treasuryCmd.AddCommand(treasuryWithdrawCmd)
	rootCmd.AddCommand(treasuryCmd)
}

func runTreasuryBalance(cmd *cobra.Command, _ []string) error {
	a, err := getApp()
	if err != nil {
		return err
	}
	if err := ensureConnected(cmd.Context(), a); err != nil {
		return err
	}

	answer, err := a.Facade.GetMyBalance(cmd.Context())
	if err != nil {
		return err
	}
	return output.NewAnswerView("treasury balance", *answer).Render(formatter)
}

func runTreasuryWithdraw(cmd *cobra.Command, _ []string) error {
	amount, ok := new(big.Int).SetString(treasuryWithdrawAmount, 10)
	if !ok {
		return shadeerr.WithDetails(shadeerr.ErrInvalidParameters, map[string]string{
			"amount": treasuryWithdrawAmount,
			"reason": "must be a base-10 integer",
		})
	}

	a, err := getApp()
	if err != nil {
		return err
	}
	if err := ensureConnected(cmd.Context(), a); err != nil {
		return err
	}

	receipt, err := a.Facade.RequestWithdrawal(cmd.Context(), amount)
	if err != nil {
		return err
	}
	return finishTx(cmd.Context(), a, receipt, treasuryWithdrawWait)
}
