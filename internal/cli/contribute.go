package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/shade/internal/output"
	shadeerr "github.com/mrz1836/shade/pkg/errors"
)

// contributeCmd submits a data contribution.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var contributeCmd = &cobra.Command{
	Use:   "contribute",
	Short: "Contribute a data record and earn rewards",
	Long: `Submit a data contribution to the data contribution contract. The
data itself never leaves your machine; only its hash and a quality score are
recorded on chain. Rewards accrue per quality point.`,
	Example: `  shade contribute --data-hash 0x6b86b273ff34... --quality 85
  shade contribute --data-hash 0x6b86b273ff34... --quality 85 --wait`,
	RunE: runContribute,
}

// contributionsCmd reports the caller's contribution count.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var contributionsCmd = &cobra.Command{
	Use:     "contributions",
	Short:   "Show how many contributions you have made",
	Example: `  shade contributions`,
	RunE:    runContributions,
}

// rewardsCmd is the parent command for reward operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var rewardsCmd = &cobra.Command{
	Use:   "rewards",
	Short: "Show or claim contribution rewards",
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var rewardsShowCmd = &cobra.Command{
	Use:     "show",
	Short:   "Show pending contribution rewards",
	Example: `  shade rewards show`,
	RunE:    runRewardsShow,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var rewardsClaimCmd = &cobra.Command{
	Use:   "claim",
	Short: "Claim pending rewards into the treasury",
	Long: `Move all pending contribution rewards into your treasury balance.
Claimed rewards can later be withdrawn with "shade treasury withdraw".`,
	Example: `  shade rewards claim --wait`,
	RunE:    runRewardsClaim,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	contributeDataHash string
	contributeQuality  int
	contributeWait     bool
	rewardsClaimWait   bool
)

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	contributeCmd.Flags().StringVar(&contributeDataHash, "data-hash", "", "hash of the contributed data (required)")
	contributeCmd.Flags().IntVar(&contributeQuality, "quality", 0, "quality score, 0-100 (required)")
	contributeCmd.Flags().BoolVar(&contributeWait, "wait", false, "wait for the transaction to settle")
	_ = contributeCmd.MarkFlagRequired("data-hash")
	_ = contributeCmd.MarkFlagRequired("quality")

	rewardsClaimCmd.Flags().BoolVar(&rewardsClaimWait, "wait", false, "wait for the transaction to settle")

	rewardsCmd.AddCommand(rewardsShowCmd)
	rewardsCmd.AddCommand(rewardsClaimCmd)

	rootCmd.AddCommand(contributeCmd)
	rootCmd.AddCommand(contributionsCmd)
	rootCmd.AddCommand(rewardsCmd)
}

func runContribute(cmd *cobra.Command, _ []string) error {
	a, err := getApp()
	if err != nil {
		return err
	}
	if err := ensureConnected(cmd.Context(), a); err != nil {
		return err
	}

	receipt, err := a.Facade.ContributeData(cmd.Context(), contributeDataHash, contributeQuality, time.Now())
	if err != nil {
		return err
	}
	return finishTx(cmd.Context(), a, receipt, contributeWait)
}

func runContributions(cmd *cobra.Command, _ []string) error {
	a, err := getApp()
	if err != nil {
		return err
	}
	if err := ensureConnected(cmd.Context(), a); err != nil {
		return err
	}

	answer, err := a.Facade.GetMyContributions(cmd.Context())
	if err != nil {
		return err
	}
	return output.NewAnswerView("contributions", *answer).Render(formatter)
}

func runRewardsShow(cmd *cobra.Command, _ []string) error {
	a, err := getApp()
	if err != nil {
		return err
	}
	if err := ensureConnected(cmd.Context(), a); err != nil {
		return err
	}

	answer, err := a.Facade.GetMyRewards(cmd.Context())
	if err != nil {
		return err
	}
	return output.NewAnswerView("rewards", *answer).Render(formatter)
}

func runRewardsClaim(cmd *cobra.Command, _ []string) error {
	a, err := getApp()
	if err != nil {
		return err
	}
	if err := ensureConnected(cmd.Context(), a); err != nil {
		return err
	}

	receipt, err := a.Facade.ClaimRewards(cmd.Context())
	if err != nil {
		return shadeerr.Wrap(err, "claiming rewards")
	}
	return finishTx(cmd.Context(), a, receipt, rewardsClaimWait)
}
