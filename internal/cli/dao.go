package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	shadeerr "github.com/mrz1836/shade/pkg/errors"
)

// daoCmd is the parent command for governance operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var daoCmd = &cobra.Command{
	Use:   "dao",
	Short: "Participate in DAO governance",
	Long: `Join the DAO, create proposals, vote, and execute proposals whose
voting period has ended. Voting requires DAO membership.`,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var daoJoinCmd = &cobra.Command{
	Use:     "join",
	Short:   "Join the DAO",
	Example: `  shade dao join --wait`,
	RunE:    runDAOJoin,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var daoProposeCmd = &cobra.Command{
	Use:     "propose",
	Short:   "Create a governance proposal",
	Example: `  shade dao propose --title "Raise reward rate" --description "Double the per-point reward"`,
	RunE:    runDAOPropose,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var daoVoteCmd = &cobra.Command{
	Use:   "vote <proposal-id>",
	Short: "Vote on a proposal",
	Args:  cobra.ExactArgs(1),
	Example: `  shade dao vote 3 --support
  shade dao vote 3 --oppose --wait`,
	RunE: runDAOVote,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var daoExecuteCmd = &cobra.Command{
	Use:     "execute <proposal-id>",
	Short:   "Execute a proposal after its voting period ends",
	Args:    cobra.ExactArgs(1),
	Example: `  shade dao execute 3 --wait`,
	RunE:    runDAOExecute,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	daoJoinWait     bool
	daoProposeTitle string
	daoProposeDesc  string
	daoProposeWait  bool
	daoVoteSupport  bool
	daoVoteOppose   bool
	daoVoteWait     bool
	daoExecuteWait  bool
)

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	daoJoinCmd.Flags().BoolVar(&daoJoinWait, "wait", false, "wait for the transaction to settle")

	daoProposeCmd.Flags().StringVar(&daoProposeTitle, "title", "", "proposal title (required)")
	daoProposeCmd.Flags().StringVar(&daoProposeDesc, "description", "", "proposal description")
	daoProposeCmd.Flags().BoolVar(&daoProposeWait, "wait", false, "wait for the transaction to settle")
	_ = daoProposeCmd.MarkFlagRequired("title")

	daoVoteCmd.Flags().BoolVar(&daoVoteSupport, "support", false, "vote in favor")
	daoVoteCmd.Flags().BoolVar(&daoVoteOppose, "oppose", false, "vote against")
	daoVoteCmd.Flags().BoolVar(&daoVoteWait, "wait", false, "wait for the transaction to settle")
	daoVoteCmd.MarkFlagsMutuallyExclusive("support", "oppose")
	daoVoteCmd.MarkFlagsOneRequired("support", "oppose")

	daoExecuteCmd.Flags().BoolVar(&daoExecuteWait, "wait", false, "wait for the transaction to settle")

	daoCmd.AddCommand(daoJoinCmd)
	daoCmd.AddCommand(daoProposeCmd)
	daoCmd.AddCommand(daoVoteCmd)
	daoCmd.AddCommand(daoExecuteCmd)
	rootCmd.AddCommand(daoCmd)
}

func runDAOJoin(cmd *cobra.Command, _ []string) error {
	a, err := getApp()
	if err != nil {
		return err
	}
	if err := ensureConnected(cmd.Context(), a); err != nil {
		return err
	}

	receipt, err := a.Facade.JoinDAO(cmd.Context())
	if err != nil {
		return err
	}
	return finishTx(cmd.Context(), a, receipt, daoJoinWait)
}

func runDAOPropose(cmd *cobra.Command, _ []string) error {
	a, err := getApp()
	if err != nil {
		return err
	}
	if err := ensureConnected(cmd.Context(), a); err != nil {
		return err
	}

	receipt, err := a.Facade.CreateProposal(cmd.Context(), daoProposeTitle, daoProposeDesc)
	if err != nil {
		return err
	}
	return finishTx(cmd.Context(), a, receipt, daoProposeWait)
}

func runDAOVote(cmd *cobra.Command, args []string) error {
	proposalID, err := parseProposalID(args[0])
	if err != nil {
		return err
	}

	a, err := getApp()
	if err != nil {
		return err
	}
	if err := ensureConnected(cmd.Context(), a); err != nil {
		return err
	}

	receipt, err := a.Facade.Vote(cmd.Context(), proposalID, daoVoteSupport)
	if err != nil {
		return err
	}
	return finishTx(cmd.Context(), a, receipt, daoVoteWait)
}

func runDAOExecute(cmd *cobra.Command, args []string) error {
	proposalID, err := parseProposalID(args[0])
	if err != nil {
		return err
	}

	a, err := getApp()
	if err != nil {
		return err
	}
	if err := ensureConnected(cmd.Context(), a); err != nil {
		return err
	}

	receipt, err := a.Facade.ExecuteProposal(cmd.Context(), proposalID)
	if err != nil {
		return err
	}
	return finishTx(cmd.Context(), a, receipt, daoExecuteWait)
}

func parseProposalID(raw string) (uint64, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, shadeerr.WithDetails(shadeerr.ErrInvalidParameters, map[string]string{
			"proposal_id": raw,
			"reason":      "must be a non-negative integer",
		})
	}
	return id, nil
}
