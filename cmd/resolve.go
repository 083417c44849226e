package cmd

import (
	"context"
	"fmt"

	"github.com/openpool/betledger/internal/ledger"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve a bet's outcome",
	Long: `Fixes the bet's outcome. Only the bet's creator may resolve, only
once the deadline has passed, and the outcome never changes afterwards.`,
	RunE: runResolve,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().String("actor", "", "Creator identity (hex)")
	resolveCmd.Flags().String("title", "", "Bet title")
	resolveCmd.Flags().Bool("yes", false, "Resolve in favor of the YES side (NO if omitted)")
	_ = resolveCmd.MarkFlagRequired("actor")
	_ = resolveCmd.MarkFlagRequired("title")
}

func runResolve(cmd *cobra.Command, args []string) error {
	actor, err := identityFlag(cmd, "actor")
	if err != nil {
		return err
	}
	title, _ := cmd.Flags().GetString("title")
	outcome, _ := cmd.Flags().GetBool("yes")

	return withEngine(func(ctx context.Context, engine *ledger.Engine) error {
		bet, err := engine.Resolve(ctx, actor, ledger.DeriveBetAddress(title), outcome)
		if err != nil {
			return err
		}

		side := "NO"
		if bet.Outcome {
			side = "YES"
		}
		fmt.Printf("Resolved %q in favor of %s\n", bet.Title, side)
		fmt.Printf("  winning pool: %d of %d+%d\n", bet.WinningPool(), bet.TotalYesAmount, bet.TotalNoAmount)

		return nil
	})
}
