package cmd

import (
	"context"
	"fmt"

	"github.com/openpool/betledger/internal/ledger"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var claimCmd = &cobra.Command{
	Use:   "claim",
	Short: "Claim winnings from a resolved bet",
	Long: `Pays the caller their pro-rata share of the entire pool if they
staked on the winning side. A position can be claimed exactly once.`,
	RunE: runClaim,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(claimCmd)
	claimCmd.Flags().String("actor", "", "Winner identity (hex)")
	claimCmd.Flags().String("title", "", "Bet title")
	_ = claimCmd.MarkFlagRequired("actor")
	_ = claimCmd.MarkFlagRequired("title")
}

func runClaim(cmd *cobra.Command, args []string) error {
	actor, err := identityFlag(cmd, "actor")
	if err != nil {
		return err
	}
	title, _ := cmd.Flags().GetString("title")

	return withEngine(func(ctx context.Context, engine *ledger.Engine) error {
		payout, err := engine.Claim(ctx, actor, ledger.DeriveBetAddress(title))
		if err != nil {
			return err
		}

		fmt.Printf("Claimed %d tokens\n", payout)

		return nil
	})
}
