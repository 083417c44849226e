package cmd

import (
	"context"
	"fmt"

	"github.com/openpool/betledger/internal/ledger"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var stakeCmd = &cobra.Command{
	Use:   "stake",
	Short: "Stake on a bet",
	Long: `Transfers the bet's fixed stake from the bettor into the vault and
records the position. A bettor may stake at most once per bet.`,
	RunE: runStake,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(stakeCmd)
	stakeCmd.Flags().String("actor", "", "Bettor identity (hex)")
	stakeCmd.Flags().String("title", "", "Bet title")
	stakeCmd.Flags().Bool("yes", false, "Stake on the YES side (NO if omitted)")
	_ = stakeCmd.MarkFlagRequired("actor")
	_ = stakeCmd.MarkFlagRequired("title")
}

func runStake(cmd *cobra.Command, args []string) error {
	actor, err := identityFlag(cmd, "actor")
	if err != nil {
		return err
	}
	title, _ := cmd.Flags().GetString("title")
	direction, _ := cmd.Flags().GetBool("yes")

	return withEngine(func(ctx context.Context, engine *ledger.Engine) error {
		ub, err := engine.Stake(ctx, actor, ledger.DeriveBetAddress(title), direction)
		if err != nil {
			return err
		}

		side := "NO"
		if ub.Direction {
			side = "YES"
		}
		fmt.Printf("Staked %d on %s (user bet %s)\n", ub.Amount, side, ub.Address.Hex())

		return nil
	})
}
