package cmd

import (
	"context"
	"fmt"

	"github.com/openpool/betledger/internal/ledger"
	"github.com/openpool/betledger/pkg/types"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var createBetCmd = &cobra.Command{
	Use:   "create-bet",
	Short: "Create a new bet",
	Long: `Creates a bet at the address derived from its title, along with its
vault custody account. The per-stake amount is fixed for every participant
and staking closes at the end time (inclusive).`,
	RunE: runCreateBet,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(createBetCmd)
	createBetCmd.Flags().String("actor", "", "Creator identity (hex)")
	createBetCmd.Flags().String("title", "", "Bet title (address seed, must be unique)")
	createBetCmd.Flags().Uint64("amount", 0, "Fixed per-stake amount in token units")
	createBetCmd.Flags().Int64("end-time", 0, "Staking deadline as unix seconds (inclusive)")
	createBetCmd.Flags().String("mint", "", "Settlement token mint identity (hex)")
	_ = createBetCmd.MarkFlagRequired("actor")
	_ = createBetCmd.MarkFlagRequired("title")
	_ = createBetCmd.MarkFlagRequired("amount")
	_ = createBetCmd.MarkFlagRequired("end-time")
	_ = createBetCmd.MarkFlagRequired("mint")
}

func runCreateBet(cmd *cobra.Command, args []string) error {
	actor, err := identityFlag(cmd, "actor")
	if err != nil {
		return err
	}
	mint, err := identityFlag(cmd, "mint")
	if err != nil {
		return err
	}
	title, _ := cmd.Flags().GetString("title")
	amount, _ := cmd.Flags().GetUint64("amount")
	endTime, _ := cmd.Flags().GetInt64("end-time")

	return withEngine(func(ctx context.Context, engine *ledger.Engine) error {
		bet, err := engine.CreateBet(ctx, actor, title, types.Amount(amount), endTime, mint)
		if err != nil {
			return err
		}

		fmt.Printf("Created bet %s\n", bet.Address.Hex())
		fmt.Printf("  title:      %s\n", bet.Title)
		fmt.Printf("  bet amount: %d\n", bet.BetAmount)
		fmt.Printf("  end time:   %d\n", bet.EndTime)
		fmt.Printf("  vault:      %s\n", bet.Vault.Hex())

		return nil
	})
}
