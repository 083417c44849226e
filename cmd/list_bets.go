package cmd

import (
	"context"
	"fmt"

	"github.com/openpool/betledger/internal/ledger"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var listBetsCmd = &cobra.Command{
	Use:   "list-bets",
	Short: "List all bets",
	RunE:  runListBets,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(listBetsCmd)
}

func runListBets(cmd *cobra.Command, args []string) error {
	return withEngine(func(ctx context.Context, engine *ledger.Engine) error {
		bets, err := engine.Store().ListBets(ctx)
		if err != nil {
			return err
		}

		if len(bets) == 0 {
			fmt.Println("No bets found")
			return nil
		}

		for _, bet := range bets {
			status := "open"
			if bet.Resolved {
				status = "resolved NO"
				if bet.Outcome {
					status = "resolved YES"
				}
			}
			fmt.Printf("%s  %-30q  stake=%d  yes=%d(%d)  no=%d(%d)  end=%d  %s\n",
				bet.Address.Hex(), bet.Title, bet.BetAmount,
				bet.TotalYesAmount, bet.YesBettors,
				bet.TotalNoAmount, bet.NoBettors,
				bet.EndTime, status)
		}

		return nil
	})
}
