package cmd

import (
	"context"
	"fmt"

	"github.com/openpool/betledger/internal/ledger"
	"github.com/openpool/betledger/pkg/types"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var mintCmd = &cobra.Command{
	Use:   "mint",
	Short: "Mint tokens to a recipient",
	Long: `Credits freshly minted tokens to a recipient's token account,
creating the account if needed. The acting identity must be the mint itself.`,
	RunE: runMint,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(mintCmd)
	mintCmd.Flags().String("mint", "", "Mint identity (hex, also the acting authority)")
	mintCmd.Flags().String("to", "", "Recipient identity (hex)")
	mintCmd.Flags().Uint64("amount", 0, "Amount in token units")
	_ = mintCmd.MarkFlagRequired("mint")
	_ = mintCmd.MarkFlagRequired("to")
	_ = mintCmd.MarkFlagRequired("amount")
}

func runMint(cmd *cobra.Command, args []string) error {
	mint, err := identityFlag(cmd, "mint")
	if err != nil {
		return err
	}
	to, err := identityFlag(cmd, "to")
	if err != nil {
		return err
	}
	amount, _ := cmd.Flags().GetUint64("amount")

	return withEngine(func(ctx context.Context, engine *ledger.Engine) error {
		balance, err := engine.MintTo(ctx, mint, mint, to, types.Amount(amount))
		if err != nil {
			return err
		}

		fmt.Printf("Minted %d to %s (balance now %d)\n", amount, to.Hex(), balance)

		return nil
	})
}
