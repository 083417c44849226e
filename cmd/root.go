package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "betledger",
	Short: "Peer-to-pool binary prediction-market ledger",
	Long: `betledger is the accounting core of a peer-to-pool binary prediction
market: users lock tokens behind a YES/NO proposition, the creator resolves
the outcome after the deadline, and winners claim a pro-rata share of the
entire pool.

The serve command runs the HTTP operation surface; the remaining commands
drive lifecycle operations directly against the configured store.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
