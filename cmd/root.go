package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/LeeviJ/triolasku-sub000/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "lasku",
	Short: "lasku - Finnish invoicing engine",
	Long: `lasku computes Finnish invoices: VAT totals per rate, invoice numbers,
reference numbers (viitenumero) and virtual barcodes (virtuaaliviivakoodi).

It runs as an HTTP API backed by memory or PostgreSQL, exports the invoice
register to Google Sheets and reconciles bank statements against open
invoices.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("lasku executed")

		fmt.Println("Welcome to lasku!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
