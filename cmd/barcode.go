package cmd

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/LeeviJ/triolasku-sub000/internal/barcode"
	"github.com/LeeviJ/triolasku-sub000/internal/logger"
)

var barcodeCmd = &cobra.Command{
	Use:   "barcode",
	Short: "Build or decode a Finnish virtual barcode",
	Long: `Build the 54-digit virtual barcode (virtuaaliviivakoodi, version 4) from an
IBAN, amount, reference number and due date, or decode one with --parse.

Missing or unusable values are zero-filled in the code rather than rejected.`,
	Example: `  # Build a barcode
  lasku barcode --iban FI2112345600000785 --amount 785,00 --reference 00013 --due-date 2025-03-15

  # Decode a barcode
  lasku barcode --parse 421123456000007850007850000000000000000000000013150325`,
	Args: cobra.NoArgs,
	RunE: runBarcode,
}

func init() {
	rootCmd.AddCommand(barcodeCmd)

	barcodeCmd.Flags().String("iban", "", "Payee IBAN (Finnish)")
	barcodeCmd.Flags().String("amount", "", "Amount in euros")
	barcodeCmd.Flags().String("reference", "", "Reference number")
	barcodeCmd.Flags().String("due-date", "", "Due date (format: YYYY-MM-DD)")
	barcodeCmd.Flags().String("parse", "", "Decode this barcode instead of building one")
}

func runBarcode(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("barcode")

	code, _ := cmd.Flags().GetString("parse")
	if code != "" {
		fields, err := barcode.Parse(code)
		if err != nil {
			return handleBarcodeError(err, log)
		}
		return printJSON(cmd.OutOrStdout(), fields)
	}

	iban, _ := cmd.Flags().GetString("iban")
	amountStr, _ := cmd.Flags().GetString("amount")
	ref, _ := cmd.Flags().GetString("reference")
	dueDate, _ := cmd.Flags().GetString("due-date")

	if iban == "" {
		log.Warn().Msg("No IBAN given, account field is zero-filled")
	}

	fmt.Fprintln(cmd.OutOrStdout(), barcode.FromInput(iban, amountStr, ref, dueDate))
	return nil
}

// handleBarcodeError provides user-friendly error messages for barcode failures
func handleBarcodeError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Barcode decoding failed")

	if errors.Is(err, barcode.ErrInvalidBarcode) {
		return fmt.Errorf("not a version 4 virtual barcode. Expected %d digits starting with 4: %w", barcode.Length, err)
	}
	return fmt.Errorf("barcode decoding failed: %w", err)
}
