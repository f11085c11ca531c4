package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/LeeviJ/triolasku-sub000/internal/invoice"
	"github.com/LeeviJ/triolasku-sub000/internal/logger"
	"github.com/LeeviJ/triolasku-sub000/pkg/models"
)

var computeCmd = &cobra.Command{
	Use:   "compute [invoice.json]",
	Short: "Compute totals, reference number and barcode of an invoice",
	Long: `Read an invoice as JSON and print its totals per VAT rate, the reference
number and the virtual barcode.

Numeric fields may be numbers or strings, with either "." or "," as the
decimal separator. Values that cannot be read count as zero. Use "-" to read
the invoice from standard input.

The invoice does not need to exist in any store. An IBAN in the invoice's
snapshot takes precedence over --iban.`,
	Example: `  # Compute an invoice
  lasku compute invoice.json --iban FI2112345600000785

  # Read from stdin
  cat invoice.json | lasku compute - --iban FI2112345600000785`,
	Args: cobra.ExactArgs(1),
	RunE: runCompute,
}

// ComputeOutput is the JSON printed by the compute command.
type ComputeOutput struct {
	InvoiceNumber int64                 `json:"invoice_number"`
	Totals        invoice.Totals        `json:"totals"`
	VatLines      []invoice.VatSubtotal `json:"vat_lines"`
	Payment       invoice.PaymentInfo   `json:"payment"`
}

func init() {
	rootCmd.AddCommand(computeCmd)

	computeCmd.Flags().String("iban", "", "Payee IBAN for the barcode")
	computeCmd.Flags().Int("term-days", 0, "Payment term in days when the invoice has no due date (default: DEFAULT_PAYMENT_TERM_DAYS)")
}

func runCompute(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("compute")

	iban, _ := cmd.Flags().GetString("iban")
	termDays, _ := cmd.Flags().GetInt("term-days")

	inv, err := readInvoiceFile(args[0], log)
	if err != nil {
		return err
	}

	if termDays <= 0 {
		if cfg, err := loadConfig(); err == nil {
			termDays = cfg.DefaultPaymentTermDays
		}
	}
	if inv.PaymentTermDays <= 0 {
		inv.PaymentTermDays = termDays
	}
	if inv.DueDate == "" {
		inv.DueDate = invoice.DueDate(inv.InvoiceDate, inv.PaymentTermDays)
	}

	totals := invoice.ApplyTotals(inv)
	company := &models.Company{}
	if iban != "" {
		company.BankAccounts = []models.BankAccount{{IBAN: iban}}
	}
	pay := invoice.PaymentFor(inv, company)

	log.Info().
		Int64("invoice_number", inv.InvoiceNumber).
		Int("rows", len(inv.Rows)).
		Str("total_gross", totals.TotalGross.String()).
		Msg("Invoice computed")

	if pay.IBAN == "" && pay.Barcode != "" {
		log.Warn().Msg("No IBAN given, barcode account field is zero-filled")
	}

	return printJSON(cmd.OutOrStdout(), ComputeOutput{
		InvoiceNumber: inv.InvoiceNumber,
		Totals:        totals,
		VatLines:      totals.Lines(),
		Payment:       pay,
	})
}

func readInvoiceFile(path string, log zerolog.Logger) (*models.Invoice, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		log.Error().Err(err).Str("file", path).Msg("Failed to read invoice file")
		return nil, fmt.Errorf("failed to read invoice file: %w", err)
	}

	var inv models.Invoice
	if err := json.Unmarshal(data, &inv); err != nil {
		log.Error().Err(err).Str("file", path).Msg("Invoice file is not valid JSON")
		return nil, fmt.Errorf("invoice file is not valid JSON: %w", err)
	}
	return &inv, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
