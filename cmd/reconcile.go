package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/LeeviJ/triolasku-sub000/internal/amount"
	"github.com/LeeviJ/triolasku-sub000/internal/logger"
	"github.com/LeeviJ/triolasku-sub000/internal/reconciliation"
	"github.com/LeeviJ/triolasku-sub000/internal/sheets"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile bank transactions with open invoices",
	Long: `Reconcile the incoming payments of a bank statement with a company's open
invoices by reference number.

Bank transactions are read from the bank worksheet of the Google Sheet
(columns: Kirjauspäivä, Maksaja/Saaja, Viite, Viesti, Tilinumero, Määrä).
A transaction matches the invoice whose reference equals its Viite, or a
reference found in its message. With --apply, invoices whose amount also
matches are marked paid.

Required environment variables:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string
  GOOGLE_SHEET_URL - Google Sheets URL containing the bank worksheet
  STORE_DRIVER, DATABASE_URL - store holding the invoices`,
	Example: `  # Report only
  lasku reconcile --company 7b0c...

  # Transactions up to a cutoff date, marking matches paid
  lasku reconcile --company 7b0c... --cutoff-date 2025-06-30 --apply`,
	Args: cobra.NoArgs,
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().String("company", "", "Company ID (required)")
	reconcileCmd.Flags().String("cutoff-date", "", "Ignore transactions after this date (format: YYYY-MM-DD, default: today)")
	reconcileCmd.Flags().String("sheet", "", "Bank worksheet name (default: BANK_SHEET)")
	reconcileCmd.Flags().Bool("apply", false, "Mark exactly matched invoices paid")
	reconcileCmd.Flags().Int("timeout", 120, "Timeout in seconds")
	_ = reconcileCmd.MarkFlagRequired("company")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	// Get flags
	companyID, _ := cmd.Flags().GetString("company")
	cutoffDateStr, _ := cmd.Flags().GetString("cutoff-date")
	sheetName, _ := cmd.Flags().GetString("sheet")
	apply, _ := cmd.Flags().GetBool("apply")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	log := logger.WithCompany("reconcile", companyID)

	// Parse cutoff date
	var cutoffDate time.Time
	if cutoffDateStr == "" {
		cutoffDate = time.Now()
	} else {
		parsedDate, err := time.Parse("2006-01-02", cutoffDateStr)
		if err != nil {
			return fmt.Errorf("invalid cutoff date format. Use YYYY-MM-DD: %w", err)
		}
		cutoffDate = parsedDate
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.GoogleSheetURL == "" {
		return fmt.Errorf("GOOGLE_SHEET_URL environment variable is required")
	}
	if sheetName == "" {
		sheetName = cfg.BankSheet
	}

	log.Info().
		Str("company_id", companyID).
		Str("cutoff_date", cutoffDate.Format("2006-01-02")).
		Str("sheet", sheetName).
		Bool("apply", apply).
		Msg("Starting bank reconciliation")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)
	defer cancel()

	s, err := openStore(ctx, cfg, false, log)
	if err != nil {
		return err
	}
	defer s.Close()

	if _, err := s.GetCompany(ctx, companyID); err != nil {
		return handleStoreError(err, log)
	}

	sheetsService, err := sheets.NewSheetsService(ctx, cfg.GoogleSheetURL)
	if err != nil {
		return fmt.Errorf("failed to initialize Google Sheets service: %w", err)
	}

	transactions, err := reconciliation.NewDataReader(sheetsService).ReadBankTransactions(ctx, sheetName)
	if err != nil {
		return fmt.Errorf("failed to read bank transactions: %w", err)
	}

	invoices := newInvoiceService(s, cfg)
	result, err := reconciliation.NewReconciler(invoices, invoices).Reconcile(ctx, companyID, transactions, cutoffDate, apply)
	if err != nil {
		return handleStoreError(err, log)
	}

	printReconciliation(cmd.OutOrStdout(), result, apply)

	log.Info().Msg("Bank reconciliation completed successfully")
	return nil
}

// printReconciliation writes a plain-text report of result
func printReconciliation(w io.Writer, result *reconciliation.ReconciliationResult, applied bool) {
	fmt.Fprintf(w, "Transactions: %d, matched: %d, unmatched: %d, unpaid invoices: %d\n",
		result.TotalTransactions, result.MatchedCount, len(result.UnmatchedTransactions), len(result.UnpaidInvoices))

	if len(result.Matches) > 0 {
		fmt.Fprintln(w, "\nMatches:")
	}
	for _, m := range result.Matches {
		note := ""
		if m.Kind == reconciliation.MatchAmountDiffers {
			note = fmt.Sprintf(" (expected %s)", amount.Display(m.Invoice.TotalGross))
		}
		if m.FromMessage {
			note += " [reference from message]"
		}
		fmt.Fprintf(w, "  row %d  %s  %s EUR  -> invoice %d%s\n",
			m.Transaction.Row, m.Transaction.Date.Format("2.1.2006"),
			amount.Display(m.Transaction.Amount), m.Invoice.InvoiceNumber, note)
	}

	if len(result.UnmatchedTransactions) > 0 {
		fmt.Fprintln(w, "\nUnmatched incoming transactions:")
	}
	for _, tx := range result.UnmatchedTransactions {
		fmt.Fprintf(w, "  row %d  %s  %s EUR  %s  ref %q\n",
			tx.Row, tx.Date.Format("2.1.2006"), amount.Display(tx.Amount), tx.CounterParty, tx.Reference)
	}

	if len(result.UnpaidInvoices) > 0 {
		fmt.Fprintln(w, "\nStill unpaid:")
	}
	for _, inv := range result.UnpaidInvoices {
		fmt.Fprintf(w, "  invoice %d  due %s  %s EUR\n", inv.InvoiceNumber, inv.DueDate, amount.Display(inv.TotalGross))
	}

	if applied {
		fmt.Fprintf(w, "\nMarked paid: %d\n", result.MarkedPaid)
	}
}
