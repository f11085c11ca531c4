package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/LeeviJ/triolasku-sub000/internal/logger"
	"github.com/LeeviJ/triolasku-sub000/internal/sheets"
	"github.com/LeeviJ/triolasku-sub000/pkg/models"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a company's invoice register to Google Sheets",
	Long: `Append a company's invoices to the register worksheet of a Google Sheet:
number, dates, customer, totals, reference number, barcode and status.
The worksheet and its header row are created when missing.

Required environment variables:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string
  GOOGLE_SHEET_URL - Google Sheets URL
  STORE_DRIVER, DATABASE_URL - store holding the invoices`,
	Example: `  # Export to the default "Laskut" worksheet
  lasku export --company 7b0c...

  # Only sent invoices, to another worksheet
  lasku export --company 7b0c... --status sent --worksheet Avoimet`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().String("company", "", "Company ID (required)")
	exportCmd.Flags().String("worksheet", "", "Worksheet name (default: GOOGLE_SHEET_WORKSHEET)")
	exportCmd.Flags().String("status", "", "Only export invoices with this status")
	exportCmd.Flags().Int("timeout", 120, "Timeout in seconds")
	_ = exportCmd.MarkFlagRequired("company")
}

func runExport(cmd *cobra.Command, args []string) error {
	companyID, _ := cmd.Flags().GetString("company")
	worksheet, _ := cmd.Flags().GetString("worksheet")
	statusStr, _ := cmd.Flags().GetString("status")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	log := logger.WithCompany("export", companyID)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.GoogleSheetURL == "" {
		return fmt.Errorf("GOOGLE_SHEET_URL environment variable is required")
	}
	if worksheet == "" {
		worksheet = cfg.GoogleSheetWorksheet
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)
	defer cancel()

	s, err := openStore(ctx, cfg, false, log)
	if err != nil {
		return err
	}
	defer s.Close()

	company, err := s.GetCompany(ctx, companyID)
	if err != nil {
		return handleStoreError(err, log)
	}

	invoices, err := newInvoiceService(s, cfg).List(ctx, companyID)
	if err != nil {
		return handleStoreError(err, log)
	}
	if statusStr != "" {
		invoices, err = filterByStatus(invoices, statusStr)
		if err != nil {
			return err
		}
	}

	log.Info().
		Str("company", company.Name).
		Int("invoices", len(invoices)).
		Str("worksheet", worksheet).
		Msg("Exporting invoice register")

	sheetsService, err := sheets.NewSheetsService(ctx, cfg.GoogleSheetURL)
	if err != nil {
		return fmt.Errorf("failed to initialize Google Sheets service: %w", err)
	}

	if err := sheetsService.WriteRegister(ctx, worksheet, invoices, company); err != nil {
		return fmt.Errorf("failed to write invoice register: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "exported %d invoices to %s\n", len(invoices), worksheet)
	return nil
}

func filterByStatus(invoices []models.Invoice, statusStr string) ([]models.Invoice, error) {
	status, err := models.ParseStatus(statusStr)
	if err != nil {
		return nil, err
	}
	out := make([]models.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if inv.Status == status {
			out = append(out, inv)
		}
	}
	return out, nil
}
