package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/LeeviJ/triolasku-sub000/internal/logger"
	"github.com/LeeviJ/triolasku-sub000/internal/numbering"
)

var nextNumberCmd = &cobra.Command{
	Use:   "next-number",
	Short: "Suggest the next invoice number",
	Long: `Suggest the next invoice number of a company: one above the highest number
it has used, but never below its start number.

With --company the company is looked up in the store configured by
STORE_DRIVER. Without it the number is computed from --start and --existing.
Nothing is reserved; the number is assigned when the invoice is saved.`,
	Example: `  # From a list of existing numbers
  lasku next-number --start 1000 --existing 1000,1001,1005

  # From the database
  STORE_DRIVER=postgres lasku next-number --company 7b0c...`,
	Args: cobra.NoArgs,
	RunE: runNextNumber,
}

func init() {
	rootCmd.AddCommand(nextNumberCmd)

	nextNumberCmd.Flags().String("company", "", "Company ID to look up in the store")
	nextNumberCmd.Flags().Int64("start", 1, "Start number of the company")
	nextNumberCmd.Flags().String("existing", "", "Comma-separated invoice numbers already in use")
}

func runNextNumber(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("next-number")

	companyID, _ := cmd.Flags().GetString("company")
	if companyID == "" {
		start, _ := cmd.Flags().GetInt64("start")
		existingStr, _ := cmd.Flags().GetString("existing")

		existing, err := parseNumberList(existingStr)
		if err != nil {
			return err
		}
		n := numbering.Next(start, existing)
		log.Debug().Int64("start", start).Int("existing", len(existing)).Int64("next", n).Msg("Next number computed")
		fmt.Fprintln(cmd.OutOrStdout(), n)
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	s, err := openStore(ctx, cfg, false, log)
	if err != nil {
		return err
	}
	defer s.Close()

	n, err := numbering.NewAllocator(s).Suggest(ctx, companyID)
	if err != nil {
		return handleStoreError(err, log)
	}

	log.Info().Str("company_id", companyID).Int64("next", n).Msg("Next number suggested")
	fmt.Fprintln(cmd.OutOrStdout(), n)
	return nil
}

func parseNumberList(s string) ([]int64, error) {
	var out []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid invoice number %q in --existing", part)
		}
		out = append(out, n)
	}
	return out, nil
}
