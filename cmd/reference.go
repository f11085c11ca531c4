package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LeeviJ/triolasku-sub000/internal/logger"
	"github.com/LeeviJ/triolasku-sub000/internal/reference"
)

var referenceCmd = &cobra.Command{
	Use:   "reference <invoice-number>",
	Short: "Print the Finnish reference number of an invoice number",
	Long: `Print the reference number (viitenumero) built from an invoice number:
the number padded to at least four digits followed by its 7-3-1 check digit.

With --check the argument is treated as a reference number and validated.`,
	Example: `  # Reference of invoice 1001
  lasku reference 1001

  # Validate a reference from a bank statement
  lasku reference --check "12 34561"`,
	Args: cobra.ExactArgs(1),
	RunE: runReference,
}

func init() {
	rootCmd.AddCommand(referenceCmd)

	referenceCmd.Flags().Bool("check", false, "Validate the argument as a reference number")
}

func runReference(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("reference")
	check, _ := cmd.Flags().GetBool("check")
	out := cmd.OutOrStdout()

	if check {
		valid := reference.Valid(args[0])
		log.Debug().Str("reference", args[0]).Bool("valid", valid).Msg("Reference checked")
		if !valid {
			return fmt.Errorf("%q is not a valid reference number", args[0])
		}
		fmt.Fprintf(out, "%s is valid\n", reference.Format(args[0]))
		return nil
	}

	ref := reference.FromInput(args[0])
	fmt.Fprintln(out, ref)
	fmt.Fprintln(out, reference.Format(ref))
	return nil
}
