package invoice

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/LeeviJ/triolasku-sub000/internal/amount"
	"github.com/LeeviJ/triolasku-sub000/internal/logger"
	"github.com/LeeviJ/triolasku-sub000/internal/vat"
	"github.com/LeeviJ/triolasku-sub000/pkg/models"
)

// Tolerance is the largest difference between stored and recomputed totals
// that is not reported.
var Tolerance = decimal.New(1, -2)

// TotalsValidation compares stored invoice totals against the rows.
type TotalsValidation struct {
	log zerolog.Logger
}

// NewTotalsValidation creates a new totals validation service
func NewTotalsValidation() *TotalsValidation {
	return &TotalsValidation{
		log: logger.WithComponent("totals-validation"),
	}
}

// TotalsCheck is the outcome of CheckTotals. It never blocks saving.
type TotalsCheck struct {
	Computed       Totals
	Warnings       []string
	HasDiscrepancy bool
}

// CheckTotals recomputes inv's totals and warns where the stored ones differ
// by more than Tolerance, where net plus VAT does not give gross, and where a
// row uses a rate the company has not configured. company may be nil.
func (tv *TotalsValidation) CheckTotals(inv *models.Invoice, company *models.Company) *TotalsCheck {
	result := &TotalsCheck{
		Computed: ComputeInvoiceTotals(inv),
		Warnings: []string{},
	}

	tv.compare(result, "net", inv.TotalNet, result.Computed.TotalNet)
	tv.compare(result, "vat", inv.TotalVat, result.Computed.TotalVat)
	tv.compare(result, "gross", inv.TotalGross, result.Computed.TotalGross)

	sum := inv.TotalNet.Add(inv.TotalVat)
	if diff := sum.Sub(inv.TotalGross).Abs(); diff.GreaterThan(Tolerance) {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"Amount calculation error: Net(%s) + VAT(%s) = %s, but Gross=%s (difference: %s)",
			amount.Display(inv.TotalNet), amount.Display(inv.TotalVat), amount.Display(sum),
			amount.Display(inv.TotalGross), amount.Display(diff)))
		result.HasDiscrepancy = true
	}

	if company != nil && len(company.VatRates) > 0 {
		reported := map[string]bool{}
		for _, r := range inv.Rows {
			key := vat.Key(r.VatRate)
			if reported[key] || vat.IsConfigured(r.VatRate, company.VatRates) {
				continue
			}
			reported[key] = true
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("VAT rate %s %% is not configured for %s", amount.Display(r.VatRate), company.Name))
		}
	}

	if len(result.Warnings) > 0 {
		tv.log.Warn().
			Str("invoice_id", inv.ID).
			Int64("invoice_number", inv.InvoiceNumber).
			Strs("warnings", result.Warnings).
			Msg("Invoice totals check reported warnings")
	}

	return result
}

func (tv *TotalsValidation) compare(result *TotalsCheck, name string, stored, computed decimal.Decimal) {
	diff := stored.Sub(computed).Abs()
	if diff.LessThanOrEqual(Tolerance) {
		return
	}
	result.Warnings = append(result.Warnings, fmt.Sprintf(
		"%s total discrepancy: stored=%s, computed=%s", name, amount.Display(stored), amount.Display(computed)))
	result.HasDiscrepancy = true

	tv.log.Debug().
		Str("type", name).
		Str("stored", stored.String()).
		Str("computed", computed.String()).
		Msg("Stored total differs from rows")
}
