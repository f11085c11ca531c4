package invoice

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/LeeviJ/triolasku-sub000/internal/amount"
	"github.com/LeeviJ/triolasku-sub000/internal/vat"
	"github.com/LeeviJ/triolasku-sub000/pkg/models"
)

// DateLayout is the ISO date format used for invoice and due dates.
const DateLayout = "2006-01-02"

// VatSubtotal is the net and VAT collected at one rate.
type VatSubtotal struct {
	Rate decimal.Decimal `json:"rate"`
	Net  decimal.Decimal `json:"net"`
	Vat  decimal.Decimal `json:"vat"`
}

// Totals are the invoice-level sums.
type Totals struct {
	TotalNet   decimal.Decimal        `json:"total_net"`
	TotalVat   decimal.Decimal        `json:"total_vat"`
	TotalGross decimal.Decimal        `json:"total_gross"`
	Breakdown  map[string]VatSubtotal `json:"vat_breakdown"`
}

// Lines returns the breakdown ordered by rate, highest first.
func (t Totals) Lines() []VatSubtotal {
	lines := make([]VatSubtotal, 0, len(t.Breakdown))
	for _, l := range t.Breakdown {
		lines = append(lines, l)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Rate.GreaterThan(lines[j].Rate) })
	return lines
}

// RowNet is quantity * price, unrounded.
func RowNet(r models.InvoiceRow) decimal.Decimal {
	return r.Quantity.Mul(r.PriceNet)
}

// ComputeTotals sums rows. Row VAT is rounded per row; the per-rate and
// invoice sums are rounded once more, and gross is net plus VAT.
func ComputeTotals(rows []models.InvoiceRow) Totals {
	var (
		net, tax decimal.Decimal
		byRate   = make(map[string]VatSubtotal)
	)
	for _, r := range rows {
		rowNet := RowNet(r)
		rowVat := vat.Amount(rowNet, r.VatRate)
		net = net.Add(rowNet)
		tax = tax.Add(rowVat)

		key := vat.Key(r.VatRate)
		sub := byRate[key]
		sub.Rate = r.VatRate
		sub.Net = sub.Net.Add(rowNet)
		sub.Vat = sub.Vat.Add(rowVat)
		byRate[key] = sub
	}

	for key, sub := range byRate {
		sub.Net = amount.Round2(sub.Net)
		sub.Vat = amount.Round2(sub.Vat)
		byRate[key] = sub
	}

	totalNet := amount.Round2(net)
	totalVat := amount.Round2(tax)
	return Totals{
		TotalNet:   totalNet,
		TotalVat:   totalVat,
		TotalGross: amount.Round2(totalNet.Add(totalVat)),
		Breakdown:  byRate,
	}
}

// ComputeInvoiceTotals is ComputeTotals with credit notes counted negative.
func ComputeInvoiceTotals(inv *models.Invoice) Totals {
	if !inv.IsCreditNote {
		return ComputeTotals(inv.Rows)
	}
	rows := make([]models.InvoiceRow, len(inv.Rows))
	for i, r := range inv.Rows {
		if r.Quantity.Mul(r.PriceNet).IsPositive() {
			r.Quantity = r.Quantity.Neg()
		}
		rows[i] = r
	}
	return ComputeTotals(rows)
}

// ApplyTotals recomputes and stores the totals on inv.
func ApplyTotals(inv *models.Invoice) Totals {
	t := ComputeInvoiceTotals(inv)
	inv.TotalNet = t.TotalNet
	inv.TotalVat = t.TotalVat
	inv.TotalGross = t.TotalGross
	return t
}

// DueDate adds termDays to an ISO invoice date. An unparseable date yields "".
func DueDate(invoiceDate string, termDays int) string {
	d, err := time.Parse(DateLayout, invoiceDate)
	if err != nil {
		return ""
	}
	return d.AddDate(0, 0, termDays).Format(DateLayout)
}

// IsOverdue reports whether an issued, unpaid invoice is past its due date
// on today. Invoices without a parseable due date are never overdue.
func IsOverdue(inv *models.Invoice, today time.Time) bool {
	if inv.Status != models.StatusSent && inv.Status != models.StatusReady {
		return false
	}
	due, err := time.Parse(DateLayout, inv.DueDate)
	if err != nil {
		return false
	}
	y, m, d := today.Date()
	return due.Before(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}
