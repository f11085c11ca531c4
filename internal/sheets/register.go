package sheets

import (
	"context"
	"fmt"
	"time"

	"github.com/LeeviJ/triolasku-sub000/internal/invoice"
	"github.com/LeeviJ/triolasku-sub000/pkg/models"
)

// RegisterLayout is the column layout of the invoice register sheet.
var RegisterLayout = Layout{
	Headers: []interface{}{
		"Laskunro", "Päiväys", "Eräpäivä", "Asiakas", "Y-tunnus", "Veroton",
		"ALV", "Yhteensä", "Viite", "IBAN", "Virtuaaliviivakoodi", "Tila", "Hyvityslasku",
	},
	AmountColumns: []int64{5, 6, 7},
}

// RegisterRow converts an invoice to one register row. Dates are written in
// Finnish format, amounts as numbers.
func RegisterRow(inv *models.Invoice, pay invoice.PaymentInfo) []interface{} {
	var customer, businessID string
	if inv.Snapshot != nil {
		customer = inv.Snapshot.Customer.Name
		businessID = inv.Snapshot.Customer.BusinessID
	}
	creditNote := ""
	if inv.IsCreditNote {
		creditNote = "x"
	}

	return []interface{}{
		inv.InvoiceNumber,               // A: Laskunro
		finnishDate(inv.InvoiceDate),    // B: Päiväys
		finnishDate(inv.DueDate),        // C: Eräpäivä
		customer,                        // D: Asiakas
		businessID,                      // E: Y-tunnus
		inv.TotalNet.InexactFloat64(),   // F: Veroton
		inv.TotalVat.InexactFloat64(),   // G: ALV
		inv.TotalGross.InexactFloat64(), // H: Yhteensä
		"'" + pay.ReferenceFormatted,    // I: Viite
		pay.IBAN,                        // J: IBAN
		"'" + pay.Barcode,               // K: Virtuaaliviivakoodi
		string(inv.Status),              // L: Tila
		creditNote,                      // M: Hyvityslasku
	}
}

// WriteRegister appends the invoices to the register sheet, lowest number
// first.
func (s *Service) WriteRegister(ctx context.Context, sheetName string, invoices []models.Invoice, company *models.Company) error {
	const op = "WriteRegister"

	s.log.Info().
		Str("sheet", sheetName).
		Int("invoices", len(invoices)).
		Msg("Writing invoice register to Google Sheet")

	values := make([][]interface{}, 0, len(invoices))
	for i := len(invoices) - 1; i >= 0; i-- {
		inv := &invoices[i]
		values = append(values, RegisterRow(inv, invoice.PaymentFor(inv, company)))
	}

	if err := s.AppendRows(ctx, sheetName, RegisterLayout, values); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func finnishDate(iso string) string {
	t, err := time.Parse(invoice.DateLayout, iso)
	if err != nil {
		return iso
	}
	return t.Format("2.1.2006")
}
