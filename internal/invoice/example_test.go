package invoice_test

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/LeeviJ/triolasku-sub000/internal/amount"
	"github.com/LeeviJ/triolasku-sub000/internal/invoice"
	"github.com/LeeviJ/triolasku-sub000/pkg/models"
)

// ExampleComputeTotals sums an invoice with two VAT rates.
func ExampleComputeTotals() {
	rows := []models.InvoiceRow{
		{Description: "Konsultointi", Quantity: decimal.NewFromInt(2), PriceNet: decimal.NewFromInt(50), VatRate: decimal.RequireFromString("25.5")},
		{Description: "Kirja", Quantity: decimal.NewFromInt(1), PriceNet: decimal.NewFromInt(100), VatRate: decimal.NewFromInt(10)},
	}

	totals := invoice.ComputeTotals(rows)
	for _, line := range totals.Lines() {
		fmt.Printf("ALV %s %%: net %s, vat %s\n", amount.Display(line.Rate), amount.Display(line.Net), amount.Display(line.Vat))
	}
	fmt.Printf("Total: %s + %s = %s EUR\n",
		amount.Display(totals.TotalNet), amount.Display(totals.TotalVat), amount.Display(totals.TotalGross))

	// Output:
	// ALV 25,5 %: net 100, vat 25,5
	// ALV 10 %: net 100, vat 10
	// Total: 200 + 35,5 = 235,5 EUR
}

// ExamplePaymentFor derives the reference and barcode for invoice 1.
func ExamplePaymentFor() {
	inv := &models.Invoice{
		InvoiceNumber: 1,
		TotalGross:    decimal.RequireFromString("785"),
		DueDate:       "2025-03-15",
	}
	company := &models.Company{BankAccounts: []models.BankAccount{{IBAN: "FI21 1234 5600 0007 85"}}}

	pay := invoice.PaymentFor(inv, company)
	fmt.Println(pay.Reference)
	fmt.Println(pay.Barcode)

	// Output:
	// 00013
	// 421123456000007850007850000000000000000000000013150325
}
