package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/LeeviJ/triolasku-sub000/internal/amount"
)

// Status is the lifecycle state of an invoice.
type Status string

const (
	StatusDraft   Status = "draft"
	StatusReady   Status = "ready"
	StatusSent    Status = "sent"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusReady, StatusSent, StatusPaid, StatusOverdue:
		return true
	}
	return false
}

// ParseStatus accepts any casing and surrounding whitespace.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown invoice status %q (must be draft, ready, sent, paid or overdue)", s)
	}
	return st, nil
}

// PaymentMethod tells how the invoice is settled. Only PaymentInvoice is
// paid by bank transfer and carries a reference and barcode.
type PaymentMethod string

const (
	PaymentInvoice PaymentMethod = "invoice"
	PaymentCash    PaymentMethod = "cash"
	PaymentCard    PaymentMethod = "card"
)

// InvoiceRow is one line item. Net, VAT and gross of the row are derived:
// net = quantity * price, VAT = net * rate / 100.
type InvoiceRow struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	PriceNet    decimal.Decimal `json:"price_net"`
	VatRate     decimal.Decimal `json:"vat_rate"`
}

// UnmarshalJSON decodes numeric fields leniently: numbers, numeric strings
// ("12,5" included), null and garbage all decode, the latter two as zero.
func (r *InvoiceRow) UnmarshalJSON(b []byte) error {
	var aux struct {
		Description string      `json:"description"`
		Quantity    amount.Flex `json:"quantity"`
		Unit        string      `json:"unit"`
		PriceNet    amount.Flex `json:"price_net"`
		VatRate     amount.Flex `json:"vat_rate"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*r = InvoiceRow{
		Description: aux.Description,
		Quantity:    aux.Quantity.Decimal,
		Unit:        aux.Unit,
		PriceNet:    aux.PriceNet.Decimal,
		VatRate:     aux.VatRate.Decimal,
	}
	return nil
}

// Invoice is an invoice or credit note issued by a company. InvoiceNumber is
// unique within the company's invoices only.
type Invoice struct {
	ID         string `json:"id"`
	CompanyID  string `json:"company_id"`
	CustomerID string `json:"customer_id"`

	InvoiceNumber int64 `json:"invoice_number"`
	// NumberOverridden marks a number typed in by hand. Such numbers are kept
	// as is on save instead of being reassigned.
	NumberOverridden bool `json:"number_overridden,omitempty"`

	InvoiceDate     string          `json:"invoice_date"` // YYYY-MM-DD
	DueDate         string          `json:"due_date"`     // YYYY-MM-DD
	PaymentTermDays int             `json:"payment_term_days"`
	LateInterest    decimal.Decimal `json:"late_interest"` // percent per year

	Rows []InvoiceRow `json:"rows"`

	Status        Status        `json:"status"`
	PaymentMethod PaymentMethod `json:"payment_method"`

	IsCreditNote      bool   `json:"is_credit_note"`
	CreditedInvoiceID string `json:"credited_invoice_id,omitempty"`

	TotalNet   decimal.Decimal `json:"total_net"`
	TotalVat   decimal.Decimal `json:"total_vat"`
	TotalGross decimal.Decimal `json:"total_gross"`

	Snapshot *IssuanceSnapshot `json:"snapshot,omitempty"`

	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UnmarshalJSON decodes invoice number, payment term and late interest
// leniently, like InvoiceRow.
func (inv *Invoice) UnmarshalJSON(b []byte) error {
	type plain Invoice
	aux := struct {
		*plain
		InvoiceNumber   amount.Flex `json:"invoice_number"`
		PaymentTermDays amount.Flex `json:"payment_term_days"`
		LateInterest    amount.Flex `json:"late_interest"`
		TotalNet        amount.Flex `json:"total_net"`
		TotalVat        amount.Flex `json:"total_vat"`
		TotalGross      amount.Flex `json:"total_gross"`
	}{plain: (*plain)(inv)}

	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	inv.InvoiceNumber = aux.InvoiceNumber.IntPart()
	inv.PaymentTermDays = int(aux.PaymentTermDays.IntPart())
	inv.LateInterest = aux.LateInterest.Decimal
	inv.TotalNet = aux.TotalNet.Decimal
	inv.TotalVat = aux.TotalVat.Decimal
	inv.TotalGross = aux.TotalGross.Decimal
	return nil
}

// PayeeIBAN is the IBAN the invoice is paid to: the issuance snapshot's when
// one exists, otherwise the company's current primary account.
func (inv *Invoice) PayeeIBAN(company *Company) string {
	if inv.Snapshot != nil {
		return inv.Snapshot.Company.PrimaryIBAN()
	}
	if company != nil {
		return company.PrimaryIBAN()
	}
	return ""
}
