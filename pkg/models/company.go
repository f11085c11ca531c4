package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Address is a postal address.
type Address struct {
	Street     string `json:"street"`
	PostalCode string `json:"postal_code"`
	City       string `json:"city"`
	Country    string `json:"country,omitempty"`
}

// BankAccount is one of a company's payment accounts.
type BankAccount struct {
	BankName string `json:"bank_name"`
	IBAN     string `json:"iban"`
	BIC      string `json:"bic"`
}

// Company is the seller, the legal entity that issues invoices.
type Company struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	BusinessID string `json:"business_id"` // Y-tunnus
	VatNumber  string `json:"vat_number"`
	Address
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`

	// BankAccounts is ordered; the first account is the payment default.
	BankAccounts []BankAccount `json:"bank_accounts"`

	// VatRates are the rates offered when entering rows (percent).
	VatRates []decimal.Decimal `json:"vat_rates"`

	// StartNumber is the lowest invoice number this company may be assigned.
	StartNumber int64 `json:"start_number"`

	DefaultPaymentTermDays int             `json:"default_payment_term_days"`
	DefaultLateInterest    decimal.Decimal `json:"default_late_interest"`

	// LastInvoiceNumber is the highest number ever assigned, kept so numbers
	// are not handed out again after the newest invoice is deleted.
	LastInvoiceNumber int64 `json:"last_invoice_number"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PrimaryIBAN returns the IBAN of the first bank account, or "".
func (c *Company) PrimaryIBAN() string {
	if c == nil || len(c.BankAccounts) == 0 {
		return ""
	}
	return c.BankAccounts[0].IBAN
}

// Customer is the buyer an invoice is addressed to.
type Customer struct {
	ID         string `json:"id"`
	CompanyID  string `json:"company_id"`
	Name       string `json:"name"`
	BusinessID string `json:"business_id,omitempty"`
	Address
	Email         string    `json:"email,omitempty"`
	ContactPerson string    `json:"contact_person,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CompanySnapshot is the seller as printed on an issued invoice.
type CompanySnapshot struct {
	Name       string `json:"name"`
	BusinessID string `json:"business_id"`
	VatNumber  string `json:"vat_number"`
	Address
	Email        string        `json:"email,omitempty"`
	Phone        string        `json:"phone,omitempty"`
	BankAccounts []BankAccount `json:"bank_accounts"`
}

// PrimaryIBAN returns the IBAN of the first bank account, or "".
func (s CompanySnapshot) PrimaryIBAN() string {
	if len(s.BankAccounts) == 0 {
		return ""
	}
	return s.BankAccounts[0].IBAN
}

// CustomerSnapshot is the buyer as printed on an issued invoice.
type CustomerSnapshot struct {
	Name       string `json:"name"`
	BusinessID string `json:"business_id,omitempty"`
	Address
	Email         string `json:"email,omitempty"`
	ContactPerson string `json:"contact_person,omitempty"`
}

// IssuanceSnapshot freezes the seller and buyer details when an invoice is
// first saved. It is never rebuilt from the live records afterwards, so the
// document stays reproducible after either is edited or deleted.
type IssuanceSnapshot struct {
	Company  CompanySnapshot  `json:"company"`
	Customer CustomerSnapshot `json:"customer"`
	TakenAt  time.Time        `json:"taken_at"`
}

// NewIssuanceSnapshot copies company and customer. customer may be nil for
// cash receipts without a named buyer.
func NewIssuanceSnapshot(company *Company, customer *Customer, at time.Time) *IssuanceSnapshot {
	s := &IssuanceSnapshot{TakenAt: at}
	if company != nil {
		s.Company = CompanySnapshot{
			Name:         company.Name,
			BusinessID:   company.BusinessID,
			VatNumber:    company.VatNumber,
			Address:      company.Address,
			Email:        company.Email,
			Phone:        company.Phone,
			BankAccounts: append([]BankAccount(nil), company.BankAccounts...),
		}
	}
	if customer != nil {
		s.Customer = CustomerSnapshot{
			Name:          customer.Name,
			BusinessID:    customer.BusinessID,
			Address:       customer.Address,
			Email:         customer.Email,
			ContactPerson: customer.ContactPerson,
		}
	}
	return s
}
