// Package invoice computes invoice totals and manages the invoice lifecycle:
// preparing drafts, assigning numbers, freezing the issuance snapshot and
// producing the payment details (reference number and virtual barcode).
//
// The calculations in totals.go are pure and never fail. Service methods
// talk to a Store and return wrapped errors.
package invoice

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/LeeviJ/triolasku-sub000/internal/barcode"
	"github.com/LeeviJ/triolasku-sub000/internal/logger"
	"github.com/LeeviJ/triolasku-sub000/internal/numbering"
	"github.com/LeeviJ/triolasku-sub000/internal/reference"
	"github.com/LeeviJ/triolasku-sub000/internal/store"
	"github.com/LeeviJ/triolasku-sub000/pkg/models"
)

// Store is the persistence the invoice service needs.
type Store interface {
	numbering.Store
	GetCustomer(ctx context.Context, id string) (*models.Customer, error)
	SaveInvoice(ctx context.Context, inv *models.Invoice) error
	GetInvoice(ctx context.Context, id string) (*models.Invoice, error)
	UpdateInvoiceStatus(ctx context.Context, id string, status models.Status) error
	DeleteInvoice(ctx context.Context, id string) error
}

// Defaults apply when a company has no terms of its own.
type Defaults struct {
	PaymentTermDays int
	LateInterest    decimal.Decimal
}

// PaymentInfo is what the payer needs to pay an invoice by bank transfer.
type PaymentInfo struct {
	Reference          string          `json:"reference"`
	ReferenceFormatted string          `json:"reference_formatted"`
	IBAN               string          `json:"iban"`
	Barcode            string          `json:"barcode,omitempty"`
	Amount             decimal.Decimal `json:"amount"`
	DueDate            string          `json:"due_date"`
}

// Service manages invoices of every company in a Store.
type Service struct {
	store     Store
	numbers   *numbering.Allocator
	validator *TotalsValidation
	defaults  Defaults
	now       func() time.Time
	log       zerolog.Logger
}

// NewService creates an invoice service over s.
func NewService(s Store, defaults Defaults) *Service {
	return &Service{
		store:     s,
		numbers:   numbering.NewAllocator(s),
		validator: NewTotalsValidation(),
		defaults:  defaults,
		now:       time.Now,
		log:       logger.WithComponent("invoice"),
	}
}

func (s *Service) today() string {
	return s.now().Format(DateLayout)
}

func (s *Service) termsFor(company *models.Company) (int, decimal.Decimal) {
	days := company.DefaultPaymentTermDays
	if days <= 0 {
		days = s.defaults.PaymentTermDays
	}
	interest := company.DefaultLateInterest
	if interest.IsZero() {
		interest = s.defaults.LateInterest
	}
	return days, interest
}

// Prepare returns an unsaved draft for companyID with the suggested number,
// today's date and the company's payment terms. The number is advisory; Save
// assigns the final one.
func (s *Service) Prepare(ctx context.Context, companyID string) (*models.Invoice, error) {
	const op = "Prepare"

	company, err := s.store.GetCompany(ctx, companyID)
	if err != nil {
		return nil, WrapInvoiceError(op, err, "loading company")
	}
	n, err := s.numbers.Suggest(ctx, companyID)
	if err != nil {
		return nil, WrapInvoiceError(op, err, "suggesting number")
	}

	days, interest := s.termsFor(company)
	date := s.today()
	return &models.Invoice{
		CompanyID:       companyID,
		InvoiceNumber:   n,
		InvoiceDate:     date,
		DueDate:         DueDate(date, days),
		PaymentTermDays: days,
		LateInterest:    interest,
		Rows:            []models.InvoiceRow{},
		Status:          models.StatusDraft,
		PaymentMethod:   models.PaymentInvoice,
	}, nil
}

// Save validates, numbers, totals and persists inv, updating it in place.
//
// A new invoice gets its number from the allocator unless NumberOverridden is
// set with a positive number. An existing invoice keeps its number unless
// overridden. The issuance snapshot is taken from the live company and
// customer on the first save and carried over unchanged afterwards.
func (s *Service) Save(ctx context.Context, inv *models.Invoice) (*TotalsCheck, error) {
	const op = "Save"

	if inv.CompanyID == "" {
		return nil, NewInvoiceError(op, ErrMissingCompany, "")
	}
	if inv.Status == "" {
		inv.Status = models.StatusDraft
	}
	if !inv.Status.Valid() {
		return nil, NewInvoiceError(op, ErrInvalidStatus, string(inv.Status))
	}
	if inv.PaymentMethod == "" {
		inv.PaymentMethod = models.PaymentInvoice
	}

	company, err := s.store.GetCompany(ctx, inv.CompanyID)
	if err != nil {
		return nil, WrapInvoiceError(op, err, "loading company")
	}

	var existing *models.Invoice
	if inv.ID != "" {
		existing, err = s.store.GetInvoice(ctx, inv.ID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, WrapInvoiceError(op, err, "loading invoice")
		}
	}

	switch {
	case inv.NumberOverridden && inv.InvoiceNumber > 0:
	case existing != nil && existing.InvoiceNumber > 0:
		inv.InvoiceNumber = existing.InvoiceNumber
		inv.NumberOverridden = existing.NumberOverridden
	default:
		n, err := s.numbers.Assign(ctx, inv.CompanyID)
		if err != nil {
			return nil, WrapInvoiceError(op, err, "assigning number")
		}
		inv.InvoiceNumber = n
		inv.NumberOverridden = false
	}

	days, interest := s.termsFor(company)
	if inv.InvoiceDate == "" {
		inv.InvoiceDate = s.today()
	}
	if inv.PaymentTermDays <= 0 {
		inv.PaymentTermDays = days
	}
	if inv.LateInterest.IsZero() {
		inv.LateInterest = interest
	}
	if inv.DueDate == "" {
		inv.DueDate = DueDate(inv.InvoiceDate, inv.PaymentTermDays)
	}
	if inv.Rows == nil {
		inv.Rows = []models.InvoiceRow{}
	}

	if existing != nil && existing.Snapshot != nil {
		inv.Snapshot = existing.Snapshot
	} else {
		var customer *models.Customer
		if inv.CustomerID != "" {
			customer, err = s.store.GetCustomer(ctx, inv.CustomerID)
			if err != nil {
				return nil, WrapInvoiceError(op, err, "loading customer")
			}
		}
		inv.Snapshot = models.NewIssuanceSnapshot(company, customer, s.now().UTC())
	}

	// Totals sent with the invoice are checked against the rows before
	// they are replaced by the recomputed ones.
	var check *TotalsCheck
	if hasSubmittedTotals(inv) {
		check = s.validator.CheckTotals(inv, company)
		ApplyTotals(inv)
	} else {
		ApplyTotals(inv)
		check = s.validator.CheckTotals(inv, company)
	}

	if err := s.store.SaveInvoice(ctx, inv); err != nil {
		return nil, WrapInvoiceError(op, err, "persisting invoice")
	}

	s.log.Info().
		Str("invoice_id", inv.ID).
		Str("company_id", inv.CompanyID).
		Int64("invoice_number", inv.InvoiceNumber).
		Bool("number_overridden", inv.NumberOverridden).
		Str("total_gross", inv.TotalGross.String()).
		Str("status", string(inv.Status)).
		Msg("Invoice saved")

	return check, nil
}

func hasSubmittedTotals(inv *models.Invoice) bool {
	return !inv.TotalNet.IsZero() || !inv.TotalVat.IsZero() || !inv.TotalGross.IsZero()
}

// PaymentFor builds the payment details of inv. The snapshot IBAN is used
// when the invoice has one, company's primary account otherwise. Only
// invoices paid by bank transfer get a barcode.
func PaymentFor(inv *models.Invoice, company *models.Company) PaymentInfo {
	ref := reference.FromInvoiceNumber(inv.InvoiceNumber)
	iban := inv.PayeeIBAN(company)

	info := PaymentInfo{
		Reference:          ref,
		ReferenceFormatted: reference.Format(ref),
		IBAN:               iban,
		Amount:             inv.TotalGross,
		DueDate:            inv.DueDate,
	}
	if inv.PaymentMethod == "" || inv.PaymentMethod == models.PaymentInvoice {
		info.Barcode = barcode.Virtual(iban, inv.TotalGross, ref, inv.DueDate)
	}
	return info
}

// Payment returns the payment details of inv, loading the company only when
// the invoice has no snapshot.
func (s *Service) Payment(ctx context.Context, inv *models.Invoice) (*PaymentInfo, error) {
	const op = "Payment"

	var company *models.Company
	if inv.Snapshot == nil {
		c, err := s.store.GetCompany(ctx, inv.CompanyID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, WrapInvoiceError(op, err, "loading company")
		}
		company = c
	}

	info := PaymentFor(inv, company)
	return &info, nil
}

// Get loads an invoice.
func (s *Service) Get(ctx context.Context, id string) (*models.Invoice, error) {
	inv, err := s.store.GetInvoice(ctx, id)
	if err != nil {
		return nil, WrapInvoiceError("Get", err, "")
	}
	return inv, nil
}

// List returns the invoices of companyID, highest number first.
func (s *Service) List(ctx context.Context, companyID string) ([]models.Invoice, error) {
	invoices, err := s.store.ListInvoices(ctx, companyID)
	if err != nil {
		return nil, WrapInvoiceError("List", err, "")
	}
	return invoices, nil
}

// SuggestNumber returns the number the next invoice of companyID would get
// without reserving it.
func (s *Service) SuggestNumber(ctx context.Context, companyID string) (int64, error) {
	n, err := s.numbers.Suggest(ctx, companyID)
	if err != nil {
		return 0, WrapInvoiceError("SuggestNumber", err, "")
	}
	return n, nil
}

// SetStatus moves an invoice to status. Any transition between known
// statuses is allowed.
func (s *Service) SetStatus(ctx context.Context, id string, status models.Status) error {
	const op = "SetStatus"

	if !status.Valid() {
		return NewInvoiceError(op, ErrInvalidStatus, string(status))
	}
	if err := s.store.UpdateInvoiceStatus(ctx, id, status); err != nil {
		return WrapInvoiceError(op, err, "")
	}

	s.log.Info().
		Str("invoice_id", id).
		Str("status", string(status)).
		Msg("Invoice status changed")

	return nil
}

// Delete removes an invoice. Its number is not handed out again.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteInvoice(ctx, id); err != nil {
		return WrapInvoiceError("Delete", err, "")
	}
	s.log.Info().Str("invoice_id", id).Msg("Invoice deleted")
	return nil
}
