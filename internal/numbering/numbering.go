// Package numbering assigns sequential invoice numbers per company.
//
// The sequence of a company is independent of every other company. The next
// number is one past the highest number the company has used, but never
// below the company's configured start number. Gaps left by deleted
// invoices are not refilled.
package numbering

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/LeeviJ/triolasku-sub000/internal/logger"
	"github.com/LeeviJ/triolasku-sub000/pkg/models"
)

// Next returns the number that follows existing for a company whose
// sequence starts at start: start when existing is empty, otherwise
// max(max(existing)+1, start). A start below one is treated as one.
func Next(start int64, existing []int64) int64 {
	if start < 1 {
		start = 1
	}
	if len(existing) == 0 {
		return start
	}
	highest := existing[0]
	for _, n := range existing[1:] {
		if n > highest {
			highest = n
		}
	}
	if highest+1 > start {
		return highest + 1
	}
	return start
}

// NumbersFor returns the invoice numbers of companyID's invoices.
func NumbersFor(companyID string, invoices []models.Invoice) []int64 {
	var numbers []int64
	for i := range invoices {
		if invoices[i].CompanyID == companyID {
			numbers = append(numbers, invoices[i].InvoiceNumber)
		}
	}
	return numbers
}

// NextForCompany is Next over the invoices of company only. The company's
// recorded high-water mark also counts as used, so a number freed by a
// deletion is not handed out again.
func NextForCompany(company models.Company, invoices []models.Invoice) int64 {
	used := NumbersFor(company.ID, invoices)
	if company.LastInvoiceNumber > 0 {
		used = append(used, company.LastInvoiceNumber)
	}
	return Next(company.StartNumber, used)
}

// Store is the persistence the allocator needs.
type Store interface {
	// GetCompany returns the company or an error wrapping a not-found
	// sentinel.
	GetCompany(ctx context.Context, id string) (*models.Company, error)

	// ListInvoices returns the invoices of a company.
	ListInvoices(ctx context.Context, companyID string) ([]models.Invoice, error)

	// ReserveInvoiceNumber atomically computes NextForCompany against the
	// stored state, records it as the company's high-water mark and returns
	// it. Two concurrent calls for the same company never return the same
	// number.
	ReserveInvoiceNumber(ctx context.Context, companyID string) (int64, error)
}

// Allocator hands out invoice numbers.
//
// Suggest is for prefilling a form and does not reserve anything; two
// suggestions may collide. Assign is the authoritative call made when the
// invoice is saved.
type Allocator struct {
	store Store
	log   zerolog.Logger
}

// NewAllocator creates an allocator over store.
func NewAllocator(store Store) *Allocator {
	return &Allocator{
		store: store,
		log:   logger.WithComponent("numbering"),
	}
}

// Suggest returns the number the next invoice of companyID would get.
func (a *Allocator) Suggest(ctx context.Context, companyID string) (int64, error) {
	const op = "Suggest"

	company, err := a.store.GetCompany(ctx, companyID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	invoices, err := a.store.ListInvoices(ctx, companyID)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to list invoices: %w", op, err)
	}

	n := NextForCompany(*company, invoices)

	a.log.Debug().
		Str("company_id", companyID).
		Int64("suggested", n).
		Int("existing", len(invoices)).
		Msg("Suggested invoice number")

	return n, nil
}

// Assign reserves and returns the next number of companyID.
func (a *Allocator) Assign(ctx context.Context, companyID string) (int64, error) {
	const op = "Assign"

	n, err := a.store.ReserveInvoiceNumber(ctx, companyID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	a.log.Info().
		Str("company_id", companyID).
		Int64("invoice_number", n).
		Msg("Assigned invoice number")

	return n, nil
}
