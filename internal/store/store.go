// Package store defines the persistence contract for companies, customers
// and invoices. Implementations live in the memory and postgres
// subpackages.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/LeeviJ/triolasku-sub000/pkg/models"
)

// ErrNotFound is wrapped by every lookup miss.
var ErrNotFound = errors.New("not found")

var (
	ErrCompanyNotFound  = fmt.Errorf("company %w", ErrNotFound)
	ErrCustomerNotFound = fmt.Errorf("customer %w", ErrNotFound)
	ErrInvoiceNotFound  = fmt.Errorf("invoice %w", ErrNotFound)
)

// Store persists the invoicing data model.
//
// Invoice numbers are not required to be unique: a hand-entered number may
// duplicate an existing one. ReserveInvoiceNumber is the only place numbers
// are generated and it must be atomic per company.
type Store interface {
	CreateCompany(ctx context.Context, c *models.Company) error
	UpdateCompany(ctx context.Context, c *models.Company) error
	GetCompany(ctx context.Context, id string) (*models.Company, error)
	ListCompanies(ctx context.Context) ([]models.Company, error)
	// DeleteCompany removes the company and its customers. Its invoices are
	// kept; they carry their own issuance snapshot.
	DeleteCompany(ctx context.Context, id string) error

	CreateCustomer(ctx context.Context, c *models.Customer) error
	UpdateCustomer(ctx context.Context, c *models.Customer) error
	GetCustomer(ctx context.Context, id string) (*models.Customer, error)
	ListCustomers(ctx context.Context, companyID string) ([]models.Customer, error)
	DeleteCustomer(ctx context.Context, id string) error

	// SaveInvoice inserts or replaces the invoice by ID and raises the
	// company's high-water mark to the invoice number if it is higher.
	SaveInvoice(ctx context.Context, inv *models.Invoice) error
	GetInvoice(ctx context.Context, id string) (*models.Invoice, error)
	// ListInvoices returns a company's invoices, highest number first.
	ListInvoices(ctx context.Context, companyID string) ([]models.Invoice, error)
	// ListInvoicesByStatus returns invoices of every company in status.
	ListInvoicesByStatus(ctx context.Context, status models.Status) ([]models.Invoice, error)
	UpdateInvoiceStatus(ctx context.Context, id string, status models.Status) error
	DeleteInvoice(ctx context.Context, id string) error

	// ReserveInvoiceNumber atomically computes the next number of the
	// company (see numbering.NextForCompany), stores it as the company's
	// high-water mark and returns it.
	ReserveInvoiceNumber(ctx context.Context, companyID string) (int64, error)

	Close() error
}
