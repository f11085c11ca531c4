// Package memory is an in-process Store guarded by a single mutex. It backs
// the CLI and tests and serializes number reservation the same way the
// Postgres store does with a row update.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/LeeviJ/triolasku-sub000/internal/numbering"
	"github.com/LeeviJ/triolasku-sub000/internal/store"
	"github.com/LeeviJ/triolasku-sub000/pkg/models"
)

// Store keeps everything in maps.
type Store struct {
	mu        sync.Mutex
	companies map[string]*models.Company
	customers map[string]*models.Customer
	invoices  map[string]*models.Invoice
	now       func() time.Time
}

var _ store.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		companies: make(map[string]*models.Company),
		customers: make(map[string]*models.Customer),
		invoices:  make(map[string]*models.Invoice),
		now:       time.Now,
	}
}

func (s *Store) CreateCompany(_ context.Context, c *models.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := s.now()
	c.CreatedAt, c.UpdatedAt = now, now
	s.companies[c.ID] = copyCompany(c)
	return nil
}

func (s *Store) UpdateCompany(_ context.Context, c *models.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.companies[c.ID]
	if !ok {
		return store.ErrCompanyNotFound
	}
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = s.now()
	// The high-water mark only moves forward.
	if existing.LastInvoiceNumber > c.LastInvoiceNumber {
		c.LastInvoiceNumber = existing.LastInvoiceNumber
	}
	s.companies[c.ID] = copyCompany(c)
	return nil
}

func (s *Store) GetCompany(_ context.Context, id string) (*models.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.companies[id]
	if !ok {
		return nil, store.ErrCompanyNotFound
	}
	return copyCompany(c), nil
}

func (s *Store) ListCompanies(_ context.Context) ([]models.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Company, 0, len(s.companies))
	for _, c := range s.companies {
		out = append(out, *copyCompany(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) DeleteCompany(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.companies[id]; !ok {
		return store.ErrCompanyNotFound
	}
	delete(s.companies, id)
	for cid, cust := range s.customers {
		if cust.CompanyID == id {
			delete(s.customers, cid)
		}
	}
	return nil
}

func (s *Store) CreateCustomer(_ context.Context, c *models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.companies[c.CompanyID]; !ok {
		return store.ErrCompanyNotFound
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := s.now()
	c.CreatedAt, c.UpdatedAt = now, now
	cp := *c
	s.customers[c.ID] = &cp
	return nil
}

func (s *Store) UpdateCustomer(_ context.Context, c *models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.customers[c.ID]
	if !ok {
		return store.ErrCustomerNotFound
	}
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = s.now()
	cp := *c
	s.customers[c.ID] = &cp
	return nil
}

func (s *Store) GetCustomer(_ context.Context, id string) (*models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.customers[id]
	if !ok {
		return nil, store.ErrCustomerNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Store) ListCustomers(_ context.Context, companyID string) ([]models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.Customer{}
	for _, c := range s.customers {
		if c.CompanyID == companyID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) DeleteCustomer(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.customers[id]; !ok {
		return store.ErrCustomerNotFound
	}
	delete(s.customers, id)
	return nil
}

func (s *Store) SaveInvoice(_ context.Context, inv *models.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	company, ok := s.companies[inv.CompanyID]
	if !ok {
		return store.ErrCompanyNotFound
	}

	now := s.now()
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	if existing, ok := s.invoices[inv.ID]; ok {
		inv.CreatedAt = existing.CreatedAt
	} else {
		inv.CreatedAt = now
	}
	inv.UpdatedAt = now

	if inv.InvoiceNumber > company.LastInvoiceNumber {
		company.LastInvoiceNumber = inv.InvoiceNumber
	}
	s.invoices[inv.ID] = copyInvoice(inv)
	return nil
}

func (s *Store) GetInvoice(_ context.Context, id string) (*models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoices[id]
	if !ok {
		return nil, store.ErrInvoiceNotFound
	}
	return copyInvoice(inv), nil
}

func (s *Store) ListInvoices(_ context.Context, companyID string) ([]models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.filterInvoices(func(inv *models.Invoice) bool { return inv.CompanyID == companyID }), nil
}

func (s *Store) ListInvoicesByStatus(_ context.Context, status models.Status) ([]models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.filterInvoices(func(inv *models.Invoice) bool { return inv.Status == status }), nil
}

func (s *Store) filterInvoices(keep func(*models.Invoice) bool) []models.Invoice {
	out := []models.Invoice{}
	for _, inv := range s.invoices {
		if keep(inv) {
			out = append(out, *copyInvoice(inv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InvoiceNumber > out[j].InvoiceNumber })
	return out
}

func (s *Store) UpdateInvoiceStatus(_ context.Context, id string, status models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoices[id]
	if !ok {
		return store.ErrInvoiceNotFound
	}
	inv.Status = status
	inv.UpdatedAt = s.now()
	return nil
}

func (s *Store) DeleteInvoice(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.invoices[id]; !ok {
		return store.ErrInvoiceNotFound
	}
	delete(s.invoices, id)
	return nil
}

func (s *Store) ReserveInvoiceNumber(_ context.Context, companyID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	company, ok := s.companies[companyID]
	if !ok {
		return 0, store.ErrCompanyNotFound
	}

	invoices := make([]models.Invoice, 0, len(s.invoices))
	for _, inv := range s.invoices {
		invoices = append(invoices, *inv)
	}

	n := numbering.NextForCompany(*company, invoices)
	company.LastInvoiceNumber = n
	return n, nil
}

func (s *Store) Close() error { return nil }

func copyCompany(c *models.Company) *models.Company {
	cp := *c
	cp.BankAccounts = append([]models.BankAccount(nil), c.BankAccounts...)
	cp.VatRates = append([]decimal.Decimal(nil), c.VatRates...)
	return &cp
}

func copyInvoice(inv *models.Invoice) *models.Invoice {
	cp := *inv
	cp.Rows = append([]models.InvoiceRow(nil), inv.Rows...)
	if inv.Snapshot != nil {
		snap := *inv.Snapshot
		snap.Company.BankAccounts = append([]models.BankAccount(nil), inv.Snapshot.Company.BankAccounts...)
		cp.Snapshot = &snap
	}
	return &cp
}
