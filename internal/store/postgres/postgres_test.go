package postgres

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/LeeviJ/triolasku-sub000/internal/store"
	"github.com/LeeviJ/triolasku-sub000/pkg/models"
)

// openTestStore connects to TEST_DATABASE_URL and applies migrations. Tests
// are skipped when it is unset.
func openTestStore(t *testing.T) *Store {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	s, err := Open(ctx, url)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := Migrate(ctx, s.Pool()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return s
}

func createCompany(t *testing.T, s *Store, start int64) *models.Company {
	t.Helper()
	c := &models.Company{
		Name:                "Trio Oy",
		StartNumber:         start,
		BankAccounts:        []models.BankAccount{{BankName: "Nordea", IBAN: "FI2112345600000785"}},
		VatRates:            []decimal.Decimal{decimal.RequireFromString("25.5"), decimal.NewFromInt(14)},
		DefaultLateInterest: decimal.RequireFromString("8.5"),
	}
	if err := s.CreateCompany(context.Background(), c); err != nil {
		t.Fatalf("CreateCompany: %v", err)
	}
	t.Cleanup(func() { _ = s.DeleteCompany(context.Background(), c.ID) })
	return c
}

func TestCompanyRoundTrip(t *testing.T) {
	s := openTestStore(t)
	c := createCompany(t, s, 1001)

	got, err := s.GetCompany(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("GetCompany: %v", err)
	}
	if got.PrimaryIBAN() != "FI2112345600000785" {
		t.Errorf("PrimaryIBAN = %q", got.PrimaryIBAN())
	}
	if len(got.VatRates) != 2 || !got.VatRates[0].Equal(decimal.RequireFromString("25.5")) {
		t.Errorf("VatRates = %v", got.VatRates)
	}
	if !got.DefaultLateInterest.Equal(decimal.RequireFromString("8.5")) {
		t.Errorf("DefaultLateInterest = %s", got.DefaultLateInterest)
	}
}

func TestInvoiceRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	c := createCompany(t, s, 1)

	inv := &models.Invoice{
		CompanyID:     c.ID,
		InvoiceNumber: 7,
		InvoiceDate:   "2025-03-01",
		DueDate:       "2025-03-15",
		Status:        models.StatusDraft,
		PaymentMethod: models.PaymentInvoice,
		Rows: []models.InvoiceRow{{
			Description: "Konsultointi",
			Quantity:    decimal.NewFromInt(2),
			PriceNet:    decimal.NewFromInt(50),
			VatRate:     decimal.RequireFromString("25.5"),
		}},
		TotalNet:   decimal.NewFromInt(100),
		TotalVat:   decimal.RequireFromString("25.5"),
		TotalGross: decimal.RequireFromString("125.5"),
		Snapshot:   models.NewIssuanceSnapshot(c, nil, c.CreatedAt),
	}
	if err := s.SaveInvoice(ctx, inv); err != nil {
		t.Fatalf("SaveInvoice: %v", err)
	}
	t.Cleanup(func() { _ = s.DeleteInvoice(ctx, inv.ID) })

	got, err := s.GetInvoice(ctx, inv.ID)
	if err != nil {
		t.Fatalf("GetInvoice: %v", err)
	}
	if !got.TotalGross.Equal(inv.TotalGross) || len(got.Rows) != 1 {
		t.Errorf("GetInvoice = %+v", got)
	}
	if got.CustomerID != "" {
		t.Errorf("CustomerID = %q, want empty", got.CustomerID)
	}
	if got.Snapshot == nil || got.Snapshot.Company.PrimaryIBAN() != "FI2112345600000785" {
		t.Errorf("snapshot not persisted: %+v", got.Snapshot)
	}

	company, _ := s.GetCompany(ctx, c.ID)
	if company.LastInvoiceNumber != 7 {
		t.Errorf("LastInvoiceNumber = %d, want 7", company.LastInvoiceNumber)
	}
}

func TestReserveInvoiceNumberConcurrent(t *testing.T) {
	s := openTestStore(t)
	c := createCompany(t, s, 500)

	const workers = 20
	var (
		mu   sync.Mutex
		seen = map[int64]bool{}
		wg   sync.WaitGroup
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := s.ReserveInvoiceNumber(context.Background(), c.ID)
			if err != nil {
				t.Errorf("ReserveInvoiceNumber: %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if seen[n] {
				t.Errorf("number %d reserved twice", n)
			}
			seen[n] = true
		}()
	}
	wg.Wait()

	for n := int64(500); n < 500+workers; n++ {
		if !seen[n] {
			t.Errorf("number %d missing", n)
		}
	}
}

func TestNotFound(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if _, err := s.GetCompany(ctx, "not-a-uuid"); !errors.Is(err, store.ErrCompanyNotFound) {
		t.Errorf("GetCompany(bad id) = %v", err)
	}
	if _, err := s.GetInvoice(ctx, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, store.ErrInvoiceNotFound) {
		t.Errorf("GetInvoice(missing) = %v", err)
	}
	if _, err := s.ReserveInvoiceNumber(ctx, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, store.ErrCompanyNotFound) {
		t.Errorf("ReserveInvoiceNumber(missing) = %v", err)
	}
}
