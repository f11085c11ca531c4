package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/LeeviJ/triolasku-sub000/internal/store"
	"github.com/LeeviJ/triolasku-sub000/pkg/models"
)

func seed(t *testing.T) (*Store, *models.Company, *models.Customer) {
	t.Helper()
	ctx := context.Background()
	s := New()

	company := &models.Company{
		Name:         "Trio Oy",
		StartNumber:  1001,
		BankAccounts: []models.BankAccount{{IBAN: "FI2112345600000785"}},
		VatRates:     []decimal.Decimal{decimal.RequireFromString("25.5")},
	}
	if err := s.CreateCompany(ctx, company); err != nil {
		t.Fatalf("CreateCompany: %v", err)
	}
	customer := &models.Customer{CompanyID: company.ID, Name: "Asiakas Ab"}
	if err := s.CreateCustomer(ctx, customer); err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	return s, company, customer
}

func TestCompanyCopiesAreIsolated(t *testing.T) {
	s, company, _ := seed(t)

	company.BankAccounts[0].IBAN = "changed"
	got, err := s.GetCompany(context.Background(), company.ID)
	if err != nil {
		t.Fatalf("GetCompany: %v", err)
	}
	if got.PrimaryIBAN() != "FI2112345600000785" {
		t.Errorf("stored IBAN mutated through caller: %q", got.PrimaryIBAN())
	}
}

func TestCreateCustomerUnknownCompany(t *testing.T) {
	s := New()
	err := s.CreateCustomer(context.Background(), &models.Customer{CompanyID: "nope", Name: "x"})
	if !errors.Is(err, store.ErrCompanyNotFound) {
		t.Errorf("err = %v, want ErrCompanyNotFound", err)
	}
}

func TestDeleteCompanyKeepsInvoices(t *testing.T) {
	ctx := context.Background()
	s, company, customer := seed(t)

	inv := &models.Invoice{CompanyID: company.ID, CustomerID: customer.ID, InvoiceNumber: 1001}
	if err := s.SaveInvoice(ctx, inv); err != nil {
		t.Fatalf("SaveInvoice: %v", err)
	}
	if err := s.DeleteCompany(ctx, company.ID); err != nil {
		t.Fatalf("DeleteCompany: %v", err)
	}

	if _, err := s.GetCustomer(ctx, customer.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("customer should be deleted with company, got %v", err)
	}
	if _, err := s.GetInvoice(ctx, inv.ID); err != nil {
		t.Errorf("invoice should survive company deletion: %v", err)
	}
}

func TestSaveInvoiceRaisesHighWaterMark(t *testing.T) {
	ctx := context.Background()
	s, company, _ := seed(t)

	if err := s.SaveInvoice(ctx, &models.Invoice{CompanyID: company.ID, InvoiceNumber: 5000}); err != nil {
		t.Fatalf("SaveInvoice: %v", err)
	}
	got, _ := s.GetCompany(ctx, company.ID)
	if got.LastInvoiceNumber != 5000 {
		t.Errorf("LastInvoiceNumber = %d, want 5000", got.LastInvoiceNumber)
	}

	// Updating the company with a stale value must not lower it.
	company.LastInvoiceNumber = 0
	if err := s.UpdateCompany(ctx, company); err != nil {
		t.Fatalf("UpdateCompany: %v", err)
	}
	got, _ = s.GetCompany(ctx, company.ID)
	if got.LastInvoiceNumber != 5000 {
		t.Errorf("LastInvoiceNumber after update = %d, want 5000", got.LastInvoiceNumber)
	}

	n, err := s.ReserveInvoiceNumber(ctx, company.ID)
	if err != nil || n != 5001 {
		t.Errorf("ReserveInvoiceNumber = %d, %v; want 5001", n, err)
	}
}

func TestListInvoicesOrder(t *testing.T) {
	ctx := context.Background()
	s, company, _ := seed(t)

	for _, n := range []int64{1002, 1001, 1003} {
		if err := s.SaveInvoice(ctx, &models.Invoice{CompanyID: company.ID, InvoiceNumber: n, Status: models.StatusDraft}); err != nil {
			t.Fatalf("SaveInvoice: %v", err)
		}
	}

	list, err := s.ListInvoices(ctx, company.ID)
	if err != nil {
		t.Fatalf("ListInvoices: %v", err)
	}
	if len(list) != 3 || list[0].InvoiceNumber != 1003 || list[2].InvoiceNumber != 1001 {
		t.Errorf("unexpected order: %+v", list)
	}

	if err := s.UpdateInvoiceStatus(ctx, list[0].ID, models.StatusSent); err != nil {
		t.Fatalf("UpdateInvoiceStatus: %v", err)
	}
	sent, _ := s.ListInvoicesByStatus(ctx, models.StatusSent)
	if len(sent) != 1 || sent[0].InvoiceNumber != 1003 {
		t.Errorf("ListInvoicesByStatus(sent) = %+v", sent)
	}

	empty, _ := s.ListInvoices(ctx, "other")
	if empty == nil || len(empty) != 0 {
		t.Errorf("ListInvoices(other) = %#v, want empty slice", empty)
	}
}

func TestNotFoundErrors(t *testing.T) {
	ctx := context.Background()
	s := New()

	checks := []struct {
		name string
		err  error
		want error
	}{
		{"UpdateCompany", s.UpdateCompany(ctx, &models.Company{ID: "x"}), store.ErrCompanyNotFound},
		{"DeleteCompany", s.DeleteCompany(ctx, "x"), store.ErrCompanyNotFound},
		{"UpdateCustomer", s.UpdateCustomer(ctx, &models.Customer{ID: "x"}), store.ErrCustomerNotFound},
		{"DeleteCustomer", s.DeleteCustomer(ctx, "x"), store.ErrCustomerNotFound},
		{"SaveInvoice", s.SaveInvoice(ctx, &models.Invoice{CompanyID: "x"}), store.ErrCompanyNotFound},
		{"UpdateInvoiceStatus", s.UpdateInvoiceStatus(ctx, "x", models.StatusPaid), store.ErrInvoiceNotFound},
		{"DeleteInvoice", s.DeleteInvoice(ctx, "x"), store.ErrInvoiceNotFound},
	}
	for _, c := range checks {
		if !errors.Is(c.err, c.want) {
			t.Errorf("%s: err = %v, want %v", c.name, c.err, c.want)
		}
		if !errors.Is(c.err, store.ErrNotFound) {
			t.Errorf("%s: err does not wrap ErrNotFound", c.name)
		}
	}
}
