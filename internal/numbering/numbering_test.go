package numbering_test

import (
	"context"
	"sync"
	"testing"

	"github.com/LeeviJ/triolasku-sub000/internal/numbering"
	"github.com/LeeviJ/triolasku-sub000/internal/store/memory"
	"github.com/LeeviJ/triolasku-sub000/pkg/models"
)

func TestNext(t *testing.T) {
	tests := []struct {
		name     string
		start    int64
		existing []int64
		want     int64
	}{
		{"empty uses start", 1001, nil, 1001},
		{"max plus one", 1, []int64{5, 3, 7}, 8},
		{"start raised above existing", 500, []int64{5, 3, 7}, 500},
		{"start equal to max", 7, []int64{5, 7}, 8},
		{"gaps are not refilled", 1, []int64{1, 2, 10}, 11},
		{"zero start treated as one", 0, nil, 1},
		{"negative start treated as one", -4, nil, 1},
		{"duplicates", 1, []int64{4, 4, 4}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := numbering.Next(tt.start, tt.existing); got != tt.want {
				t.Errorf("Next(%d, %v) = %d, want %d", tt.start, tt.existing, got, tt.want)
			}
		})
	}
}

func TestNextMonotonic(t *testing.T) {
	for start := int64(1); start <= 50; start += 7 {
		existing := []int64{}
		for n := start; n < start+40; n += 3 {
			existing = append(existing, n)
			next := numbering.Next(start, existing)
			if next <= n {
				t.Fatalf("Next(%d, %v) = %d, not above %d", start, existing, next, n)
			}
		}
	}
}

func TestNextForCompanyIgnoresOtherCompanies(t *testing.T) {
	invoices := []models.Invoice{
		{CompanyID: "a", InvoiceNumber: 3},
		{CompanyID: "b", InvoiceNumber: 900},
		{CompanyID: "a", InvoiceNumber: 4},
	}

	got := numbering.NextForCompany(models.Company{ID: "a", StartNumber: 1}, invoices)
	if got != 5 {
		t.Errorf("NextForCompany(a) = %d, want 5", got)
	}

	got = numbering.NextForCompany(models.Company{ID: "c", StartNumber: 100}, invoices)
	if got != 100 {
		t.Errorf("NextForCompany(c) = %d, want 100", got)
	}
}

func TestNextForCompanyHonoursHighWaterMark(t *testing.T) {
	company := models.Company{ID: "a", StartNumber: 1, LastInvoiceNumber: 12}
	invoices := []models.Invoice{{CompanyID: "a", InvoiceNumber: 3}}

	if got := numbering.NextForCompany(company, invoices); got != 13 {
		t.Errorf("NextForCompany = %d, want 13", got)
	}
}

func newCompany(t *testing.T, s *memory.Store, start int64) string {
	t.Helper()
	c := &models.Company{Name: "Trio Oy", StartNumber: start}
	if err := s.CreateCompany(context.Background(), c); err != nil {
		t.Fatalf("CreateCompany: %v", err)
	}
	return c.ID
}

func TestAllocatorSuggestDoesNotReserve(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	id := newCompany(t, s, 1001)
	a := numbering.NewAllocator(s)

	for i := 0; i < 3; i++ {
		n, err := a.Suggest(ctx, id)
		if err != nil {
			t.Fatalf("Suggest: %v", err)
		}
		if n != 1001 {
			t.Fatalf("Suggest = %d, want 1001", n)
		}
	}

	n, err := a.Assign(ctx, id)
	if err != nil || n != 1001 {
		t.Fatalf("Assign = %d, %v; want 1001", n, err)
	}
	n, err = a.Assign(ctx, id)
	if err != nil || n != 1002 {
		t.Fatalf("second Assign = %d, %v; want 1002", n, err)
	}
}

func TestAllocatorNeverReusesDeletedNumbers(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	id := newCompany(t, s, 1)
	a := numbering.NewAllocator(s)

	n, _ := a.Assign(ctx, id)
	inv := &models.Invoice{CompanyID: id, InvoiceNumber: n}
	if err := s.SaveInvoice(ctx, inv); err != nil {
		t.Fatalf("SaveInvoice: %v", err)
	}
	if err := s.DeleteInvoice(ctx, inv.ID); err != nil {
		t.Fatalf("DeleteInvoice: %v", err)
	}

	next, err := a.Assign(ctx, id)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if next != n+1 {
		t.Errorf("Assign after delete = %d, want %d", next, n+1)
	}
}

func TestAllocatorConcurrentAssignIsUnique(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	id := newCompany(t, s, 1)
	other := newCompany(t, s, 1)
	a := numbering.NewAllocator(s)

	const workers = 64
	results := make(chan int64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			company := id
			if i%2 == 1 {
				company = other
			}
			n, err := a.Assign(ctx, company)
			if err != nil {
				t.Errorf("Assign: %v", err)
				return
			}
			if company == id {
				results <- n
			}
		}(i)
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]bool)
	for n := range results {
		if seen[n] {
			t.Fatalf("number %d handed out twice", n)
		}
		seen[n] = true
	}
	if len(seen) != workers/2 {
		t.Errorf("got %d numbers, want %d", len(seen), workers/2)
	}
	for n := int64(1); n <= workers/2; n++ {
		if !seen[n] {
			t.Errorf("number %d missing from sequence", n)
		}
	}
}

func TestAllocatorUnknownCompany(t *testing.T) {
	a := numbering.NewAllocator(memory.New())
	if _, err := a.Suggest(context.Background(), "missing"); err == nil {
		t.Error("Suggest for unknown company should fail")
	}
	if _, err := a.Assign(context.Background(), "missing"); err == nil {
		t.Error("Assign for unknown company should fail")
	}
}
