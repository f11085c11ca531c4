package reconciliation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/LeeviJ/triolasku-sub000/pkg/models"
)

type fakeSheet struct {
	values [][]interface{}
	err    error
	asked  string
}

func (f *fakeSheet) ReadRange(_ context.Context, rangeSpec string) ([][]interface{}, error) {
	f.asked = rangeSpec
	return f.values, f.err
}

func TestReadBankTransactions(t *testing.T) {
	sheet := &fakeSheet{values: [][]interface{}{
		{"Kirjauspäivä", "Maksaja", "Viite", "Viesti", "Tilinumero", "Määrä"},
		{"3.3.2025", "Asiakas Ab", "10016", "", "FI7999999999999999", "235,50"},
		{"04.03.2025", "Vuokranantaja", "", "Vuokra maaliskuu", "FI1111111111111111", "-1 200,00"},
		{"ei päivää", "x", "", "", "", "10"},
		{"5.3.2025", "y", "", "", "", "0"},
		{"6.3.2025", "lyhyt rivi"},
	}}

	txs, err := NewDataReader(sheet).ReadBankTransactions(context.Background(), "Pankki")
	if err != nil {
		t.Fatalf("ReadBankTransactions: %v", err)
	}
	if sheet.asked != "Pankki!A:F" {
		t.Errorf("range = %q", sheet.asked)
	}
	if len(txs) != 2 {
		t.Fatalf("got %d transactions, want 2: %+v", len(txs), txs)
	}
	if txs[0].Row != 2 || txs[0].Reference != "10016" || !txs[0].Amount.Equal(decimal.RequireFromString("235.5")) {
		t.Errorf("first transaction = %+v", txs[0])
	}
	if txs[0].Date != time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC) {
		t.Errorf("date = %v", txs[0].Date)
	}
	if !txs[1].Amount.Equal(decimal.NewFromInt(-1200)) || txs[1].IsIncoming() {
		t.Errorf("second transaction = %+v", txs[1])
	}
}

func TestReadBankTransactionsErrors(t *testing.T) {
	if _, err := NewDataReader(&fakeSheet{}).ReadBankTransactions(context.Background(), "Pankki"); err == nil {
		t.Error("empty sheet should fail")
	}
	boom := errors.New("boom")
	_, err := NewDataReader(&fakeSheet{err: boom}).ReadBankTransactions(context.Background(), "Pankki")
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped boom", err)
	}
}

func inv(id string, number int64, gross string, status models.Status) models.Invoice {
	return models.Invoice{
		ID:            id,
		InvoiceNumber: number,
		TotalGross:    decimal.RequireFromString(gross),
		Status:        status,
		PaymentMethod: models.PaymentInvoice,
	}
}

func tx(ref, message, amount string) BankTransaction {
	return BankTransaction{
		Date:      time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		Reference: ref,
		Message:   message,
		Amount:    decimal.RequireFromString(amount),
	}
}

func TestMatchTransactions(t *testing.T) {
	invoices := []models.Invoice{
		inv("a", 1001, "235.5", models.StatusSent),
		inv("b", 1002, "100", models.StatusOverdue),
		inv("c", 1003, "50", models.StatusPaid),
		inv("d", 1, "10", models.StatusSent),
		inv("e", 1234, "99", models.StatusDraft),
	}
	transactions := []BankTransaction{
		tx("10016", "", "235.50"),
		tx("", "Lasku viite 10029 kiitos", "90"),
		tx("10032", "", "50"),
		tx("13", "", "10"),
		tx("10017", "", "1"),
		tx("", "", "-20"),
	}

	got := MatchTransactions(transactions, invoices, time.Time{})

	if got.TotalTransactions != 6 || got.MatchedCount != 3 {
		t.Fatalf("total=%d matched=%d, want 6/3", got.TotalTransactions, got.MatchedCount)
	}
	want := []struct {
		id          string
		kind        MatchKind
		fromMessage bool
	}{
		{"a", MatchExact, false},
		{"b", MatchAmountDiffers, true},
		{"d", MatchExact, false},
	}
	for i, w := range want {
		m := got.Matches[i]
		if m.Invoice.ID != w.id || m.Kind != w.kind || m.FromMessage != w.fromMessage {
			t.Errorf("match %d = %s/%s/%v, want %s/%s/%v", i, m.Invoice.ID, m.Kind, m.FromMessage, w.id, w.kind, w.fromMessage)
		}
	}
	// paid invoice reference and bad check digit stay unmatched
	if len(got.UnmatchedTransactions) != 2 {
		t.Errorf("unmatched = %+v", got.UnmatchedTransactions)
	}
	if len(got.UnpaidInvoices) != 0 {
		t.Errorf("unpaid = %+v", got.UnpaidInvoices)
	}
}

func TestMatchTransactionsDuplicateNumbers(t *testing.T) {
	invoices := []models.Invoice{
		inv("first", 1001, "80", models.StatusSent),
		inv("second", 1001, "120", models.StatusSent),
	}
	got := MatchTransactions([]BankTransaction{tx("10016", "", "120"), tx("10016", "", "80")}, invoices, time.Time{})

	if got.MatchedCount != 2 || got.Matches[0].Invoice.ID != "second" || got.Matches[1].Invoice.ID != "first" {
		t.Errorf("matches = %+v", got.Matches)
	}
	for _, m := range got.Matches {
		if m.Kind != MatchExact {
			t.Errorf("match %s kind = %s", m.Invoice.ID, m.Kind)
		}
	}
}

func TestMatchTransactionsCutoff(t *testing.T) {
	invoices := []models.Invoice{inv("a", 1001, "10", models.StatusSent)}
	late := tx("10016", "", "10")
	late.Date = time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	got := MatchTransactions([]BankTransaction{late}, invoices, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC))
	if got.TotalTransactions != 0 || got.MatchedCount != 0 || len(got.UnpaidInvoices) != 1 {
		t.Errorf("result = %+v", got)
	}
}

func TestDigitGroups(t *testing.T) {
	got := digitGroups("Viite 12 34561, lasku 7")
	if len(got) != 2 || got[0] != "1234561" || got[1] != "7" {
		t.Errorf("digitGroups = %q", got)
	}
}

type fakeInvoices struct {
	list []models.Invoice
	paid []string
}

func (f *fakeInvoices) List(context.Context, string) ([]models.Invoice, error) {
	return f.list, nil
}

func (f *fakeInvoices) SetStatus(_ context.Context, id string, status models.Status) error {
	if status == models.StatusPaid {
		f.paid = append(f.paid, id)
	}
	return nil
}

func TestReconcileApply(t *testing.T) {
	f := &fakeInvoices{list: []models.Invoice{
		inv("a", 1001, "235.5", models.StatusSent),
		inv("b", 1002, "100", models.StatusSent),
	}}
	r := NewReconciler(f, f)
	txs := []BankTransaction{tx("10016", "", "235.5"), tx("10029", "", "99")}

	dry, err := r.Reconcile(context.Background(), "c1", txs, time.Time{}, false)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if dry.MatchedCount != 2 || dry.MarkedPaid != 0 || len(f.paid) != 0 {
		t.Errorf("dry run changed state: %+v paid=%v", dry, f.paid)
	}

	res, err := r.Reconcile(context.Background(), "c1", txs, time.Time{}, true)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if res.MarkedPaid != 1 || len(f.paid) != 1 || f.paid[0] != "a" {
		t.Errorf("apply marked %v, want only a", f.paid)
	}
}
