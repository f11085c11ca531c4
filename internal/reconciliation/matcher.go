package reconciliation

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/LeeviJ/triolasku-sub000/internal/logger"
	"github.com/LeeviJ/triolasku-sub000/internal/reference"
	"github.com/LeeviJ/triolasku-sub000/pkg/models"
)

// Payable reports whether an invoice is still waiting for a bank payment.
func Payable(inv *models.Invoice) bool {
	if inv.IsCreditNote || (inv.PaymentMethod != "" && inv.PaymentMethod != models.PaymentInvoice) {
		return false
	}
	switch inv.Status {
	case models.StatusReady, models.StatusSent, models.StatusOverdue:
		return true
	}
	return false
}

// MatchTransactions pairs incoming transactions with payable invoices by
// reference number. The reference field is tried first, then every digit
// group of the message. Only references with a valid check digit count.
//
// Invoice numbers are not unique, so one reference may point at several
// invoices; the one whose gross equals the amount wins, otherwise the first.
// An invoice is matched at most once. Transactions dated after cutoff are
// ignored when cutoff is non-zero.
func MatchTransactions(transactions []BankTransaction, invoices []models.Invoice, cutoff time.Time) *ReconciliationResult {
	byRef := make(map[string][]int)
	for i := range invoices {
		if !Payable(&invoices[i]) {
			continue
		}
		ref := reference.Normalize(reference.FromInvoiceNumber(invoices[i].InvoiceNumber))
		byRef[ref] = append(byRef[ref], i)
	}

	result := &ReconciliationResult{}
	used := make(map[int]bool)

	for _, tx := range transactions {
		if !cutoff.IsZero() && tx.Date.After(cutoff) {
			continue
		}
		result.TotalTransactions++
		if !tx.IsIncoming() {
			continue
		}

		idx, fromMessage, ok := findInvoice(tx, invoices, byRef, used)
		if !ok {
			result.UnmatchedTransactions = append(result.UnmatchedTransactions, tx)
			continue
		}
		used[idx] = true

		kind := MatchExact
		if !invoices[idx].TotalGross.Equal(tx.Amount) {
			kind = MatchAmountDiffers
		}
		result.Matches = append(result.Matches, Match{
			Transaction: tx,
			Invoice:     invoices[idx],
			Kind:        kind,
			FromMessage: fromMessage,
		})
		result.MatchedCount++
	}

	for i := range invoices {
		if Payable(&invoices[i]) && !used[i] {
			result.UnpaidInvoices = append(result.UnpaidInvoices, invoices[i])
		}
	}

	return result
}

func findInvoice(tx BankTransaction, invoices []models.Invoice, byRef map[string][]int, used map[int]bool) (int, bool, bool) {
	candidates := []string{tx.Reference}
	candidates = append(candidates, digitGroups(tx.Message)...)

	for n, cand := range candidates {
		// Banks may drop leading zeros from the reference field.
		if n == 0 {
			cand = padReference(cand)
		}
		if !reference.Valid(cand) {
			continue
		}
		fallback := -1
		for _, i := range byRef[reference.Normalize(cand)] {
			if used[i] {
				continue
			}
			if invoices[i].TotalGross.Equal(tx.Amount) {
				return i, n > 0, true
			}
			if fallback < 0 {
				fallback = i
			}
		}
		if fallback >= 0 {
			return fallback, n > 0, true
		}
	}
	return 0, false, false
}

func padReference(ref string) string {
	digits := strings.ReplaceAll(strings.TrimSpace(ref), " ", "")
	if digits == "" || len(digits) >= reference.MinBaseLength {
		return digits
	}
	return strings.Repeat("0", reference.MinBaseLength-len(digits)) + digits
}

// digitGroups returns the runs of digits in s, joining groups separated by
// single spaces so "RF 12 34561" style references survive.
func digitGroups(s string) []string {
	var (
		groups []string
		cur    strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			groups = append(groups, cur.String())
			cur.Reset()
		}
	}
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case unicode.IsDigit(r):
			cur.WriteRune(r)
		case r == ' ' && cur.Len() > 0 && i+1 < len(runes) && unicode.IsDigit(runes[i+1]):
		default:
			flush()
		}
	}
	flush()
	return groups
}

// InvoiceSource lists a company's invoices.
type InvoiceSource interface {
	List(ctx context.Context, companyID string) ([]models.Invoice, error)
}

// StatusUpdater changes an invoice's status.
type StatusUpdater interface {
	SetStatus(ctx context.Context, id string, status models.Status) error
}

// Reconciler matches a bank statement against a company's invoices and can
// mark exact matches paid.
type Reconciler struct {
	invoices InvoiceSource
	status   StatusUpdater
	log      zerolog.Logger
}

// NewReconciler creates a reconciler. The invoice service satisfies both
// interfaces.
func NewReconciler(invoices InvoiceSource, status StatusUpdater) *Reconciler {
	return &Reconciler{
		invoices: invoices,
		status:   status,
		log:      logger.WithComponent("reconcile-engine"),
	}
}

// Reconcile matches transactions against companyID's invoices. With apply
// set, invoices matched exactly are marked paid.
func (r *Reconciler) Reconcile(ctx context.Context, companyID string, transactions []BankTransaction, cutoff time.Time, apply bool) (*ReconciliationResult, error) {
	const op = "Reconcile"

	invoices, err := r.invoices.List(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list invoices: %w", op, err)
	}

	result := MatchTransactions(transactions, invoices, cutoff)

	r.log.Info().
		Str("company_id", companyID).
		Int("transactions", result.TotalTransactions).
		Int("invoices", len(invoices)).
		Int("matched", result.MatchedCount).
		Int("unmatched", len(result.UnmatchedTransactions)).
		Int("unpaid", len(result.UnpaidInvoices)).
		Msg("Reconciliation analysis completed")

	if !apply {
		return result, nil
	}

	for _, m := range result.Matches {
		if m.Kind != MatchExact {
			r.log.Warn().
				Int64("invoice_number", m.Invoice.InvoiceNumber).
				Str("expected", m.Invoice.TotalGross.String()).
				Str("received", m.Transaction.Amount.String()).
				Msg("Amount differs, invoice left open")
			continue
		}
		if err := r.status.SetStatus(ctx, m.Invoice.ID, models.StatusPaid); err != nil {
			return result, fmt.Errorf("%s: failed to mark invoice %d paid: %w", op, m.Invoice.InvoiceNumber, err)
		}
		result.MarkedPaid++
	}

	r.log.Info().Int("marked_paid", result.MarkedPaid).Msg("Matched invoices marked paid")
	return result, nil
}
