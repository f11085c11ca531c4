package reconciliation

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/LeeviJ/triolasku-sub000/pkg/models"
)

// BankTransaction represents a row of the bank statement sheet
type BankTransaction struct {
	Row          int             // sheet row, 1-based
	Date         time.Time       // Kirjauspäivä - column A
	CounterParty string          // Maksaja/Saaja - column B
	Reference    string          // Viite - column C
	Message      string          // Viesti - column D
	IBAN         string          // Tilinumero - column E
	Amount       decimal.Decimal // Määrä (negative for outgoing) - column F
}

// IsIncoming returns true if this is an incoming transaction (positive amount)
func (bt *BankTransaction) IsIncoming() bool {
	return bt.Amount.IsPositive()
}

// MatchKind tells how well a transaction fits its invoice.
type MatchKind string

const (
	// MatchExact: reference and amount agree.
	MatchExact MatchKind = "exact"
	// MatchAmountDiffers: the reference matched but the amount did not.
	MatchAmountDiffers MatchKind = "amount_differs"
)

// Match pairs a transaction with the invoice its reference points to.
type Match struct {
	Transaction BankTransaction
	Invoice     models.Invoice
	Kind        MatchKind
	// FromMessage is set when the reference was found in the message
	// instead of the reference field.
	FromMessage bool
}

// ReconciliationResult contains the results of a reconciliation run
type ReconciliationResult struct {
	Matches               []Match
	UnmatchedTransactions []BankTransaction
	UnpaidInvoices        []models.Invoice
	TotalTransactions     int
	MatchedCount          int
	MarkedPaid            int
}
