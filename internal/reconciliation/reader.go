package reconciliation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/LeeviJ/triolasku-sub000/internal/amount"
	"github.com/LeeviJ/triolasku-sub000/internal/logger"
)

// RangeReader reads a block of cells, as sheets.Service does.
type RangeReader interface {
	ReadRange(ctx context.Context, rangeSpec string) ([][]interface{}, error)
}

// DataReader handles reading bank statement rows from Google Sheets
type DataReader struct {
	sheets RangeReader
	log    zerolog.Logger
}

// NewDataReader creates a new data reader for Google Sheets
func NewDataReader(sheets RangeReader) *DataReader {
	return &DataReader{
		sheets: sheets,
		log:    logger.WithComponent("reconciliation-reader"),
	}
}

// ReadBankTransactions reads bank transactions from sheetName. The first row
// is a header. Rows without a parseable date or with a zero amount are
// skipped.
func (dr *DataReader) ReadBankTransactions(ctx context.Context, sheetName string) ([]BankTransaction, error) {
	const op = "ReadBankTransactions"

	dr.log.Info().Str("sheet", sheetName).Msg("Reading bank transactions")

	// A=Kirjauspäivä, B=Maksaja/Saaja, C=Viite, D=Viesti, E=Tilinumero, F=Määrä
	values, err := dr.sheets.ReadRange(ctx, sheetName+"!A:F")
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read %s sheet: %w", op, sheetName, err)
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("%s: %s sheet is empty", op, sheetName)
	}

	var transactions []BankTransaction
	for i, row := range values[1:] {
		rowNum := i + 2

		if len(row) < 6 {
			dr.log.Warn().
				Int("row", rowNum).
				Int("columns", len(row)).
				Msg("Skipping bank transaction row with insufficient columns")
			continue
		}

		transaction, err := parseBankTransaction(row, rowNum)
		if err != nil {
			dr.log.Warn().
				Err(err).
				Int("row", rowNum).
				Msg("Failed to parse bank transaction, skipping")
			continue
		}

		transactions = append(transactions, transaction)
	}

	dr.log.Info().
		Int("total_rows", len(values)-1).
		Int("parsed_transactions", len(transactions)).
		Str("sheet", sheetName).
		Msg("Bank transactions read successfully")

	return transactions, nil
}

func parseBankTransaction(row []interface{}, rowNum int) (BankTransaction, error) {
	const op = "parseBankTransaction"

	dateStr := getString(row, 0)
	date, err := parseFinnishDate(dateStr)
	if err != nil {
		return BankTransaction{}, fmt.Errorf("%s: invalid date '%s' in row %d: %w", op, dateStr, rowNum, err)
	}

	amountStr := getString(row, 5)
	value := amount.ParseOrZero(strings.TrimPrefix(strings.ReplaceAll(amountStr, "EUR", ""), "+"))
	if value.IsZero() {
		return BankTransaction{}, fmt.Errorf("%s: zero or invalid amount '%s' in row %d", op, amountStr, rowNum)
	}

	return BankTransaction{
		Row:          rowNum,
		Date:         date,
		CounterParty: getString(row, 1),
		Reference:    getString(row, 2),
		Message:      getString(row, 3),
		IBAN:         getString(row, 4),
		Amount:       value,
	}, nil
}

// parseFinnishDate parses D.M.YYYY dates and ISO dates
func parseFinnishDate(dateStr string) (time.Time, error) {
	if dateStr == "" {
		return time.Time{}, fmt.Errorf("empty date string")
	}

	cleaned := strings.TrimSpace(dateStr)
	formats := []string{
		"2.1.2006",
		"02.01.2006",
		"2.1.06",
		"2006-01-02",
	}
	for _, format := range formats {
		if date, err := time.Parse(format, cleaned); err == nil {
			return date, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}

// getString safely extracts a string value from a row slice
func getString(row []interface{}, index int) string {
	if index >= len(row) || row[index] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%v", row[index]))
}
