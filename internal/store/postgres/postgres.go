// Package postgres implements store.Store on PostgreSQL through pgx.
//
// Invoice numbers are reserved with a single UPDATE ... RETURNING on the
// company row, so concurrent reservations for one company are serialized by
// the row lock and never return the same number.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/LeeviJ/triolasku-sub000/internal/logger"
	"github.com/LeeviJ/triolasku-sub000/internal/store"
	"github.com/LeeviJ/triolasku-sub000/pkg/models"
)

// Store is a pgx-backed store.Store.
type Store struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

var _ store.Store = (*Store)(nil)

// Open connects to databaseURL and verifies the connection.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	const op = "Open"
	log := logger.WithComponent("postgres")

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create pool: %w", op, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: failed to ping database: %w", op, err)
	}

	log.Info().
		Str("database", pool.Config().ConnConfig.Database).
		Str("host", pool.Config().ConnConfig.Host).
		Msg("Database connected")

	return &Store{pool: pool, log: log}, nil
}

// Pool exposes the connection pool for migrations.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

const companyColumns = `id::text, name, business_id, vat_number, street, postal_code, city, country,
	email, phone, bank_accounts, vat_rates, start_number, default_payment_term_days,
	default_late_interest::text, last_invoice_number, created_at, updated_at`

func scanCompany(row scanner) (*models.Company, error) {
	var (
		c            models.Company
		accounts     []byte
		rates        []byte
		lateInterest string
	)
	err := row.Scan(&c.ID, &c.Name, &c.BusinessID, &c.VatNumber, &c.Street, &c.PostalCode, &c.City, &c.Country,
		&c.Email, &c.Phone, &accounts, &rates, &c.StartNumber, &c.DefaultPaymentTermDays,
		&lateInterest, &c.LastInvoiceNumber, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(accounts, &c.BankAccounts); err != nil {
		return nil, fmt.Errorf("decoding bank accounts: %w", err)
	}
	if err := json.Unmarshal(rates, &c.VatRates); err != nil {
		return nil, fmt.Errorf("decoding VAT rates: %w", err)
	}
	c.DefaultLateInterest = parseNumeric(lateInterest)
	return &c, nil
}

func (s *Store) CreateCompany(ctx context.Context, c *models.Company) error {
	const op = "CreateCompany"

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	accounts, rates, err := encodeCompanyJSON(c)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	start := c.StartNumber
	if start < 1 {
		start = 1
	}

	err = s.pool.QueryRow(ctx, `
		INSERT INTO companies (id, name, business_id, vat_number, street, postal_code, city, country,
			email, phone, bank_accounts, vat_rates, start_number, default_payment_term_days,
			default_late_interest, last_invoice_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::jsonb, $12::jsonb, $13, $14, $15::numeric, $16)
		RETURNING start_number, created_at, updated_at`,
		c.ID, c.Name, c.BusinessID, c.VatNumber, c.Street, c.PostalCode, c.City, c.Country,
		c.Email, c.Phone, accounts, rates, start, c.DefaultPaymentTermDays,
		c.DefaultLateInterest.String(), c.LastInvoiceNumber,
	).Scan(&c.StartNumber, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Store) UpdateCompany(ctx context.Context, c *models.Company) error {
	const op = "UpdateCompany"

	accounts, rates, err := encodeCompanyJSON(c)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	start := c.StartNumber
	if start < 1 {
		start = 1
	}

	err = s.pool.QueryRow(ctx, `
		UPDATE companies SET name = $2, business_id = $3, vat_number = $4, street = $5, postal_code = $6,
			city = $7, country = $8, email = $9, phone = $10, bank_accounts = $11::jsonb,
			vat_rates = $12::jsonb, start_number = $13, default_payment_term_days = $14,
			default_late_interest = $15::numeric,
			last_invoice_number = GREATEST(last_invoice_number, $16),
			updated_at = now()
		WHERE id = $1
		RETURNING last_invoice_number, created_at, updated_at`,
		c.ID, c.Name, c.BusinessID, c.VatNumber, c.Street, c.PostalCode, c.City, c.Country,
		c.Email, c.Phone, accounts, rates, start, c.DefaultPaymentTermDays,
		c.DefaultLateInterest.String(), c.LastInvoiceNumber,
	).Scan(&c.LastInvoiceNumber, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrCompanyNotFound
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	c.StartNumber = start
	return nil
}

func (s *Store) GetCompany(ctx context.Context, id string) (*models.Company, error) {
	if !validID(id) {
		return nil, store.ErrCompanyNotFound
	}
	c, err := scanCompany(s.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrCompanyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetCompany: %w", err)
	}
	return c, nil
}

func (s *Store) ListCompanies(ctx context.Context) ([]models.Company, error) {
	const op = "ListCompanies"

	rows, err := s.pool.Query(ctx, `SELECT `+companyColumns+` FROM companies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	companies := []models.Company{}
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		companies = append(companies, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return companies, nil
}

func (s *Store) DeleteCompany(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "DeleteCompany", "companies", id, store.ErrCompanyNotFound)
}

const customerColumns = `id::text, company_id::text, name, business_id, street, postal_code, city, country,
	email, contact_person, created_at, updated_at`

func scanCustomer(row scanner) (*models.Customer, error) {
	var c models.Customer
	err := row.Scan(&c.ID, &c.CompanyID, &c.Name, &c.BusinessID, &c.Street, &c.PostalCode, &c.City, &c.Country,
		&c.Email, &c.ContactPerson, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) CreateCustomer(ctx context.Context, c *models.Customer) error {
	const op = "CreateCustomer"

	if !validID(c.CompanyID) {
		return store.ErrCompanyNotFound
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO customers (id, company_id, name, business_id, street, postal_code, city, country,
			email, contact_person)
		SELECT $1, id, $3, $4, $5, $6, $7, $8, $9, $10 FROM companies WHERE id = $2
		RETURNING created_at, updated_at`,
		c.ID, c.CompanyID, c.Name, c.BusinessID, c.Street, c.PostalCode, c.City, c.Country,
		c.Email, c.ContactPerson,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrCompanyNotFound
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Store) UpdateCustomer(ctx context.Context, c *models.Customer) error {
	const op = "UpdateCustomer"

	if !validID(c.ID) {
		return store.ErrCustomerNotFound
	}
	err := s.pool.QueryRow(ctx, `
		UPDATE customers SET name = $2, business_id = $3, street = $4, postal_code = $5, city = $6,
			country = $7, email = $8, contact_person = $9, updated_at = now()
		WHERE id = $1
		RETURNING company_id::text, created_at, updated_at`,
		c.ID, c.Name, c.BusinessID, c.Street, c.PostalCode, c.City, c.Country, c.Email, c.ContactPerson,
	).Scan(&c.CompanyID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrCustomerNotFound
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Store) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	if !validID(id) {
		return nil, store.ErrCustomerNotFound
	}
	c, err := scanCustomer(s.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetCustomer: %w", err)
	}
	return c, nil
}

func (s *Store) ListCustomers(ctx context.Context, companyID string) ([]models.Customer, error) {
	const op = "ListCustomers"

	customers := []models.Customer{}
	if !validID(companyID) {
		return customers, nil
	}

	rows, err := s.pool.Query(ctx, `SELECT `+customerColumns+` FROM customers WHERE company_id = $1 ORDER BY name`, companyID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		customers = append(customers, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return customers, nil
}

func (s *Store) DeleteCustomer(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "DeleteCustomer", "customers", id, store.ErrCustomerNotFound)
}

const invoiceColumns = `id::text, company_id::text, COALESCE(customer_id::text, ''), invoice_number,
	number_overridden, invoice_date, due_date, payment_term_days, late_interest::text, line_items, status,
	payment_method, is_credit_note, COALESCE(credited_invoice_id::text, ''), total_net::text,
	total_vat::text, total_gross::text, snapshot, notes, created_at, updated_at`

func scanInvoice(row scanner) (*models.Invoice, error) {
	var (
		inv                        models.Invoice
		lateInterest               string
		lineItems, snapshot        []byte
		totalNet, totalVat, totalG string
	)
	err := row.Scan(&inv.ID, &inv.CompanyID, &inv.CustomerID, &inv.InvoiceNumber,
		&inv.NumberOverridden, &inv.InvoiceDate, &inv.DueDate, &inv.PaymentTermDays, &lateInterest, &lineItems,
		&inv.Status, &inv.PaymentMethod, &inv.IsCreditNote, &inv.CreditedInvoiceID, &totalNet,
		&totalVat, &totalG, &snapshot, &inv.Notes, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(lineItems, &inv.Rows); err != nil {
		return nil, fmt.Errorf("decoding invoice rows: %w", err)
	}
	if len(snapshot) > 0 {
		inv.Snapshot = &models.IssuanceSnapshot{}
		if err := json.Unmarshal(snapshot, inv.Snapshot); err != nil {
			return nil, fmt.Errorf("decoding issuance snapshot: %w", err)
		}
	}
	inv.LateInterest = parseNumeric(lateInterest)
	inv.TotalNet = parseNumeric(totalNet)
	inv.TotalVat = parseNumeric(totalVat)
	inv.TotalGross = parseNumeric(totalG)
	return &inv, nil
}

// SaveInvoice upserts the invoice and raises the company's high-water mark
// in one transaction.
func (s *Store) SaveInvoice(ctx context.Context, inv *models.Invoice) error {
	const op = "SaveInvoice"

	if !validID(inv.CompanyID) {
		return store.ErrCompanyNotFound
	}
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}

	rows := inv.Rows
	if rows == nil {
		rows = []models.InvoiceRow{}
	}
	lineItems, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("%s: encoding rows: %w", op, err)
	}
	var snapshot *string
	if inv.Snapshot != nil {
		b, err := json.Marshal(inv.Snapshot)
		if err != nil {
			return fmt.Errorf("%s: encoding snapshot: %w", op, err)
		}
		str := string(b)
		snapshot = &str
	}

	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE companies SET last_invoice_number = GREATEST(last_invoice_number, $2)
			WHERE id = $1`, inv.CompanyID, inv.InvoiceNumber)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return store.ErrCompanyNotFound
		}

		return tx.QueryRow(ctx, `
			INSERT INTO invoices (id, company_id, customer_id, invoice_number, number_overridden,
				invoice_date, due_date, payment_term_days, late_interest, line_items, status, payment_method,
				is_credit_note, credited_invoice_id, total_net, total_vat, total_gross, snapshot, notes)
			VALUES ($1, $2, NULLIF($3, '')::uuid, $4, $5, $6, $7, $8, $9::numeric, $10::jsonb, $11, $12,
				$13, NULLIF($14, '')::uuid, $15::numeric, $16::numeric, $17::numeric, $18::jsonb, $19)
			ON CONFLICT (id) DO UPDATE SET
				company_id = EXCLUDED.company_id,
				customer_id = EXCLUDED.customer_id,
				invoice_number = EXCLUDED.invoice_number,
				number_overridden = EXCLUDED.number_overridden,
				invoice_date = EXCLUDED.invoice_date,
				due_date = EXCLUDED.due_date,
				payment_term_days = EXCLUDED.payment_term_days,
				late_interest = EXCLUDED.late_interest,
				line_items = EXCLUDED.line_items,
				status = EXCLUDED.status,
				payment_method = EXCLUDED.payment_method,
				is_credit_note = EXCLUDED.is_credit_note,
				credited_invoice_id = EXCLUDED.credited_invoice_id,
				total_net = EXCLUDED.total_net,
				total_vat = EXCLUDED.total_vat,
				total_gross = EXCLUDED.total_gross,
				snapshot = COALESCE(invoices.snapshot, EXCLUDED.snapshot),
				notes = EXCLUDED.notes,
				updated_at = now()
			RETURNING created_at, updated_at`,
			inv.ID, inv.CompanyID, inv.CustomerID, inv.InvoiceNumber, inv.NumberOverridden,
			inv.InvoiceDate, inv.DueDate, inv.PaymentTermDays, inv.LateInterest.String(), string(lineItems),
			string(inv.Status), string(inv.PaymentMethod), inv.IsCreditNote, inv.CreditedInvoiceID,
			inv.TotalNet.String(), inv.TotalVat.String(), inv.TotalGross.String(), snapshot, inv.Notes,
		).Scan(&inv.CreatedAt, &inv.UpdatedAt)
	})
	if err != nil {
		if errors.Is(err, store.ErrCompanyNotFound) {
			return err
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Debug().
		Str("invoice_id", inv.ID).
		Str("company_id", inv.CompanyID).
		Int64("invoice_number", inv.InvoiceNumber).
		Msg("Invoice saved")

	return nil
}

func (s *Store) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	if !validID(id) {
		return nil, store.ErrInvoiceNotFound
	}
	inv, err := scanInvoice(s.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrInvoiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetInvoice: %w", err)
	}
	return inv, nil
}

func (s *Store) ListInvoices(ctx context.Context, companyID string) ([]models.Invoice, error) {
	if !validID(companyID) {
		return []models.Invoice{}, nil
	}
	return s.queryInvoices(ctx, "ListInvoices",
		`SELECT `+invoiceColumns+` FROM invoices WHERE company_id = $1 ORDER BY invoice_number DESC`, companyID)
}

func (s *Store) ListInvoicesByStatus(ctx context.Context, status models.Status) ([]models.Invoice, error) {
	return s.queryInvoices(ctx, "ListInvoicesByStatus",
		`SELECT `+invoiceColumns+` FROM invoices WHERE status = $1 ORDER BY invoice_number DESC`, string(status))
}

func (s *Store) queryInvoices(ctx context.Context, op, query string, args ...any) ([]models.Invoice, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	invoices := []models.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return invoices, nil
}

func (s *Store) UpdateInvoiceStatus(ctx context.Context, id string, status models.Status) error {
	const op = "UpdateInvoiceStatus"

	if !validID(id) {
		return store.ErrInvoiceNotFound
	}
	tag, err := s.pool.Exec(ctx, `UPDATE invoices SET status = $2, updated_at = now() WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrInvoiceNotFound
	}
	return nil
}

func (s *Store) DeleteInvoice(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "DeleteInvoice", "invoices", id, store.ErrInvoiceNotFound)
}

// ReserveInvoiceNumber is numbering.NextForCompany evaluated inside one
// UPDATE statement.
func (s *Store) ReserveInvoiceNumber(ctx context.Context, companyID string) (int64, error) {
	const op = "ReserveInvoiceNumber"

	if !validID(companyID) {
		return 0, store.ErrCompanyNotFound
	}

	var n int64
	err := s.pool.QueryRow(ctx, `
		UPDATE companies c
		SET last_invoice_number = GREATEST(
				c.last_invoice_number + 1,
				c.start_number,
				COALESCE((SELECT MAX(i.invoice_number) FROM invoices i WHERE i.company_id = c.id), 0) + 1),
			updated_at = now()
		WHERE c.id = $1
		RETURNING c.last_invoice_number`, companyID).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, store.ErrCompanyNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

func (s *Store) deleteByID(ctx context.Context, op, table, id string, notFound error) error {
	if !validID(id) {
		return notFound
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound
	}
	return nil
}

func encodeCompanyJSON(c *models.Company) (string, string, error) {
	accounts := c.BankAccounts
	if accounts == nil {
		accounts = []models.BankAccount{}
	}
	rates := c.VatRates
	if rates == nil {
		rates = []decimal.Decimal{}
	}
	a, err := json.Marshal(accounts)
	if err != nil {
		return "", "", fmt.Errorf("encoding bank accounts: %w", err)
	}
	r, err := json.Marshal(rates)
	if err != nil {
		return "", "", fmt.Errorf("encoding VAT rates: %w", err)
	}
	return string(a), string(r), nil
}

// validID keeps malformed ids from reaching a UUID column, where they would
// fail with a cast error instead of a clean miss.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func parseNumeric(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
