package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"travel-ledger/internal/apperrors"
	"travel-ledger/internal/domain"
)

const invoiceColumns = `id, package_id, supplier_id, customer_id, type, category, merchant, amount, currency,
	payment_status, invoice_date, due_date, file_ref, extracted_data, created_at, updated_at`

func (s *PostgresStore) CreateInvoice(ctx context.Context, inv *domain.Invoice) error {
	const op = "repository.CreateInvoice"
	if inv.PaymentStatus == "" {
		inv.PaymentStatus = domain.PaymentPending
	}
	normalizeInvoice(inv)
	if err := s.validator.Invoice(op, inv); err != nil {
		return err
	}
	if err := checkInvoiceRefs(ctx, s.db, op, inv); err != nil {
		return err
	}
	extracted, err := marshalExtracted(inv.Extracted)
	if err != nil {
		return apperrors.Validation(op, "extracted_data", err.Error())
	}

	inv.ID = newID(inv.ID)
	now := s.now()
	inv.CreatedAt, inv.UpdatedAt = now, now

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO invoices (`+invoiceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`, inv.ID, inv.PackageID, inv.SupplierID, inv.CustomerID, inv.Type, inv.Category, inv.Merchant,
		decimalParam(inv.Amount), inv.Currency, inv.PaymentStatus, dateParamPtr(inv.InvoiceDate),
		dateParamPtr(inv.DueDate), inv.FileRef, extracted, inv.CreatedAt, inv.UpdatedAt)
	return mapError(ctx, op, err)
}

func (s *PostgresStore) UpdateInvoice(ctx context.Context, inv *domain.Invoice) error {
	return s.RunLocked(ctx, LockSet{InvoiceIDs: []string{inv.ID}}, func(tx Tx) error {
		return tx.UpdateInvoice(inv)
	})
}

func (s *PostgresStore) GetInvoice(ctx context.Context, id string) (*domain.Invoice, error) {
	return getInvoice(ctx, s.db, id)
}

func (s *PostgresStore) ListInvoicesByPackage(ctx context.Context, packageID string, r *domain.DateRange) ([]domain.Invoice, error) {
	if r == nil {
		return queryInvoices(ctx, s.db, "repository.ListInvoicesByPackage",
			`WHERE package_id = $1 ORDER BY invoice_date NULLS LAST, id`, packageID)
	}
	return queryInvoices(ctx, s.db, "repository.ListInvoicesByPackage",
		`WHERE package_id = $1 AND invoice_date BETWEEN $2 AND $3 ORDER BY invoice_date, id`,
		packageID, dateParam(r.Start), dateParam(r.End))
}

func (s *PostgresStore) ListInvoicesByDateRange(ctx context.Context, r domain.DateRange) ([]domain.Invoice, error) {
	return queryInvoices(ctx, s.db, "repository.ListInvoicesByDateRange",
		`WHERE invoice_date BETWEEN $1 AND $2 ORDER BY invoice_date, id`, dateParam(r.Start), dateParam(r.End))
}

func (s *PostgresStore) PackageIDsWithInvoices(ctx context.Context, r domain.DateRange) ([]string, error) {
	const op = "repository.PackageIDsWithInvoices"
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT package_id FROM invoices
		WHERE package_id IS NOT NULL AND invoice_date BETWEEN $1 AND $2
		ORDER BY package_id
	`, dateParam(r.Start), dateParam(r.End))
	if err != nil {
		return nil, mapError(ctx, op, err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, mapError(ctx, op, err)
		}
		ids = append(ids, id)
	}
	return ids, mapError(ctx, op, rows.Err())
}

func getInvoice(ctx context.Context, q queryer, id string) (*domain.Invoice, error) {
	const op = "repository.GetInvoice"
	invoices, err := queryInvoices(ctx, q, op, `WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(invoices) == 0 {
		return nil, apperrors.NotFound(op, "invoice", id)
	}
	return &invoices[0], nil
}

func updateInvoice(ctx context.Context, q queryer, s *PostgresStore, inv *domain.Invoice) error {
	const op = "repository.UpdateInvoice"
	old, err := getInvoice(ctx, q, inv.ID)
	if err != nil {
		return err
	}
	normalizeInvoice(inv)
	if err := s.validator.Invoice(op, inv); err != nil {
		return err
	}
	if err := checkInvoiceRefs(ctx, q, op, inv); err != nil {
		return err
	}
	extracted, err := marshalExtracted(inv.Extracted)
	if err != nil {
		return apperrors.Validation(op, "extracted_data", err.Error())
	}

	inv.CreatedAt = old.CreatedAt
	inv.UpdatedAt = s.now()
	_, err = q.ExecContext(ctx, `
		UPDATE invoices
		SET package_id = $2, supplier_id = $3, customer_id = $4, type = $5, category = $6, merchant = $7,
		    amount = $8, currency = $9, payment_status = $10, invoice_date = $11, due_date = $12,
		    file_ref = $13, extracted_data = $14, updated_at = $15
		WHERE id = $1
	`, inv.ID, inv.PackageID, inv.SupplierID, inv.CustomerID, inv.Type, inv.Category, inv.Merchant,
		decimalParam(inv.Amount), inv.Currency, inv.PaymentStatus, dateParamPtr(inv.InvoiceDate),
		dateParamPtr(inv.DueDate), inv.FileRef, extracted, inv.UpdatedAt)
	return mapError(ctx, op, err)
}

func checkInvoiceRefs(ctx context.Context, q queryer, op string, inv *domain.Invoice) error {
	if err := checkRef(ctx, q, op, "packages", "package_id", inv.PackageID); err != nil {
		return err
	}
	if err := checkRef(ctx, q, op, "suppliers", "supplier_id", inv.SupplierID); err != nil {
		return err
	}
	return checkRef(ctx, q, op, "customers", "customer_id", inv.CustomerID)
}

func queryInvoices(ctx context.Context, q queryer, op, where string, args ...interface{}) ([]domain.Invoice, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+invoiceColumns+` FROM invoices `+where, args...)
	if err != nil {
		return nil, mapError(ctx, op, err)
	}
	defer rows.Close()

	invoices := make([]domain.Invoice, 0)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, mapError(ctx, op, err)
		}
		invoices = append(invoices, *inv)
	}
	return invoices, mapError(ctx, op, rows.Err())
}

func scanInvoice(row rowScanner) (*domain.Invoice, error) {
	var (
		inv                               domain.Invoice
		packageID, supplierID, customerID sql.NullString
		amount                            decimal.NullDecimal
		invoiceDate, dueDate              sql.NullTime
		extracted                         []byte
	)
	err := row.Scan(
		&inv.ID,
		&packageID,
		&supplierID,
		&customerID,
		&inv.Type,
		&inv.Category,
		&inv.Merchant,
		&amount,
		&inv.Currency,
		&inv.PaymentStatus,
		&invoiceDate,
		&dueDate,
		&inv.FileRef,
		&extracted,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	inv.PackageID = nullString(packageID)
	inv.SupplierID = nullString(supplierID)
	inv.CustomerID = nullString(customerID)
	if amount.Valid {
		inv.Amount = &amount.Decimal
	}
	inv.InvoiceDate = nullDate(invoiceDate)
	inv.DueDate = nullDate(dueDate)
	if len(extracted) > 0 {
		var data domain.ExtractedData
		if err := json.Unmarshal(extracted, &data); err != nil {
			return nil, fmt.Errorf("decode extracted_data: %w", err)
		}
		inv.Extracted = &data
	}
	return &inv, nil
}

func marshalExtracted(e *domain.ExtractedData) (interface{}, error) {
	if e == nil {
		return nil, nil
	}
	b, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func decimalParam(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return *d
}
