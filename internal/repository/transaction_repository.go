package repository

import (
	"context"
	"database/sql"

	"travel-ledger/internal/apperrors"
	"travel-ledger/internal/domain"
	"travel-ledger/pkg/logger"
)

const transactionColumns = `id, transaction_date, description, amount, package_id, needs_invoice, status, created_at, updated_at`

func (s *PostgresStore) CreateTransaction(ctx context.Context, tx *domain.BankTransaction) error {
	const op = "repository.CreateTransaction"
	if err := s.prepareNewTransaction(ctx, op, tx); err != nil {
		return err
	}
	return insertTransaction(ctx, s.db, op, tx)
}

func (s *PostgresStore) prepareNewTransaction(ctx context.Context, op string, tx *domain.BankTransaction) error {
	if tx.Status == "" {
		tx.Status = domain.TransactionPending
	}
	tx.TransactionDate = domain.Date(tx.TransactionDate)
	if err := s.validator.Transaction(op, tx); err != nil {
		return err
	}
	if tx.Status == domain.TransactionMatched {
		return apperrors.Validation(op, "status", "matched requires a confirmed match")
	}
	if err := checkRef(ctx, s.db, op, "packages", "package_id", tx.PackageID); err != nil {
		return err
	}
	tx.ID = newID(tx.ID)
	now := s.now()
	tx.CreatedAt, tx.UpdatedAt = now, now
	return nil
}

// BulkCreateTransactions validates every row first and inserts the valid
// ones in a single database transaction.
func (s *PostgresStore) BulkCreateTransactions(ctx context.Context, txs []domain.BankTransaction) (int, []error) {
	const op = "repository.BulkCreateTransactions"
	if len(txs) == 0 {
		return 0, nil
	}

	var errs []error
	valid := make([]*domain.BankTransaction, 0, len(txs))
	for i := range txs {
		if err := s.prepareNewTransaction(ctx, op, &txs[i]); err != nil {
			errs = append(errs, err)
			continue
		}
		valid = append(valid, &txs[i])
	}
	if len(valid) == 0 {
		return 0, errs
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, append(errs, mapError(ctx, op, err))
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.PrepareContext(ctx, `INSERT INTO bank_transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to prepare statement")
		return 0, append(errs, mapError(ctx, op, err))
	}
	defer stmt.Close()

	for _, tx := range valid {
		_, err := stmt.ExecContext(ctx, tx.ID, dateParam(tx.TransactionDate), tx.Description, tx.Amount,
			tx.PackageID, tx.NeedsInvoice, tx.Status, tx.CreatedAt, tx.UpdatedAt)
		if err != nil {
			logger.GetLogger().WithError(err).WithField("transaction_id", tx.ID).Error("Failed to insert transaction")
			return 0, append(errs, mapError(ctx, op, err))
		}
	}

	if err := dbTx.Commit(); err != nil {
		logger.GetLogger().WithError(err).Error("Failed to commit transaction")
		return 0, append(errs, mapError(ctx, op, err))
	}
	return len(valid), errs
}

func (s *PostgresStore) UpdateTransaction(ctx context.Context, tx *domain.BankTransaction) error {
	return s.RunLocked(ctx, LockSet{TransactionIDs: []string{tx.ID}}, func(t Tx) error {
		return t.UpdateTransaction(tx)
	})
}

func (s *PostgresStore) GetTransaction(ctx context.Context, id string) (*domain.BankTransaction, error) {
	return getTransaction(ctx, s.db, id)
}

func (s *PostgresStore) ListTransactionsByDateRange(ctx context.Context, r domain.DateRange) ([]domain.BankTransaction, error) {
	return queryTransactions(ctx, s.db, "repository.ListTransactionsByDateRange",
		`WHERE transaction_date BETWEEN $1 AND $2 ORDER BY transaction_date, id`,
		dateParam(r.Start), dateParam(r.End))
}

func (s *PostgresStore) ListTransactionsByStatus(ctx context.Context, r domain.DateRange, status domain.TransactionStatus) ([]domain.BankTransaction, error) {
	return queryTransactions(ctx, s.db, "repository.ListTransactionsByStatus",
		`WHERE transaction_date BETWEEN $1 AND $2 AND status = $3 ORDER BY transaction_date, id`,
		dateParam(r.Start), dateParam(r.End), status)
}

func insertTransaction(ctx context.Context, q queryer, op string, tx *domain.BankTransaction) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO bank_transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, tx.ID, dateParam(tx.TransactionDate), tx.Description, tx.Amount, tx.PackageID,
		tx.NeedsInvoice, tx.Status, tx.CreatedAt, tx.UpdatedAt)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to create transaction")
	}
	return mapError(ctx, op, err)
}

func getTransaction(ctx context.Context, q queryer, id string) (*domain.BankTransaction, error) {
	const op = "repository.GetTransaction"
	txs, err := queryTransactions(ctx, q, op, `WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return nil, apperrors.NotFound(op, "transaction", id)
	}
	return &txs[0], nil
}

func updateTransaction(ctx context.Context, q queryer, s *PostgresStore, tx *domain.BankTransaction) error {
	const op = "repository.UpdateTransaction"
	old, err := getTransaction(ctx, q, tx.ID)
	if err != nil {
		return err
	}
	tx.TransactionDate = domain.Date(tx.TransactionDate)
	if err := s.validator.Transaction(op, tx); err != nil {
		return err
	}
	if err := checkRef(ctx, q, op, "packages", "package_id", tx.PackageID); err != nil {
		return err
	}

	var confirmed bool
	err = q.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM invoice_transaction_matches WHERE transaction_id = $1 AND status = 'confirmed')
	`, tx.ID).Scan(&confirmed)
	if err != nil {
		return mapError(ctx, op, err)
	}
	if (tx.Status == domain.TransactionMatched) != confirmed {
		return apperrors.Validation(op, "status", "matched if and only if a confirmed match exists")
	}

	tx.CreatedAt = old.CreatedAt
	tx.UpdatedAt = s.now()
	_, err = q.ExecContext(ctx, `
		UPDATE bank_transactions
		SET transaction_date = $2, description = $3, amount = $4, package_id = $5,
		    needs_invoice = $6, status = $7, updated_at = $8
		WHERE id = $1
	`, tx.ID, dateParam(tx.TransactionDate), tx.Description, tx.Amount, tx.PackageID,
		tx.NeedsInvoice, tx.Status, tx.UpdatedAt)
	return mapError(ctx, op, err)
}

func queryTransactions(ctx context.Context, q queryer, op, where string, args ...interface{}) ([]domain.BankTransaction, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+transactionColumns+` FROM bank_transactions `+where, args...)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query transactions")
		return nil, mapError(ctx, op, err)
	}
	defer rows.Close()

	transactions := make([]domain.BankTransaction, 0)
	for rows.Next() {
		var tx domain.BankTransaction
		var packageID sql.NullString
		err := rows.Scan(
			&tx.ID,
			&tx.TransactionDate,
			&tx.Description,
			&tx.Amount,
			&packageID,
			&tx.NeedsInvoice,
			&tx.Status,
			&tx.CreatedAt,
			&tx.UpdatedAt,
		)
		if err != nil {
			return nil, mapError(ctx, op, err)
		}
		tx.TransactionDate = domain.Date(tx.TransactionDate)
		tx.PackageID = nullString(packageID)
		transactions = append(transactions, tx)
	}
	return transactions, mapError(ctx, op, rows.Err())
}
