package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"travel-ledger/internal/apperrors"
	"travel-ledger/internal/domain"
	"travel-ledger/pkg/logger"
)

const (
	pqUniqueViolation           = "23505"
	pqForeignKeyViolation       = "23503"
	pqCheckViolation            = "23514"
	pqInvalidTextRepresentation = "22P02"
	pqLockNotAvailable          = "55P03"
	pqQueryCanceled             = "57014"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// PostgresStore implements Store over database/sql with the lib/pq driver.
type PostgresStore struct {
	db        *sql.DB
	validator *Validator
	now       Clock
}

// OpenPostgres opens and pings a connection pool.
func OpenPostgres(ctx context.Context, dsn string, maxOpen, maxIdle int) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, validator: NewValidator(), now: utcNow}
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// RunLocked opens a transaction, bounds lock waits by the context deadline
// and takes FOR UPDATE locks on the named rows in id order.
func (s *PostgresStore) RunLocked(ctx context.Context, set LockSet, fn func(Tx) error) error {
	const op = "repository.RunLocked"

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapError(ctx, op, err)
	}
	defer sqlTx.Rollback()

	if deadline, ok := ctx.Deadline(); ok {
		ms := time.Until(deadline).Milliseconds()
		if ms < 1 {
			return apperrors.Timeout(op, context.DeadlineExceeded)
		}
		if _, err := sqlTx.ExecContext(ctx, fmt.Sprintf("SET LOCAL lock_timeout = %d", ms)); err != nil {
			return mapError(ctx, op, err)
		}
	}

	if ids := sortedUnique(set.InvoiceIDs); len(ids) > 0 {
		if err := lockRows(ctx, sqlTx, "invoices", ids); err != nil {
			return mapError(ctx, op, err)
		}
	}
	if ids := sortedUnique(set.TransactionIDs); len(ids) > 0 {
		if err := lockRows(ctx, sqlTx, "bank_transactions", ids); err != nil {
			return mapError(ctx, op, err)
		}
	}

	tx := &postgresTx{ctx: ctx, s: s, q: sqlTx}
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.checkMatchedTransactions(); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return mapError(ctx, op, err)
	}
	return nil
}

func lockRows(ctx context.Context, q queryer, table string, ids []string) error {
	rows, err := q.QueryContext(ctx,
		fmt.Sprintf(`SELECT id FROM %s WHERE id = ANY($1) ORDER BY id FOR UPDATE`, table),
		pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()
	locked := 0
	for rows.Next() {
		locked++
	}
	if err := rows.Err(); err != nil {
		return err
	}
	logger.GetLogger().WithField("table", table).WithField("rows", locked).Debug("Rows locked")
	return nil
}

// mapError converts driver failures that correspond to a domain error kind.
// Everything else is returned wrapped but otherwise unchanged.
func mapError(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Timeout(op, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return apperrors.Conflict(op, pqErr.Message)
		case pqForeignKeyViolation:
			return apperrors.Validation(op, pqErr.Column, "references a missing row: "+pqErr.Constraint)
		case pqCheckViolation:
			return apperrors.Validation(op, pqErr.Column, "violates "+pqErr.Constraint)
		case pqInvalidTextRepresentation:
			return apperrors.InvalidInput(op, "unparseable identifier", err)
		case pqLockNotAvailable:
			return apperrors.Timeout(op, err)
		case pqQueryCanceled:
			// The server reports client cancellation and statement timeouts alike.
			if ctxErr := ctx.Err(); ctxErr != nil {
				return apperrors.FromContext(op, ctxErr)
			}
			return apperrors.Timeout(op, err)
		}
	}
	logger.GetLogger().WithError(err).WithField("op", op).Error("Database operation failed")
	return fmt.Errorf("%s: %w", op, err)
}

func exists(ctx context.Context, q queryer, table, id string) (bool, error) {
	var found bool
	err := q.QueryRowContext(ctx, fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1)`, table), id).Scan(&found)
	return found, err
}

// checkRef fails with VALIDATION when an optional reference points nowhere.
func checkRef(ctx context.Context, q queryer, op, table, field string, id *string) error {
	if id == nil {
		return nil
	}
	found, err := exists(ctx, q, table, *id)
	if err != nil {
		return mapError(ctx, op, err)
	}
	if !found {
		return apperrors.Validation(op, field, "references a missing "+table+" row")
	}
	return nil
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullDate(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := domain.Date(t.Time)
	return &v
}

func nullFloat(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

// dateParam passes a calendar day without a zone shift.
func dateParam(t time.Time) string {
	return t.Format(domain.DateLayout)
}

func dateParamPtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return dateParam(*t)
}
