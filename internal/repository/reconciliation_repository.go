package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"travel-ledger/internal/apperrors"
	"travel-ledger/internal/domain"
)

const matchColumns = `id, invoice_id, transaction_id, status, score, matched_at, created_at`

func (s *PostgresStore) GetMatch(ctx context.Context, id string) (*domain.Match, error) {
	return getMatch(ctx, s.db, id)
}

func (s *PostgresStore) ListMatchesByTransaction(ctx context.Context, transactionID string) ([]domain.Match, error) {
	return queryMatches(ctx, s.db, "repository.ListMatchesByTransaction",
		`WHERE transaction_id = $1 ORDER BY created_at, id`, transactionID)
}

func (s *PostgresStore) ListMatchesByInvoice(ctx context.Context, invoiceID string) ([]domain.Match, error) {
	return queryMatches(ctx, s.db, "repository.ListMatchesByInvoice",
		`WHERE invoice_id = $1 ORDER BY created_at, id`, invoiceID)
}

func (s *PostgresStore) ConfirmedInvoiceIDs(ctx context.Context, invoiceIDs []string) (map[string]bool, error) {
	const op = "repository.ConfirmedInvoiceIDs"
	out := make(map[string]bool)
	if len(invoiceIDs) == 0 {
		return out, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT invoice_id FROM invoice_transaction_matches
		WHERE status = 'confirmed' AND invoice_id = ANY($1)
	`, pq.Array(invoiceIDs))
	if err != nil {
		return nil, mapError(ctx, op, err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, mapError(ctx, op, err)
		}
		out[id] = true
	}
	return out, mapError(ctx, op, rows.Err())
}

func (s *PostgresStore) CreateExportLog(ctx context.Context, log *domain.ExportLog) error {
	const op = "repository.CreateExportLog"
	if log.SentAt.IsZero() {
		log.SentAt = s.now()
	}
	if err := s.validator.ExportLog(op, log); err != nil {
		return err
	}
	log.ID = newID(log.ID)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO export_logs (id, month_year, sent_at, packages_included, invoices_included)
		VALUES ($1, $2, $3, $4, $5)
	`, log.ID, log.MonthYear, log.SentAt, log.PackagesIncluded, log.InvoicesIncluded)
	return mapError(ctx, op, err)
}

func (s *PostgresStore) ListExportLogs(ctx context.Context, monthYear string) ([]domain.ExportLog, error) {
	const op = "repository.ListExportLogs"
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, month_year, sent_at, packages_included, invoices_included
		FROM export_logs
		WHERE $1 = '' OR month_year = $1
		ORDER BY sent_at, id
	`, monthYear)
	if err != nil {
		return nil, mapError(ctx, op, err)
	}
	defer rows.Close()

	logs := make([]domain.ExportLog, 0)
	for rows.Next() {
		var l domain.ExportLog
		if err := rows.Scan(&l.ID, &l.MonthYear, &l.SentAt, &l.PackagesIncluded, &l.InvoicesIncluded); err != nil {
			return nil, mapError(ctx, op, err)
		}
		logs = append(logs, l)
	}
	return logs, mapError(ctx, op, rows.Err())
}

func getMatch(ctx context.Context, q queryer, id string) (*domain.Match, error) {
	const op = "repository.GetMatch"
	matches, err := queryMatches(ctx, q, op, `WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, apperrors.NotFound(op, "match", id)
	}
	return &matches[0], nil
}

func queryMatches(ctx context.Context, q queryer, op, where string, args ...interface{}) ([]domain.Match, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+matchColumns+` FROM invoice_transaction_matches `+where, args...)
	if err != nil {
		return nil, mapError(ctx, op, err)
	}
	defer rows.Close()

	matches := make([]domain.Match, 0)
	for rows.Next() {
		var m domain.Match
		var score sql.NullFloat64
		var matchedAt sql.NullTime
		if err := rows.Scan(&m.ID, &m.InvoiceID, &m.TransactionID, &m.Status, &score, &matchedAt, &m.CreatedAt); err != nil {
			return nil, mapError(ctx, op, err)
		}
		m.Score = nullFloat(score)
		m.MatchedAt = nullTime(matchedAt)
		matches = append(matches, m)
	}
	return matches, mapError(ctx, op, rows.Err())
}

// postgresTx is the Tx handed to RunLocked callbacks. It is bound to the
// callback's context.
type postgresTx struct {
	ctx     context.Context
	s       *PostgresStore
	q       queryer
	touched []string
}

func (t *postgresTx) GetInvoice(id string) (*domain.Invoice, error) {
	return getInvoice(t.ctx, t.q, id)
}

func (t *postgresTx) GetTransaction(id string) (*domain.BankTransaction, error) {
	return getTransaction(t.ctx, t.q, id)
}

func (t *postgresTx) GetMatch(id string) (*domain.Match, error) {
	return getMatch(t.ctx, t.q, id)
}

func (t *postgresTx) ListMatchesByTransaction(transactionID string) ([]domain.Match, error) {
	return queryMatches(t.ctx, t.q, "repository.ListMatchesByTransaction",
		`WHERE transaction_id = $1 ORDER BY created_at, id`, transactionID)
}

func (t *postgresTx) ListMatchesByInvoice(invoiceID string) ([]domain.Match, error) {
	return queryMatches(t.ctx, t.q, "repository.ListMatchesByInvoice",
		`WHERE invoice_id = $1 ORDER BY created_at, id`, invoiceID)
}

func (t *postgresTx) CreateMatch(m *domain.Match) error {
	const op = "repository.CreateMatch"
	if m.Status == "" {
		m.Status = domain.MatchPending
	}
	m.ID = newID(m.ID)
	m.CreatedAt = t.s.now()
	if m.Status == domain.MatchConfirmed && m.MatchedAt == nil {
		at := m.CreatedAt
		m.MatchedAt = &at
	}
	if err := t.s.validator.Match(op, m); err != nil {
		return err
	}
	if err := checkRef(t.ctx, t.q, op, "invoices", "invoice_id", &m.InvoiceID); err != nil {
		return err
	}
	if err := checkRef(t.ctx, t.q, op, "bank_transactions", "transaction_id", &m.TransactionID); err != nil {
		return err
	}

	_, err := t.q.ExecContext(t.ctx, `
		INSERT INTO invoice_transaction_matches (`+matchColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, m.ID, m.InvoiceID, m.TransactionID, m.Status, m.Score, m.MatchedAt, m.CreatedAt)
	if err != nil {
		return mapError(t.ctx, op, err)
	}
	t.touched = append(t.touched, m.ID)
	return nil
}

func (t *postgresTx) UpdateMatch(m *domain.Match) error {
	const op = "repository.UpdateMatch"
	old, err := t.GetMatch(m.ID)
	if err != nil {
		return err
	}
	if err := t.s.validator.MatchUpdate(op, old, m); err != nil {
		return err
	}
	_, err = t.q.ExecContext(t.ctx, `
		UPDATE invoice_transaction_matches
		SET status = $2, score = $3, matched_at = $4
		WHERE id = $1
	`, m.ID, m.Status, m.Score, m.MatchedAt)
	if err != nil {
		return mapError(t.ctx, op, err)
	}
	t.touched = append(t.touched, m.ID)
	return nil
}

func (t *postgresTx) UpdateInvoice(inv *domain.Invoice) error {
	return updateInvoice(t.ctx, t.q, t.s, inv)
}

func (t *postgresTx) UpdateTransaction(tx *domain.BankTransaction) error {
	return updateTransaction(t.ctx, t.q, t.s, tx)
}

// checkMatchedTransactions requires every confirmed match written in this
// transaction to sit on a matched bank transaction.
func (t *postgresTx) checkMatchedTransactions() error {
	const op = "repository.RunLocked"
	if len(t.touched) == 0 {
		return nil
	}
	var inconsistent bool
	err := t.q.QueryRowContext(t.ctx, `
		SELECT EXISTS(
			SELECT 1 FROM invoice_transaction_matches m
			JOIN bank_transactions b ON b.id = m.transaction_id
			WHERE m.id = ANY($1) AND m.status = 'confirmed' AND b.status <> 'matched'
		)
	`, pq.Array(t.touched)).Scan(&inconsistent)
	if err != nil {
		return mapError(t.ctx, op, err)
	}
	if inconsistent {
		return apperrors.Validation(op, "status", "a confirmed match requires its transaction to be matched")
	}
	return nil
}
