package repository

import (
	"context"

	"travel-ledger/internal/apperrors"
	"travel-ledger/internal/domain"
)

// RunLocked stages writes in a memoryTx and applies them in one step under
// the store mutex once fn succeeds.
func (s *MemoryStore) RunLocked(ctx context.Context, set LockSet, fn func(Tx) error) error {
	release, err := s.locks.acquire(ctx, set.Keys())
	if err != nil {
		return err
	}
	defer release()

	tx := &memoryTx{
		s:            s,
		invoices:     make(map[string]domain.Invoice),
		transactions: make(map[string]domain.BankTransaction),
		matches:      make(map[string]domain.Match),
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return apperrors.FromContext("repository.RunLocked", err)
	}
	return s.commit(tx)
}

func (s *MemoryStore) commit(tx *memoryTx) error {
	const op = "repository.RunLocked"
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range tx.matches {
		if m.Status != domain.MatchConfirmed {
			continue
		}
		t, ok := tx.transactions[m.TransactionID]
		if !ok {
			t = s.transactions[m.TransactionID]
		}
		if t.Status != domain.TransactionMatched {
			return apperrors.Validation(op, "status", "a confirmed match requires its transaction to be matched")
		}
	}

	for id, inv := range tx.invoices {
		s.invoices[id] = inv
	}
	for id, t := range tx.transactions {
		s.transactions[id] = t
	}
	for id, m := range tx.matches {
		s.matches[id] = m
	}
	return nil
}

type memoryTx struct {
	s            *MemoryStore
	invoices     map[string]domain.Invoice
	transactions map[string]domain.BankTransaction
	matches      map[string]domain.Match
}

func (t *memoryTx) GetInvoice(id string) (*domain.Invoice, error) {
	if inv, ok := t.invoices[id]; ok {
		out := cloneInvoice(inv)
		return &out, nil
	}
	return t.s.GetInvoice(context.Background(), id)
}

func (t *memoryTx) GetTransaction(id string) (*domain.BankTransaction, error) {
	if tx, ok := t.transactions[id]; ok {
		return &tx, nil
	}
	return t.s.GetTransaction(context.Background(), id)
}

func (t *memoryTx) GetMatch(id string) (*domain.Match, error) {
	if m, ok := t.matches[id]; ok {
		return &m, nil
	}
	return t.s.GetMatch(context.Background(), id)
}

func (t *memoryTx) ListMatchesByTransaction(transactionID string) ([]domain.Match, error) {
	return t.listMatches(func(m domain.Match) bool { return m.TransactionID == transactionID }), nil
}

func (t *memoryTx) ListMatchesByInvoice(invoiceID string) ([]domain.Match, error) {
	return t.listMatches(func(m domain.Match) bool { return m.InvoiceID == invoiceID }), nil
}

// listMatches merges committed rows with staged ones, staged winning.
func (t *memoryTx) listMatches(keep func(domain.Match) bool) []domain.Match {
	t.s.mu.RLock()
	committed := t.s.collectMatches(keep)
	t.s.mu.RUnlock()

	out := make([]domain.Match, 0, len(committed))
	for _, m := range committed {
		if staged, ok := t.matches[m.ID]; ok {
			m = staged
		}
		out = append(out, m)
	}
	for id, m := range t.matches {
		if !keep(m) {
			continue
		}
		if _, seen := findMatch(committed, id); !seen {
			out = append(out, m)
		}
	}
	return sortMatches(out)
}

func findMatch(ms []domain.Match, id string) (domain.Match, bool) {
	for _, m := range ms {
		if m.ID == id {
			return m, true
		}
	}
	return domain.Match{}, false
}

func (t *memoryTx) CreateMatch(m *domain.Match) error {
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
	if _, err := t.GetInvoice(m.InvoiceID); err != nil {
		return apperrors.Validation(op, "invoice_id", "references a missing invoice")
	}
	if _, err := t.GetTransaction(m.TransactionID); err != nil {
		return apperrors.Validation(op, "transaction_id", "references a missing transaction")
	}
	if _, err := t.GetMatch(m.ID); err == nil {
		return apperrors.Conflict(op, "match id already exists")
	}
	if err := t.checkSingleConfirmed(op, m); err != nil {
		return err
	}
	t.matches[m.ID] = *m
	return nil
}

func (t *memoryTx) UpdateMatch(m *domain.Match) error {
	const op = "repository.UpdateMatch"
	old, err := t.GetMatch(m.ID)
	if err != nil {
		return err
	}
	if err := t.s.validator.MatchUpdate(op, old, m); err != nil {
		return err
	}
	if err := t.checkSingleConfirmed(op, m); err != nil {
		return err
	}
	t.matches[m.ID] = *m
	return nil
}

// checkSingleConfirmed rejects a second confirmed match on either side.
func (t *memoryTx) checkSingleConfirmed(op string, m *domain.Match) error {
	if m.Status != domain.MatchConfirmed {
		return nil
	}
	related := t.listMatches(func(other domain.Match) bool {
		return other.ID != m.ID && (other.TransactionID == m.TransactionID || other.InvoiceID == m.InvoiceID)
	})
	for _, other := range related {
		if other.Status == domain.MatchConfirmed {
			return apperrors.Conflict(op, "a confirmed match already exists for this invoice or transaction")
		}
	}
	return nil
}

func (t *memoryTx) UpdateInvoice(inv *domain.Invoice) error {
	const op = "repository.UpdateInvoice"
	old, err := t.GetInvoice(inv.ID)
	if err != nil {
		return err
	}
	normalizeInvoice(inv)
	if err := t.s.validator.Invoice(op, inv); err != nil {
		return err
	}
	t.s.mu.RLock()
	err = t.s.checkInvoiceRefs(op, inv)
	t.s.mu.RUnlock()
	if err != nil {
		return err
	}
	inv.CreatedAt = old.CreatedAt
	inv.UpdatedAt = t.s.now()
	t.invoices[inv.ID] = cloneInvoice(*inv)
	return nil
}

func (t *memoryTx) UpdateTransaction(tx *domain.BankTransaction) error {
	const op = "repository.UpdateTransaction"
	old, err := t.GetTransaction(tx.ID)
	if err != nil {
		return err
	}
	tx.TransactionDate = domain.Date(tx.TransactionDate)
	if err := t.s.validator.Transaction(op, tx); err != nil {
		return err
	}
	t.s.mu.RLock()
	err = t.s.checkPackageRef(op, tx.PackageID)
	t.s.mu.RUnlock()
	if err != nil {
		return err
	}

	confirmed := false
	for _, m := range t.listMatches(func(m domain.Match) bool { return m.TransactionID == tx.ID }) {
		if m.Status == domain.MatchConfirmed {
			confirmed = true
		}
	}
	if (tx.Status == domain.TransactionMatched) != confirmed {
		return apperrors.Validation(op, "status", "matched if and only if a confirmed match exists")
	}

	tx.CreatedAt = old.CreatedAt
	tx.UpdatedAt = t.s.now()
	t.transactions[tx.ID] = *tx
	return nil
}
