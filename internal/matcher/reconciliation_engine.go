package matcher

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"travel-ledger/internal/apperrors"
	"travel-ledger/internal/domain"
	"travel-ledger/internal/metrics"
	"travel-ledger/internal/repository"
	"travel-ledger/pkg/logger"
)

const DefaultLockTimeout = 5 * time.Second

// Engine drives the match state machine for invoice/transaction pairs:
// none -> pending -> confirmed | rejected.
type Engine struct {
	store       repository.Store
	strategy    MatchingStrategy
	lockTimeout time.Duration
	now         func() time.Time
}

type Option func(*Engine)

// WithLockTimeout bounds row lock waits for calls whose context has no deadline.
func WithLockTimeout(d time.Duration) Option {
	return func(e *Engine) { e.lockTimeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(store repository.Store, strategy MatchingStrategy, opts ...Option) *Engine {
	if strategy == nil {
		strategy = NewDateAmountStrategy(DefaultDateToleranceDays, DefaultAmountTolerance)
	}
	e := &Engine{
		store:       store,
		strategy:    strategy,
		lockTimeout: DefaultLockTimeout,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) withLockTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || e.lockTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, e.lockTimeout)
}

// Propose creates a pending match between an invoice and a transaction.
func (e *Engine) Propose(ctx context.Context, invoiceID, transactionID string) (*domain.Match, error) {
	return e.propose(ctx, invoiceID, transactionID, nil)
}

func (e *Engine) propose(ctx context.Context, invoiceID, transactionID string, score *float64) (*domain.Match, error) {
	const op = "matcher.Propose"
	ctx, cancel := e.withLockTimeout(ctx)
	defer cancel()

	var created *domain.Match
	set := repository.LockSet{InvoiceIDs: []string{invoiceID}, TransactionIDs: []string{transactionID}}
	err := e.store.RunLocked(ctx, set, func(tx repository.Tx) error {
		if _, err := tx.GetInvoice(invoiceID); err != nil {
			return err
		}
		bankTx, err := tx.GetTransaction(transactionID)
		if err != nil {
			return err
		}
		if bankTx.Status == domain.TransactionIgnored {
			return apperrors.InvalidState(op, "transaction is ignored")
		}

		if err := checkNoConfirmed(op, tx, invoiceID, transactionID); err != nil {
			return err
		}
		pairMatches, err := tx.ListMatchesByTransaction(transactionID)
		if err != nil {
			return err
		}
		for _, m := range pairMatches {
			if m.InvoiceID == invoiceID && m.Status == domain.MatchPending {
				return apperrors.Conflict(op, "a pending match already exists for this pair")
			}
		}

		m := &domain.Match{
			InvoiceID:     invoiceID,
			TransactionID: transactionID,
			Status:        domain.MatchPending,
			Score:         score,
		}
		if err := tx.CreateMatch(m); err != nil {
			return err
		}
		created = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ObserveMatchTransition(string(domain.MatchPending))
	logger.GetLogger().WithFields(map[string]interface{}{
		"match_id":       created.ID,
		"invoice_id":     invoiceID,
		"transaction_id": transactionID,
	}).Info("Match proposed")
	return created, nil
}

// Confirm moves a pending match to confirmed and marks its transaction as
// matched in the same atomic write.
func (e *Engine) Confirm(ctx context.Context, matchID string) (*domain.Match, error) {
	const op = "matcher.Confirm"
	return e.transition(ctx, op, matchID, func(tx repository.Tx, m *domain.Match) error {
		if err := checkNoConfirmed(op, tx, m.InvoiceID, m.TransactionID); err != nil {
			return err
		}
		bankTx, err := tx.GetTransaction(m.TransactionID)
		if err != nil {
			return err
		}
		if bankTx.Status == domain.TransactionIgnored {
			return apperrors.InvalidState(op, "transaction is ignored")
		}

		now := e.now()
		m.Status = domain.MatchConfirmed
		m.MatchedAt = &now
		if err := tx.UpdateMatch(m); err != nil {
			return err
		}

		bankTx.Status = domain.TransactionMatched
		bankTx.NeedsInvoice = false
		return tx.UpdateTransaction(bankTx)
	})
}

// Reject moves a pending match to rejected. The transaction is left as is
// and stays eligible for new proposals.
func (e *Engine) Reject(ctx context.Context, matchID string) (*domain.Match, error) {
	return e.transition(ctx, "matcher.Reject", matchID, func(tx repository.Tx, m *domain.Match) error {
		m.Status = domain.MatchRejected
		return tx.UpdateMatch(m)
	})
}

// transition locks the match's rows, re-reads the match and applies fn to it
// if it is still pending.
func (e *Engine) transition(ctx context.Context, op, matchID string, fn func(repository.Tx, *domain.Match) error) (*domain.Match, error) {
	ctx, cancel := e.withLockTimeout(ctx)
	defer cancel()

	current, err := e.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	var updated *domain.Match
	set := repository.LockSet{InvoiceIDs: []string{current.InvoiceID}, TransactionIDs: []string{current.TransactionID}}
	err = e.store.RunLocked(ctx, set, func(tx repository.Tx) error {
		m, err := tx.GetMatch(matchID)
		if err != nil {
			return err
		}
		if m.Status != domain.MatchPending {
			return apperrors.InvalidState(op, "match is "+string(m.Status)+", not pending")
		}
		if err := fn(tx, m); err != nil {
			return err
		}
		updated = m
		return nil
	})
	if err != nil {
		logger.GetLogger().WithError(err).WithField("match_id", matchID).Warn("Match transition refused")
		return nil, err
	}

	metrics.ObserveMatchTransition(string(updated.Status))
	logger.GetLogger().WithFields(map[string]interface{}{
		"match_id":       updated.ID,
		"transaction_id": updated.TransactionID,
		"status":         updated.Status,
	}).Info("Match transitioned")
	return updated, nil
}

func checkNoConfirmed(op string, tx repository.Tx, invoiceID, transactionID string) error {
	byTx, err := tx.ListMatchesByTransaction(transactionID)
	if err != nil {
		return err
	}
	byInvoice, err := tx.ListMatchesByInvoice(invoiceID)
	if err != nil {
		return err
	}
	for _, m := range append(byTx, byInvoice...) {
		if m.Status == domain.MatchConfirmed {
			return apperrors.Conflict(op, "a confirmed match already exists for match "+m.ID)
		}
	}
	return nil
}

// Suggestion is an advisory candidate pair. It is never stored by Suggest.
type Suggestion struct {
	InvoiceID         string          `json:"invoice_id"`
	TransactionID     string          `json:"transaction_id"`
	Score             float64         `json:"score"`
	InvoiceAmount     decimal.Decimal `json:"invoice_amount"`
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
	InvoiceDate       time.Time       `json:"invoice_date"`
	TransactionDate   time.Time       `json:"transaction_date"`
}

type SuggestOptions struct {
	MinScore float64
	// Limit caps the result; zero means no cap.
	Limit int
}

// Suggest scores pending transactions of r against invoices that have no
// confirmed match. Pairs already pending or rejected are left out.
func (e *Engine) Suggest(ctx context.Context, r domain.DateRange, opts SuggestOptions) ([]Suggestion, error) {
	transactions, err := e.store.ListTransactionsByStatus(ctx, r, domain.TransactionPending)
	if err != nil {
		return nil, err
	}
	if len(transactions) == 0 {
		return []Suggestion{}, nil
	}

	invoices, err := e.store.ListInvoicesByDateRange(ctx, e.strategy.Window(r))
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(invoices))
	for i, inv := range invoices {
		ids[i] = inv.ID
	}
	confirmed, err := e.store.ConfirmedInvoiceIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	candidates := make([]domain.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if confirmed[inv.ID] || inv.PaymentStatus == domain.PaymentCancelled {
			continue
		}
		candidates = append(candidates, inv)
	}

	suggestions := make([]Suggestion, 0)
	for _, bankTx := range transactions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		seen, err := e.store.ListMatchesByTransaction(ctx, bankTx.ID)
		if err != nil {
			return nil, err
		}
		excluded := make(map[string]bool, len(seen))
		for _, m := range seen {
			excluded[m.InvoiceID] = true
		}

		for _, inv := range candidates {
			if excluded[inv.ID] {
				continue
			}
			score, ok := e.strategy.Score(inv, bankTx)
			if !ok || score < opts.MinScore {
				continue
			}
			suggestions = append(suggestions, Suggestion{
				InvoiceID:         inv.ID,
				TransactionID:     bankTx.ID,
				Score:             score,
				InvoiceAmount:     *inv.Amount,
				TransactionAmount: bankTx.Amount,
				InvoiceDate:       *inv.InvoiceDate,
				TransactionDate:   bankTx.TransactionDate,
			})
		}
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.TransactionDate.Equal(b.TransactionDate) {
			return a.TransactionDate.Before(b.TransactionDate)
		}
		if a.TransactionID != b.TransactionID {
			return a.TransactionID < b.TransactionID
		}
		return a.InvoiceID < b.InvoiceID
	})
	if opts.Limit > 0 && len(suggestions) > opts.Limit {
		suggestions = suggestions[:opts.Limit]
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"start":       r.Start.Format(domain.DateLayout),
		"end":         r.End.Format(domain.DateLayout),
		"suggestions": len(suggestions),
	}).Info("Match suggestions computed")
	return suggestions, nil
}

// ProposeSuggestions proposes the best suggestion for each transaction.
// Pairs that conflict by the time they are proposed are skipped.
func (e *Engine) ProposeSuggestions(ctx context.Context, r domain.DateRange, opts SuggestOptions) ([]domain.Match, error) {
	suggestions, err := e.Suggest(ctx, r, SuggestOptions{MinScore: opts.MinScore})
	if err != nil {
		return nil, err
	}

	proposed := make([]domain.Match, 0)
	usedTx := make(map[string]bool)
	usedInvoice := make(map[string]bool)
	for _, s := range suggestions {
		if opts.Limit > 0 && len(proposed) >= opts.Limit {
			break
		}
		if usedTx[s.TransactionID] || usedInvoice[s.InvoiceID] {
			continue
		}
		score := s.Score
		m, err := e.propose(ctx, s.InvoiceID, s.TransactionID, &score)
		if apperrors.Is(err, apperrors.KindConflict) || apperrors.Is(err, apperrors.KindInvalidState) {
			logger.GetLogger().WithError(err).WithField("transaction_id", s.TransactionID).Warn("Skipping suggestion")
			continue
		}
		if err != nil {
			return proposed, err
		}
		usedTx[s.TransactionID] = true
		usedInvoice[s.InvoiceID] = true
		proposed = append(proposed, *m)
	}
	return proposed, nil
}
