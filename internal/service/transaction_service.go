package service

import (
	"context"
	"io"

	"travel-ledger/internal/apperrors"
	"travel-ledger/internal/domain"
	"travel-ledger/internal/metrics"
	"travel-ledger/internal/parser"
	"travel-ledger/internal/repository"
	"travel-ledger/pkg/logger"
)

// ImportResult reports what a statement import stored.
type ImportResult struct {
	parser.Stats
	Created int      `json:"created"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

type TransactionService interface {
	Create(ctx context.Context, tx *domain.BankTransaction) error
	Import(ctx context.Context, r io.Reader) (*ImportResult, error)
	Get(ctx context.Context, id string) (*domain.BankTransaction, error)
	List(ctx context.Context, r domain.DateRange, status domain.TransactionStatus) ([]domain.BankTransaction, error)
	// AssignPackage links the transaction to a package, or unlinks it when packageID is nil.
	AssignPackage(ctx context.Context, id string, packageID *string) (*domain.BankTransaction, error)
	// Ignore marks a transaction as not needing reconciliation.
	Ignore(ctx context.Context, id string) (*domain.BankTransaction, error)
}

type transactionService struct {
	store     repository.Store
	parser    parser.BankTransactionParser
	batchSize int
}

func NewTransactionService(store repository.Store, p parser.BankTransactionParser, batchSize int) TransactionService {
	if p == nil {
		p = parser.NewCSVBankTransactionParser()
	}
	return &transactionService{store: store, parser: p, batchSize: batchSize}
}

func (s *transactionService) Create(ctx context.Context, tx *domain.BankTransaction) error {
	if tx.Status == domain.TransactionMatched {
		return apperrors.InvalidInput("service.CreateTransaction", "transactions become matched only through a confirmed match", nil)
	}
	return s.store.CreateTransaction(ctx, tx)
}

func (s *transactionService) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	result := &ImportResult{}
	stats, err := s.parser.Parse(r, s.batchSize, func(batch []domain.BankTransaction) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		created, errs := s.store.BulkCreateTransactions(ctx, batch)
		result.Created += created
		result.Failed += len(errs)
		for _, e := range errs {
			result.Errors = append(result.Errors, e.Error())
		}
		return nil
	})
	result.Stats = stats

	metrics.ImportedTransactions.WithLabelValues("created").Add(float64(result.Created))
	metrics.ImportedTransactions.WithLabelValues("failed").Add(float64(result.Failed))
	metrics.ImportedTransactions.WithLabelValues("skipped").Add(float64(stats.Skipped))

	if err != nil {
		logger.GetLogger().WithError(err).Error("Statement import failed")
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}
		return result, apperrors.InvalidInput("service.ImportTransactions", "unreadable statement", err)
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"rows":    stats.Rows,
		"created": result.Created,
		"failed":  result.Failed,
		"skipped": stats.Skipped,
	}).Info("Statement imported")
	return result, nil
}

func (s *transactionService) Get(ctx context.Context, id string) (*domain.BankTransaction, error) {
	return s.store.GetTransaction(ctx, id)
}

func (s *transactionService) List(ctx context.Context, r domain.DateRange, status domain.TransactionStatus) ([]domain.BankTransaction, error) {
	if !r.Valid() {
		return nil, apperrors.InvalidInput("service.ListTransactions", "start date cannot be after end date", nil)
	}
	if status == "" {
		return s.store.ListTransactionsByDateRange(ctx, r)
	}
	if !status.Valid() {
		return nil, apperrors.InvalidInput("service.ListTransactions", "unknown status "+string(status), nil)
	}
	return s.store.ListTransactionsByStatus(ctx, r, status)
}

func (s *transactionService) AssignPackage(ctx context.Context, id string, packageID *string) (*domain.BankTransaction, error) {
	var out *domain.BankTransaction
	err := s.store.RunLocked(ctx, repository.LockSet{TransactionIDs: []string{id}}, func(tx repository.Tx) error {
		current, err := tx.GetTransaction(id)
		if err != nil {
			return err
		}
		current.PackageID = packageID
		if err := tx.UpdateTransaction(current); err != nil {
			return err
		}
		out = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *transactionService) Ignore(ctx context.Context, id string) (*domain.BankTransaction, error) {
	const op = "service.IgnoreTransaction"
	var out *domain.BankTransaction
	err := s.store.RunLocked(ctx, repository.LockSet{TransactionIDs: []string{id}}, func(tx repository.Tx) error {
		current, err := tx.GetTransaction(id)
		if err != nil {
			return err
		}
		switch current.Status {
		case domain.TransactionMatched:
			return apperrors.InvalidState(op, "matched transactions cannot be ignored")
		case domain.TransactionIgnored:
			out = current
			return nil
		}
		current.Status = domain.TransactionIgnored
		current.NeedsInvoice = false
		if err := tx.UpdateTransaction(current); err != nil {
			return err
		}
		out = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.GetLogger().WithField("transaction_id", id).Info("Transaction ignored")
	return out, nil
}
