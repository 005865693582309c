package service

import (
	"context"

	"travel-ledger/internal/domain"
	"travel-ledger/internal/matcher"
	"travel-ledger/internal/period"
	"travel-ledger/internal/repository"
)

// ReconciliationService exposes the match lifecycle and suggestions per accounting month.
type ReconciliationService interface {
	Propose(ctx context.Context, invoiceID, transactionID string) (*domain.Match, error)
	Confirm(ctx context.Context, matchID string) (*domain.Match, error)
	Reject(ctx context.Context, matchID string) (*domain.Match, error)
	Get(ctx context.Context, matchID string) (*domain.Match, error)
	ListByTransaction(ctx context.Context, transactionID string) ([]domain.Match, error)
	ListByInvoice(ctx context.Context, invoiceID string) ([]domain.Match, error)
	Suggest(ctx context.Context, p period.Period, opts matcher.SuggestOptions) ([]matcher.Suggestion, error)
	// AutoPropose records the best suggestions for p as pending matches.
	AutoPropose(ctx context.Context, p period.Period, opts matcher.SuggestOptions) ([]domain.Match, error)
}

type reconciliationService struct {
	store  repository.Store
	engine *matcher.Engine
}

func NewReconciliationService(store repository.Store, engine *matcher.Engine) ReconciliationService {
	return &reconciliationService{store: store, engine: engine}
}

func (s *reconciliationService) Propose(ctx context.Context, invoiceID, transactionID string) (*domain.Match, error) {
	return s.engine.Propose(ctx, invoiceID, transactionID)
}

func (s *reconciliationService) Confirm(ctx context.Context, matchID string) (*domain.Match, error) {
	return s.engine.Confirm(ctx, matchID)
}

func (s *reconciliationService) Reject(ctx context.Context, matchID string) (*domain.Match, error) {
	return s.engine.Reject(ctx, matchID)
}

func (s *reconciliationService) Get(ctx context.Context, matchID string) (*domain.Match, error) {
	return s.store.GetMatch(ctx, matchID)
}

func (s *reconciliationService) ListByTransaction(ctx context.Context, transactionID string) ([]domain.Match, error) {
	if _, err := s.store.GetTransaction(ctx, transactionID); err != nil {
		return nil, err
	}
	return s.store.ListMatchesByTransaction(ctx, transactionID)
}

func (s *reconciliationService) ListByInvoice(ctx context.Context, invoiceID string) ([]domain.Match, error) {
	if _, err := s.store.GetInvoice(ctx, invoiceID); err != nil {
		return nil, err
	}
	return s.store.ListMatchesByInvoice(ctx, invoiceID)
}

func (s *reconciliationService) Suggest(ctx context.Context, p period.Period, opts matcher.SuggestOptions) ([]matcher.Suggestion, error) {
	return s.engine.Suggest(ctx, p.Range(), opts)
}

func (s *reconciliationService) AutoPropose(ctx context.Context, p period.Period, opts matcher.SuggestOptions) ([]domain.Match, error) {
	return s.engine.ProposeSuggestions(ctx, p.Range(), opts)
}
