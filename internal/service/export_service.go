package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"travel-ledger/internal/domain"
	"travel-ledger/internal/metrics"
	"travel-ledger/internal/period"
	"travel-ledger/internal/repository"
	"travel-ledger/pkg/logger"
)

const DefaultExportConcurrency = 4

// ExportService appends a log row each time a month is sent.
type ExportService interface {
	// Record snapshots the counts for p and writes exactly one row. Repeated
	// calls append further rows.
	Record(ctx context.Context, p period.Period) (*domain.ExportLog, error)
	// List returns the rows for a YYYY-MM key, or all rows when it is empty.
	List(ctx context.Context, monthKey string) ([]domain.ExportLog, error)
}

type exportService struct {
	store       repository.Store
	ledger      LedgerService
	resolver    *period.Resolver
	concurrency int
	now         func() time.Time
}

func NewExportService(store repository.Store, ledger LedgerService, resolver *period.Resolver, concurrency int) ExportService {
	if concurrency <= 0 {
		concurrency = DefaultExportConcurrency
	}
	return &exportService{
		store:       store,
		ledger:      ledger,
		resolver:    resolver,
		concurrency: concurrency,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *exportService) Record(ctx context.Context, p period.Period) (*domain.ExportLog, error) {
	packageIDs, err := s.store.PackageIDsWithInvoices(ctx, p.Range())
	if err != nil {
		return nil, err
	}

	counts := make([]int, len(packageIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, id := range packageIDs {
		i, id := i, id
		g.Go(func() error {
			summary, err := s.ledger.Summarize(gctx, id, &p)
			if err != nil {
				return err
			}
			counts[i] = summary.InvoiceCount
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	invoices := 0
	for _, c := range counts {
		invoices += c
	}

	log := &domain.ExportLog{
		MonthYear:        p.MonthKey,
		SentAt:           s.now(),
		PackagesIncluded: len(packageIDs),
		InvoicesIncluded: invoices,
	}
	if err := s.store.CreateExportLog(ctx, log); err != nil {
		return nil, err
	}

	metrics.Exports.Inc()
	logger.GetLogger().WithFields(map[string]interface{}{
		"month":    log.MonthYear,
		"packages": log.PackagesIncluded,
		"invoices": log.InvoicesIncluded,
	}).Info("Export recorded")
	return log, nil
}

func (s *exportService) List(ctx context.Context, monthKey string) ([]domain.ExportLog, error) {
	if monthKey != "" {
		if _, err := s.resolver.ParseMonthKey(monthKey); err != nil {
			return nil, err
		}
	}
	return s.store.ListExportLogs(ctx, monthKey)
}
