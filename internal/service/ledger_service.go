package service

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"travel-ledger/internal/domain"
	"travel-ledger/internal/period"
	"travel-ledger/internal/repository"
	"travel-ledger/pkg/logger"
)

var hundred = decimal.NewFromInt(100)

// LedgerService aggregates a package's invoices into a financial summary.
type LedgerService interface {
	// Summarize reads the package's invoices, restricted to p's window when
	// p is non-nil. It never writes to the store.
	Summarize(ctx context.Context, packageID string, p *period.Period) (*domain.LedgerSummary, error)
}

type ledgerService struct {
	store repository.Store
}

func NewLedgerService(store repository.Store) LedgerService {
	return &ledgerService{store: store}
}

func (s *ledgerService) Summarize(ctx context.Context, packageID string, p *period.Period) (*domain.LedgerSummary, error) {
	pkg, err := s.store.GetPackage(ctx, packageID)
	if err != nil {
		return nil, err
	}

	var window *domain.DateRange
	summary := &domain.LedgerSummary{
		PackageID:           pkg.ID,
		ExpenseTotal:        decimal.Zero,
		IncomeTotal:         decimal.Zero,
		TargetMarginPercent: pkg.TargetMarginPercent,
		ReconciledAmount:    decimal.Zero,
		Outstanding: domain.OutstandingSummary{
			ExpensePending: decimal.Zero,
			ExpenseOverdue: decimal.Zero,
			IncomePending:  decimal.Zero,
			IncomeOverdue:  decimal.Zero,
		},
		Currencies: []string{},
	}
	if p != nil {
		r := p.Range()
		window = &r
		summary.MonthKey = p.MonthKey
	}

	invoices, err := s.store.ListInvoicesByPackage(ctx, packageID, window)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(invoices))
	for i, inv := range invoices {
		ids[i] = inv.ID
	}
	confirmed, err := s.store.ConfirmedInvoiceIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	currencies := make(map[string]bool)
	for _, inv := range invoices {
		summary.InvoiceCount++
		if inv.PaymentStatus == domain.PaymentCancelled {
			summary.Cancelled++
			continue
		}
		if confirmed[inv.ID] {
			summary.ReconciledCount++
			if inv.Amount != nil {
				summary.ReconciledAmount = summary.ReconciledAmount.Add(*inv.Amount)
			}
		}
		if inv.Amount == nil {
			summary.PendingExtraction++
			continue
		}

		amount := *inv.Amount
		currencies[inv.Currency] = true
		switch inv.Type {
		case domain.InvoiceExpense:
			summary.ExpenseTotal = summary.ExpenseTotal.Add(amount)
		case domain.InvoiceIncome:
			summary.IncomeTotal = summary.IncomeTotal.Add(amount)
		}
		addOutstanding(&summary.Outstanding, inv.Type, inv.PaymentStatus, amount)
	}

	for c := range currencies {
		summary.Currencies = append(summary.Currencies, c)
	}
	sort.Strings(summary.Currencies)

	if summary.IncomeTotal.IsPositive() {
		margin := summary.IncomeTotal.Sub(summary.ExpenseTotal).Div(summary.IncomeTotal)
		summary.RealizedMargin = &margin
		summary.BelowTarget = margin.Mul(hundred).LessThan(pkg.TargetMarginPercent)
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"package_id": packageID,
		"month":      summary.MonthKey,
		"invoices":   summary.InvoiceCount,
	}).Debug("Package summarized")
	return summary, nil
}

func addOutstanding(o *domain.OutstandingSummary, t domain.InvoiceType, status domain.PaymentStatus, amount decimal.Decimal) {
	if !status.Outstanding() {
		return
	}
	o.Count++
	switch {
	case t == domain.InvoiceExpense && status == domain.PaymentPending:
		o.ExpensePending = o.ExpensePending.Add(amount)
	case t == domain.InvoiceExpense && status == domain.PaymentOverdue:
		o.ExpenseOverdue = o.ExpenseOverdue.Add(amount)
	case t == domain.InvoiceIncome && status == domain.PaymentPending:
		o.IncomePending = o.IncomePending.Add(amount)
	case t == domain.InvoiceIncome && status == domain.PaymentOverdue:
		o.IncomeOverdue = o.IncomeOverdue.Add(amount)
	}
}
