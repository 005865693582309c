package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-ledger/internal/apperrors"
	"travel-ledger/internal/domain"
)

func TestExportService_RecordAppendsRows(t *testing.T) {
	f := newFixture(t)
	f.expense(t, dec("500"), day(2024, 3, 5), domain.PaymentPaid)
	f.income(t, dec("800"), day(2024, 3, 6), domain.PaymentPending)
	f.expense(t, dec("10"), day(2024, 4, 2), domain.PaymentPaid)

	other := &domain.Package{Name: "Meteora Weekend", StartDate: day(2024, 3, 20), EndDate: day(2024, 3, 22)}
	require.NoError(t, f.store.CreatePackage(f.ctx, other))
	d := day(2024, 3, 21)
	require.NoError(t, f.store.CreateInvoice(f.ctx, &domain.Invoice{
		PackageID:   &other.ID,
		SupplierID:  &f.supplier.ID,
		Type:        domain.InvoiceExpense,
		Category:    domain.CategoryTransport,
		Amount:      dec("45"),
		Currency:    "EUR",
		InvoiceDate: &d,
	}))

	svc := NewExportService(f.store, NewLedgerService(f.store), f.resolver, 2)
	first, err := svc.Record(f.ctx, f.march())
	require.NoError(t, err)
	assert.Equal(t, "2024-03", first.MonthYear)
	assert.Equal(t, 2, first.PackagesIncluded)
	assert.Equal(t, 3, first.InvoicesIncluded)

	// a late invoice only shows up in rows recorded after it
	f.expense(t, dec("30"), day(2024, 3, 28), domain.PaymentPending)

	second, err := svc.Record(f.ctx, f.march())
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.InvoicesIncluded+1, second.InvoicesIncluded)
	assert.Equal(t, 2, second.PackagesIncluded)

	logs, err := svc.List(f.ctx, "2024-03")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	counts := map[string]int{}
	for _, l := range logs {
		counts[l.ID] = l.InvoicesIncluded
	}
	assert.Equal(t, 3, counts[first.ID])
	assert.Equal(t, 4, counts[second.ID])

	all, err := svc.List(f.ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestExportService_EmptyMonthStillLogged(t *testing.T) {
	f := newFixture(t)
	svc := NewExportService(f.store, NewLedgerService(f.store), f.resolver, 0)

	log, err := svc.Record(f.ctx, f.resolver.Resolve(day(2023, 1, 1)))
	require.NoError(t, err)
	assert.Equal(t, 0, log.PackagesIncluded)
	assert.Equal(t, 0, log.InvoicesIncluded)
}

func TestExportService_CancelledContextWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.expense(t, dec("500"), day(2024, 3, 5), domain.PaymentPaid)
	svc := NewExportService(f.store, NewLedgerService(f.store), f.resolver, 1)

	ctx, cancel := context.WithCancel(f.ctx)
	cancel()
	_, err := svc.Record(ctx, f.march())
	require.Error(t, err)

	logs, err := svc.List(f.ctx, "")
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestExportService_ListRejectsBadMonth(t *testing.T) {
	f := newFixture(t)
	svc := NewExportService(f.store, NewLedgerService(f.store), f.resolver, 1)

	_, err := svc.List(f.ctx, "March")
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidInput))
}
