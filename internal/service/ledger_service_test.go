package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-ledger/internal/apperrors"
	"travel-ledger/internal/domain"
)

func TestLedgerService_MarginAndTotals(t *testing.T) {
	f := newFixture(t)
	f.expense(t, dec("1000"), day(2024, 3, 2), domain.PaymentPaid)
	f.income(t, dec("1200"), day(2024, 3, 3), domain.PaymentPaid)

	p := f.march()
	summary, err := NewLedgerService(f.store).Summarize(f.ctx, f.pkg.ID, &p)
	require.NoError(t, err)

	assert.Equal(t, "2024-03", summary.MonthKey)
	assert.True(t, summary.ExpenseTotal.Equal(*dec("1000")))
	assert.True(t, summary.IncomeTotal.Equal(*dec("1200")))
	require.NotNil(t, summary.RealizedMargin)
	assert.InDelta(t, 0.1667, summary.RealizedMargin.InexactFloat64(), 0.0001)
	assert.True(t, summary.BelowTarget)
	assert.Equal(t, 2, summary.InvoiceCount)
	assert.Equal(t, []string{"EUR"}, summary.Currencies)
}

func TestLedgerService_NoIncomeLeavesMarginUndefined(t *testing.T) {
	f := newFixture(t)
	f.expense(t, dec("300"), day(2024, 3, 2), domain.PaymentPending)

	summary, err := NewLedgerService(f.store).Summarize(f.ctx, f.pkg.ID, nil)
	require.NoError(t, err)

	assert.Nil(t, summary.RealizedMargin)
	assert.False(t, summary.BelowTarget)
	assert.Empty(t, summary.MonthKey)
	assert.True(t, summary.Outstanding.ExpensePending.Equal(*dec("300")))
	assert.Equal(t, 1, summary.Outstanding.Count)
}

func TestLedgerService_PendingExtractionAndCancelled(t *testing.T) {
	f := newFixture(t)
	f.expense(t, nil, day(2024, 3, 2), domain.PaymentPending)
	f.expense(t, dec("80"), day(2024, 3, 4), domain.PaymentCancelled)
	f.expense(t, dec("40"), day(2024, 3, 5), domain.PaymentOverdue)

	summary, err := NewLedgerService(f.store).Summarize(f.ctx, f.pkg.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.InvoiceCount)
	assert.Equal(t, 1, summary.PendingExtraction)
	assert.Equal(t, 1, summary.Cancelled)
	assert.True(t, summary.ExpenseTotal.Equal(*dec("40")))
	assert.True(t, summary.Outstanding.ExpenseOverdue.Equal(*dec("40")))
	assert.Equal(t, 1, summary.Outstanding.Count)
}

func TestLedgerService_PeriodExcludesOtherMonths(t *testing.T) {
	f := newFixture(t)
	f.expense(t, dec("100"), day(2024, 3, 31), domain.PaymentPaid)
	f.expense(t, dec("999"), day(2024, 4, 1), domain.PaymentPaid)

	p := f.march()
	summary, err := NewLedgerService(f.store).Summarize(f.ctx, f.pkg.ID, &p)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.InvoiceCount)
	assert.True(t, summary.ExpenseTotal.Equal(*dec("100")))
}

func TestLedgerService_OnlyConfirmedMatchesCountAsReconciled(t *testing.T) {
	f := newFixture(t)
	confirmed := f.expense(t, dec("500"), day(2024, 3, 5), domain.PaymentPaid)
	pending := f.expense(t, dec("200"), day(2024, 3, 6), domain.PaymentPaid)
	rejected := f.expense(t, dec("70"), day(2024, 3, 7), domain.PaymentPaid)

	m, err := f.engine.Propose(f.ctx, confirmed.ID, f.transaction(t, "-500", day(2024, 3, 6)).ID)
	require.NoError(t, err)
	_, err = f.engine.Confirm(f.ctx, m.ID)
	require.NoError(t, err)

	_, err = f.engine.Propose(f.ctx, pending.ID, f.transaction(t, "-200", day(2024, 3, 6)).ID)
	require.NoError(t, err)

	m, err = f.engine.Propose(f.ctx, rejected.ID, f.transaction(t, "-70", day(2024, 3, 7)).ID)
	require.NoError(t, err)
	_, err = f.engine.Reject(f.ctx, m.ID)
	require.NoError(t, err)

	p := f.march()
	summary, err := NewLedgerService(f.store).Summarize(f.ctx, f.pkg.ID, &p)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ReconciledCount)
	assert.True(t, summary.ReconciledAmount.Equal(*dec("500")))
}

func TestLedgerService_UnknownPackage(t *testing.T) {
	f := newFixture(t)

	_, err := NewLedgerService(f.store).Summarize(f.ctx, "00000000-0000-0000-0000-000000000000", nil)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}
