package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-ledger/internal/domain"
	"travel-ledger/internal/matcher"
)

// An expense paid by bank transfer is proposed, confirmed and then counted
// exactly once in the month's summary.
func TestReconciliation_EndToEnd(t *testing.T) {
	f := newFixture(t)
	recon := NewReconciliationService(f.store, f.engine)
	ledger := NewLedgerService(f.store)

	inv := f.expense(t, dec("500"), day(2024, 3, 5), domain.PaymentPending)
	tx := f.transaction(t, "500", day(2024, 3, 6))

	suggestions, err := recon.Suggest(f.ctx, f.march(), matcher.SuggestOptions{})
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, inv.ID, suggestions[0].InvoiceID)

	m, err := recon.Propose(f.ctx, inv.ID, tx.ID)
	require.NoError(t, err)
	m, err = recon.Confirm(f.ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchConfirmed, m.Status)

	storedTx, err := f.store.GetTransaction(f.ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionMatched, storedTx.Status)
	assert.False(t, storedTx.NeedsInvoice)

	p := f.march()
	summary, err := ledger.Summarize(f.ctx, f.pkg.ID, &p)
	require.NoError(t, err)
	assert.True(t, summary.ExpenseTotal.Equal(*dec("500")))
	assert.True(t, summary.ReconciledAmount.Equal(*dec("500")))
	assert.Equal(t, 1, summary.ReconciledCount)

	byInvoice, err := recon.ListByInvoice(f.ctx, inv.ID)
	require.NoError(t, err)
	assert.Len(t, byInvoice, 1)

	suggestions, err = recon.Suggest(f.ctx, f.march(), matcher.SuggestOptions{})
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestReconciliation_AutoPropose(t *testing.T) {
	f := newFixture(t)
	recon := NewReconciliationService(f.store, f.engine)
	f.expense(t, dec("120"), day(2024, 3, 5), domain.PaymentPending)
	f.transaction(t, "-120", day(2024, 3, 5))

	matches, err := recon.AutoPropose(f.ctx, f.march(), matcher.SuggestOptions{MinScore: 0.5})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, domain.MatchPending, matches[0].Status)

	again, err := recon.AutoPropose(f.ctx, f.march(), matcher.SuggestOptions{MinScore: 0.5})
	require.NoError(t, err)
	assert.Empty(t, again)
}
