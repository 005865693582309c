package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-ledger/internal/apperrors"
	"travel-ledger/internal/domain"
)

func TestTransactionService_Import(t *testing.T) {
	f := newFixture(t)
	svc := NewTransactionService(f.store, nil, 2)

	csvData := "transaction_date,description,amount,package_id,needs_invoice\n" +
		"2024-03-06,SEPA CALDERA SUITES,-500.00," + f.pkg.ID + ",true\n" +
		"2024-03-07,CARD FEE,-2.50,,false\n" +
		"not-a-date,BROKEN,1.00,,\n" +
		"2024-03-08,UNKNOWN PACKAGE,-10.00,00000000-0000-0000-0000-000000000000,\n"

	result, err := svc.Import(f.ctx, strings.NewReader(csvData))
	require.NoError(t, err)

	assert.Equal(t, 4, result.Rows)
	assert.Equal(t, 3, result.Parsed)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 1, result.Failed)
	assert.Len(t, result.Errors, 1)

	txs, err := svc.List(f.ctx, f.march().Range(), "")
	require.NoError(t, err)
	assert.Len(t, txs, 2)
}

func TestTransactionService_ImportRejectsMissingColumns(t *testing.T) {
	f := newFixture(t)
	svc := NewTransactionService(f.store, nil, 0)

	_, err := svc.Import(f.ctx, strings.NewReader("date,amount\n2024-03-06,1\n"))
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidInput))
}

func TestTransactionService_CreateRefusesMatchedStatus(t *testing.T) {
	f := newFixture(t)
	svc := NewTransactionService(f.store, nil, 0)

	err := svc.Create(f.ctx, &domain.BankTransaction{
		TransactionDate: day(2024, 3, 1),
		Amount:          *dec("10"),
		Status:          domain.TransactionMatched,
	})
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidInput))
}

func TestTransactionService_Ignore(t *testing.T) {
	f := newFixture(t)
	svc := NewTransactionService(f.store, nil, 0)
	tx := f.transaction(t, "-15", day(2024, 3, 3))

	ignored, err := svc.Ignore(f.ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionIgnored, ignored.Status)
	assert.False(t, ignored.NeedsInvoice)

	again, err := svc.Ignore(f.ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionIgnored, again.Status)

	list, err := svc.List(f.ctx, f.march().Range(), domain.TransactionIgnored)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestTransactionService_IgnoreMatchedFails(t *testing.T) {
	f := newFixture(t)
	svc := NewTransactionService(f.store, nil, 0)
	inv := f.expense(t, dec("500"), day(2024, 3, 5), domain.PaymentPaid)
	tx := f.transaction(t, "-500", day(2024, 3, 6))

	m, err := f.engine.Propose(f.ctx, inv.ID, tx.ID)
	require.NoError(t, err)
	_, err = f.engine.Confirm(f.ctx, m.ID)
	require.NoError(t, err)

	_, err = svc.Ignore(f.ctx, tx.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidState))
}

func TestTransactionService_AssignPackage(t *testing.T) {
	f := newFixture(t)
	svc := NewTransactionService(f.store, nil, 0)
	tx := f.transaction(t, "-15", day(2024, 3, 3))

	updated, err := svc.AssignPackage(f.ctx, tx.ID, &f.pkg.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.PackageID)
	assert.Equal(t, f.pkg.ID, *updated.PackageID)

	missing := "00000000-0000-0000-0000-000000000000"
	_, err = svc.AssignPackage(f.ctx, tx.ID, &missing)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestTransactionService_ListValidatesInput(t *testing.T) {
	f := newFixture(t)
	svc := NewTransactionService(f.store, nil, 0)

	_, err := svc.List(f.ctx, domain.DateRange{Start: day(2024, 4, 1), End: day(2024, 3, 1)}, "")
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidInput))

	_, err = svc.List(f.ctx, f.march().Range(), "bogus")
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidInput))
}
