package parser

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-ledger/internal/domain"
)

func TestCSVBankTransactionParser_Parse(t *testing.T) {
	csvData := `transaction_date,description,amount,package_id,needs_invoice
2024-03-06,AEGEAN AIRLINES,-500.00,,true
06/03/2024,CLIENT TRANSFER,1200,pkg-1,false
2024-03-07,ATM FEE,-2.50,,`

	p := NewCSVBankTransactionParser()
	var got []domain.BankTransaction
	stats, err := p.Parse(strings.NewReader(csvData), 10, func(batch []domain.BankTransaction) error {
		got = append(got, batch...)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, Stats{Rows: 3, Parsed: 3}, stats)
	require.Len(t, got, 3)

	assert.Equal(t, time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC), got[0].TransactionDate)
	assert.True(t, got[0].Amount.Equal(decimal.NewFromInt(-500)))
	assert.True(t, got[0].NeedsInvoice)
	assert.Nil(t, got[0].PackageID)
	assert.Equal(t, domain.TransactionPending, got[0].Status)

	assert.Equal(t, time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC), got[1].TransactionDate, "dd/mm/yyyy")
	require.NotNil(t, got[1].PackageID)
	assert.Equal(t, "pkg-1", *got[1].PackageID)
	assert.False(t, got[1].NeedsInvoice)

	assert.True(t, got[2].NeedsInvoice, "default applies to empty cells")
}

func TestCSVBankTransactionParser_SkipsInvalidRows(t *testing.T) {
	csvData := `Transaction_Date, Description, Amount
2024-03-06,OK,10
not-a-date,BAD DATE,10
2024-03-06,BAD AMOUNT,ten
2024-03-08,OK,20`

	var got []domain.BankTransaction
	stats, err := NewCSVBankTransactionParser().Parse(strings.NewReader(csvData), 10, func(batch []domain.BankTransaction) error {
		got = append(got, batch...)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, Stats{Rows: 4, Parsed: 2, Skipped: 2}, stats)
	assert.Len(t, got, 2)
}

func TestCSVBankTransactionParser_Batches(t *testing.T) {
	var b strings.Builder
	b.WriteString("transaction_date,description,amount\n")
	for i := 0; i < 7; i++ {
		b.WriteString("2024-03-06,ROW,1\n")
	}

	var sizes []int
	_, err := NewCSVBankTransactionParser().Parse(strings.NewReader(b.String()), 3, func(batch []domain.BankTransaction) error {
		sizes = append(sizes, len(batch))
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int{3, 3, 1}, sizes)
}

func TestCSVBankTransactionParser_CallbackErrorStops(t *testing.T) {
	csvData := "transaction_date,description,amount\n2024-03-06,A,1\n2024-03-07,B,2\n"
	boom := errors.New("store down")

	_, err := NewCSVBankTransactionParser().Parse(strings.NewReader(csvData), 1, func([]domain.BankTransaction) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestCSVBankTransactionParser_InvalidFormat(t *testing.T) {
	csvData := `date,amount
2024-03-06,10`

	_, err := NewCSVBankTransactionParser().Parse(strings.NewReader(csvData), 10, func([]domain.BankTransaction) error {
		return nil
	})

	assert.ErrorIs(t, err, ErrInvalidFormat)
	assert.Contains(t, err.Error(), "transaction_date")
}

func TestCSVBankTransactionParser_ParseFile(t *testing.T) {
	csvFile := filepath.Join(t.TempDir(), "statement.csv")
	csvContent := "\ufefftransaction_date,description,amount\n" +
		"15/01/2024,ATM WITHDRAWAL,-100.50\n" +
		"16.01.2024,REFUND,200.75\n"
	require.NoError(t, os.WriteFile(csvFile, []byte(csvContent), 0644))

	var txs []domain.BankTransaction
	stats, err := NewCSVBankTransactionParser().ParseFile(csvFile, 100, func(batch []domain.BankTransaction) error {
		txs = append(txs, batch...)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, stats.Parsed)
	require.Len(t, txs, 2)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), txs[0].TransactionDate)
	assert.True(t, txs[1].Amount.Equal(decimal.RequireFromString("200.75")))
}

func TestCSVBankTransactionParser_ParseFileMissing(t *testing.T) {
	_, err := NewCSVBankTransactionParser().ParseFile(filepath.Join(t.TempDir(), "absent.csv"), 10, func([]domain.BankTransaction) error {
		return nil
	})
	assert.Error(t, err)
}
