package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"travel-ledger/internal/apperrors"
	"travel-ledger/internal/domain"
)

type MemoryStoreSuite struct {
	suite.Suite
	ctx      context.Context
	store    *MemoryStore
	pkg      *domain.Package
	supplier *domain.Supplier
	customer *domain.Customer
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewMemoryStore()

	s.customer = &domain.Customer{Name: "Acme Travel Club"}
	s.Require().NoError(s.store.CreateCustomer(s.ctx, s.customer))

	s.supplier = &domain.Supplier{Name: "Aegean Airlines"}
	s.Require().NoError(s.store.CreateSupplier(s.ctx, s.supplier))

	s.pkg = &domain.Package{
		Name:                "Crete spring tour",
		CustomerID:          &s.customer.ID,
		StartDate:           day(2024, time.March, 1),
		EndDate:             day(2024, time.March, 10),
		TargetMarginPercent: decimal.NewFromInt(15),
	}
	s.Require().NoError(s.store.CreatePackage(s.ctx, s.pkg))
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func amount(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func (s *MemoryStoreSuite) expense(v string, date time.Time) *domain.Invoice {
	inv := &domain.Invoice{
		PackageID:   &s.pkg.ID,
		SupplierID:  &s.supplier.ID,
		Type:        domain.InvoiceExpense,
		Category:    domain.CategoryAirline,
		Amount:      amount(v),
		Currency:    "EUR",
		InvoiceDate: &date,
	}
	s.Require().NoError(s.store.CreateInvoice(s.ctx, inv))
	return inv
}

func (s *MemoryStoreSuite) transaction(v string, date time.Time) *domain.BankTransaction {
	tx := &domain.BankTransaction{
		TransactionDate: date,
		Description:     "card payment",
		Amount:          decimal.RequireFromString(v),
		NeedsInvoice:    true,
	}
	s.Require().NoError(s.store.CreateTransaction(s.ctx, tx))
	return tx
}

func assertValidation(t assert.TestingT, err error, field string) {
	var appErr *apperrors.Error
	if assert.ErrorAs(t, err, &appErr) {
		assert.Equal(t, apperrors.KindValidation, appErr.Kind)
		assert.Equal(t, field, appErr.Field)
	}
}

func (s *MemoryStoreSuite) TestCreatePackage_SetsDefaults() {
	s.NotEmpty(s.pkg.ID)
	s.Equal(domain.PackageQuote, s.pkg.Status)
	s.False(s.pkg.CreatedAt.IsZero())
	s.Equal(s.pkg.CreatedAt, s.pkg.UpdatedAt)
}

func (s *MemoryStoreSuite) TestCreatePackage_Invariants() {
	tests := []struct {
		name  string
		pkg   domain.Package
		field string
	}{
		{"blank name", domain.Package{Name: "  ", StartDate: day(2024, 1, 1), EndDate: day(2024, 1, 2)}, "name"},
		{"start after end", domain.Package{Name: "x", StartDate: day(2024, 1, 3), EndDate: day(2024, 1, 2)}, "start_date"},
		{"margin above 100", domain.Package{Name: "x", StartDate: day(2024, 1, 1), EndDate: day(2024, 1, 2), TargetMarginPercent: decimal.NewFromInt(101)}, "target_margin_percent"},
		{"unknown status", domain.Package{Name: "x", StartDate: day(2024, 1, 1), EndDate: day(2024, 1, 2), Status: "draft"}, "status"},
		{"missing customer", domain.Package{Name: "x", StartDate: day(2024, 1, 1), EndDate: day(2024, 1, 2), CustomerID: strPtr("00000000-0000-0000-0000-000000000001")}, "customer_id"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			pkg := tt.pkg
			assertValidation(s.T(), s.store.CreatePackage(s.ctx, &pkg), tt.field)
		})
	}
}

func strPtr(v string) *string {
	return &v
}

func (s *MemoryStoreSuite) TestUpdatePackage_StatusOnlyMovesForward() {
	s.pkg.Status = domain.PackageCompleted
	s.Require().NoError(s.store.UpdatePackage(s.ctx, s.pkg))

	s.pkg.Status = domain.PackageActive
	assertValidation(s.T(), s.store.UpdatePackage(s.ctx, s.pkg), "status")

	stored, err := s.store.GetPackage(s.ctx, s.pkg.ID)
	s.Require().NoError(err)
	s.Equal(domain.PackageCompleted, stored.Status)
}

func (s *MemoryStoreSuite) TestUpdatePackage_BumpsUpdatedAt() {
	clock := day(2024, time.April, 1)
	store := NewMemoryStore(WithClock(func() time.Time { return clock }))
	pkg := &domain.Package{Name: "x", StartDate: day(2024, 1, 1), EndDate: day(2024, 1, 2)}
	s.Require().NoError(store.CreatePackage(s.ctx, pkg))

	clock = clock.Add(time.Hour)
	pkg.Status = domain.PackageActive
	s.Require().NoError(store.UpdatePackage(s.ctx, pkg))

	s.Equal(day(2024, time.April, 1), pkg.CreatedAt)
	s.Equal(clock, pkg.UpdatedAt)
}

func (s *MemoryStoreSuite) TestCreateSupplier_BlankName() {
	assertValidation(s.T(), s.store.CreateSupplier(s.ctx, &domain.Supplier{Name: "\t"}), "name")
	assertValidation(s.T(), s.store.CreateCustomer(s.ctx, &domain.Customer{Name: ""}), "name")
}

func (s *MemoryStoreSuite) TestCreateInvoice_Invariants() {
	base := func() domain.Invoice {
		return domain.Invoice{
			PackageID: &s.pkg.ID,
			Type:      domain.InvoiceExpense,
			Category:  domain.CategoryHotel,
			Currency:  "EUR",
		}
	}
	confidence := 1.5

	tests := []struct {
		name   string
		mutate func(*domain.Invoice)
		field  string
	}{
		{"negative amount", func(i *domain.Invoice) { i.Amount = amount("-1") }, "amount"},
		{"unknown type", func(i *domain.Invoice) { i.Type = "refund" }, "type"},
		{"unknown category", func(i *domain.Invoice) { i.Category = "cruise" }, "category"},
		{"unknown payment status", func(i *domain.Invoice) { i.PaymentStatus = "partial" }, "payment_status"},
		{"bad currency", func(i *domain.Invoice) { i.Currency = "eu" }, "currency"},
		{"expense with customer", func(i *domain.Invoice) { i.CustomerID = &s.customer.ID }, "customer_id"},
		{"income with supplier", func(i *domain.Invoice) { i.Type = domain.InvoiceIncome; i.SupplierID = &s.supplier.ID }, "supplier_id"},
		{"missing supplier", func(i *domain.Invoice) { i.SupplierID = strPtr("00000000-0000-0000-0000-000000000002") }, "supplier_id"},
		{"missing package", func(i *domain.Invoice) { i.PackageID = strPtr("00000000-0000-0000-0000-000000000003") }, "package_id"},
		{"confidence out of range", func(i *domain.Invoice) { i.Extracted = &domain.ExtractedData{Confidence: &confidence} }, "extracted_data.confidence"},
		{"negative extracted amount", func(i *domain.Invoice) { i.Extracted = &domain.ExtractedData{Amount: amount("-3")} }, "extracted_data.amount"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			inv := base()
			tt.mutate(&inv)
			assertValidation(s.T(), s.store.CreateInvoice(s.ctx, &inv), tt.field)
		})
	}

	inv := base()
	s.NoError(s.store.CreateInvoice(s.ctx, &inv), "nil amount is allowed until extraction")
	s.Equal(domain.PaymentPending, inv.PaymentStatus)
}

func (s *MemoryStoreSuite) TestUpdateInvoice_ValidationFailureKeepsRow() {
	inv := s.expense("100", day(2024, time.March, 2))

	inv.Amount = amount("-5")
	assertValidation(s.T(), s.store.UpdateInvoice(s.ctx, inv), "amount")

	stored, err := s.store.GetInvoice(s.ctx, inv.ID)
	s.Require().NoError(err)
	s.True(stored.Amount.Equal(decimal.NewFromInt(100)))
}

func (s *MemoryStoreSuite) TestGetInvoice_NotFound() {
	_, err := s.store.GetInvoice(s.ctx, "missing")
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *MemoryStoreSuite) TestListInvoicesByPackage_Range() {
	s.expense("100", day(2024, time.February, 29))
	march1 := s.expense("200", day(2024, time.March, 1))
	march31 := s.expense("300", day(2024, time.March, 31))
	s.expense("400", day(2024, time.April, 1))

	r := domain.NewDateRange(day(2024, time.March, 1), day(2024, time.March, 31))
	invoices, err := s.store.ListInvoicesByPackage(s.ctx, s.pkg.ID, &r)
	s.Require().NoError(err)
	s.Require().Len(invoices, 2)
	s.Equal(march1.ID, invoices[0].ID)
	s.Equal(march31.ID, invoices[1].ID)

	all, err := s.store.ListInvoicesByPackage(s.ctx, s.pkg.ID, nil)
	s.Require().NoError(err)
	s.Len(all, 4)

	ids, err := s.store.PackageIDsWithInvoices(s.ctx, r)
	s.Require().NoError(err)
	s.Equal([]string{s.pkg.ID}, ids)
}

func (s *MemoryStoreSuite) TestListTransactionsByStatus() {
	pending := s.transaction("-50", day(2024, time.March, 3))
	ignored := &domain.BankTransaction{TransactionDate: day(2024, time.March, 4), Amount: decimal.NewFromInt(10), Status: domain.TransactionIgnored}
	s.Require().NoError(s.store.CreateTransaction(s.ctx, ignored))
	s.transaction("-60", day(2024, time.April, 3))

	r := domain.NewDateRange(day(2024, time.March, 1), day(2024, time.March, 31))
	txs, err := s.store.ListTransactionsByStatus(s.ctx, r, domain.TransactionPending)
	s.Require().NoError(err)
	s.Require().Len(txs, 1)
	s.Equal(pending.ID, txs[0].ID)

	all, err := s.store.ListTransactionsByDateRange(s.ctx, r)
	s.Require().NoError(err)
	s.Len(all, 2)
}

func (s *MemoryStoreSuite) TestCreateTransaction_Invariants() {
	err := s.store.CreateTransaction(s.ctx, &domain.BankTransaction{
		TransactionDate: day(2024, 3, 1), Status: domain.TransactionIgnored, NeedsInvoice: true,
	})
	assertValidation(s.T(), err, "needs_invoice")

	err = s.store.CreateTransaction(s.ctx, &domain.BankTransaction{
		TransactionDate: day(2024, 3, 1), Status: domain.TransactionMatched,
	})
	assertValidation(s.T(), err, "status")

	err = s.store.CreateTransaction(s.ctx, &domain.BankTransaction{})
	assertValidation(s.T(), err, "transaction_date")
}

func (s *MemoryStoreSuite) TestBulkCreateTransactions_SkipsInvalid() {
	txs := []domain.BankTransaction{
		{TransactionDate: day(2024, 3, 1), Amount: decimal.NewFromInt(1)},
		{Amount: decimal.NewFromInt(2)},
		{TransactionDate: day(2024, 3, 2), Amount: decimal.NewFromInt(3)},
	}
	created, errs := s.store.BulkCreateTransactions(s.ctx, txs)
	s.Equal(2, created)
	s.Len(errs, 1)
}

func (s *MemoryStoreSuite) TestUpdateTransaction_MatchedRequiresConfirmedMatch() {
	tx := s.transaction("-50", day(2024, time.March, 3))
	tx.Status = domain.TransactionMatched
	assertValidation(s.T(), s.store.UpdateTransaction(s.ctx, tx), "status")
}

func (s *MemoryStoreSuite) TestRunLocked_ConfirmIsAtomic() {
	inv := s.expense("500", day(2024, time.March, 5))
	tx := s.transaction("500", day(2024, time.March, 6))

	var matchID string
	err := s.store.RunLocked(s.ctx, LockSet{InvoiceIDs: []string{inv.ID}, TransactionIDs: []string{tx.ID}}, func(t Tx) error {
		m := &domain.Match{InvoiceID: inv.ID, TransactionID: tx.ID}
		if err := t.CreateMatch(m); err != nil {
			return err
		}
		matchID = m.ID
		return nil
	})
	s.Require().NoError(err)

	err = s.store.RunLocked(s.ctx, LockSet{InvoiceIDs: []string{inv.ID}, TransactionIDs: []string{tx.ID}}, func(t Tx) error {
		m, err := t.GetMatch(matchID)
		if err != nil {
			return err
		}
		now := time.Now()
		m.Status = domain.MatchConfirmed
		m.MatchedAt = &now
		return t.UpdateMatch(m)
	})
	assertValidation(s.T(), err, "status")

	stored, err := s.store.GetMatch(s.ctx, matchID)
	s.Require().NoError(err)
	s.Equal(domain.MatchPending, stored.Status, "failed commit leaves no partial write")
}

func (s *MemoryStoreSuite) TestRunLocked_CallbackErrorDiscardsWrites() {
	inv := s.expense("500", day(2024, time.March, 5))
	tx := s.transaction("500", day(2024, time.March, 6))

	boom := assert.AnError
	err := s.store.RunLocked(s.ctx, LockSet{InvoiceIDs: []string{inv.ID}, TransactionIDs: []string{tx.ID}}, func(t Tx) error {
		if err := t.CreateMatch(&domain.Match{InvoiceID: inv.ID, TransactionID: tx.ID}); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	matches, err := s.store.ListMatchesByTransaction(s.ctx, tx.ID)
	s.Require().NoError(err)
	s.Empty(matches)
}

func (s *MemoryStoreSuite) TestRunLocked_SecondConfirmedMatchConflicts() {
	inv1 := s.expense("500", day(2024, time.March, 5))
	inv2 := s.expense("500", day(2024, time.March, 5))
	tx := s.transaction("500", day(2024, time.March, 6))
	set := LockSet{InvoiceIDs: []string{inv1.ID, inv2.ID}, TransactionIDs: []string{tx.ID}}

	s.Require().NoError(s.store.RunLocked(s.ctx, set, func(t Tx) error {
		if err := t.CreateMatch(&domain.Match{InvoiceID: inv1.ID, TransactionID: tx.ID, Status: domain.MatchConfirmed}); err != nil {
			return err
		}
		current, err := t.GetTransaction(tx.ID)
		if err != nil {
			return err
		}
		current.Status = domain.TransactionMatched
		current.NeedsInvoice = false
		return t.UpdateTransaction(current)
	}))

	err := s.store.RunLocked(s.ctx, set, func(t Tx) error {
		return t.CreateMatch(&domain.Match{InvoiceID: inv2.ID, TransactionID: tx.ID, Status: domain.MatchConfirmed})
	})
	s.ErrorIs(err, apperrors.ErrConflict)

	confirmed, err := s.store.ConfirmedInvoiceIDs(s.ctx, []string{inv1.ID, inv2.ID})
	s.Require().NoError(err)
	s.Equal(map[string]bool{inv1.ID: true}, confirmed)
}

func (s *MemoryStoreSuite) TestRunLocked_TimesOutWhileRowIsHeld() {
	tx := s.transaction("500", day(2024, time.March, 6))
	set := LockSet{TransactionIDs: []string{tx.ID}}

	held := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = s.store.RunLocked(s.ctx, set, func(Tx) error {
			close(held)
			<-done
			return nil
		})
	}()
	<-held
	defer close(done)

	ctx, cancel := context.WithTimeout(s.ctx, 20*time.Millisecond)
	defer cancel()
	err := s.store.RunLocked(ctx, set, func(Tx) error { return nil })
	s.ErrorIs(err, apperrors.ErrTimeout)
}

func (s *MemoryStoreSuite) TestUpdateMatch_IdentityIsImmutable() {
	inv := s.expense("500", day(2024, time.March, 5))
	other := s.expense("20", day(2024, time.March, 5))
	tx := s.transaction("500", day(2024, time.March, 6))
	set := LockSet{InvoiceIDs: []string{inv.ID, other.ID}, TransactionIDs: []string{tx.ID}}

	m := &domain.Match{InvoiceID: inv.ID, TransactionID: tx.ID}
	s.Require().NoError(s.store.RunLocked(s.ctx, set, func(t Tx) error { return t.CreateMatch(m) }))

	err := s.store.RunLocked(s.ctx, set, func(t Tx) error {
		changed := *m
		changed.InvoiceID = other.ID
		return t.UpdateMatch(&changed)
	})
	assertValidation(s.T(), err, "invoice_id")
}

func (s *MemoryStoreSuite) TestExportLogs_AppendOnly() {
	first := &domain.ExportLog{MonthYear: "2024-03", PackagesIncluded: 1, InvoicesIncluded: 2}
	second := &domain.ExportLog{MonthYear: "2024-03", PackagesIncluded: 1, InvoicesIncluded: 3}
	s.Require().NoError(s.store.CreateExportLog(s.ctx, first))
	s.Require().NoError(s.store.CreateExportLog(s.ctx, second))
	s.Require().NoError(s.store.CreateExportLog(s.ctx, &domain.ExportLog{MonthYear: "2024-04"}))

	logs, err := s.store.ListExportLogs(s.ctx, "2024-03")
	s.Require().NoError(err)
	s.Len(logs, 2)
	s.NotEqual(logs[0].ID, logs[1].ID)

	assertValidation(s.T(), s.store.CreateExportLog(s.ctx, &domain.ExportLog{MonthYear: "2024-13"}), "month_year")
	assertValidation(s.T(), s.store.CreateExportLog(s.ctx, &domain.ExportLog{MonthYear: "2024-05", InvoicesIncluded: -1}), "invoices_included")
}

func TestLockSet_KeysAreSortedAndUnique(t *testing.T) {
	set := LockSet{InvoiceIDs: []string{"b", "a", "b"}, TransactionIDs: []string{"a"}}
	assert.Equal(t, []string{"invoice:a", "invoice:b", "transaction:a"}, set.Keys())
}

func TestRowLocks_ReleaseAllowsReacquire(t *testing.T) {
	locks := newRowLocks()
	release, err := locks.acquire(context.Background(), []string{"invoice:1", "transaction:1"})
	require.NoError(t, err)
	release()

	release, err = locks.acquire(context.Background(), []string{"invoice:1"})
	require.NoError(t, err)
	release()
}
