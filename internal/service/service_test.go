package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"travel-ledger/internal/domain"
	"travel-ledger/internal/matcher"
	"travel-ledger/internal/period"
	"travel-ledger/internal/repository"
)

type fixture struct {
	ctx      context.Context
	store    *repository.MemoryStore
	resolver *period.Resolver
	engine   *matcher.Engine
	pkg      *domain.Package
	supplier *domain.Supplier
	customer *domain.Customer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := repository.NewMemoryStore()
	resolver, err := period.NewResolver("en", time.UTC)
	require.NoError(t, err)

	supplier := &domain.Supplier{Name: "Aegean Airlines"}
	require.NoError(t, store.CreateSupplier(ctx, supplier))
	customer := &domain.Customer{Name: "Papadopoulos Family"}
	require.NoError(t, store.CreateCustomer(ctx, customer))
	pkg := &domain.Package{
		Name:                "Santorini Honeymoon",
		ClientName:          "Papadopoulos",
		CustomerID:          &customer.ID,
		StartDate:           day(2024, 3, 1),
		EndDate:             day(2024, 3, 10),
		TargetMarginPercent: decimal.NewFromInt(20),
	}
	require.NoError(t, store.CreatePackage(ctx, pkg))

	return &fixture{
		ctx:      ctx,
		store:    store,
		resolver: resolver,
		engine:   matcher.NewEngine(store, nil),
		pkg:      pkg,
		supplier: supplier,
		customer: customer,
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func (f *fixture) march() period.Period {
	return f.resolver.Resolve(day(2024, 3, 15))
}

func (f *fixture) expense(t *testing.T, amount *decimal.Decimal, date time.Time, status domain.PaymentStatus) *domain.Invoice {
	t.Helper()
	inv := &domain.Invoice{
		PackageID:     &f.pkg.ID,
		SupplierID:    &f.supplier.ID,
		Type:          domain.InvoiceExpense,
		Category:      domain.CategoryHotel,
		Merchant:      "Caldera Suites",
		Amount:        amount,
		Currency:      "EUR",
		PaymentStatus: status,
		InvoiceDate:   &date,
	}
	require.NoError(t, f.store.CreateInvoice(f.ctx, inv))
	return inv
}

func (f *fixture) income(t *testing.T, amount *decimal.Decimal, date time.Time, status domain.PaymentStatus) *domain.Invoice {
	t.Helper()
	inv := &domain.Invoice{
		PackageID:     &f.pkg.ID,
		CustomerID:    &f.customer.ID,
		Type:          domain.InvoiceIncome,
		Category:      domain.CategoryOther,
		Merchant:      "Papadopoulos",
		Amount:        amount,
		Currency:      "EUR",
		PaymentStatus: status,
		InvoiceDate:   &date,
	}
	require.NoError(t, f.store.CreateInvoice(f.ctx, inv))
	return inv
}

func (f *fixture) transaction(t *testing.T, amount string, date time.Time) *domain.BankTransaction {
	t.Helper()
	tx := &domain.BankTransaction{
		TransactionDate: date,
		Description:     "SEPA CALDERA SUITES",
		Amount:          decimal.RequireFromString(amount),
		NeedsInvoice:    true,
	}
	require.NoError(t, f.store.CreateTransaction(f.ctx, tx))
	return tx
}
