package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-ledger/internal/apperrors"
	"travel-ledger/internal/domain"
)

func TestPackageService_AdvanceStatus(t *testing.T) {
	f := newFixture(t)
	svc := NewPackageService(f.store)
	assert.Equal(t, domain.PackageQuote, f.pkg.Status)

	pkg, err := svc.AdvanceStatus(f.ctx, f.pkg.ID, domain.PackageActive)
	require.NoError(t, err)
	assert.Equal(t, domain.PackageActive, pkg.Status)

	pkg, err = svc.AdvanceStatus(f.ctx, f.pkg.ID, domain.PackageCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.PackageCompleted, pkg.Status)

	_, err = svc.AdvanceStatus(f.ctx, f.pkg.ID, domain.PackageQuote)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	_, err = svc.AdvanceStatus(f.ctx, "00000000-0000-0000-0000-000000000000", domain.PackageActive)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestPartyService_CreateAndList(t *testing.T) {
	f := newFixture(t)
	svc := NewPartyService(f.store)

	email := "ops@olympic.example"
	require.NoError(t, svc.CreateSupplier(f.ctx, &domain.Supplier{Name: "Olympic Hotels", Email: &email}))
	suppliers, err := svc.ListSuppliers(f.ctx)
	require.NoError(t, err)
	assert.Len(t, suppliers, 2)

	bad := "not-an-email"
	err = svc.CreateCustomer(f.ctx, &domain.Customer{Name: "Nikolaou", Email: &bad})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	_, err = svc.GetCustomer(f.ctx, f.customer.ID)
	require.NoError(t, err)
}
