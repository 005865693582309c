package service

import (
	"context"

	"travel-ledger/internal/domain"
	"travel-ledger/internal/repository"
	"travel-ledger/pkg/logger"
)

type PackageService interface {
	Create(ctx context.Context, pkg *domain.Package) error
	Update(ctx context.Context, pkg *domain.Package) error
	Get(ctx context.Context, id string) (*domain.Package, error)
	List(ctx context.Context) ([]domain.Package, error)
	// AdvanceStatus moves the package forward through quote, active and completed.
	AdvanceStatus(ctx context.Context, id string, status domain.PackageStatus) (*domain.Package, error)
}

type packageService struct {
	store repository.Store
}

func NewPackageService(store repository.Store) PackageService {
	return &packageService{store: store}
}

func (s *packageService) Create(ctx context.Context, pkg *domain.Package) error {
	if err := s.store.CreatePackage(ctx, pkg); err != nil {
		return err
	}
	logger.GetLogger().WithField("package_id", pkg.ID).Info("Package created")
	return nil
}

func (s *packageService) Update(ctx context.Context, pkg *domain.Package) error {
	return s.store.UpdatePackage(ctx, pkg)
}

func (s *packageService) Get(ctx context.Context, id string) (*domain.Package, error) {
	return s.store.GetPackage(ctx, id)
}

func (s *packageService) List(ctx context.Context) ([]domain.Package, error) {
	return s.store.ListPackages(ctx)
}

func (s *packageService) AdvanceStatus(ctx context.Context, id string, status domain.PackageStatus) (*domain.Package, error) {
	pkg, err := s.store.GetPackage(ctx, id)
	if err != nil {
		return nil, err
	}
	from := pkg.Status
	pkg.Status = status
	if err := s.store.UpdatePackage(ctx, pkg); err != nil {
		return nil, err
	}
	logger.GetLogger().WithFields(map[string]interface{}{
		"package_id": id,
		"from":       from,
		"to":         status,
	}).Info("Package status changed")
	return pkg, nil
}
