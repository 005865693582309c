package service

import (
	"context"

	"travel-ledger/internal/domain"
	"travel-ledger/internal/repository"
)

// PartyService manages suppliers and customers.
type PartyService interface {
	CreateSupplier(ctx context.Context, s *domain.Supplier) error
	GetSupplier(ctx context.Context, id string) (*domain.Supplier, error)
	ListSuppliers(ctx context.Context) ([]domain.Supplier, error)
	CreateCustomer(ctx context.Context, c *domain.Customer) error
	GetCustomer(ctx context.Context, id string) (*domain.Customer, error)
	ListCustomers(ctx context.Context) ([]domain.Customer, error)
}

type partyService struct {
	repo repository.PartyRepository
}

func NewPartyService(repo repository.PartyRepository) PartyService {
	return &partyService{repo: repo}
}

func (s *partyService) CreateSupplier(ctx context.Context, sup *domain.Supplier) error {
	return s.repo.CreateSupplier(ctx, sup)
}

func (s *partyService) GetSupplier(ctx context.Context, id string) (*domain.Supplier, error) {
	return s.repo.GetSupplier(ctx, id)
}

func (s *partyService) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	return s.repo.ListSuppliers(ctx)
}

func (s *partyService) CreateCustomer(ctx context.Context, c *domain.Customer) error {
	return s.repo.CreateCustomer(ctx, c)
}

func (s *partyService) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	return s.repo.GetCustomer(ctx, id)
}

func (s *partyService) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return s.repo.ListCustomers(ctx)
}
