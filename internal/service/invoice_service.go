package service

import (
	"context"

	"travel-ledger/internal/domain"
	"travel-ledger/internal/period"
	"travel-ledger/internal/repository"
	"travel-ledger/pkg/logger"
)

const DefaultCurrency = "EUR"

type InvoiceService interface {
	Create(ctx context.Context, inv *domain.Invoice) error
	Update(ctx context.Context, inv *domain.Invoice) error
	Get(ctx context.Context, id string) (*domain.Invoice, error)
	// ListByPackage returns the package's invoices, within p's window when p is non-nil.
	ListByPackage(ctx context.Context, packageID string, p *period.Period) ([]domain.Invoice, error)
	ListByPeriod(ctx context.Context, p period.Period) ([]domain.Invoice, error)
	// AttachExtraction stores OCR output and back-fills fields the invoice lacks.
	AttachExtraction(ctx context.Context, id string, data *domain.ExtractedData) (*domain.Invoice, error)
}

type invoiceService struct {
	store     repository.Store
	validator *repository.Validator
}

func NewInvoiceService(store repository.Store) InvoiceService {
	return &invoiceService{store: store, validator: repository.NewValidator()}
}

func (s *invoiceService) Create(ctx context.Context, inv *domain.Invoice) error {
	if inv.Currency == "" {
		inv.Currency = DefaultCurrency
	}
	if inv.Extracted != nil {
		inv.Extracted.ApplyTo(inv)
	}
	if err := s.store.CreateInvoice(ctx, inv); err != nil {
		return err
	}
	logger.GetLogger().WithFields(map[string]interface{}{
		"invoice_id": inv.ID,
		"type":       inv.Type,
	}).Info("Invoice created")
	return nil
}

func (s *invoiceService) Update(ctx context.Context, inv *domain.Invoice) error {
	if inv.Currency == "" {
		inv.Currency = DefaultCurrency
	}
	return s.store.UpdateInvoice(ctx, inv)
}

func (s *invoiceService) Get(ctx context.Context, id string) (*domain.Invoice, error) {
	return s.store.GetInvoice(ctx, id)
}

func (s *invoiceService) ListByPackage(ctx context.Context, packageID string, p *period.Period) ([]domain.Invoice, error) {
	if _, err := s.store.GetPackage(ctx, packageID); err != nil {
		return nil, err
	}
	var window *domain.DateRange
	if p != nil {
		r := p.Range()
		window = &r
	}
	return s.store.ListInvoicesByPackage(ctx, packageID, window)
}

func (s *invoiceService) ListByPeriod(ctx context.Context, p period.Period) ([]domain.Invoice, error) {
	return s.store.ListInvoicesByDateRange(ctx, p.Range())
}

func (s *invoiceService) AttachExtraction(ctx context.Context, id string, data *domain.ExtractedData) (*domain.Invoice, error) {
	const op = "service.AttachExtraction"
	if err := s.validator.ExtractedData(op, data); err != nil {
		return nil, err
	}

	var out *domain.Invoice
	err := s.store.RunLocked(ctx, repository.LockSet{InvoiceIDs: []string{id}}, func(tx repository.Tx) error {
		inv, err := tx.GetInvoice(id)
		if err != nil {
			return err
		}
		inv.Extracted = data
		data.ApplyTo(inv)
		if err := tx.UpdateInvoice(inv); err != nil {
			return err
		}
		out = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.GetLogger().WithField("invoice_id", id).Info("Extraction attached")
	return out, nil
}
