package repository

import (
	"context"
	"sort"
	"time"

	"travel-ledger/internal/domain"
)

type PackageRepository interface {
	CreatePackage(ctx context.Context, pkg *domain.Package) error
	UpdatePackage(ctx context.Context, pkg *domain.Package) error
	GetPackage(ctx context.Context, id string) (*domain.Package, error)
	ListPackages(ctx context.Context) ([]domain.Package, error)
}

type PartyRepository interface {
	CreateSupplier(ctx context.Context, s *domain.Supplier) error
	GetSupplier(ctx context.Context, id string) (*domain.Supplier, error)
	ListSuppliers(ctx context.Context) ([]domain.Supplier, error)
	CreateCustomer(ctx context.Context, c *domain.Customer) error
	GetCustomer(ctx context.Context, id string) (*domain.Customer, error)
	ListCustomers(ctx context.Context) ([]domain.Customer, error)
}

type InvoiceRepository interface {
	CreateInvoice(ctx context.Context, inv *domain.Invoice) error
	UpdateInvoice(ctx context.Context, inv *domain.Invoice) error
	GetInvoice(ctx context.Context, id string) (*domain.Invoice, error)

	// ListInvoicesByPackage returns the package's invoices, restricted to
	// invoice_date within r when r is non-nil.
	ListInvoicesByPackage(ctx context.Context, packageID string, r *domain.DateRange) ([]domain.Invoice, error)
	ListInvoicesByDateRange(ctx context.Context, r domain.DateRange) ([]domain.Invoice, error)
	PackageIDsWithInvoices(ctx context.Context, r domain.DateRange) ([]string, error)
}

type TransactionRepository interface {
	CreateTransaction(ctx context.Context, tx *domain.BankTransaction) error
	// BulkCreateTransactions inserts each row independently and returns how
	// many were stored along with the per-row failures.
	BulkCreateTransactions(ctx context.Context, txs []domain.BankTransaction) (int, []error)
	UpdateTransaction(ctx context.Context, tx *domain.BankTransaction) error
	GetTransaction(ctx context.Context, id string) (*domain.BankTransaction, error)
	ListTransactionsByDateRange(ctx context.Context, r domain.DateRange) ([]domain.BankTransaction, error)
	ListTransactionsByStatus(ctx context.Context, r domain.DateRange, status domain.TransactionStatus) ([]domain.BankTransaction, error)
}

type MatchRepository interface {
	GetMatch(ctx context.Context, id string) (*domain.Match, error)
	ListMatchesByTransaction(ctx context.Context, transactionID string) ([]domain.Match, error)
	ListMatchesByInvoice(ctx context.Context, invoiceID string) ([]domain.Match, error)
	// ConfirmedInvoiceIDs returns the subset of invoiceIDs holding a confirmed match.
	ConfirmedInvoiceIDs(ctx context.Context, invoiceIDs []string) (map[string]bool, error)
}

type ExportLogRepository interface {
	CreateExportLog(ctx context.Context, log *domain.ExportLog) error
	// ListExportLogs returns rows for monthYear, or every row when it is empty.
	ListExportLogs(ctx context.Context, monthYear string) ([]domain.ExportLog, error)
}

// Store is the reconciliation datastore. Every write validates the entity's
// invariants before it is admitted.
type Store interface {
	PackageRepository
	PartyRepository
	InvoiceRepository
	TransactionRepository
	MatchRepository
	ExportLogRepository

	// RunLocked runs fn while holding row locks on every id in set. Writes
	// made through the Tx are applied together when fn returns nil and
	// discarded otherwise. A context deadline bounds lock acquisition.
	RunLocked(ctx context.Context, set LockSet, fn func(Tx) error) error

	Close() error
}

// Tx is the view of the store inside RunLocked.
type Tx interface {
	GetInvoice(id string) (*domain.Invoice, error)
	GetTransaction(id string) (*domain.BankTransaction, error)
	GetMatch(id string) (*domain.Match, error)
	ListMatchesByTransaction(transactionID string) ([]domain.Match, error)
	ListMatchesByInvoice(invoiceID string) ([]domain.Match, error)

	CreateMatch(m *domain.Match) error
	UpdateMatch(m *domain.Match) error
	UpdateInvoice(inv *domain.Invoice) error
	UpdateTransaction(tx *domain.BankTransaction) error
}

// LockSet names the rows a RunLocked call serialises on.
type LockSet struct {
	InvoiceIDs     []string
	TransactionIDs []string
}

// Keys returns the lock keys in acquisition order.
func (s LockSet) Keys() []string {
	seen := make(map[string]bool)
	keys := make([]string, 0, len(s.InvoiceIDs)+len(s.TransactionIDs))
	add := func(k string) {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	for _, id := range s.InvoiceIDs {
		add("invoice:" + id)
	}
	for _, id := range s.TransactionIDs {
		add("transaction:" + id)
	}
	sort.Strings(keys)
	return keys
}

// Clock returns the current time. Stores stamp CreatedAt/UpdatedAt with it.
type Clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}

func sortedUnique(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
