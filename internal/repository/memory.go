package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"travel-ledger/internal/apperrors"
	"travel-ledger/internal/domain"
	"travel-ledger/pkg/logger"
)

// MemoryStore keeps every entity in process memory. It backs tests and
// single-instance deployments that do not configure Postgres.
type MemoryStore struct {
	mu           sync.RWMutex
	packages     map[string]domain.Package
	suppliers    map[string]domain.Supplier
	customers    map[string]domain.Customer
	invoices     map[string]domain.Invoice
	transactions map[string]domain.BankTransaction
	matches      map[string]domain.Match
	exportLogs   []domain.ExportLog

	locks     *rowLocks
	validator *Validator
	now       Clock
}

type MemoryOption func(*MemoryStore)

// WithClock overrides the clock used for timestamps.
func WithClock(c Clock) MemoryOption {
	return func(s *MemoryStore) { s.now = c }
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		packages:     make(map[string]domain.Package),
		suppliers:    make(map[string]domain.Supplier),
		customers:    make(map[string]domain.Customer),
		invoices:     make(map[string]domain.Invoice),
		transactions: make(map[string]domain.BankTransaction),
		matches:      make(map[string]domain.Match),
		locks:        newRowLocks(),
		validator:    NewValidator(),
		now:          utcNow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Close() error {
	return nil
}

func newID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

// Packages

func (s *MemoryStore) CreatePackage(ctx context.Context, pkg *domain.Package) error {
	const op = "repository.CreatePackage"
	if err := ctx.Err(); err != nil {
		return err
	}
	if pkg.Status == "" {
		pkg.Status = domain.PackageQuote
	}
	normalizePackage(pkg)
	if err := s.validator.Package(op, pkg); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkCustomerRef(op, pkg.CustomerID); err != nil {
		return err
	}
	pkg.ID = newID(pkg.ID)
	if _, exists := s.packages[pkg.ID]; exists {
		return apperrors.Conflict(op, "package id already exists")
	}
	now := s.now()
	pkg.CreatedAt, pkg.UpdatedAt = now, now
	s.packages[pkg.ID] = *pkg
	return nil
}

func (s *MemoryStore) UpdatePackage(ctx context.Context, pkg *domain.Package) error {
	const op = "repository.UpdatePackage"
	if err := ctx.Err(); err != nil {
		return err
	}
	normalizePackage(pkg)
	if err := s.validator.Package(op, pkg); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.packages[pkg.ID]
	if !ok {
		return apperrors.NotFound(op, "package", pkg.ID)
	}
	if err := s.validator.PackageTransition(op, old.Status, pkg.Status); err != nil {
		return err
	}
	if err := s.checkCustomerRef(op, pkg.CustomerID); err != nil {
		return err
	}
	pkg.CreatedAt = old.CreatedAt
	pkg.UpdatedAt = s.now()
	s.packages[pkg.ID] = *pkg
	return nil
}

func (s *MemoryStore) GetPackage(ctx context.Context, id string) (*domain.Package, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pkg, ok := s.packages[id]
	if !ok {
		return nil, apperrors.NotFound("repository.GetPackage", "package", id)
	}
	return &pkg, nil
}

func (s *MemoryStore) ListPackages(ctx context.Context) ([]domain.Package, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Package, 0, len(s.packages))
	for _, pkg := range s.packages {
		out = append(out, pkg)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Parties

func (s *MemoryStore) CreateSupplier(ctx context.Context, sup *domain.Supplier) error {
	const op = "repository.CreateSupplier"
	if err := s.validator.Struct(op, sup); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sup.ID = newID(sup.ID)
	if _, exists := s.suppliers[sup.ID]; exists {
		return apperrors.Conflict(op, "supplier id already exists")
	}
	sup.CreatedAt = s.now()
	s.suppliers[sup.ID] = *sup
	return nil
}

func (s *MemoryStore) GetSupplier(ctx context.Context, id string) (*domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sup, ok := s.suppliers[id]
	if !ok {
		return nil, apperrors.NotFound("repository.GetSupplier", "supplier", id)
	}
	return &sup, nil
}

func (s *MemoryStore) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Supplier, 0, len(s.suppliers))
	for _, sup := range s.suppliers {
		out = append(out, sup)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) CreateCustomer(ctx context.Context, c *domain.Customer) error {
	const op = "repository.CreateCustomer"
	if err := s.validator.Struct(op, c); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = newID(c.ID)
	if _, exists := s.customers[c.ID]; exists {
		return apperrors.Conflict(op, "customer id already exists")
	}
	c.CreatedAt = s.now()
	s.customers[c.ID] = *c
	return nil
}

func (s *MemoryStore) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[id]
	if !ok {
		return nil, apperrors.NotFound("repository.GetCustomer", "customer", id)
	}
	return &c, nil
}

func (s *MemoryStore) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Invoices

func (s *MemoryStore) CreateInvoice(ctx context.Context, inv *domain.Invoice) error {
	const op = "repository.CreateInvoice"
	if err := ctx.Err(); err != nil {
		return err
	}
	if inv.PaymentStatus == "" {
		inv.PaymentStatus = domain.PaymentPending
	}
	normalizeInvoice(inv)
	if err := s.validator.Invoice(op, inv); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkInvoiceRefs(op, inv); err != nil {
		return err
	}
	inv.ID = newID(inv.ID)
	if _, exists := s.invoices[inv.ID]; exists {
		return apperrors.Conflict(op, "invoice id already exists")
	}
	now := s.now()
	inv.CreatedAt, inv.UpdatedAt = now, now
	s.invoices[inv.ID] = cloneInvoice(*inv)
	return nil
}

func (s *MemoryStore) UpdateInvoice(ctx context.Context, inv *domain.Invoice) error {
	return s.RunLocked(ctx, LockSet{InvoiceIDs: []string{inv.ID}}, func(tx Tx) error {
		return tx.UpdateInvoice(inv)
	})
}

func (s *MemoryStore) GetInvoice(ctx context.Context, id string) (*domain.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.invoices[id]
	if !ok {
		return nil, apperrors.NotFound("repository.GetInvoice", "invoice", id)
	}
	out := cloneInvoice(inv)
	return &out, nil
}

func (s *MemoryStore) ListInvoicesByPackage(ctx context.Context, packageID string, r *domain.DateRange) ([]domain.Invoice, error) {
	return s.filterInvoices(func(inv domain.Invoice) bool {
		if inv.PackageID == nil || *inv.PackageID != packageID {
			return false
		}
		return r == nil || (inv.InvoiceDate != nil && r.Contains(*inv.InvoiceDate))
	}), nil
}

func (s *MemoryStore) ListInvoicesByDateRange(ctx context.Context, r domain.DateRange) ([]domain.Invoice, error) {
	return s.filterInvoices(func(inv domain.Invoice) bool {
		return inv.InvoiceDate != nil && r.Contains(*inv.InvoiceDate)
	}), nil
}

func (s *MemoryStore) PackageIDsWithInvoices(ctx context.Context, r domain.DateRange) ([]string, error) {
	invoices, err := s.ListInvoicesByDateRange(ctx, r)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(invoices))
	for _, inv := range invoices {
		if inv.PackageID != nil {
			ids = append(ids, *inv.PackageID)
		}
	}
	return sortedUnique(ids), nil
}

func (s *MemoryStore) filterInvoices(keep func(domain.Invoice) bool) []domain.Invoice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Invoice, 0)
	for _, inv := range s.invoices {
		if keep(inv) {
			out = append(out, cloneInvoice(inv))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := out[i].InvoiceDate, out[j].InvoiceDate
		if di != nil && dj != nil && !di.Equal(*dj) {
			return di.Before(*dj)
		}
		if (di == nil) != (dj == nil) {
			return di != nil
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Transactions

func (s *MemoryStore) CreateTransaction(ctx context.Context, tx *domain.BankTransaction) error {
	const op = "repository.CreateTransaction"
	if err := ctx.Err(); err != nil {
		return err
	}
	if tx.Status == "" {
		tx.Status = domain.TransactionPending
	}
	tx.TransactionDate = domain.Date(tx.TransactionDate)
	if err := s.validator.Transaction(op, tx); err != nil {
		return err
	}
	if tx.Status == domain.TransactionMatched {
		return apperrors.Validation(op, "status", "matched requires a confirmed match")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkPackageRef(op, tx.PackageID); err != nil {
		return err
	}
	tx.ID = newID(tx.ID)
	if _, exists := s.transactions[tx.ID]; exists {
		return apperrors.Conflict(op, "transaction id already exists")
	}
	now := s.now()
	tx.CreatedAt, tx.UpdatedAt = now, now
	s.transactions[tx.ID] = *tx
	return nil
}

func (s *MemoryStore) BulkCreateTransactions(ctx context.Context, txs []domain.BankTransaction) (int, []error) {
	created := 0
	var errs []error
	for i := range txs {
		if err := s.CreateTransaction(ctx, &txs[i]); err != nil {
			errs = append(errs, err)
			continue
		}
		created++
	}
	return created, errs
}

func (s *MemoryStore) UpdateTransaction(ctx context.Context, tx *domain.BankTransaction) error {
	return s.RunLocked(ctx, LockSet{TransactionIDs: []string{tx.ID}}, func(t Tx) error {
		return t.UpdateTransaction(tx)
	})
}

func (s *MemoryStore) GetTransaction(ctx context.Context, id string) (*domain.BankTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.transactions[id]
	if !ok {
		return nil, apperrors.NotFound("repository.GetTransaction", "transaction", id)
	}
	return &tx, nil
}

func (s *MemoryStore) ListTransactionsByDateRange(ctx context.Context, r domain.DateRange) ([]domain.BankTransaction, error) {
	return s.filterTransactions(func(tx domain.BankTransaction) bool {
		return r.Contains(tx.TransactionDate)
	}), nil
}

func (s *MemoryStore) ListTransactionsByStatus(ctx context.Context, r domain.DateRange, status domain.TransactionStatus) ([]domain.BankTransaction, error) {
	return s.filterTransactions(func(tx domain.BankTransaction) bool {
		return tx.Status == status && r.Contains(tx.TransactionDate)
	}), nil
}

func (s *MemoryStore) filterTransactions(keep func(domain.BankTransaction) bool) []domain.BankTransaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.BankTransaction, 0)
	for _, tx := range s.transactions {
		if keep(tx) {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].TransactionDate.Equal(out[j].TransactionDate) {
			return out[i].TransactionDate.Before(out[j].TransactionDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Matches

func (s *MemoryStore) GetMatch(ctx context.Context, id string) (*domain.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, apperrors.NotFound("repository.GetMatch", "match", id)
	}
	return &m, nil
}

func (s *MemoryStore) ListMatchesByTransaction(ctx context.Context, transactionID string) ([]domain.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortMatches(s.collectMatches(func(m domain.Match) bool { return m.TransactionID == transactionID })), nil
}

func (s *MemoryStore) ListMatchesByInvoice(ctx context.Context, invoiceID string) ([]domain.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortMatches(s.collectMatches(func(m domain.Match) bool { return m.InvoiceID == invoiceID })), nil
}

func (s *MemoryStore) ConfirmedInvoiceIDs(ctx context.Context, invoiceIDs []string) (map[string]bool, error) {
	want := make(map[string]bool, len(invoiceIDs))
	for _, id := range invoiceIDs {
		want[id] = true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]bool)
	for _, m := range s.matches {
		if m.Status == domain.MatchConfirmed && want[m.InvoiceID] {
			out[m.InvoiceID] = true
		}
	}
	return out, nil
}

// collectMatches expects s.mu to be held.
func (s *MemoryStore) collectMatches(keep func(domain.Match) bool) []domain.Match {
	out := make([]domain.Match, 0)
	for _, m := range s.matches {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

func sortMatches(ms []domain.Match) []domain.Match {
	sort.Slice(ms, func(i, j int) bool {
		if !ms[i].CreatedAt.Equal(ms[j].CreatedAt) {
			return ms[i].CreatedAt.Before(ms[j].CreatedAt)
		}
		return ms[i].ID < ms[j].ID
	})
	return ms
}

// Export logs

func (s *MemoryStore) CreateExportLog(ctx context.Context, log *domain.ExportLog) error {
	const op = "repository.CreateExportLog"
	if err := ctx.Err(); err != nil {
		return err
	}
	if log.SentAt.IsZero() {
		log.SentAt = s.now()
	}
	if err := s.validator.ExportLog(op, log); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	log.ID = newID(log.ID)
	for _, existing := range s.exportLogs {
		if existing.ID == log.ID {
			return apperrors.Conflict(op, "export log id already exists")
		}
	}
	s.exportLogs = append(s.exportLogs, *log)
	logger.GetLogger().WithField("month", log.MonthYear).Debug("Export log appended")
	return nil
}

func (s *MemoryStore) ListExportLogs(ctx context.Context, monthYear string) ([]domain.ExportLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ExportLog, 0)
	for _, l := range s.exportLogs {
		if monthYear == "" || l.MonthYear == monthYear {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SentAt.Before(out[j].SentAt) })
	return out, nil
}

// Reference checks expect s.mu to be held.

func (s *MemoryStore) checkPackageRef(op string, id *string) error {
	if id == nil {
		return nil
	}
	if _, ok := s.packages[*id]; !ok {
		return apperrors.Validation(op, "package_id", "references a missing package")
	}
	return nil
}

func (s *MemoryStore) checkCustomerRef(op string, id *string) error {
	if id == nil {
		return nil
	}
	if _, ok := s.customers[*id]; !ok {
		return apperrors.Validation(op, "customer_id", "references a missing customer")
	}
	return nil
}

func (s *MemoryStore) checkInvoiceRefs(op string, inv *domain.Invoice) error {
	if err := s.checkPackageRef(op, inv.PackageID); err != nil {
		return err
	}
	if inv.SupplierID != nil {
		if _, ok := s.suppliers[*inv.SupplierID]; !ok {
			return apperrors.Validation(op, "supplier_id", "references a missing supplier")
		}
	}
	return s.checkCustomerRef(op, inv.CustomerID)
}

func normalizePackage(pkg *domain.Package) {
	pkg.StartDate = domain.Date(pkg.StartDate)
	pkg.EndDate = domain.Date(pkg.EndDate)
}

func normalizeInvoice(inv *domain.Invoice) {
	inv.InvoiceDate = domain.DatePtr(inv.InvoiceDate)
	inv.DueDate = domain.DatePtr(inv.DueDate)
}

func cloneInvoice(inv domain.Invoice) domain.Invoice {
	if inv.Amount != nil {
		amount := *inv.Amount
		inv.Amount = &amount
	}
	if inv.Extracted != nil {
		ex := *inv.Extracted
		ex.LineItems = append([]domain.LineItem(nil), ex.LineItems...)
		inv.Extracted = &ex
	}
	return inv
}
