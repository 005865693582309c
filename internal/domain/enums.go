package domain

// PackageStatus is the lifecycle state of a package.
type PackageStatus string

const (
	PackageQuote     PackageStatus = "quote"
	PackageActive    PackageStatus = "active"
	PackageCompleted PackageStatus = "completed"
)

func (s PackageStatus) Valid() bool {
	switch s {
	case PackageQuote, PackageActive, PackageCompleted:
		return true
	}
	return false
}

// rank orders statuses along the forward-only lifecycle.
func (s PackageStatus) rank() int {
	switch s {
	case PackageQuote:
		return 0
	case PackageActive:
		return 1
	case PackageCompleted:
		return 2
	}
	return -1
}

// CanTransitionTo reports whether moving from s to next goes forward (or stays).
func (s PackageStatus) CanTransitionTo(next PackageStatus) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	return next.rank() >= s.rank()
}

// InvoiceType tells whether an invoice is money out (expense) or in (income).
type InvoiceType string

const (
	InvoiceExpense InvoiceType = "expense"
	InvoiceIncome  InvoiceType = "income"
)

func (t InvoiceType) Valid() bool {
	switch t {
	case InvoiceExpense, InvoiceIncome:
		return true
	}
	return false
}

// InvoiceCategory groups invoices by the kind of travel service.
type InvoiceCategory string

const (
	CategoryAirline   InvoiceCategory = "airline"
	CategoryHotel     InvoiceCategory = "hotel"
	CategoryTolls     InvoiceCategory = "tolls"
	CategoryTransport InvoiceCategory = "transport"
	CategoryActivity  InvoiceCategory = "activity"
	CategoryOther     InvoiceCategory = "other"
)

func (c InvoiceCategory) Valid() bool {
	switch c {
	case CategoryAirline, CategoryHotel, CategoryTolls, CategoryTransport, CategoryActivity, CategoryOther:
		return true
	}
	return false
}

// PaymentStatus of an invoice.
type PaymentStatus string

const (
	PaymentPaid      PaymentStatus = "paid"
	PaymentPending   PaymentStatus = "pending"
	PaymentOverdue   PaymentStatus = "overdue"
	PaymentCancelled PaymentStatus = "cancelled"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPaid, PaymentPending, PaymentOverdue, PaymentCancelled:
		return true
	}
	return false
}

// Outstanding reports whether money is still owed on an invoice with this status.
func (s PaymentStatus) Outstanding() bool {
	switch s {
	case PaymentPending, PaymentOverdue:
		return true
	case PaymentPaid, PaymentCancelled:
		return false
	}
	return false
}

// TransactionStatus of a bank transaction.
type TransactionStatus string

const (
	TransactionPending TransactionStatus = "pending"
	TransactionMatched TransactionStatus = "matched"
	TransactionIgnored TransactionStatus = "ignored"
)

func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionPending, TransactionMatched, TransactionIgnored:
		return true
	}
	return false
}

// MatchStatus of an invoice-transaction match. A pair with no match row is in
// the implicit "none" state.
type MatchStatus string

const (
	MatchPending   MatchStatus = "pending"
	MatchConfirmed MatchStatus = "confirmed"
	MatchRejected  MatchStatus = "rejected"
)

func (s MatchStatus) Valid() bool {
	switch s {
	case MatchPending, MatchConfirmed, MatchRejected:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed from s.
func (s MatchStatus) Terminal() bool {
	switch s {
	case MatchConfirmed, MatchRejected:
		return true
	case MatchPending:
		return false
	}
	return false
}
