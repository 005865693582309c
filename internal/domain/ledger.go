package domain

import "github.com/shopspring/decimal"

// LedgerSummary is a read-only financial view of a package, optionally
// scoped to one month.
type LedgerSummary struct {
	PackageID string `json:"package_id"`
	MonthKey  string `json:"month_key,omitempty"`

	ExpenseTotal decimal.Decimal `json:"expense_total"`
	IncomeTotal  decimal.Decimal `json:"income_total"`

	// RealizedMargin is (income - expense) / income, nil when income is zero.
	RealizedMargin      *decimal.Decimal `json:"realized_margin"`
	TargetMarginPercent decimal.Decimal  `json:"target_margin_percent"`
	BelowTarget         bool             `json:"below_target"`

	InvoiceCount      int `json:"invoice_count"`
	PendingExtraction int `json:"pending_extraction"`
	Cancelled         int `json:"cancelled"`

	Outstanding OutstandingSummary `json:"outstanding"`

	ReconciledAmount decimal.Decimal `json:"reconciled_amount"`
	ReconciledCount  int             `json:"reconciled_count"`

	Currencies []string `json:"currencies"`
}

// OutstandingSummary totals invoices still awaiting payment.
type OutstandingSummary struct {
	ExpensePending decimal.Decimal `json:"expense_pending"`
	ExpenseOverdue decimal.Decimal `json:"expense_overdue"`
	IncomePending  decimal.Decimal `json:"income_pending"`
	IncomeOverdue  decimal.Decimal `json:"income_overdue"`
	Count          int             `json:"count"`
}
