package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is a supplier (expense) or customer (income) financial document.
type Invoice struct {
	ID         string  `json:"id" db:"id"`
	PackageID  *string `json:"package_id,omitempty" db:"package_id" validate:"omitempty,uuid"`
	SupplierID *string `json:"supplier_id,omitempty" db:"supplier_id" validate:"omitempty,uuid"`
	CustomerID *string `json:"customer_id,omitempty" db:"customer_id" validate:"omitempty,uuid"`

	Type     InvoiceType     `json:"type" db:"type" validate:"oneof=expense income"`
	Category InvoiceCategory `json:"category" db:"category" validate:"oneof=airline hotel tolls transport activity other"`
	Merchant string          `json:"merchant" db:"merchant"`

	// Amount stays nil until entered manually or extracted.
	Amount        *decimal.Decimal `json:"amount,omitempty" db:"amount"`
	Currency      string           `json:"currency" db:"currency" validate:"len=3,alpha,uppercase"`
	PaymentStatus PaymentStatus    `json:"payment_status" db:"payment_status" validate:"oneof=paid pending overdue cancelled"`
	InvoiceDate   *time.Time       `json:"invoice_date,omitempty" db:"invoice_date"`
	DueDate       *time.Time       `json:"due_date,omitempty" db:"due_date"`
	FileRef       string           `json:"file_ref,omitempty" db:"file_ref"`
	Extracted     *ExtractedData   `json:"extracted_data,omitempty" db:"extracted_data"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at" db:"updated_at"`
}

// HasAmount reports whether the invoice amount is known.
func (i *Invoice) HasAmount() bool {
	return i.Amount != nil
}

// ExtractedData is the finished record produced by the external extraction
// service and attached to an invoice after the fact.
type ExtractedData struct {
	Merchant      string           `json:"merchant,omitempty"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	Date          *time.Time       `json:"date,omitempty"`
	Category      *InvoiceCategory `json:"category,omitempty"`
	Confidence    *float64         `json:"confidence,omitempty" validate:"omitempty,gte=0,lte=1"`
	Currency      string           `json:"currency,omitempty" validate:"omitempty,len=3,alpha,uppercase"`
	VATAmount     *decimal.Decimal `json:"vat_amount,omitempty"`
	InvoiceNumber string           `json:"invoice_number,omitempty"`
	LineItems     []LineItem       `json:"line_items,omitempty" validate:"omitempty,dive"`
}

// LineItem is one extracted invoice line.
type LineItem struct {
	Description string           `json:"description"`
	Quantity    *decimal.Decimal `json:"quantity,omitempty"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
	Total       *decimal.Decimal `json:"total,omitempty"`
}

// ApplyTo back-fills the invoice fields that are still empty.
func (e *ExtractedData) ApplyTo(inv *Invoice) {
	if inv.Merchant == "" && e.Merchant != "" {
		inv.Merchant = e.Merchant
	}
	if inv.Amount == nil && e.Amount != nil {
		amount := *e.Amount
		inv.Amount = &amount
	}
	if inv.InvoiceDate == nil && e.Date != nil {
		inv.InvoiceDate = DatePtr(e.Date)
	}
	if inv.Category == "" && e.Category != nil {
		inv.Category = *e.Category
	}
	if inv.Currency == "" && e.Currency != "" {
		inv.Currency = e.Currency
	}
}
