package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankTransaction is one line of a bank statement.
type BankTransaction struct {
	ID              string            `json:"id" db:"id"`
	TransactionDate time.Time         `json:"transaction_date" db:"transaction_date" validate:"required"`
	Description     string            `json:"description" db:"description"`
	Amount          decimal.Decimal   `json:"amount" db:"amount"` // signed
	PackageID       *string           `json:"package_id,omitempty" db:"package_id" validate:"omitempty,uuid"`
	NeedsInvoice    bool              `json:"needs_invoice" db:"needs_invoice"`
	Status          TransactionStatus `json:"status" db:"status" validate:"oneof=pending matched ignored"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at" db:"updated_at"`
}
