package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Package is a sold trip grouping invoices over a date range.
type Package struct {
	ID string `json:"id" db:"id"`

	// CustomerID is authoritative when set. ClientName is a denormalised label
	// kept for older records and is never reconciled against the customer.
	CustomerID *string `json:"customer_id,omitempty" db:"customer_id" validate:"omitempty,uuid"`
	ClientName string  `json:"client_name" db:"client_name"`

	Name                string          `json:"name" db:"name" validate:"notblank"`
	StartDate           time.Time       `json:"start_date" db:"start_date" validate:"required"`
	EndDate             time.Time       `json:"end_date" db:"end_date" validate:"required"`
	Status              PackageStatus   `json:"status" db:"status" validate:"oneof=quote active completed"`
	TargetMarginPercent decimal.Decimal `json:"target_margin_percent" db:"target_margin_percent"`
	CreatedAt           time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at" db:"updated_at"`
}
