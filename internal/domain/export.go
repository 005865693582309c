package domain

import "time"

// ExportLog records that a month's data was sent. Rows are write-once.
type ExportLog struct {
	ID               string    `json:"id" db:"id"`
	MonthYear        string    `json:"month_year" db:"month_year" validate:"required,datetime=2006-01"`
	SentAt           time.Time `json:"sent_at" db:"sent_at"`
	PackagesIncluded int       `json:"packages_included" db:"packages_included" validate:"gte=0"`
	InvoicesIncluded int       `json:"invoices_included" db:"invoices_included" validate:"gte=0"`
}
