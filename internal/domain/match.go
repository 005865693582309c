package domain

import "time"

// Match links one invoice to one bank transaction.
type Match struct {
	ID            string      `json:"id" db:"id"`
	InvoiceID     string      `json:"invoice_id" db:"invoice_id" validate:"required,uuid"`
	TransactionID string      `json:"transaction_id" db:"transaction_id" validate:"required,uuid"`
	Status        MatchStatus `json:"status" db:"status" validate:"oneof=pending confirmed rejected"`

	// Score is the heuristic confidence when the match came from a suggestion.
	Score     *float64   `json:"score,omitempty" db:"score" validate:"omitempty,gte=0,lte=1"`
	MatchedAt *time.Time `json:"matched_at,omitempty" db:"matched_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}
