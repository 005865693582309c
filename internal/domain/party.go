package domain

import "time"

// Supplier issues expense invoices.
type Supplier struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name" validate:"notblank"`
	VATNumber *string   `json:"vat_number,omitempty" db:"vat_number"`
	Email     *string   `json:"email,omitempty" db:"email" validate:"omitempty,email"`
	Phone     *string   `json:"phone,omitempty" db:"phone"`
	Address   *string   `json:"address,omitempty" db:"address"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Customer receives income invoices.
type Customer struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name" validate:"notblank"`
	VATNumber *string   `json:"vat_number,omitempty" db:"vat_number"`
	Email     *string   `json:"email,omitempty" db:"email" validate:"omitempty,email"`
	Phone     *string   `json:"phone,omitempty" db:"phone"`
	Address   *string   `json:"address,omitempty" db:"address"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
