package matcher

import (
	"time"

	"github.com/shopspring/decimal"

	"travel-ledger/internal/domain"
)

const (
	DefaultDateToleranceDays = 3
)

var DefaultAmountTolerance = decimal.NewFromFloat(0.01)

// MatchingStrategy decides which invoice/transaction pairs are worth
// suggesting and how confident the suggestion is.
type MatchingStrategy interface {
	// Window widens a transaction window to the invoice dates worth scoring.
	Window(r domain.DateRange) domain.DateRange

	// Score returns a confidence in [0,1], or false when the pair is no candidate.
	Score(inv domain.Invoice, tx domain.BankTransaction) (float64, bool)
}

// DateAmountStrategy pairs invoices and transactions whose dates are close
// and whose amounts agree. Transaction sign is ignored.
type DateAmountStrategy struct {
	DateToleranceDays int
	AmountTolerance   decimal.Decimal
}

func NewDateAmountStrategy(dateToleranceDays int, amountTolerance decimal.Decimal) *DateAmountStrategy {
	if dateToleranceDays < 0 {
		dateToleranceDays = DefaultDateToleranceDays
	}
	if amountTolerance.IsNegative() {
		amountTolerance = DefaultAmountTolerance
	}
	return &DateAmountStrategy{DateToleranceDays: dateToleranceDays, AmountTolerance: amountTolerance}
}

func (s *DateAmountStrategy) Window(r domain.DateRange) domain.DateRange {
	return domain.DateRange{
		Start: r.Start.AddDate(0, 0, -s.DateToleranceDays),
		End:   r.End.AddDate(0, 0, s.DateToleranceDays),
	}
}

func (s *DateAmountStrategy) Score(inv domain.Invoice, tx domain.BankTransaction) (float64, bool) {
	if inv.Amount == nil || inv.InvoiceDate == nil {
		return 0, false
	}

	days := dayDistance(*inv.InvoiceDate, tx.TransactionDate)
	if days > s.DateToleranceDays {
		return 0, false
	}
	diff := inv.Amount.Sub(tx.Amount.Abs()).Abs()
	if diff.GreaterThan(s.AmountTolerance) {
		return 0, false
	}

	// Date closeness and amount closeness weigh equally. A pair at the edge
	// of both tolerances still scores above zero.
	dateScore := 1 - float64(days)/float64(s.DateToleranceDays+1)
	amountScore := 1.0
	if s.AmountTolerance.IsPositive() {
		ratio, _ := diff.Div(s.AmountTolerance).Float64()
		amountScore = 1 - ratio/2
	}
	return (dateScore + amountScore) / 2, true
}

// ExactMatchStrategy only pairs same-day, same-amount records.
type ExactMatchStrategy struct{}

func (s *ExactMatchStrategy) Window(r domain.DateRange) domain.DateRange {
	return r
}

func (s *ExactMatchStrategy) Score(inv domain.Invoice, tx domain.BankTransaction) (float64, bool) {
	if inv.Amount == nil || inv.InvoiceDate == nil {
		return 0, false
	}
	if dayDistance(*inv.InvoiceDate, tx.TransactionDate) != 0 || !inv.Amount.Equal(tx.Amount.Abs()) {
		return 0, false
	}
	return 1, true
}

func dayDistance(a, b time.Time) int {
	d := int(domain.Date(a).Sub(domain.Date(b)).Hours() / 24)
	if d < 0 {
		return -d
	}
	return d
}
