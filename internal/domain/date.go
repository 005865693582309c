package domain

import "time"

// DateLayout is the wire format for calendar days.
const DateLayout = "2006-01-02"

// Date truncates t to its calendar day and returns UTC midnight of that day.
// The day is taken in t's own location.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DatePtr is Date for optional values.
func DatePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := Date(*t)
	return &d
}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDateRange builds a range over the calendar days of start and end.
func NewDateRange(start, end time.Time) DateRange {
	return DateRange{Start: Date(start), End: Date(end)}
}

// Contains reports whether t's calendar day lies within the range.
func (r DateRange) Contains(t time.Time) bool {
	d := Date(t)
	return !d.Before(r.Start) && !d.After(r.End)
}

// Valid reports whether the range is non-empty.
func (r DateRange) Valid() bool {
	return !r.Start.After(r.End)
}
