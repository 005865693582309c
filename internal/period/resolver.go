// Package period turns points in time into monthly accounting windows.
package period

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/locales"
	"github.com/go-playground/locales/de"
	"github.com/go-playground/locales/el"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/es"
	"github.com/go-playground/locales/fr"
	"github.com/go-playground/locales/it"
	ut "github.com/go-playground/universal-translator"

	"travel-ledger/internal/apperrors"
	"travel-ledger/internal/domain"
)

const (
	MonthKeyLayout = "2006-01"

	DefaultLocale          = "el"
	DefaultAvailableMonths = 12
)

// The fallback is listed again so it is also registered as a translator.
var translators = ut.New(el.New(), el.New(), en.New(), de.New(), fr.New(), it.New(), es.New())

// SupportedLocales lists the locales a Resolver can label months in.
func SupportedLocales() []string {
	return []string{"el", "en", "de", "fr", "it", "es"}
}

// Period is one calendar month in a resolver's location.
type Period struct {
	MonthKey     string     `json:"month_key"`
	Year         int        `json:"year"`
	Month        time.Month `json:"month"`
	StartDate    time.Time  `json:"start_date"`
	EndDate      time.Time  `json:"end_date"`
	DisplayLabel string     `json:"display_label"`
	Locale       string     `json:"locale"`
}

// Contains reports whether t falls on a calendar day of the period.
func (p Period) Contains(t time.Time) bool {
	t = t.In(p.StartDate.Location())
	return !t.Before(p.StartDate) && !t.After(p.EndDate)
}

// StartDay formats the first day as YYYY-MM-DD.
func (p Period) StartDay() string {
	return p.StartDate.Format(domain.DateLayout)
}

// EndDay formats the last day as YYYY-MM-DD.
func (p Period) EndDay() string {
	return p.EndDate.Format(domain.DateLayout)
}

// Range returns the period as a calendar-day range for store queries.
func (p Period) Range() domain.DateRange {
	return domain.NewDateRange(p.StartDate, p.EndDate)
}

// Resolver is stateless and safe for concurrent use.
type Resolver struct {
	locale string
	trans  locales.Translator
	loc    *time.Location
}

// NewResolver builds a resolver labelling months in locale and computing
// bounds in loc. A nil loc means UTC.
func NewResolver(locale string, loc *time.Location) (*Resolver, error) {
	trans, err := lookupTranslator(locale)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{locale: trans.Locale(), trans: trans, loc: loc}, nil
}

func lookupTranslator(locale string) (locales.Translator, error) {
	key := strings.ToLower(strings.TrimSpace(locale))
	if key == "" {
		key = DefaultLocale
	}
	for _, supported := range SupportedLocales() {
		if key != supported {
			continue
		}
		trans, found := translators.GetTranslator(key)
		if found {
			return trans, nil
		}
	}
	return nil, apperrors.InvalidInput("period.NewResolver", fmt.Sprintf("unsupported locale %q", locale), nil)
}

// WithLocale returns a copy of r that labels months in another locale.
func (r *Resolver) WithLocale(locale string) (*Resolver, error) {
	if locale == "" || strings.EqualFold(locale, r.locale) {
		return r, nil
	}
	trans, err := lookupTranslator(locale)
	if err != nil {
		return nil, err
	}
	return &Resolver{locale: trans.Locale(), trans: trans, loc: r.loc}, nil
}

func (r *Resolver) Locale() string {
	return r.locale
}

func (r *Resolver) Location() *time.Location {
	return r.loc
}

// Resolve returns the month containing t.
func (r *Resolver) Resolve(t time.Time) Period {
	t = t.In(r.loc)
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, r.loc)
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)

	return Period{
		MonthKey:     start.Format(MonthKeyLayout),
		Year:         start.Year(),
		Month:        start.Month(),
		StartDate:    start,
		EndDate:      end,
		DisplayLabel: fmt.Sprintf("%s %d", r.trans.MonthWide(start.Month()), start.Year()),
		Locale:       r.locale,
	}
}

// PreviousMonth shifts t back one calendar month, clamping the day.
func (r *Resolver) PreviousMonth(t time.Time) time.Time {
	return addMonths(t.In(r.loc), -1)
}

// NextMonth shifts t forward one calendar month, clamping the day.
func (r *Resolver) NextMonth(t time.Time) time.Time {
	return addMonths(t.In(r.loc), 1)
}

// AvailableMonths returns the first day of the n most recent months ending at
// now, newest first. n <= 0 selects DefaultAvailableMonths.
func (r *Resolver) AvailableMonths(now time.Time, n int) []time.Time {
	if n <= 0 {
		n = DefaultAvailableMonths
	}
	now = now.In(r.loc)
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, r.loc)

	months := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		months = append(months, first.AddDate(0, -i, 0))
	}
	return months
}

// AvailablePeriods is AvailableMonths resolved into periods.
func (r *Resolver) AvailablePeriods(now time.Time, n int) []Period {
	months := r.AvailableMonths(now, n)
	periods := make([]Period, len(months))
	for i, m := range months {
		periods[i] = r.Resolve(m)
	}
	return periods
}

// ParseDate accepts YYYY-MM-DD, RFC3339 or YYYY-MM. Date-only inputs are
// read in the resolver's location.
func (r *Resolver) ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(domain.DateLayout, s, r.loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(r.loc), nil
	}
	if t, err := time.ParseInLocation(MonthKeyLayout, s, r.loc); err == nil {
		return t, nil
	}
	return time.Time{}, apperrors.InvalidInput("period.ParseDate", fmt.Sprintf("unparseable date %q", s), nil)
}

// ParseMonthKey parses a strict YYYY-MM key into the first day of that month.
func (r *Resolver) ParseMonthKey(s string) (time.Time, error) {
	t, err := time.ParseInLocation(MonthKeyLayout, strings.TrimSpace(s), r.loc)
	if err != nil {
		return time.Time{}, apperrors.InvalidInput("period.ParseMonthKey", fmt.Sprintf("invalid month key %q", s), err)
	}
	return t, nil
}

// ResolveMonthKey is ParseMonthKey followed by Resolve.
func (r *Resolver) ResolveMonthKey(s string) (Period, error) {
	t, err := r.ParseMonthKey(s)
	if err != nil {
		return Period{}, err
	}
	return r.Resolve(t), nil
}

func addMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	day := t.Day()
	if last := daysIn(first); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(first time.Time) int {
	return first.AddDate(0, 1, -1).Day()
}
