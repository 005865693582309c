package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-ledger/internal/apperrors"
)

func newTestResolver(t *testing.T, locale string, loc *time.Location) *Resolver {
	t.Helper()
	r, err := NewResolver(locale, loc)
	require.NoError(t, err)
	return r
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolver_Resolve(t *testing.T) {
	r := newTestResolver(t, "en", time.UTC)

	p := r.Resolve(time.Date(2024, time.March, 15, 13, 45, 0, 0, time.UTC))

	assert.Equal(t, "2024-03", p.MonthKey)
	assert.Equal(t, 2024, p.Year)
	assert.Equal(t, time.March, p.Month)
	assert.Equal(t, "2024-03-01", p.StartDay())
	assert.Equal(t, "2024-03-31", p.EndDay())
	assert.Equal(t, "March 2024", p.DisplayLabel)
	assert.Equal(t, "en", p.Locale)
}

func TestResolver_BoundsContainInput(t *testing.T) {
	athens, err := time.LoadLocation("Europe/Athens")
	require.NoError(t, err)
	r := newTestResolver(t, "el", athens)

	start := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	for d := start; d.Year() < 2025; d = d.Add(7*time.Hour + 13*time.Minute) {
		p := r.Resolve(d)
		assert.False(t, d.Before(p.StartDate), "start after %s", d)
		assert.False(t, d.After(p.EndDate), "end before %s", d)
		assert.True(t, p.Contains(d))
	}
}

func TestResolver_ResolveUsesLocation(t *testing.T) {
	athens, err := time.LoadLocation("Europe/Athens")
	require.NoError(t, err)
	r := newTestResolver(t, "en", athens)

	// 22:30 UTC on the last day of February is already March in Athens.
	p := r.Resolve(time.Date(2024, time.February, 29, 22, 30, 0, 0, time.UTC))

	assert.Equal(t, "2024-03", p.MonthKey)
	assert.Equal(t, athens, p.StartDate.Location())
}

func TestResolver_LeapFebruary(t *testing.T) {
	r := newTestResolver(t, "en", nil)

	assert.Equal(t, "2024-02-29", r.Resolve(day(2024, time.February, 10)).EndDay())
	assert.Equal(t, "2023-02-28", r.Resolve(day(2023, time.February, 10)).EndDay())
}

func TestResolver_NextMonthClampsDay(t *testing.T) {
	r := newTestResolver(t, "en", nil)

	assert.Equal(t, day(2024, time.February, 29), r.NextMonth(day(2024, time.January, 31)))
	assert.Equal(t, day(2023, time.February, 28), r.NextMonth(day(2023, time.January, 31)))
	assert.Equal(t, day(2024, time.April, 30), r.NextMonth(day(2024, time.March, 31)))
	assert.Equal(t, day(2025, time.January, 15), r.NextMonth(day(2024, time.December, 15)))
}

func TestResolver_PreviousMonthClampsDay(t *testing.T) {
	r := newTestResolver(t, "en", nil)

	assert.Equal(t, day(2024, time.February, 29), r.PreviousMonth(day(2024, time.March, 31)))
	assert.Equal(t, day(2023, time.December, 31), r.PreviousMonth(day(2024, time.January, 31)))
}

func TestResolver_NavigationPreservesTimeOfDay(t *testing.T) {
	r := newTestResolver(t, "en", nil)

	in := time.Date(2024, time.May, 10, 9, 30, 15, 0, time.UTC)
	assert.Equal(t, time.Date(2024, time.June, 10, 9, 30, 15, 0, time.UTC), r.NextMonth(in))
}

func TestResolver_RoundTripKeepsMonthKey(t *testing.T) {
	r := newTestResolver(t, "en", nil)

	for d := day(2023, time.January, 1); d.Year() < 2025; d = d.AddDate(0, 0, 1) {
		if d.Day() > 28 {
			continue
		}
		assert.Equal(t, r.Resolve(d).MonthKey, r.Resolve(r.NextMonth(r.PreviousMonth(d))).MonthKey, d.String())
		assert.Equal(t, r.Resolve(d).MonthKey, r.Resolve(r.PreviousMonth(r.NextMonth(d))).MonthKey, d.String())
	}
}

func TestResolver_AvailableMonths(t *testing.T) {
	r := newTestResolver(t, "en", nil)
	now := day(2024, time.March, 15)

	months := r.AvailableMonths(now, 12)
	require.Len(t, months, 12)

	assert.Equal(t, r.Resolve(now), r.Resolve(months[0]))
	assert.Equal(t, "2023-04", r.Resolve(months[11]).MonthKey)

	seen := make(map[string]bool)
	for i, m := range months {
		key := r.Resolve(m).MonthKey
		assert.False(t, seen[key], "duplicate %s", key)
		seen[key] = true
		if i > 0 {
			assert.True(t, m.Before(months[i-1]))
		}
	}

	assert.Equal(t, months, r.AvailableMonths(now, 12))
}

func TestResolver_AvailableMonthsDefault(t *testing.T) {
	r := newTestResolver(t, "en", nil)

	assert.Len(t, r.AvailableMonths(day(2024, time.March, 15), 0), DefaultAvailableMonths)
	assert.Len(t, r.AvailablePeriods(day(2024, time.March, 15), -3), DefaultAvailableMonths)
}

func TestResolver_ParseDate(t *testing.T) {
	r := newTestResolver(t, "en", nil)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"calendar day", "2024-03-05", "2024-03"},
		{"rfc3339", "2024-03-05T10:00:00Z", "2024-03"},
		{"month key", "2024-12", "2024-12"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.ParseDate(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.Resolve(got).MonthKey)
		})
	}
}

func TestResolver_ParseDateInvalid(t *testing.T) {
	r := newTestResolver(t, "en", nil)

	for _, input := range []string{"", "yesterday", "2024-13-01", "2024-02-30", "05/03/2024"} {
		_, err := r.ParseDate(input)
		assert.True(t, apperrors.Is(err, apperrors.KindInvalidInput), input)
	}
}

func TestResolver_ParseMonthKey(t *testing.T) {
	r := newTestResolver(t, "en", nil)

	p, err := r.ResolveMonthKey("2024-02")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", p.EndDay())

	_, err = r.ParseMonthKey("2024-02-01")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestNewResolver_UnknownLocale(t *testing.T) {
	_, err := NewResolver("xx", nil)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidInput))
}

func TestResolver_WithLocale(t *testing.T) {
	r := newTestResolver(t, "el", nil)

	en, err := r.WithLocale("en")
	require.NoError(t, err)
	assert.Equal(t, "en", en.Locale())
	assert.Equal(t, "el", r.Locale())

	elLabel := r.Resolve(day(2024, time.March, 1)).DisplayLabel
	assert.NotEqual(t, "March 2024", elLabel)
	assert.Contains(t, elLabel, "2024")

	_, err = r.WithLocale("klingon")
	assert.Error(t, err)
}

func TestNewResolver_EverySupportedLocale(t *testing.T) {
	for _, locale := range SupportedLocales() {
		r := newTestResolver(t, locale, nil)
		assert.Equal(t, locale, r.Locale())
		assert.Contains(t, r.Resolve(day(2024, time.March, 1)).DisplayLabel, "2024", locale)
	}

	r := newTestResolver(t, "", nil)
	assert.Equal(t, DefaultLocale, r.Locale())
}
