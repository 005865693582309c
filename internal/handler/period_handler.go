package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"travel-ledger/internal/period"
	"travel-ledger/pkg/response"
)

type PeriodHandler struct {
	periodParams
}

func NewPeriodHandler(resolver *period.Resolver, now func() time.Time) *PeriodHandler {
	if now == nil {
		now = time.Now
	}
	return &PeriodHandler{periodParams{resolver: resolver, now: now}}
}

// ShiftedPeriod pairs a shifted date with the month containing it.
type ShiftedPeriod struct {
	Date   string        `json:"date"`
	Period period.Period `json:"period"`
}

func (h *PeriodHandler) request(c *gin.Context) (*period.Resolver, time.Time, bool) {
	resolver := h.resolver
	if locale := c.Query("locale"); locale != "" {
		var err error
		if resolver, err = resolver.WithLocale(locale); err != nil {
			fail(c, err)
			return nil, time.Time{}, false
		}
	}
	t := h.now()
	if raw := c.Query("date"); raw != "" {
		var err error
		if t, err = resolver.ParseDate(raw); err != nil {
			fail(c, err)
			return nil, time.Time{}, false
		}
	}
	return resolver, t, true
}

// ResolvePeriod godoc
// @Summary Resolve the accounting month of a date
// @Tags periods
// @Produce json
// @Param date query string false "YYYY-MM-DD or RFC3339, defaults to now"
// @Param locale query string false "Label locale"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/periods [get]
func (h *PeriodHandler) ResolvePeriod(c *gin.Context) {
	resolver, t, ok := h.request(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, "Period resolved", resolver.Resolve(t))
}

// PreviousPeriod godoc
// @Summary Shift a date back one month
// @Tags periods
// @Produce json
// @Param date query string false "YYYY-MM-DD or RFC3339, defaults to now"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/periods/previous [get]
func (h *PeriodHandler) PreviousPeriod(c *gin.Context) {
	resolver, t, ok := h.request(c)
	if !ok {
		return
	}
	shifted := resolver.PreviousMonth(t)
	response.Success(c, http.StatusOK, "Previous period", ShiftedPeriod{
		Date:   shifted.Format(time.RFC3339),
		Period: resolver.Resolve(shifted),
	})
}

// NextPeriod godoc
// @Summary Shift a date forward one month
// @Tags periods
// @Produce json
// @Param date query string false "YYYY-MM-DD or RFC3339, defaults to now"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/periods/next [get]
func (h *PeriodHandler) NextPeriod(c *gin.Context) {
	resolver, t, ok := h.request(c)
	if !ok {
		return
	}
	shifted := resolver.NextMonth(t)
	response.Success(c, http.StatusOK, "Next period", ShiftedPeriod{
		Date:   shifted.Format(time.RFC3339),
		Period: resolver.Resolve(shifted),
	})
}

// AvailablePeriods godoc
// @Summary List recent months, newest first
// @Tags periods
// @Produce json
// @Param now query string false "Reference date, defaults to today"
// @Param n query int false "Number of months" default(12)
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/periods/available [get]
func (h *PeriodHandler) AvailablePeriods(c *gin.Context) {
	resolver := h.resolver
	if locale := c.Query("locale"); locale != "" {
		var err error
		if resolver, err = resolver.WithLocale(locale); err != nil {
			fail(c, err)
			return
		}
	}
	now := h.now()
	if raw := c.Query("now"); raw != "" {
		var err error
		if now, err = resolver.ParseDate(raw); err != nil {
			fail(c, err)
			return
		}
	}
	n, err := queryInt(c, "n", period.DefaultAvailableMonths)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Available periods", resolver.AvailablePeriods(now, n))
}
