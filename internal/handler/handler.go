package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"travel-ledger/internal/apperrors"
	"travel-ledger/internal/domain"
	"travel-ledger/internal/period"
	"travel-ledger/pkg/response"
)

// fail records err on the context for the logging middleware and writes the
// matching error envelope.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	response.FromError(c, err)
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, apperrors.InvalidInput("handler.bind", "invalid request body", err))
		return false
	}
	return true
}

// parseID canonicalises a UUID identifier. Anything else is INVALID_INPUT
// naming field.
func parseID(field, raw string) (string, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		e := apperrors.InvalidInput("handler.parseID", field+" is not a valid identifier", err)
		e.Field = field
		return "", e
	}
	return id.String(), nil
}

// parseOptionalID is parseID for optional references; nil stays nil.
func parseOptionalID(field string, raw *string) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	id, err := parseID(field, *raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// pathID reads the :id route parameter and writes the error envelope when it
// is malformed.
func pathID(c *gin.Context) (string, bool) {
	id, err := parseID("id", c.Param("id"))
	if err != nil {
		fail(c, err)
		return "", false
	}
	return id, true
}

// periodParams turns month and date query values into accounting periods.
type periodParams struct {
	resolver *period.Resolver
	now      func() time.Time
}

// month resolves a YYYY-MM key, or the current month when key is empty.
func (p periodParams) month(key string) (period.Period, error) {
	if key == "" {
		return p.resolver.Resolve(p.now()), nil
	}
	return p.resolver.ResolveMonthKey(key)
}

// optionalMonth is month without the current-month default.
func (p periodParams) optionalMonth(key string) (*period.Period, error) {
	if key == "" {
		return nil, nil
	}
	resolved, err := p.resolver.ResolveMonthKey(key)
	if err != nil {
		return nil, err
	}
	return &resolved, nil
}

func (p periodParams) day(s string) (time.Time, error) {
	t, err := p.resolver.ParseDate(s)
	if err != nil {
		return time.Time{}, err
	}
	return domain.Date(t), nil
}

func (p periodParams) optionalDay(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := p.day(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.InvalidInput("handler.query", key+" must be an integer", err)
	}
	return n, nil
}

func queryFloat(c *gin.Context, key string) (float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperrors.InvalidInput("handler.query", key+" must be a number", err)
	}
	return f, nil
}
