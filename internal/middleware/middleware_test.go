package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-ledger/internal/apperrors"
)

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	return r
}

func TestRecovery_ReturnsInternalError(t *testing.T) {
	r := newRouter(Recovery())
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}

func TestErrorHandler_MapsKinds(t *testing.T) {
	r := newRouter(ErrorHandler())
	r.GET("/conflict", func(c *gin.Context) {
		_ = c.Error(apperrors.Conflict("test", "already confirmed"))
	})
	r.GET("/plain", func(c *gin.Context) {
		_ = c.Error(errors.New("disk on fire"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/conflict", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"CONFLICT"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plain", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "disk on fire")
}

func TestRateLimit_BlocksAfterLimit(t *testing.T) {
	l, err := NewLimiter("2-M", nil)
	require.NoError(t, err)

	r := newRouter(RateLimit(l))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.7:4242"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}

func TestNewLimiter_RejectsBadRate(t *testing.T) {
	_, err := NewLimiter("lots", nil)
	assert.Error(t, err)
}

func TestCORS_AllowsConfiguredOrigin(t *testing.T) {
	r := newRouter(CORS([]string{"https://office.example"}))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://office.example")
	r.ServeHTTP(w, req)

	assert.Equal(t, "https://office.example", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsAndLogger_PassThrough(t *testing.T) {
	r := newRouter(Logger(), Metrics())
	r.GET("/months/:key", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/months/2024-03", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
