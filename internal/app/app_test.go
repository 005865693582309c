package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-ledger/internal/config"
	"travel-ledger/internal/repository"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("PERIOD_TIMEZONE", "UTC")
	t.Setenv("RATE_LIMIT", "1000-M")
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func TestNew_MemoryStore(t *testing.T) {
	a, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer a.Close()

	_, ok := a.Store.(*repository.MemoryStore)
	assert.True(t, ok)
	assert.Equal(t, "el", a.Resolver.Locale())
}

func TestRouter_ServesHealthMetricsAndAPI(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer a.Close()

	router, err := a.Router()
	require.NoError(t, err)

	for path, want := range map[string]int{
		"/health":                         http.StatusOK,
		"/metrics":                        http.StatusOK,
		"/api/v1/periods?date=2024-03-01": http.StatusOK,
		"/api/v1/packages":                http.StatusOK,
		"/api/v1/nowhere":                 http.StatusNotFound,
	} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, w.Code, path)
	}
}

func TestRouter_RejectsBadRate(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.RateLimit = "often"
	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Router()
	assert.Error(t, err)
}
