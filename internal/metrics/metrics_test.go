package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_CountsHTTPErrorsByCode(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())
	e.GET("/private", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusUnauthorized, "nope")
	})

	before := testutil.ToFloat64(RequestsTotal.WithLabelValues(http.MethodGet, "/private", "401"))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/private", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	after := testutil.ToFloat64(RequestsTotal.WithLabelValues(http.MethodGet, "/private", "401"))
	assert.Equal(t, before+1, after)
}

func TestHandler_ExposesRegistry(t *testing.T) {
	e := echo.New()
	e.GET("/metrics", Handler())
	AuthFailures.WithLabelValues("basic").Inc()

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "blog_auth_failures_total"))
}
