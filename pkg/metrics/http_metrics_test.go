package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareRecordsRouteTemplate(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics("assetverse", reg)

	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/assets/:id", func(c echo.Context) error {
		if c.Param("id") == "missing" {
			return echo.NewHTTPError(http.StatusNotFound)
		}
		return c.NoContent(http.StatusOK)
	})

	for _, id := range []string{"a", "b", "missing"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/"+id, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("assetverse", "GET", "/assets/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("assetverse", "GET", "/assets/:id", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.statusCategory.WithLabelValues("assetverse", "4xx", "GET", "/assets/:id")))

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "http_requests_total"))
}

func TestStatusCategory(t *testing.T) {
	assert.Equal(t, "2xx", statusCategory(201))
	assert.Equal(t, "4xx", statusCategory(403))
	assert.Equal(t, "5xx", statusCategory(503))
	assert.Equal(t, "", statusCategory(100))
}
