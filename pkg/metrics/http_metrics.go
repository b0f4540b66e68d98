package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPMetrics records per-route request counters and latencies
type HTTPMetrics struct {
	ServiceName string

	requests       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	statusCategory *prometheus.CounterVec
}

// NewHTTPMetrics creates the collectors for serviceName and registers them
// with reg
func NewHTTPMetrics(serviceName string, reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		ServiceName: serviceName,
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"service", "method", "path", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"service", "method", "path", "status"},
		),
		statusCategory: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_status_category_total",
				Help: "Total number of responses by status category (2xx, 4xx, 5xx)",
			},
			[]string{"service", "category", "method", "path"},
		),
	}
	reg.MustRegister(m.requests, m.duration, m.statusCategory)
	return m
}

func statusCategory(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500 && status < 600:
		return "5xx"
	}
	return ""
}

// Middleware records HTTP request metrics. Paths are the registered route
// templates so ids do not blow up label cardinality.
func (m *HTTPMetrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			method := c.Request().Method
			path := c.Path()
			statusStr := strconv.Itoa(status)

			m.requests.WithLabelValues(m.ServiceName, method, path, statusStr).Inc()
			if category := statusCategory(status); category != "" {
				m.statusCategory.WithLabelValues(m.ServiceName, category, method, path).Inc()
			}
			m.duration.WithLabelValues(m.ServiceName, method, path, statusStr).
				Observe(time.Since(start).Seconds())

			return nil
		}
	}
}

// Handler exposes the registered metrics
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
