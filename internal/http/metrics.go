package http

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// requestsTotal counts requests by method, route and status.
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reportd",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)

	// requestDuration tracks request latency by route.
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "reportd",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds by method and route",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// importsTotal counts deck imports by result.
	importsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reportd",
			Subsystem: "deck",
			Name:      "imports_total",
			Help:      "Total deck imports by result (ok, rejected, error)",
		},
		[]string{"result"},
	)

	// exportsTotal counts report exports by format.
	exportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reportd",
			Subsystem: "export",
			Name:      "exports_total",
			Help:      "Total report exports by format (pptx, xlsx)",
		},
		[]string{"format"},
	)
)

// metricsMiddleware records the request counter and latency histogram.
// The route pattern, not the raw URI, keeps label cardinality bounded.
func metricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			status := c.Response().Status
			if err != nil {
				if httpErr, ok := err.(*echo.HTTPError); ok {
					status = httpErr.Code
				}
			}

			requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			requestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
