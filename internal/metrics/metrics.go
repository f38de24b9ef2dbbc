package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	Reservations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_reservations_total",
			Help: "Reservation attempts by item kind and outcome",
		},
		[]string{"kind", "result"},
	)
	Cancellations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_cancellations_total",
			Help: "Cancelled bookings by resulting refund status",
		},
		[]string{"refund_status"},
	)
	RefundAmount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "booking_refund_amount",
			Help:    "Refund amounts granted on cancellation",
			Buckets: []float64{0, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
	)
	PricingComputations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricing_computations_total",
			Help: "Dynamic price computations by item kind and reason tag",
		},
		[]string{"kind", "reason"},
	)
)

// NormalizePath keeps label cardinality bounded: only the first two path
// segments are used, so /v1/bookings/<id> is counted as v1/bookings.
func NormalizePath(p string) string {
	p = strings.TrimPrefix(p, "/")
	parts := strings.SplitN(p, "/", 3)
	if len(parts) > 2 {
		parts = parts[:2]
	}
	p = strings.Join(parts, "/")
	if p == "" {
		return "root"
	}
	return p
}

// Middleware records request count and latency for every request except
// the scrape endpoint itself.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().URL.Path == "/metrics" {
				return next(c)
			}
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			duration := time.Since(start).Seconds()
			path := NormalizePath(c.Request().URL.Path)
			status := strconv.Itoa(c.Response().Status)
			RequestTotal.WithLabelValues(c.Request().Method, path, status).Inc()
			RequestDuration.WithLabelValues(c.Request().Method, path).Observe(duration)
			return nil
		}
	}
}

// Handler exposes the default registry for scraping.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
