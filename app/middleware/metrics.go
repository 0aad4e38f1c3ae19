package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	httpInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)

	shippingQuotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shipping_quotes_total",
			Help: "Shipping quotes computed, by outcome",
		},
		[]string{"outcome"},
	)

	// resolved_by is "district" or "geometry"
	zoneResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zone_resolutions_total",
			Help: "Covered quotes by the path that resolved the serving zone",
		},
		[]string{"resolved_by"},
	)

	addressRevalidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "address_revalidations_total",
			Help: "Addresses processed by revalidation runs, by result",
		},
		[]string{"result"},
	)

	revalidationRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "address_revalidation_run_seconds",
			Help:    "Wall time of one revalidation run",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		},
	)
)

// Quote outcomes
const (
	QuoteOutcomeAvailable     = "available"
	QuoteOutcomeUnavailable   = "unavailable"
	QuoteOutcomeOutOfCoverage = "out_of_coverage"
	QuoteOutcomeError         = "error"
)

// RecordQuote counts one shipping quote
func RecordQuote(outcome string) {
	shippingQuotesTotal.WithLabelValues(outcome).Inc()
}

// RecordZoneResolution counts one covered quote by its resolution path
func RecordZoneResolution(resolvedBy string) {
	if resolvedBy == "" {
		return
	}
	zoneResolutionsTotal.WithLabelValues(resolvedBy).Inc()
}

// RecordRevalidation counts the addresses of one revalidation run
func RecordRevalidation(changed, unchanged, failed int) {
	addressRevalidationsTotal.WithLabelValues("changed").Add(float64(changed))
	addressRevalidationsTotal.WithLabelValues("unchanged").Add(float64(unchanged))
	addressRevalidationsTotal.WithLabelValues("failed").Add(float64(failed))
}

// ObserveRevalidationRun records how long a revalidation run took
func ObserveRevalidationRun(d time.Duration) {
	revalidationRunDuration.Observe(d.Seconds())
}

// Metrics returns a Fiber v3 middleware that records basic Prometheus metrics.
// The matched route template is used as label to keep cardinality low.
func Metrics() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		err := c.Next()

		route := c.Path()
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path
		}

		labels := prometheus.Labels{
			"method": c.Method(),
			"route":  route,
			"status": strconv.Itoa(c.Response().StatusCode()),
		}
		httpRequestsTotal.With(labels).Inc()
		httpRequestDuration.With(labels).Observe(time.Since(start).Seconds())

		return err
	}
}
