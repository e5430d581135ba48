package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics stores Prometheus collectors used by the API and workflow flows.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal           *prometheus.CounterVec
	httpRequestDuration         *prometheus.HistogramVec
	verificationsSubmittedTotal prometheus.Counter
	otpVerifiedTotal            *prometheus.CounterVec
	otpResentTotal              prometheus.Counter
	providerCallDuration        *prometheus.HistogramVec
	retentionDeletedTotal       prometheus.Counter
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ekyc_engine",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "ekyc_engine",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		verificationsSubmittedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "ekyc_engine",
				Name:      "verifications_submitted_total",
				Help:      "Total number of verification records created.",
			},
		),
		otpVerifiedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ekyc_engine",
				Name:      "otp_verify_attempts_total",
				Help:      "Total number of OTP verify attempts grouped by outcome.",
			},
			[]string{"outcome"},
		),
		otpResentTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "ekyc_engine",
				Name:      "otp_resent_total",
				Help:      "Total number of OTP challenges reissued.",
			},
		),
		providerCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "ekyc_engine",
				Name:      "provider_call_duration_seconds",
				Help:      "Identity authority call duration in seconds grouped by operation.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"operation"},
		),
		retentionDeletedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "ekyc_engine",
				Name:      "retention_deleted_total",
				Help:      "Total number of aged-out verification records deleted.",
			},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.verificationsSubmittedTotal,
		m.otpVerifiedTotal,
		m.otpResentTotal,
		m.providerCallDuration,
		m.retentionDeletedTotal,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := routePath(c)
		// Avoid self-scrape noise for request counters.
		if path == "/metrics" {
			return err
		}

		m.recordHTTPRequest(c.Method(), path, statusFromResult(c, err), time.Since(start))
		return err
	}
}

func (m *Metrics) IncVerificationSubmitted() {
	if m == nil {
		return
	}
	m.verificationsSubmittedTotal.Inc()
}

func (m *Metrics) IncOtpVerified(outcome string) {
	if m == nil {
		return
	}
	outcomeLabel := strings.TrimSpace(strings.ToLower(outcome))
	if outcomeLabel == "" {
		outcomeLabel = "unknown"
	}
	m.otpVerifiedTotal.WithLabelValues(outcomeLabel).Inc()
}

func (m *Metrics) IncOtpResent() {
	if m == nil {
		return
	}
	m.otpResentTotal.Inc()
}

func (m *Metrics) ObserveProviderCallDuration(operation string, duration time.Duration) {
	if m == nil {
		return
	}
	seconds := duration.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.providerCallDuration.WithLabelValues(normalizeOperation(operation)).Observe(seconds)
}

func (m *Metrics) AddRetentionDeleted(count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.retentionDeletedTotal.Add(float64(count))
}

func (m *Metrics) recordHTTPRequest(method string, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	methodLabel := strings.ToUpper(strings.TrimSpace(method))
	if methodLabel == "" {
		methodLabel = "UNKNOWN"
	}
	pathLabel := strings.TrimSpace(path)
	if pathLabel == "" {
		pathLabel = "unmatched"
	}

	m.httpRequestsTotal.WithLabelValues(methodLabel, pathLabel, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(methodLabel, pathLabel).Observe(duration.Seconds())
}

func routePath(c *fiber.Ctx) string {
	if c == nil {
		return "unmatched"
	}

	if route := c.Route(); route != nil {
		if path := strings.TrimSpace(route.Path); path != "" {
			return path
		}
	}
	return "unmatched"
}

func statusFromResult(c *fiber.Ctx, err error) int {
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}

	if c == nil {
		return fiber.StatusOK
	}

	status := c.Response().StatusCode()
	if status == 0 {
		return fiber.StatusOK
	}
	return status
}

func normalizeOperation(operation string) string {
	normalized := strings.ToLower(strings.TrimSpace(operation))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}
