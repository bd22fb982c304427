// Package metrics provides Prometheus metrics for the prescriptions API.
// HTTP traffic is tracked through the Metrics middleware; the domain
// collectors count confirmation outcomes, removals, secure views and
// security violations reported by the secure viewer.
//
// All metrics are registered with the Prometheus default registry during
// package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets currently tracked",
		},
	)

	ConfirmationOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "confirmation_attempts_total",
			Help: "Confirmation attempts by outcome",
		},
		[]string{"outcome"},
	)

	ConfirmationActionFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "confirmation_action_failures_total",
			Help: "Destructive actions that failed after confirmation",
		},
	)

	ConfirmationSessionsOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "confirmation_sessions_open",
			Help: "Confirmation sessions currently tracked",
		},
	)

	PrescriptionsRemoved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "prescriptions_removed_total",
			Help: "Prescriptions removed through a confirmed action",
		},
	)

	SecureViews = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "secure_views_total",
			Help: "Secure view intents emitted",
		},
		[]string{"mode"},
	)

	SecurityViolations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "security_violations_total",
			Help: "Security violations reported by the secure viewer",
		},
		[]string{"type"},
	)

	RecordsLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "prescription_records_loaded",
			Help: "Prescription records in the current snapshot",
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(ConfirmationOutcomes)
	prometheus.MustRegister(ConfirmationActionFailures)
	prometheus.MustRegister(ConfirmationSessionsOpen)
	prometheus.MustRegister(PrescriptionsRemoved)
	prometheus.MustRegister(SecureViews)
	prometheus.MustRegister(SecurityViolations)
	prometheus.MustRegister(RecordsLoaded)
}
