package pool

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"mercator-hq/ganymede/pkg/quota"
)

// Metrics contains Prometheus metrics for the pool package.
type Metrics struct {
	// Remote call outcomes
	callsTotal *prometheus.CounterVec

	// Per-key quota standing
	quotaUsed    *prometheus.GaugeVec
	usagePercent *prometheus.GaugeVec

	// Failover activity
	rotationsTotal   prometheus.Counter
	exhaustionsTotal prometheus.Counter

	// Classified remote errors
	classifiedErrors *prometheus.CounterVec

	// Remote call latency
	callDuration *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with Prometheus collectors.
// Call it at most once per process; collectors register globally.
func NewMetrics() *Metrics {
	return &Metrics{
		callsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ganymede_pool_calls_total",
				Help: "Total number of remote API calls recorded",
			},
			[]string{"endpoint", "result"},
		),

		quotaUsed: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ganymede_pool_quota_used_units",
				Help: "Daily quota units consumed per key",
			},
			[]string{"key_index"},
		),

		usagePercent: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ganymede_pool_quota_usage_percentage",
				Help: "Daily quota usage per key as percentage (0-100)",
			},
			[]string{"key_index"},
		),

		rotationsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "ganymede_pool_rotations_total",
				Help: "Total number of credential rotations",
			},
		),

		exhaustionsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "ganymede_pool_exhaustions_total",
				Help: "Total number of times no eligible credential was available",
			},
		),

		classifiedErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ganymede_pool_classified_errors_total",
				Help: "Total number of remote errors by classified kind",
			},
			[]string{"kind"},
		),

		callDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ganymede_pool_call_duration_seconds",
				Help:    "Wall time of remote API call attempts",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
	}
}

// RecordCall records a remote call outcome.
func (m *Metrics) RecordCall(endpoint string, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	m.callsTotal.WithLabelValues(endpoint, result).Inc()
}

// UpdateUsage updates the quota gauges for a key.
func (m *Metrics) UpdateUsage(index int, used int, percent float64) {
	key := strconv.Itoa(index)
	m.quotaUsed.WithLabelValues(key).Set(float64(used))
	m.usagePercent.WithLabelValues(key).Set(percent)
}

// RecordRotation records a credential rotation.
func (m *Metrics) RecordRotation() {
	m.rotationsTotal.Inc()
}

// RecordExhaustion records a moment with no eligible credential.
func (m *Metrics) RecordExhaustion() {
	m.exhaustionsTotal.Inc()
}

// RecordClassifiedError records a classified remote error.
func (m *Metrics) RecordClassifiedError(kind quota.ErrorKind) {
	m.classifiedErrors.WithLabelValues(string(kind)).Inc()
}

// ObserveCallDuration records the wall time of a single remote call attempt.
func (m *Metrics) ObserveCallDuration(endpoint string, seconds float64) {
	m.callDuration.WithLabelValues(endpoint).Observe(seconds)
}
