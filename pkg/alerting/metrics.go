package alerting

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus metrics for the alerting package.
type Metrics struct {
	eventsTotal *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with Prometheus collectors.
// Call it at most once per process; collectors register globally.
func NewMetrics() *Metrics {
	return &Metrics{
		eventsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ganymede_alerting_events_total",
				Help: "Total number of alert events raised",
			},
			[]string{"severity"},
		),
	}
}

// RecordEvent records a raised alert event.
func (m *Metrics) RecordEvent(severity Severity) {
	m.eventsTotal.WithLabelValues(string(severity)).Inc()
}
