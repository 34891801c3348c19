package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the audit trail.
type Metrics struct {
	// Events appended, by action
	EventsAppended *prometheus.CounterVec

	// Append failures, by backend error disposition
	AppendFailures prometheus.Counter
}

// New creates a new Metrics instance with all audit metrics registered.
func New() *Metrics {
	return &Metrics{
		EventsAppended: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tierboard_audit_events_total",
			Help: "Total audit events appended, by action",
		}, []string{"action"}),

		AppendFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tierboard_audit_append_failures_total",
			Help: "Total audit appends dropped because the backend returned an error",
		}),
	}
}

// IncrementAppended records one successfully appended event.
func (m *Metrics) IncrementAppended(action string) {
	if m != nil {
		m.EventsAppended.WithLabelValues(action).Inc()
	}
}

// IncrementFailure records one dropped event.
func (m *Metrics) IncrementFailure() {
	if m != nil {
		m.AppendFailures.Inc()
	}
}
