package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the certification module.
type Metrics struct {
	// Record mutations by operation
	Mutations *prometheus.CounterVec

	// Store query latency by operation
	QueryLatency *prometheus.HistogramVec

	// Analytics cache hits and misses
	CacheLookups *prometheus.CounterVec

	// Tiers awarded, by tier
	Awards *prometheus.CounterVec
}

// New creates a new Metrics instance with all certification metrics registered.
func New() *Metrics {
	return &Metrics{
		Mutations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tierboard_certification_mutations_total",
			Help: "Total record mutations by operation",
		}, []string{"operation"}), // operation: "assign", "schedule", "complete", ...

		QueryLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tierboard_certification_query_duration_seconds",
			Help:    "Duration of store queries by operation",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation"}),

		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tierboard_certification_cache_lookups_total",
			Help: "Analytics cache lookups by outcome",
		}, []string{"outcome"}), // outcome: "hit", "miss"

		Awards: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tierboard_certification_awards_total",
			Help: "Tiers awarded, by tier",
		}, []string{"tier"}),
	}
}

// IncrementMutation records one record mutation.
func (m *Metrics) IncrementMutation(operation string) {
	if m != nil {
		m.Mutations.WithLabelValues(operation).Inc()
	}
}

// ObserveQueryLatency records the duration of one store query.
func (m *Metrics) ObserveQueryLatency(operation string, d time.Duration) {
	if m != nil {
		m.QueryLatency.WithLabelValues(operation).Observe(d.Seconds())
	}
}

// IncrementCacheLookup records an analytics cache hit or miss.
func (m *Metrics) IncrementCacheLookup(outcome string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(outcome).Inc()
	}
}

// IncrementAward records an awarded tier.
func (m *Metrics) IncrementAward(tier string) {
	if m != nil {
		m.Awards.WithLabelValues(tier).Inc()
	}
}
