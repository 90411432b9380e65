package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SettlementMetrics records counters for the commission pipeline.
type SettlementMetrics struct {
	duration  *prometheus.HistogramVec
	settled   *prometheus.CounterVec
	failures  *prometheus.CounterVec
	duplicate prometheus.Counter
}

// NewSettlementMetrics registers the settlement metrics on the provided registerer.
func NewSettlementMetrics(reg prometheus.Registerer) *SettlementMetrics {
	if reg == nil {
		return &SettlementMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "settlement_duration_seconds",
		Help:    "Duration of settlement processing in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"transaction_type"})
	settled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_entries_total",
		Help: "Ledger entries appended, by transaction type.",
	}, []string{"transaction_type"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_failures_total",
		Help: "Settlement attempts that returned an error, by transaction type.",
	}, []string{"transaction_type"})
	duplicate := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "settlement_duplicates_total",
		Help: "Retries that resolved to an already-created ledger entry.",
	})
	reg.MustRegister(duration, settled, failures, duplicate)
	return &SettlementMetrics{
		duration:  duration,
		settled:   settled,
		failures:  failures,
		duplicate: duplicate,
	}
}

// ObserveDuration records how long one settlement took.
func (m *SettlementMetrics) ObserveDuration(txType string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(txType)).Observe(d.Seconds())
}

// IncSettled increments the appended-entry counter.
func (m *SettlementMetrics) IncSettled(txType string) {
	if m == nil || m.settled == nil {
		return
	}
	m.settled.WithLabelValues(normalizeLabel(txType)).Inc()
}

// IncFailure increments the failure counter.
func (m *SettlementMetrics) IncFailure(txType string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(txType)).Inc()
}

// IncDuplicate increments the idempotent-retry counter.
func (m *SettlementMetrics) IncDuplicate() {
	if m == nil || m.duplicate == nil {
		return
	}
	m.duplicate.Inc()
}

func normalizeLabel(label string) string {
	if label == "" {
		return "unknown"
	}
	return label
}
