package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSettlementMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSettlementMetrics(reg)

	m.IncSettled("print_greeting_card")
	m.IncSettled("print_greeting_card")
	m.IncFailure("")
	m.IncDuplicate()
	m.ObserveDuration("print_greeting_card", 25*time.Millisecond)

	if got := testutil.ToFloat64(m.settled.WithLabelValues("print_greeting_card")); got != 2 {
		t.Fatalf("expected 2 settled, got %v", got)
	}
	if got := testutil.ToFloat64(m.failures.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("expected empty label to normalize to unknown, got %v", got)
	}
	if got := testutil.ToFloat64(m.duplicate); got != 1 {
		t.Fatalf("expected 1 duplicate, got %v", got)
	}
}

func TestSettlementMetricsNilSafe(t *testing.T) {
	var m *SettlementMetrics
	m.IncSettled("x")
	m.IncFailure("x")
	m.IncDuplicate()
	m.ObserveDuration("x", time.Second)

	unregistered := NewSettlementMetrics(nil)
	unregistered.IncSettled("x")
}
