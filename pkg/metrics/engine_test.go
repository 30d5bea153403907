package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestEngineMetricsCounters(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewEngineMetrics(reg)

	m.ObserveCheckout("accepted", 120*time.Millisecond)
	m.ObserveCheckout("insufficient_stock", 20*time.Millisecond)
	m.IncTransition("pending", "confirmed")
	m.IncTransition("pending", "confirmed")
	m.IncOTPVerification("ok")
	m.IncStockConflict()

	if got := testutil.ToFloat64(m.checkouts.WithLabelValues("accepted")); got != 1 {
		t.Fatalf("expected 1 accepted checkout, got %v", got)
	}
	if got := testutil.ToFloat64(m.transitions.WithLabelValues("pending", "confirmed")); got != 2 {
		t.Fatalf("expected 2 transitions, got %v", got)
	}
	if got := testutil.ToFloat64(m.stockConflicts); got != 1 {
		t.Fatalf("expected 1 stock conflict, got %v", got)
	}
}

func TestEngineMetricsNilSafe(t *testing.T) {
	t.Parallel()

	var m *EngineMetrics
	m.ObserveCheckout("accepted", time.Second)
	m.IncTransition("a", "b")
	m.IncOTPVerification("ok")
	m.IncStockConflict()

	empty := NewEngineMetrics(nil)
	empty.ObserveCheckout("", 0)
	empty.IncTransition("", "")
}
