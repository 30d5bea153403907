package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics records fulfillment-engine outcomes.
type EngineMetrics struct {
	checkoutDuration *prometheus.HistogramVec
	checkouts        *prometheus.CounterVec
	transitions      *prometheus.CounterVec
	otpVerifications *prometheus.CounterVec
	stockConflicts   prometheus.Counter
}

// NewEngineMetrics registers the engine metrics on the provided registerer.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	if reg == nil {
		return &EngineMetrics{}
	}
	checkoutDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkouts_total",
		Help: "Checkout attempts by outcome.",
	}, []string{"outcome"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Order state transitions by from/to state.",
	}, []string{"from", "to"})
	otpVerifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "delivery_otp_verifications_total",
		Help: "Delivery OTP verification attempts by result.",
	}, []string{"result"})
	stockConflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stock_reservation_conflicts_total",
		Help: "Reservations rejected because stock was insufficient.",
	})
	reg.MustRegister(checkoutDuration, checkouts, transitions, otpVerifications, stockConflicts)
	return &EngineMetrics{
		checkoutDuration: checkoutDuration,
		checkouts:        checkouts,
		transitions:      transitions,
		otpVerifications: otpVerifications,
		stockConflicts:   stockConflicts,
	}
}

// ObserveCheckout records one checkout attempt and its duration.
func (m *EngineMetrics) ObserveCheckout(outcome string, duration time.Duration) {
	if m == nil || m.checkouts == nil {
		return
	}
	label := normalizeLabel(outcome)
	m.checkouts.WithLabelValues(label).Inc()
	m.checkoutDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// IncTransition records one order state transition.
func (m *EngineMetrics) IncTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// IncOTPVerification records one OTP verification by result.
func (m *EngineMetrics) IncOTPVerification(result string) {
	if m == nil || m.otpVerifications == nil {
		return
	}
	m.otpVerifications.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncStockConflict records one reservation rejected for insufficient stock.
func (m *EngineMetrics) IncStockConflict() {
	if m == nil || m.stockConflicts == nil {
		return
	}
	m.stockConflicts.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
