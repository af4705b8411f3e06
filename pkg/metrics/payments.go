package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics records payment lifecycle activity.
type PaymentMetrics struct {
	pushes    *prometheus.CounterVec
	callbacks *prometheus.CounterVec
	latency   *prometheus.HistogramVec
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	pushes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_push_total",
		Help: "Payment push attempts by outcome.",
	}, []string{"outcome"})
	callbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_callback_total",
		Help: "Provider callbacks processed by result.",
	}, []string{"result"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_gateway_duration_seconds",
		Help:    "Duration of gateway calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	reg.MustRegister(pushes, callbacks, latency)
	return &PaymentMetrics{
		pushes:    pushes,
		callbacks: callbacks,
		latency:   latency,
	}
}

// IncPush increments the push counter for the given outcome.
func (m *PaymentMetrics) IncPush(outcome string) {
	if m == nil || m.pushes == nil {
		return
	}
	m.pushes.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncCallback increments the callback counter for the given result.
func (m *PaymentMetrics) IncCallback(result string) {
	if m == nil || m.callbacks == nil {
		return
	}
	m.callbacks.WithLabelValues(normalizeLabel(result)).Inc()
}

// ObserveGateway records the duration of a gateway call.
func (m *PaymentMetrics) ObserveGateway(operation string, duration time.Duration) {
	if m == nil || m.latency == nil {
		return
	}
	m.latency.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
