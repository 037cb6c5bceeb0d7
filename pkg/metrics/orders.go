package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics counts order lifecycle events and outbound gateway calls.
type OrderMetrics struct {
	created     *prometheus.CounterVec
	transitions *prometheus.CounterVec
	gateway     *prometheus.HistogramVec
}

// NewOrderMetrics registers order metrics on reg.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vendora_orders_created_total",
		Help: "Orders created, by payment method.",
	}, []string{"payment_method"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vendora_order_transitions_total",
		Help: "Order status transitions, by actor role, target status and outcome.",
	}, []string{"role", "to", "outcome"})
	gateway := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vendora_gateway_call_duration_seconds",
		Help:    "Payment gateway call latency, by operation and outcome.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "outcome"})
	reg.MustRegister(created, transitions, gateway)
	return &OrderMetrics{created: created, transitions: transitions, gateway: gateway}
}

// IncCreated counts a newly placed order.
func (m *OrderMetrics) IncCreated(paymentMethod string) {
	if m == nil || m.created == nil {
		return
	}
	m.created.WithLabelValues(normalizeLabel(paymentMethod)).Inc()
}

// IncTransition counts an attempted status change.
func (m *OrderMetrics) IncTransition(role, to string, accepted bool) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(role), normalizeLabel(to), outcome(accepted)).Inc()
}

// ObserveGateway records the latency of a gateway API call.
func (m *OrderMetrics) ObserveGateway(operation string, ok bool, elapsed time.Duration) {
	if m == nil || m.gateway == nil {
		return
	}
	m.gateway.WithLabelValues(normalizeLabel(operation), outcome(ok)).Observe(elapsed.Seconds())
}

func outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
