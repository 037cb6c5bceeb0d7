package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestOrderMetricsCountTransitions(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOrderMetrics(reg)
	m.IncCreated("cod")
	m.IncTransition("vendor", "shipped", true)
	m.IncTransition("vendor", "shipped", true)
	m.IncTransition("user", "cancelled", false)
	m.ObserveGateway("create_order", true, 120*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "vendora_orders_created_total", "payment_method", "cod"); err != nil || got != 1 {
		t.Fatalf("expected one cod order, got %v %v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "vendora_order_transitions_total", "outcome", "ok"); err != nil || got != 2 {
		t.Fatalf("expected two accepted transitions, got %v %v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "vendora_order_transitions_total", "outcome", "error"); err != nil || got != 1 {
		t.Fatalf("expected one rejected transition, got %v %v", got, err)
	}
	if got, err := fetchHistogramSum(mfs, "vendora_gateway_call_duration_seconds", "operation", "create_order"); err != nil || got <= 0 {
		t.Fatalf("expected gateway latency recorded, got %v %v", got, err)
	}
}

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.Observe(http.MethodGet, "/order/{orderId}", http.StatusOK, 10*time.Millisecond)
	m.Observe(http.MethodGet, "", http.StatusNotFound, time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "vendora_http_requests_total", "route", "/order/{orderId}"); err != nil || got != 1 {
		t.Fatalf("expected one request for route, got %v %v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "vendora_http_requests_total", "route", "unknown"); err != nil || got != 1 {
		t.Fatalf("expected blank route normalized, got %v %v", got, err)
	}
}
