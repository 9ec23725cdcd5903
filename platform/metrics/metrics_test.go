package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewCanBeCalledTwice(t *testing.T) {
	_ = New()
	_ = New()
}

func TestObserveOperationCountsOutcomes(t *testing.T) {
	m := New()
	m.ObserveOperation("transition", "ok", 2*time.Millisecond)
	m.ObserveOperation("transition", "ok", time.Millisecond)
	m.ObserveOperation("transition", "invalid_transition", time.Millisecond)

	if got := testutil.ToFloat64(m.operationsTotal.WithLabelValues("transition", "ok")); got != 2 {
		t.Fatalf("expected 2 ok operations, got %v", got)
	}
	if got := testutil.ToFloat64(m.operationsTotal.WithLabelValues("transition", "invalid_transition")); got != 1 {
		t.Fatalf("expected 1 failed operation, got %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveOperation("x", "ok", time.Second)
	m.StageEntered("closure")
	m.CacheHit("snapshot")
	m.Delivery("email", DeliveryOK)
}

func TestDeliveryCountsByOutcome(t *testing.T) {
	m := New()
	m.Delivery("whatsapp", DeliverySkipped)
	m.Delivery("email", DeliveryOK)

	if got := testutil.ToFloat64(m.deliveriesTotal.WithLabelValues("whatsapp", DeliverySkipped)); got != 1 {
		t.Fatalf("expected 1 skipped delivery, got %v", got)
	}
	if got := testutil.ToFloat64(m.deliveriesTotal.WithLabelValues("whatsapp", DeliveryOK)); got != 0 {
		t.Fatalf("skipped delivery counted as ok: %v", got)
	}
}
