package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Collector) float64 {
	t.Helper()

	ch := make(chan prometheus.Metric, 1)
	c.Collect(ch)
	close(ch)

	var total float64
	for metric := range ch {
		var m dto.Metric
		if err := metric.Write(&m); err != nil {
			t.Fatalf("write metric: %v", err)
		}
		switch {
		case m.Counter != nil:
			total += m.Counter.GetValue()
		case m.Gauge != nil:
			total += m.Gauge.GetValue()
		}
	}
	return total
}

func vecValue(t *testing.T, vec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	return counterValue(t, vec.WithLabelValues(labels...))
}

func TestNewWithRegisterer_CollectorsInitialized(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	if m.ordersCreated == nil || m.orderStatusUpdates == nil || m.stockDecrements == nil {
		t.Fatal("order collectors should not be nil")
	}
	if m.viewInvalidations == nil || m.recommendations == nil || m.productMutations == nil {
		t.Fatal("catalog collectors should not be nil")
	}
	if m.storageBackend == nil || m.operationDuration == nil || m.httpRequests == nil {
		t.Fatal("infrastructure collectors should not be nil")
	}
}

func TestNewWithRegisterer_ReusesExistingCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	first := NewWithRegisterer(reg)
	second := NewWithRegisterer(reg)

	first.RecordOrderCreated()
	second.RecordOrderCreated()

	if got := counterValue(t, first.ordersCreated); got != 2 {
		t.Fatalf("expected shared counter value 2, got %v", got)
	}
}

func TestRecordCounters(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	m.RecordOrderStatusUpdate(OutcomeOK)
	m.RecordOrderStatusUpdate(OutcomeOK)
	m.RecordOrderStatusUpdate(OutcomeUnchanged)
	m.RecordStockDecrement(OutcomeFailed)
	m.RecordViewInvalidation("product")
	m.RecordRecommendation("cart", OutcomeSkipped)
	m.RecordProductMutation("delete", OutcomeNotFound)
	m.RecordStockNotDecreased()

	if got := vecValue(t, m.orderStatusUpdates, OutcomeOK); got != 2 {
		t.Fatalf("status updates ok = %v, want 2", got)
	}
	if got := vecValue(t, m.orderStatusUpdates, OutcomeUnchanged); got != 1 {
		t.Fatalf("status updates unchanged = %v, want 1", got)
	}
	if got := vecValue(t, m.stockDecrements, OutcomeFailed); got != 1 {
		t.Fatalf("stock decrements failed = %v, want 1", got)
	}
	if got := vecValue(t, m.viewInvalidations, "product"); got != 1 {
		t.Fatalf("view invalidations = %v, want 1", got)
	}
	if got := vecValue(t, m.recommendations, "cart", OutcomeSkipped); got != 1 {
		t.Fatalf("recommendations = %v, want 1", got)
	}
	if got := vecValue(t, m.productMutations, "delete", OutcomeNotFound); got != 1 {
		t.Fatalf("product mutations = %v, want 1", got)
	}
	if got := counterValue(t, m.stockNotDecreased); got != 1 {
		t.Fatalf("stock not decreased = %v, want 1", got)
	}
}

func TestSetStorageBackend(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	m.SetStorageBackend("mongo", "memory", "mongo", "postgres")
	m.SetStorageBackend("memory", "memory", "mongo", "postgres")

	if got := counterValue(t, m.storageBackend.WithLabelValues("memory")); got != 1 {
		t.Fatalf("memory gauge = %v, want 1", got)
	}
	if got := counterValue(t, m.storageBackend.WithLabelValues("mongo")); got != 0 {
		t.Fatalf("mongo gauge = %v, want 0", got)
	}
}

func TestRecordHTTPRequestAndDurations(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	m.RecordHTTPRequest("GET /api/products", 200, 5*time.Millisecond)
	m.ObserveOperation("orders.create", 10*time.Millisecond)

	if got := vecValue(t, m.httpRequests, "GET /api/products", "200"); got != 1 {
		t.Fatalf("http requests = %v, want 1", got)
	}

	ch := make(chan prometheus.Metric, 1)
	m.operationDuration.WithLabelValues("orders.create").(prometheus.Histogram).Collect(ch)
	close(ch)
	var sample dto.Metric
	if err := (<-ch).Write(&sample); err != nil {
		t.Fatalf("write histogram: %v", err)
	}
	if sample.Histogram.GetSampleCount() != 1 {
		t.Fatalf("histogram samples = %d, want 1", sample.Histogram.GetSampleCount())
	}
}

func TestNilMetricsAreNoop(t *testing.T) {
	var m *StorefrontMetrics

	m.RecordOrderCreated()
	m.RecordOrderStatusUpdate(OutcomeOK)
	m.RecordViewInvalidation("orders")
	m.SetStorageBackend("memory")
	m.RecordHTTPRequest("x", 500, time.Second)
}
