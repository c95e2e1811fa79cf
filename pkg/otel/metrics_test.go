package otel_test

import (
	"context"
	"sync"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/easyops/adqa-go/pkg/otel"
)

func TestInMemoryMetrics_Counter(t *testing.T) {
	metrics := otel.NewInMemoryMetrics()
	ctx := context.Background()

	metrics.Counter(otel.MetricAnswerRequests).Add(ctx, 5)
	metrics.Counter(otel.MetricAnswerRequests).Add(ctx, 3, otel.NewAttr("status", "ok"))

	if got := metrics.GetCounterValue(otel.MetricAnswerRequests); got != 8 {
		t.Fatalf("expected counter value 8, got %d", got)
	}
	if got := metrics.GetCounterValueWith(otel.MetricAnswerRequests, otel.NewAttr("status", "ok")); got != 3 {
		t.Fatalf("expected labelled value 3, got %d", got)
	}
	if got := metrics.GetCounterValue("missing"); got != 0 {
		t.Fatalf("expected 0 for unknown counter, got %d", got)
	}
}

func TestInMemoryMetrics_Histogram(t *testing.T) {
	metrics := otel.NewInMemoryMetrics()
	ctx := context.Background()

	h := metrics.Histogram(otel.MetricContextChars)
	h.Record(ctx, 150)
	h.Record(ctx, 4000)

	values := metrics.GetHistogramValues(otel.MetricContextChars)
	if len(values) != 2 || values[0] != 150 || values[1] != 4000 {
		t.Fatalf("unexpected histogram values: %v", values)
	}
}

func TestInMemoryMetrics_Gauge(t *testing.T) {
	metrics := otel.NewInMemoryMetrics()
	ctx := context.Background()

	metrics.Gauge(otel.MetricVectorPoints).Set(ctx, 3)
	metrics.Gauge(otel.MetricVectorPoints).Set(ctx, 7)

	if got := metrics.GetGaugeValue(otel.MetricVectorPoints); got != 7 {
		t.Fatalf("expected gauge value 7, got %v", got)
	}
}

func TestInMemoryMetrics_AttrOrderIndependent(t *testing.T) {
	metrics := otel.NewInMemoryMetrics()
	ctx := context.Background()

	metrics.Counter(otel.MetricSearchErrors).Add(ctx, 1, otel.NewAttr("source", "web"), otel.NewAttr("kind", "site"))
	metrics.Counter(otel.MetricSearchErrors).Add(ctx, 1, otel.NewAttr("kind", "site"), otel.NewAttr("source", "web"))

	if got := metrics.GetCounterValueWith(otel.MetricSearchErrors, otel.NewAttr("source", "web"), otel.NewAttr("kind", "site")); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
}

func TestInMemoryMetrics_ConcurrentAdd(t *testing.T) {
	metrics := otel.NewInMemoryMetrics()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			metrics.Counter("concurrent").Add(ctx, 2)
		}()
	}
	wg.Wait()

	if got := metrics.GetCounterValue("concurrent"); got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
}

func TestOTelMetrics_ExportsThroughReader(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	metrics := otel.NewOTelMetrics(mp.Meter("test"))
	ctx := context.Background()

	metrics.Counter(otel.MetricAnswerOutcomes).Add(ctx, 2, otel.NewAttr("outcome", "success"))
	metrics.Histogram(otel.MetricAnswerDuration).Record(ctx, 12.5)
	metrics.Gauge("pool.size").Set(ctx, 4, otel.NewAttr("ratio", 0.5))

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}

	found := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			found[m.Name] = true
			if m.Name == otel.MetricAnswerOutcomes {
				sum, ok := m.Data.(metricdata.Sum[int64])
				if !ok || len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 2 {
					t.Fatalf("unexpected counter data: %#v", m.Data)
				}
				if m.Description == "" {
					t.Fatal("expected predefined description to be attached")
				}
			}
		}
	}
	for _, name := range []string{otel.MetricAnswerOutcomes, otel.MetricAnswerDuration, "pool.size"} {
		if !found[name] {
			t.Fatalf("metric %s not exported", name)
		}
	}
}

func TestNoopMetrics(t *testing.T) {
	metrics := otel.NewNoopMetrics()
	ctx := context.Background()

	// Should not panic
	metrics.Counter("c").Add(ctx, 1)
	metrics.Histogram("h").Record(ctx, 1)
	metrics.Gauge("g").Set(ctx, 1)
}
