package middleware_test

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	mw "github.com/xraph/startflow/middleware"
	"github.com/xraph/startflow/proxy"
)

func setupTestMeter() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	return reader, sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func attrsOf(set attribute.Set) map[string]string {
	out := make(map[string]string)
	for _, a := range set.ToSlice() {
		out[string(a.Key)] = a.Value.AsString()
	}
	return out
}

func TestMetrics_RecordsDuration(t *testing.T) {
	reader, mp := setupTestMeter()
	ic := mw.MetricsWithMeter(mp.Meter("test"))

	_, _ = ic(context.Background(), newTestInvocation(), ok)

	m := findMetric(collectMetrics(t, reader), "startflow.call.duration")
	if m == nil {
		t.Fatal("startflow.call.duration metric not found")
	}
	hist, isHist := m.Data.(metricdata.Histogram[float64])
	if !isHist {
		t.Fatal("expected Histogram[float64] data type")
	}
	if len(hist.DataPoints) != 1 || hist.DataPoints[0].Count != 1 {
		t.Fatalf("data points = %+v", hist.DataPoints)
	}
	attrs := attrsOf(hist.DataPoints[0].Attributes)
	if attrs["method"] != "mailer.Send" || attrs["status"] != "ok" {
		t.Errorf("attributes = %v", attrs)
	}
}

func TestMetrics_RecordsExecutions(t *testing.T) {
	tests := []struct {
		name   string
		next   proxy.Handler
		status string
	}{
		{name: "success", next: ok, status: "ok"},
		{
			name: "error",
			next: func(context.Context, *proxy.Invocation) (any, error) {
				return nil, errors.New("boom")
			},
			status: "error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader, mp := setupTestMeter()
			ic := mw.MetricsWithMeter(mp.Meter("test"))

			_, _ = ic(context.Background(), newTestInvocation(), tt.next)

			m := findMetric(collectMetrics(t, reader), "startflow.call.executions")
			if m == nil {
				t.Fatal("startflow.call.executions metric not found")
			}
			sum, isSum := m.Data.(metricdata.Sum[int64])
			if !isSum {
				t.Fatal("expected Sum[int64] data type")
			}
			if len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 1 {
				t.Fatalf("data points = %+v", sum.DataPoints)
			}
			if got := attrsOf(sum.DataPoints[0].Attributes)["status"]; got != tt.status {
				t.Errorf("status = %q, want %q", got, tt.status)
			}
		})
	}
}

func TestMetrics_DefaultNoopSafe(t *testing.T) {
	ic := mw.Metrics()
	if res, err := ic(context.Background(), newTestInvocation(), ok); err != nil || res != "sent" {
		t.Fatalf("got (%v, %v)", res, err)
	}
}
