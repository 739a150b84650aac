package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/startflow/proxy"
)

// meterName is the instrumentation scope name for startflow metrics.
const meterName = "github.com/xraph/startflow"

// Metrics returns advice that records per-method metrics on the global
// MeterProvider.
//
// Instruments:
//   - startflow.call.duration (Float64Histogram): call time in seconds,
//     with attributes: method, status ("ok" or "error")
//   - startflow.call.executions (Int64Counter): total calls,
//     with attributes: method, status ("ok" or "error")
func Metrics() proxy.Interceptor {
	return MetricsWithMeter(otel.Meter(meterName))
}

// MetricsWithMeter returns metrics advice using meter.
func MetricsWithMeter(meter metric.Meter) proxy.Interceptor {
	// On error the API hands back noop instruments.
	duration, _ := meter.Float64Histogram(
		"startflow.call.duration",
		metric.WithDescription("Duration of proxied calls in seconds"),
		metric.WithUnit("s"),
	)
	executions, _ := meter.Int64Counter(
		"startflow.call.executions",
		metric.WithDescription("Total number of proxied calls"),
		metric.WithUnit("{call}"),
	)

	return func(ctx context.Context, inv *proxy.Invocation, next proxy.Handler) (any, error) {
		start := time.Now()
		res, err := next(ctx, inv)
		elapsed := time.Since(start).Seconds()

		status := "ok"
		if err != nil {
			status = "error"
		}

		attrs := metric.WithAttributes(
			attribute.String("method", callName(inv)),
			attribute.String("status", status),
		)
		duration.Record(ctx, elapsed, attrs)
		executions.Add(ctx, 1, attrs)

		return res, err
	}
}
