package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/startflow/matcher"
	"github.com/xraph/startflow/proxy"
	"github.com/xraph/startflow/scope"
)

// tracerName is the instrumentation scope name for startflow tracing.
const tracerName = "github.com/xraph/startflow"

// Tracing returns advice that wraps each call in a span from the global
// TracerProvider. Without a configured provider it is a pass-through.
//
// Span attributes: startflow.type, startflow.method,
// startflow.scope.app_id, startflow.scope.org_id.
func Tracing() proxy.Interceptor {
	return TracingWithTracer(otel.Tracer(tracerName))
}

// TracingWithTracer returns tracing advice using tracer.
func TracingWithTracer(tracer trace.Tracer) proxy.Interceptor {
	return func(ctx context.Context, inv *proxy.Invocation, next proxy.Handler) (any, error) {
		appID, orgID := scope.Capture(ctx)
		ctx, span := tracer.Start(ctx, "startflow.call",
			trace.WithAttributes(
				attribute.String("startflow.type", matcher.TypeName(inv.TargetType)),
				attribute.String("startflow.method", inv.Method.Name),
				attribute.String("startflow.scope.app_id", appID),
				attribute.String("startflow.scope.org_id", orgID),
			),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()

		res, err := next(ctx, inv)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return res, err
	}
}
