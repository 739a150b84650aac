package observability_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	gu "github.com/xraph/go-utils/metrics"

	"github.com/xraph/startflow/ext"
	"github.com/xraph/startflow/id"
	"github.com/xraph/startflow/interceptor"
	"github.com/xraph/startflow/observability"
	"github.com/xraph/startflow/workflow"
)

func newTestExtension() *observability.MetricsExtension {
	return observability.NewMetricsExtensionWithFactory(gu.NewMetricsCollector("test"))
}

func newTestRun() *workflow.Run {
	return &workflow.Run{
		ID:   id.NewRunID(),
		Name: "orderFulfilment",
	}
}

func newTestStart() *interceptor.Start {
	return &interceptor.Start{
		InvocationID: id.NewInvocationID(),
		Type:         "OrderService",
		Method:       "PlaceOrder",
		Key:          "orderFulfilment",
		Variables:    map[string]any{"customerId": "C-1", "qty": 42},
	}
}

func TestMetricsExtension_Name(t *testing.T) {
	e := newTestExtension()
	if e.Name() != "observability-metrics" {
		t.Errorf("expected name %q, got %q", "observability-metrics", e.Name())
	}
}

func TestMetricsExtension_Hooks(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		fire    func(e *observability.MetricsExtension) error
		counter func(e *observability.MetricsExtension) gu.Counter
	}{
		{
			name: "ObjectProxied",
			fire: func(e *observability.MetricsExtension) error {
				return e.OnObjectProxied(ctx, "orders", reflect.TypeOf(e), []string{"PlaceOrder"})
			},
			counter: func(e *observability.MetricsExtension) gu.Counter { return e.ObjectsProxied },
		},
		{
			name: "ProcessStarted",
			fire: func(e *observability.MetricsExtension) error {
				return e.OnProcessStarted(ctx, newTestStart(), newTestRun())
			},
			counter: func(e *observability.MetricsExtension) gu.Counter { return e.ProcessStarted },
		},
		{
			name: "ProcessStartFailed",
			fire: func(e *observability.MetricsExtension) error {
				return e.OnProcessStartFailed(ctx, newTestStart(), errors.New("no engine"))
			},
			counter: func(e *observability.MetricsExtension) gu.Counter { return e.ProcessStartFailed },
		},
		{
			name: "WorkflowStarted",
			fire: func(e *observability.MetricsExtension) error {
				return e.OnWorkflowStarted(ctx, newTestRun())
			},
			counter: func(e *observability.MetricsExtension) gu.Counter { return e.WorkflowStarted },
		},
		{
			name: "WorkflowStepFailed",
			fire: func(e *observability.MetricsExtension) error {
				return e.OnWorkflowStepFailed(ctx, newTestRun(), "reserve", errors.New("x"))
			},
			counter: func(e *observability.MetricsExtension) gu.Counter { return e.WorkflowStepFailed },
		},
		{
			name: "WorkflowCompleted",
			fire: func(e *observability.MetricsExtension) error {
				return e.OnWorkflowCompleted(ctx, newTestRun(), 2*time.Second)
			},
			counter: func(e *observability.MetricsExtension) gu.Counter { return e.WorkflowCompleted },
		},
		{
			name: "WorkflowFailed",
			fire: func(e *observability.MetricsExtension) error {
				return e.OnWorkflowFailed(ctx, newTestRun(), errors.New("step failed"))
			},
			counter: func(e *observability.MetricsExtension) gu.Counter { return e.WorkflowFailed },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestExtension()
			if err := tt.fire(e); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := tt.counter(e).Value(); got != 1 {
				t.Errorf("%s: want 1, got %v", tt.name, got)
			}
		})
	}
}

func TestMetricsExtension_ViaRegistry(t *testing.T) {
	e := newTestExtension()

	reg := ext.NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
	reg.Register(e)

	ctx := context.Background()
	r := newTestRun()

	reg.EmitObjectProxied(ctx, "orders", reflect.TypeOf(e), []string{"PlaceOrder"})
	reg.EmitProcessStarted(ctx, newTestStart(), r)
	reg.EmitProcessStartFailed(ctx, newTestStart(), errors.New("fail"))
	reg.EmitWorkflowStarted(ctx, r)
	reg.EmitWorkflowStepFailed(ctx, r, "charge", errors.New("declined"))
	reg.EmitWorkflowCompleted(ctx, r, time.Second)
	reg.EmitWorkflowFailed(ctx, r, errors.New("wf fail"))

	checks := []struct {
		name  string
		value float64
	}{
		{"ObjectsProxied", e.ObjectsProxied.Value()},
		{"ProcessStarted", e.ProcessStarted.Value()},
		{"ProcessStartFailed", e.ProcessStartFailed.Value()},
		{"WorkflowStarted", e.WorkflowStarted.Value()},
		{"WorkflowStepFailed", e.WorkflowStepFailed.Value()},
		{"WorkflowCompleted", e.WorkflowCompleted.Value()},
		{"WorkflowFailed", e.WorkflowFailed.Value()},
	}

	for _, c := range checks {
		if c.value != 1 {
			t.Errorf("%s: want 1, got %v", c.name, c.value)
		}
	}
}
