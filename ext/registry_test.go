package ext_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/xraph/startflow/ext"
	"github.com/xraph/startflow/interceptor"
	"github.com/xraph/startflow/workflow"
)

// ──────────────────────────────────────────────────
// Test extensions
// ──────────────────────────────────────────────────

// allHooksExt implements every lifecycle hook.
type allHooksExt struct {
	calls []string
}

func (e *allHooksExt) Name() string { return "all-hooks" }

func (e *allHooksExt) record(call string) error {
	e.calls = append(e.calls, call)
	return nil
}

func (e *allHooksExt) OnProcessStarted(context.Context, *interceptor.Start, *workflow.Run) error {
	return e.record("OnProcessStarted")
}

func (e *allHooksExt) OnProcessStartFailed(context.Context, *interceptor.Start, error) error {
	return e.record("OnProcessStartFailed")
}

func (e *allHooksExt) OnObjectProxied(context.Context, string, reflect.Type, []string) error {
	return e.record("OnObjectProxied")
}

func (e *allHooksExt) OnWorkflowStarted(context.Context, *workflow.Run) error {
	return e.record("OnWorkflowStarted")
}

func (e *allHooksExt) OnWorkflowStepCompleted(context.Context, *workflow.Run, string, time.Duration) error {
	return e.record("OnWorkflowStepCompleted")
}

func (e *allHooksExt) OnWorkflowStepFailed(context.Context, *workflow.Run, string, error) error {
	return e.record("OnWorkflowStepFailed")
}

func (e *allHooksExt) OnWorkflowCompleted(context.Context, *workflow.Run, time.Duration) error {
	return e.record("OnWorkflowCompleted")
}

func (e *allHooksExt) OnWorkflowFailed(context.Context, *workflow.Run, error) error {
	return e.record("OnWorkflowFailed")
}

func (e *allHooksExt) OnShutdown(context.Context) error {
	return e.record("OnShutdown")
}

// startOnlyExt only listens to process starts.
type startOnlyExt struct {
	keys []string
}

func (e *startOnlyExt) Name() string { return "start-only" }

func (e *startOnlyExt) OnProcessStarted(_ context.Context, s *interceptor.Start, _ *workflow.Run) error {
	e.keys = append(e.keys, s.Key)
	return nil
}

// failingExt returns errors from hooks.
type failingExt struct{}

func (e *failingExt) Name() string { return "failing" }

func (e *failingExt) OnProcessStarted(context.Context, *interceptor.Start, *workflow.Run) error {
	return errors.New("boom")
}

func (e *failingExt) OnShutdown(context.Context) error {
	return errors.New("shutdown boom")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ──────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────

func TestRegistry_Register(t *testing.T) {
	r := ext.NewRegistry(testLogger())
	r.Register(&allHooksExt{})
	r.Register(&startOnlyExt{})

	var names []string
	for _, e := range r.Extensions() {
		names = append(names, e.Name())
	}
	if diff := cmp.Diff([]string{"all-hooks", "start-only"}, names); diff != "" {
		t.Errorf("extensions mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_EmitFiresOnlyImplementors(t *testing.T) {
	r := ext.NewRegistry(testLogger())
	all := &allHooksExt{}
	so := &startOnlyExt{}
	r.Register(all)
	r.Register(so)

	ctx := context.Background()
	start := &interceptor.Start{Key: "orderFulfilment"}

	r.EmitProcessStarted(ctx, start, &workflow.Run{})
	r.EmitProcessStartFailed(ctx, start, errors.New("no engine"))

	if diff := cmp.Diff([]string{"OnProcessStarted", "OnProcessStartFailed"}, all.calls); diff != "" {
		t.Errorf("all-hooks calls mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"orderFulfilment"}, so.keys); diff != "" {
		t.Errorf("start-only calls mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_AllHooksFire(t *testing.T) {
	r := ext.NewRegistry(testLogger())
	all := &allHooksExt{}
	r.Register(all)

	ctx := context.Background()
	run := &workflow.Run{Name: "orderFulfilment"}
	start := &interceptor.Start{Key: run.Name}

	r.EmitObjectProxied(ctx, "orders", reflect.TypeOf(all), []string{"PlaceOrder"})
	r.EmitProcessStarted(ctx, start, run)
	r.EmitProcessStartFailed(ctx, start, errors.New("x"))
	r.EmitWorkflowStarted(ctx, run)
	r.EmitWorkflowStepCompleted(ctx, run, "reserve", time.Second)
	r.EmitWorkflowStepFailed(ctx, run, "charge", errors.New("declined"))
	r.EmitWorkflowCompleted(ctx, run, 2*time.Second)
	r.EmitWorkflowFailed(ctx, run, errors.New("wf fail"))
	r.EmitShutdown(ctx)

	want := []string{
		"OnObjectProxied", "OnProcessStarted", "OnProcessStartFailed",
		"OnWorkflowStarted", "OnWorkflowStepCompleted", "OnWorkflowStepFailed",
		"OnWorkflowCompleted", "OnWorkflowFailed", "OnShutdown",
	}
	if diff := cmp.Diff(want, all.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_HookErrorsLoggedNotPropagated(t *testing.T) {
	r := ext.NewRegistry(testLogger())
	all := &allHooksExt{}

	// The failing extension comes first; later ones still fire.
	r.Register(&failingExt{})
	r.Register(all)

	ctx := context.Background()
	r.EmitProcessStarted(ctx, &interceptor.Start{}, &workflow.Run{})
	r.EmitShutdown(ctx)

	if diff := cmp.Diff([]string{"OnProcessStarted", "OnShutdown"}, all.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_EmptyRegistryNoOp(_ *testing.T) {
	r := ext.NewRegistry(nil)
	ctx := context.Background()

	r.EmitProcessStarted(ctx, &interceptor.Start{}, &workflow.Run{})
	r.EmitProcessStartFailed(ctx, &interceptor.Start{}, errors.New("x"))
	r.EmitObjectProxied(ctx, "x", nil, nil)
	r.EmitWorkflowStarted(ctx, &workflow.Run{})
	r.EmitWorkflowStepCompleted(ctx, &workflow.Run{}, "s", time.Second)
	r.EmitWorkflowStepFailed(ctx, &workflow.Run{}, "s", errors.New("x"))
	r.EmitWorkflowCompleted(ctx, &workflow.Run{}, time.Second)
	r.EmitWorkflowFailed(ctx, &workflow.Run{}, errors.New("x"))
	r.EmitShutdown(ctx)
}
