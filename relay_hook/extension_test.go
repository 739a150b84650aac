package relayhook_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/xraph/forge"
	"github.com/xraph/relay"
	revent "github.com/xraph/relay/event"
	"github.com/xraph/relay/store/memory"

	"github.com/xraph/startflow/ext"
	"github.com/xraph/startflow/id"
	"github.com/xraph/startflow/interceptor"
	rh "github.com/xraph/startflow/relay_hook"
	"github.com/xraph/startflow/workflow"
)

// ── Helpers ─────────────────────────────────────────

func newTestRelay(t *testing.T) *relay.Relay {
	t.Helper()
	r, err := relay.New(relay.WithStore(memory.New()))
	if err != nil {
		t.Fatalf("failed to create relay: %v", err)
	}
	if err := rh.RegisterAll(context.Background(), r); err != nil {
		t.Fatalf("failed to register event types: %v", err)
	}
	return r
}

func newTestRun() *workflow.Run {
	return &workflow.Run{
		ID:         id.NewRunID(),
		Name:       "orderFulfilment",
		State:      workflow.RunStateCompleted,
		ScopeAppID: "app-1",
		ScopeOrgID: "org-1",
	}
}

func newTestStart() *interceptor.Start {
	return &interceptor.Start{
		InvocationID: id.NewInvocationID(),
		Type:         "OrderService",
		Method:       "PlaceOrder",
		Key:          "orderFulfilment",
		Variables:    map[string]any{"customerId": "C-1"},
	}
}

// lastEvent retrieves the most recent event of eventType from the relay
// store. It fails the test if none is found.
func lastEvent(t *testing.T, r *relay.Relay, eventType string) *revent.Event {
	t.Helper()
	events, err := r.Store().ListEvents(context.Background(), revent.ListOpts{
		Type:  eventType,
		Limit: 1,
	})
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(events) == 0 {
		t.Fatalf("no %s event found", eventType)
	}
	return events[0]
}

// ── Tests ───────────────────────────────────────────

func TestRelayHookExtension_Name(t *testing.T) {
	h := rh.New(newTestRelay(t))
	if h.Name() != "relay-hook" {
		t.Errorf("expected name %q, got %q", "relay-hook", h.Name())
	}
}

func TestRelayHookExtension_Tenants(t *testing.T) {
	scoped := forge.WithScope(context.Background(), forge.NewOrgScope("app-1", "org-9"))

	tests := []struct {
		name      string
		eventType string
		fire      func(h *rh.Extension) error
		tenant    string
	}{
		{
			name:      "object proxied is system level",
			eventType: rh.EventObjectProxied,
			fire: func(h *rh.Extension) error {
				return h.OnObjectProxied(scoped, "orders", reflect.TypeOf(newTestRun()), []string{"PlaceOrder"})
			},
			tenant: "",
		},
		{
			name:      "process started uses run scope",
			eventType: rh.EventProcessStarted,
			fire: func(h *rh.Extension) error {
				return h.OnProcessStarted(scoped, newTestStart(), newTestRun())
			},
			tenant: "org-1",
		},
		{
			name:      "start failed uses caller scope",
			eventType: rh.EventProcessStartFailed,
			fire: func(h *rh.Extension) error {
				return h.OnProcessStartFailed(scoped, newTestStart(), errors.New("no engine"))
			},
			tenant: "org-9",
		},
		{
			name:      "workflow started",
			eventType: rh.EventWorkflowStarted,
			fire: func(h *rh.Extension) error {
				return h.OnWorkflowStarted(context.Background(), newTestRun())
			},
			tenant: "org-1",
		},
		{
			name:      "step completed",
			eventType: rh.EventWorkflowStepCompleted,
			fire: func(h *rh.Extension) error {
				return h.OnWorkflowStepCompleted(context.Background(), newTestRun(), "reserve", time.Second)
			},
			tenant: "org-1",
		},
		{
			name:      "step failed",
			eventType: rh.EventWorkflowStepFailed,
			fire: func(h *rh.Extension) error {
				return h.OnWorkflowStepFailed(context.Background(), newTestRun(), "charge", errors.New("declined"))
			},
			tenant: "org-1",
		},
		{
			name:      "workflow completed",
			eventType: rh.EventWorkflowCompleted,
			fire: func(h *rh.Extension) error {
				return h.OnWorkflowCompleted(context.Background(), newTestRun(), 2*time.Second)
			},
			tenant: "org-1",
		},
		{
			name:      "workflow failed",
			eventType: rh.EventWorkflowFailed,
			fire: func(h *rh.Extension) error {
				return h.OnWorkflowFailed(context.Background(), newTestRun(), errors.New("out of stock"))
			},
			tenant: "org-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRelay(t)
			if err := tt.fire(rh.New(r)); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if evt := lastEvent(t, r, tt.eventType); evt.TenantID != tt.tenant {
				t.Errorf("TenantID: want %q, got %q", tt.tenant, evt.TenantID)
			}
		})
	}
}

func TestRelayHookExtension_WithEvents_FiltersDisabled(t *testing.T) {
	r := newTestRelay(t)
	h := rh.New(r, rh.WithEvents(rh.EventProcessStartFailed))
	ctx := context.Background()

	// Started is not in the enabled set and is skipped.
	if err := h.OnProcessStarted(ctx, newTestStart(), newTestRun()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	events, err := r.Store().ListEvents(ctx, revent.ListOpts{Type: rh.EventProcessStarted, Limit: 10})
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected 0 started events (disabled), got %d", len(events))
	}

	if err := h.OnProcessStartFailed(ctx, newTestStart(), errors.New("boom")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	events, err = r.Store().ListEvents(ctx, revent.ListOpts{Type: rh.EventProcessStartFailed, Limit: 10})
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("expected 1 failed event, got %d", len(events))
	}
}

func TestRelayHookExtension_PayloadFunc(t *testing.T) {
	r := newTestRelay(t)
	payloadErr := errors.New("cannot build payload")
	h := rh.New(r, rh.WithPayloadFunc(rh.EventWorkflowFailed, func(any) (any, error) {
		return nil, payloadErr
	}))

	err := h.OnWorkflowFailed(context.Background(), newTestRun(), errors.New("x"))
	if !errors.Is(err, payloadErr) {
		t.Fatalf("err = %v, want %v", err, payloadErr)
	}
}

func TestRelayHookExtension_ViaRegistry(t *testing.T) {
	r := newTestRelay(t)
	reg := ext.NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
	reg.Register(rh.New(r))

	ctx := context.Background()
	run := newTestRun()
	start := newTestStart()

	reg.EmitObjectProxied(ctx, "orders", reflect.TypeOf(start), []string{"PlaceOrder"})
	reg.EmitProcessStarted(ctx, start, run)
	reg.EmitProcessStartFailed(ctx, start, errors.New("fail"))
	reg.EmitWorkflowStarted(ctx, run)
	reg.EmitWorkflowStepCompleted(ctx, run, "step-1", time.Second)
	reg.EmitWorkflowStepFailed(ctx, run, "step-2", errors.New("bad"))
	reg.EmitWorkflowCompleted(ctx, run, 2*time.Second)
	reg.EmitWorkflowFailed(ctx, run, errors.New("wf fail"))

	for _, def := range rh.AllDefinitions() {
		events, err := r.Store().ListEvents(ctx, revent.ListOpts{Type: def.Name, Limit: 10})
		if err != nil {
			t.Fatalf("ListEvents(%s) failed: %v", def.Name, err)
		}
		if len(events) != 1 {
			t.Errorf("%s: want 1 event, got %d", def.Name, len(events))
		}
	}
}
