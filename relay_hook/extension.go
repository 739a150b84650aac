package relayhook

import (
	"context"
	"reflect"
	"time"

	"github.com/xraph/relay"
	"github.com/xraph/relay/event"

	"github.com/xraph/startflow/ext"
	"github.com/xraph/startflow/interceptor"
	"github.com/xraph/startflow/scope"
	"github.com/xraph/startflow/workflow"
)

// Compile-time interface checks.
var (
	_ ext.Extension             = (*Extension)(nil)
	_ ext.ObjectProxied         = (*Extension)(nil)
	_ ext.ProcessStarted        = (*Extension)(nil)
	_ ext.ProcessStartFailed    = (*Extension)(nil)
	_ ext.WorkflowStarted       = (*Extension)(nil)
	_ ext.WorkflowStepCompleted = (*Extension)(nil)
	_ ext.WorkflowStepFailed    = (*Extension)(nil)
	_ ext.WorkflowCompleted     = (*Extension)(nil)
	_ ext.WorkflowFailed        = (*Extension)(nil)
)

// Extension bridges startflow lifecycle events to Relay for webhook
// delivery. Each hook emits a typed event via [relay.Relay.Send].
type Extension struct {
	relay    *relay.Relay
	enabled  map[string]bool        // nil = all enabled
	payloads map[string]PayloadFunc // custom payload builders
}

// New creates an Extension that emits lifecycle events through r.
func New(r *relay.Relay, opts ...Option) *Extension {
	h := &Extension{relay: r}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Name implements ext.Extension.
func (h *Extension) Name() string { return "relay-hook" }

// ── Interception hooks ──────────────────────────────

// OnObjectProxied implements ext.ObjectProxied. Proxy installation is
// system-level and carries no tenant.
func (h *Extension) OnObjectProxied(ctx context.Context, name string, target reflect.Type, methods []string) error {
	p := &proxiedPayload{Component: name, Methods: methods}
	if target != nil {
		p.TargetType = target.String()
	}
	return h.send(ctx, EventObjectProxied, "", p)
}

// OnProcessStarted implements ext.ProcessStarted.
func (h *Extension) OnProcessStarted(ctx context.Context, s *interceptor.Start, r *workflow.Run) error {
	return h.send(ctx, EventProcessStarted, r.ScopeOrgID, &processStartedPayload{
		processPayload: *newProcessPayload(ctx, s),
		RunID:          r.ID.String(),
		State:          string(r.State),
	})
}

// OnProcessStartFailed implements ext.ProcessStartFailed. The tenant comes
// from the caller's scope since no run exists.
func (h *Extension) OnProcessStartFailed(ctx context.Context, s *interceptor.Start, startErr error) error {
	p := newProcessPayload(ctx, s)
	return h.send(ctx, EventProcessStartFailed, p.ScopeOrgID, &processFailedPayload{
		processPayload: *p,
		Error:          startErr.Error(),
	})
}

// ── Workflow lifecycle hooks ────────────────────────

// OnWorkflowStarted implements ext.WorkflowStarted.
func (h *Extension) OnWorkflowStarted(ctx context.Context, r *workflow.Run) error {
	return h.send(ctx, EventWorkflowStarted, r.ScopeOrgID, newWorkflowPayload(r))
}

// OnWorkflowStepCompleted implements ext.WorkflowStepCompleted.
func (h *Extension) OnWorkflowStepCompleted(ctx context.Context, r *workflow.Run, stepName string, elapsed time.Duration) error {
	return h.send(ctx, EventWorkflowStepCompleted, r.ScopeOrgID, &workflowStepPayload{
		workflowPayload: *newWorkflowPayload(r),
		StepName:        stepName,
		ElapsedMs:       elapsed.Milliseconds(),
	})
}

// OnWorkflowStepFailed implements ext.WorkflowStepFailed.
func (h *Extension) OnWorkflowStepFailed(ctx context.Context, r *workflow.Run, stepName string, stepErr error) error {
	return h.send(ctx, EventWorkflowStepFailed, r.ScopeOrgID, &workflowStepPayload{
		workflowPayload: *newWorkflowPayload(r),
		StepName:        stepName,
		Error:           stepErr.Error(),
	})
}

// OnWorkflowCompleted implements ext.WorkflowCompleted.
func (h *Extension) OnWorkflowCompleted(ctx context.Context, r *workflow.Run, elapsed time.Duration) error {
	return h.send(ctx, EventWorkflowCompleted, r.ScopeOrgID, &workflowCompletedPayload{
		workflowPayload: *newWorkflowPayload(r),
		ElapsedMs:       elapsed.Milliseconds(),
	})
}

// OnWorkflowFailed implements ext.WorkflowFailed.
func (h *Extension) OnWorkflowFailed(ctx context.Context, r *workflow.Run, runErr error) error {
	return h.send(ctx, EventWorkflowFailed, r.ScopeOrgID, &workflowFailedPayload{
		workflowPayload: *newWorkflowPayload(r),
		Error:           runErr.Error(),
	})
}

// ── Internal helpers ────────────────────────────────

// send emits an event through Relay if the event type is enabled.
func (h *Extension) send(ctx context.Context, eventType, tenantID string, defaultData any) error {
	if h.enabled != nil && !h.enabled[eventType] {
		return nil
	}

	data := defaultData
	if fn, ok := h.payloads[eventType]; ok {
		custom, err := fn(defaultData)
		if err != nil {
			return err
		}
		data = custom
	}

	return h.relay.Send(ctx, &event.Event{
		Type:     eventType,
		TenantID: tenantID,
		Data:     data,
	})
}

// ── Default payload types ───────────────────────────

type proxiedPayload struct {
	Component  string   `json:"component"`
	TargetType string   `json:"target_type"`
	Methods    []string `json:"methods"`
}

type processPayload struct {
	InvocationID string         `json:"invocation_id"`
	ProcessKey   string         `json:"process_key"`
	Type         string         `json:"type"`
	Method       string         `json:"method"`
	Variables    map[string]any `json:"variables,omitempty"`
	ScopeAppID   string         `json:"scope_app_id,omitempty"`
	ScopeOrgID   string         `json:"scope_org_id,omitempty"`
}

func newProcessPayload(ctx context.Context, s *interceptor.Start) *processPayload {
	appID, orgID := scope.Capture(ctx)
	return &processPayload{
		InvocationID: s.InvocationID.String(),
		ProcessKey:   s.Key,
		Type:         s.Type,
		Method:       s.Method,
		Variables:    s.Variables,
		ScopeAppID:   appID,
		ScopeOrgID:   orgID,
	}
}

type processStartedPayload struct {
	processPayload
	RunID string `json:"run_id"`
	State string `json:"state"`
}

type processFailedPayload struct {
	processPayload
	Error string `json:"error"`
}

type workflowPayload struct {
	RunID      string `json:"run_id"`
	Name       string `json:"name"`
	Version    int    `json:"version"`
	ScopeAppID string `json:"scope_app_id,omitempty"`
	ScopeOrgID string `json:"scope_org_id,omitempty"`
}

func newWorkflowPayload(r *workflow.Run) *workflowPayload {
	return &workflowPayload{
		RunID:      r.ID.String(),
		Name:       r.Name,
		Version:    r.Version,
		ScopeAppID: r.ScopeAppID,
		ScopeOrgID: r.ScopeOrgID,
	}
}

type workflowCompletedPayload struct {
	workflowPayload
	ElapsedMs int64 `json:"elapsed_ms"`
}

type workflowFailedPayload struct {
	workflowPayload
	Error string `json:"error"`
}

type workflowStepPayload struct {
	workflowPayload
	StepName  string `json:"step_name"`
	ElapsedMs int64  `json:"elapsed_ms,omitempty"`
	Error     string `json:"error,omitempty"`
}
