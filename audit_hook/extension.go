package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"reflect"
	"slices"
	"time"

	"github.com/xraph/startflow/ext"
	"github.com/xraph/startflow/interceptor"
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

// Recorder is the interface that audit backends must implement.
// It matches chronicle.Emitter but is declared here so this package does
// not import Chronicle; callers inject the concrete recorder at wiring time.
type Recorder interface {
	// Record persists a fully-formed audit event.
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	// What happened
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Category string `json:"category"`

	// Details
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record calls f.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Severity constants (mirror chronicle/audit).
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Outcome constants (mirror chronicle/audit).
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Extension records startflow lifecycle events in an audit trail.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through r.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements ext.Extension.
func (e *Extension) Name() string { return "audit-hook" }

// ── Interception hooks ──────────────────────────────

// OnObjectProxied implements ext.ObjectProxied.
func (e *Extension) OnObjectProxied(ctx context.Context, name string, target reflect.Type, methods []string) error {
	typeName := ""
	if target != nil {
		typeName = target.String()
	}
	return e.record(ctx, ActionObjectProxied, SeverityInfo, OutcomeSuccess,
		ResourceComponent, name, CategoryProxy, nil,
		"target_type", typeName,
		"methods", methods,
	)
}

// OnProcessStarted implements ext.ProcessStarted.
func (e *Extension) OnProcessStarted(ctx context.Context, s *interceptor.Start, r *workflow.Run) error {
	return e.record(ctx, ActionProcessStarted, SeverityInfo, OutcomeSuccess,
		ResourceInvocation, s.InvocationID.String(), CategoryProcess, nil,
		"process_key", s.Key,
		"method", s.Type+"."+s.Method,
		"variables", variableNames(s.Variables),
		"run_id", r.ID.String(),
	)
}

// OnProcessStartFailed implements ext.ProcessStartFailed.
func (e *Extension) OnProcessStartFailed(ctx context.Context, s *interceptor.Start, startErr error) error {
	return e.record(ctx, ActionProcessStartFailed, SeverityCritical, OutcomeFailure,
		ResourceInvocation, s.InvocationID.String(), CategoryProcess, startErr,
		"process_key", s.Key,
		"method", s.Type+"."+s.Method,
		"variables", variableNames(s.Variables),
	)
}

// ── Workflow lifecycle hooks ────────────────────────

// OnWorkflowStarted implements ext.WorkflowStarted.
func (e *Extension) OnWorkflowStarted(ctx context.Context, r *workflow.Run) error {
	return e.record(ctx, ActionWorkflowStarted, SeverityInfo, OutcomeSuccess,
		ResourceWorkflow, r.ID.String(), CategoryWorkflow, nil,
		"workflow_name", r.Name,
		"version", r.Version,
	)
}

// OnWorkflowStepCompleted implements ext.WorkflowStepCompleted.
func (e *Extension) OnWorkflowStepCompleted(ctx context.Context, r *workflow.Run, stepName string, elapsed time.Duration) error {
	return e.record(ctx, ActionWorkflowStepCompleted, SeverityInfo, OutcomeSuccess,
		ResourceWorkflow, r.ID.String(), CategoryWorkflow, nil,
		"workflow_name", r.Name,
		"step_name", stepName,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// OnWorkflowStepFailed implements ext.WorkflowStepFailed.
func (e *Extension) OnWorkflowStepFailed(ctx context.Context, r *workflow.Run, stepName string, stepErr error) error {
	return e.record(ctx, ActionWorkflowStepFailed, SeverityWarning, OutcomeFailure,
		ResourceWorkflow, r.ID.String(), CategoryWorkflow, stepErr,
		"workflow_name", r.Name,
		"step_name", stepName,
	)
}

// OnWorkflowCompleted implements ext.WorkflowCompleted.
func (e *Extension) OnWorkflowCompleted(ctx context.Context, r *workflow.Run, elapsed time.Duration) error {
	return e.record(ctx, ActionWorkflowCompleted, SeverityInfo, OutcomeSuccess,
		ResourceWorkflow, r.ID.String(), CategoryWorkflow, nil,
		"workflow_name", r.Name,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// OnWorkflowFailed implements ext.WorkflowFailed.
func (e *Extension) OnWorkflowFailed(ctx context.Context, r *workflow.Run, runErr error) error {
	return e.record(ctx, ActionWorkflowFailed, SeverityCritical, OutcomeFailure,
		ResourceWorkflow, r.ID.String(), CategoryWorkflow, runErr,
		"workflow_name", r.Name,
	)
}

// ── Internal helpers ────────────────────────────────

// variableNames lists the forwarded variable names. Values stay out of
// the audit trail.
func variableNames(vars map[string]any) []string {
	return slices.Sorted(maps.Keys(vars))
}

// record builds and sends an audit event if the action is enabled.
// kvPairs is a list of key-value pairs added to Metadata.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = reason
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			slog.String("action", action),
			slog.String("resource_id", resourceID),
			slog.String("error", recErr.Error()),
		)
	}
	return nil
}
