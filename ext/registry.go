package ext

import (
	"context"
	"log/slog"
	"reflect"
	"time"

	"github.com/xraph/startflow/interceptor"
	"github.com/xraph/startflow/workflow"
)

// entry pairs a hook with the extension name captured at registration.
type entry[H any] struct {
	name string
	hook H
}

// collect appends e to list when it implements H.
func collect[H any](list []entry[H], e Extension, name string) []entry[H] {
	if h, ok := e.(H); ok {
		list = append(list, entry[H]{name: name, hook: h})
	}
	return list
}

// Registry holds registered extensions and fans lifecycle events out to
// them. Hooks are cached per type at registration, so an emit only visits
// extensions implementing that hook.
//
// Registry satisfies interceptor.Emitter and installer.Emitter directly.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	processStarted        []entry[ProcessStarted]
	processStartFailed    []entry[ProcessStartFailed]
	objectProxied         []entry[ObjectProxied]
	workflowStarted       []entry[WorkflowStarted]
	workflowStepCompleted []entry[WorkflowStepCompleted]
	workflowStepFailed    []entry[WorkflowStepFailed]
	workflowCompleted     []entry[WorkflowCompleted]
	workflowFailed        []entry[WorkflowFailed]
	shutdown              []entry[Shutdown]
}

var _ interceptor.Emitter = (*Registry)(nil)

// NewRegistry creates an extension registry. A nil logger falls back to
// slog.Default.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds an extension. Extensions are notified in registration
// order. Register must not be called concurrently with emits.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	r.processStarted = collect(r.processStarted, e, name)
	r.processStartFailed = collect(r.processStartFailed, e, name)
	r.objectProxied = collect(r.objectProxied, e, name)
	r.workflowStarted = collect(r.workflowStarted, e, name)
	r.workflowStepCompleted = collect(r.workflowStepCompleted, e, name)
	r.workflowStepFailed = collect(r.workflowStepFailed, e, name)
	r.workflowCompleted = collect(r.workflowCompleted, e, name)
	r.workflowFailed = collect(r.workflowFailed, e, name)
	r.shutdown = collect(r.shutdown, e, name)
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// ──────────────────────────────────────────────────
// Interception emitters
// ──────────────────────────────────────────────────

// EmitProcessStarted notifies ProcessStarted hooks.
func (r *Registry) EmitProcessStarted(ctx context.Context, start *interceptor.Start, run *workflow.Run) {
	for _, e := range r.processStarted {
		if err := e.hook.OnProcessStarted(ctx, start, run); err != nil {
			r.logHookError("OnProcessStarted", e.name, err)
		}
	}
}

// EmitProcessStartFailed notifies ProcessStartFailed hooks.
func (r *Registry) EmitProcessStartFailed(ctx context.Context, start *interceptor.Start, startErr error) {
	for _, e := range r.processStartFailed {
		if err := e.hook.OnProcessStartFailed(ctx, start, startErr); err != nil {
			r.logHookError("OnProcessStartFailed", e.name, err)
		}
	}
}

// EmitObjectProxied notifies ObjectProxied hooks.
func (r *Registry) EmitObjectProxied(ctx context.Context, name string, target reflect.Type, methods []string) {
	for _, e := range r.objectProxied {
		if err := e.hook.OnObjectProxied(ctx, name, target, methods); err != nil {
			r.logHookError("OnObjectProxied", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Workflow emitters
// ──────────────────────────────────────────────────

// EmitWorkflowStarted notifies WorkflowStarted hooks.
func (r *Registry) EmitWorkflowStarted(ctx context.Context, run *workflow.Run) {
	for _, e := range r.workflowStarted {
		if err := e.hook.OnWorkflowStarted(ctx, run); err != nil {
			r.logHookError("OnWorkflowStarted", e.name, err)
		}
	}
}

// EmitWorkflowStepCompleted notifies WorkflowStepCompleted hooks.
func (r *Registry) EmitWorkflowStepCompleted(ctx context.Context, run *workflow.Run, stepName string, elapsed time.Duration) {
	for _, e := range r.workflowStepCompleted {
		if err := e.hook.OnWorkflowStepCompleted(ctx, run, stepName, elapsed); err != nil {
			r.logHookError("OnWorkflowStepCompleted", e.name, err)
		}
	}
}

// EmitWorkflowStepFailed notifies WorkflowStepFailed hooks.
func (r *Registry) EmitWorkflowStepFailed(ctx context.Context, run *workflow.Run, stepName string, stepErr error) {
	for _, e := range r.workflowStepFailed {
		if err := e.hook.OnWorkflowStepFailed(ctx, run, stepName, stepErr); err != nil {
			r.logHookError("OnWorkflowStepFailed", e.name, err)
		}
	}
}

// EmitWorkflowCompleted notifies WorkflowCompleted hooks.
func (r *Registry) EmitWorkflowCompleted(ctx context.Context, run *workflow.Run, elapsed time.Duration) {
	for _, e := range r.workflowCompleted {
		if err := e.hook.OnWorkflowCompleted(ctx, run, elapsed); err != nil {
			r.logHookError("OnWorkflowCompleted", e.name, err)
		}
	}
}

// EmitWorkflowFailed notifies WorkflowFailed hooks.
func (r *Registry) EmitWorkflowFailed(ctx context.Context, run *workflow.Run, runErr error) {
	for _, e := range r.workflowFailed {
		if err := e.hook.OnWorkflowFailed(ctx, run, runErr); err != nil {
			r.logHookError("OnWorkflowFailed", e.name, err)
		}
	}
}

// EmitShutdown notifies Shutdown hooks.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a hook failure. Hook errors never reach the caller.
func (r *Registry) logHookError(hook, extName string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}
