package ext

import (
	"context"
	"reflect"
	"time"

	"github.com/xraph/startflow/interceptor"
	"github.com/xraph/startflow/workflow"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// ──────────────────────────────────────────────────
// Interception hooks
// ──────────────────────────────────────────────────

// ProcessStarted is called after an intercepted call started a process.
type ProcessStarted interface {
	OnProcessStarted(ctx context.Context, start *interceptor.Start, r *workflow.Run) error
}

// ProcessStartFailed is called when the method body succeeded but the
// process could not be started.
type ProcessStartFailed interface {
	OnProcessStartFailed(ctx context.Context, start *interceptor.Start, err error) error
}

// ObjectProxied is called when the installer advises a component.
type ObjectProxied interface {
	OnObjectProxied(ctx context.Context, name string, target reflect.Type, methods []string) error
}

// ──────────────────────────────────────────────────
// Workflow lifecycle hooks
// ──────────────────────────────────────────────────

// WorkflowStarted is called when a run is created.
type WorkflowStarted interface {
	OnWorkflowStarted(ctx context.Context, r *workflow.Run) error
}

// WorkflowStepCompleted is called after a step completes.
type WorkflowStepCompleted interface {
	OnWorkflowStepCompleted(ctx context.Context, r *workflow.Run, stepName string, elapsed time.Duration) error
}

// WorkflowStepFailed is called when a step fails.
type WorkflowStepFailed interface {
	OnWorkflowStepFailed(ctx context.Context, r *workflow.Run, stepName string, err error) error
}

// WorkflowCompleted is called after a run finishes successfully.
type WorkflowCompleted interface {
	OnWorkflowCompleted(ctx context.Context, r *workflow.Run, elapsed time.Duration) error
}

// WorkflowFailed is called when a run's handler fails.
type WorkflowFailed interface {
	OnWorkflowFailed(ctx context.Context, r *workflow.Run, err error) error
}

// ──────────────────────────────────────────────────
// Other lifecycle hooks
// ──────────────────────────────────────────────────

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
