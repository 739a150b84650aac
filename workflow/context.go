package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/startflow/id"
)

// StepEmitter is notified about step outcomes. ext.Registry satisfies it
// through an adapter in the engine package, which keeps workflow free of
// an import on ext.
type StepEmitter interface {
	EmitStepCompleted(ctx context.Context, run *Run, stepName string, elapsed time.Duration)
	EmitStepFailed(ctx context.Context, run *Run, stepName string, err error)
}

// Workflow is the execution context handed to a process handler.
type Workflow struct {
	ctx     context.Context
	run     *Run
	store   Store
	emitter StepEmitter
	logger  *slog.Logger
}

// NewWorkflowContext creates the context for one handler execution. The
// runner calls it; application code does not.
func NewWorkflowContext(
	ctx context.Context,
	run *Run,
	store Store,
	emitter StepEmitter,
	logger *slog.Logger,
) *Workflow {
	return &Workflow{
		ctx:     ctx,
		run:     run,
		store:   store,
		emitter: emitter,
		logger:  logger,
	}
}

// Context returns the underlying context.Context.
func (w *Workflow) Context() context.Context { return w.ctx }

// RunID returns the process instance ID.
func (w *Workflow) RunID() id.RunID { return w.run.ID }

// Run returns the process instance.
func (w *Workflow) Run() *Run { return w.run }
