package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/xraph/startflow"
	"github.com/xraph/startflow/id"
	"github.com/xraph/startflow/scope"
)

// RunEmitter is notified about run-level lifecycle events.
// ext.Registry satisfies it through an adapter in the engine package.
type RunEmitter interface {
	StepEmitter
	EmitWorkflowStarted(ctx context.Context, run *Run)
	EmitWorkflowCompleted(ctx context.Context, run *Run, elapsed time.Duration)
	EmitWorkflowFailed(ctx context.Context, run *Run, err error)
}

// Runner creates process instances, executes their handlers and records
// the outcome.
type Runner struct {
	registry *Registry
	store    Store
	emitter  RunEmitter
	logger   *slog.Logger
}

// NewRunner creates a runner. A nil logger falls back to slog.Default.
func NewRunner(registry *Registry, store Store, emitter RunEmitter, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		registry: registry,
		store:    store,
		emitter:  emitter,
		logger:   logger,
	}
}

// Registry returns the process registry.
func (r *Runner) Registry() *Registry { return r.registry }

// Store returns the run store.
func (r *Runner) Store() Store { return r.store }

// StartProcess starts the process registered under key with vars as its
// variables. It is the engine port used by intercepted methods.
//
// The returned error covers failures to create the instance (unknown key,
// unencodable variables, store errors). A handler that fails still yields
// a run, in the failed state.
func (r *Runner) StartProcess(ctx context.Context, key string, vars map[string]any) (*Run, error) {
	if vars == nil {
		vars = map[string]any{}
	}
	data, err := json.Marshal(vars)
	if err != nil {
		return nil, fmt.Errorf("encode variables for process %q: %w", key, err)
	}
	return r.StartRaw(ctx, key, data)
}

// Start starts a process with a typed input.
func Start[T any](ctx context.Context, runner *Runner, name string, input T) (*Run, error) {
	data, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("encode input for process %q: %w", name, err)
	}

	return runner.StartRaw(ctx, name, data)
}

// StartRaw starts a process with pre-encoded JSON input, stamped with the
// latest registered version, and executes it synchronously.
func (r *Runner) StartRaw(ctx context.Context, name string, input []byte) (*Run, error) {
	runner, ok := r.registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", startflow.ErrWorkflowNotFound, name)
	}

	appID, orgID := scope.Capture(ctx)

	run := &Run{
		Entity:     startflow.NewEntity(),
		ID:         id.NewRunID(),
		Name:       name,
		Version:    r.registry.LatestVersion(name),
		State:      RunStateRunning,
		Input:      input,
		ScopeAppID: appID,
		ScopeOrgID: orgID,
		StartedAt:  time.Now().UTC(),
	}

	if err := r.store.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("create run for process %q: %w", name, err)
	}

	r.emitter.EmitWorkflowStarted(ctx, run)
	r.executeRun(ctx, run, runner, input)

	return run, nil
}

// executeRun runs the handler and persists the terminal state.
func (r *Runner) executeRun(ctx context.Context, run *Run, runner RunnerFunc, input []byte) {
	ctx = scope.Restore(ctx, run.ScopeAppID, run.ScopeOrgID)

	start := time.Now()
	wf := NewWorkflowContext(ctx, run, r.store, r.emitter, r.logger)
	err := r.callHandler(wf, run, runner, input)
	elapsed := time.Since(start)

	now := time.Now().UTC()
	run.CompletedAt = &now
	run.UpdatedAt = now

	if err != nil {
		run.State = RunStateFailed
		run.Error = err.Error()
		if updateErr := r.store.UpdateRun(ctx, run); updateErr != nil {
			r.logger.Error("failed to update run as failed",
				slog.String("run_id", run.ID.String()),
				slog.String("error", updateErr.Error()),
			)
		}
		r.emitter.EmitWorkflowFailed(ctx, run, err)
		return
	}

	run.State = RunStateCompleted
	run.Error = ""
	if updateErr := r.store.UpdateRun(ctx, run); updateErr != nil {
		r.logger.Error("failed to update run as completed",
			slog.String("run_id", run.ID.String()),
			slog.String("error", updateErr.Error()),
		)
	}
	r.emitter.EmitWorkflowCompleted(ctx, run, elapsed)
}

// callHandler runs the handler, turning a panic into ErrHandlerPanic so the
// run ends failed instead of staying "running" and panicking again on
// every resume.
func (r *Runner) callHandler(wf *Workflow, run *Run, runner RunnerFunc, input []byte) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("process handler panicked",
				slog.String("run_id", run.ID.String()),
				slog.String("process", run.Name),
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("%w: %s: %v", startflow.ErrHandlerPanic, run.Name, rec)
		}
	}()
	return runner(wf, input)
}

// Resume re-executes a run left in the running state. Checkpointed steps
// are skipped and the run keeps its stamped version.
func (r *Runner) Resume(ctx context.Context, runID id.RunID) error {
	run, err := r.store.GetRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("get run %s: %w", runID, err)
	}
	if run.State != RunStateRunning {
		return fmt.Errorf("%w: run %s is %q", startflow.ErrInvalidState, runID, run.State)
	}

	runner, ok := r.registry.GetVersion(run.Name, run.Version)
	if !ok {
		return fmt.Errorf("%w: %q version %d (run %s)", startflow.ErrWorkflowNotFound, run.Name, run.Version, runID)
	}

	r.executeRun(ctx, run, runner, run.Input)
	return nil
}

// ResumeAll resumes every run in the running state. Individual failures
// are logged and do not stop the sweep.
func (r *Runner) ResumeAll(ctx context.Context) error {
	runs, err := r.store.ListRuns(ctx, ListOpts{State: RunStateRunning})
	if err != nil {
		return fmt.Errorf("list running runs: %w", err)
	}

	for _, run := range runs {
		r.logger.Info("resuming process run",
			slog.String("run_id", run.ID.String()),
			slog.String("process", run.Name),
		)
		if resumeErr := r.Resume(ctx, run.ID); resumeErr != nil {
			r.logger.Error("failed to resume process run",
				slog.String("run_id", run.ID.String()),
				slog.String("error", resumeErr.Error()),
			)
		}
	}

	return nil
}
