package workflow_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/xraph/startflow/store/memory"
	"github.com/xraph/startflow/workflow"
)

// noopEmitter implements workflow.RunEmitter with no-ops.
type noopEmitter struct{}

func (noopEmitter) EmitStepCompleted(context.Context, *workflow.Run, string, time.Duration) {}
func (noopEmitter) EmitStepFailed(context.Context, *workflow.Run, string, error)            {}
func (noopEmitter) EmitWorkflowStarted(context.Context, *workflow.Run)                      {}
func (noopEmitter) EmitWorkflowCompleted(context.Context, *workflow.Run, time.Duration)     {}
func (noopEmitter) EmitWorkflowFailed(context.Context, *workflow.Run, error)                {}

// testLogger returns a silent logger for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRunner() (*workflow.Runner, *workflow.Registry, *memory.Store) {
	s := memory.New()
	reg := workflow.NewRegistry()
	return workflow.NewRunner(reg, s, noopEmitter{}, testLogger()), reg, s
}
