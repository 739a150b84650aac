package workflow

import (
	"context"

	"github.com/xraph/startflow/id"
)

// ListOpts controls pagination for run list queries.
type ListOpts struct {
	// Limit is the maximum number of runs to return. Zero means no limit.
	Limit int
	// Offset is the number of runs to skip.
	Offset int
	// State filters by run state. Empty means all states.
	State RunState
	// Name filters by process key. Empty means all keys.
	Name string
}

// Store defines the persistence contract for process instances.
type Store interface {
	// CreateRun persists a new run. It returns startflow.ErrRunAlreadyExists
	// if the ID is taken.
	CreateRun(ctx context.Context, run *Run) error

	// GetRun retrieves a run by ID, or startflow.ErrRunNotFound.
	GetRun(ctx context.Context, runID id.RunID) (*Run, error)

	// UpdateRun persists changes to an existing run.
	UpdateRun(ctx context.Context, run *Run) error

	// ListRuns returns runs matching opts, oldest first.
	ListRuns(ctx context.Context, opts ListOpts) ([]*Run, error)

	// SaveCheckpoint persists step data, replacing any previous checkpoint
	// for the same run and step.
	SaveCheckpoint(ctx context.Context, runID id.RunID, stepName string, data []byte) error

	// GetCheckpoint returns nil data when no checkpoint exists.
	GetCheckpoint(ctx context.Context, runID id.RunID, stepName string) ([]byte, error)

	// ListCheckpoints returns the checkpoints of a run in creation order.
	ListCheckpoints(ctx context.Context, runID id.RunID) ([]*Checkpoint, error)
}
