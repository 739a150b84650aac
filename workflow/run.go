package workflow

import (
	"encoding/json"
	"time"

	"github.com/xraph/startflow"
	"github.com/xraph/startflow/id"
)

// RunState represents the lifecycle state of a process instance.
type RunState string

const (
	// RunStateRunning means the process handler is executing or was
	// interrupted before finishing.
	RunStateRunning RunState = "running"
	// RunStateCompleted means the handler returned nil.
	RunStateCompleted RunState = "completed"
	// RunStateFailed means the handler returned an error.
	RunStateFailed RunState = "failed"
)

// Run is a started process instance. It is the handle returned to the
// caller of an intercepted method.
type Run struct {
	startflow.Entity

	ID          id.RunID   `json:"id"`
	Name        string     `json:"name"`
	Version     int        `json:"version"`
	State       RunState   `json:"state"`
	Input       []byte     `json:"input,omitempty"`
	Error       string     `json:"error,omitempty"`
	ScopeAppID  string     `json:"scope_app_id,omitempty"`
	ScopeOrgID  string     `json:"scope_org_id,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Variables decodes the run input back into a variable map. A run with no
// input yields an empty map.
func (r *Run) Variables() (map[string]any, error) {
	vars := make(map[string]any)
	if len(r.Input) == 0 {
		return vars, nil
	}
	if err := json.Unmarshal(r.Input, &vars); err != nil {
		return nil, err
	}
	return vars, nil
}

// Done reports whether the run reached a terminal state.
func (r *Run) Done() bool {
	return r.State == RunStateCompleted || r.State == RunStateFailed
}
