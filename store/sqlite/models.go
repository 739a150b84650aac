package sqlite

import (
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/startflow"
	"github.com/xraph/startflow/id"
	"github.com/xraph/startflow/workflow"
)

type runModel struct {
	grove.BaseModel `grove:"table:startflow_runs"`

	ID          string     `grove:"id,pk"`
	Name        string     `grove:"name,notnull"`
	Version     int        `grove:"version,notnull"`
	State       string     `grove:"state,notnull"`
	Input       []byte     `grove:"input"`
	Error       string     `grove:"error,notnull"`
	ScopeAppID  string     `grove:"scope_app_id,notnull"`
	ScopeOrgID  string     `grove:"scope_org_id,notnull"`
	StartedAt   time.Time  `grove:"started_at,notnull"`
	CompletedAt *time.Time `grove:"completed_at"`
	CreatedAt   time.Time  `grove:"created_at,notnull"`
	UpdatedAt   time.Time  `grove:"updated_at,notnull"`
}

func toRunModel(r *workflow.Run) *runModel {
	return &runModel{
		ID:          r.ID.String(),
		Name:        r.Name,
		Version:     r.Version,
		State:       string(r.State),
		Input:       r.Input,
		Error:       r.Error,
		ScopeAppID:  r.ScopeAppID,
		ScopeOrgID:  r.ScopeOrgID,
		StartedAt:   r.StartedAt.UTC(),
		CompletedAt: utcPtr(r.CompletedAt),
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

func fromRunModel(m *runModel) (*workflow.Run, error) {
	runID, err := id.ParseRunID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse run id %q: %w", m.ID, err)
	}
	return &workflow.Run{
		Entity:      startflow.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:          runID,
		Name:        m.Name,
		Version:     m.Version,
		State:       workflow.RunState(m.State),
		Input:       m.Input,
		Error:       m.Error,
		ScopeAppID:  m.ScopeAppID,
		ScopeOrgID:  m.ScopeOrgID,
		StartedAt:   m.StartedAt,
		CompletedAt: m.CompletedAt,
	}, nil
}

type checkpointModel struct {
	grove.BaseModel `grove:"table:startflow_checkpoints"`

	ID        string    `grove:"id,pk"`
	RunID     string    `grove:"run_id,notnull"`
	StepName  string    `grove:"step_name,notnull"`
	Data      []byte    `grove:"data,notnull"`
	CreatedAt time.Time `grove:"created_at,notnull"`
}

func fromCheckpointModel(m *checkpointModel) (*workflow.Checkpoint, error) {
	cpID, err := id.ParseCheckpointID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse checkpoint id %q: %w", m.ID, err)
	}
	runID, err := id.ParseRunID(m.RunID)
	if err != nil {
		return nil, fmt.Errorf("parse run id %q: %w", m.RunID, err)
	}
	return &workflow.Checkpoint{
		ID:        cpID,
		RunID:     runID,
		StepName:  m.StepName,
		Data:      m.Data,
		CreatedAt: m.CreatedAt,
	}, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
