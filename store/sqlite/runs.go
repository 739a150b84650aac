package sqlite

import (
	"context"
	"math"
	"time"

	"github.com/xraph/startflow"
	"github.com/xraph/startflow/id"
	"github.com/xraph/startflow/workflow"
)

// CreateRun persists a new run.
func (s *Store) CreateRun(ctx context.Context, run *workflow.Run) error {
	if _, err := s.sdb.NewInsert(toRunModel(run)).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return startflow.ErrRunAlreadyExists
		}
		return wrapErr("create run", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, runID id.RunID) (*workflow.Run, error) {
	m := new(runModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", runID.String()).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, startflow.ErrRunNotFound
		}
		return nil, wrapErr("get run", err)
	}
	return fromRunModel(m)
}

// UpdateRun persists the mutable fields of an existing run.
func (s *Store) UpdateRun(ctx context.Context, run *workflow.Run) error {
	now := time.Now().UTC()
	m := toRunModel(run)
	m.UpdatedAt = now

	res, err := s.sdb.NewUpdate(m).
		Column("version", "state", "input", "error", "completed_at", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return wrapErr("update run", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return startflow.ErrRunNotFound
	}
	run.UpdatedAt = now
	return nil
}

// ListRuns returns runs matching opts, oldest first.
func (s *Store) ListRuns(ctx context.Context, opts workflow.ListOpts) ([]*workflow.Run, error) {
	var models []runModel
	q := s.sdb.NewSelect(&models)
	if opts.State != "" {
		q = q.Where("state = ?", string(opts.State))
	}
	if opts.Name != "" {
		q = q.Where("name = ?", opts.Name)
	}
	q = q.OrderExpr("created_at ASC, id ASC")

	switch {
	case opts.Limit > 0:
		q = q.Limit(opts.Limit)
	case opts.Offset > 0:
		// SQLite rejects OFFSET without LIMIT.
		q = q.Limit(math.MaxInt)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, wrapErr("list runs", err)
	}

	runs := make([]*workflow.Run, 0, len(models))
	for i := range models {
		run, err := fromRunModel(&models[i])
		if err != nil {
			return nil, wrapErr("list runs", err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// SaveCheckpoint stores data for a step, replacing any earlier value.
func (s *Store) SaveCheckpoint(ctx context.Context, runID id.RunID, stepName string, data []byte) error {
	if data == nil {
		data = []byte{}
	}
	m := &checkpointModel{
		ID:        id.NewCheckpointID().String(),
		RunID:     runID.String(),
		StepName:  stepName,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.sdb.NewInsert(m).
		OnConflict("(run_id, step_name) DO UPDATE").
		Set("data = excluded.data").
		Set("created_at = excluded.created_at").
		Exec(ctx)
	if err != nil {
		return wrapErr("save checkpoint", err)
	}
	return nil
}

// GetCheckpoint returns the data saved for a step, or nil.
func (s *Store) GetCheckpoint(ctx context.Context, runID id.RunID, stepName string) ([]byte, error) {
	m := new(checkpointModel)
	err := s.sdb.NewSelect(m).
		Where("run_id = ?", runID.String()).
		Where("step_name = ?", stepName).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, wrapErr("get checkpoint", err)
	}
	if m.Data == nil {
		return []byte{}, nil
	}
	return m.Data, nil
}

// ListCheckpoints returns the checkpoints of a run in creation order.
func (s *Store) ListCheckpoints(ctx context.Context, runID id.RunID) ([]*workflow.Checkpoint, error) {
	var models []checkpointModel
	err := s.sdb.NewSelect(&models).
		Where("run_id = ?", runID.String()).
		OrderExpr("rowid ASC").
		Scan(ctx)
	if err != nil {
		return nil, wrapErr("list checkpoints", err)
	}

	cps := make([]*workflow.Checkpoint, 0, len(models))
	for i := range models {
		cp, err := fromCheckpointModel(&models[i])
		if err != nil {
			return nil, wrapErr("list checkpoints", err)
		}
		cps = append(cps, cp)
	}
	return cps, nil
}
