package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/xraph/startflow"
	"github.com/xraph/startflow/id"
	"github.com/xraph/startflow/workflow"
)

const runColumns = `id, name, version, state, input, error, scope_app_id, scope_org_id,
	started_at, completed_at, created_at, updated_at`

// CreateRun persists a new run.
func (s *Store) CreateRun(ctx context.Context, run *workflow.Run) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO startflow_runs (`+runColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		run.ID.String(),
		run.Name,
		run.Version,
		string(run.State),
		run.Input,
		run.Error,
		run.ScopeAppID,
		run.ScopeOrgID,
		run.StartedAt,
		run.CompletedAt,
		run.CreatedAt,
		run.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return startflow.ErrRunAlreadyExists
		}
		return fmt.Errorf("startflow/postgres: create run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, runID id.RunID) (*workflow.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+runColumns+` FROM startflow_runs WHERE id = $1`, runID.String())
	run, err := scanRun(row)
	if err != nil {
		if isNoRows(err) {
			return nil, startflow.ErrRunNotFound
		}
		return nil, fmt.Errorf("startflow/postgres: get run: %w", err)
	}
	return run, nil
}

// UpdateRun persists changes to an existing run.
func (s *Store) UpdateRun(ctx context.Context, run *workflow.Run) error {
	now := time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE startflow_runs
		    SET version = $1, state = $2, input = $3, error = $4, completed_at = $5, updated_at = $6
		  WHERE id = $7`,
		run.Version,
		string(run.State),
		run.Input,
		run.Error,
		run.CompletedAt,
		now,
		run.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("startflow/postgres: update run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return startflow.ErrRunNotFound
	}
	run.UpdatedAt = now
	return nil
}

// ListRuns returns runs matching opts, oldest first.
func (s *Store) ListRuns(ctx context.Context, opts workflow.ListOpts) ([]*workflow.Run, error) {
	var (
		where []string
		args  []any
	)
	if opts.State != "" {
		args = append(args, string(opts.State))
		where = append(where, fmt.Sprintf("state = $%d", len(args)))
	}
	if opts.Name != "" {
		args = append(args, opts.Name)
		where = append(where, fmt.Sprintf("name = $%d", len(args)))
	}

	q := `SELECT ` + runColumns + ` FROM startflow_runs`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at ASC, id ASC`
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("startflow/postgres: list runs: %w", err)
	}
	defer rows.Close()

	var runs []*workflow.Run
	for rows.Next() {
		run, scanErr := scanRun(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("startflow/postgres: list runs scan: %w", scanErr)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("startflow/postgres: list runs: %w", err)
	}
	return runs, nil
}

// SaveCheckpoint stores data for a step, replacing any earlier value.
func (s *Store) SaveCheckpoint(ctx context.Context, runID id.RunID, stepName string, data []byte) error {
	if data == nil {
		data = []byte{}
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO startflow_checkpoints (id, run_id, step_name, data, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (run_id, step_name) DO UPDATE SET data = EXCLUDED.data, created_at = EXCLUDED.created_at`,
		id.NewCheckpointID().String(),
		runID.String(),
		stepName,
		data,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("startflow/postgres: save checkpoint: %w", err)
	}
	return nil
}

// GetCheckpoint returns the data saved for a step, or nil.
func (s *Store) GetCheckpoint(ctx context.Context, runID id.RunID, stepName string) ([]byte, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM startflow_checkpoints WHERE run_id = $1 AND step_name = $2`,
		runID.String(), stepName,
	).Scan(&data)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("startflow/postgres: get checkpoint: %w", err)
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

// ListCheckpoints returns the checkpoints of a run in creation order.
func (s *Store) ListCheckpoints(ctx context.Context, runID id.RunID) ([]*workflow.Checkpoint, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, run_id, step_name, data, created_at FROM startflow_checkpoints
		  WHERE run_id = $1 ORDER BY seq ASC`,
		runID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("startflow/postgres: list checkpoints: %w", err)
	}
	defer rows.Close()

	var cps []*workflow.Checkpoint
	for rows.Next() {
		var (
			cpID, rID string
			cp        workflow.Checkpoint
		)
		if err := rows.Scan(&cpID, &rID, &cp.StepName, &cp.Data, &cp.CreatedAt); err != nil {
			return nil, fmt.Errorf("startflow/postgres: list checkpoints scan: %w", err)
		}
		if cp.ID, err = id.ParseCheckpointID(cpID); err != nil {
			return nil, fmt.Errorf("startflow/postgres: parse checkpoint id: %w", err)
		}
		if cp.RunID, err = id.ParseRunID(rID); err != nil {
			return nil, fmt.Errorf("startflow/postgres: parse run id: %w", err)
		}
		cps = append(cps, &cp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("startflow/postgres: list checkpoints: %w", err)
	}
	return cps, nil
}

func scanRun(row pgx.Row) (*workflow.Run, error) {
	var (
		runID string
		state string
		run   workflow.Run
	)
	if err := row.Scan(&runID, &run.Name, &run.Version, &state, &run.Input, &run.Error,
		&run.ScopeAppID, &run.ScopeOrgID, &run.StartedAt, &run.CompletedAt,
		&run.CreatedAt, &run.UpdatedAt); err != nil {
		return nil, err
	}
	parsed, err := id.ParseRunID(runID)
	if err != nil {
		return nil, err
	}
	run.ID = parsed
	run.State = workflow.RunState(state)
	return &run, nil
}
