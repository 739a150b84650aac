package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/startflow"
	"github.com/xraph/startflow/id"
	"github.com/xraph/startflow/workflow"
)

// CreateRun persists a new run.
func (s *Store) CreateRun(ctx context.Context, run *workflow.Run) error {
	rID := run.ID.String()
	key := runKey(rID)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("startflow/redis: create run exists: %w", err)
	}
	if exists > 0 {
		return startflow.ErrRunAlreadyExists
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, runToMap(run))
	pipe.ZAdd(ctx, runIndexKey, goredis.Z{Score: float64(run.CreatedAt.UnixNano()), Member: rID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("startflow/redis: create run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, runID id.RunID) (*workflow.Run, error) {
	vals, err := s.client.HGetAll(ctx, runKey(runID.String())).Result()
	if err != nil {
		return nil, fmt.Errorf("startflow/redis: get run: %w", err)
	}
	if len(vals) == 0 {
		return nil, startflow.ErrRunNotFound
	}
	return mapToRun(vals)
}

// UpdateRun persists changes to an existing run.
func (s *Store) UpdateRun(ctx context.Context, run *workflow.Run) error {
	key := runKey(run.ID.String())
	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("startflow/redis: update run exists: %w", err)
	}
	if exists == 0 {
		return startflow.ErrRunNotFound
	}

	run.UpdatedAt = time.Now().UTC()
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, runToMap(run))
	if run.CompletedAt == nil {
		pipe.HDel(ctx, key, "completed_at")
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("startflow/redis: update run: %w", err)
	}
	return nil
}

// ListRuns returns runs matching opts, oldest first.
func (s *Store) ListRuns(ctx context.Context, opts workflow.ListOpts) ([]*workflow.Run, error) {
	ids, err := s.client.ZRange(ctx, runIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("startflow/redis: list runs: %w", err)
	}

	var runs []*workflow.Run
	for _, rID := range ids {
		vals, getErr := s.client.HGetAll(ctx, runKey(rID)).Result()
		if getErr != nil {
			return nil, fmt.Errorf("startflow/redis: list runs get %s: %w", rID, getErr)
		}
		if len(vals) == 0 {
			continue
		}
		r, convErr := mapToRun(vals)
		if convErr != nil {
			s.logger.Warn("skipping unreadable run", "run_id", rID, "error", convErr)
			continue
		}
		if opts.State != "" && r.State != opts.State {
			continue
		}
		if opts.Name != "" && r.Name != opts.Name {
			continue
		}
		runs = append(runs, r)
	}

	if opts.Offset > 0 {
		if opts.Offset >= len(runs) {
			return nil, nil
		}
		runs = runs[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(runs) {
		runs = runs[:opts.Limit]
	}
	return runs, nil
}

// SaveCheckpoint stores data for a step, replacing any earlier value.
func (s *Store) SaveCheckpoint(ctx context.Context, runID id.RunID, stepName string, data []byte) error {
	rID := runID.String()

	seq, err := s.client.Incr(ctx, checkpointSeqKey).Result()
	if err != nil {
		return fmt.Errorf("startflow/redis: save checkpoint seq: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, checkpointKey(rID, stepName),
		"id", id.NewCheckpointID().String(),
		"run_id", rID,
		"step_name", stepName,
		"data", string(data),
		"created_at", time.Now().UTC().Format(time.RFC3339Nano),
	)
	pipe.ZAddNX(ctx, checkpointIndexKey(rID), goredis.Z{Score: float64(seq), Member: stepName})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("startflow/redis: save checkpoint: %w", err)
	}
	return nil
}

// GetCheckpoint returns the data saved for a step, or nil.
func (s *Store) GetCheckpoint(ctx context.Context, runID id.RunID, stepName string) ([]byte, error) {
	data, err := s.client.HGet(ctx, checkpointKey(runID.String(), stepName), "data").Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("startflow/redis: get checkpoint: %w", err)
	}
	return []byte(data), nil
}

// ListCheckpoints returns the checkpoints of a run in creation order.
func (s *Store) ListCheckpoints(ctx context.Context, runID id.RunID) ([]*workflow.Checkpoint, error) {
	rID := runID.String()
	steps, err := s.client.ZRange(ctx, checkpointIndexKey(rID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("startflow/redis: list checkpoints: %w", err)
	}

	checkpoints := make([]*workflow.Checkpoint, 0, len(steps))
	for _, step := range steps {
		vals, getErr := s.client.HGetAll(ctx, checkpointKey(rID, step)).Result()
		if getErr != nil {
			return nil, fmt.Errorf("startflow/redis: list checkpoints get %q: %w", step, getErr)
		}
		if len(vals) == 0 {
			continue
		}

		cpID, parseErr := id.ParseCheckpointID(vals["id"])
		if parseErr != nil {
			return nil, fmt.Errorf("startflow/redis: parse checkpoint id: %w", parseErr)
		}
		createdAt, _ := time.Parse(time.RFC3339Nano, vals["created_at"])

		checkpoints = append(checkpoints, &workflow.Checkpoint{
			ID:        cpID,
			RunID:     runID,
			StepName:  vals["step_name"],
			Data:      []byte(vals["data"]),
			CreatedAt: createdAt,
		})
	}
	return checkpoints, nil
}

func runToMap(r *workflow.Run) map[string]any {
	m := map[string]any{
		"id":         r.ID.String(),
		"name":       r.Name,
		"version":    strconv.Itoa(r.Version),
		"state":      string(r.State),
		"input":      string(r.Input),
		"error":      r.Error,
		"scope_app":  r.ScopeAppID,
		"scope_org":  r.ScopeOrgID,
		"started_at": r.StartedAt.Format(time.RFC3339Nano),
		"created_at": r.CreatedAt.Format(time.RFC3339Nano),
		"updated_at": r.UpdatedAt.Format(time.RFC3339Nano),
	}
	if r.CompletedAt != nil {
		m["completed_at"] = r.CompletedAt.Format(time.RFC3339Nano)
	}
	return m
}

func mapToRun(m map[string]string) (*workflow.Run, error) {
	rID, err := id.ParseRunID(m["id"])
	if err != nil {
		return nil, fmt.Errorf("startflow/redis: parse run id: %w", err)
	}

	version, _ := strconv.Atoi(m["version"])
	startedAt, _ := time.Parse(time.RFC3339Nano, m["started_at"])
	createdAt, _ := time.Parse(time.RFC3339Nano, m["created_at"])
	updatedAt, _ := time.Parse(time.RFC3339Nano, m["updated_at"])

	r := &workflow.Run{
		Entity: startflow.Entity{
			CreatedAt: createdAt,
			UpdatedAt: updatedAt,
		},
		ID:         rID,
		Name:       m["name"],
		Version:    version,
		State:      workflow.RunState(m["state"]),
		Error:      m["error"],
		ScopeAppID: m["scope_app"],
		ScopeOrgID: m["scope_org"],
		StartedAt:  startedAt,
	}
	if in := m["input"]; in != "" {
		r.Input = []byte(in)
	}

	if v := m["completed_at"]; v != "" {
		t, _ := time.Parse(time.RFC3339Nano, v)
		r.CompletedAt = &t
	}
	return r, nil
}
