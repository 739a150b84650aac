// Package memory provides an in-memory run store for tests and development.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xraph/startflow"
	"github.com/xraph/startflow/id"
	"github.com/xraph/startflow/workflow"
)

var _ workflow.Store = (*Store)(nil)

// Store keeps runs and checkpoints in maps. Safe for concurrent access.
type Store struct {
	mu sync.RWMutex

	runs        map[string]*workflow.Run
	checkpoints map[string]*checkpoint // key: "runID:stepName"
	seq         uint64
}

type checkpoint struct {
	*workflow.Checkpoint
	seq uint64
}

// New returns a new empty Store.
func New() *Store {
	return &Store{
		runs:        make(map[string]*workflow.Run),
		checkpoints: make(map[string]*checkpoint),
	}
}

// Migrate is a no-op for the memory store.
func (m *Store) Migrate(_ context.Context) error { return nil }

// Ping always succeeds for the memory store.
func (m *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (m *Store) Close() error { return nil }

// CreateRun persists a new run.
func (m *Store) CreateRun(_ context.Context, run *workflow.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := run.ID.String()
	if _, exists := m.runs[key]; exists {
		return startflow.ErrRunAlreadyExists
	}
	m.runs[key] = run
	return nil
}

// GetRun retrieves a run by ID.
func (m *Store) GetRun(_ context.Context, runID id.RunID) (*workflow.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.runs[runID.String()]
	if !ok {
		return nil, startflow.ErrRunNotFound
	}
	return r, nil
}

// UpdateRun persists changes to an existing run.
func (m *Store) UpdateRun(_ context.Context, run *workflow.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := run.ID.String()
	if _, ok := m.runs[key]; !ok {
		return startflow.ErrRunNotFound
	}
	run.UpdatedAt = time.Now().UTC()
	m.runs[key] = run
	return nil
}

// ListRuns returns runs matching opts, oldest first.
func (m *Store) ListRuns(_ context.Context, opts workflow.ListOpts) ([]*workflow.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*workflow.Run, 0, len(m.runs))
	for _, r := range m.runs {
		if opts.State != "" && r.State != opts.State {
			continue
		}
		if opts.Name != "" && r.Name != opts.Name {
			continue
		}
		result = append(result, r)
	}

	sort.Slice(result, func(i, k int) bool {
		if result[i].CreatedAt.Equal(result[k].CreatedAt) {
			return result[i].ID.String() < result[k].ID.String()
		}
		return result[i].CreatedAt.Before(result[k].CreatedAt)
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(result) {
			return nil, nil
		}
		result = result[opts.Offset:]
	}
	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}

	return result, nil
}

func checkpointKey(runID id.RunID, stepName string) string {
	return runID.String() + ":" + stepName
}

// SaveCheckpoint stores data for a step, replacing any earlier value.
func (m *Store) SaveCheckpoint(_ context.Context, runID id.RunID, stepName string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if data == nil {
		data = []byte{}
	}
	m.seq++
	m.checkpoints[checkpointKey(runID, stepName)] = &checkpoint{
		Checkpoint: &workflow.Checkpoint{
			ID:        id.NewCheckpointID(),
			RunID:     runID,
			StepName:  stepName,
			Data:      data,
			CreatedAt: time.Now().UTC(),
		},
		seq: m.seq,
	}
	return nil
}

// GetCheckpoint returns the data saved for a step, or nil.
func (m *Store) GetCheckpoint(_ context.Context, runID id.RunID, stepName string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cp, ok := m.checkpoints[checkpointKey(runID, stepName)]
	if !ok {
		return nil, nil
	}
	return cp.Data, nil
}

// ListCheckpoints returns the checkpoints of a run in save order.
func (m *Store) ListCheckpoints(_ context.Context, runID id.RunID) ([]*workflow.Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	prefix := runID.String() + ":"
	var found []*checkpoint
	for k, cp := range m.checkpoints {
		if strings.HasPrefix(k, prefix) {
			found = append(found, cp)
		}
	}
	sort.Slice(found, func(i, k int) bool { return found[i].seq < found[k].seq })

	result := make([]*workflow.Checkpoint, len(found))
	for i, cp := range found {
		result[i] = cp.Checkpoint
	}
	return result, nil
}
