// Package storetest holds the behaviour every run store must share. Each
// backend's tests call Run with a constructor for a fresh, migrated store.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/xraph/startflow"
	"github.com/xraph/startflow/id"
	"github.com/xraph/startflow/workflow"
)

// Factory returns an empty store. It registers its own cleanup.
type Factory func(t *testing.T) workflow.Store

// Run exercises s against the workflow.Store contract.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("CreateAndGetRun", func(t *testing.T) { testCreateAndGetRun(t, newStore(t)) })
	t.Run("DuplicateRun", func(t *testing.T) { testDuplicateRun(t, newStore(t)) })
	t.Run("UpdateRun", func(t *testing.T) { testUpdateRun(t, newStore(t)) })
	t.Run("ListRuns", func(t *testing.T) { testListRuns(t, newStore(t)) })
	t.Run("Checkpoints", func(t *testing.T) { testCheckpoints(t, newStore(t)) })
}

// NewRun returns a running run for name, created at the current time
// truncated to milliseconds so every backend round-trips it exactly.
func NewRun(name string, state workflow.RunState) *workflow.Run {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &workflow.Run{
		Entity:     startflow.Entity{CreatedAt: now, UpdatedAt: now},
		ID:         id.NewRunID(),
		Name:       name,
		Version:    1,
		State:      state,
		Input:      []byte(`{"customerId":"C-1","qty":42}`),
		ScopeAppID: "app-1",
		StartedAt:  now,
	}
}

func testCreateAndGetRun(t *testing.T, s workflow.Store) {
	ctx := context.Background()

	r := NewRun("orderFulfilment", workflow.RunStateRunning)
	if err := s.CreateRun(ctx, r); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	got, err := s.GetRun(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if diff := cmp.Diff(r, got, timeEqual()); diff != "" {
		t.Errorf("GetRun mismatch (-want +got):\n%s", diff)
	}

	_, err = s.GetRun(ctx, id.NewRunID())
	if !errors.Is(err, startflow.ErrRunNotFound) {
		t.Fatalf("GetRun(missing) = %v, want ErrRunNotFound", err)
	}
}

func testDuplicateRun(t *testing.T, s workflow.Store) {
	ctx := context.Background()

	r := NewRun("dup", workflow.RunStateRunning)
	if err := s.CreateRun(ctx, r); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if err := s.CreateRun(ctx, r); !errors.Is(err, startflow.ErrRunAlreadyExists) {
		t.Fatalf("second CreateRun = %v, want ErrRunAlreadyExists", err)
	}
}

func testUpdateRun(t *testing.T, s workflow.Store) {
	ctx := context.Background()

	r := NewRun("update", workflow.RunStateRunning)
	if err := s.CreateRun(ctx, r); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	done := time.Now().UTC().Truncate(time.Millisecond)
	r.State = workflow.RunStateFailed
	r.Error = "boom"
	r.CompletedAt = &done
	if err := s.UpdateRun(ctx, r); err != nil {
		t.Fatalf("UpdateRun: %v", err)
	}

	got, err := s.GetRun(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.State != workflow.RunStateFailed {
		t.Errorf("State = %q, want %q", got.State, workflow.RunStateFailed)
	}
	if got.Error != "boom" {
		t.Errorf("Error = %q, want %q", got.Error, "boom")
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(done) {
		t.Errorf("CompletedAt = %v, want %v", got.CompletedAt, done)
	}

	missing := NewRun("missing", workflow.RunStateRunning)
	if err := s.UpdateRun(ctx, missing); !errors.Is(err, startflow.ErrRunNotFound) {
		t.Fatalf("UpdateRun(missing) = %v, want ErrRunNotFound", err)
	}
}

func testListRuns(t *testing.T, s workflow.Store) {
	ctx := context.Background()

	runs := []*workflow.Run{
		NewRun("a", workflow.RunStateRunning),
		NewRun("b", workflow.RunStateCompleted),
		NewRun("a", workflow.RunStateRunning),
	}
	for i, r := range runs {
		r.CreatedAt = r.CreatedAt.Add(time.Duration(i) * time.Second)
		if err := s.CreateRun(ctx, r); err != nil {
			t.Fatalf("CreateRun: %v", err)
		}
	}

	tests := []struct {
		name string
		opts workflow.ListOpts
		want []id.RunID
	}{
		{"all", workflow.ListOpts{}, []id.RunID{runs[0].ID, runs[1].ID, runs[2].ID}},
		{"running", workflow.ListOpts{State: workflow.RunStateRunning}, []id.RunID{runs[0].ID, runs[2].ID}},
		{"by name", workflow.ListOpts{Name: "b"}, []id.RunID{runs[1].ID}},
		{"limit", workflow.ListOpts{Limit: 1}, []id.RunID{runs[0].ID}},
		{"offset", workflow.ListOpts{Offset: 2}, []id.RunID{runs[2].ID}},
		{"offset past end", workflow.ListOpts{Offset: 5}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListRuns(ctx, tt.opts)
			if err != nil {
				t.Fatalf("ListRuns: %v", err)
			}
			var ids []id.RunID
			for _, r := range got {
				ids = append(ids, r.ID)
			}
			if diff := cmp.Diff(tt.want, ids, cmp.Comparer(func(a, b id.RunID) bool {
				return a.String() == b.String()
			})); diff != "" {
				t.Errorf("ListRuns mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func testCheckpoints(t *testing.T, s workflow.Store) {
	ctx := context.Background()

	r := NewRun("cp", workflow.RunStateRunning)
	if err := s.CreateRun(ctx, r); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	if err := s.SaveCheckpoint(ctx, r.ID, "reserve", []byte{}); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}
	if err := s.SaveCheckpoint(ctx, r.ID, "notify", []byte("v1")); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}

	got, err := s.GetCheckpoint(ctx, r.ID, "reserve")
	if err != nil {
		t.Fatalf("GetCheckpoint: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("empty checkpoint = %v, want non-nil empty", got)
	}

	got, err = s.GetCheckpoint(ctx, r.ID, "missing")
	if err != nil {
		t.Fatalf("GetCheckpoint(missing): %v", err)
	}
	if got != nil {
		t.Errorf("missing checkpoint = %q, want nil", got)
	}

	if err := s.SaveCheckpoint(ctx, r.ID, "notify", []byte("v2")); err != nil {
		t.Fatalf("SaveCheckpoint overwrite: %v", err)
	}
	got, _ = s.GetCheckpoint(ctx, r.ID, "notify")
	if string(got) != "v2" {
		t.Errorf("overwritten checkpoint = %q, want %q", got, "v2")
	}

	cps, err := s.ListCheckpoints(ctx, r.ID)
	if err != nil {
		t.Fatalf("ListCheckpoints: %v", err)
	}
	if len(cps) != 2 {
		t.Fatalf("ListCheckpoints returned %d, want 2", len(cps))
	}
	for _, cp := range cps {
		if cp.RunID.String() != r.ID.String() {
			t.Errorf("checkpoint %q RunID = %s, want %s", cp.StepName, cp.RunID, r.ID)
		}
	}
}

// timeEqual compares times by instant, ignoring location and monotonic
// readings, and ids by their string form.
func timeEqual() cmp.Option {
	return cmp.Options{
		cmp.Comparer(func(a, b time.Time) bool { return a.Equal(b) }),
		cmp.Comparer(func(a, b id.RunID) bool { return a.String() == b.String() }),
	}
}
