// Package correlation hands the process instance started for an
// intercepted call back to the code that made the call.
//
// A Holder is created once and shared by every proxy. It keeps no
// per-call state itself: each invocation opens a Slot on its own
// context.Context, so concurrent calls never observe each other's runs.
package correlation

import (
	"context"
	"sync"

	"github.com/xraph/startflow/id"
	"github.com/xraph/startflow/workflow"
)

// Holder scopes correlation slots to invocations.
type Holder struct {
	// key distinguishes slots of different holders on the same context.
	key *slotKey
}

type slotKey struct{ _ byte }

// NewHolder creates a Holder.
func NewHolder() *Holder {
	return &Holder{key: &slotKey{}}
}

// InfrastructureObject marks the holder as framework plumbing that must
// never be proxied.
func (h *Holder) InfrastructureObject() {}

// Begin opens a fresh slot for one invocation and returns the context that
// carries it. An enclosing slot, if any, is left untouched.
func (h *Holder) Begin(ctx context.Context) (context.Context, *Slot) {
	if ctx == nil {
		ctx = context.Background()
	}
	s := &Slot{id: id.NewInvocationID()}
	return context.WithValue(ctx, h.key, s), s
}

// SlotFrom returns the innermost slot on ctx opened by this holder.
func (h *Holder) SlotFrom(ctx context.Context) (*Slot, bool) {
	if ctx == nil {
		return nil, false
	}
	s, ok := ctx.Value(h.key).(*Slot)
	return s, ok
}

// Store records run in the slot on ctx. It reports false when ctx carries
// no slot of this holder.
func (h *Holder) Store(ctx context.Context, run *workflow.Run) bool {
	s, ok := h.SlotFrom(ctx)
	if !ok {
		return false
	}
	s.Set(run)
	return true
}

// Load returns the run recorded for the invocation on ctx.
func (h *Holder) Load(ctx context.Context) (*workflow.Run, bool) {
	s, ok := h.SlotFrom(ctx)
	if !ok {
		return nil, false
	}
	return s.Get()
}

// Slot is the correlation cell of a single invocation.
type Slot struct {
	id id.InvocationID

	mu  sync.Mutex
	run *workflow.Run
}

// ID identifies the invocation.
func (s *Slot) ID() id.InvocationID { return s.id }

// Set records the started run. A later Set replaces it.
func (s *Slot) Set(run *workflow.Run) {
	s.mu.Lock()
	s.run = run
	s.mu.Unlock()
}

// Get returns the recorded run, if any.
func (s *Slot) Get() (*workflow.Run, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run, s.run != nil
}
