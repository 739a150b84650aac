package correlation_test

import (
	"context"
	"fmt"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/xraph/startflow/correlation"
	"github.com/xraph/startflow/id"
	"github.com/xraph/startflow/proxy"
	"github.com/xraph/startflow/workflow"
)

var _ proxy.Infrastructure = (*correlation.Holder)(nil)

func newRun(name string) *workflow.Run {
	return &workflow.Run{ID: id.NewRunID(), Name: name}
}

func TestHolder_StoreLoad(t *testing.T) {
	h := correlation.NewHolder()

	ctx, slot := h.Begin(context.Background())
	if slot.ID().Prefix() != id.PrefixInvocation {
		t.Fatalf("slot id prefix = %q, want %q", slot.ID().Prefix(), id.PrefixInvocation)
	}
	if _, ok := h.Load(ctx); ok {
		t.Fatal("fresh slot should be empty")
	}

	run := newRun("orderFulfilment")
	if !h.Store(ctx, run) {
		t.Fatal("Store reported no slot")
	}
	got, ok := h.Load(ctx)
	if !ok || got != run {
		t.Fatalf("Load = (%v, %v), want stored run", got, ok)
	}
}

func TestHolder_NoSlot(t *testing.T) {
	h := correlation.NewHolder()

	if h.Store(context.Background(), newRun("x")) {
		t.Fatal("Store without a slot should report false")
	}
	//nolint:staticcheck // nil context is handled explicitly
	if _, ok := h.Load(nil); ok {
		t.Fatal("Load(nil) should miss")
	}
}

func TestHolder_BeginIsFresh(t *testing.T) {
	h := correlation.NewHolder()

	outer, outerSlot := h.Begin(context.Background())
	h.Store(outer, newRun("outer"))

	inner, innerSlot := h.Begin(outer)
	if innerSlot == outerSlot || innerSlot.ID().String() == outerSlot.ID().String() {
		t.Fatal("Begin reused the enclosing slot")
	}
	if _, ok := h.Load(inner); ok {
		t.Fatal("nested invocation observed the enclosing run")
	}

	h.Store(inner, newRun("inner"))
	got, _ := h.Load(outer)
	if got.Name != "outer" {
		t.Fatalf("outer run = %q after nested store, want outer", got.Name)
	}
}

func TestHolder_IndependentHolders(t *testing.T) {
	a, b := correlation.NewHolder(), correlation.NewHolder()

	ctx, _ := a.Begin(context.Background())
	a.Store(ctx, newRun("a"))

	if _, ok := b.Load(ctx); ok {
		t.Fatal("holder b saw holder a's slot")
	}
}

func TestHolder_ConcurrentIsolation(t *testing.T) {
	h := correlation.NewHolder()

	var g errgroup.Group
	for i := range 64 {
		g.Go(func() error {
			ctx, _ := h.Begin(context.Background())
			want := newRun(fmt.Sprintf("run-%d", i))
			h.Store(ctx, want)
			got, ok := h.Load(ctx)
			if !ok || got != want {
				return fmt.Errorf("invocation %d saw %v", i, got)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}
