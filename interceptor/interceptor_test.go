package interceptor_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"

	"github.com/xraph/startflow"
	"github.com/xraph/startflow/correlation"
	"github.com/xraph/startflow/id"
	"github.com/xraph/startflow/interceptor"
	"github.com/xraph/startflow/marker"
	"github.com/xraph/startflow/matcher"
	"github.com/xraph/startflow/proxy"
	"github.com/xraph/startflow/store/memory"
	"github.com/xraph/startflow/workflow"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var errOutOfStock = errors.New("out of stock")

// orderService is the application object being intercepted.
type orderService struct {
	mu     sync.Mutex
	placed []string
}

func (*orderService) ProcessMethods() []marker.Method {
	return []marker.Method{
		marker.Trigger("PlaceOrder", "orderFulfilment",
			marker.Var("customerID", "customerId"),
			marker.Var("qty", ""),
		),
		marker.Trigger("Quote", "",
			marker.Arg("sku"),
			marker.Var("qty", "qty"),
		),
		marker.Trigger("Reorder", "orderFulfilment",
			marker.Var("previous", ""),
		),
		marker.Trigger("Tag", "tagging",
			marker.Var("", ""),
			marker.Var("labels", "labels"),
		),
		marker.Trigger("Rename", "renaming",
			marker.Var("from", "name"),
			marker.Var("to", "name"),
		),
	}
}

func (s *orderService) record(what string) {
	s.mu.Lock()
	s.placed = append(s.placed, what)
	s.mu.Unlock()
}

func (s *orderService) calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.placed...)
}

func (s *orderService) PlaceOrder(ctx context.Context, customerID string, qty int) (*workflow.Run, error) {
	if qty <= 0 {
		return nil, errOutOfStock
	}
	s.record(customerID)
	return nil, nil
}

func (s *orderService) Quote(sku string, qty int) string {
	s.record("quote:" + sku)
	return fmt.Sprintf("%s x%d", sku, qty)
}

func (s *orderService) Reorder(previous *workflow.Run) *workflow.Run {
	s.record("reorder")
	return previous
}

func (s *orderService) Tag(orderID string, labels ...string) error {
	s.record("tag:" + orderID)
	return nil
}

func (s *orderService) Rename(from, to string) {}

func (s *orderService) Ping() string { return "pong" }

// fakeStarter records starts and returns synthetic runs.
type fakeStarter struct {
	mu     sync.Mutex
	starts []started
	err    error
}

type started struct {
	Key  string
	Vars map[string]any
}

func (f *fakeStarter) StartProcess(_ context.Context, key string, vars map[string]any) (*workflow.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts = append(f.starts, started{Key: key, Vars: vars})
	if f.err != nil {
		return nil, f.err
	}
	return &workflow.Run{ID: id.NewRunID(), Name: key, State: workflow.RunStateRunning}, nil
}

func (f *fakeStarter) all() []started {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]started(nil), f.starts...)
}

// slotEmitter records what the correlation slot held when each start
// outcome was emitted.
type slotEmitter struct {
	holder *correlation.Holder

	mu      sync.Mutex
	started map[string]*workflow.Run // customer → run seen in slot
	failed  []error
}

func (e *slotEmitter) EmitProcessStarted(ctx context.Context, start *interceptor.Start, run *workflow.Run) {
	inSlot, _ := e.holder.Load(ctx)
	e.mu.Lock()
	defer e.mu.Unlock()
	if inSlot != run {
		e.failed = append(e.failed, fmt.Errorf("slot holds %v, want %v", inSlot, run))
		return
	}
	e.started[fmt.Sprint(start.Variables["customerId"])] = run
}

func (e *slotEmitter) EmitProcessStartFailed(_ context.Context, _ *interceptor.Start, err error) {
	e.mu.Lock()
	e.failed = append(e.failed, err)
	e.mu.Unlock()
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	svc     *orderService
	starter *fakeStarter
	holder  *correlation.Holder
	emitter *slotEmitter
	proxy   *proxy.Proxy
}

func newFixture() *fixture {
	f := &fixture{
		svc:     &orderService{},
		starter: &fakeStarter{},
		holder:  correlation.NewHolder(),
	}
	f.emitter = &slotEmitter{holder: f.holder, started: make(map[string]*workflow.Run)}
	ps := interceptor.New(f.starter, f.holder, matcher.New(),
		interceptor.WithLogger(testLogger()),
		interceptor.WithEmitter(f.emitter),
	)
	f.proxy = proxy.New(f.svc, proxy.Config{}, ps.Advisor())
	return f
}

func TestIntercept_PlaceOrder(t *testing.T) {
	f := newFixture()

	run, err := proxy.Call[*workflow.Run](context.Background(), f.proxy, "PlaceOrder", "C-1", 42)
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if run == nil {
		t.Fatal("expected the started run to be substituted for the nil result")
	}

	want := []started{{Key: "orderFulfilment", Vars: map[string]any{"customerId": "C-1", "qty": 42}}}
	if diff := cmp.Diff(want, f.starter.all()); diff != "" {
		t.Errorf("starts mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"C-1"}, f.svc.calls()); diff != "" {
		t.Errorf("body calls mismatch (-want +got):\n%s", diff)
	}
	if got := f.emitter.started["C-1"]; got != run {
		t.Errorf("emitted run = %v, want %v", got, run)
	}
}

func TestIntercept_DefaultKeyAndUnmarkedParams(t *testing.T) {
	f := newFixture()

	quote, err := proxy.Call[string](context.Background(), f.proxy, "Quote", "SKU-9", 3)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if quote != "SKU-9 x3" {
		t.Errorf("non-run result replaced: got %q", quote)
	}

	starts := f.starter.all()
	if len(starts) != 1 {
		t.Fatalf("starts = %d, want 1", len(starts))
	}
	if starts[0].Key != "orderService.Quote" {
		t.Errorf("key = %q, want %q", starts[0].Key, "orderService.Quote")
	}
	if _, ok := starts[0].Vars["sku"]; ok {
		t.Error("unmarked parameter sku was forwarded")
	}
	if diff := cmp.Diff(map[string]any{"qty": 3}, starts[0].Vars); diff != "" {
		t.Errorf("vars mismatch (-want +got):\n%s", diff)
	}
}

func TestIntercept_IneligibleMethodPassesThrough(t *testing.T) {
	f := newFixture()

	got, err := proxy.Call[string](context.Background(), f.proxy, "Ping")
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if got != "pong" {
		t.Errorf("Ping = %q", got)
	}
	if n := len(f.starter.all()); n != 0 {
		t.Errorf("starts = %d, want 0", n)
	}
}

func TestIntercept_MethodErrorSkipsStart(t *testing.T) {
	f := newFixture()

	_, err := proxy.Call[*workflow.Run](context.Background(), f.proxy, "PlaceOrder", "C-1", 0)
	if !errors.Is(err, errOutOfStock) {
		t.Fatalf("err = %v, want %v", err, errOutOfStock)
	}
	var se *interceptor.StartError
	if errors.As(err, &se) {
		t.Error("method error must not be reported as a start error")
	}
	if n := len(f.starter.all()); n != 0 {
		t.Errorf("starts = %d, want 0", n)
	}
}

func TestIntercept_StartFailureAfterSideEffects(t *testing.T) {
	f := newFixture()
	engineErr := fmt.Errorf("%w: %q", startflow.ErrWorkflowNotFound, "orderFulfilment")
	f.starter.err = engineErr

	_, err := proxy.Call[*workflow.Run](context.Background(), f.proxy, "PlaceOrder", "C-1", 42)
	if err == nil {
		t.Fatal("expected a start error")
	}

	var se *interceptor.StartError
	if !errors.As(err, &se) {
		t.Fatalf("err = %T, want *interceptor.StartError", err)
	}
	if se.Key != "orderFulfilment" || se.Method != "orderService.PlaceOrder" {
		t.Errorf("StartError = %+v", se)
	}
	if !errors.Is(err, startflow.ErrWorkflowNotFound) {
		t.Error("start error should wrap the engine error")
	}
	if !strings.Contains(err.Error(), "orderFulfilment") {
		t.Errorf("message %q lacks the key", err.Error())
	}

	if diff := cmp.Diff([]string{"C-1"}, f.svc.calls()); diff != "" {
		t.Errorf("body must have run before the start (-want +got):\n%s", diff)
	}
	if len(f.emitter.failed) != 1 {
		t.Errorf("failed events = %d, want 1", len(f.emitter.failed))
	}
}

func TestIntercept_NonNilRunNotSubstituted(t *testing.T) {
	f := newFixture()
	previous := &workflow.Run{ID: id.NewRunID(), Name: "earlier"}

	got, err := proxy.Call[*workflow.Run](context.Background(), f.proxy, "Reorder", previous)
	if err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	if got != previous {
		t.Errorf("non-nil run result was replaced")
	}

	starts := f.starter.all()
	if len(starts) != 1 || starts[0].Vars["previous"] != previous {
		t.Errorf("starts = %+v", starts)
	}
}

func TestVariables(t *testing.T) {
	tests := []struct {
		name   string
		method string
		args   []any
		want   map[string]any
	}{
		{
			name:   "fallback names and variadic slice",
			method: "Tag",
			args:   []any{"o-1", "rush", "gift"},
			want:   map[string]any{"arg0": "o-1", "labels": []any{"rush", "gift"}},
		},
		{
			name:   "empty variadic",
			method: "Tag",
			args:   []any{"o-1"},
			want:   map[string]any{"arg0": "o-1", "labels": []any{}},
		},
		{
			name:   "last write wins",
			method: "Rename",
			args:   []any{"old", "new"},
			want:   map[string]any{"name": "new"},
		},
	}

	m := matcher.New()
	p := proxy.New(&orderService{}, proxy.Config{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trigger, ok := m.Match(p.TargetType(), tt.method)
			if !ok {
				t.Fatalf("%s not eligible", tt.method)
			}
			method, _ := p.TargetType().MethodByName(tt.method)
			inv := &proxy.Invocation{TargetType: p.TargetType(), Method: method, Args: tt.args}

			if diff := cmp.Diff(tt.want, interceptor.Variables(trigger, inv)); diff != "" {
				t.Errorf("vars mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestIntercept_ConcurrentCorrelation(t *testing.T) {
	f := newFixture()

	const n = 64
	runs := make([]*workflow.Run, n)
	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < n; i++ {
		g.Go(func() error {
			run, err := proxy.Call[*workflow.Run](ctx, f.proxy, "PlaceOrder", fmt.Sprintf("C-%d", i), i+1)
			runs[i] = run
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("calls: %v", err)
	}

	if len(f.emitter.failed) != 0 {
		t.Fatalf("correlation errors: %v", f.emitter.failed)
	}
	seen := make(map[*workflow.Run]bool, n)
	for i, run := range runs {
		if run == nil {
			t.Fatalf("call %d: nil run", i)
		}
		if seen[run] {
			t.Fatalf("call %d: run shared with another call", i)
		}
		seen[run] = true
		if got := f.emitter.started[fmt.Sprintf("C-%d", i)]; got != run {
			t.Errorf("call %d: caller got %v, slot held %v", i, run.ID, got)
		}
	}
}

// nopRunEmitter satisfies workflow.RunEmitter.
type nopRunEmitter struct{}

func (nopRunEmitter) EmitStepCompleted(context.Context, *workflow.Run, string, time.Duration) {}
func (nopRunEmitter) EmitStepFailed(context.Context, *workflow.Run, string, error)            {}
func (nopRunEmitter) EmitWorkflowStarted(context.Context, *workflow.Run)                      {}
func (nopRunEmitter) EmitWorkflowCompleted(context.Context, *workflow.Run, time.Duration)     {}
func (nopRunEmitter) EmitWorkflowFailed(context.Context, *workflow.Run, error)                {}

type orderVars struct {
	CustomerID string `json:"customerId"`
	Qty        int    `json:"qty"`
}

func TestIntercept_WorkflowRunner(t *testing.T) {
	reg := workflow.NewRegistry()
	var got orderVars
	workflow.RegisterDefinition(reg, workflow.NewWorkflow("orderFulfilment", func(wf *workflow.Workflow, in orderVars) error {
		got = in
		return wf.Step("reserve", func(context.Context) error { return nil })
	}))
	store := memory.New()
	runner := workflow.NewRunner(reg, store, nopRunEmitter{}, testLogger())

	holder := correlation.NewHolder()
	ps := interceptor.New(runner, holder, nil, interceptor.WithLogger(testLogger()))
	p := proxy.New(&orderService{}, proxy.Config{}, ps.Advisor())

	run, err := proxy.Call[*workflow.Run](context.Background(), p, "PlaceOrder", "C-1", 42)
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if run.State != workflow.RunStateCompleted {
		t.Errorf("state = %q, want %q", run.State, workflow.RunStateCompleted)
	}
	if diff := cmp.Diff(orderVars{CustomerID: "C-1", Qty: 42}, got); diff != "" {
		t.Errorf("handler input mismatch (-want +got):\n%s", diff)
	}

	stored, err := store.GetRun(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	vars, err := stored.Variables()
	if err != nil {
		t.Fatalf("Variables: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"customerId": "C-1", "qty": float64(42)}, vars); diff != "" {
		t.Errorf("stored vars mismatch (-want +got):\n%s", diff)
	}

	// An unregistered key fails after the body ran.
	_, err = proxy.Call[string](context.Background(), p, "Quote", "SKU-1", 1)
	if !errors.Is(err, startflow.ErrWorkflowNotFound) {
		t.Errorf("err = %v, want ErrWorkflowNotFound", err)
	}
}
