// Package interceptor holds the advice that turns a successful call of a
// marked method into a process start.
//
// The advice runs the original method first. Only when it returns without
// error are the declared arguments collected into process variables and
// the process started through the Starter port. The started run is put in
// the invocation's correlation slot and, for methods declared to return
// *workflow.Run that returned nil, handed back as the method's result.
package interceptor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strconv"

	"github.com/xraph/startflow/correlation"
	"github.com/xraph/startflow/id"
	"github.com/xraph/startflow/matcher"
	"github.com/xraph/startflow/proxy"
	"github.com/xraph/startflow/workflow"
)

var runType = reflect.TypeOf((*workflow.Run)(nil))

var errNoRun = errors.New("starter returned no run")

// Starter starts a process instance. *workflow.Runner implements it.
type Starter interface {
	StartProcess(ctx context.Context, key string, vars map[string]any) (*workflow.Run, error)
}

// Emitter receives process-start outcomes.
type Emitter interface {
	EmitProcessStarted(ctx context.Context, start *Start, run *workflow.Run)
	EmitProcessStartFailed(ctx context.Context, start *Start, err error)
}

// Start describes one process start attempted after an intercepted call.
type Start struct {
	InvocationID id.InvocationID
	Type         string
	Method       string
	Key          string
	Variables    map[string]any
}

// StartError is returned by an intercepted call whose method body
// succeeded but whose process could not be started. The body's side
// effects are not rolled back.
type StartError struct {
	Key    string
	Method string
	Err    error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("startflow: start process %q after %s: %v", e.Key, e.Method, e.Err)
}

func (e *StartError) Unwrap() error { return e.Err }

// ProcessStarting is the process-start advice.
type ProcessStarting struct {
	starter Starter
	holder  *correlation.Holder
	matcher *matcher.Matcher
	emitter Emitter
	logger  *slog.Logger
}

// Option configures a ProcessStarting.
type Option func(*ProcessStarting)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *ProcessStarting) { p.logger = l }
}

// WithEmitter sets the receiver of start outcomes.
func WithEmitter(e Emitter) Option {
	return func(p *ProcessStarting) { p.emitter = e }
}

// New creates the advice. A nil matcher gets a fresh one.
func New(starter Starter, holder *correlation.Holder, m *matcher.Matcher, opts ...Option) *ProcessStarting {
	if m == nil {
		m = matcher.New()
	}
	p := &ProcessStarting{
		starter: starter,
		holder:  holder,
		matcher: m,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// InfrastructureObject marks the advice as framework plumbing.
func (p *ProcessStarting) InfrastructureObject() {}

// Matcher returns the eligibility matcher.
func (p *ProcessStarting) Matcher() *matcher.Matcher { return p.matcher }

// Holder returns the correlation holder.
func (p *ProcessStarting) Holder() *correlation.Holder { return p.holder }

// Starter returns the process starter.
func (p *ProcessStarting) Starter() Starter { return p.starter }

// Advisor pairs the advice with a pointcut that matches eligible methods.
func (p *ProcessStarting) Advisor() proxy.Advisor {
	pc := proxy.PointcutFunc(func(t reflect.Type, method string) bool {
		_, ok := p.matcher.Match(t, method)
		return ok
	})
	return proxy.NewAdvisor(pc, p.Intercept)
}

// Intercept is the proxy.Interceptor. Calls of methods that are not
// eligible pass straight through.
func (p *ProcessStarting) Intercept(ctx context.Context, inv *proxy.Invocation, next proxy.Handler) (any, error) {
	trigger, ok := p.matcher.Match(inv.TargetType, inv.Method.Name)
	if !ok {
		return next(ctx, inv)
	}

	ctx, slot := p.holder.Begin(ctx)

	result, err := next(ctx, inv)
	if err != nil {
		return result, err
	}

	start := &Start{
		InvocationID: slot.ID(),
		Type:         matcher.TypeName(inv.TargetType),
		Method:       inv.Method.Name,
		Key:          trigger.ProcessKey(),
		Variables:    Variables(trigger, inv),
	}

	run, err := p.starter.StartProcess(ctx, start.Key, start.Variables)
	if err == nil && run == nil {
		err = errNoRun
	}
	if err != nil {
		p.logger.Error("process start failed",
			slog.String("invocation_id", start.InvocationID.String()),
			slog.String("method", start.Type+"."+start.Method),
			slog.String("process_key", start.Key),
			slog.String("error", err.Error()),
		)
		if p.emitter != nil {
			p.emitter.EmitProcessStartFailed(ctx, start, err)
		}
		return result, &StartError{Key: start.Key, Method: start.Type + "." + start.Method, Err: err}
	}

	slot.Set(run)

	if inv.ResultType() == runType && proxy.IsNil(result) {
		result = run
	}

	p.logger.Debug("process started",
		slog.String("invocation_id", start.InvocationID.String()),
		slog.String("method", start.Type+"."+start.Method),
		slog.String("process_key", start.Key),
		slog.String("run_id", run.ID.String()),
		slog.Int("variables", len(start.Variables)),
	)
	if p.emitter != nil {
		p.emitter.EmitProcessStarted(ctx, start, run)
	}

	return result, nil
}

// Variables collects the arguments of inv whose parameters carry a
// ProcessVariable marker, in signature order. A variable is named by its
// marker, then by the parameter name, then "arg<N>". Later parameters
// overwrite earlier ones with the same name. A variadic last parameter
// binds the slice of its arguments.
func Variables(t *matcher.Trigger, inv *proxy.Invocation) map[string]any {
	vars := make(map[string]any)
	n := inv.NumParams()
	variadic := inv.IsVariadic()

	for i, param := range t.Params {
		if i >= n {
			break
		}
		v, ok := param.Variable()
		if !ok {
			continue
		}
		name := v.Name
		if name == "" {
			name = param.Name
		}
		if name == "" {
			name = "arg" + strconv.Itoa(i)
		}

		switch {
		case variadic && i == n-1:
			rest := []any{}
			if i < len(inv.Args) {
				rest = append(rest, inv.Args[i:]...)
			}
			vars[name] = rest
		case i < len(inv.Args):
			vars[name] = inv.Args[i]
		}
	}
	return vars
}
