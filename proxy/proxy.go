package proxy

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/xraph/startflow"
	"github.com/xraph/startflow/id"
)

// Ensure Proxy implements Advised at compile time.
var _ Advised = (*Proxy)(nil)

// Proxy is a transparent decorator around a target object. It is safe for
// concurrent use; advisors may be added while calls are in flight.
type Proxy struct {
	id         id.ProxyID
	target     any
	targetType reflect.Type
	config     Config
	methods    map[string]reflect.Method

	mu       sync.RWMutex
	advisors []Advisor // copy-on-write
}

// New wraps target. Advisors run in the given order, first outermost.
func New(target any, cfg Config, advisors ...Advisor) *Proxy {
	var c Config
	c.CopyFrom(cfg)

	t := reflect.TypeOf(target)
	return &Proxy{
		id:         id.NewProxyID(),
		target:     target,
		targetType: t,
		config:     c,
		methods:    c.exposedMethods(t),
		advisors:   append([]Advisor(nil), advisors...),
	}
}

// ID returns the proxy's unique identifier.
func (p *Proxy) ID() id.ProxyID { return p.id }

// Target returns the wrapped object.
func (p *Proxy) Target() any { return p.target }

// TargetType returns the concrete type of the wrapped object.
func (p *Proxy) TargetType() reflect.Type { return p.targetType }

// Config returns a copy of the proxy configuration.
func (p *Proxy) Config() Config {
	var c Config
	c.CopyFrom(p.config)
	return c
}

// Methods returns the names of the exposed methods, sorted.
func (p *Proxy) Methods() []string {
	names := make([]string, 0, len(p.methods))
	for name := range p.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AddAdvisor inserts a at position pos. Out-of-range positions are clamped.
func (p *Proxy) AddAdvisor(pos int, a Advisor) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pos = max(0, min(pos, len(p.advisors)))
	next := make([]Advisor, 0, len(p.advisors)+1)
	next = append(next, p.advisors[:pos]...)
	next = append(next, a)
	next = append(next, p.advisors[pos:]...)
	p.advisors = next
}

// Advisors returns a snapshot of the advisor list.
func (p *Proxy) Advisors() []Advisor {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]Advisor(nil), p.advisors...)
}

// Call invokes method on the target through every advisor whose pointcut
// matches it. The result is the method's non-error return value, if any.
func (p *Proxy) Call(ctx context.Context, method string, args ...any) (any, error) {
	m, ok := p.methods[method]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", startflow.ErrMethodNotFound, p.targetType, method)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	p.mu.RLock()
	advisors := p.advisors
	p.mu.RUnlock()

	chain := make([]Interceptor, 0, len(advisors))
	for _, a := range advisors {
		if a.Pointcut().Matches(p.targetType, method) {
			chain = append(chain, a.Interceptor())
		}
	}

	inv := &Invocation{
		Proxy:      p,
		Target:     p.target,
		TargetType: p.targetType,
		Method:     m,
		Args:       args,
	}
	return Chain(chain...)(ctx, inv, invokeTarget)
}

// Caller is anything that dispatches calls by method name, typically a
// *Proxy.
type Caller interface {
	Call(ctx context.Context, method string, args ...any) (any, error)
}

// Call invokes method on c and asserts the result to R. A nil result
// yields the zero R.
func Call[R any](ctx context.Context, c Caller, method string, args ...any) (R, error) {
	var zero R
	res, err := c.Call(ctx, method, args...)
	if res == nil {
		return zero, err
	}
	r, ok := res.(R)
	if !ok {
		if err != nil {
			return zero, err
		}
		return zero, fmt.Errorf("%w: %s returned %T", startflow.ErrUnsupportedSignature, method, res)
	}
	return r, err
}

// Exec invokes method on c and discards its result.
func Exec(ctx context.Context, c Caller, method string, args ...any) error {
	_, err := c.Call(ctx, method, args...)
	return err
}
