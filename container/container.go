// Package container is a small component container with post-processing
// hooks, the host side of process-start interception.
//
// Components are registered by name and initialised in registration
// order when the container starts. Post-processors see every component
// before and after its own initialisation and may replace it, which is
// how the installer swaps eligible components for proxies. Validators run
// once before any component is touched, so incomplete wiring fails fast.
package container

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/xraph/startflow"
)

// PostProcessor may replace components around their initialisation.
type PostProcessor interface {
	BeforeInit(ctx context.Context, obj any, name string) (any, error)
	AfterInit(ctx context.Context, obj any, name string) (any, error)
}

// Validator checks its own wiring once all components are registered.
type Validator interface {
	AfterWiring() error
}

// Initializer is implemented by components with an initialisation step.
type Initializer interface {
	Init(ctx context.Context) error
}

// Container holds named components.
type Container struct {
	mu         sync.RWMutex
	names      []string
	objects    map[string]any
	processors []PostProcessor
	started    bool
	logger     *slog.Logger
}

// Option configures a Container.
type Option func(*Container)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Container) { c.logger = l }
}

// New creates an empty Container.
func New(opts ...Option) *Container {
	c := &Container{
		objects: make(map[string]any),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register adds obj under name. Components registered after Start are not
// post-processed.
func (c *Container) Register(name string, obj any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.objects[name]; exists {
		return fmt.Errorf("%w: %q", startflow.ErrDuplicateComponent, name)
	}
	if c.started {
		return fmt.Errorf("%w: cannot register %q", startflow.ErrContainerStarted, name)
	}
	c.names = append(c.names, name)
	c.objects[name] = obj
	return nil
}

// AddPostProcessor appends pp. Post-processors run in the order added.
func (c *Container) AddPostProcessor(pp PostProcessor) {
	c.mu.Lock()
	c.processors = append(c.processors, pp)
	c.mu.Unlock()
}

// Start validates the wiring, then initialises every component in
// registration order: BeforeInit hooks, Init, AfterInit hooks. The object
// returned by the last hook replaces the registered one.
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return startflow.ErrContainerStarted
	}

	if err := c.validate(); err != nil {
		return fmt.Errorf("container: wiring: %w", err)
	}

	for _, name := range c.names {
		obj, err := c.initialize(ctx, name, c.objects[name])
		if err != nil {
			return fmt.Errorf("container: component %q: %w", name, err)
		}
		c.objects[name] = obj
	}

	c.started = true
	c.logger.Info("container started",
		slog.Int("components", len(c.names)),
		slog.Int("post_processors", len(c.processors)),
	)
	return nil
}

func (c *Container) validate() error {
	var errs []error
	for _, pp := range c.processors {
		if v, ok := pp.(Validator); ok {
			errs = append(errs, v.AfterWiring())
		}
	}
	for _, name := range c.names {
		if v, ok := c.objects[name].(Validator); ok {
			errs = append(errs, v.AfterWiring())
		}
	}
	return errors.Join(errs...)
}

func (c *Container) initialize(ctx context.Context, name string, obj any) (any, error) {
	var err error
	for _, pp := range c.processors {
		if obj, err = pp.BeforeInit(ctx, obj, name); err != nil {
			return nil, err
		}
	}

	if in, ok := obj.(Initializer); ok {
		if err := in.Init(ctx); err != nil {
			return nil, fmt.Errorf("init: %w", err)
		}
	}

	for _, pp := range c.processors {
		if obj, err = pp.AfterInit(ctx, obj, name); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

// Get returns the component registered under name.
func (c *Container) Get(name string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	obj, ok := c.objects[name]
	return obj, ok
}

// Names returns component names in registration order.
func (c *Container) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.names...)
}

// Resolve returns the component registered under name as a T.
func Resolve[T any](c *Container, name string) (T, error) {
	var zero T
	obj, ok := c.Get(name)
	if !ok {
		return zero, fmt.Errorf("%w: %q", startflow.ErrComponentNotFound, name)
	}
	t, ok := obj.(T)
	if !ok {
		return zero, fmt.Errorf("container: component %q is %T, not %T", name, obj, zero)
	}
	return t, nil
}

// MustResolve is like Resolve but panics on error.
func MustResolve[T any](c *Container, name string) T {
	t, err := Resolve[T](c, name)
	if err != nil {
		panic(err)
	}
	return t
}
