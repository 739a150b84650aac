package startflow

import (
	"context"
	"log/slog"
)

// Option configures a Runtime.
type Option func(*Runtime) error

// Storer is the minimal store interface held by the Runtime.
// It covers lifecycle operations only. Concrete stores also satisfy
// workflow.Store, which the engine package type-asserts for.
type Storer interface {
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// extensionEmitter is an internal interface for extension lifecycle events.
type extensionEmitter interface {
	EmitShutdown(ctx context.Context)
}

// Runtime holds the configuration, logger and store shared by every
// startflow component. Build one with New, then hand it to engine.Build.
type Runtime struct {
	config     Config
	logger     *slog.Logger
	store      Storer
	extensions extensionEmitter
}

// New creates a new Runtime with the given options.
func New(opts ...Option) (*Runtime, error) {
	rt := &Runtime{
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(rt); err != nil {
			return nil, err
		}
	}
	return rt, nil
}

// Logger returns the runtime's logger.
func (rt *Runtime) Logger() *slog.Logger { return rt.logger }

// Store returns the runtime's store.
func (rt *Runtime) Store() Storer { return rt.store }

// Config returns a copy of the runtime's configuration.
func (rt *Runtime) Config() Config { return rt.config }

// SetExtensions sets the extension emitter (called by the engine package).
func (rt *Runtime) SetExtensions(e extensionEmitter) { rt.extensions = e }

// Stop notifies extensions of shutdown and closes the store.
func (rt *Runtime) Stop(ctx context.Context) error {
	if rt.extensions != nil {
		rt.extensions.EmitShutdown(ctx)
	}
	if rt.store != nil {
		return rt.store.Close()
	}
	return nil
}

// WithConfig replaces the runtime configuration.
func WithConfig(cfg Config) Option {
	return func(rt *Runtime) error {
		rt.config = cfg
		return nil
	}
}

// WithProxyTargetType sets whether new proxies expose the full method set
// of the wrapped object.
func WithProxyTargetType(v bool) Option {
	return func(rt *Runtime) error {
		rt.config.ProxyTargetType = v
		return nil
	}
}

// WithLogger sets the structured logger for the runtime.
func WithLogger(l *slog.Logger) Option {
	return func(rt *Runtime) error {
		rt.logger = l
		return nil
	}
}

// WithStore sets the persistence backend for workflow runs.
// The store must implement Storer at minimum; typically it also
// implements workflow.Store.
func WithStore(s Storer) Option {
	return func(rt *Runtime) error {
		if s == nil {
			return ErrNoStore
		}
		rt.store = s
		return nil
	}
}
