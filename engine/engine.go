package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gu "github.com/xraph/go-utils/metrics"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/startflow"
	"github.com/xraph/startflow/correlation"
	"github.com/xraph/startflow/ext"
	"github.com/xraph/startflow/installer"
	"github.com/xraph/startflow/matcher"
	mw "github.com/xraph/startflow/middleware"
	"github.com/xraph/startflow/observability"
	"github.com/xraph/startflow/proxy"
	"github.com/xraph/startflow/workflow"
)

const instrumentationName = "github.com/xraph/startflow"

// extRunEmitter adapts *ext.Registry to workflow.RunEmitter. workflow
// defines the interface and ext implements it under different method
// names, so the engine plugs them together.
type extRunEmitter struct {
	r *ext.Registry
}

func (a *extRunEmitter) EmitStepCompleted(ctx context.Context, run *workflow.Run, stepName string, elapsed time.Duration) {
	a.r.EmitWorkflowStepCompleted(ctx, run, stepName, elapsed)
}

func (a *extRunEmitter) EmitStepFailed(ctx context.Context, run *workflow.Run, stepName string, err error) {
	a.r.EmitWorkflowStepFailed(ctx, run, stepName, err)
}

func (a *extRunEmitter) EmitWorkflowStarted(ctx context.Context, run *workflow.Run) {
	a.r.EmitWorkflowStarted(ctx, run)
}

func (a *extRunEmitter) EmitWorkflowCompleted(ctx context.Context, run *workflow.Run, elapsed time.Duration) {
	a.r.EmitWorkflowCompleted(ctx, run, elapsed)
}

func (a *extRunEmitter) EmitWorkflowFailed(ctx context.Context, run *workflow.Run, err error) {
	a.r.EmitWorkflowFailed(ctx, run, err)
}

// Engine owns the wired subsystems. Use Build to create one.
type Engine struct {
	rt         *startflow.Runtime
	extensions *ext.Registry
	logger     *slog.Logger

	wfRegistry *workflow.Registry
	wfRunner   *workflow.Runner

	holder    *correlation.Holder
	matcher   *matcher.Matcher
	installer *installer.Installer
	outer     []proxy.Interceptor
	mws       []proxy.Interceptor
	metrics   *observability.MetricsExtension

	// OpenTelemetry providers (optional; nil means use global).
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	metricFactory  gu.MetricFactory
}

// Option configures an Engine.
type Option func(*Engine)

// WithExtension registers an extension with the engine.
func WithExtension(e ext.Extension) Option {
	return func(eng *Engine) {
		eng.extensions.Register(e)
	}
}

// WithInterceptor adds advice applied to every method of proxied
// components, inside the default stack.
func WithInterceptor(ics ...proxy.Interceptor) Option {
	return func(eng *Engine) {
		eng.mws = append(eng.mws, ics...)
	}
}

// WithOuterInterceptor adds advice applied around the process-start
// advice. Unlike [WithInterceptor], a context it derives (a scope or a
// deadline) is also the context the started process runs with.
func WithOuterInterceptor(ics ...proxy.Interceptor) Option {
	return func(eng *Engine) {
		eng.outer = append(eng.outer, ics...)
	}
}

// WithMatcher sets the eligibility matcher, for applications that
// register triggers on types they do not own.
func WithMatcher(m *matcher.Matcher) Option {
	return func(eng *Engine) {
		eng.matcher = m
	}
}

// WithTracerProvider sets the TracerProvider used by the tracing advice.
// If not set, the global otel.GetTracerProvider() is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(eng *Engine) {
		eng.tracerProvider = tp
	}
}

// WithMeterProvider sets the MeterProvider used by the metrics advice.
// If not set, the global otel.GetMeterProvider() is used.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(eng *Engine) {
		eng.meterProvider = mp
	}
}

// WithMetricFactory sets the factory backing the observability extension.
func WithMetricFactory(f gu.MetricFactory) Option {
	return func(eng *Engine) {
		eng.metricFactory = f
	}
}

// Build creates an Engine from a Runtime. The runtime's store must
// implement workflow.Store.
func Build(rt *startflow.Runtime, opts ...Option) (*Engine, error) {
	logger := rt.Logger()
	store := rt.Store()

	if store == nil {
		return nil, startflow.ErrNoStore
	}

	ws, ok := store.(workflow.Store)
	if !ok {
		return nil, fmt.Errorf("startflow: store %T does not implement workflow.Store", store)
	}

	eng := &Engine{
		rt:         rt,
		extensions: ext.NewRegistry(logger),
		logger:     logger,
		wfRegistry: workflow.NewRegistry(),
		holder:     correlation.NewHolder(),
	}

	for _, opt := range opts {
		opt(eng)
	}

	if eng.matcher == nil {
		eng.matcher = matcher.New()
	}

	eng.wfRunner = workflow.NewRunner(eng.wfRegistry, ws, &extRunEmitter{r: eng.extensions}, logger)

	// Register the observability metrics extension.
	if eng.metricFactory != nil {
		eng.metrics = observability.NewMetricsExtensionWithFactory(eng.metricFactory)
	} else {
		eng.metrics = observability.NewMetricsExtension()
	}
	eng.extensions.Register(eng.metrics)

	tracingMw := mw.Tracing()
	if eng.tracerProvider != nil {
		tracingMw = mw.TracingWithTracer(eng.tracerProvider.Tracer(instrumentationName))
	}
	metricsMw := mw.Metrics()
	if eng.meterProvider != nil {
		metricsMw = mw.MetricsWithMeter(eng.meterProvider.Meter(instrumentationName))
	}

	// Default advice stack: recover → tracing → metrics → logging, then
	// the application's own.
	stack := make([]proxy.Interceptor, 0, 4+len(eng.mws))
	stack = append(stack,
		mw.Recover(logger),
		tracingMw,
		metricsMw,
		mw.Logging(logger),
	)
	stack = append(stack, eng.mws...)

	cfg := rt.Config()
	eng.installer = installer.New(eng.wfRunner, eng.holder,
		installer.WithMatcher(eng.matcher),
		installer.WithLogger(logger),
		installer.WithProxyConfig(proxy.Config{ProxyTargetType: cfg.ProxyTargetType}),
		installer.WithEmitter(eng.extensions),
		installer.WithOuterInterceptors(eng.outer...),
		installer.WithInterceptors(stack...),
	)

	rt.SetExtensions(eng.extensions)

	return eng, nil
}

// Start migrates the store unless disabled and, when configured, resumes
// runs a previous process left in "running" state.
func (eng *Engine) Start(ctx context.Context) error {
	cfg := eng.rt.Config()

	if !cfg.Store.DisableMigrate {
		if err := eng.rt.Store().Migrate(ctx); err != nil {
			return fmt.Errorf("startflow: migrate store: %w", err)
		}
	}

	if cfg.ResumeOnStart {
		// Best-effort; a failed resume must not block startup.
		if err := eng.wfRunner.ResumeAll(ctx); err != nil {
			eng.logger.Warn("failed to resume workflow runs",
				slog.String("error", err.Error()),
			)
		}
	}

	eng.logger.Info("startflow engine started",
		slog.Any("workflows", eng.wfRegistry.Names()),
	)
	return nil
}

// Stop notifies extensions of shutdown and closes the store.
func (eng *Engine) Stop(ctx context.Context) error {
	return eng.rt.Stop(ctx)
}

// Runtime returns the underlying Runtime.
func (eng *Engine) Runtime() *startflow.Runtime { return eng.rt }

// Extensions returns the extension registry.
func (eng *Engine) Extensions() *ext.Registry { return eng.extensions }

// WorkflowRegistry returns the process registry.
func (eng *Engine) WorkflowRegistry() *workflow.Registry { return eng.wfRegistry }

// Runner returns the workflow runner, the engine's process starter.
func (eng *Engine) Runner() *workflow.Runner { return eng.wfRunner }

// Holder returns the correlation holder shared by all proxies.
func (eng *Engine) Holder() *correlation.Holder { return eng.holder }

// Matcher returns the eligibility matcher.
func (eng *Engine) Matcher() *matcher.Matcher { return eng.matcher }

// Installer returns the installer to add to a container as post-processor.
func (eng *Engine) Installer() *installer.Installer { return eng.installer }

// Metrics returns the observability extension.
func (eng *Engine) Metrics() *observability.MetricsExtension { return eng.metrics }

// RegisterWorkflow registers a typed workflow definition with the engine.
func RegisterWorkflow[T any](eng *Engine, def *workflow.Definition[T]) {
	workflow.RegisterDefinition(eng.wfRegistry, def)
}

// StartWorkflow starts a run directly, bypassing interception.
func StartWorkflow[T any](ctx context.Context, eng *Engine, name string, input T) (*workflow.Run, error) {
	return workflow.Start(ctx, eng.wfRunner, name, input)
}
