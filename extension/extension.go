// Package extension provides the Forge extension adapter for startflow.
//
// It implements the forge.Extension interface to mount process-start
// interception into a Forge application. The engine, its installer and a
// component container with the installer attached are provided through
// the Vessel DI container, so other extensions can register components
// whose marked methods start processes.
//
// Configuration can be provided programmatically via options or via YAML
// configuration files under "extensions.startflow" or "startflow" keys.
package extension

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"
	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/startflow"
	"github.com/xraph/startflow/container"
	"github.com/xraph/startflow/engine"
	"github.com/xraph/startflow/ext"
	"github.com/xraph/startflow/installer"
	"github.com/xraph/startflow/proxy"
	"github.com/xraph/startflow/store"
	redisstore "github.com/xraph/startflow/store/redis"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "startflow"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Starts workflow processes when marked component methods return successfully"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts startflow as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config       Config
	eng          *engine.Engine
	components   *container.Container
	store        startflow.Storer
	logger       *slog.Logger
	exts         []ext.Extension
	interceptors []proxy.Interceptor
	useRedis     bool
}

// New creates a startflow Forge extension with the given options.
func New(opts ...ExtOption) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
		config:        DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying engine. It is nil until Register is called.
func (e *Extension) Engine() *engine.Engine { return e.eng }

// Container returns the component container the installer is attached
// to. It is nil until Register is called.
func (e *Extension) Container() *container.Container { return e.components }

// EffectiveConfig returns the configuration after file and option merge.
func (e *Extension) EffectiveConfig() Config { return e.config }

// Register implements [forge.Extension]. It builds the runtime and engine
// and provides them to the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if err := e.init(fapp); err != nil {
		return err
	}

	if err := vessel.Provide(fapp.Container(), func() (*engine.Engine, error) {
		return e.eng, nil
	}); err != nil {
		return fmt.Errorf("startflow: register engine in container: %w", err)
	}
	if err := vessel.Provide(fapp.Container(), func() (*installer.Installer, error) {
		return e.eng.Installer(), nil
	}); err != nil {
		return fmt.Errorf("startflow: register installer in container: %w", err)
	}
	if err := vessel.Provide(fapp.Container(), func() (*container.Container, error) {
		return e.components, nil
	}); err != nil {
		return fmt.Errorf("startflow: register component container: %w", err)
	}

	return nil
}

// init opens the store and builds the runtime, engine and container.
func (e *Extension) init(fapp forge.App) error {
	logger := e.logger
	if logger == nil {
		logger = slog.Default()
	}

	s, err := e.resolveStore(fapp, logger)
	if err != nil {
		return err
	}

	rt, err := startflow.New(
		startflow.WithConfig(e.config.Startflow),
		startflow.WithStore(s),
		startflow.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("startflow: create runtime: %w", err)
	}

	engOpts := make([]engine.Option, 0, len(e.exts)+2)
	engOpts = append(engOpts, engine.WithMetricFactory(fapp.Metrics()))
	for _, x := range e.exts {
		engOpts = append(engOpts, engine.WithExtension(x))
	}
	if len(e.interceptors) > 0 {
		engOpts = append(engOpts, engine.WithInterceptor(e.interceptors...))
	}

	e.eng, err = engine.Build(rt, engOpts...)
	if err != nil {
		return fmt.Errorf("startflow: build engine: %w", err)
	}

	e.components = container.New(container.WithLogger(logger))
	e.components.AddPostProcessor(e.eng.Installer())
	return nil
}

// resolveStore picks the run store: an injected store first, then a
// Redis client from the DI container, then the configured driver.
func (e *Extension) resolveStore(fapp forge.App, logger *slog.Logger) (startflow.Storer, error) {
	if e.store != nil {
		return e.store, nil
	}

	if e.useRedis {
		client, err := e.resolveRedisClient(fapp)
		if err != nil {
			return nil, fmt.Errorf("startflow: %w", err)
		}
		return redisstore.New(client, redisstore.WithLogger(logger)), nil
	}

	// The engine migrates on Start, so Open skips it.
	cfg := e.config.Startflow.Store
	cfg.DisableMigrate = true
	s, err := store.Open(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("startflow: open %q store: %w", cfg.Driver, err)
	}
	return s, nil
}

// resolveRedisClient resolves a *redis.Client from the DI container.
func (e *Extension) resolveRedisClient(fapp forge.App) (*goredis.Client, error) {
	if e.config.RedisClient != "" {
		c, err := vessel.InjectNamed[*goredis.Client](fapp.Container(), e.config.RedisClient)
		if err != nil {
			return nil, fmt.Errorf("redis client %q not found in container: %w", e.config.RedisClient, err)
		}
		return c, nil
	}
	c, err := vessel.Inject[*goredis.Client](fapp.Container())
	if err != nil {
		return nil, fmt.Errorf("default redis client not found in container: %w", err)
	}
	return c, nil
}

// Start migrates the store, resumes interrupted runs when configured and
// initializes the registered components, proxying the eligible ones.
func (e *Extension) Start(ctx context.Context) error {
	if e.eng == nil {
		return errors.New("startflow: extension not initialized")
	}

	if err := e.eng.Start(ctx); err != nil {
		return err
	}
	if err := e.components.Start(ctx); err != nil {
		return fmt.Errorf("startflow: start components: %w", err)
	}

	e.MarkStarted()
	return nil
}

// Stop shuts down the engine and closes the store.
func (e *Extension) Stop(ctx context.Context) error {
	if e.eng == nil {
		e.MarkStopped()
		return nil
	}
	err := e.eng.Stop(ctx)
	e.MarkStopped()
	return err
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.eng == nil {
		return errors.New("startflow: extension not initialized")
	}

	s := e.eng.Runtime().Store()
	if s == nil {
		return startflow.ErrNoStore
	}
	return s.Ping(ctx)
}

// --- Config loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmatic := e.config

	fileConfig, loaded := e.tryLoadFromConfigFile()
	if !loaded {
		if programmatic.RequireConfig {
			return errors.New("startflow: configuration is required but not found in config files; " +
				"ensure 'extensions.startflow' or 'startflow' key exists in your config")
		}
		e.config = mergeWithDefaults(programmatic)
	} else {
		e.config = mergeConfigurations(fileConfig, programmatic)
	}

	if e.config.RedisClient != "" {
		e.useRedis = true
	}

	e.Logger().Debug("startflow: configuration loaded",
		forge.F("store_driver", e.config.Startflow.Store.Driver),
		forge.F("disable_migrate", e.config.Startflow.Store.DisableMigrate),
		forge.F("resume_on_start", e.config.Startflow.ResumeOnStart),
		forge.F("proxy_target_type", e.config.Startflow.ProxyTargetType),
		forge.F("redis_client", e.config.RedisClient),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()

	for _, key := range []string{"extensions.startflow", "startflow"} {
		if !cm.IsSet(key) {
			continue
		}
		var cfg Config
		if err := cm.Bind(key, &cfg); err != nil {
			e.Logger().Warn("startflow: failed to bind config",
				forge.F("key", key),
				forge.F("error", err.Error()),
			)
			continue
		}
		e.Logger().Debug("startflow: loaded config from file", forge.F("key", key))
		return cfg, true
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	if cfg.Startflow.Store.Driver == "" && cfg.RedisClient == "" {
		cfg.Startflow.Store.Driver = DefaultConfig().Startflow.Store.Driver
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options. YAML
// wins for strings; programmatic bool flags override when true.
func mergeConfigurations(yamlCfg, programmatic Config) Config {
	y, p := &yamlCfg.Startflow, programmatic.Startflow

	if p.ProxyTargetType {
		y.ProxyTargetType = true
	}
	if p.ResumeOnStart {
		y.ResumeOnStart = true
	}
	if p.Store.DisableMigrate {
		y.Store.DisableMigrate = true
	}

	if y.Store.Driver == "" {
		y.Store.Driver = p.Store.Driver
		if y.Store.DSN == "" {
			y.Store.DSN = p.Store.DSN
		}
	}
	if yamlCfg.RedisClient == "" {
		yamlCfg.RedisClient = programmatic.RedisClient
	}
	yamlCfg.RequireConfig = programmatic.RequireConfig

	return mergeWithDefaults(yamlCfg)
}
