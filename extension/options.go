package extension

import (
	"log/slog"

	"github.com/xraph/startflow"
	"github.com/xraph/startflow/ext"
	"github.com/xraph/startflow/proxy"
)

// ExtOption configures the startflow Forge extension.
type ExtOption func(*Extension)

// WithStore sets the persistence backend. It takes precedence over the
// configured store driver.
func WithStore(s startflow.Storer) ExtOption {
	return func(e *Extension) {
		e.store = s
	}
}

// WithExtension registers a lifecycle extension.
func WithExtension(x ext.Extension) ExtOption {
	return func(e *Extension) {
		e.exts = append(e.exts, x)
	}
}

// WithInterceptor adds proxy advice applied to every proxied call.
func WithInterceptor(ics ...proxy.Interceptor) ExtOption {
	return func(e *Extension) {
		e.interceptors = append(e.interceptors, ics...)
	}
}

// WithConfig sets the extension configuration directly.
func WithConfig(cfg Config) ExtOption {
	return func(e *Extension) {
		e.config = cfg
	}
}

// WithDisableMigrate disables auto-migration on start.
func WithDisableMigrate() ExtOption {
	return func(e *Extension) {
		e.config.Startflow.Store.DisableMigrate = true
	}
}

// WithResumeOnStart resumes interrupted runs when the extension starts.
func WithResumeOnStart() ExtOption {
	return func(e *Extension) {
		e.config.Startflow.ResumeOnStart = true
	}
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) ExtOption {
	return func(e *Extension) {
		e.config.RequireConfig = require
	}
}

// WithRedisClient resolves the named *redis.Client from the DI container
// and backs the run store with it. Pass an empty string for the default
// (unnamed) client.
func WithRedisClient(name string) ExtOption {
	return func(e *Extension) {
		e.config.RedisClient = name
		e.useRedis = true
	}
}

// WithLogger sets the structured logger for the runtime.
func WithLogger(l *slog.Logger) ExtOption {
	return func(e *Extension) {
		e.logger = l
	}
}
