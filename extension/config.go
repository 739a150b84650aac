package extension

import "github.com/xraph/startflow"

// Config holds configuration for the startflow Forge extension.
type Config struct {
	// Startflow holds the runtime configuration, including the store
	// driver and DSN used when no store is injected.
	Startflow startflow.Config `json:"startflow" yaml:"startflow"`

	// RedisClient names a *redis.Client in the DI container to back the
	// run store. Empty means no container lookup.
	RedisClient string `json:"redis_client,omitempty" yaml:"redis_client,omitempty"`

	// RequireConfig makes Register fail when no configuration is found
	// in the config files.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns the extension defaults.
func DefaultConfig() Config {
	return Config{Startflow: startflow.DefaultConfig()}
}
