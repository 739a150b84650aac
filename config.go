package startflow

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds configuration for the startflow runtime.
type Config struct {
	// ProxyTargetType makes new proxies expose the full method set of the
	// wrapped object instead of only the interfaces it implements.
	ProxyTargetType bool `json:"proxy_target_type" yaml:"proxy_target_type" env:"PROXY_TARGET_TYPE"`

	// ResumeOnStart resumes runs a previous process left in "running"
	// state when the engine starts.
	ResumeOnStart bool `json:"resume_on_start" yaml:"resume_on_start" env:"RESUME_ON_START"`

	// Store selects and configures the run store.
	Store StoreConfig `json:"store" yaml:"store" envPrefix:"STORE_"`
}

// StoreConfig selects a run store backend.
type StoreConfig struct {
	// Driver is one of "memory", "postgres", "sqlite" or "redis".
	Driver string `json:"driver" yaml:"driver" env:"DRIVER"`

	// DSN is the driver-specific connection string. Ignored for memory.
	DSN string `json:"dsn" yaml:"dsn" env:"DSN"`

	// DisableMigrate skips schema migration on start.
	DisableMigrate bool `json:"disable_migrate" yaml:"disable_migrate" env:"DISABLE_MIGRATE"`
}

// EnvPrefix is prepended to every environment variable read by LoadConfig.
const EnvPrefix = "STARTFLOW_"

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Store: StoreConfig{Driver: "memory"},
	}
}

// LoadConfig builds a Config from defaults, then the YAML file at path
// (skipped when path is empty or the file does not exist), then
// STARTFLOW_* environment variables.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("startflow: read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("startflow: parse config %s: %w", path, err)
			}
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("startflow: parse environment: %w", err)
	}

	return cfg, nil
}
