package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xraph/startflow"
	"github.com/xraph/startflow/store/memory"
	"github.com/xraph/startflow/store/postgres"
	"github.com/xraph/startflow/store/redis"
	"github.com/xraph/startflow/store/sqlite"
	"github.com/xraph/startflow/workflow"
)

// Store is the persistence interface every backend implements.
type Store interface {
	workflow.Store

	// Migrate creates or updates the schema.
	Migrate(ctx context.Context) error

	// Ping checks connectivity.
	Ping(ctx context.Context) error

	// Close releases resources the store owns.
	Close() error
}

var (
	_ Store = (*memory.Store)(nil)
	_ Store = (*postgres.Store)(nil)
	_ Store = (*sqlite.Store)(nil)
	_ Store = (*redis.Store)(nil)
)

// Drivers accepted by Open.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
)

// Open builds the store named by cfg.Driver. Unless cfg.DisableMigrate is
// set, the schema is migrated before the store is returned.
func Open(ctx context.Context, cfg startflow.StoreConfig, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		s   Store
		err error
	)
	switch strings.ToLower(cfg.Driver) {
	case "", DriverMemory:
		s = memory.New()
	case DriverPostgres, "pg":
		s, err = postgres.New(ctx, cfg.DSN, postgres.WithLogger(logger))
	case DriverSQLite:
		s, err = sqlite.Open(ctx, cfg.DSN, sqlite.WithLogger(logger))
	case DriverRedis:
		s, err = redis.Open(cfg.DSN, redis.WithLogger(logger))
	default:
		return nil, fmt.Errorf("%w: %q", startflow.ErrUnknownStore, cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if !cfg.DisableMigrate {
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
	}
	return s, nil
}
