// Package sqlite implements the run store on SQLite through the grove ORM
// and its pure-Go sqlitedriver. Schema changes are grove migrations.
//
// Usage:
//
//	s, err := sqlite.Open(ctx, "file:startflow.db")
//	if err != nil { ... }
//	defer s.Close()
//	if err := s.Migrate(ctx); err != nil { ... }
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xraph/grove"
	"github.com/xraph/grove/driver"
	"github.com/xraph/grove/drivers/sqlitedriver"
	_ "github.com/xraph/grove/drivers/sqlitedriver/sqlitemigrate" // register sqlite migration executor
	"github.com/xraph/grove/migrate"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/xraph/startflow"
	"github.com/xraph/startflow/workflow"
)

var _ workflow.Store = (*Store)(nil)

// Store persists runs and checkpoints in SQLite.
type Store struct {
	db     *grove.DB
	sdb    *sqlitedriver.SqliteDB
	owned  bool
	logger *slog.Logger
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Open connects a sqlitedriver to dsn. The returned store owns the
// handle and closes it on Close.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("startflow/sqlite: dsn is required")
	}

	var drvOpts []driver.Option
	if strings.Contains(dsn, ":memory:") {
		// Each pooled connection would otherwise get its own empty database.
		drvOpts = append(drvOpts, driver.WithPoolSize(1))
	}
	sdb := sqlitedriver.New()
	if err := sdb.Open(ctx, dsn, drvOpts...); err != nil {
		return nil, fmt.Errorf("startflow/sqlite: open: %w", err)
	}
	db, err := grove.Open(sdb)
	if err != nil {
		_ = sdb.Close()
		return nil, fmt.Errorf("startflow/sqlite: open: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("startflow/sqlite: ping: %w", err)
	}

	s := New(db, opts...)
	s.owned = true
	return s, nil
}

// New wraps a grove handle backed by sqlitedriver. The caller owns db;
// Close leaves it open.
func New(db *grove.DB, opts ...Option) *Store {
	s := &Store{
		db:     db,
		sdb:    sqlitedriver.Unwrap(db),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB returns the underlying grove handle.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate applies the pending migrations of the startflow group.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("startflow/sqlite: create migration executor: %w", err)
	}
	res, err := migrate.NewOrchestrator(executor, Migrations).Migrate(ctx)
	if err != nil {
		return fmt.Errorf("startflow/sqlite: migrate: %w", err)
	}
	for _, m := range res.Applied {
		s.logger.Debug("applied migration",
			slog.String("name", m.Name),
			slog.String("version", m.Version),
		)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return wrapErr("ping", err)
	}
	return nil
}

// Close closes the handle when the store opened it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func wrapErr(op string, err error) error {
	if errors.Is(err, grove.ErrDriverClosed) || errors.Is(err, sql.ErrConnDone) ||
		strings.Contains(err.Error(), "database is closed") {
		return fmt.Errorf("startflow/sqlite: %s: %w", op, startflow.ErrStoreClosed)
	}
	return fmt.Errorf("startflow/sqlite: %s: %w", op, err)
}
