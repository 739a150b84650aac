// Package redis implements the run store on Redis. Runs and checkpoints
// are hashes; sorted sets keep them in creation order.
//
// Usage:
//
//	client := goredis.NewClient(&goredis.Options{Addr: "localhost:6379"})
//	s := redis.New(client)
//	if err := s.Ping(ctx); err != nil { ... }
package redis

import (
	"context"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/startflow/workflow"
)

var _ workflow.Store = (*Store)(nil)

// Option configures the Store.
type Option func(*Store)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Store persists runs and checkpoints in Redis.
type Store struct {
	client goredis.Cmdable
	closer func() error
	logger *slog.Logger
}

// New creates a store on client. The caller owns the client.
func New(client goredis.Cmdable, opts ...Option) *Store {
	s := &Store{client: client, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Open parses a redis:// URL and creates a store that owns its client.
func Open(url string, opts ...Option) (*Store, error) {
	o, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("startflow/redis: parse url: %w", err)
	}
	client := goredis.NewClient(o)
	s := New(client, opts...)
	s.closer = client.Close
	return s, nil
}

// Client returns the underlying Redis client.
func (s *Store) Client() goredis.Cmdable { return s.client }

// Migrate is a no-op for Redis (schemaless).
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping verifies the Redis connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client when the store created it.
func (s *Store) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}
