package store_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/xraph/startflow"
	"github.com/xraph/startflow/store"
	"github.com/xraph/startflow/store/memory"
	"github.com/xraph/startflow/store/redis"
	"github.com/xraph/startflow/store/sqlite"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpen(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name   string
		cfg    startflow.StoreConfig
		assert func(t *testing.T, s store.Store)
	}{
		{
			name: "default is memory",
			cfg:  startflow.StoreConfig{},
			assert: func(t *testing.T, s store.Store) {
				if _, ok := s.(*memory.Store); !ok {
					t.Fatalf("got %T, want *memory.Store", s)
				}
			},
		},
		{
			name: "sqlite",
			cfg:  startflow.StoreConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "open.db")},
			assert: func(t *testing.T, s store.Store) {
				if _, ok := s.(*sqlite.Store); !ok {
					t.Fatalf("got %T, want *sqlite.Store", s)
				}
			},
		},
		{
			name: "redis",
			cfg:  startflow.StoreConfig{Driver: "REDIS", DSN: "redis://" + mr.Addr()},
			assert: func(t *testing.T, s store.Store) {
				if _, ok := s.(*redis.Store); !ok {
					t.Fatalf("got %T, want *redis.Store", s)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s, err := store.Open(ctx, tt.cfg, testLogger())
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer s.Close()
			tt.assert(t, s)
			if err := s.Ping(ctx); err != nil {
				t.Fatalf("Ping: %v", err)
			}
		})
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := store.Open(context.Background(), startflow.StoreConfig{Driver: "cassandra"}, nil)
	if !errors.Is(err, startflow.ErrUnknownStore) {
		t.Fatalf("Open = %v, want ErrUnknownStore", err)
	}
}
