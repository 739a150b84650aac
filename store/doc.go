// Package store defines the persistence interface for process runs and
// opens a backend from configuration.
//
// # Available Backends
//
//   - store/memory: in-memory, for development and tests
//   - store/postgres: PostgreSQL using pgx/v5
//   - store/sqlite: SQLite using the grove sqlitedriver
//   - store/redis: Redis using go-redis/v9
//
// # Usage
//
//	s, err := store.Open(ctx, startflow.StoreConfig{
//	    Driver: "sqlite",
//	    DSN:    "file:startflow.db",
//	}, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	rt, err := startflow.New(startflow.WithStore(s))
//
// The interception layer itself keeps no state; stores only hold the
// process instances the engine creates.
package store
