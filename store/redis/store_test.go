package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/startflow/store/redis"
	"github.com/xraph/startflow/store/storetest"
	"github.com/xraph/startflow/workflow"
)

func newStore(t *testing.T) *redis.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redis.New(client)
}

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) workflow.Store { return newStore(t) })
}

func TestPing(t *testing.T) {
	if err := newStore(t).Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestOpen_OwnsClient(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := redis.Open("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Ping(context.Background()); err == nil {
		t.Fatal("Ping after Close should fail")
	}
}

func TestUpdateRun_ClearsCompletedAt(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	r := storetest.NewRun("resume", workflow.RunStateCompleted)
	now := r.StartedAt
	r.CompletedAt = &now
	if err := s.CreateRun(ctx, r); err != nil {
		t.Fatal(err)
	}

	r.State = workflow.RunStateRunning
	r.CompletedAt = nil
	if err := s.UpdateRun(ctx, r); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetRun(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.CompletedAt != nil {
		t.Fatalf("CompletedAt = %v, want nil", got.CompletedAt)
	}
}
