package workflow

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
)

// Checkpoint key prefixes for the non-plain step kinds.
const (
	parallelPrefix = "parallel:"
	sleepPrefix    = "sleep:"
)

// Step runs fn once per run. A checkpointed step is skipped on replay;
// a successful one is checkpointed with empty data.
func (w *Workflow) Step(name string, fn func(ctx context.Context) error) error {
	_, err := w.once(w.ctx, name, func(ctx context.Context) ([]byte, error) {
		return []byte{}, fn(ctx)
	})
	return err
}

// StepWithResult is Step for a function that produces a value. The value
// is gob-encoded into the checkpoint and decoded on replay.
func StepWithResult[T any](w *Workflow, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	data, err := w.once(w.ctx, name, func(ctx context.Context) ([]byte, error) {
		v, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(v); err != nil {
			return nil, fmt.Errorf("encode result: %w", err)
		}
		return buf.Bytes(), nil
	})
	if err != nil {
		return out, err
	}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&out); err != nil {
		return out, fmt.Errorf("process %s step %q: decode result: %w", w.run.Name, name, err)
	}
	return out, nil
}

// Parallel runs steps concurrently and returns the first failure, which
// cancels the others. Sub-steps checkpoint as "parallel:<group>:<i>" and
// the group as "parallel:<group>".
func (w *Workflow) Parallel(group string, steps ...func(ctx context.Context) error) error {
	key := parallelPrefix + group
	if done, err := w.replayed(w.ctx, key); err != nil || done {
		return err
	}

	g, gctx := errgroup.WithContext(w.ctx)
	for i, fn := range steps {
		sub := key + ":" + strconv.Itoa(i)
		g.Go(func() error {
			_, err := w.once(gctx, sub, func(ctx context.Context) ([]byte, error) {
				return []byte{}, fn(ctx)
			})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("process %s parallel %q: %w", w.run.Name, group, err)
	}
	return w.save(w.ctx, key, []byte{})
}

// Sleep waits for d unless the run context ends first. A checkpointed
// sleep returns immediately on replay.
func (w *Workflow) Sleep(name string, d time.Duration) error {
	key := sleepPrefix + name
	if done, err := w.replayed(w.ctx, key); err != nil || done {
		return err
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-w.ctx.Done():
		return w.ctx.Err()
	}
	return w.save(w.ctx, key, []byte{})
}

// once returns the checkpoint under key if there is one. Otherwise it
// runs fn, emits the step outcome and saves what fn returned.
func (w *Workflow) once(ctx context.Context, key string, fn func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	data, err := w.store.GetCheckpoint(ctx, w.run.ID, key)
	if err != nil {
		return nil, fmt.Errorf("process %s: load checkpoint %q: %w", w.run.Name, key, err)
	}
	if data != nil {
		w.skipped(key)
		return data, nil
	}

	start := time.Now()
	data, err = fn(ctx)
	if err != nil {
		w.emitter.EmitStepFailed(w.ctx, w.run, key, err)
		return nil, fmt.Errorf("process %s step %q: %w", w.run.Name, key, err)
	}
	if err := w.save(ctx, key, data); err != nil {
		return nil, err
	}
	w.emitter.EmitStepCompleted(w.ctx, w.run, key, time.Since(start))
	return data, nil
}

// replayed reports whether key already has a checkpoint.
func (w *Workflow) replayed(ctx context.Context, key string) (bool, error) {
	data, err := w.store.GetCheckpoint(ctx, w.run.ID, key)
	if err != nil {
		return false, fmt.Errorf("process %s: load checkpoint %q: %w", w.run.Name, key, err)
	}
	if data == nil {
		return false, nil
	}
	w.skipped(key)
	return true, nil
}

func (w *Workflow) save(ctx context.Context, key string, data []byte) error {
	if err := w.store.SaveCheckpoint(ctx, w.run.ID, key, data); err != nil {
		return fmt.Errorf("process %s: save checkpoint %q: %w", w.run.Name, key, err)
	}
	return nil
}

func (w *Workflow) skipped(key string) {
	w.logger.Debug("replaying checkpointed step",
		slog.String("run_id", w.run.ID.String()),
		slog.String("step", key),
	)
}
