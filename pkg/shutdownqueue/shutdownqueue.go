// Package shutdownqueue provides a process-wide LIFO shutdown queue for
// cleanup tasks.
//
// Components register named tasks anywhere via Add, and main drains them
// explicitly at the end of run:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
//	defer cancel()
//	defer shutdownqueue.Shutdown(ctx)
//
// Tasks run once, in reverse order of registration. Panics are recovered.
// Shutdown is idempotent and returns an aggregated error via errors.Join.
package shutdownqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Task is a shutdown function. It should honor ctx and return an error
// if it can't finish (or ctx is canceled).
type Task func(ctx context.Context) error

type namedTask struct {
	name string
	fn   Task
}

type queue struct {
	mu     sync.Mutex
	tasks  []namedTask
	closed bool
}

var q = &queue{tasks: make([]namedTask, 0, 8)}

// Add registers a task to be run on Shutdown, in LIFO order.
// Safe to call from any goroutine. If fn is nil or shutdown has already
// started, Add does nothing.
func Add(name string, fn Task) {
	if fn == nil {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.tasks = append(q.tasks, namedTask{name: name, fn: fn})
}

// Shutdown drains all registered tasks in LIFO order.
// It is safe to call multiple times; after the first run, subsequent calls
// are no-ops.
//
// If ctx is canceled or times out mid-drain, Shutdown stops early and
// returns an error joining the context error with any task errors so far.
func Shutdown(ctx context.Context) error {
	q.mu.Lock()

	if q.closed && len(q.tasks) == 0 {
		q.mu.Unlock()

		return nil
	}

	q.closed = true

	tasks := q.tasks

	q.tasks = nil

	q.mu.Unlock()

	var errs []error

	for i := len(tasks) - 1; i >= 0; i-- {
		select {
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("shutdown canceled: %w", ctx.Err()))

			return errors.Join(errs...)
		default:
		}

		runTask(ctx, tasks[i], &errs)
	}

	return errors.Join(errs...)
}

func runTask(ctx context.Context, t namedTask, errs *[]error) {
	defer func() {
		r := recover()
		if r != nil {
			*errs = append(*errs, fmt.Errorf("panic in shutdown task %q: %v", t.name, r))
		}
	}()

	slog.Debug("running shutdown task", "task", t.name)

	err := t.fn(ctx)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("shutdown task %q: %w", t.name, err))
	}
}
