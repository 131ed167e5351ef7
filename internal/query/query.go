// Package query dispatches knowledge queries to an external service as
// cancellable tasks. The interaction controller only ever starts a task and
// clears its busy state from the task's completion hook; result handling
// belongs to the host application.
package query

import (
	"context"
	"sync"
	"time"
)

// Kind selects the query operation.
type Kind int

// Query kinds the context menu can dispatch.
const (
	KindData Kind = iota
	KindEdges
	KindNodesEdges
)

// Request carries everything the external service needs.
type Request struct {
	Kind   Kind
	URL    string
	Models []string
}

// Runner performs the actual external call. It must honor ctx cancellation.
type Runner func(ctx context.Context, req Request) error

// Service dispatches requests through a runner on their own goroutines.
type Service struct {
	runner Runner

	// Timeout bounds each dispatched task. Zero means no timeout; the
	// completion hook still fires on every outcome.
	Timeout time.Duration

	// Defer, when set, marshals completion callbacks onto the caller's
	// event loop (e.g. fyne.Do). Nil runs them on the task goroutine.
	Defer func(fn func())
}

// NewService creates a service around a runner.
func NewService(runner Runner) *Service {
	return &Service{runner: runner}
}

// Dispatch starts the request and returns immediately.
func (s *Service) Dispatch(req Request) *Task {
	ctx := context.Background()
	var cancel context.CancelFunc
	if s.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}

	t := &Task{
		done:    make(chan struct{}),
		cancel:  cancel,
		deliver: s.Defer,
	}

	go func() {
		defer cancel()
		err := ctx.Err()
		if err == nil {
			err = s.runner(ctx, req)
		}
		t.finish(err)
	}()

	return t
}

// Task is an outstanding query. Completion is observed through OnDone,
// which fires exactly once per task, on success, error, cancel, or timeout.
type Task struct {
	mu        sync.Mutex
	finished  bool
	err       error
	callbacks []func(error)

	done    chan struct{}
	cancel  context.CancelFunc
	deliver func(fn func())
}

// OnDone registers a completion hook. If the task already finished, the
// hook fires immediately.
func (t *Task) OnDone(fn func(err error)) {
	t.mu.Lock()
	if t.finished {
		err := t.err
		t.mu.Unlock()
		t.run(fn, err)
		return
	}
	t.callbacks = append(t.callbacks, fn)
	t.mu.Unlock()
}

// Cancel aborts the task. The completion hook still fires.
func (t *Task) Cancel() {
	t.cancel()
}

// Done is closed when the task finishes.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err returns the task's outcome once Done is closed.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *Task) finish(err error) {
	t.mu.Lock()
	if t.finished {
		t.mu.Unlock()
		return
	}
	t.finished = true
	t.err = err
	callbacks := t.callbacks
	t.callbacks = nil
	t.mu.Unlock()

	close(t.done)
	for _, fn := range callbacks {
		t.run(fn, err)
	}
}

func (t *Task) run(fn func(error), err error) {
	if t.deliver != nil {
		t.deliver(func() { fn(err) })
		return
	}
	fn(err)
}
