// Package supervisor owns the lifecycle of every background task in the
// application. It hands each task a context derived from one shared
// cancellation signal and guarantees that after Shutdown returns, no task
// it ever spawned is still running.
//
// The supervisor deliberately does not restart failed tasks. A task that
// returns an error or panics simply terminates; its owner observes that
// through the returned Handle and decides whether to respawn (the provider
// maintenance loops do exactly that for their push-feed listeners).
package supervisor

import (
	"context"
	"fmt"
	"sync"

	"chainmon/pkg/logging"
)

// Task is a unit of background work. It must return promptly once ctx is
// cancelled; returning ctx.Err() is the normal way to exit on shutdown.
type Task func(ctx context.Context) error

// Handle observes a single spawned task.
type Handle struct {
	name string
	done chan struct{}

	mu  sync.Mutex
	err error
}

// Done returns a channel closed when the task has terminated.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Finished reports whether the task has terminated.
func (h *Handle) Finished() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Err returns the task's final error, or nil. Valid once Finished reports
// true; a cancelled task reports context.Canceled.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Name returns the name the task was spawned with.
func (h *Handle) Name() string {
	return h.name
}

// Supervisor registers and runs background tasks under one cancellation
// signal.
type Supervisor struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// New creates a supervisor whose tasks are cancelled when parent is
// cancelled or when Shutdown is called, whichever comes first.
func New(parent context.Context) *Supervisor {
	ctx, cancel := context.WithCancel(parent)
	return &Supervisor{ctx: ctx, cancel: cancel}
}

// Context returns the shared cancellation context. Code that only needs to
// observe shutdown (without spawning) selects on Context().Done().
func (s *Supervisor) Context() context.Context {
	return s.ctx
}

// Spawn registers fn and runs it on a new goroutine. It returns nil if the
// supervisor has already begun shutting down. A panic inside fn is
// recovered and surfaces as the handle's error; it never crashes the
// supervisor or the process.
func (s *Supervisor) Spawn(name string, fn Task) *Handle {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.wg.Add(1)
	s.mu.Unlock()

	h := &Handle{name: name, done: make(chan struct{})}
	go func() {
		defer s.wg.Done()
		defer close(h.done)
		defer func() {
			if r := recover(); r != nil {
				h.mu.Lock()
				h.err = fmt.Errorf("task %s panicked: %v", name, r)
				h.mu.Unlock()
				logging.Error("supervisor", h.err, "recovered panic in background task")
			}
		}()
		err := fn(s.ctx)
		h.mu.Lock()
		h.err = err
		h.mu.Unlock()
	}()
	return h
}

// Shutdown stops accepting new spawns, raises the cancellation signal, and
// blocks until every registered task has terminated. Safe to call more
// than once.
func (s *Supervisor) Shutdown() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}
