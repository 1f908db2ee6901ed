//go:build !tinygo

package core

import (
	"context"
	"sync"
)

// State is a placeholder for interrupt state on regular Go
type State uintptr

// critical guards data shared with a tick or edge source. On regular Go those
// sources are goroutines, so a mutex stands in for masking interrupts.
type critical struct {
	mu sync.Mutex
}

func (c *critical) enter() State {
	c.mu.Lock()
	return 0
}

func (c *critical) exit(state State) {
	c.mu.Unlock()
}

// readySignal wakes an idle Run loop when Update marks a task ready
type readySignal struct {
	ch chan struct{}
}

func (r *readySignal) init() {
	r.ch = make(chan struct{}, 1)
}

func (r *readySignal) notify() {
	select {
	case r.ch <- struct{}{}:
	default:
	}
}

func (r *readySignal) wait(ctx context.Context) error {
	select {
	case <-r.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
