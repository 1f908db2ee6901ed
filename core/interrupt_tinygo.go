//go:build tinygo

package core

import (
	"context"
	"runtime"
	"runtime/interrupt"
	"sync/atomic"
)

// State is the saved interrupt mask
type State = interrupt.State

// critical masks interrupts for the duration of a table or ring mutation.
// Nested use from inside an interrupt handler is allowed.
type critical struct{}

func (c *critical) enter() State {
	return interrupt.Disable()
}

func (c *critical) exit(state State) {
	interrupt.Restore(state)
}

// readySignal is set from the tick interrupt; channels are not usable there
type readySignal struct {
	pending atomic.Bool
}

func (r *readySignal) init() {}

func (r *readySignal) notify() {
	r.pending.Store(true)
}

func (r *readySignal) wait(ctx context.Context) error {
	for !r.pending.CompareAndSwap(true, false) {
		if err := ctx.Err(); err != nil {
			return err
		}
		runtime.Gosched()
	}
	return nil
}
