//go:build !tinygo

package core

import (
	"sync"
	"time"
)

// TickerDriver is a TimerDriver for regular Go. Each armed timer is a
// goroutine around a time.Ticker; fire runs on that goroutine.
type TickerDriver struct {
	mu      sync.Mutex
	running [NumTimers]*tickerRun
}

type tickerRun struct {
	stop chan struct{}
	done chan struct{}
}

// NewTickerDriver creates a TickerDriver with no timers armed
func NewTickerDriver() *TickerDriver {
	return &TickerDriver{}
}

// Arm starts (or restarts) the ticker for id
func (d *TickerDriver) Arm(id TimerID, period time.Duration, fire func()) {
	if id >= NumTimers || period <= 0 {
		return
	}
	d.Disarm(id)

	run := &tickerRun{stop: make(chan struct{}), done: make(chan struct{})}
	d.mu.Lock()
	d.running[id] = run
	d.mu.Unlock()

	go func() {
		defer close(run.done)
		tk := time.NewTicker(period)
		defer tk.Stop()
		for {
			select {
			case <-run.stop:
				return
			case <-tk.C:
				select {
				case <-run.stop:
					return
				default:
				}
				fire()
			}
		}
	}()
}

// Disarm stops the ticker for id and waits for its goroutine to exit.
// It must not be called from that timer's own callback.
func (d *TickerDriver) Disarm(id TimerID) {
	if id >= NumTimers {
		return
	}
	d.mu.Lock()
	run := d.running[id]
	d.running[id] = nil
	d.mu.Unlock()

	if run != nil {
		close(run.stop)
		<-run.done
	}
}

// Close disarms every timer
func (d *TickerDriver) Close() {
	for id := TimerID(0); id < NumTimers; id++ {
		d.Disarm(id)
	}
}
