package core

import (
	"sync/atomic"
	"time"
)

// TimerID names one of the board's hardware timers
type TimerID uint8

const (
	TimerPWM       TimerID = iota // PWM carrier, runs without a callback
	TimerDebounce                 // button debounce polling
	TimerScheduler                // scheduler tick
	TimerCapture                  // motor frequency watchdog
	NumTimers
)

func (id TimerID) String() string {
	switch id {
	case TimerPWM:
		return "pwm"
	case TimerDebounce:
		return "debounce"
	case TimerScheduler:
		return "scheduler"
	case TimerCapture:
		return "capture"
	default:
		return "unknown"
	}
}

// TimerCallback runs in interrupt context each time a timer fires.
// The argument is always nil on this board.
type TimerCallback func(arg any)

// Callback is an optional TimerCallback. The zero value is NoCallback.
type Callback struct {
	fn TimerCallback
}

// NoCallback leaves a timer firing without side effects
var NoCallback = Callback{}

// CallbackFunc wraps fn as an installed callback; a nil fn yields NoCallback
func CallbackFunc(fn TimerCallback) Callback {
	return Callback{fn: fn}
}

// Installed reports whether the callback does anything when fired
func (c Callback) Installed() bool {
	return c.fn != nil
}

func (c Callback) invoke(arg any) {
	if c.fn != nil {
		c.fn(arg)
	}
}

// TimerDriver programs the hardware behind a Timer. Arm starts the timer
// with the given period and calls fire from its interrupt; Disarm stops it
// and clears its counter. Neither reports failure.
type TimerDriver interface {
	Arm(id TimerID, period time.Duration, fire func())
	Disarm(id TimerID)
}

// Timer is one periodic hardware timer with a single callback slot
type Timer struct {
	id     TimerID
	period time.Duration
	driver TimerDriver

	cb    atomic.Pointer[Callback]
	armed atomic.Bool
	fires atomic.Uint32
}

// ID returns the timer's name
func (t *Timer) ID() TimerID {
	return t.id
}

// Period returns the fixed firing period
func (t *Timer) Period() time.Duration {
	return t.period
}

// Start arms the timer and enables its interrupt
func (t *Timer) Start() {
	t.armed.Store(true)
	t.driver.Arm(t.id, t.period, t.Fire)
}

// Stop disarms the timer and resets its counter
func (t *Timer) Stop() {
	t.driver.Disarm(t.id)
	t.armed.Store(false)
}

// Running reports whether the timer is armed
func (t *Timer) Running() bool {
	return t.armed.Load()
}

// SetCallback replaces the callback run on each fire
func (t *Timer) SetCallback(cb Callback) {
	t.cb.Store(&cb)
}

// Fire is the timer's interrupt body. Drivers call it once per period.
func (t *Timer) Fire() {
	t.fires.Add(1)
	if cb := t.cb.Load(); cb != nil {
		cb.invoke(nil)
	}
}

// Fires returns how many times the timer has fired since boot
func (t *Timer) Fires() uint32 {
	return t.fires.Load()
}

// TimerPeriods holds the fixed period of every named timer
type TimerPeriods struct {
	PWM       time.Duration
	Debounce  time.Duration
	Scheduler time.Duration
	Capture   time.Duration
}

// DefaultTimerPeriods returns the board's stock timer periods
func DefaultTimerPeriods() TimerPeriods {
	return TimerPeriods{
		PWM:       1024 * time.Microsecond,
		Debounce:  5 * time.Millisecond,
		Scheduler: time.Millisecond,
		Capture:   500 * time.Millisecond,
	}
}

// TimeBase owns the board's independent timers
type TimeBase struct {
	timers [NumTimers]Timer
}

// NewTimeBase creates the named timers on top of driver. Zero periods fall
// back to DefaultTimerPeriods.
func NewTimeBase(driver TimerDriver, periods TimerPeriods) *TimeBase {
	def := DefaultTimerPeriods()
	if periods.PWM <= 0 {
		periods.PWM = def.PWM
	}
	if periods.Debounce <= 0 {
		periods.Debounce = def.Debounce
	}
	if periods.Scheduler <= 0 {
		periods.Scheduler = def.Scheduler
	}
	if periods.Capture <= 0 {
		periods.Capture = def.Capture
	}

	tb := &TimeBase{}
	for id, p := range [NumTimers]time.Duration{periods.PWM, periods.Debounce, periods.Scheduler, periods.Capture} {
		t := &tb.timers[id]
		t.id = TimerID(id)
		t.period = p
		t.driver = driver
		t.SetCallback(NoCallback)
	}
	return tb
}

// Timer returns the timer with the given name, or nil for an unknown id
func (tb *TimeBase) Timer(id TimerID) *Timer {
	if id >= NumTimers {
		return nil
	}
	return &tb.timers[id]
}

// StopAll disarms every timer
func (tb *TimeBase) StopAll() {
	for i := range tb.timers {
		if tb.timers[i].Running() {
			tb.timers[i].Stop()
		}
	}
}

// TicksFor converts a duration to a whole number of ticks of length tick,
// rounding up so that a non-zero duration is never zero ticks.
func TicksFor(d, tick time.Duration) uint32 {
	if d <= 0 || tick <= 0 {
		return 0
	}
	return uint32((d + tick - 1) / tick)
}
