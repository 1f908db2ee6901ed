package core

import "sync/atomic"

// Rotary decodes the rotary encoder's two quadrature pins. Pin A is
// debounced; its direction is taken from pin B at the moment A settles.
type Rotary struct {
	gpio GPIODriver
	pinA GPIOPin
	pinB GPIOPin

	deb   *Debouncer
	group *Group
	level uint8 // last non-zero debounced mask

	cw       func()
	ccw      func()
	position atomic.Int32
}

// Rotary sample bits
const (
	rotaryAAsserted uint8 = 1 << 0
	rotaryAReleased uint8 = 1 << 1
)

// NewRotary configures the encoder pins as pulled-up inputs
func NewRotary(gpio GPIODriver, pinA, pinB GPIOPin) *Rotary {
	gpio.SetDirection(pinA, PinInputPullUp)
	gpio.SetDirection(pinB, PinInputPullUp)

	r := &Rotary{gpio: gpio, pinA: pinA, pinB: pinB}
	r.deb = NewDebouncer(r.sample)
	r.deb.OnChange(r.onChange)
	return r
}

// SetClockwiseCallback installs the clockwise step callback
func (r *Rotary) SetClockwiseCallback(fn func()) {
	r.cw = fn
}

// SetCounterClockwiseCallback installs the counter-clockwise step callback
func (r *Rotary) SetCounterClockwiseCallback(fn func()) {
	r.ccw = fn
}

// Position returns the net step count, clockwise positive
func (r *Rotary) Position() int32 {
	return r.position.Load()
}

// Start polls the encoder every period scheduler ticks
func (r *Rotary) Start(sched *Scheduler, period uint32) bool {
	if r.group == nil {
		r.group = NewGroup(r.deb, sched)
	}
	return r.group.StartPeriodic(period)
}

// Stop halts polling
func (r *Rotary) Stop() {
	if r.group != nil {
		r.group.Stop()
	}
}

// Poll runs one filter step; Start does this from the scheduler
func (r *Rotary) Poll() {
	r.deb.Poll()
}

func (r *Rotary) pinAsserted(pin GPIOPin) bool {
	return !r.gpio.Read(pin)
}

func (r *Rotary) sample() uint8 {
	if r.pinAsserted(r.pinA) {
		return rotaryAAsserted
	}
	return rotaryAReleased
}

// onChange reports a step each time pin A settles at a new level. The
// mixed-history mask 0 is not a level, and the first level only seeds r.level.
func (r *Rotary) onChange(prev, next uint8) {
	if next == 0 {
		return
	}
	if r.level == 0 || r.level == next {
		r.level = next
		return
	}
	r.level = next

	if r.pinAsserted(r.pinA) != r.pinAsserted(r.pinB) {
		r.position.Add(1)
		if r.cw != nil {
			r.cw()
		}
		return
	}
	r.position.Add(-1)
	if r.ccw != nil {
		r.ccw()
	}
}
