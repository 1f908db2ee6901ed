//go:build rp2040

package main

import (
	"device/rp"
	"runtime/interrupt"
	"runtime/volatile"
	"time"

	"sesboard/core"
)

// alarmTimers runs the callback timers on TIMER alarms 1 to 3. Alarm 0 is
// used by the runtime for sleeping. The PWM timer needs no alarm, its
// carrier is generated by the PWM slice.
type alarmTimers struct {
	period [core.NumTimers]uint32 // microseconds, 0 while disarmed
	fire   [core.NumTimers]func()
}

var timers alarmTimers

// enable installs the alarm interrupt handlers
func (t *alarmTimers) enable() {
	interrupt.New(rp.IRQ_TIMER_IRQ_1, func(interrupt.Interrupt) { timers.handle(core.TimerDebounce) }).Enable()
	interrupt.New(rp.IRQ_TIMER_IRQ_2, func(interrupt.Interrupt) { timers.handle(core.TimerScheduler) }).Enable()
	interrupt.New(rp.IRQ_TIMER_IRQ_3, func(interrupt.Interrupt) { timers.handle(core.TimerCapture) }).Enable()
}

func (t *alarmTimers) Arm(id core.TimerID, period time.Duration, fire func()) {
	n, ok := alarmFor(id)
	if !ok {
		return
	}
	us := uint32(period / time.Microsecond)
	if us == 0 {
		us = 1
	}

	state := interrupt.Disable()
	t.period[id] = us
	t.fire[id] = fire
	rp.TIMER.INTR.Set(1 << n)
	alarmRegister(n).Set(rp.TIMER.TIMERAWL.Get() + us)
	rp.TIMER.INTE.SetBits(1 << n)
	interrupt.Restore(state)
}

func (t *alarmTimers) Disarm(id core.TimerID) {
	n, ok := alarmFor(id)
	if !ok {
		return
	}
	state := interrupt.Disable()
	rp.TIMER.INTE.ClearBits(1 << n)
	rp.TIMER.ARMED.Set(1 << n)
	rp.TIMER.INTR.Set(1 << n)
	t.period[id] = 0
	t.fire[id] = nil
	interrupt.Restore(state)
}

// handle acknowledges the alarm, rearms it one period after its last
// deadline and runs the callback
func (t *alarmTimers) handle(id core.TimerID) {
	n, _ := alarmFor(id)
	rp.TIMER.INTR.Set(1 << n)

	us := t.period[id]
	if us == 0 {
		return
	}
	alarm := alarmRegister(n)
	alarm.Set(alarm.Get() + us)
	if fn := t.fire[id]; fn != nil {
		fn()
	}
}

func alarmFor(id core.TimerID) (uint32, bool) {
	switch id {
	case core.TimerDebounce:
		return 1, true
	case core.TimerScheduler:
		return 2, true
	case core.TimerCapture:
		return 3, true
	}
	return 0, false
}

func alarmRegister(n uint32) *volatile.Register32 {
	switch n {
	case 1:
		return &rp.TIMER.ALARM1
	case 2:
		return &rp.TIMER.ALARM2
	default:
		return &rp.TIMER.ALARM3
	}
}
