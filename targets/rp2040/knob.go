//go:build rp2040

package main

import (
	"machine"

	"tinygo.org/x/drivers/encoders"

	"sesboard/core"
)

// encoderKnob reads the rotary knob through the quadrature interrupt
// decoder and reports whole detents from a scheduler task
type encoderKnob struct {
	dev   *encoders.QuadratureDevice
	sched *core.Scheduler
	task  core.Task
	last  int

	cw, ccw func()
}

func newEncoderKnob(a, b machine.Pin) *encoderKnob {
	return &encoderKnob{dev: encoders.NewQuadratureViaInterrupt(a, b)}
}

func (k *encoderKnob) SetClockwiseCallback(fn func())        { k.cw = fn }
func (k *encoderKnob) SetCounterClockwiseCallback(fn func()) { k.ccw = fn }

func (k *encoderKnob) Start(sched *core.Scheduler, period uint32) bool {
	// four transitions per detent
	if err := k.dev.Configure(encoders.QuadratureConfig{Precision: 4}); err != nil {
		core.DebugPrintln("[KNOB] configure: " + err.Error())
		return false
	}
	k.sched = sched
	k.last = k.dev.Position()
	k.task = core.Task{Fn: k.poll, Period: period}
	return sched.Add(&k.task)
}

func (k *encoderKnob) Stop() {
	if k.sched != nil {
		k.sched.Remove(&k.task)
	}
}

func (k *encoderKnob) poll(any) {
	pos := k.dev.Position()
	for ; k.last < pos; k.last++ {
		if k.cw != nil {
			k.cw()
		}
	}
	for ; k.last > pos; k.last-- {
		if k.ccw != nil {
			k.ccw()
		}
	}
}
