//go:build rp2040

package main

import (
	"machine"

	"sesboard/core"
)

// gpioPins implements core.GPIODriver and core.EdgeDriver on machine.Pin
type gpioPins struct{}

func (gpioPins) SetDirection(pin core.GPIOPin, mode core.PinMode) {
	m := machine.PinInput
	switch mode {
	case core.PinInputPullUp:
		m = machine.PinInputPullup
	case core.PinOutput:
		m = machine.PinOutput
	}
	machine.Pin(pin).Configure(machine.PinConfig{Mode: m})
}

func (gpioPins) Read(pin core.GPIOPin) bool {
	return machine.Pin(pin).Get()
}

func (gpioPins) Write(pin core.GPIOPin, level bool) {
	machine.Pin(pin).Set(level)
}

// SetEdgeHandler replaces the pin's interrupt. The machine package refuses
// a second callback, so the old one is always cleared first.
func (gpioPins) SetEdgeHandler(pin core.GPIOPin, edge core.Edge, fn func(core.GPIOPin)) {
	p := machine.Pin(pin)
	_ = p.SetInterrupt(machine.PinToggle, nil)
	if fn == nil {
		return
	}

	change := machine.PinToggle
	switch edge {
	case core.EdgeRising:
		change = machine.PinRising
	case core.EdgeFalling:
		change = machine.PinFalling
	}
	if err := p.SetInterrupt(change, func(machine.Pin) { fn(pin) }); err != nil {
		core.DebugPrintln("[GPIO] interrupt: " + err.Error())
	}
}
