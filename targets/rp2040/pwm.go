//go:build rp2040

package main

import (
	"machine"
	"time"

	"sesboard/core"
)

// pwmPeripheral is the part of TinyGo's unexported *pwmGroup that we use
type pwmPeripheral interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

type pwmChannel struct {
	slice pwmPeripheral
	ch    uint8
}

// pwmOutputs implements core.PWMDriver on the RP2040's eight PWM slices.
// GPIO n belongs to slice (n>>1)&7, channel A when even.
type pwmOutputs struct {
	channels map[core.GPIOPin]pwmChannel
}

func newPWMOutputs() *pwmOutputs {
	return &pwmOutputs{channels: make(map[core.GPIOPin]pwmChannel)}
}

func (d *pwmOutputs) Configure(pin core.GPIOPin, period time.Duration) {
	slice := slicePeripheral(uint8(pin>>1) & 0x7)
	if err := slice.Configure(machine.PWMConfig{Period: uint64(period.Nanoseconds())}); err != nil {
		core.DebugPrintln("[PWM] configure: " + err.Error())
		return
	}
	ch, err := slice.Channel(machine.Pin(pin))
	if err != nil {
		core.DebugPrintln("[PWM] channel: " + err.Error())
		return
	}
	d.channels[pin] = pwmChannel{slice: slice, ch: ch}
}

// SetDuty scales duty 0-255 onto the slice's counter range
func (d *pwmOutputs) SetDuty(pin core.GPIOPin, duty uint8) {
	c, ok := d.channels[pin]
	if !ok {
		return
	}
	c.slice.Set(c.ch, uint32(duty)*c.slice.Top()/255)
}

func slicePeripheral(n uint8) pwmPeripheral {
	switch n {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	default:
		return machine.PWM7
	}
}
