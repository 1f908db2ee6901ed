//go:build rp2040

// Package pio holds the board's PIO programs
package pio

import (
	"errors"
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// Each half of the square wave is one SET with the maximum delay, so a
// full tach period is 64 state machine cycles.
const (
	tachHalfCycles   = 32
	tachPeriodCycles = 2 * tachHalfCycles
	tachOrigin       = -1 // load anywhere, the program only jumps by wrap
)

var errTachRate = errors.New("tach simulator: rate out of range")

func buildTachProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Set(rp2pio.SetDestPins, 1).Delay(tachHalfCycles - 1).Encode(), // 0: set pins, 1 [31]
		asm.Set(rp2pio.SetDestPins, 0).Delay(tachHalfCycles - 1).Encode(), // 1: set pins, 0 [31]
		// .wrap
	}
}

// TachSimulator generates a free-running tach pulse train on a spare pin.
// Looping it back to the tach input exercises the frequency capture
// without a motor.
type TachSimulator struct {
	pio    *rp2pio.PIO
	sm     rp2pio.StateMachine
	pin    machine.Pin
	offset uint8
	loaded bool
}

// NewTachSimulator uses state machine smNum of PIO block pioNum
func NewTachSimulator(pioNum, smNum uint8) *TachSimulator {
	hw := rp2pio.PIO0
	if pioNum != 0 {
		hw = rp2pio.PIO1
	}
	return &TachSimulator{pio: hw, sm: hw.StateMachine(smNum)}
}

// Start drives pin with edgesPerSecond rising edges per second. The rate
// is rounded to a whole clock divider.
func (t *TachSimulator) Start(pin machine.Pin, edgesPerSecond uint32) error {
	div, err := clockDivider(machine.CPUFrequency(), edgesPerSecond)
	if err != nil {
		return err
	}
	t.sm.TryClaim()

	program := buildTachProgram()
	if !t.loaded {
		offset, err := t.pio.AddProgram(program, tachOrigin)
		if err != nil {
			return err
		}
		t.offset = offset
		t.loaded = true
	}

	t.pin = pin
	pin.Configure(machine.PinConfig{Mode: t.pio.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSetPins(pin, 1)
	cfg.SetWrap(t.offset+uint8(len(program))-1, t.offset)
	cfg.SetClkDivIntFrac(div, 0)

	t.sm.Init(t.offset, cfg)
	t.sm.SetPindirsConsecutive(pin, 1, true)
	t.sm.SetPinsConsecutive(pin, 1, false)
	t.sm.SetEnabled(true)
	return nil
}

// Stop halts the pulse train with the pin low
func (t *TachSimulator) Stop() {
	t.sm.SetEnabled(false)
	t.sm.SetPinsConsecutive(t.pin, 1, false)
}

func clockDivider(cpuHz, edgesPerSecond uint32) (uint16, error) {
	if edgesPerSecond == 0 {
		return 0, errTachRate
	}
	div := cpuHz / (edgesPerSecond * tachPeriodCycles)
	if div < 1 || div > 0xFFFF {
		return 0, errTachRate
	}
	return uint16(div), nil
}
