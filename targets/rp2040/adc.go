//go:build rp2040

package main

import (
	"machine"

	"sesboard/core"
)

// adcInputs implements core.ADCDriver. The RP2040 has four external inputs,
// so the light sensor channel is not wired on this board.
type adcInputs struct {
	inputs [core.ADCNumChannels]*machine.ADC
}

func newADCInputs() *adcInputs {
	machine.InitADC()
	d := &adcInputs{}
	wiring := map[core.ADCChannel]machine.Pin{
		core.ADCMicrophone0: machine.ADC0,
		core.ADCMicrophone1: machine.ADC1,
		core.ADCTemperature: machine.ADC2,
		core.ADCJoystick:    machine.ADC3,
	}
	for ch, pin := range wiring {
		a := &machine.ADC{Pin: pin}
		a.Configure(machine.ADCConfig{})
		d.inputs[ch] = a
	}
	return d
}

// Read returns a 10-bit sample. machine.ADC scales readings to 16 bits.
func (d *adcInputs) Read(ch core.ADCChannel) uint16 {
	if ch >= core.ADCNumChannels {
		return core.ADCInvalidChannel
	}
	a := d.inputs[ch]
	if a == nil {
		return 0
	}
	return a.Get() >> 6
}
