// Package app is the fan controller that runs on the board. It wires the
// core drivers to a three-state machine and reports over the telemetry link.
package app

import (
	"sesboard/core"
	"sesboard/protocol"
)

// Controller states
const (
	StateIdle core.StateID = iota
	StateRunning
	StateOverheat
)

// Controller signals
const (
	SigJoystick    = core.SignalUser + iota // joystick push
	SigRotaryPress                          // rotary push, next duty preset
	SigRotaryCW                             // one clockwise detent
	SigRotaryCCW                            // one counter-clockwise detent
	SigTemperature                          // Value is deci-degrees C
	SigSetDuty                              // Value is the duty, host command
	SigMotor                                // Value 1 runs, 0 stops, host command
)

// Fan is the controller's data, carried by the machine
type Fan struct {
	motor *core.MotorPWM
	leds  *core.LEDs

	presets []uint8
	preset  int
	step    int
	limit   int32

	duty uint8 // applied whenever Running is entered
	temp int32

	report func(kind protocol.EventKind, value int32)
}

// Controller is the fan state machine
type Controller = core.Machine[Fan]

// NewController registers the three states. Call Init(StateIdle) to start it.
func NewController(motor *core.MotorPWM, leds *core.LEDs, presets []uint8, step int, limit int32) (*Controller, error) {
	m := &Controller{}
	m.Data = Fan{
		motor:   motor,
		leds:    leds,
		presets: presets,
		step:    step,
		limit:   limit,
	}
	if len(presets) > 0 {
		m.Data.duty = presets[0]
	} else {
		m.Data.duty = 255
	}

	if err := m.Register(StateIdle, "idle", idleState); err != nil {
		return nil, err
	}
	if err := m.Register(StateRunning, "running", runningState); err != nil {
		return nil, err
	}
	if err := m.Register(StateOverheat, "overheat", overheatState); err != nil {
		return nil, err
	}
	return m, nil
}

// Duty returns the duty Running uses
func (f *Fan) Duty() uint8 {
	return f.duty
}

// Temperature returns the last reported temperature in deci-degrees
func (f *Fan) Temperature() int32 {
	return f.temp
}

func (f *Fan) emit(kind protocol.EventKind, value int32) {
	if f.report != nil {
		f.report(kind, value)
	}
}

func (f *Fan) overheated(e core.Event) bool {
	f.temp = e.Value
	return e.Value > f.limit
}

func (f *Fan) setDuty(v int32) {
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	f.duty = uint8(v)
}

func idleState(m *Controller, e core.Event) core.Outcome {
	f := &m.Data
	switch e.Signal {
	case core.SignalEntry:
		f.motor.SetDutyCycle(0)
		f.leds.On(core.LEDGreen)
		return core.Handled()
	case SigJoystick:
		return core.TransitionTo(StateRunning)
	case SigMotor:
		if e.Value != 0 {
			return core.TransitionTo(StateRunning)
		}
		return core.Handled()
	case SigSetDuty:
		f.setDuty(e.Value)
		return core.Handled()
	case SigTemperature:
		if f.overheated(e) {
			return core.TransitionTo(StateOverheat)
		}
		return core.Handled()
	}
	return core.Ignored()
}

func runningState(m *Controller, e core.Event) core.Outcome {
	f := &m.Data
	switch e.Signal {
	case core.SignalEntry:
		f.leds.Off(core.LEDGreen)
		f.motor.SetDutyCycle(f.duty)
		return core.Handled()
	case core.SignalExit:
		f.motor.SetDutyCycle(0)
		return core.Handled()
	case SigJoystick:
		return core.TransitionTo(StateIdle)
	case SigMotor:
		if e.Value == 0 {
			return core.TransitionTo(StateIdle)
		}
		return core.Handled()
	case SigRotaryPress:
		if len(f.presets) == 0 {
			return core.Ignored()
		}
		f.preset = (f.preset + 1) % len(f.presets)
		f.duty = f.presets[f.preset]
		f.motor.SetDutyCycle(f.duty)
		return core.Handled()
	case SigRotaryCW:
		f.duty = f.motor.Step(f.step)
		return core.Handled()
	case SigRotaryCCW:
		f.duty = f.motor.Step(-f.step)
		return core.Handled()
	case SigSetDuty:
		f.setDuty(e.Value)
		f.motor.SetDutyCycle(f.duty)
		return core.Handled()
	case SigTemperature:
		if f.overheated(e) {
			return core.TransitionTo(StateOverheat)
		}
		return core.Handled()
	}
	return core.Ignored()
}

// Overheat holds the motor off until the joystick is pressed with the
// temperature back under the limit
func overheatState(m *Controller, e core.Event) core.Outcome {
	f := &m.Data
	switch e.Signal {
	case core.SignalEntry:
		f.motor.SetDutyCycle(0)
		f.leds.Off(core.LEDGreen)
		f.leds.On(core.LEDRed)
		f.emit(protocol.EventOverheat, f.temp)
		return core.Handled()
	case core.SignalExit:
		f.leds.Off(core.LEDRed)
		return core.Handled()
	case SigTemperature:
		f.overheated(e)
		return core.Handled()
	case SigJoystick:
		if f.temp > f.limit {
			return core.Handled()
		}
		return core.TransitionTo(StateIdle)
	}
	return core.Ignored()
}
