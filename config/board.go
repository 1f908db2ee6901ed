// Package config loads board and host settings.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"sesboard/core"
)

// PinConfig maps board functions to GPIO numbers
type PinConfig struct {
	JoystickButton uint8 `json:"joystick_button"`
	RotaryButton   uint8 `json:"rotary_button"`
	RotaryA        uint8 `json:"rotary_a"`
	RotaryB        uint8 `json:"rotary_b"`
	LEDRed         uint8 `json:"led_red"`
	LEDYellow      uint8 `json:"led_yellow"`
	LEDGreen       uint8 `json:"led_green"`
	Motor          uint8 `json:"motor"`
	Tach           uint8 `json:"tach"`
	TachSim        uint8 `json:"tach_sim"` // PIO self-test output, 0 disables
}

// TimerConfig holds the hardware timer periods in microseconds
type TimerConfig struct {
	PWMUs       int64 `json:"pwm_us"`
	DebounceUs  int64 `json:"debounce_us"`
	SchedulerUs int64 `json:"scheduler_us"`
	CaptureUs   int64 `json:"capture_us"`
}

// Board is the firmware configuration
type Board struct {
	Pins   PinConfig   `json:"pins"`
	Timers TimerConfig `json:"timers"`

	TelemetryMs    uint32  `json:"telemetry_ms"`
	SensorMs       uint32  `json:"sensor_ms"`
	RotaryPollMs   uint32  `json:"rotary_poll_ms"`
	OverheatDeciC  int32   `json:"overheat_deci_c"`
	DutyStep       int     `json:"duty_step"`
	DutyPresets    []uint8 `json:"duty_presets"`
	DirectButtons  bool    `json:"direct_buttons"`  // skip debouncing
	QuadratureKnob bool    `json:"quadrature_knob"` // hardware decoder where the target has one
	Debug          bool    `json:"debug"`
}

// LoadBoard parses a JSON board configuration and fills in defaults.
// Unknown keys are rejected.
func LoadBoard(data []byte) (*Board, error) {
	var b Board
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("board config: %w", err)
	}
	applyBoardDefaults(&b)
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// LoadBoardFile reads and parses a JSON board configuration file
func LoadBoardFile(path string) (*Board, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadBoard(data)
}

// DefaultBoard returns the stock board wiring
func DefaultBoard() *Board {
	b := &Board{
		Pins: PinConfig{
			JoystickButton: 2,
			RotaryButton:   3,
			RotaryA:        4,
			RotaryB:        5,
			LEDRed:         6,
			LEDYellow:      7,
			LEDGreen:       8,
			Motor:          9,
			Tach:           10,
		},
	}
	applyBoardDefaults(b)
	return b
}

func applyBoardDefaults(b *Board) {
	def := core.DefaultTimerPeriods()
	if b.Timers.PWMUs == 0 {
		b.Timers.PWMUs = def.PWM.Microseconds()
	}
	if b.Timers.DebounceUs == 0 {
		b.Timers.DebounceUs = def.Debounce.Microseconds()
	}
	if b.Timers.SchedulerUs == 0 {
		b.Timers.SchedulerUs = def.Scheduler.Microseconds()
	}
	if b.Timers.CaptureUs == 0 {
		b.Timers.CaptureUs = def.Capture.Microseconds()
	}

	if b.TelemetryMs == 0 {
		b.TelemetryMs = 500
	}
	if b.SensorMs == 0 {
		b.SensorMs = 250
	}
	if b.RotaryPollMs == 0 {
		b.RotaryPollMs = 1
	}
	if b.OverheatDeciC == 0 {
		b.OverheatDeciC = 350 // 35.0 C
	}
	if b.DutyStep == 0 {
		b.DutyStep = 8
	}
	if len(b.DutyPresets) == 0 {
		b.DutyPresets = []uint8{64, 128, 192, 255}
	}
}

// Validate checks the values defaults cannot repair
func (b *Board) Validate() error {
	if b.DutyStep < 0 || b.DutyStep > 255 {
		return fmt.Errorf("board config: duty_step %d out of range", b.DutyStep)
	}
	if b.Timers.PWMUs < 0 || b.Timers.DebounceUs < 0 || b.Timers.SchedulerUs < 0 || b.Timers.CaptureUs < 0 {
		return fmt.Errorf("board config: negative timer period")
	}
	if b.SensorMs < uint32(b.Timers.SchedulerUs/1000) {
		return fmt.Errorf("board config: sensor_ms %d shorter than the scheduler tick", b.SensorMs)
	}
	return nil
}

// TimerPeriods converts the configured periods for core.NewTimeBase
func (b *Board) TimerPeriods() core.TimerPeriods {
	return core.TimerPeriods{
		PWM:       time.Duration(b.Timers.PWMUs) * time.Microsecond,
		Debounce:  time.Duration(b.Timers.DebounceUs) * time.Microsecond,
		Scheduler: time.Duration(b.Timers.SchedulerUs) * time.Microsecond,
		Capture:   time.Duration(b.Timers.CaptureUs) * time.Microsecond,
	}
}

// Ticks converts ms to scheduler ticks, at least one
func (b *Board) Ticks(ms uint32) uint32 {
	tick := time.Duration(b.Timers.SchedulerUs) * time.Microsecond
	n := core.TicksFor(time.Duration(ms)*time.Millisecond, tick)
	if n == 0 {
		n = 1
	}
	return n
}
