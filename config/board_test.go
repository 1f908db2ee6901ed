package config

import (
	"testing"
	"time"
)

func TestLoadBoardDefaults(t *testing.T) {
	b, err := LoadBoard([]byte(`{"pins": {"motor": 12}}`))
	if err != nil {
		t.Fatalf("LoadBoard failed: %v", err)
	}

	if b.Pins.Motor != 12 {
		t.Errorf("Expected motor pin 12, got %d", b.Pins.Motor)
	}
	if b.TelemetryMs != 500 {
		t.Errorf("Expected telemetry 500ms, got %d", b.TelemetryMs)
	}
	if b.OverheatDeciC != 350 {
		t.Errorf("Expected overheat 350, got %d", b.OverheatDeciC)
	}
	if len(b.DutyPresets) != 4 {
		t.Errorf("Expected 4 duty presets, got %v", b.DutyPresets)
	}

	p := b.TimerPeriods()
	if p.Debounce != 5*time.Millisecond || p.Scheduler != time.Millisecond || p.Capture != 500*time.Millisecond {
		t.Errorf("Unexpected timer periods %+v", p)
	}
}

func TestLoadBoardOverrides(t *testing.T) {
	b, err := LoadBoard([]byte(`{
		"timers": {"scheduler_us": 2000},
		"telemetry_ms": 100,
		"duty_step": 16,
		"duty_presets": [10, 20],
		"quadrature_knob": true
	}`))
	if err != nil {
		t.Fatalf("LoadBoard failed: %v", err)
	}
	if b.DutyStep != 16 || len(b.DutyPresets) != 2 {
		t.Errorf("Overrides not applied: step=%d presets=%v", b.DutyStep, b.DutyPresets)
	}
	if !b.QuadratureKnob {
		t.Error("Expected quadrature_knob to be set")
	}
	if got := b.Ticks(100); got != 50 {
		t.Errorf("Expected 100ms to be 50 ticks of 2ms, got %d", got)
	}
	if got := b.Ticks(1); got != 1 {
		t.Errorf("Expected sub-tick duration to round up to 1, got %d", got)
	}
}

func TestLoadBoardErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed", `{"pins": `},
		{"unknown field", `{"pinz": {}}`},
		{"duty step", `{"duty_step": 300}`},
		{"negative timer", `{"timers": {"capture_us": -1}}`},
		{"sensor faster than tick", `{"timers": {"scheduler_us": 10000}, "sensor_ms": 2}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadBoard([]byte(tt.data)); err == nil {
				t.Errorf("Expected error for %s", tt.data)
			}
		})
	}
}

func TestDefaultBoardPinsDistinct(t *testing.T) {
	b := DefaultBoard()
	p := b.Pins
	pins := []uint8{p.JoystickButton, p.RotaryButton, p.RotaryA, p.RotaryB, p.LEDRed, p.LEDYellow, p.LEDGreen, p.Motor, p.Tach}
	seen := make(map[uint8]bool)
	for _, pin := range pins {
		if seen[pin] {
			t.Errorf("Pin %d assigned twice", pin)
		}
		seen[pin] = true
	}
}
