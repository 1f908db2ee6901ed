package core

import "testing"

const (
	pinRotA GPIOPin = 5
	pinRotB GPIOPin = 2
)

// settle feeds a full history of the current pin levels
func settle(r *Rotary) {
	for i := 0; i < DebounceSamples; i++ {
		r.Poll()
	}
}

func TestRotaryDirection(t *testing.T) {
	gpio := newFakeGPIO()
	r := NewRotary(gpio, pinRotA, pinRotB)
	var cw, ccw int
	r.SetClockwiseCallback(func() { cw++ })
	r.SetCounterClockwiseCallback(func() { ccw++ })

	// Rest level seeds the decoder without a step
	settle(r)
	if cw != 0 || ccw != 0 {
		t.Fatalf("Step reported at rest: cw=%d ccw=%d", cw, ccw)
	}

	// A falls while B is still high: A asserted, B released, clockwise
	gpio.drive(pinRotA, false)
	settle(r)
	if cw != 1 || ccw != 0 {
		t.Errorf("Expected one clockwise step, got cw=%d ccw=%d", cw, ccw)
	}

	// B follows, then A rises with B low: A released, B asserted, clockwise
	gpio.drive(pinRotB, false)
	gpio.drive(pinRotA, true)
	settle(r)
	if cw != 2 {
		t.Errorf("Expected two clockwise steps, got %d", cw)
	}

	// A falls with B low: both asserted, counter-clockwise
	gpio.drive(pinRotA, false)
	settle(r)
	if ccw != 1 {
		t.Errorf("Expected one counter-clockwise step, got %d", ccw)
	}

	if r.Position() != 1 {
		t.Errorf("Expected net position 1, got %d", r.Position())
	}
}

func TestRotaryIgnoresBounce(t *testing.T) {
	gpio := newFakeGPIO()
	r := NewRotary(gpio, pinRotA, pinRotB)
	var steps int
	r.SetClockwiseCallback(func() { steps++ })
	r.SetCounterClockwiseCallback(func() { steps++ })
	settle(r)

	for i := 0; i < 10; i++ {
		gpio.drive(pinRotA, i%2 == 0)
		r.Poll()
	}
	if steps != 0 {
		t.Errorf("Expected bouncing pin to produce no steps, got %d", steps)
	}
}

func TestRotaryScheduled(t *testing.T) {
	gpio := newFakeGPIO()
	s := NewScheduler()
	r := NewRotary(gpio, pinRotA, pinRotB)
	var cw int
	r.SetClockwiseCallback(func() { cw++ })

	if !r.Start(s, 1) {
		t.Fatal("Expected rotary poll scheduled")
	}
	run := func(n int) {
		for i := 0; i < n; i++ {
			s.Tick(nil)
			s.RunPass()
		}
	}
	run(DebounceSamples)
	gpio.drive(pinRotA, false)
	run(DebounceSamples)

	if cw != 1 {
		t.Errorf("Expected one clockwise step, got %d", cw)
	}
	r.Stop()
	if s.Len() != 0 {
		t.Error("Expected poll task removed by Stop")
	}
}
