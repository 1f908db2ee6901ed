package core

import (
	"sync/atomic"

	"golang.org/x/exp/slices"
)

// Motor frequency capture constants
const (
	FrequencySamples    = 21  // ring length, odd so the median is a sample
	PulsesPerRevolution = 5   // tach edges per motor revolution
	FrequencyScale      = 100 // readings are in hundredths of a hertz
)

// MotorFrequency measures motor speed from tach edges. OnEdge runs in the
// edge interrupt; the capture timer marks the motor stopped when a whole
// window passes without edges.
type MotorFrequency struct {
	cs    critical
	clock CaptureClock
	leds  *LEDs

	// written from the edge interrupt, guarded by cs
	ring   [FrequencySamples]uint32
	filled int
	next   int
	pulses int
	start  uint32
	recent uint32

	edges   atomic.Uint32 // edges seen in the current capture window
	running atomic.Bool
}

// NewMotorFrequency creates a capture over clock. leds may be nil.
func NewMotorFrequency(clock CaptureClock, leds *LEDs) *MotorFrequency {
	return &MotorFrequency{clock: clock, leds: leds}
}

// Start installs the tach edge handler on pin and the stall check on the
// capture timer
func (m *MotorFrequency) Start(edges EdgeDriver, pin GPIOPin, capture *Timer) {
	edges.SetEdgeHandler(pin, EdgeRising, m.OnEdge)
	capture.SetCallback(CallbackFunc(m.OnCaptureWindow))
	capture.Start()
}

// OnEdge records one rising tach edge. Every PulsesPerRevolution edges it
// stores a new revolution frequency.
func (m *MotorFrequency) OnEdge(GPIOPin) {
	now := m.clock.Ticks()
	m.edges.Add(1)
	wasRunning := m.running.Swap(true)

	if m.leds != nil {
		m.leds.Off(LEDGreen)
		m.leds.Toggle(LEDYellow)
	}

	state := m.cs.enter()
	defer m.cs.exit(state)

	if !wasRunning {
		m.pulses = 0
		m.start = now
		return
	}

	m.pulses++
	if m.pulses < PulsesPerRevolution {
		return
	}
	elapsed := now - m.start
	m.pulses = 0
	m.start = now
	if elapsed == 0 {
		return
	}

	f := uint32(uint64(m.clock.Hz()) * FrequencyScale / uint64(elapsed))
	m.recent = f
	m.ring[m.next] = f
	m.next = (m.next + 1) % FrequencySamples
	if m.filled < FrequencySamples {
		m.filled++
	}
}

// OnCaptureWindow is the capture timer callback. No edges since the last
// window means the motor has stopped.
func (m *MotorFrequency) OnCaptureWindow(any) {
	if m.edges.Swap(0) != 0 {
		return
	}
	if !m.running.Swap(false) {
		return
	}

	state := m.cs.enter()
	m.recent = 0
	m.filled = 0
	m.next = 0
	m.pulses = 0
	m.cs.exit(state)

	if m.leds != nil {
		m.leds.On(LEDGreen)
		m.leds.Off(LEDYellow)
	}
	RecordEvent(EvtMotorStop, 0, m.clock.Ticks(), 0, 0)
}

// Running reports whether tach edges are arriving
func (m *MotorFrequency) Running() bool {
	return m.running.Load()
}

// Recent returns the latest revolution frequency in centi-hertz, 0 when the
// motor is stopped
func (m *MotorFrequency) Recent() uint32 {
	if !m.running.Load() {
		return 0
	}
	state := m.cs.enter()
	defer m.cs.exit(state)
	return m.recent
}

// Median returns the median of the stored frequencies in centi-hertz, 0 when
// the motor is stopped or no revolution has completed yet
func (m *MotorFrequency) Median() uint32 {
	if !m.running.Load() {
		return 0
	}

	var buf [FrequencySamples]uint32
	state := m.cs.enter()
	n := m.filled
	copy(buf[:], m.ring[:])
	m.cs.exit(state)

	if n == 0 {
		return 0
	}
	samples := buf[:n]
	slices.Sort(samples)
	return samples[n/2]
}

// Samples copies the stored frequencies, oldest first, into dst and returns
// the count
func (m *MotorFrequency) Samples(dst []uint32) int {
	state := m.cs.enter()
	defer m.cs.exit(state)

	start := 0
	if m.filled == FrequencySamples {
		start = m.next
	}
	n := 0
	for i := 0; i < m.filled && n < len(dst); i++ {
		dst[n] = m.ring[(start+i)%FrequencySamples]
		n++
	}
	return n
}
