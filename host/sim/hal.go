// Package sim runs the board firmware on the host against a virtual HAL
// and a fan model.
package sim

import (
	"sync"
	"sync/atomic"
	"time"

	"sesboard/core"
)

// GPIO is an in-memory pin bank that raises edge interrupts when inputs
// are driven
type GPIO struct {
	mu       sync.Mutex
	levels   map[core.GPIOPin]bool
	modes    map[core.GPIOPin]core.PinMode
	handlers map[core.GPIOPin]edgeHandler
}

type edgeHandler struct {
	edge core.Edge
	fn   func(core.GPIOPin)
}

// NewGPIO creates a pin bank with every pin low
func NewGPIO() *GPIO {
	return &GPIO{
		levels:   make(map[core.GPIOPin]bool),
		modes:    make(map[core.GPIOPin]core.PinMode),
		handlers: make(map[core.GPIOPin]edgeHandler),
	}
}

func (g *GPIO) SetDirection(pin core.GPIOPin, mode core.PinMode) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.modes[pin] = mode
	if mode == core.PinInputPullUp {
		g.levels[pin] = true
	}
}

func (g *GPIO) Read(pin core.GPIOPin) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.levels[pin]
}

func (g *GPIO) Write(pin core.GPIOPin, level bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.levels[pin] = level
}

func (g *GPIO) SetEdgeHandler(pin core.GPIOPin, edge core.Edge, fn func(core.GPIOPin)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if fn == nil {
		delete(g.handlers, pin)
		return
	}
	g.handlers[pin] = edgeHandler{edge: edge, fn: fn}
}

// Drive sets an input level as an external circuit would, running the
// pin's edge handler on a matching transition
func (g *GPIO) Drive(pin core.GPIOPin, level bool) {
	g.mu.Lock()
	prev := g.levels[pin]
	g.levels[pin] = level
	h, ok := g.handlers[pin]
	g.mu.Unlock()

	if !ok || prev == level {
		return
	}
	switch {
	case h.edge == core.EdgeBoth,
		h.edge == core.EdgeRising && level,
		h.edge == core.EdgeFalling && !level:
		h.fn(pin)
	}
}

// Press pulls an active-low input to ground
func (g *GPIO) Press(pin core.GPIOPin) { g.Drive(pin, false) }

// Release lets an active-low input float back high
func (g *GPIO) Release(pin core.GPIOPin) { g.Drive(pin, true) }

// Level returns the pin level
func (g *GPIO) Level(pin core.GPIOPin) bool {
	return g.Read(pin)
}

// Mode returns the direction last configured for pin
func (g *GPIO) Mode(pin core.GPIOPin) core.PinMode {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.modes[pin]
}

// PWM records the duty of every configured channel
type PWM struct {
	mu      sync.Mutex
	duty    map[core.GPIOPin]uint8
	periods map[core.GPIOPin]time.Duration
}

// NewPWM creates an empty PWM bank
func NewPWM() *PWM {
	return &PWM{duty: make(map[core.GPIOPin]uint8), periods: make(map[core.GPIOPin]time.Duration)}
}

func (p *PWM) Configure(pin core.GPIOPin, period time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.periods[pin] = period
}

func (p *PWM) SetDuty(pin core.GPIOPin, duty uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.duty[pin] = duty
}

// Duty returns the duty last set on pin
func (p *PWM) Duty(pin core.GPIOPin) uint8 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duty[pin]
}

// Period returns the carrier period configured on pin
func (p *PWM) Period(pin core.GPIOPin) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.periods[pin]
}

// ADC holds a settable reading per channel
type ADC struct {
	values [core.ADCNumChannels]atomic.Uint32
}

func (a *ADC) Read(ch core.ADCChannel) uint16 {
	if int(ch) >= len(a.values) {
		return core.ADCInvalidChannel
	}
	return uint16(a.values[ch].Load())
}

// Set stores the raw reading returned for ch
func (a *ADC) Set(ch core.ADCChannel, raw uint16) {
	if int(ch) < len(a.values) {
		a.values[ch].Store(uint32(raw))
	}
}

// SetTemperature stores the thermistor reading for deciC
func (a *ADC) SetTemperature(deciC int32) {
	a.Set(core.ADCTemperature, RawForTemperature(deciC))
}

// RawForTemperature inverts core.Temperature
func RawForTemperature(deciC int32) uint16 {
	span := int32(core.TempRawAtMin - core.TempRawAtMax)
	degrees := int32((core.TempMaxC - core.TempMinC) * core.TempPerDegree)
	raw := int32(core.TempRawAtMin) - (deciC-core.TempMinC*core.TempPerDegree)*span/degrees
	if raw < 0 {
		raw = 0
	}
	if raw > 1023 {
		raw = 1023
	}
	return uint16(raw)
}

// ManualClock is a CaptureClock advanced by hand
type ManualClock struct {
	ticks atomic.Uint32
	hz    uint32
}

// NewManualClock creates a clock counting at hz
func NewManualClock(hz uint32) *ManualClock {
	return &ManualClock{hz: hz}
}

func (c *ManualClock) Ticks() uint32 { return c.ticks.Load() }
func (c *ManualClock) Hz() uint32    { return c.hz }

// Advance moves the clock forward by d
func (c *ManualClock) Advance(d time.Duration) {
	c.ticks.Add(uint32(d * time.Duration(c.hz) / time.Second))
}

// WallClock is a 1 MHz CaptureClock driven by the host's monotonic clock
type WallClock struct {
	start time.Time
}

// NewWallClock starts counting from now
func NewWallClock() *WallClock {
	return &WallClock{start: time.Now()}
}

func (c *WallClock) Ticks() uint32 { return uint32(time.Since(c.start).Microseconds()) }
func (c *WallClock) Hz() uint32    { return 1_000_000 }

// ManualTimers is a TimerDriver whose timers fire only when told to
type ManualTimers struct {
	mu    sync.Mutex
	armed [core.NumTimers]bool
	fire  [core.NumTimers]func()
}

func (m *ManualTimers) Arm(id core.TimerID, period time.Duration, fire func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.armed[id] = true
	m.fire[id] = fire
}

func (m *ManualTimers) Disarm(id core.TimerID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.armed[id] = false
}

// Armed reports whether id is running
func (m *ManualTimers) Armed(id core.TimerID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.armed[id]
}

// Fire runs the interrupt of id once if it is armed
func (m *ManualTimers) Fire(id core.TimerID) {
	m.mu.Lock()
	fn := m.fire[id]
	armed := m.armed[id]
	m.mu.Unlock()
	if armed && fn != nil {
		fn()
	}
}

// HAL is a complete virtual board
type HAL struct {
	GPIO   *GPIO
	PWM    *PWM
	ADC    *ADC
	Clock  core.CaptureClock
	Timers core.TimerDriver
}

// NewHAL creates a virtual board with the given clock and timer driver
func NewHAL(clock core.CaptureClock, timers core.TimerDriver) *HAL {
	h := &HAL{
		GPIO:   NewGPIO(),
		PWM:    NewPWM(),
		ADC:    &ADC{},
		Clock:  clock,
		Timers: timers,
	}
	h.ADC.Set(core.ADCJoystick, 1000) // centred
	h.ADC.SetTemperature(250)
	return h
}

// Core returns the HAL interfaces the firmware consumes
func (h *HAL) Core() core.HAL {
	return core.HAL{
		GPIO:   h.GPIO,
		Edges:  h.GPIO,
		PWM:    h.PWM,
		ADC:    h.ADC,
		Clock:  h.Clock,
		Timers: h.Timers,
	}
}
