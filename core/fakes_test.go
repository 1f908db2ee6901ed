package core

import (
	"sync"
	"time"
)

// fakeGPIO is an in-memory pin bank that also delivers edge interrupts
type fakeGPIO struct {
	mu       sync.Mutex
	levels   map[GPIOPin]bool
	modes    map[GPIOPin]PinMode
	handlers map[GPIOPin]fakeEdge
}

type fakeEdge struct {
	edge Edge
	fn   func(GPIOPin)
}

func newFakeGPIO() *fakeGPIO {
	return &fakeGPIO{
		levels:   make(map[GPIOPin]bool),
		modes:    make(map[GPIOPin]PinMode),
		handlers: make(map[GPIOPin]fakeEdge),
	}
}

func (f *fakeGPIO) SetDirection(pin GPIOPin, mode PinMode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modes[pin] = mode
	if mode == PinInputPullUp {
		f.levels[pin] = true
	}
}

func (f *fakeGPIO) Read(pin GPIOPin) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.levels[pin]
}

func (f *fakeGPIO) Write(pin GPIOPin, level bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.levels[pin] = level
}

func (f *fakeGPIO) SetEdgeHandler(pin GPIOPin, edge Edge, fn func(GPIOPin)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if fn == nil {
		delete(f.handlers, pin)
		return
	}
	f.handlers[pin] = fakeEdge{edge: edge, fn: fn}
}

// drive changes an input level and runs any matching edge handler
func (f *fakeGPIO) drive(pin GPIOPin, level bool) {
	f.mu.Lock()
	prev := f.levels[pin]
	f.levels[pin] = level
	h, ok := f.handlers[pin]
	f.mu.Unlock()

	if !ok || prev == level {
		return
	}
	if h.edge == EdgeBoth || (h.edge == EdgeRising && level) || (h.edge == EdgeFalling && !level) {
		h.fn(pin)
	}
}

func (f *fakeGPIO) mode(pin GPIOPin) PinMode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.modes[pin]
}

type fakePWM struct {
	pin    GPIOPin
	period time.Duration
	duty   uint8
	writes int
}

func (p *fakePWM) Configure(pin GPIOPin, period time.Duration) {
	p.pin = pin
	p.period = period
}

func (p *fakePWM) SetDuty(pin GPIOPin, duty uint8) {
	p.duty = duty
	p.writes++
}

type fakeADC struct {
	values map[ADCChannel]uint16
}

func (a *fakeADC) Read(ch ADCChannel) uint16 {
	return a.values[ch]
}

type fakeClock struct {
	ticks uint32
	hz    uint32
}

func (c *fakeClock) Ticks() uint32 { return c.ticks }
func (c *fakeClock) Hz() uint32    { return c.hz }

// manualTimers is a TimerDriver whose timers only fire when told to
type manualTimers struct {
	armed   [NumTimers]bool
	periods [NumTimers]time.Duration
	fire    [NumTimers]func()
	disarms [NumTimers]int
}

func (m *manualTimers) Arm(id TimerID, period time.Duration, fire func()) {
	m.armed[id] = true
	m.periods[id] = period
	m.fire[id] = fire
}

func (m *manualTimers) Disarm(id TimerID) {
	m.armed[id] = false
	m.disarms[id]++
}

func (m *manualTimers) tick(id TimerID) {
	if m.armed[id] && m.fire[id] != nil {
		m.fire[id]()
	}
}
