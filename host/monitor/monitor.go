// Package monitor logs board telemetry
package monitor

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"sesboard/core"
	"sesboard/host/logx"
	"sesboard/protocol"
)

// StateNames maps controller state numbers to names for display
var StateNames = map[uint8]string{0: "idle", 1: "running", 2: "overheat"}

// Monitor logs every Event and a rate-limited sample of Status reports
type Monitor struct {
	log     logx.Logger
	limiter *rate.Limiter

	mu         sync.Mutex
	last       protocol.Status
	haveStatus bool
	statuses   uint64
	events     uint64
	suppressed uint64
	errors     uint64

	sinks []func(protocol.Message)
}

// New creates a monitor logging at most perSecond status lines
func New(log logx.Logger, perSecond int) *Monitor {
	if perSecond <= 0 {
		perSecond = 1
	}
	return &Monitor{
		log:     log,
		limiter: rate.NewLimiter(rate.Limit(perSecond), perSecond),
	}
}

// AddSink forwards every message to fn after logging, for example to a
// recorder
func (m *Monitor) AddSink(fn func(protocol.Message)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sinks = append(m.sinks, fn)
}

// Handle is the MCU message handler
func (m *Monitor) Handle(msg protocol.Message) {
	switch v := msg.(type) {
	case *protocol.Status:
		m.onStatus(v)
	case *protocol.Event:
		m.onEvent(v)
	default:
		m.log.Debug("unexpected message", logx.Int("id", int(msg.ID())))
	}

	m.mu.Lock()
	sinks := m.sinks
	m.mu.Unlock()
	for _, fn := range sinks {
		fn(msg)
	}
}

// HandleError is the MCU error handler
func (m *Monitor) HandleError(err error) {
	m.mu.Lock()
	m.errors++
	m.mu.Unlock()
	m.log.Warn("link error", logx.Err(err))
}

func (m *Monitor) onStatus(s *protocol.Status) {
	m.mu.Lock()
	m.last = *s
	m.haveStatus = true
	m.statuses++
	m.mu.Unlock()

	if !m.limiter.Allow() {
		m.mu.Lock()
		m.suppressed++
		m.mu.Unlock()
		return
	}
	m.log.Info("status",
		logx.Uint32("time", s.Time),
		logx.String("state", StateName(s.State)),
		logx.Int("duty", int(s.Duty)),
		logx.Bool("motor", s.MotorOn),
		logx.Float64("hz", CentiToHz(s.RecentCentiHz)),
		logx.Float64("median_hz", CentiToHz(s.MedianCentiHz)),
		logx.Float64("temp_c", DeciToC(s.TempDeciC)),
		logx.String("joystick", core.Direction(s.Joystick).String()),
		logx.Int("buttons", int(s.Buttons)),
	)
}

func (m *Monitor) onEvent(e *protocol.Event) {
	m.mu.Lock()
	m.events++
	m.mu.Unlock()

	fields := []logx.Field{logx.Uint32("time", e.Time), logx.String("kind", e.Kind.String())}
	switch e.Kind {
	case protocol.EventState:
		fields = append(fields, logx.String("state", StateName(uint8(e.Value))))
	case protocol.EventOverheat:
		fields = append(fields, logx.Float64("temp_c", DeciToC(e.Value)))
	default:
		fields = append(fields, logx.Int32("value", e.Value))
	}
	if e.Kind == protocol.EventOverheat {
		m.log.Warn("event", fields...)
		return
	}
	m.log.Info("event", fields...)
}

// Last returns the most recent Status, if any arrived
func (m *Monitor) Last() (protocol.Status, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last, m.haveStatus
}

// Counters is a snapshot of what the monitor has seen
type Counters struct {
	Statuses   uint64
	Events     uint64
	Suppressed uint64 // status lines not logged
	Errors     uint64
}

// Counters returns the message counts
func (m *Monitor) Counters() Counters {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Counters{Statuses: m.statuses, Events: m.events, Suppressed: m.suppressed, Errors: m.errors}
}

// Watchdog warns when no frame has arrived for timeout. It returns when
// stop is closed.
func (m *Monitor) Watchdog(lastSeen func() time.Time, timeout time.Duration, stop <-chan struct{}) {
	t := time.NewTicker(timeout)
	defer t.Stop()
	warned := false
	for {
		select {
		case <-stop:
			return
		case now := <-t.C:
			seen := lastSeen()
			if now.Sub(seen) > timeout {
				if !warned {
					m.log.Warn("board silent", logx.Duration("for", now.Sub(seen)))
					warned = true
				}
				continue
			}
			warned = false
		}
	}
}

// StateName returns the display name of a controller state
func StateName(s uint8) string {
	if n, ok := StateNames[s]; ok {
		return n
	}
	return "unknown"
}

// CentiToHz converts a centi-hertz reading
func CentiToHz(v uint32) float64 { return float64(v) / core.FrequencyScale }

// DeciToC converts a deci-degree reading
func DeciToC(v int32) float64 { return float64(v) / core.TempPerDegree }
