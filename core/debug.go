package core

import "strconv"

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TraceEvent captures a scheduler or driver event for post-mortem analysis
type TraceEvent struct {
	EventType uint8  // Event type code
	ID        uint8  // Slot, timer or pin the event refers to
	Clock     uint32 // SystemTime at event
	Value1    uint32 // Context-dependent value
	Value2    uint32 // Context-dependent value
}

// Event type codes
const (
	EvtTaskAdd     = 1 // Task linked into a table
	EvtTaskRemove  = 2 // Task unlinked
	EvtTableFull   = 3 // Add rejected, no free slot
	EvtPollDropped = 4 // Debounce poll request coalesced
	EvtTransition  = 5 // FSM changed state
	EvtMotorStop   = 6 // Capture window saw no tach edges
)

const (
	TraceRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	// Trace ring buffer, written from both interrupt and main context
	traceCS       critical
	traceRing     [TraceRingSize]TraceEvent
	traceRingHead uint8
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// RecordEvent captures an event in the trace ring. It never blocks on
// output and is safe to call from interrupt handlers.
func RecordEvent(eventType, id uint8, clock, value1, value2 uint32) {
	state := traceCS.enter()
	idx := traceRingHead
	traceRing[idx] = TraceEvent{
		EventType: eventType,
		ID:        id,
		Clock:     clock,
		Value1:    value1,
		Value2:    value2,
	}
	traceRingHead = (idx + 1) % TraceRingSize
	traceCS.exit(state)
}

// TraceEvents copies the ring into dst, oldest first, and returns the
// number of events written
func TraceEvents(dst []TraceEvent) int {
	state := traceCS.enter()
	defer traceCS.exit(state)

	n := 0
	start := traceRingHead
	for i := uint8(0); i < TraceRingSize && n < len(dst); i++ {
		evt := traceRing[(start+i)%TraceRingSize]
		if evt.EventType == 0 {
			continue // Empty slot
		}
		dst[n] = evt
		n++
	}
	return n
}

// DumpEvents writes the trace ring through the debug writer
func DumpEvents() {
	if debugPrintln == nil {
		return
	}

	var events [TraceRingSize]TraceEvent
	n := TraceEvents(events[:])

	debugPrintln("[TRACE] === Trace Ring Dump ===")
	for _, evt := range events[:n] {
		debugPrintln("[TRACE] " + eventName(evt.EventType) +
			" id=" + strconv.Itoa(int(evt.ID)) +
			" clock=" + strconv.FormatUint(uint64(evt.Clock), 10) +
			" v1=" + strconv.FormatUint(uint64(evt.Value1), 10) +
			" v2=" + strconv.FormatUint(uint64(evt.Value2), 10))
	}
	debugPrintln("[TRACE] === End Dump ===")
}

// ClearEvents empties the trace ring
func ClearEvents() {
	state := traceCS.enter()
	defer traceCS.exit(state)

	for i := range traceRing {
		traceRing[i] = TraceEvent{}
	}
	traceRingHead = 0
}

func eventName(t uint8) string {
	switch t {
	case EvtTaskAdd:
		return "TASK_ADD"
	case EvtTaskRemove:
		return "TASK_REMOVE"
	case EvtTableFull:
		return "TABLE_FULL!"
	case EvtPollDropped:
		return "POLL_DROP"
	case EvtTransition:
		return "TRANSITION"
	case EvtMotorStop:
		return "MOTOR_STOP"
	default:
		return "UNKNOWN"
	}
}
