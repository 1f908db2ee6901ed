package core

import (
	"errors"
	"fmt"
)

// MaxStates bounds the number of states a Machine can register
const MaxStates = 16

// Signal is the discriminant of an Event
type Signal uint8

// Reserved lifecycle signals. Application signals start at SignalUser.
const (
	SignalEntry Signal = iota
	SignalExit
	SignalUser
)

// Event is delivered to a state handler. Value carries an
// application-defined payload.
type Event struct {
	Signal Signal
	Value  int32
}

// StateID names a registered state
type StateID uint8

// Result is the kind of an Outcome
type Result uint8

const (
	ResultHandled Result = iota
	ResultIgnored
	ResultTransition
)

func (r Result) String() string {
	switch r {
	case ResultHandled:
		return "handled"
	case ResultIgnored:
		return "ignored"
	case ResultTransition:
		return "transition"
	default:
		return "unknown"
	}
}

// Outcome is what a state handler reports. Only a transition carries a
// target state.
type Outcome struct {
	result Result
	target StateID
}

// Handled reports that the event was consumed
func Handled() Outcome { return Outcome{result: ResultHandled} }

// Ignored reports that the state has no use for the event
func Ignored() Outcome { return Outcome{result: ResultIgnored} }

// TransitionTo requests a move to target
func TransitionTo(target StateID) Outcome {
	return Outcome{result: ResultTransition, target: target}
}

// Result returns the outcome kind
func (o Outcome) Result() Result { return o.result }

// Target returns the requested state; only meaningful for a transition
func (o Outcome) Target() StateID { return o.target }

// Handler handles one event for one state
type Handler[D any] func(m *Machine[D], e Event) Outcome

var (
	ErrUnknownState = errors.New("fsm: unknown state")
	ErrNotStarted   = errors.New("fsm: machine not initialized")
	ErrNilHandler   = errors.New("fsm: nil handler")
)

// Machine is a flat state machine with entry and exit actions. Data holds
// the application's own fields.
type Machine[D any] struct {
	Data D

	states  [MaxStates]Handler[D]
	names   [MaxStates]string
	current StateID
	started bool

	onTransition func(from, to StateID)
}

// Register installs the handler for id
func (m *Machine[D]) Register(id StateID, name string, h Handler[D]) error {
	if id >= MaxStates {
		return fmt.Errorf("%w: %d", ErrUnknownState, id)
	}
	if h == nil {
		return fmt.Errorf("%w for state %q", ErrNilHandler, name)
	}
	m.states[id] = h
	m.names[id] = name
	return nil
}

// OnTransition installs a hook run after each completed transition
func (m *Machine[D]) OnTransition(fn func(from, to StateID)) {
	m.onTransition = fn
}

// Init enters the initial state and delivers its Entry event
func (m *Machine[D]) Init(initial StateID) error {
	if !m.known(initial) {
		return fmt.Errorf("%w: %d", ErrUnknownState, initial)
	}
	m.current = initial
	m.started = true
	m.states[initial](m, Event{Signal: SignalEntry})
	return nil
}

// Dispatch delivers e to the current state. On a transition the previous
// state receives Exit and then the new state receives Entry, both before
// Dispatch returns. Outcomes of the Entry and Exit events are not acted on.
func (m *Machine[D]) Dispatch(e Event) (Result, error) {
	if !m.started {
		return ResultIgnored, ErrNotStarted
	}

	prev := m.current
	out := m.states[prev](m, e)
	if out.result != ResultTransition {
		return out.result, nil
	}
	if !m.known(out.target) {
		return ResultIgnored, fmt.Errorf("%w: %d from %s", ErrUnknownState, out.target, m.names[prev])
	}

	m.current = out.target
	m.states[prev](m, Event{Signal: SignalExit})
	m.states[out.target](m, Event{Signal: SignalEntry})
	RecordEvent(EvtTransition, uint8(out.target), 0, uint32(prev), uint32(e.Signal))

	if m.onTransition != nil {
		m.onTransition(prev, out.target)
	}
	return ResultTransition, nil
}

// State returns the current state
func (m *Machine[D]) State() StateID {
	return m.current
}

// StateName returns the name id was registered with
func (m *Machine[D]) StateName(id StateID) string {
	if id >= MaxStates {
		return ""
	}
	return m.names[id]
}

// Started reports whether Init has run
func (m *Machine[D]) Started() bool {
	return m.started
}

func (m *Machine[D]) known(id StateID) bool {
	return id < MaxStates && m.states[id] != nil
}
