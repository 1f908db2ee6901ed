package core

import (
	"errors"
	"testing"
)

const (
	stateOff StateID = iota
	stateOn
	stateUnregistered
)

const (
	sigToggle Signal = SignalUser + iota
	sigPoke
	sigBad
)

type lampData struct {
	log   []string
	pokes int
}

func newLamp(t *testing.T) *Machine[lampData] {
	t.Helper()
	m := &Machine[lampData]{}
	record := func(m *Machine[lampData], name string, e Event) {
		switch e.Signal {
		case SignalEntry:
			m.Data.log = append(m.Data.log, name+":entry")
		case SignalExit:
			m.Data.log = append(m.Data.log, name+":exit")
		}
	}

	off := func(m *Machine[lampData], e Event) Outcome {
		record(m, "off", e)
		switch e.Signal {
		case sigToggle:
			return TransitionTo(stateOn)
		case sigPoke:
			m.Data.pokes++
			return Handled()
		case sigBad:
			return TransitionTo(stateUnregistered)
		}
		return Ignored()
	}
	on := func(m *Machine[lampData], e Event) Outcome {
		record(m, "on", e)
		switch e.Signal {
		case sigToggle:
			return TransitionTo(stateOff)
		case sigPoke:
			return TransitionTo(stateOn)
		}
		return Ignored()
	}

	if err := m.Register(stateOff, "off", off); err != nil {
		t.Fatal(err)
	}
	if err := m.Register(stateOn, "on", on); err != nil {
		t.Fatal(err)
	}
	return m
}

func equalLog(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestMachineInit(t *testing.T) {
	m := newLamp(t)
	if err := m.Init(stateOff); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if m.State() != stateOff {
		t.Errorf("Expected state off, got %d", m.State())
	}
	if !equalLog(m.Data.log, []string{"off:entry"}) {
		t.Errorf("Expected a single entry, got %v", m.Data.log)
	}
}

func TestMachineInitUnknownState(t *testing.T) {
	m := newLamp(t)
	if err := m.Init(stateUnregistered); !errors.Is(err, ErrUnknownState) {
		t.Errorf("Expected ErrUnknownState, got %v", err)
	}
	if m.Started() {
		t.Error("Machine started from an unknown state")
	}
}

func TestMachineDispatchBeforeInit(t *testing.T) {
	m := newLamp(t)
	if _, err := m.Dispatch(Event{Signal: sigToggle}); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Expected ErrNotStarted, got %v", err)
	}
}

func TestMachineTransition(t *testing.T) {
	m := newLamp(t)
	m.Init(stateOff)
	m.Data.log = nil

	var hookFrom, hookTo StateID
	hooks := 0
	m.OnTransition(func(from, to StateID) {
		hooks++
		hookFrom, hookTo = from, to
	})

	res, err := m.Dispatch(Event{Signal: sigToggle})
	if err != nil {
		t.Fatal(err)
	}
	if res != ResultTransition {
		t.Errorf("Expected transition, got %s", res)
	}
	if m.State() != stateOn {
		t.Errorf("Expected state on, got %d", m.State())
	}
	if !equalLog(m.Data.log, []string{"off:exit", "on:entry"}) {
		t.Errorf("Expected exit then entry, got %v", m.Data.log)
	}
	if hooks != 1 || hookFrom != stateOff || hookTo != stateOn {
		t.Errorf("Expected one hook off->on, got %d %d->%d", hooks, hookFrom, hookTo)
	}
}

func TestMachineNoLifecycleOnHandledOrIgnored(t *testing.T) {
	tests := []struct {
		name string
		sig  Signal
		want Result
	}{
		{name: "handled", sig: sigPoke, want: ResultHandled},
		{name: "ignored", sig: SignalUser + 40, want: ResultIgnored},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newLamp(t)
			m.Init(stateOff)
			m.Data.log = nil

			res, err := m.Dispatch(Event{Signal: tt.sig})
			if err != nil {
				t.Fatal(err)
			}
			if res != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, res)
			}
			if len(m.Data.log) != 0 {
				t.Errorf("Expected no entry/exit, got %v", m.Data.log)
			}
			if m.State() != stateOff {
				t.Errorf("State changed to %d", m.State())
			}
		})
	}
}

func TestMachineSelfTransition(t *testing.T) {
	m := newLamp(t)
	m.Init(stateOn)
	m.Data.log = nil

	m.Dispatch(Event{Signal: sigPoke})
	if !equalLog(m.Data.log, []string{"on:exit", "on:entry"}) {
		t.Errorf("Expected exit then entry on the same state, got %v", m.Data.log)
	}
}

func TestMachineUnknownTarget(t *testing.T) {
	m := newLamp(t)
	m.Init(stateOff)
	m.Data.log = nil

	if _, err := m.Dispatch(Event{Signal: sigBad}); !errors.Is(err, ErrUnknownState) {
		t.Errorf("Expected ErrUnknownState, got %v", err)
	}
	if m.State() != stateOff {
		t.Errorf("Expected state unchanged, got %d", m.State())
	}
	if len(m.Data.log) != 0 {
		t.Errorf("Expected no lifecycle events, got %v", m.Data.log)
	}
}

func TestMachineRegister(t *testing.T) {
	m := &Machine[struct{}]{}
	if err := m.Register(MaxStates, "big", func(*Machine[struct{}], Event) Outcome { return Handled() }); !errors.Is(err, ErrUnknownState) {
		t.Errorf("Expected ErrUnknownState for out of range id, got %v", err)
	}
	if err := m.Register(0, "nil", nil); !errors.Is(err, ErrNilHandler) {
		t.Errorf("Expected ErrNilHandler, got %v", err)
	}
}
