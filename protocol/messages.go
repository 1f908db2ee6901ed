package protocol

import (
	"errors"
	"fmt"
)

// MsgID is the first field of every payload
type MsgID uint8

const (
	MsgStatus  MsgID = 1 // board -> host
	MsgEvent   MsgID = 2 // board -> host
	MsgCommand MsgID = 3 // host -> board
)

var ErrUnknownMessage = errors.New("unknown message id")

// Message is a typed payload
type Message interface {
	ID() MsgID
	Encode(output OutputBuffer)
}

// Status is the periodic board report
type Status struct {
	Time          uint32 // SystemTime in ticks
	State         uint8  // controller state
	Duty          uint8  // motor PWM duty
	MotorOn       bool
	RecentCentiHz uint32
	MedianCentiHz uint32
	TempDeciC     int32
	Joystick      uint8 // joystick direction
	Buttons       uint8 // debounced button mask
	LEDs          uint8 // lit LED mask
}

func (s *Status) ID() MsgID { return MsgStatus }

// Encode writes the status payload
func (s *Status) Encode(output OutputBuffer) {
	EncodeVLQUint(output, uint32(MsgStatus))
	EncodeVLQUint(output, s.Time)
	EncodeVLQUint(output, uint32(s.State))
	EncodeVLQUint(output, uint32(s.Duty))
	EncodeVLQUint(output, boolToUint(s.MotorOn))
	EncodeVLQUint(output, s.RecentCentiHz)
	EncodeVLQUint(output, s.MedianCentiHz)
	EncodeVLQInt(output, s.TempDeciC)
	EncodeVLQUint(output, uint32(s.Joystick))
	EncodeVLQUint(output, uint32(s.Buttons))
	EncodeVLQUint(output, uint32(s.LEDs))
}

// EventKind says what an Event reports
type EventKind uint8

const (
	EventButton    EventKind = 1 // Value is the button bit
	EventRotary    EventKind = 2 // Value is +1 clockwise, -1 counter-clockwise
	EventState     EventKind = 3 // Value is the new controller state
	EventMotorStop EventKind = 4
	EventOverheat  EventKind = 5 // Value is the temperature in deci-degrees
)

func (k EventKind) String() string {
	switch k {
	case EventButton:
		return "button"
	case EventRotary:
		return "rotary"
	case EventState:
		return "state"
	case EventMotorStop:
		return "motor_stop"
	case EventOverheat:
		return "overheat"
	default:
		return "unknown"
	}
}

// Event is sent by the board as things happen
type Event struct {
	Time  uint32
	Kind  EventKind
	Value int32
}

func (e *Event) ID() MsgID { return MsgEvent }

// Encode writes the event payload
func (e *Event) Encode(output OutputBuffer) {
	EncodeVLQUint(output, uint32(MsgEvent))
	EncodeVLQUint(output, e.Time)
	EncodeVLQUint(output, uint32(e.Kind))
	EncodeVLQInt(output, e.Value)
}

// CommandOp selects what a Command does
type CommandOp uint8

const (
	CmdSetDuty CommandOp = 1 // Value is the duty, 0..255
	CmdMotor   CommandOp = 2 // Value is 1 to run, 0 to stop
	CmdReport  CommandOp = 3 // request an immediate Status
	CmdLED     CommandOp = 4 // Value is led<<1 | on
)

// Command is sent by the host
type Command struct {
	Op    CommandOp
	Value int32
}

func (c *Command) ID() MsgID { return MsgCommand }

// Encode writes the command payload
func (c *Command) Encode(output OutputBuffer) {
	EncodeVLQUint(output, uint32(MsgCommand))
	EncodeVLQUint(output, uint32(c.Op))
	EncodeVLQInt(output, c.Value)
}

// DecodeMessage parses a frame payload into its typed message
func DecodeMessage(payload []byte) (Message, error) {
	id, err := DecodeVLQUint(&payload)
	if err != nil {
		return nil, err
	}

	fields := func(n int) ([]int32, error) {
		vals := make([]int32, n)
		if i, err := DecodeVLQFields(&payload, vals); err != nil {
			return nil, fmt.Errorf("message %d field %d: %w", id, i, err)
		}
		return vals, nil
	}

	switch MsgID(id) {
	case MsgStatus:
		v, err := fields(10)
		if err != nil {
			return nil, err
		}
		return &Status{
			Time:          uint32(v[0]),
			State:         uint8(v[1]),
			Duty:          uint8(v[2]),
			MotorOn:       v[3] != 0,
			RecentCentiHz: uint32(v[4]),
			MedianCentiHz: uint32(v[5]),
			TempDeciC:     v[6],
			Joystick:      uint8(v[7]),
			Buttons:       uint8(v[8]),
			LEDs:          uint8(v[9]),
		}, nil
	case MsgEvent:
		v, err := fields(3)
		if err != nil {
			return nil, err
		}
		return &Event{Time: uint32(v[0]), Kind: EventKind(v[1]), Value: v[2]}, nil
	case MsgCommand:
		v, err := fields(2)
		if err != nil {
			return nil, err
		}
		return &Command{Op: CommandOp(v[0]), Value: v[1]}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownMessage, id)
	}
}

func boolToUint(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
