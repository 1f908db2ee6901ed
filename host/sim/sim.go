package sim

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"sesboard/app"
	"sesboard/config"
	"sesboard/core"
	"sesboard/protocol"
)

// Simulator runs an app.Board in real time on host timers, with a fan
// model on its motor and tach pins
type Simulator struct {
	HAL   *HAL
	Fan   *FanModel
	Board *app.Board

	// Step is how often the fan model advances
	Step time.Duration

	cfg    *config.Board
	driver *core.TickerDriver
	port   *Port
}

// New builds a simulated board. Its telemetry is read from Port.
func New(cfg *config.Board) (*Simulator, error) {
	if cfg == nil {
		cfg = config.DefaultBoard()
	}
	driver := core.NewTickerDriver()
	hal := NewHAL(NewWallClock(), driver)
	port := newPort(64)

	board, err := app.New(cfg, hal.Core(), app.Options{Telemetry: port.boardWriter()})
	if err != nil {
		return nil, err
	}
	port.board = board

	return &Simulator{
		HAL:    hal,
		Fan:    NewFanModel(hal, core.GPIOPin(cfg.Pins.Motor), core.GPIOPin(cfg.Pins.Tach)),
		Board:  board,
		Step:   time.Millisecond,
		cfg:    cfg,
		driver: driver,
		port:   port,
	}, nil
}

// Port is the simulated USB CDC stream, for mcu.MCU.Attach
func (s *Simulator) Port() *Port {
	return s.port
}

// Run runs the firmware and the fan model until ctx is cancelled
func (s *Simulator) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- s.Board.Run(ctx) }()
	defer s.driver.Close()

	step := s.Step
	if step <= 0 {
		step = time.Millisecond
	}
	tk := time.NewTicker(step)
	defer tk.Stop()

	for {
		select {
		case err := <-errc:
			return err
		case <-ctx.Done():
			err := <-errc
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		case <-tk.C:
			s.Fan.Step(step)
		}
	}
}

// Command delivers a host command to the board as framed bytes
func (s *Simulator) Command(cmd *protocol.Command) error {
	_, err := s.port.Write(encodeCommand(cmd))
	return err
}

// PressJoystick holds the joystick button for d
func (s *Simulator) PressJoystick(d time.Duration) {
	s.press(core.GPIOPin(s.cfg.Pins.JoystickButton), d)
}

// PressRotary holds the rotary push button for d
func (s *Simulator) PressRotary(d time.Duration) {
	s.press(core.GPIOPin(s.cfg.Pins.RotaryButton), d)
}

// Turn moves the knob by detents, clockwise when positive. Each detent is
// one settled change of pin A; hold should exceed the debounce window.
func (s *Simulator) Turn(detents int, hold time.Duration) {
	a := core.GPIOPin(s.cfg.Pins.RotaryA)
	b := core.GPIOPin(s.cfg.Pins.RotaryB)
	for ; detents != 0; detents -= sign(detents) {
		// pins are active low, so a high level is released
		aReleased := s.HAL.GPIO.Level(a)
		if detents > 0 {
			// clockwise leaves A and B at different levels
			s.HAL.GPIO.Drive(b, aReleased)
		} else {
			s.HAL.GPIO.Drive(b, !aReleased)
		}
		time.Sleep(hold)
		s.HAL.GPIO.Drive(a, !aReleased)
		time.Sleep(hold)
	}
}

func (s *Simulator) press(pin core.GPIOPin, d time.Duration) {
	s.HAL.GPIO.Press(pin)
	time.Sleep(d)
	s.HAL.GPIO.Release(pin)
}

func sign(n int) int {
	if n < 0 {
		return -1
	}
	return 1
}

func encodeCommand(cmd *protocol.Command) []byte {
	payload := protocol.NewScratchOutput()
	cmd.Encode(payload)
	frame, _ := protocol.AppendFrame(nil, protocol.DestBoard, payload.Result())
	return frame
}

// Port joins the simulated board to a host reader. Board output is queued
// and dropped when the host falls behind, as a CDC port with no reader
// would; host writes go straight to the board's command decoder.
type Port struct {
	board *app.Board

	out  chan []byte
	rest []byte

	once   sync.Once
	closed chan struct{}
}

func newPort(depth int) *Port {
	return &Port{out: make(chan []byte, depth), closed: make(chan struct{})}
}

type boardWriter struct{ p *Port }

func (w boardWriter) Write(b []byte) (int, error) {
	select {
	case <-w.p.closed:
		return len(b), nil
	default:
	}
	select {
	case w.p.out <- append([]byte(nil), b...):
	default:
	}
	return len(b), nil
}

func (p *Port) boardWriter() io.Writer {
	return boardWriter{p}
}

// Read returns board output, blocking until some is available
func (p *Port) Read(b []byte) (int, error) {
	if len(p.rest) == 0 {
		select {
		case p.rest = <-p.out:
		case <-p.closed:
			return 0, io.EOF
		}
	}
	n := copy(b, p.rest)
	p.rest = p.rest[n:]
	return n, nil
}

// Write feeds host bytes to the board
func (p *Port) Write(b []byte) (int, error) {
	select {
	case <-p.closed:
		return 0, io.ErrClosedPipe
	default:
	}
	total := 0
	for len(b) > 0 {
		n := p.board.Feed(b)
		if n == 0 {
			return total, errors.New("sim: board input full")
		}
		total += n
		b = b[n:]
	}
	return total, nil
}

// Close ends the stream; pending reads return io.EOF
func (p *Port) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}
