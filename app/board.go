package app

import (
	"context"
	"errors"
	"io"
	"sync/atomic"

	"sesboard/config"
	"sesboard/core"
	"sesboard/protocol"
)

// Knob is a source of rotary detents. core.Rotary is the debounced
// implementation; targets may supply a hardware quadrature decoder.
type Knob interface {
	SetClockwiseCallback(fn func())
	SetCounterClockwiseCallback(fn func())
	Start(sched *core.Scheduler, period uint32) bool
	Stop()
}

// Options are the optional parts of a Board
type Options struct {
	// Telemetry receives framed Status and Event messages; nil disables
	// the link
	Telemetry io.Writer

	// Knob replaces the debounced rotary decoder
	Knob Knob
}

var ErrBoardStarted = errors.New("board already started")

// Board is the assembled firmware: drivers, scheduler, timers, controller
// and telemetry.
type Board struct {
	cfg *config.Board
	hal core.HAL

	sched   *core.Scheduler
	timers  *core.TimeBase
	leds    *core.LEDs
	buttons *core.Buttons
	knob    Knob
	motor   *core.MotorPWM
	freq    *core.MotorFrequency
	sensors *core.Sensors
	ctl     *Controller
	link    *protocol.Link

	// scheduled work
	sensorTask    core.Task
	telemetryTask core.Task
	commandTask   core.Task
	joystickTask  core.Task
	rotaryTask    core.Task
	cwTask        core.Task
	ccwTask       core.Task

	wasRunning bool
	started    bool
	dropped    atomic.Uint32 // input events lost to a full task table
	linkErrors atomic.Uint32
}

// New builds a board from cfg on top of hal. Nothing runs until Start.
func New(cfg *config.Board, hal core.HAL, opts Options) (*Board, error) {
	if cfg == nil {
		cfg = config.DefaultBoard()
	}
	if hal.GPIO == nil || hal.PWM == nil || hal.ADC == nil || hal.Clock == nil || hal.Timers == nil {
		return nil, errors.New("board: incomplete HAL")
	}
	if hal.Edges == nil {
		// tach capture always needs edge interrupts
		return nil, errors.New("board: HAL has no edge driver")
	}

	p := cfg.Pins
	b := &Board{cfg: cfg, hal: hal}
	b.sched = core.NewScheduler()
	b.timers = core.NewTimeBase(hal.Timers, cfg.TimerPeriods())
	b.leds = core.NewLEDs(hal.GPIO, core.GPIOPin(p.LEDRed), core.GPIOPin(p.LEDYellow), core.GPIOPin(p.LEDGreen))
	b.buttons = core.NewButtons(hal.GPIO, core.GPIOPin(p.JoystickButton), core.GPIOPin(p.RotaryButton))
	b.motor = core.NewMotorPWM(hal.PWM, core.GPIOPin(p.Motor), b.timers.Timer(core.TimerPWM).Period())
	b.freq = core.NewMotorFrequency(hal.Clock, b.leds)
	b.sensors = core.NewSensors(hal.ADC)

	b.knob = opts.Knob
	if b.knob == nil {
		b.knob = core.NewRotary(hal.GPIO, core.GPIOPin(p.RotaryA), core.GPIOPin(p.RotaryB))
	}

	ctl, err := NewController(b.motor, b.leds, cfg.DutyPresets, cfg.DutyStep, cfg.OverheatDeciC)
	if err != nil {
		return nil, err
	}
	b.ctl = ctl

	if opts.Telemetry != nil {
		b.link = protocol.NewLink(opts.Telemetry, protocol.DestHost)
		ctl.Data.report = b.sendEvent
		ctl.OnTransition(func(from, to core.StateID) {
			b.sendEvent(protocol.EventState, int32(to))
		})
	}

	b.sensorTask = core.Task{Fn: b.sampleSensors, Period: cfg.Ticks(cfg.SensorMs)}
	b.telemetryTask = core.Task{Fn: b.report, Period: cfg.Ticks(cfg.TelemetryMs)}
	b.commandTask = core.Task{Fn: b.pollCommands, Period: cfg.Ticks(10)}
	b.joystickTask = core.Task{Fn: b.signal, Param: SigJoystick}
	b.rotaryTask = core.Task{Fn: b.signal, Param: SigRotaryPress}
	b.cwTask = core.Task{Fn: b.signal, Param: SigRotaryCW}
	b.ccwTask = core.Task{Fn: b.signal, Param: SigRotaryCCW}

	b.buttons.SetJoystickCallback(func() { b.post(&b.joystickTask) })
	b.buttons.SetRotaryCallback(func() { b.post(&b.rotaryTask) })
	b.knob.SetClockwiseCallback(func() { b.post(&b.cwTask) })
	b.knob.SetCounterClockwiseCallback(func() { b.post(&b.ccwTask) })
	return b, nil
}

// Start arms the timers, installs the interrupt handlers and schedules the
// board's tasks
func (b *Board) Start() error {
	if b.started {
		return ErrBoardStarted
	}
	core.SetDebugEnabled(b.cfg.Debug)

	if err := b.ctl.Init(StateIdle); err != nil {
		return err
	}

	tick := b.timers.Timer(core.TimerScheduler)
	tick.SetCallback(core.CallbackFunc(b.sched.Tick))

	b.timers.Timer(core.TimerPWM).Start()
	if b.cfg.DirectButtons {
		b.buttons.StartDirect(b.hal.Edges)
	} else {
		b.buttons.StartDebounced(b.sched, b.timers.Timer(core.TimerDebounce))
	}
	b.knob.Start(b.sched, b.cfg.Ticks(b.cfg.RotaryPollMs))
	b.freq.Start(b.hal.Edges, core.GPIOPin(b.cfg.Pins.Tach), b.timers.Timer(core.TimerCapture))

	for _, t := range []*core.Task{&b.sensorTask, &b.telemetryTask, &b.commandTask} {
		if !b.sched.Add(t) {
			return errors.New("board: task table full")
		}
	}

	tick.Start()
	b.started = true
	core.DebugPrintln("[BOARD] started")
	return nil
}

// Stop disarms every timer and handler and turns the motor off
func (b *Board) Stop() {
	if !b.started {
		return
	}
	b.timers.StopAll()
	b.buttons.Stop(b.hal.Edges)
	b.knob.Stop()
	b.hal.Edges.SetEdgeHandler(core.GPIOPin(b.cfg.Pins.Tach), core.EdgeRising, nil)
	b.timers.Timer(core.TimerCapture).SetCallback(core.NoCallback)
	b.timers.Timer(core.TimerScheduler).SetCallback(core.NoCallback)

	for _, t := range []*core.Task{&b.sensorTask, &b.telemetryTask, &b.commandTask} {
		b.sched.Remove(t)
	}
	b.motor.SetDutyCycle(0)
	b.started = false
	core.DebugPrintln("[BOARD] stopped")
}

// Run starts the board and dispatches tasks until ctx is cancelled
func (b *Board) Run(ctx context.Context) error {
	if err := b.Start(); err != nil {
		return err
	}
	defer b.Stop()
	return b.sched.Run(ctx)
}

// Feed passes bytes received from the host to the command decoder. It is
// safe to call from a reader goroutine.
func (b *Board) Feed(data []byte) int {
	if b.link == nil {
		return 0
	}
	return b.link.Feed(data)
}

// Scheduler returns the board's scheduler
func (b *Board) Scheduler() *core.Scheduler { return b.sched }

// TimeBase returns the board's timers
func (b *Board) TimeBase() *core.TimeBase { return b.timers }

// Controller returns the fan state machine
func (b *Board) Controller() *Controller { return b.ctl }

// LEDs returns the status LEDs
func (b *Board) LEDs() *core.LEDs { return b.leds }

// Frequency returns the tach capture
func (b *Board) Frequency() *core.MotorFrequency { return b.freq }

// Motor returns the motor PWM output
func (b *Board) Motor() *core.MotorPWM { return b.motor }

// Dropped returns how many button or knob events were lost
func (b *Board) Dropped() uint32 { return b.dropped.Load() }

// LinkErrors returns how many received payloads failed to decode
func (b *Board) LinkErrors() uint32 { return b.linkErrors.Load() }

// Status collects the current board report
func (b *Board) Status() protocol.Status {
	buttons := b.buttons.Debouncer().State()
	if b.cfg.DirectButtons {
		buttons = b.buttons.Sample()
	}
	return protocol.Status{
		Time:          b.sched.Time(),
		State:         uint8(b.ctl.State()),
		Duty:          b.motor.DutyCycle(),
		MotorOn:       b.freq.Running(),
		RecentCentiHz: b.freq.Recent(),
		MedianCentiHz: b.freq.Median(),
		TempDeciC:     b.ctl.Data.Temperature(),
		Joystick:      uint8(b.sensors.Joystick()),
		Buttons:       buttons,
		LEDs:          b.leds.Mask(),
	}
}

// post hands an input event to the controller through the scheduler, so
// the machine only ever runs in Run context. A repeat of an event that is
// still queued is folded into it.
func (b *Board) post(t *core.Task) {
	if b.sched.Contains(t) {
		return
	}
	if !b.sched.Add(t) {
		b.dropped.Add(1)
	}
}

func (b *Board) signal(param any) {
	sig := param.(core.Signal)
	b.dispatch(core.Event{Signal: sig})

	switch sig {
	case SigJoystick:
		b.sendEvent(protocol.EventButton, int32(core.ButtonJoystick))
	case SigRotaryPress:
		b.sendEvent(protocol.EventButton, int32(core.ButtonRotary))
	case SigRotaryCW:
		b.sendEvent(protocol.EventRotary, 1)
	case SigRotaryCCW:
		b.sendEvent(protocol.EventRotary, -1)
	}
}

func (b *Board) dispatch(e core.Event) {
	if _, err := b.ctl.Dispatch(e); err != nil {
		core.DebugPrintln("[BOARD] dispatch: " + err.Error())
	}
}

func (b *Board) sampleSensors(any) {
	b.dispatch(core.Event{Signal: SigTemperature, Value: b.sensors.Temperature()})
}

func (b *Board) report(any) {
	running := b.freq.Running()
	if b.wasRunning && !running {
		b.sendEvent(protocol.EventMotorStop, 0)
	}
	b.wasRunning = running

	if b.link == nil {
		return
	}
	st := b.Status()
	if err := b.link.Send(&st); err != nil {
		core.DebugPrintln("[BOARD] telemetry: " + err.Error())
	}
}

func (b *Board) pollCommands(any) {
	if b.link == nil {
		return
	}
	b.link.Poll(b.handleMessage, func(err error) {
		b.linkErrors.Add(1)
		core.DebugPrintln("[BOARD] bad command: " + err.Error())
	})
}

func (b *Board) handleMessage(m protocol.Message) {
	cmd, ok := m.(*protocol.Command)
	if !ok {
		return
	}
	switch cmd.Op {
	case protocol.CmdSetDuty:
		b.dispatch(core.Event{Signal: SigSetDuty, Value: cmd.Value})
	case protocol.CmdMotor:
		b.dispatch(core.Event{Signal: SigMotor, Value: cmd.Value})
	case protocol.CmdReport:
		b.report(nil)
	case protocol.CmdLED:
		led := core.LED(cmd.Value >> 1)
		if led > core.LEDGreen {
			return
		}
		if cmd.Value&1 != 0 {
			b.leds.On(led)
		} else {
			b.leds.Off(led)
		}
	default:
		core.DebugPrintln("[BOARD] unknown command op")
	}
}

func (b *Board) sendEvent(kind protocol.EventKind, value int32) {
	if b.link == nil {
		return
	}
	ev := protocol.Event{Time: b.sched.Time(), Kind: kind, Value: value}
	if err := b.link.Send(&ev); err != nil {
		core.DebugPrintln("[BOARD] event: " + err.Error())
	}
}
