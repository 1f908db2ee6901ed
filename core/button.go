package core

// Button bits in the sampled mask
const (
	ButtonJoystick uint8 = 0
	ButtonRotary   uint8 = 1
)

// Buttons reads the joystick push and rotary push buttons. Both are active
// low with pull-ups.
type Buttons struct {
	gpio     GPIODriver
	joystick GPIOPin
	rotary   GPIOPin

	deb   *Debouncer
	group *Group

	// direct mode only, touched from the edge interrupt
	last uint8
}

// NewButtons configures both button pins as pulled-up inputs
func NewButtons(gpio GPIODriver, joystick, rotary GPIOPin) *Buttons {
	gpio.SetDirection(joystick, PinInputPullUp)
	gpio.SetDirection(rotary, PinInputPullUp)

	b := &Buttons{gpio: gpio, joystick: joystick, rotary: rotary}
	b.deb = NewDebouncer(b.Sample)
	return b
}

// JoystickPressed reads the live joystick button
func (b *Buttons) JoystickPressed() bool {
	return !b.gpio.Read(b.joystick)
}

// RotaryPressed reads the live rotary push button
func (b *Buttons) RotaryPressed() bool {
	return !b.gpio.Read(b.rotary)
}

// Sample returns the live button mask
func (b *Buttons) Sample() uint8 {
	var s uint8
	if b.JoystickPressed() {
		s |= 1 << ButtonJoystick
	}
	if b.RotaryPressed() {
		s |= 1 << ButtonRotary
	}
	return s
}

// SetJoystickCallback installs the joystick press callback
func (b *Buttons) SetJoystickCallback(fn func()) {
	b.deb.SetCallback(ButtonJoystick, fn)
}

// SetRotaryCallback installs the rotary button press callback
func (b *Buttons) SetRotaryCallback(fn func()) {
	b.deb.SetCallback(ButtonRotary, fn)
}

// Debouncer exposes the filter, mainly for its State
func (b *Buttons) Debouncer() *Debouncer {
	return b.deb
}

// StartDebounced polls the buttons through sched on every fire of timer.
// Callbacks run in the scheduler's Run context.
func (b *Buttons) StartDebounced(sched *Scheduler, timer *Timer) {
	if b.group == nil {
		b.group = NewGroup(b.deb, sched)
	}
	b.group.StartOnTimer(timer)
}

// StartDirect fires callbacks straight from the pin-change interrupt with
// no filtering. Callbacks then run in interrupt context.
func (b *Buttons) StartDirect(edges EdgeDriver) {
	b.last = b.Sample()
	edges.SetEdgeHandler(b.joystick, EdgeBoth, b.onEdge)
	edges.SetEdgeHandler(b.rotary, EdgeBoth, b.onEdge)
}

// Stop halts whichever mode is running
func (b *Buttons) Stop(edges EdgeDriver) {
	if b.group != nil {
		b.group.Stop()
	}
	if edges != nil {
		edges.SetEdgeHandler(b.joystick, EdgeBoth, nil)
		edges.SetEdgeHandler(b.rotary, EdgeBoth, nil)
	}
}

func (b *Buttons) onEdge(GPIOPin) {
	now := b.Sample()
	prev := b.last
	b.last = now
	if now != prev {
		b.deb.notify(prev, now)
	}
}
