package core

// GPIOPin identifies a hardware GPIO pin number
type GPIOPin uint8

// PinMode selects the direction of a pin
type PinMode uint8

const (
	PinInput PinMode = iota
	PinInputPullUp
	PinOutput
)

// Edge selects which transitions raise a pin interrupt
type Edge uint8

const (
	EdgeRising Edge = iota
	EdgeFalling
	EdgeBoth
)

// GPIODriver is the abstract GPIO interface that core code uses.
// Platform-specific implementations handle actual hardware control.
type GPIODriver interface {
	// SetDirection configures a pin as input, pulled-up input or output
	SetDirection(pin GPIOPin, mode PinMode)

	// Read returns the electrical level of the pin (true = high)
	Read(pin GPIOPin) bool

	// Write drives an output pin high (true) or low (false)
	Write(pin GPIOPin, level bool)
}

// EdgeDriver delivers pin-change interrupts. Handlers run in interrupt
// context and must not block.
type EdgeDriver interface {
	// SetEdgeHandler installs fn for pin, replacing any previous handler.
	// A nil fn disables the interrupt.
	SetEdgeHandler(pin GPIOPin, edge Edge, fn func(pin GPIOPin))
}

// HAL bundles the hardware interfaces a board is built from
type HAL struct {
	GPIO   GPIODriver
	Edges  EdgeDriver
	PWM    PWMDriver
	ADC    ADCDriver
	Clock  CaptureClock
	Timers TimerDriver
}
