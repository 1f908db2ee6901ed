package core

// LED names one of the board's status LEDs
type LED uint8

const (
	LEDRed LED = iota
	LEDYellow
	LEDGreen
	numLEDs
)

func (l LED) String() string {
	switch l {
	case LEDRed:
		return "red"
	case LEDYellow:
		return "yellow"
	case LEDGreen:
		return "green"
	default:
		return "unknown"
	}
}

// LEDs drives the three active-low status LEDs. Methods may be called from
// interrupt handlers.
type LEDs struct {
	cs   critical
	gpio GPIODriver
	pins [numLEDs]GPIOPin
	on   [numLEDs]bool
}

// NewLEDs configures the LED pins as outputs with every LED off
func NewLEDs(gpio GPIODriver, red, yellow, green GPIOPin) *LEDs {
	l := &LEDs{gpio: gpio, pins: [numLEDs]GPIOPin{red, yellow, green}}
	for i, pin := range l.pins {
		gpio.SetDirection(pin, PinOutput)
		gpio.Write(pin, true)
		l.on[i] = false
	}
	return l
}

// On lights led
func (l *LEDs) On(led LED) {
	l.set(led, true)
}

// Off turns led off
func (l *LEDs) Off(led LED) {
	l.set(led, false)
}

// Toggle inverts led
func (l *LEDs) Toggle(led LED) {
	if led >= numLEDs {
		return
	}
	state := l.cs.enter()
	defer l.cs.exit(state)
	l.write(led, !l.on[led])
}

// IsOn reports whether led is lit
func (l *LEDs) IsOn(led LED) bool {
	if led >= numLEDs {
		return false
	}
	state := l.cs.enter()
	defer l.cs.exit(state)
	return l.on[led]
}

// Mask returns the lit LEDs as a bitmask, bit n for LED n
func (l *LEDs) Mask() uint8 {
	state := l.cs.enter()
	defer l.cs.exit(state)

	var m uint8
	for i, on := range l.on {
		if on {
			m |= 1 << i
		}
	}
	return m
}

func (l *LEDs) set(led LED, on bool) {
	if led >= numLEDs {
		return
	}
	state := l.cs.enter()
	defer l.cs.exit(state)
	l.write(led, on)
}

// write drives the pin low to light the LED
func (l *LEDs) write(led LED, on bool) {
	l.on[led] = on
	l.gpio.Write(l.pins[led], !on)
}
