package core

import "time"

// PWMDriver is the abstract PWM interface that core code uses
type PWMDriver interface {
	// Configure starts a PWM carrier with the given period on pin
	Configure(pin GPIOPin, period time.Duration)

	// SetDuty sets the duty cycle, 0 (off) to 255 (fully on)
	SetDuty(pin GPIOPin, duty uint8)
}
