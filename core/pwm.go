package core

import (
	"sync/atomic"
	"time"
)

// MotorPWM drives the motor transistor from a PWM output
type MotorPWM struct {
	driver PWMDriver
	pin    GPIOPin
	duty   atomic.Uint32
}

// NewMotorPWM starts the PWM carrier on pin with the motor stopped
func NewMotorPWM(driver PWMDriver, pin GPIOPin, period time.Duration) *MotorPWM {
	m := &MotorPWM{driver: driver, pin: pin}
	driver.Configure(pin, period)
	driver.SetDuty(pin, 0)
	return m
}

// SetDutyCycle sets the motor drive, 0 stopped to 255 full speed
func (m *MotorPWM) SetDutyCycle(duty uint8) {
	m.duty.Store(uint32(duty))
	m.driver.SetDuty(m.pin, duty)
}

// DutyCycle returns the last duty set
func (m *MotorPWM) DutyCycle() uint8 {
	return uint8(m.duty.Load())
}

// Step adds delta to the duty, saturating at 0 and 255, and returns the
// new duty
func (m *MotorPWM) Step(delta int) uint8 {
	d := int(m.DutyCycle()) + delta
	if d < 0 {
		d = 0
	}
	if d > 255 {
		d = 255
	}
	m.SetDutyCycle(uint8(d))
	return uint8(d)
}
