package sim

import (
	"math"
	"sync"
	"time"

	"sesboard/core"
)

// FanModel is a first-order model of the motor, its tach output and the
// heat it removes. Step advances it and drives the tach pin.
type FanModel struct {
	mu sync.Mutex

	gpio  *GPIO
	pwm   *PWM
	adc   *ADC
	motor core.GPIOPin
	tach  core.GPIOPin

	MaxRPS   float64       // revolutions per second at full duty
	Lag      time.Duration // speed time constant
	Ambient  float64       // deci-degrees with the fan at full speed
	HeatLoad float64       // deci-degrees added with the fan stopped

	rps   float64
	phase float64 // tach half-periods accumulated
	level bool
}

// NewFanModel attaches a fan to the motor PWM pin and the tach input
func NewFanModel(h *HAL, motor, tach core.GPIOPin) *FanModel {
	return &FanModel{
		gpio:     h.GPIO,
		pwm:      h.PWM,
		adc:      h.ADC,
		motor:    motor,
		tach:     tach,
		MaxRPS:   40,
		Lag:      300 * time.Millisecond,
		Ambient:  250,
		HeatLoad: 70,
	}
}

// RPS returns the modelled speed
func (f *FanModel) RPS() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rps
}

// Temperature returns the modelled board temperature in deci-degrees
func (f *FanModel) Temperature() int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.temperature()
}

func (f *FanModel) temperature() int32 {
	cooling := 1.0
	if f.MaxRPS > 0 {
		cooling = f.rps / f.MaxRPS
	}
	return int32(math.Round(f.Ambient + f.HeatLoad*(1-cooling)))
}

// Step advances the model by dt, toggling the tach pin for every half
// pulse that elapsed and updating the thermistor reading
func (f *FanModel) Step(dt time.Duration) {
	f.mu.Lock()
	target := float64(f.pwm.Duty(f.motor)) / 255 * f.MaxRPS
	alpha := 1.0
	if f.Lag > 0 {
		alpha = 1 - math.Exp(-dt.Seconds()/f.Lag.Seconds())
	}
	f.rps += (target - f.rps) * alpha
	if f.rps < 0.05 && target == 0 {
		f.rps = 0
	}

	f.phase += f.rps * core.PulsesPerRevolution * 2 * dt.Seconds()
	toggles := int(f.phase)
	f.phase -= float64(toggles)
	temp := f.temperature()
	f.mu.Unlock()

	for i := 0; i < toggles; i++ {
		f.level = !f.level
		f.gpio.Drive(f.tach, f.level)
	}
	f.adc.SetTemperature(temp)
}
