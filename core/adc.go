package core

// ADC channels of the sensor cluster
const (
	ADCMicrophone0 ADCChannel = 0
	ADCMicrophone1 ADCChannel = 1
	ADCTemperature ADCChannel = 2
	ADCLight       ADCChannel = 4
	ADCJoystick    ADCChannel = 5
	ADCNumChannels            = 8
)

// ADCInvalidChannel is returned by Read for a channel outside the mux
const ADCInvalidChannel uint16 = 0xFFFF

// Direction is a joystick position
type Direction uint8

const (
	DirectionRight Direction = iota
	DirectionUp
	DirectionLeft
	DirectionDown
	DirectionNone
)

func (d Direction) String() string {
	switch d {
	case DirectionRight:
		return "right"
	case DirectionUp:
		return "up"
	case DirectionLeft:
		return "left"
	case DirectionDown:
		return "down"
	default:
		return "none"
	}
}

// Joystick resistor ladder readings
const (
	joystickRight     = 200
	joystickUp        = 400
	joystickLeft      = 600
	joystickDown      = 800
	joystickTolerance = 50
)

// Temperature calibration points of the thermistor divider
const (
	TempMaxC      = 40
	TempMinC      = 20
	TempRawAtMax  = 257
	TempRawAtMin  = 482
	TempPerDegree = 10 // Temperature returns tenths of a degree
)

// Sensors reads the analog sensor cluster
type Sensors struct {
	adc ADCDriver
}

// NewSensors wraps an ADC driver
func NewSensors(adc ADCDriver) *Sensors {
	return &Sensors{adc: adc}
}

// Read converts channel ch, returning ADCInvalidChannel for an unknown
// channel
func (s *Sensors) Read(ch ADCChannel) uint16 {
	if ch >= ADCNumChannels {
		return ADCInvalidChannel
	}
	return s.adc.Read(ch)
}

// Joystick reads the joystick ladder and decodes its direction
func (s *Sensors) Joystick() Direction {
	return JoystickDirection(s.Read(ADCJoystick))
}

// Temperature reads the thermistor in tenths of a degree Celsius
func (s *Sensors) Temperature() int32 {
	return Temperature(s.Read(ADCTemperature))
}

// Light returns the raw light sensor reading
func (s *Sensors) Light() uint16 {
	return s.Read(ADCLight)
}

// JoystickDirection decodes a raw joystick reading
func JoystickDirection(raw uint16) Direction {
	switch {
	case raw < joystickRight+joystickTolerance:
		return DirectionRight
	case raw < joystickUp+joystickTolerance:
		return DirectionUp
	case raw < joystickLeft+joystickTolerance:
		return DirectionLeft
	case raw < joystickDown+joystickTolerance:
		return DirectionDown
	default:
		return DirectionNone
	}
}

// Temperature maps a raw thermistor reading to tenths of a degree by linear
// interpolation through the two calibration points. The divider reads lower
// as it gets warmer.
func Temperature(raw uint16) int32 {
	r := int32(raw)
	num := (r - TempRawAtMin) * (TempMaxC - TempMinC) * TempPerDegree
	return TempMinC*TempPerDegree + num/(TempRawAtMax-TempRawAtMin)
}
