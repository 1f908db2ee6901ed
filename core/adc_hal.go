package core

// ADCChannel identifies a logical ADC channel
type ADCChannel uint8

// ADCDriver is the abstract ADC interface that core code uses
type ADCDriver interface {
	// Read performs a one-shot conversion and returns the 10-bit result
	Read(ch ADCChannel) uint16
}

// CaptureClock is a free-running counter used to time tach edges
type CaptureClock interface {
	// Ticks returns the counter value; it may wrap
	Ticks() uint32

	// Hz returns the counter rate
	Hz() uint32
}
