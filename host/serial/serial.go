// Package serial opens the board's USB CDC port
package serial

import (
	"io"
	"time"

	"sesboard/config"
)

// Port is the byte stream to the board. Tests substitute an in-memory
// implementation.
type Port interface {
	io.ReadWriteCloser

	// Flush flushes any buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate, ignored by USB CDC
	Baud int

	// ReadTimeout bounds each Read; 0 blocks
	ReadTimeout time.Duration
}

// DefaultConfig returns the settings for the board's CDC port
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100 * time.Millisecond,
	}
}

// FromHost converts the host configuration section
func FromHost(c config.SerialConfig) *Config {
	cfg := DefaultConfig(c.Device)
	if c.Baud > 0 {
		cfg.Baud = c.Baud
	}
	if c.Timeout > 0 {
		cfg.ReadTimeout = c.Timeout
	}
	return cfg
}
