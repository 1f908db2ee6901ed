//go:build rp2040

package main

import (
	"machine"
	"time"

	"sesboard/app"
)

// InitUSB configures machine.Serial, which is USB CDC on the RP2040
func InitUSB() {
	_ = machine.Serial.Configure(machine.UARTConfig{})
}

// usbWriter sends telemetry frames over USB. Frames are dropped while no
// host is listening so the scheduler never blocks on the link.
type usbWriter struct{}

func (usbWriter) Write(b []byte) (int, error) {
	written := 0
	for written < len(b) {
		n, err := machine.Serial.Write(b[written:])
		if err != nil || n == 0 {
			// likely disconnected, discard the rest of the frame
			return len(b), nil
		}
		written += n
	}
	return written, nil
}

// usbReaderLoop feeds received bytes to the board's command decoder
func usbReaderLoop(board *app.Board) {
	defer func() {
		if r := recover(); r != nil {
			time.Sleep(100 * time.Millisecond)
			go usbReaderLoop(board)
		}
	}()

	var buf [64]byte
	for {
		n := 0
		for n < len(buf) && machine.Serial.Buffered() > 0 {
			b, err := machine.Serial.ReadByte()
			if err != nil {
				break
			}
			buf[n] = b
			n++
		}
		if n > 0 && board.Feed(buf[:n]) < n {
			// decoder backlog, let the command task catch up
			time.Sleep(10 * time.Millisecond)
		}
		time.Sleep(100 * time.Microsecond)
	}
}
