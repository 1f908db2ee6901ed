// Package mcu is the host end of the telemetry link to a board
package mcu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"sesboard/host/serial"
	"sesboard/protocol"
)

var ErrNotConnected = errors.New("not connected to board")

// MCU is a connection to one board. Received messages are delivered to the
// handler from the reader goroutine.
type MCU struct {
	mu      sync.Mutex
	port    io.ReadWriteCloser
	link    *protocol.Link
	handler func(protocol.Message)
	onError func(error)

	lastSeen time.Time
	done     chan struct{}
}

// NewMCU creates an unconnected MCU
func NewMCU() *MCU {
	return &MCU{}
}

// SetHandler installs the receiver of decoded messages. Call before Connect.
func (m *MCU) SetHandler(fn func(protocol.Message)) {
	m.handler = fn
}

// SetErrorHandler installs the receiver of payload decode errors
func (m *MCU) SetErrorHandler(fn func(error)) {
	m.onError = fn
}

// Connect opens the serial device and starts reading
func (m *MCU) Connect(ctx context.Context, cfg *serial.Config) error {
	port, err := serial.Open(cfg)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	return m.Attach(ctx, port)
}

// Attach uses an already open stream, such as a simulator pipe
func (m *MCU) Attach(ctx context.Context, port io.ReadWriteCloser) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.port != nil {
		return errors.New("already connected")
	}
	m.port = port
	m.link = protocol.NewLink(port, protocol.DestBoard)
	m.done = make(chan struct{})
	go m.readLoop(ctx, port, m.link, m.done)
	return nil
}

// Close stops the reader and closes the port
func (m *MCU) Close() error {
	m.mu.Lock()
	port, done := m.port, m.done
	m.port = nil
	m.mu.Unlock()

	if port == nil {
		return nil
	}
	err := port.Close()
	<-done
	return err
}

// Wait blocks until the reader stops, normally at EOF or Close
func (m *MCU) Wait() {
	m.mu.Lock()
	done := m.done
	m.mu.Unlock()
	if done != nil {
		<-done
	}
}

// IsConnected reports whether a port is open
func (m *MCU) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.port != nil
}

// LastSeen returns when the last frame arrived
func (m *MCU) LastSeen() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSeen
}

// Stats returns the link decoder counters
func (m *MCU) Stats() protocol.DecoderStats {
	m.mu.Lock()
	link := m.link
	m.mu.Unlock()
	if link == nil {
		return protocol.DecoderStats{}
	}
	return link.Stats()
}

// Send writes a command to the board
func (m *MCU) Send(cmd *protocol.Command) error {
	m.mu.Lock()
	link := m.link
	connected := m.port != nil
	m.mu.Unlock()
	if !connected {
		return ErrNotConnected
	}
	return link.Send(cmd)
}

// SetDuty sets the motor duty, 0..255
func (m *MCU) SetDuty(duty uint8) error {
	return m.Send(&protocol.Command{Op: protocol.CmdSetDuty, Value: int32(duty)})
}

// Motor starts or stops the fan
func (m *MCU) Motor(on bool) error {
	v := int32(0)
	if on {
		v = 1
	}
	return m.Send(&protocol.Command{Op: protocol.CmdMotor, Value: v})
}

// RequestStatus asks for an immediate Status report
func (m *MCU) RequestStatus() error {
	return m.Send(&protocol.Command{Op: protocol.CmdReport})
}

// SetLED switches one of the board LEDs
func (m *MCU) SetLED(led uint8, on bool) error {
	v := int32(led) << 1
	if on {
		v |= 1
	}
	return m.Send(&protocol.Command{Op: protocol.CmdLED, Value: v})
}

func (m *MCU) readLoop(ctx context.Context, r io.Reader, link *protocol.Link, done chan struct{}) {
	defer close(done)
	buf := make([]byte, 128)
	for ctx.Err() == nil {
		n, err := r.Read(buf)
		if n > 0 {
			data := buf[:n]
			for len(data) > 0 {
				fed := link.Feed(data)
				data = data[fed:]
				link.Poll(m.deliver, m.onError)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil || !m.IsConnected() {
				return
			}
			if m.onError != nil {
				m.onError(err)
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func (m *MCU) deliver(msg protocol.Message) {
	m.mu.Lock()
	m.lastSeen = time.Now()
	m.mu.Unlock()
	if m.handler != nil {
		m.handler(msg)
	}
}
