package protocol

import (
	"fmt"
	"io"
	"sync"
)

// Link is one end of a telemetry connection. Feed takes raw bytes from a
// reader goroutine; Poll decodes them from the consumer's context.
type Link struct {
	dest uint8 // direction bits of outgoing frames

	wmu     sync.Mutex
	w       io.Writer
	seq     uint8
	payload *ScratchOutput
	frame   *ScratchOutput

	rmu sync.Mutex
	in  *FifoBuffer
	dec Decoder
}

// NewLink creates a link writing frames addressed to dest to w
func NewLink(w io.Writer, dest uint8) *Link {
	return &Link{
		dest:    dest & ^uint8(MessageSeqMask),
		w:       w,
		payload: NewScratchOutput(),
		frame:   NewScratchOutput(),
		in:      NewFifoBuffer(256),
	}
}

// Send frames m and writes it
func (l *Link) Send(m Message) error {
	l.wmu.Lock()
	defer l.wmu.Unlock()

	l.payload.Reset()
	l.frame.Reset()
	m.Encode(l.payload)

	seq := l.dest | (l.seq & MessageSeqMask)
	if err := EncodeFrame(l.frame, seq, l.payload.Result()); err != nil {
		return fmt.Errorf("send message %d: %w", m.ID(), err)
	}
	l.seq++

	if _, err := l.w.Write(l.frame.Result()); err != nil {
		return fmt.Errorf("send message %d: %w", m.ID(), err)
	}
	return nil
}

// Feed queues received bytes and returns how many fit
func (l *Link) Feed(data []byte) int {
	l.rmu.Lock()
	defer l.rmu.Unlock()
	return l.in.Write(data)
}

// Poll decodes every complete frame received so far. Malformed payloads
// are passed to onError, which may be nil.
func (l *Link) Poll(fn func(Message), onError func(error)) {
	l.rmu.Lock()
	defer l.rmu.Unlock()

	l.dec.Decode(l.in, func(f Frame) {
		m, err := DecodeMessage(f.Payload)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		fn(m)
	})
}

// Stats returns the receive decoder counters
func (l *Link) Stats() DecoderStats {
	l.rmu.Lock()
	defer l.rmu.Unlock()
	return l.dec.Stats()
}
