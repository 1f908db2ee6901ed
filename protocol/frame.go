package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrFrameTooLong = errors.New("frame too long")
	ErrBadCRC       = errors.New("frame CRC mismatch")
)

// Frame is one decoded frame
type Frame struct {
	Seq     uint8
	Payload []byte
}

// EncodeFrame writes a complete frame carrying payload to output
func EncodeFrame(output OutputBuffer, seq uint8, payload []byte) error {
	msgLen := MessageHeaderSize + len(payload) + MessageTrailerSize
	if msgLen > MessageLengthMax {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrFrameTooLong, msgLen, MessageLengthMax)
	}

	cursor := output.CurPosition()
	output.Output([]byte{uint8(msgLen), seq})
	output.Output(payload)

	crc := CRC16(output.DataSince(cursor))
	output.Output([]byte{
		uint8((crc & 0xFF00) >> 8),
		uint8(crc & 0xFF),
		MessageValueSync,
	})
	return nil
}

// AppendFrame appends a complete frame carrying payload to dst
func AppendFrame(dst []byte, seq uint8, payload []byte) ([]byte, error) {
	out := NewScratchOutput()
	if err := EncodeFrame(out, seq, payload); err != nil {
		return dst, err
	}
	return append(dst, out.Result()...), nil
}

// DecoderStats counts what a Decoder has seen
type DecoderStats struct {
	Frames  uint32 // valid frames delivered
	BadCRC  uint32 // frames dropped on checksum
	Resyncs uint32 // times the decoder lost framing
}

// Decoder splits a byte stream into frames. After any framing error it
// discards input up to the next sync byte.
type Decoder struct {
	lost  bool
	stats DecoderStats
}

// Stats returns the decoder counters
func (d *Decoder) Stats() DecoderStats {
	return d.stats
}

// Decode consumes every complete frame in input and calls fn for each.
// A trailing partial frame is left in input for the next call. Payloads
// alias input and are only valid during fn.
func (d *Decoder) Decode(input InputBuffer, fn func(Frame)) {
	data := input.Data()
	start := len(data)

	for len(data) > 0 {
		if d.lost {
			syncPos := -1
			for i, b := range data {
				if b == MessageValueSync {
					syncPos = i
					break
				}
			}
			if syncPos < 0 {
				data = nil
				break
			}
			data = data[syncPos+1:]
			d.lost = false
			continue
		}

		// Skip leading sync bytes
		if data[0] == MessageValueSync {
			data = data[1:]
			continue
		}

		if len(data) < MessageLengthMin {
			break
		}

		msgLen := int(data[MessagePositionLen])
		if msgLen < MessageLengthMin || msgLen > MessageLengthMax {
			d.desync()
			continue
		}
		if len(data) < msgLen {
			break
		}

		if data[msgLen-MessageTrailerSync] != MessageValueSync {
			d.desync()
			continue
		}

		frameCRC := uint16(data[msgLen-MessageTrailerCRC])<<8 |
			uint16(data[msgLen-MessageTrailerCRC+1])
		if frameCRC != CRC16(data[:msgLen-MessageTrailerSize]) {
			d.stats.BadCRC++
			d.desync()
			continue
		}

		frame := Frame{
			Seq:     data[MessagePositionSeq],
			Payload: data[MessageHeaderSize : msgLen-MessageTrailerSize],
		}
		data = data[msgLen:]
		d.stats.Frames++
		fn(frame)
	}

	if consumed := start - len(data); consumed > 0 {
		input.Pop(consumed)
	}
}

// Reset returns the decoder to the synchronized state
func (d *Decoder) Reset() {
	d.lost = false
}

func (d *Decoder) desync() {
	d.lost = true
	d.stats.Resyncs++
}
