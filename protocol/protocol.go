// Package protocol implements the board's telemetry link: length-prefixed,
// CRC-checked frames carrying VLQ-encoded messages.
package protocol

// Version is the telemetry protocol version reported by the board
const Version = "0.1.0"

// Frame layout: len | seq | payload... | crc-hi | crc-lo | sync
const (
	MessageMax         = 64 // Maximum frame size, also the scratch buffer size
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = MessageMax
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E

	// Sequence byte: low nibble counts frames, high nibble is the direction
	MessageSeqMask = 0x0F
	DestHost       = 0x00 // board -> host
	DestBoard      = 0x10 // host -> board
)
