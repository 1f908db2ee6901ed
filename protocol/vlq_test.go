package protocol

import (
	"errors"
	"testing"
)

func TestVLQEncodeDecodeInt(t *testing.T) {
	testCases := []int32{
		0, 1, -1, 31, -32, 95, 96, 127, -127, 128, -128,
		1000, -1000, 65535, -65535, 1000000, -1000000,
		1<<31 - 1, -1 << 31,
	}

	for _, expected := range testCases {
		output := NewScratchOutput()
		EncodeVLQInt(output, expected)
		encoded := output.Result()

		data := encoded
		decoded, err := DecodeVLQInt(&data)
		if err != nil {
			t.Errorf("Failed to decode VLQ for value %d: %v", expected, err)
			continue
		}
		if decoded != expected {
			t.Errorf("VLQ mismatch: expected %d, got %d (encoded as %v)", expected, decoded, encoded)
		}
		if len(data) != 0 {
			t.Errorf("VLQ decode left %d bytes for value %d", len(data), expected)
		}
		if len(encoded) > 5 {
			t.Errorf("Value %d encoded in %d bytes", expected, len(encoded))
		}
	}
}

func TestVLQSmallValuesOneByte(t *testing.T) {
	for _, v := range []int32{0, 1, 95, -32} {
		output := NewScratchOutput()
		EncodeVLQInt(output, v)
		if len(output.Result()) != 1 {
			t.Errorf("Expected %d in one byte, got %v", v, output.Result())
		}
	}
}

func TestVLQFields(t *testing.T) {
	output := NewScratchOutput()
	for _, v := range []int32{7, -300, 1 << 20} {
		EncodeVLQInt(output, v)
	}
	data := output.Result()

	got := make([]int32, 3)
	if n, err := DecodeVLQFields(&data, got); err != nil || n != 3 {
		t.Fatalf("DecodeVLQFields: n=%d err=%v", n, err)
	}
	if got[0] != 7 || got[1] != -300 || got[2] != 1<<20 {
		t.Errorf("Expected [7 -300 1048576], got %v", got)
	}
	if len(data) != 0 {
		t.Errorf("Expected all input consumed, %d bytes left", len(data))
	}

	short := []byte{0x05}
	if n, err := DecodeVLQFields(&short, make([]int32, 2)); !errors.Is(err, ErrBufferTooSmall) || n != 1 {
		t.Errorf("Expected ErrBufferTooSmall at field 1, got n=%d err=%v", n, err)
	}
}

func TestVLQBufferTooSmall(t *testing.T) {
	data := []byte{0x81} // continuation with nothing after it
	if _, err := DecodeVLQInt(&data); !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("Expected ErrBufferTooSmall, got %v", err)
	}

	empty := []byte{}
	if _, err := DecodeVLQInt(&empty); !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("Expected ErrBufferTooSmall on empty input, got %v", err)
	}
}

func TestVLQTooLong(t *testing.T) {
	data := []byte{0x81, 0x81, 0x81, 0x81, 0x81, 0x01}
	if _, err := DecodeVLQInt(&data); !errors.Is(err, ErrInvalidVLQ) {
		t.Errorf("Expected ErrInvalidVLQ, got %v", err)
	}
}
