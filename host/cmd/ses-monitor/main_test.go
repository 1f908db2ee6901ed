package main

import (
	"testing"

	"sesboard/core"
	"sesboard/protocol"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		args []string
		want protocol.Command
	}{
		{[]string{"duty", "128"}, protocol.Command{Op: protocol.CmdSetDuty, Value: 128}},
		{[]string{"duty", "0xff"}, protocol.Command{Op: protocol.CmdSetDuty, Value: 255}},
		{[]string{"motor", "on"}, protocol.Command{Op: protocol.CmdMotor, Value: 1}},
		{[]string{"motor", "off"}, protocol.Command{Op: protocol.CmdMotor, Value: 0}},
		{[]string{"led", "Yellow", "on"}, protocol.Command{Op: protocol.CmdLED, Value: int32(core.LEDYellow)<<1 | 1}},
		{[]string{"led", "green", "0"}, protocol.Command{Op: protocol.CmdLED, Value: int32(core.LEDGreen) << 1}},
		{[]string{"report"}, protocol.Command{Op: protocol.CmdReport}},
	}

	for _, tt := range tests {
		got, err := parseCommand(tt.args)
		if err != nil {
			t.Errorf("parseCommand(%v) failed: %v", tt.args, err)
			continue
		}
		if *got != tt.want {
			t.Errorf("parseCommand(%v): expected %+v, got %+v", tt.args, tt.want, *got)
		}
	}
}

func TestParseCommandErrors(t *testing.T) {
	bad := [][]string{
		nil,
		{"duty"},
		{"duty", "256"},
		{"motor", "maybe"},
		{"led", "blue", "on"},
		{"led", "red"},
		{"fly"},
	}
	for _, args := range bad {
		if _, err := parseCommand(args); err == nil {
			t.Errorf("parseCommand(%v): expected error", args)
		}
	}
}
