package logx

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "debug", JSON: true, Out: &buf}).With(String("port", "sim"))

	log.Info("status", Uint32("duty", 128), Err(errors.New("boom")), Err(nil))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("Output is not JSON: %v (%q)", err, buf.String())
	}
	if rec["message"] != "status" {
		t.Errorf("Expected message status, got %v", rec["message"])
	}
	if rec["port"] != "sim" {
		t.Errorf("Expected fixed field port=sim, got %v", rec["port"])
	}
	if rec["duty"] != float64(128) {
		t.Errorf("Expected duty 128, got %v", rec["duty"])
	}
	if rec["err"] != "boom" {
		t.Errorf("Expected err boom, got %v", rec["err"])
	}
	if c, _ := rec["caller"].(string); !strings.HasPrefix(c, "logx_test.go:") {
		t.Errorf("Expected caller in this file, got %q", c)
	}
}

func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "warn", JSON: true, Out: &buf})

	log.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("Expected info to be filtered, got %q", buf.String())
	}
	if log.Enabled(LevelDebug) {
		t.Error("Debug should not be enabled at warn")
	}
	log.Warn("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("Expected warn output, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{" WARNING ", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in, LevelInfo); got != tt.want {
			t.Errorf("ParseLevel(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestZeroLoggerIsSafe(t *testing.T) {
	var log Logger
	log.Error("nothing happens")
	log.With(Int("n", 1)).Info("still nothing")
}
