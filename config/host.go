package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Host is the configuration of the ses-monitor tool
type Host struct {
	Serial   SerialConfig   `yaml:"serial"`
	Log      LogConfig      `yaml:"log"`
	Recorder RecorderConfig `yaml:"recorder"`
	Board    string         `yaml:"board"` // board JSON used by sim, optional
}

// SerialConfig selects the board's serial port
type SerialConfig struct {
	Device  string        `yaml:"device"`
	Baud    int           `yaml:"baud"`
	Timeout time.Duration `yaml:"timeout"`
}

// LogConfig controls host logging
type LogConfig struct {
	Level      string `yaml:"level"`
	JSON       bool   `yaml:"json"`
	FramesPerS int    `yaml:"frames_per_second"` // status log rate, 0 uses the default
}

// RecorderConfig controls the telemetry database
type RecorderConfig struct {
	Path      string        `yaml:"path"`
	Retention time.Duration `yaml:"retention"`
	Prune     string        `yaml:"prune"` // cron spec
}

// DefaultHost returns the settings used with no config file
func DefaultHost() *Host {
	h := &Host{}
	applyHostDefaults(h)
	return h
}

// LoadHost parses YAML host configuration. Unknown keys are an error.
func LoadHost(r io.Reader) (*Host, error) {
	var h Host
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&h); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("host config: %w", err)
	}
	applyHostDefaults(&h)
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return &h, nil
}

// LoadHostFile reads path, or returns defaults when path is empty
func LoadHostFile(path string) (*Host, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultHost(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadHost(bytes.NewReader(data))
}

func applyHostDefaults(h *Host) {
	if h.Serial.Device == "" {
		h.Serial.Device = "/dev/ttyACM0"
	}
	if h.Serial.Baud == 0 {
		h.Serial.Baud = 115200
	}
	if h.Serial.Timeout == 0 {
		h.Serial.Timeout = 100 * time.Millisecond
	}
	if h.Log.Level == "" {
		h.Log.Level = "info"
	}
	if h.Log.FramesPerS == 0 {
		h.Log.FramesPerS = 2
	}
	if h.Recorder.Path == "" {
		h.Recorder.Path = "sesboard.db"
	}
	if h.Recorder.Retention == 0 {
		h.Recorder.Retention = 7 * 24 * time.Hour
	}
	if h.Recorder.Prune == "" {
		h.Recorder.Prune = "@hourly"
	}
}

// Validate rejects settings the tools cannot run with
func (h *Host) Validate() error {
	if h.Serial.Baud < 0 {
		return fmt.Errorf("host config: baud %d", h.Serial.Baud)
	}
	if h.Recorder.Retention < 0 {
		return fmt.Errorf("host config: negative retention")
	}
	switch strings.ToLower(h.Log.Level) {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("host config: unknown log level %q", h.Log.Level)
	}
	return nil
}
