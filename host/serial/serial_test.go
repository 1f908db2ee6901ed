package serial

import (
	"testing"
	"time"

	"sesboard/config"
)

func TestFromHost(t *testing.T) {
	cfg := FromHost(config.SerialConfig{Device: "/dev/ttyACM1", Timeout: 250 * time.Millisecond})
	if cfg.Device != "/dev/ttyACM1" {
		t.Errorf("Expected device /dev/ttyACM1, got %s", cfg.Device)
	}
	if cfg.Baud != 115200 {
		t.Errorf("Expected default baud, got %d", cfg.Baud)
	}
	if cfg.ReadTimeout != 250*time.Millisecond {
		t.Errorf("Expected 250ms timeout, got %v", cfg.ReadTimeout)
	}
}

func TestOpenNilConfig(t *testing.T) {
	if _, err := Open(nil); err == nil {
		t.Error("Expected error for nil config")
	}
}
