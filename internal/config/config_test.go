package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Run("Defaults apply without a file", func(t *testing.T) {
		c, err := Load("")
		if err != nil {
			t.Fatalf("unexpected error from Load(): %v", err)
		}
		if c.Serial.Port != "/dev/ttyUSB0" || c.Serial.Baud != 115200 {
			t.Errorf("unexpected serial defaults: %+v", c.Serial)
		}
		if c.Client.Timeout != 5*time.Second {
			t.Errorf("expected 5s timeout, got %s", c.Client.Timeout)
		}
		if c.Bridge.Listen != "0.0.0.0:8765" {
			t.Errorf("unexpected bridge default: %q", c.Bridge.Listen)
		}
		if c.Logging.Level != "info" || c.Logging.Format != "json" {
			t.Errorf("unexpected logging defaults: %+v", c.Logging)
		}
	})

	t.Run("File values override defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ucx.yaml")
		data := "serial:\n  port: /dev/ttyACM3\nclient:\n  timeout: 750ms\nlogging:\n  format: console\n"
		if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
			t.Fatalf("failed to write config file: %v", err)
		}

		c, err := Load(path)
		if err != nil {
			t.Fatalf("unexpected error from Load(): %v", err)
		}
		if c.Serial.Port != "/dev/ttyACM3" {
			t.Errorf("file port not applied, got %q", c.Serial.Port)
		}
		if c.Client.Timeout != 750*time.Millisecond {
			t.Errorf("file timeout not applied, got %s", c.Client.Timeout)
		}
		if c.Logging.Format != "console" {
			t.Errorf("file format not applied, got %q", c.Logging.Format)
		}
		if c.Serial.Baud != 115200 {
			t.Errorf("untouched defaults must survive, got baud %d", c.Serial.Baud)
		}
	})

	t.Run("Environment overrides file and defaults", func(t *testing.T) {
		t.Setenv("UCX_SERIAL_PORT", "/dev/ttyS7")
		t.Setenv("UCX_SERIAL_BAUD", "921600")

		c, err := Load("")
		if err != nil {
			t.Fatalf("unexpected error from Load(): %v", err)
		}
		if c.Serial.Port != "/dev/ttyS7" {
			t.Errorf("env port not applied, got %q", c.Serial.Port)
		}
		if c.Serial.Baud != 921600 {
			t.Errorf("env baud not applied, got %d", c.Serial.Baud)
		}
	})

	t.Run("Missing file is an error", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
			t.Error("expected an error for a missing config file")
		}
	})

	t.Run("Invalid values are rejected", func(t *testing.T) {
		t.Setenv("UCX_SERIAL_BAUD", "0")
		if _, err := Load(""); err == nil {
			t.Error("expected an error for a zero baud rate")
		}
	})
}
