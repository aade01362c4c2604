package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/u-blox/ucxclient-go/internal/config"
)

func TestNew(t *testing.T) {
	t.Run("Rejects an unknown level", func(t *testing.T) {
		if _, err := New(config.LoggingConfig{Level: "chatty"}); err == nil {
			t.Error("expected an error for an unknown level")
		}
	})

	t.Run("Rejects an unknown format", func(t *testing.T) {
		if _, err := New(config.LoggingConfig{Level: "info", Format: "xml"}); err == nil {
			t.Error("expected an error for an unknown format")
		}
	})

	t.Run("Writes JSON lines to the configured file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ucx.log")
		logger, err := New(config.LoggingConfig{Level: "debug", Format: "json", File: path})
		if err != nil {
			t.Fatalf("unexpected error from New(): %v", err)
		}
		logger.Info("bridge session opened")

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read the log file: %v", err)
		}
		if !strings.Contains(string(data), "bridge session opened") {
			t.Errorf("expected the message in the file, got %q", data)
		}
		if !strings.Contains(string(data), "\"level\":\"info\"") {
			t.Errorf("expected JSON encoding, got %q", data)
		}
	})
}
