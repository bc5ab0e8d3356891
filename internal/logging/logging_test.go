package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "vterm.log")

	logger, err := New(Options{Level: "debug", JSON: true, Path: path})
	if err != nil {
		t.Fatalf("new logger failed: %v", err)
	}
	logger.Debug("dispatched", zap.String("verb", "ls"))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log failed: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"dispatched"`) || !strings.Contains(string(data), `"verb":"ls"`) {
		t.Fatalf("expected json entry in log, got %q", string(data))
	}
}

func TestNewRespectsLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vterm.log")

	logger, err := New(Options{Level: "warn", Path: path})
	if err != nil {
		t.Fatalf("new logger failed: %v", err)
	}
	logger.Info("quiet")
	logger.Warn("loud")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log failed: %v", err)
	}
	if strings.Contains(string(data), "quiet") {
		t.Fatalf("expected info entry to be filtered, got %q", string(data))
	}
	if !strings.Contains(string(data), "loud") {
		t.Fatalf("expected warn entry, got %q", string(data))
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(Options{Level: "chatty"}); err == nil {
		t.Fatalf("expected unknown level to fail")
	}
}
