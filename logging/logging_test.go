package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	logger, err := New(false)
	if err != nil {
		t.Fatalf("Failed to build logger: %v", err)
	}
	if logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("Debug level should be disabled by default")
	}
	if !logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("Info level should be enabled")
	}

	debugLogger, err := New(true)
	if err != nil {
		t.Fatalf("Failed to build debug logger: %v", err)
	}
	if !debugLogger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("Debug level should be enabled in debug mode")
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("Expected a no-op logger")
	}

	logger, _ := New(false)
	if OrNop(logger) != logger {
		t.Error("Expected the given logger back")
	}
}
