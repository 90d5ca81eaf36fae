package logger

import (
	"testing"

	"go.uber.org/zap"
)

func TestNew_Level(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		expected zap.AtomicLevel
	}{
		{"debug", "debug", zap.NewAtomicLevelAt(zap.DebugLevel)},
		{"warn", "warn", zap.NewAtomicLevelAt(zap.WarnLevel)},
		{"unknown falls back to info", "chatty", zap.NewAtomicLevelAt(zap.InfoLevel)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			log, err := New(tc.level)
			if err != nil {
				t.Fatalf("Expected logger, got error %v", err)
			}
			if log.Level() != tc.expected.Level() {
				t.Errorf("Expected level %s, got %s", tc.expected.Level(), log.Level())
			}
		})
	}
}

func TestNamed_NilBase(t *testing.T) {
	if Named(nil, "component") == nil {
		t.Errorf("Expected a no-op logger for a nil base")
	}
}
