package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInit(t *testing.T) {
	if err := Init(Config{Level: "WARN"}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if L().Core().Enabled(zap.InfoLevel) {
		t.Error("info should be disabled at warn level")
	}
	if !L().Core().Enabled(zap.WarnLevel) {
		t.Error("warn should be enabled")
	}

	if err := Init(Config{Level: "loud"}); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestSet(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	Set(zap.New(core))
	defer Set(zap.NewNop())

	Named("tracker").Info("activated", zap.String("side", "Left"))
	S().Infow("reset")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].LoggerName != "tracker" {
		t.Errorf("expected logger name tracker, got %q", entries[0].LoggerName)
	}
	if entries[0].ContextMap()["side"] != "Left" {
		t.Errorf("expected side field, got %v", entries[0].ContextMap())
	}
}
