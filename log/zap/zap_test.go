package zap

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/unkn0wn-root/tiercache/backend"
)

func TestLoggerWritesFieldsAtLevel(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := New(zap.New(core))

	l.Debug("dropped", backend.Fields{"k": 1})
	l.Warn("remote cache operation failed", backend.Fields{"op": "set", "key": "user:1"})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.Level != zapcore.WarnLevel || e.Message != "remote cache operation failed" {
		t.Fatalf("entry = %v %q", e.Level, e.Message)
	}
	if e.LoggerName != "tiercache" {
		t.Fatalf("logger name = %q", e.LoggerName)
	}
	ctx := e.ContextMap()
	if ctx["op"] != "set" || ctx["key"] != "user:1" {
		t.Fatalf("fields = %v", ctx)
	}
}

func TestNewNilIsNop(t *testing.T) {
	New(nil).Error("ignored", nil)
}
