package logrus

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/unkn0wn-root/tiercache/backend"
)

func TestLoggerForwardsFields(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	l := New(base)

	l.Info("redis connected", backend.Fields{"addr": "127.0.0.1:6379", "db": 0})

	e := hook.LastEntry()
	if e == nil {
		t.Fatalf("no entry logged")
	}
	if e.Level != logrus.InfoLevel || e.Message != "redis connected" {
		t.Fatalf("entry = %v %q", e.Level, e.Message)
	}
	if e.Data["addr"] != "127.0.0.1:6379" || e.Data["component"] != "tiercache" {
		t.Fatalf("data = %v", e.Data)
	}

	l.Debug("no fields", nil)
	if got := hook.LastEntry().Message; got != "no fields" {
		t.Fatalf("last message = %q", got)
	}
	if n := len(hook.AllEntries()); n != 2 {
		t.Fatalf("entries = %d, want 2", n)
	}
}
