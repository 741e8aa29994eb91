// Package logrus adapts a logrus entry to backend.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/tiercache/backend"
)

type Logger struct{ E *logrus.Entry }

var _ backend.Logger = Logger{}

// New wraps l with a component=tiercache field. A nil l uses the standard logger.
func New(l *logrus.Logger) Logger {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return Logger{E: l.WithField("component", "tiercache")}
}

func (l Logger) Debug(msg string, f backend.Fields) { l.with(f).Debug(msg) }
func (l Logger) Info(msg string, f backend.Fields)  { l.with(f).Info(msg) }
func (l Logger) Warn(msg string, f backend.Fields)  { l.with(f).Warn(msg) }
func (l Logger) Error(msg string, f backend.Fields) { l.with(f).Error(msg) }

func (l Logger) with(f backend.Fields) *logrus.Entry {
	if len(f) == 0 {
		return l.E
	}
	return l.E.WithFields(logrus.Fields(f))
}
