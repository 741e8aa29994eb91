// Package sloghooks logs multi.Hooks events through log/slog with sampling
// and key redaction.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/tiercache/multi"
)

type Options struct {
	// Sampling to avoid floods during an outage; 0/1 = log all.
	RemoteFailureEvery uint64
	// Optional key redactor. Defaults to a SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	remoteFailureCtr atomic.Uint64
}

var _ multi.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) RemoteFailure(op, key string, err error) {
	if h.l == nil || !sample(h.opts.RemoteFailureEvery, &h.remoteFailureCtr) {
		return
	}
	h.l.Warn("tiercache.remote_failure",
		"op", op,
		"key", h.redact(key),
		"err", err)
}

func (h *Hooks) FallbackActivated(err error) {
	if h.l == nil {
		return
	}
	h.l.Error("tiercache.fallback_activated",
		"err", err,
		"detail", "remote tier unavailable; serving from local tier only")
}
