// Package local implements the in-process cache tier.
//
// Plain entries live in a bounded store (Ristretto by default, BigCache
// optionally) with a single configured TTL. Hash entries live in a separate
// striped map of field maps so a field access never round-trips the whole hash
// through the plain store.
//
// TTL caveat: the tier has one expiry horizon. SetTTL and Expire accept a TTL
// but entries keep following Config.DefaultTTL. Hash entries do not expire and
// are not counted against MaxCapacity; they live until HDel or Del.
//
// Keys is a full scan with glob matching. It is linear in the number of keys.
package local

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/unkn0wn-root/tiercache/backend"
	"github.com/unkn0wn-root/tiercache/internal/shard"
)

// Local is the in-process backend.
type Local struct {
	cfg    Config
	store  plainStore
	hashes *shard.Map[map[string][]byte]
	locks  *shard.Locks
	log    backend.Logger

	ticker    *time.Ticker
	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

var _ backend.Backend = (*Local)(nil)

// New builds a Local backend. A zero Config field falls back to its default;
// only Name is mandatory.
func New(cfg Config, log backend.Logger) (*Local, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	store, err := newStore(cfg)
	if err != nil {
		return nil, backend.Wrap(backend.CodeConfiguration, "local", "", err)
	}
	l := &Local{
		cfg:    cfg,
		store:  store,
		hashes: shard.New[map[string][]byte](0),
		locks:  shard.NewLocks(256),
		log:    backend.OrNop(log),
	}
	if cfg.CleanupInterval > 0 {
		l.ticker = time.NewTicker(cfg.CleanupInterval)
		l.stopCh = make(chan struct{})
		l.wg.Add(1)
		go l.cleanupLoop()
	}
	l.log.Debug("local cache ready", backend.Fields{"config": cfg.String()})
	return l, nil
}

// Config returns the effective configuration.
func (l *Local) Config() Config { return l.cfg }

func (l *Local) Kind() backend.Kind { return backend.KindLocal }

func (l *Local) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, ok := l.store.get(key)
	return b, ok, nil
}

func (l *Local) Set(_ context.Context, key string, value []byte) error {
	l.put(key, value)
	return nil
}

// SetTTL stores value under the tier-wide TTL; ttl is ignored.
func (l *Local) SetTTL(_ context.Context, key string, value []byte, _ time.Duration) error {
	l.put(key, value)
	return nil
}

func (l *Local) put(key string, value []byte) bool {
	if !l.store.set(key, value) {
		l.log.Debug("local set rejected by store (pressure)", backend.Fields{"key": key})
		return false
	}
	return true
}

func (l *Local) Del(_ context.Context, key string) error {
	l.store.del(key)
	l.hashes.Delete(key)
	return nil
}

func (l *Local) Exists(_ context.Context, key string) (bool, error) {
	return l.exists(key), nil
}

func (l *Local) exists(key string) bool {
	if _, ok := l.store.get(key); ok {
		return true
	}
	return l.hashes.Has(key)
}

// Expire only checks that key exists; the tier-wide TTL still applies.
func (l *Local) Expire(_ context.Context, key string, _ time.Duration) error {
	if !l.exists(key) {
		return backend.Errorf(backend.CodeOther, "expire", key, "key does not exist")
	}
	return nil
}

func (l *Local) Incr(_ context.Context, key string) (int64, error) {
	return l.add("incr", key, 1)
}

func (l *Local) Decr(_ context.Context, key string) (int64, error) {
	return l.add("decr", key, -1)
}

func (l *Local) add(op, key string, delta int64) (int64, error) {
	mu := l.locks.For(key)
	mu.Lock()
	defer mu.Unlock()

	var cur int64
	if b, ok := l.store.get(key); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(string(b)), 10, 64)
		if err != nil {
			return 0, backend.Wrap(backend.CodeDeserialization, op, key, err)
		}
		cur = n
	}
	next := cur + delta
	l.put(key, strconv.AppendInt(nil, next, 10))
	return next, nil
}

func (l *Local) HSet(_ context.Context, key, field string, value []byte) error {
	v := append([]byte(nil), value...)
	l.hashes.Update(key, func(h map[string][]byte, ok bool) (map[string][]byte, bool) {
		if !ok {
			h = make(map[string][]byte)
		}
		h[field] = v
		return h, true
	})
	return nil
}

func (l *Local) HGet(_ context.Context, key, field string) ([]byte, bool, error) {
	var (
		out []byte
		hit bool
	)
	l.hashes.View(key, func(h map[string][]byte, ok bool) {
		if !ok {
			return
		}
		if b, found := h[field]; found {
			out = append([]byte(nil), b...)
			hit = true
		}
	})
	return out, hit, nil
}

func (l *Local) HDel(_ context.Context, key, field string) error {
	l.hashes.Update(key, func(h map[string][]byte, ok bool) (map[string][]byte, bool) {
		if !ok {
			return nil, false
		}
		delete(h, field)
		return h, len(h) > 0
	})
	return nil
}

func (l *Local) HExists(_ context.Context, key, field string) (bool, error) {
	var found bool
	l.hashes.View(key, func(h map[string][]byte, ok bool) {
		if ok {
			_, found = h[field]
		}
	})
	return found, nil
}

func (l *Local) HKeys(_ context.Context, key string) ([]string, error) {
	var out []string
	l.hashes.View(key, func(h map[string][]byte, ok bool) {
		if !ok {
			return
		}
		out = make([]string, 0, len(h))
		for f := range h {
			out = append(out, f)
		}
	})
	sort.Strings(out)
	return out, nil
}

func (l *Local) HLen(_ context.Context, key string) (int, error) {
	var n int
	l.hashes.View(key, func(h map[string][]byte, ok bool) {
		n = len(h)
	})
	return n, nil
}

// Keys scans plain and hash keys and returns those matching pattern, sorted.
func (l *Local) Keys(_ context.Context, pattern string) ([]string, error) {
	g, err := compilePattern(pattern)
	if err != nil {
		return nil, backend.Wrap(backend.CodeOther, "keys", pattern, err)
	}
	seen := make(map[string]struct{})
	l.store.rangeKeys(func(k string) bool {
		if g.Match(k) {
			seen[k] = struct{}{}
		}
		return true
	})
	l.hashes.Range(func(k string, _ map[string][]byte) bool {
		if g.Match(k) {
			seen[k] = struct{}{}
		}
		return true
	})
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

// Info is not supported by the local tier.
func (l *Local) Info(context.Context, string) (string, error) { return "", nil }

// DBSize is not supported by the local tier.
func (l *Local) DBSize(context.Context) (int, error) { return 0, nil }

func (l *Local) Close(context.Context) error {
	l.closeOnce.Do(func() {
		if l.stopCh != nil {
			close(l.stopCh)
			l.ticker.Stop()
			l.wg.Wait()
		}
		l.store.close()
	})
	return nil
}

func (l *Local) cleanupLoop() {
	defer l.wg.Done()
	for {
		select {
		case <-l.ticker.C:
			if removed := l.store.sweep(); removed > 0 {
				l.log.Debug("local key index sweep removed stale keys", backend.Fields{"name": l.cfg.Name, "removed": removed})
			}
		case <-l.stopCh:
			return
		}
	}
}
