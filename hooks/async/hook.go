// Package asynchook moves multi.Hooks callbacks off the caller's goroutine.
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{RemoteFailureEvery: 10})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	c, _ := multi.New(ctx, localCfg, remoteCfg, multi.DefaultConfig(), multi.WithHooks(hooks))
//
// Events are dropped, and counted, when the queue is full.
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/tiercache/multi"
)

type Hooks struct {
	inner   multi.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex // guards q against send-after-close
	closed  bool
	dropped atomic.Uint64
}

var _ multi.Hooks = (*Hooks)(nil)

func New(inner multi.Hooks, workers, qlen int) *Hooks {
	if inner == nil {
		inner = multi.NopHooks{}
	}
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Later events are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped reports how many events were discarded.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) RemoteFailure(op, key string, err error) {
	h.try(func() { h.inner.RemoteFailure(op, key, err) })
}

func (h *Hooks) FallbackActivated(err error) {
	h.try(func() { h.inner.FallbackActivated(err) })
}
