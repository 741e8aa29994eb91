package tiercache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/tiercache/backend"
	"github.com/unkn0wn-root/tiercache/codec"
	"github.com/unkn0wn-root/tiercache/multi"
)

// DefaultPollInterval is how often a concurrent Init waits on the initializer.
const DefaultPollInterval = 10 * time.Millisecond

// Registry holds at most one cache for its lifetime (absent Reset).
//
// Init is safe to call from many goroutines: exactly one builds the backend,
// the others poll until it is published or the build fails, in which case
// they return the same error and a later Init may retry.
type Registry struct {
	inflight    atomic.Pointer[attempt]
	initialized atomic.Bool
	slot        atomic.Pointer[Cache]

	build Builder
	log   backend.Logger
	hooks multi.Hooks
	poll  time.Duration
}

// attempt is one run of the builder. err is written before done is set.
type attempt struct {
	done atomic.Bool
	err  error
}

type RegistryOption func(*Registry)

func WithLogger(l backend.Logger) RegistryOption { return func(r *Registry) { r.log = l } }

// WithHooks forwards degradation hooks to a multi-level cache.
func WithHooks(h multi.Hooks) RegistryOption { return func(r *Registry) { r.hooks = h } }

// WithBuilder replaces Build.
func WithBuilder(b Builder) RegistryOption { return func(r *Registry) { r.build = b } }

// WithPollInterval overrides DefaultPollInterval. Non-positive values are ignored.
func WithPollInterval(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.poll = d
		}
	}
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{build: Build, poll: DefaultPollInterval}
	for _, opt := range opts {
		opt(r)
	}
	r.log = backend.OrNop(r.log)
	return r
}

// Init validates s and builds the cache once. A second Init after success
// is a logged no-op. Callers that find a build in flight wait for that build
// and return its result.
func (r *Registry) Init(ctx context.Context, s Settings) error {
	if r.initialized.Load() {
		r.log.Warn("cache already initialized, ignoring init", backend.Fields{"kind": string(s.Kind)})
		return nil
	}
	if err := s.Validate(); err != nil {
		return err
	}
	for {
		a := &attempt{}
		if r.inflight.CompareAndSwap(nil, a) {
			return r.run(ctx, s, a)
		}
		if cur := r.inflight.Load(); cur != nil {
			return r.wait(ctx, cur)
		}
		// the build we lost to finished in between
		if r.initialized.Load() {
			return nil
		}
	}
}

func (r *Registry) run(ctx context.Context, s Settings, a *attempt) error {
	if r.initialized.Load() {
		// lost a race with an initializer that finished after our first check
		r.inflight.Store(nil)
		a.done.Store(true)
		return nil
	}
	a.err = r.initialize(ctx, s)
	a.done.Store(true)
	r.inflight.Store(nil)
	return a.err
}

func (r *Registry) initialize(ctx context.Context, s Settings) error {
	m, err := codec.ByName(s.Codec)
	if err != nil {
		return backend.Wrap(backend.CodeConfiguration, "init", "", err)
	}
	r.log.Info("initializing cache", backend.Fields{"kind": string(s.Kind), "codec": m.Name()})
	b, err := r.build(ctx, s, Deps{Logger: r.log, Hooks: r.hooks})
	if err != nil {
		r.log.Error("cache initialization failed", backend.Fields{"kind": string(s.Kind), "err": err.Error()})
		return err
	}
	r.slot.Store(NewCache(b, m))
	r.initialized.Store(true)
	r.log.Info("cache initialized", backend.Fields{"kind": string(b.Kind())})
	return nil
}

func (r *Registry) wait(ctx context.Context, a *attempt) error {
	t := time.NewTicker(r.poll)
	defer t.Stop()
	for {
		if a.done.Load() {
			return a.err
		}
		select {
		case <-ctx.Done():
			return backend.Wrap(backend.CodeOther, "init", "", ctx.Err())
		case <-t.C:
		}
	}
}

// Get returns the published cache or ErrNotInitialized.
func (r *Registry) Get() (*Cache, error) {
	if !r.initialized.Load() {
		return nil, backend.ErrNotInitialized
	}
	c := r.slot.Load()
	if c == nil {
		return nil, backend.ErrNotInitialized
	}
	return c, nil
}

// Backend returns the published backend or ErrNotInitialized.
func (r *Registry) Backend() (backend.Backend, error) {
	c, err := r.Get()
	if err != nil {
		return nil, err
	}
	return c.Backend(), nil
}

func (r *Registry) IsInitialized() bool { return r.initialized.Load() }

// Reset forgets the published cache without closing it. Tests only; it must
// not race with Init.
func (r *Registry) Reset() {
	r.initialized.Store(false)
	r.slot.Store(nil)
	r.inflight.Store(nil)
}

// Close closes the published backend and returns the registry to its
// uninitialized state.
func (r *Registry) Close(ctx context.Context) error {
	c := r.slot.Swap(nil)
	r.initialized.Store(false)
	if c == nil {
		return nil
	}
	return c.Backend().Close(ctx)
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry behind Init and Default.
func DefaultRegistry() *Registry { return defaultRegistry }

// Init initializes the process-wide cache.
func Init(ctx context.Context, s Settings) error { return defaultRegistry.Init(ctx, s) }

// Default returns the process-wide cache.
func Default() (*Cache, error) { return defaultRegistry.Get() }

// IsInitialized reports whether the process-wide cache is ready.
func IsInitialized() bool { return defaultRegistry.IsInitialized() }
