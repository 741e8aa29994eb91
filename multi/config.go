package multi

import (
	"context"
	"time"

	"github.com/unkn0wn-root/tiercache/backend"
	"github.com/unkn0wn-root/tiercache/internal/util"
	"github.com/unkn0wn-root/tiercache/remote"
)

const DefaultLocalTTL = 300 * time.Second

type Config struct {
	// LocalTTL caps how long a write stays in the Local tier.
	LocalTTL time.Duration `yaml:"-"`
	// FallbackToLocal keeps the cache usable on Local alone when Remote
	// cannot be built. The zero value disables it; DefaultConfig enables it.
	FallbackToLocal bool `yaml:"fallback_to_local"`
}

func DefaultConfig() Config {
	return Config{LocalTTL: DefaultLocalTTL, FallbackToLocal: true}
}

func (c Config) withDefaults() Config {
	c.LocalTTL = util.Coalesce[time.Duration](c.LocalTTL, DefaultLocalTTL)
	return c
}

// RemoteFactory builds the Remote tier.
type RemoteFactory func(ctx context.Context, cfg remote.Config, log backend.Logger) (backend.Backend, error)

func defaultRemoteFactory(ctx context.Context, cfg remote.Config, log backend.Logger) (backend.Backend, error) {
	r, err := remote.New(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return r, nil
}

type options struct {
	log     backend.Logger
	hooks   Hooks
	factory RemoteFactory
}

type Option func(*options)

func WithLogger(l backend.Logger) Option { return func(o *options) { o.log = l } }

func WithHooks(h Hooks) Option { return func(o *options) { o.hooks = h } }

// WithRemoteFactory replaces remote.New as the way the Remote tier is built.
func WithRemoteFactory(f RemoteFactory) Option { return func(o *options) { o.factory = f } }

func buildOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	o.log = backend.OrNop(o.log)
	if o.hooks == nil {
		o.hooks = NopHooks{}
	}
	if o.factory == nil {
		o.factory = defaultRemoteFactory
	}
	return o
}
