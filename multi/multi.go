// Package multi composes a Local and a Remote backend into one cache.
//
// Writes always land in Local (capped at Config.LocalTTL) and are mirrored to
// Remote best-effort. Reads try Local first and fall through to Remote on a
// miss; a Remote hit is not copied back into Local. Counters are the
// exception: Remote owns the value and Local only mirrors it.
//
// When Remote cannot be built and FallbackToLocal is set, the cache runs on
// Local alone and IsInFallbackMode reports true.
package multi

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/unkn0wn-root/tiercache/backend"
	"github.com/unkn0wn-root/tiercache/local"
	"github.com/unkn0wn-root/tiercache/remote"
)

// Cache is the multi-level backend.
type Cache struct {
	local  backend.Backend
	remote backend.Backend // nil in fallback mode
	cfg    Config
	log    backend.Logger
	hooks  Hooks
}

var _ backend.Backend = (*Cache)(nil)

// New builds the Local tier, then the Remote tier. A Remote failure is
// returned unless cfg.FallbackToLocal is set.
func New(ctx context.Context, localCfg local.Config, remoteCfg remote.Config, cfg Config, opts ...Option) (*Cache, error) {
	o := buildOptions(opts)
	l, err := local.New(localCfg, o.log)
	if err != nil {
		return nil, err
	}
	r, err := o.factory(ctx, remoteCfg, o.log)
	if err != nil {
		if !cfg.FallbackToLocal {
			_ = l.Close(ctx)
			return nil, err
		}
		o.log.Warn("remote cache unavailable, falling back to local only", backend.Fields{"err": err.Error()})
		o.hooks.FallbackActivated(err)
		r = nil
	}
	return newCache(l, r, cfg, o), nil
}

// NewWithBackends composes already-built tiers. A nil remote starts the cache
// in fallback mode.
func NewWithBackends(l, r backend.Backend, cfg Config, opts ...Option) (*Cache, error) {
	if l == nil {
		return nil, backend.Errorf(backend.CodeConfiguration, "multi", "", "local backend is required")
	}
	return newCache(l, r, cfg, buildOptions(opts)), nil
}

func newCache(l, r backend.Backend, cfg Config, o options) *Cache {
	c := &Cache{local: l, remote: r, cfg: cfg.withDefaults(), log: o.log, hooks: o.hooks}
	c.log.Info("multi-level cache ready", backend.Fields{
		"local_ttl": c.cfg.LocalTTL.String(),
		"fallback":  c.IsInFallbackMode(),
	})
	return c
}

// IsInFallbackMode reports whether the cache runs without a Remote tier.
func (c *Cache) IsInFallbackMode() bool { return c.remote == nil }

// Local returns the Local tier.
func (c *Cache) Local() backend.Backend { return c.local }

// Remote returns the Remote tier, or nil in fallback mode.
func (c *Cache) Remote() backend.Backend { return c.remote }

func (c *Cache) Kind() backend.Kind { return backend.KindMulti }

func (c *Cache) localTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 || ttl > c.cfg.LocalTTL {
		return c.cfg.LocalTTL
	}
	return ttl
}

func (c *Cache) remoteFailed(op, key string, err error) {
	c.log.Warn("remote cache operation failed", backend.Fields{"op": op, "key": key, "err": err.Error()})
	c.hooks.RemoteFailure(op, key, err)
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if b, ok, err := c.local.Get(ctx, key); err != nil {
		c.log.Warn("local cache get failed", backend.Fields{"key": key, "err": err.Error()})
	} else if ok {
		return b, true, nil
	}
	if c.remote == nil {
		return nil, false, nil
	}
	b, ok, err := c.remote.Get(ctx, key)
	if err != nil {
		c.remoteFailed("get", key, err)
		return nil, false, nil
	}
	return b, ok, nil
}

// Set writes Local with LocalTTL and Remote with its default TTL.
func (c *Cache) Set(ctx context.Context, key string, value []byte) error {
	if err := c.local.SetTTL(ctx, key, value, c.cfg.LocalTTL); err != nil {
		return err
	}
	if c.remote != nil {
		if err := c.remote.Set(ctx, key, value); err != nil {
			c.remoteFailed("set", key, err)
		}
	}
	return nil
}

// SetTTL writes Local with min(ttl, LocalTTL) and Remote with ttl.
func (c *Cache) SetTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.local.SetTTL(ctx, key, value, c.localTTL(ttl)); err != nil {
		return err
	}
	if c.remote != nil {
		if err := c.remote.SetTTL(ctx, key, value, ttl); err != nil {
			c.remoteFailed("set", key, err)
		}
	}
	return nil
}

func (c *Cache) Del(ctx context.Context, key string) error {
	if err := c.local.Del(ctx, key); err != nil {
		c.log.Warn("local cache del failed", backend.Fields{"key": key, "err": err.Error()})
	}
	if c.remote != nil {
		if err := c.remote.Del(ctx, key); err != nil {
			c.remoteFailed("del", key, err)
		}
	}
	return nil
}

func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	if ok, err := c.local.Exists(ctx, key); err == nil && ok {
		return true, nil
	}
	if c.remote == nil {
		return false, nil
	}
	ok, err := c.remote.Exists(ctx, key)
	if err != nil {
		c.remoteFailed("exists", key, err)
		return false, nil
	}
	return ok, nil
}

// Expire is applied to both tiers; a tier without the key is not an error.
func (c *Cache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := c.local.Expire(ctx, key, c.localTTL(ttl)); err != nil {
		c.log.Debug("local cache expire skipped", backend.Fields{"key": key, "err": err.Error()})
	}
	if c.remote != nil {
		if err := c.remote.Expire(ctx, key, ttl); err != nil {
			if backend.CodeOf(err) == backend.CodeConnection {
				c.remoteFailed("expire", key, err)
			} else {
				c.log.Debug("remote cache expire skipped", backend.Fields{"key": key, "err": err.Error()})
			}
		}
	}
	return nil
}

func (c *Cache) Incr(ctx context.Context, key string) (int64, error) {
	return c.count(ctx, "incr", key, c.local.Incr, c.incrRemote)
}

func (c *Cache) Decr(ctx context.Context, key string) (int64, error) {
	return c.count(ctx, "decr", key, c.local.Decr, c.decrRemote)
}

func (c *Cache) incrRemote(ctx context.Context, key string) (int64, error) {
	return c.remote.Incr(ctx, key)
}

func (c *Cache) decrRemote(ctx context.Context, key string) (int64, error) {
	return c.remote.Decr(ctx, key)
}

// count runs a counter op on Remote and mirrors the result into Local. When
// Remote is missing or fails, the Local counter answers.
func (c *Cache) count(ctx context.Context, op, key string,
	onLocal, onRemote func(context.Context, string) (int64, error),
) (int64, error) {
	if c.remote == nil {
		return onLocal(ctx, key)
	}
	n, err := onRemote(ctx, key)
	if err != nil {
		c.remoteFailed(op, key, err)
		return onLocal(ctx, key)
	}
	if err := c.local.SetTTL(ctx, key, strconv.AppendInt(nil, n, 10), c.cfg.LocalTTL); err != nil {
		c.log.Warn("local counter mirror failed", backend.Fields{"key": key, "err": err.Error()})
	}
	return n, nil
}

func (c *Cache) HSet(ctx context.Context, key, field string, value []byte) error {
	if err := c.local.HSet(ctx, key, field, value); err != nil {
		return err
	}
	if c.remote != nil {
		if err := c.remote.HSet(ctx, key, field, value); err != nil {
			c.remoteFailed("hset", key, err)
		}
	}
	return nil
}

func (c *Cache) HGet(ctx context.Context, key, field string) ([]byte, bool, error) {
	if b, ok, err := c.local.HGet(ctx, key, field); err != nil {
		c.log.Warn("local cache hget failed", backend.Fields{"key": key, "err": err.Error()})
	} else if ok {
		return b, true, nil
	}
	if c.remote == nil {
		return nil, false, nil
	}
	b, ok, err := c.remote.HGet(ctx, key, field)
	if err != nil {
		c.remoteFailed("hget", key, err)
		return nil, false, nil
	}
	return b, ok, nil
}

func (c *Cache) HDel(ctx context.Context, key, field string) error {
	if err := c.local.HDel(ctx, key, field); err != nil {
		c.log.Warn("local cache hdel failed", backend.Fields{"key": key, "err": err.Error()})
	}
	if c.remote != nil {
		if err := c.remote.HDel(ctx, key, field); err != nil {
			c.remoteFailed("hdel", key, err)
		}
	}
	return nil
}

func (c *Cache) HExists(ctx context.Context, key, field string) (bool, error) {
	if ok, err := c.local.HExists(ctx, key, field); err == nil && ok {
		return true, nil
	}
	if c.remote == nil {
		return false, nil
	}
	ok, err := c.remote.HExists(ctx, key, field)
	if err != nil {
		c.remoteFailed("hexists", key, err)
		return false, nil
	}
	return ok, nil
}

// HKeys answers from Local when it holds any field of key, else from Remote.
func (c *Cache) HKeys(ctx context.Context, key string) ([]string, error) {
	fields, err := c.local.HKeys(ctx, key)
	if err == nil && len(fields) > 0 {
		return fields, nil
	}
	if c.remote == nil {
		return fields, err
	}
	rf, rerr := c.remote.HKeys(ctx, key)
	if rerr != nil {
		c.remoteFailed("hkeys", key, rerr)
		return fields, err
	}
	return rf, nil
}

// HLen answers from Local when it holds any field of key, else from Remote.
func (c *Cache) HLen(ctx context.Context, key string) (int, error) {
	n, err := c.local.HLen(ctx, key)
	if err == nil && n > 0 {
		return n, nil
	}
	if c.remote == nil {
		return n, err
	}
	rn, rerr := c.remote.HLen(ctx, key)
	if rerr != nil {
		c.remoteFailed("hlen", key, rerr)
		return n, err
	}
	return rn, nil
}

// Keys answers from Local when it has matches, else from Remote.
func (c *Cache) Keys(ctx context.Context, pattern string) ([]string, error) {
	keys, err := c.local.Keys(ctx, pattern)
	if err != nil {
		return nil, err
	}
	if len(keys) > 0 || c.remote == nil {
		return keys, nil
	}
	rk, rerr := c.remote.Keys(ctx, pattern)
	if rerr != nil {
		c.remoteFailed("keys", pattern, rerr)
		return keys, nil
	}
	return rk, nil
}

func (c *Cache) Info(ctx context.Context, section string) (string, error) {
	if c.remote == nil {
		return "", nil
	}
	return c.remote.Info(ctx, section)
}

func (c *Cache) DBSize(ctx context.Context) (int, error) {
	if c.remote == nil {
		return 0, nil
	}
	return c.remote.DBSize(ctx)
}

// Close closes both tiers and joins their errors.
func (c *Cache) Close(ctx context.Context) error {
	var errs []error
	if c.remote != nil {
		errs = append(errs, c.remote.Close(ctx))
	}
	errs = append(errs, c.local.Close(ctx))
	return errors.Join(errs...)
}
