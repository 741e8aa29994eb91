package tiercache

import (
	"context"
	"time"

	"github.com/unkn0wn-root/tiercache/backend"
	"github.com/unkn0wn-root/tiercache/codec"
)

// Cache is the consumer-facing handle: the backend operations plus string,
// integer and typed helpers that (de)serialize at the boundary.
//
// Strings are stored as raw UTF-8 and integers as decimal strings, so both
// interoperate with Incr/Decr and with redis-cli. Other values go through the
// configured Marshaler.
type Cache struct {
	b backend.Backend
	m codec.Marshaler
}

// NewCache wraps b. A nil m means JSON.
func NewCache(b backend.Backend, m codec.Marshaler) *Cache {
	if m == nil {
		m = codec.JSONMarshaler{}
	}
	return &Cache{b: b, m: m}
}

func (c *Cache) Backend() backend.Backend        { return c.b }
func (c *Cache) Marshaler() codec.Marshaler      { return c.m }
func (c *Cache) Kind() backend.Kind              { return c.b.Kind() }
func (c *Cache) Close(ctx context.Context) error { return c.b.Close(ctx) }

func (c *Cache) SetString(ctx context.Context, key, value string) error {
	return c.b.Set(ctx, key, []byte(value))
}

func (c *Cache) SetStringTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.b.SetTTL(ctx, key, []byte(value), ttl)
}

func (c *Cache) GetString(ctx context.Context, key string) (string, bool, error) {
	b, ok, err := c.b.Get(ctx, key)
	if err != nil || !ok {
		return "", false, err
	}
	return string(b), true, nil
}

func (c *Cache) SetInt(ctx context.Context, key string, n int64) error {
	b, _ := codec.Int64{}.Encode(n)
	return c.b.Set(ctx, key, b)
}

// GetInt reads a decimal value. Anything else is a CodeDeserialization error.
func (c *Cache) GetInt(ctx context.Context, key string) (int64, bool, error) {
	b, ok, err := c.b.Get(ctx, key)
	if err != nil || !ok {
		return 0, false, err
	}
	n, err := codec.Int64{}.Decode(b)
	if err != nil {
		return 0, false, backend.Wrap(backend.CodeDeserialization, "get_int", key, err)
	}
	return n, true, nil
}

func (c *Cache) HSetString(ctx context.Context, key, field, value string) error {
	return c.b.HSet(ctx, key, field, []byte(value))
}

func (c *Cache) HGetString(ctx context.Context, key, field string) (string, bool, error) {
	b, ok, err := c.b.HGet(ctx, key, field)
	if err != nil || !ok {
		return "", false, err
	}
	return string(b), true, nil
}

func (c *Cache) HSetInt(ctx context.Context, key, field string, n int64) error {
	b, _ := codec.Int64{}.Encode(n)
	return c.b.HSet(ctx, key, field, b)
}

func (c *Cache) HGetInt(ctx context.Context, key, field string) (int64, bool, error) {
	b, ok, err := c.b.HGet(ctx, key, field)
	if err != nil || !ok {
		return 0, false, err
	}
	n, err := codec.Int64{}.Decode(b)
	if err != nil {
		return 0, false, backend.Wrap(backend.CodeDeserialization, "hget_int", key, err)
	}
	return n, true, nil
}

func (c *Cache) Del(ctx context.Context, key string) error { return c.b.Del(ctx, key) }
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	return c.b.Exists(ctx, key)
}
func (c *Cache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return c.b.Expire(ctx, key, ttl)
}
func (c *Cache) Incr(ctx context.Context, key string) (int64, error) { return c.b.Incr(ctx, key) }
func (c *Cache) Decr(ctx context.Context, key string) (int64, error) { return c.b.Decr(ctx, key) }
func (c *Cache) HDel(ctx context.Context, key, field string) error   { return c.b.HDel(ctx, key, field) }
func (c *Cache) HExists(ctx context.Context, key, field string) (bool, error) {
	return c.b.HExists(ctx, key, field)
}
func (c *Cache) HKeys(ctx context.Context, key string) ([]string, error) { return c.b.HKeys(ctx, key) }
func (c *Cache) HLen(ctx context.Context, key string) (int, error)       { return c.b.HLen(ctx, key) }
func (c *Cache) Keys(ctx context.Context, pattern string) ([]string, error) {
	return c.b.Keys(ctx, pattern)
}
func (c *Cache) Info(ctx context.Context, section string) (string, error) {
	return c.b.Info(ctx, section)
}
func (c *Cache) DBSize(ctx context.Context) (int, error) { return c.b.DBSize(ctx) }

// Get decodes the value at key with the cache's Marshaler.
func Get[T any](ctx context.Context, c *Cache, key string) (T, bool, error) {
	var v T
	b, ok, err := c.b.Get(ctx, key)
	if err != nil || !ok {
		return v, false, err
	}
	if err := c.m.Unmarshal(b, &v); err != nil {
		return v, false, backend.Wrap(backend.CodeDeserialization, "get", key, err)
	}
	return v, true, nil
}

// Set encodes v with the cache's Marshaler and stores it with the backend's
// default TTL.
func Set[T any](ctx context.Context, c *Cache, key string, v T) error {
	b, err := c.m.Marshal(v)
	if err != nil {
		return backend.Wrap(backend.CodeSerialization, "set", key, err)
	}
	return c.b.Set(ctx, key, b)
}

func SetTTL[T any](ctx context.Context, c *Cache, key string, v T, ttl time.Duration) error {
	b, err := c.m.Marshal(v)
	if err != nil {
		return backend.Wrap(backend.CodeSerialization, "set", key, err)
	}
	return c.b.SetTTL(ctx, key, b, ttl)
}

func HGet[T any](ctx context.Context, c *Cache, key, field string) (T, bool, error) {
	var v T
	b, ok, err := c.b.HGet(ctx, key, field)
	if err != nil || !ok {
		return v, false, err
	}
	if err := c.m.Unmarshal(b, &v); err != nil {
		return v, false, backend.Wrap(backend.CodeDeserialization, "hget", key, err)
	}
	return v, true, nil
}

func HSet[T any](ctx context.Context, c *Cache, key, field string, v T) error {
	b, err := c.m.Marshal(v)
	if err != nil {
		return backend.Wrap(backend.CodeSerialization, "hset", key, err)
	}
	return c.b.HSet(ctx, key, field, b)
}
