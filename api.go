package tiercache

import (
	"context"
	"errors"
	"time"

	"github.com/unkn0wn-root/tiercache/backend"
	"github.com/unkn0wn-root/tiercache/codec"
)

// TypedOptions configure a Typed view.
type TypedOptions[V any] struct {
	// Namespace prefixes every key as "<ns>:<key>". Required.
	Namespace string
	// Codec (de)serializes V. nil means the cache's Marshaler.
	Codec codec.Codec[V]
	// TTL for Set. 0 means the backend default.
	TTL time.Duration
}

// Typed is a namespaced view of a Cache for one value type.
type Typed[V any] struct {
	c     *Cache
	ns    string
	codec codec.Codec[V]
	ttl   time.Duration
}

func NewTyped[V any](c *Cache, opts TypedOptions[V]) (*Typed[V], error) {
	if c == nil {
		return nil, errors.New("tiercache: cache is required")
	}
	if opts.Namespace == "" {
		return nil, backend.Errorf(backend.CodeConfiguration, "typed", "", "namespace is required")
	}
	cd := opts.Codec
	if cd == nil {
		cd = codec.Of[V](c.m)
	}
	return &Typed[V]{c: c, ns: opts.Namespace, codec: cd, ttl: opts.TTL}, nil
}

// Key returns the storage key for key.
func (t *Typed[V]) Key(key string) string { return t.ns + ":" + key }

func (t *Typed[V]) Get(ctx context.Context, key string) (v V, ok bool, err error) {
	sk := t.Key(key)
	b, ok, err := t.c.b.Get(ctx, sk)
	if err != nil || !ok {
		return v, false, err
	}
	v, err = t.codec.Decode(b)
	if err != nil {
		var zero V
		return zero, false, backend.Wrap(backend.CodeDeserialization, "get", sk, err)
	}
	return v, true, nil
}

func (t *Typed[V]) Set(ctx context.Context, key string, v V) error {
	sk := t.Key(key)
	b, err := t.codec.Encode(v)
	if err != nil {
		return backend.Wrap(backend.CodeSerialization, "set", sk, err)
	}
	if t.ttl > 0 {
		return t.c.b.SetTTL(ctx, sk, b, t.ttl)
	}
	return t.c.b.Set(ctx, sk, b)
}

func (t *Typed[V]) Del(ctx context.Context, key string) error {
	return t.c.b.Del(ctx, t.Key(key))
}

// GetMany reads keys one by one and reports misses in missing. Any error,
// including an entry that does not decode, aborts the call.
func (t *Typed[V]) GetMany(ctx context.Context, keys []string) (values map[string]V, missing []string, err error) {
	values = make(map[string]V, len(keys))
	for _, k := range keys {
		v, ok, err := t.Get(ctx, k)
		switch {
		case err != nil:
			return nil, nil, err
		case !ok:
			missing = append(missing, k)
		default:
			values[k] = v
		}
	}
	return values, missing, nil
}
