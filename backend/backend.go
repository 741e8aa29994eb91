// Package backend defines the storage contract shared by every cache tier.
//
// A Backend stores opaque byte payloads under string keys. Serialization is the
// caller's concern: the typed facade in the root tiercache package encodes values
// before they reach a Backend and decodes them on the way out. Keeping the
// contract byte-oriented lets a single handle serve Local, Remote and the
// multi-level composite interchangeably.
package backend

import (
	"context"
	"time"
)

// Kind names a concrete backend implementation.
type Kind string

const (
	KindLocal  Kind = "local"
	KindRemote Kind = "remote"
	KindMulti  Kind = "multi"
)

// Backend is the operation set every cache tier implements.
// Implementations must be safe for concurrent use.
type Backend interface {
	// Get returns (value, true, nil) on hit and (nil, false, nil) on miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value with the backend's default TTL.
	Set(ctx context.Context, key string, value []byte) error
	// SetTTL stores value with ttl. Backends without per-entry expiry accept
	// the call and apply their own default. ttl <= 0 means the default.
	SetTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Del removes the plain and the hash entry stored under key.
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// Expire fails with CodeOther when key is absent.
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// Incr and Decr treat a missing key as 0 and store the result as a
	// decimal string. A stored value that is not decimal fails with
	// CodeDeserialization.
	Incr(ctx context.Context, key string) (int64, error)
	Decr(ctx context.Context, key string) (int64, error)

	HSet(ctx context.Context, key, field string, value []byte) error
	HGet(ctx context.Context, key, field string) ([]byte, bool, error)
	// HDel removes field; removing the last field removes key.
	HDel(ctx context.Context, key, field string) error
	HExists(ctx context.Context, key, field string) (bool, error)
	HKeys(ctx context.Context, key string) ([]string, error)
	HLen(ctx context.Context, key string) (int, error)

	// Keys returns every key matching a glob pattern, hash keys included.
	Keys(ctx context.Context, pattern string) ([]string, error)

	// Info returns free-form server introspection, "" when unsupported.
	Info(ctx context.Context, section string) (string, error)
	// DBSize returns the number of keys held by the server, 0 when unsupported.
	DBSize(ctx context.Context) (int, error)

	Kind() Kind
	Close(ctx context.Context) error
}
