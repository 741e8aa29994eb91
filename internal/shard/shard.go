// Package shard provides a string-keyed map striped over independently locked
// shards, so writers on different keys rarely contend.
package shard

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

const defaultShards = 64

type bucket[V any] struct {
	mu sync.RWMutex
	m  map[string]V
}

// Map is a concurrent map[string]V. The zero value is not usable; call New.
type Map[V any] struct {
	buckets []*bucket[V]
	mask    uint64
}

// New returns a Map with n shards rounded up to a power of two (n <= 0 => 64).
func New[V any](n int) *Map[V] {
	size := pow2(n)
	m := &Map[V]{buckets: make([]*bucket[V], size), mask: uint64(size - 1)}
	for i := range m.buckets {
		m.buckets[i] = &bucket[V]{m: make(map[string]V)}
	}
	return m
}

func pow2(n int) int {
	if n <= 0 {
		return defaultShards
	}
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}

func (m *Map[V]) bucket(key string) *bucket[V] {
	return m.buckets[xxhash.Sum64String(key)&m.mask]
}

func (m *Map[V]) Get(key string) (V, bool) {
	b := m.bucket(key)
	b.mu.RLock()
	v, ok := b.m[key]
	b.mu.RUnlock()
	return v, ok
}

func (m *Map[V]) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

func (m *Map[V]) Set(key string, v V) {
	b := m.bucket(key)
	b.mu.Lock()
	b.m[key] = v
	b.mu.Unlock()
}

// Delete removes key and reports whether it was present.
func (m *Map[V]) Delete(key string) bool {
	b := m.bucket(key)
	b.mu.Lock()
	_, ok := b.m[key]
	delete(b.m, key)
	b.mu.Unlock()
	return ok
}

// View calls fn with the current value under the shard read lock.
// fn must not retain or mutate reference-typed values.
func (m *Map[V]) View(key string, fn func(v V, ok bool)) {
	b := m.bucket(key)
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.m[key]
	fn(v, ok)
}

// Update calls fn under the shard write lock. The returned value is stored
// when keep is true; otherwise key is removed.
func (m *Map[V]) Update(key string, fn func(v V, ok bool) (nv V, keep bool)) {
	b := m.bucket(key)
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.m[key]
	nv, keep := fn(v, ok)
	if keep {
		b.m[key] = nv
	} else if ok {
		delete(b.m, key)
	}
}

// Range calls fn for every entry, one shard at a time under its read lock.
// Iteration stops when fn returns false. fn must not call back into m.
func (m *Map[V]) Range(fn func(key string, v V) bool) {
	for _, b := range m.buckets {
		b.mu.RLock()
		for k, v := range b.m {
			if !fn(k, v) {
				b.mu.RUnlock()
				return
			}
		}
		b.mu.RUnlock()
	}
}

// Keys returns a snapshot of all keys.
func (m *Map[V]) Keys() []string {
	var out []string
	m.Range(func(k string, _ V) bool {
		out = append(out, k)
		return true
	})
	return out
}

func (m *Map[V]) Len() int {
	n := 0
	for _, b := range m.buckets {
		b.mu.RLock()
		n += len(b.m)
		b.mu.RUnlock()
	}
	return n
}

// Locks is a fixed set of mutexes selected by key hash. It serializes
// read-modify-write sequences on one key without a global lock.
type Locks struct {
	mus  []sync.Mutex
	mask uint64
}

func NewLocks(n int) *Locks {
	size := pow2(n)
	return &Locks{mus: make([]sync.Mutex, size), mask: uint64(size - 1)}
}

// For returns the mutex guarding key.
func (l *Locks) For(key string) *sync.Mutex {
	return &l.mus[xxhash.Sum64String(key)&l.mask]
}
