package local

import (
	"sync"

	bc "github.com/allegro/bigcache/v3"
)

// bigcacheStore keeps plain entries in BigCache. BigCache has no per-entry TTL;
// every entry lives for the configured life window.
//
// BigCache itself is only bounded in bytes (HardMaxCacheSize), so the store
// refuses new keys once it holds max entries. Overwrites are always accepted.
type bigcacheStore struct {
	c   *bc.BigCache
	max int

	mu sync.Mutex // serializes the capacity check with the insert
}

func newBigcacheStore(cfg Config) (*bigcacheStore, error) {
	conf := bc.DefaultConfig(cfg.DefaultTTL)
	conf.Verbose = false
	if cfg.CleanupInterval > 0 {
		conf.CleanWindow = cfg.CleanupInterval
	}
	if cfg.MaxCapacity > 0 {
		conf.MaxEntriesInWindow = int(cfg.MaxCapacity)
	}
	if cfg.MaxSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.MaxSizeMB
	}
	c, err := bc.NewBigCache(conf)
	if err != nil {
		return nil, err
	}
	return &bigcacheStore{c: c, max: int(cfg.MaxCapacity)}, nil
}

func (s *bigcacheStore) get(key string) ([]byte, bool) {
	b, err := s.c.Get(key)
	if err != nil {
		return nil, false
	}
	return b, true
}

func (s *bigcacheStore) set(key string, value []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.max > 0 && s.c.Len() >= s.max {
		if _, err := s.c.Get(key); err != nil {
			return false
		}
	}
	return s.c.Set(key, value) == nil
}

func (s *bigcacheStore) del(key string) {
	// ErrEntryNotFound is the only failure BigCache reports for Delete.
	_ = s.c.Delete(key)
}

func (s *bigcacheStore) rangeKeys(fn func(key string) bool) {
	it := s.c.Iterator()
	for it.SetNext() {
		e, err := it.Value()
		if err != nil {
			continue
		}
		if !fn(e.Key()) {
			return
		}
	}
}

// sweep is a no-op: BigCache evicts on its own CleanWindow.
func (s *bigcacheStore) sweep() int { return 0 }

func (s *bigcacheStore) close() {
	_ = s.c.Close()
}
