package local

import (
	"time"

	rc "github.com/dgraph-io/ristretto"

	"github.com/unkn0wn-root/tiercache/internal/shard"
)

type ristrettoItem struct {
	key string
	val []byte
}

// ristrettoStore keeps plain entries in Ristretto. Ristretto hashes keys, so a
// striped key index backs enumeration; eviction callbacks and sweep prune it.
type ristrettoStore struct {
	c     *rc.Cache
	ttl   time.Duration
	index *shard.Map[struct{}]
}

func newRistrettoStore(cfg Config) (*ristrettoStore, error) {
	s := &ristrettoStore{ttl: ttlOrNone(cfg.DefaultTTL), index: shard.New[struct{}](0)}
	c, err := rc.NewCache(&rc.Config{
		NumCounters:        cfg.MaxCapacity * 10,
		MaxCost:            cfg.MaxCapacity,
		BufferItems:        64,
		IgnoreInternalCost: true,
		OnEvict:            s.forget,
		OnReject:           s.forget,
	})
	if err != nil {
		return nil, err
	}
	s.c = c
	return s, nil
}

func (s *ristrettoStore) forget(item *rc.Item) {
	if it, ok := item.Value.(*ristrettoItem); ok {
		s.index.Delete(it.key)
	}
}

func (s *ristrettoStore) get(key string) ([]byte, bool) {
	v, ok := s.c.Get(key)
	if !ok {
		return nil, false
	}
	it, _ := v.(*ristrettoItem)
	if it == nil {
		// self-heal: drop unexpected entry shape
		s.c.Del(key)
		return nil, false
	}
	return it.val, true
}

func (s *ristrettoStore) set(key string, value []byte) bool {
	ok := s.c.SetWithTTL(key, &ristrettoItem{key: key, val: append([]byte(nil), value...)}, 1, s.ttl)
	// Sets are buffered; wait so a following get on this goroutine sees the write.
	s.c.Wait()
	if !ok {
		return false
	}
	if _, held := s.c.Get(key); !held {
		return false
	}
	s.index.Set(key, struct{}{})
	return true
}

func (s *ristrettoStore) del(key string) {
	s.c.Del(key)
	s.index.Delete(key)
}

func (s *ristrettoStore) rangeKeys(fn func(key string) bool) {
	for _, k := range s.index.Keys() {
		if _, ok := s.c.Get(k); !ok {
			s.index.Delete(k)
			continue
		}
		if !fn(k) {
			return
		}
	}
}

func (s *ristrettoStore) sweep() int {
	removed := 0
	for _, k := range s.index.Keys() {
		if _, ok := s.c.Get(k); !ok {
			if s.index.Delete(k) {
				removed++
			}
		}
	}
	return removed
}

func (s *ristrettoStore) close() {
	s.c.Close()
}
