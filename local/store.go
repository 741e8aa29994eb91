package local

import "time"

// plainStore holds plain key/value entries. Implementations are safe for
// concurrent use and apply one TTL to every entry.
type plainStore interface {
	get(key string) ([]byte, bool)
	// set reports false when the store refused the write (admission, size).
	set(key string, value []byte) bool
	del(key string)
	// rangeKeys visits live keys until fn returns false.
	rangeKeys(fn func(key string) bool)
	// sweep drops bookkeeping for entries the store no longer holds.
	sweep() int
	close()
}

func newStore(cfg Config) (plainStore, error) {
	if cfg.Engine == EngineBigcache {
		return newBigcacheStore(cfg)
	}
	return newRistrettoStore(cfg)
}

func ttlOrNone(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
