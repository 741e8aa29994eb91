package multi

// Hooks receives degradation events from a multi-level cache.
// Implementations must be cheap and non-blocking; wrap slow sinks with
// hooks/async.
type Hooks interface {
	// Remote failed an operation the cache absorbed.
	// op ∈ {"get", "set", "del", "exists", "expire", "incr", "decr",
	// "hset", "hget", "hdel", "hexists", "hkeys", "hlen", "keys"}
	RemoteFailure(op, key string, err error)

	// Remote could not be built at construction; the cache serves Local only.
	FallbackActivated(err error)
}

// NopHooks is the default no-op.
type NopHooks struct{}

func (NopHooks) RemoteFailure(string, string, error) {}
func (NopHooks) FallbackActivated(error)             {}
