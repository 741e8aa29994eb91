// Package remote implements the shared cache tier on Redis.
//
// A Remote wraps a go-redis UniversalClient (a *redis.Client for standalone
// deployments, a *redis.ClusterClient for cluster ones). Every call uses the
// caller's context. Failures are classified into backend codes: redis.Nil is
// a miss, transport failures are CodeConnection, a non-integer INCR target is
// CodeDeserialization and other server replies are CodeOther.
package remote

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/tiercache/backend"
)

// Remote is the Redis backend.
type Remote struct {
	rdb        redis.UniversalClient
	cfg        Config
	log        backend.Logger
	ownsClient bool
	closeOnce  sync.Once
	closeErr   error
}

var _ backend.Backend = (*Remote)(nil)

// New connects to Redis and verifies the connection with PING within
// cfg.ConnectTimeout.
func New(ctx context.Context, cfg Config, log backend.Logger) (*Remote, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	log = backend.OrNop(log)

	var (
		rdb    redis.UniversalClient
		target backend.Fields
	)
	switch cfg.Topology {
	case TopologyCluster:
		opts, err := cfg.clusterOptions()
		if err != nil {
			return nil, backend.Wrap(backend.CodeConfiguration, "remote", "", err)
		}
		rdb = redis.NewClusterClient(opts)
		target = backend.Fields{"topology": cfg.Topology, "addrs": opts.Addrs, "user": opts.Username}
	default:
		opts, err := cfg.standaloneOptions()
		if err != nil {
			return nil, backend.Wrap(backend.CodeConfiguration, "remote", "", fmt.Errorf("invalid redis url %s: %w", redactHost(cfg.URL), err))
		}
		rdb = redis.NewClient(opts)
		target = backend.Fields{"topology": cfg.Topology, "addr": opts.Addr, "db": opts.DB, "user": opts.Username}
	}

	pctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		log.Error("redis connection failed", withErr(target, err))
		return nil, backend.Wrap(backend.CodeConnection, "connect", "", err)
	}
	log.Info("redis connected", target)

	return &Remote{rdb: rdb, cfg: cfg, log: log, ownsClient: true}, nil
}

// NewFromClient wraps an existing client. The caller keeps ownership: Close
// does not close rdb.
func NewFromClient(rdb redis.UniversalClient, cfg Config, log backend.Logger) (*Remote, error) {
	if rdb == nil {
		return nil, backend.Errorf(backend.CodeConfiguration, "remote", "", "nil redis client")
	}
	return &Remote{rdb: rdb, cfg: cfg.withDefaults(), log: backend.OrNop(log)}, nil
}

// Client exposes the underlying client for commands outside the contract.
func (r *Remote) Client() redis.UniversalClient { return r.rdb }

func (r *Remote) Kind() backend.Kind { return backend.KindRemote }

func (r *Remote) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, classify("get", key, err)
	}
	return b, true, nil
}

// Set stores value with the configured DefaultTTL.
func (r *Remote) Set(ctx context.Context, key string, value []byte) error {
	return r.SetTTL(ctx, key, value, 0)
}

// SetTTL stores value with ttl. A zero ttl means DefaultTTL.
func (r *Remote) SetTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = r.cfg.DefaultTTL
	}
	if ttl < 0 {
		ttl = 0 // no expiry
	}
	return classify("set", key, r.rdb.Set(ctx, key, value, ttl).Err())
}

func (r *Remote) Del(ctx context.Context, key string) error {
	return classify("del", key, r.rdb.Del(ctx, key).Err())
}

func (r *Remote) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, classify("exists", key, err)
	}
	return n > 0, nil
}

func (r *Remote) Expire(ctx context.Context, key string, ttl time.Duration) error {
	ok, err := r.rdb.Expire(ctx, key, ttl).Result()
	if err != nil {
		return classify("expire", key, err)
	}
	if !ok {
		return backend.Errorf(backend.CodeOther, "expire", key, "key does not exist")
	}
	return nil
}

func (r *Remote) Incr(ctx context.Context, key string) (int64, error) {
	n, err := r.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, classify("incr", key, err)
	}
	return n, nil
}

func (r *Remote) Decr(ctx context.Context, key string) (int64, error) {
	n, err := r.rdb.Decr(ctx, key).Result()
	if err != nil {
		return 0, classify("decr", key, err)
	}
	return n, nil
}

func (r *Remote) HSet(ctx context.Context, key, field string, value []byte) error {
	return classify("hset", key, r.rdb.HSet(ctx, key, field, value).Err())
}

func (r *Remote) HGet(ctx context.Context, key, field string) ([]byte, bool, error) {
	b, err := r.rdb.HGet(ctx, key, field).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, classify("hget", key, err)
	}
	return b, true, nil
}

func (r *Remote) HDel(ctx context.Context, key, field string) error {
	return classify("hdel", key, r.rdb.HDel(ctx, key, field).Err())
}

func (r *Remote) HExists(ctx context.Context, key, field string) (bool, error) {
	ok, err := r.rdb.HExists(ctx, key, field).Result()
	if err != nil {
		return false, classify("hexists", key, err)
	}
	return ok, nil
}

// HKeys returns the field names of key, sorted.
func (r *Remote) HKeys(ctx context.Context, key string) ([]string, error) {
	fields, err := r.rdb.HKeys(ctx, key).Result()
	if err != nil {
		return nil, classify("hkeys", key, err)
	}
	sort.Strings(fields)
	return fields, nil
}

func (r *Remote) HLen(ctx context.Context, key string) (int, error) {
	n, err := r.rdb.HLen(ctx, key).Result()
	if err != nil {
		return 0, classify("hlen", key, err)
	}
	return int(n), nil
}

// Keys runs KEYS pattern. On a cluster every master is queried and the
// results merged. The result is sorted.
func (r *Remote) Keys(ctx context.Context, pattern string) ([]string, error) {
	cc, ok := r.rdb.(*redis.ClusterClient)
	if !ok {
		keys, err := r.rdb.Keys(ctx, pattern).Result()
		if err != nil {
			return nil, classify("keys", pattern, err)
		}
		sort.Strings(keys)
		return keys, nil
	}

	var (
		mu   sync.Mutex
		seen = make(map[string]struct{})
	)
	err := cc.ForEachMaster(ctx, func(ctx context.Context, node *redis.Client) error {
		keys, err := node.Keys(ctx, pattern).Result()
		if err != nil {
			return err
		}
		mu.Lock()
		for _, k := range keys {
			seen[k] = struct{}{}
		}
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, classify("keys", pattern, err)
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

// Info returns the raw INFO reply for section (all default sections when
// empty). A server that rejects the command yields "".
func (r *Remote) Info(ctx context.Context, section string) (string, error) {
	var cmd *redis.StringCmd
	if section == "" {
		cmd = r.rdb.Info(ctx)
	} else {
		cmd = r.rdb.Info(ctx, section)
	}
	s, err := cmd.Result()
	if err != nil {
		if isServerError(err) {
			r.log.Debug("redis info unsupported", backend.Fields{"section": section, "err": err.Error()})
			return "", nil
		}
		return "", classify("info", "", err)
	}
	return s, nil
}

// DBSize reports the number of keys. A server that rejects the command yields 0.
func (r *Remote) DBSize(ctx context.Context) (int, error) {
	n, err := r.rdb.DBSize(ctx).Result()
	if err != nil {
		if isServerError(err) {
			r.log.Debug("redis dbsize unsupported", backend.Fields{"err": err.Error()})
			return 0, nil
		}
		return 0, classify("dbsize", "", err)
	}
	return int(n), nil
}

// Close closes the client when this backend created it. Repeated calls are no-ops.
func (r *Remote) Close(context.Context) error {
	r.closeOnce.Do(func() {
		if !r.ownsClient {
			return
		}
		if err := r.rdb.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
			r.closeErr = backend.Wrap(backend.CodeConnection, "close", "", err)
		}
	})
	return r.closeErr
}

// classify maps a go-redis error onto a backend code. nil stays nil.
func classify(op, key string, err error) error {
	if err == nil {
		return nil
	}
	if isServerError(err) {
		if strings.Contains(err.Error(), "not an integer") {
			return backend.Wrap(backend.CodeDeserialization, op, key, err)
		}
		return backend.Wrap(backend.CodeOther, op, key, err)
	}
	return backend.Wrap(backend.CodeConnection, op, key, err)
}

// isServerError reports whether err is an error reply from Redis rather than
// a transport failure.
func isServerError(err error) bool {
	var rerr redis.Error
	return errors.As(err, &rerr) && !errors.Is(err, redis.Nil)
}

func withErr(f backend.Fields, err error) backend.Fields {
	out := make(backend.Fields, len(f)+1)
	for k, v := range f {
		out[k] = v
	}
	out["err"] = err.Error()
	return out
}
