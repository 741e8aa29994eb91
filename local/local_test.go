package local

import (
	"context"
	"errors"
	"reflect"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/unkn0wn-root/tiercache/backend"
)

func newTestLocal(t *testing.T, mutate func(*Config)) *Local {
	t.Helper()
	cfg := Config{Name: "test", MaxCapacity: 1000, DefaultTTL: time.Hour}
	if mutate != nil {
		mutate(&cfg)
	}
	l, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = l.Close(context.Background()) })
	return l
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	for _, engine := range []Engine{EngineRistretto, EngineBigcache} {
		t.Run(string(engine), func(t *testing.T) {
			l := newTestLocal(t, func(c *Config) { c.Engine = engine })

			if _, ok, err := l.Get(ctx, "user:1"); err != nil || ok {
				t.Fatalf("expected miss, ok=%v err=%v", ok, err)
			}
			if err := l.Set(ctx, "user:1", []byte(`{"name":"Ada"}`)); err != nil {
				t.Fatalf("Set: %v", err)
			}
			got, ok, err := l.Get(ctx, "user:1")
			if err != nil || !ok || string(got) != `{"name":"Ada"}` {
				t.Fatalf("Get = %q,%v,%v", got, ok, err)
			}

			// overwrite
			if err := l.SetTTL(ctx, "user:1", []byte("v2"), time.Second); err != nil {
				t.Fatalf("SetTTL: %v", err)
			}
			if got, _, _ := l.Get(ctx, "user:1"); string(got) != "v2" {
				t.Fatalf("Get after overwrite = %q", got)
			}
		})
	}
}

func TestBigcacheHonoursMaxCapacity(t *testing.T) {
	ctx := context.Background()
	l := newTestLocal(t, func(c *Config) {
		c.Engine = EngineBigcache
		c.MaxCapacity = 10
	})

	for i := 0; i < 5000; i++ {
		if err := l.Set(ctx, "k"+strconv.Itoa(i), []byte("v")); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}
	keys, err := l.Keys(ctx, "*")
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 10 {
		t.Fatalf("held %d keys, want 10", len(keys))
	}

	// a full store still accepts overwrites
	if err := l.Set(ctx, "k0", []byte("v2")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, ok, _ := l.Get(ctx, "k0"); !ok || string(got) != "v2" {
		t.Fatalf("Get k0 = %q,%v", got, ok)
	}
	if _, ok, _ := l.Get(ctx, "k4999"); ok {
		t.Fatal("k4999 was admitted past capacity")
	}
}

func TestSetCopiesInput(t *testing.T) {
	ctx := context.Background()
	l := newTestLocal(t, nil)
	buf := []byte("abc")
	_ = l.Set(ctx, "k", buf)
	buf[0] = 'X'
	if got, _, _ := l.Get(ctx, "k"); string(got) != "abc" {
		t.Fatalf("stored value mutated: %q", got)
	}
}

func TestEntriesExpireWithDefaultTTL(t *testing.T) {
	ctx := context.Background()
	l := newTestLocal(t, func(c *Config) { c.DefaultTTL = 50 * time.Millisecond })

	// per-call TTL is ignored; the tier-wide TTL applies
	_ = l.SetTTL(ctx, "short", []byte("v"), time.Hour)
	time.Sleep(150 * time.Millisecond)
	if _, ok, _ := l.Get(ctx, "short"); ok {
		t.Fatalf("entry should have expired with the default TTL")
	}
}

func TestDelRemovesPlainAndHash(t *testing.T) {
	ctx := context.Background()
	l := newTestLocal(t, nil)
	_ = l.Set(ctx, "k", []byte("v"))
	_ = l.HSet(ctx, "k", "f", []byte("x"))

	if err := l.Del(ctx, "k"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if ok, _ := l.Exists(ctx, "k"); ok {
		t.Fatalf("k should not exist after Del")
	}
	if ok, _ := l.HExists(ctx, "k", "f"); ok {
		t.Fatalf("hash field should be gone after Del")
	}
}

func TestExpire(t *testing.T) {
	ctx := context.Background()
	l := newTestLocal(t, nil)

	err := l.Expire(ctx, "missing", time.Minute)
	if err == nil {
		t.Fatalf("Expire on absent key should fail")
	}
	if backend.CodeOf(err) != backend.CodeOther {
		t.Fatalf("code = %v, want other", backend.CodeOf(err))
	}

	_ = l.Set(ctx, "present", []byte("v"))
	if err := l.Expire(ctx, "present", time.Minute); err != nil {
		t.Fatalf("Expire on present key: %v", err)
	}
	_ = l.HSet(ctx, "hash-only", "f", []byte("v"))
	if err := l.Expire(ctx, "hash-only", time.Minute); err != nil {
		t.Fatalf("Expire on hash key: %v", err)
	}
}

func TestIncrDecr(t *testing.T) {
	ctx := context.Background()
	l := newTestLocal(t, nil)

	if n, err := l.Incr(ctx, "ctr"); err != nil || n != 1 {
		t.Fatalf("Incr missing = %d,%v", n, err)
	}
	if n, _ := l.Incr(ctx, "ctr"); n != 2 {
		t.Fatalf("Incr = %d", n)
	}
	if got, _, _ := l.Get(ctx, "ctr"); string(got) != "2" {
		t.Fatalf("stored counter = %q, want decimal 2", got)
	}
	if n, _ := l.Decr(ctx, "other"); n != -1 {
		t.Fatalf("Decr missing = %d", n)
	}

	_ = l.Set(ctx, "seeded", []byte("41"))
	if n, _ := l.Incr(ctx, "seeded"); n != 42 {
		t.Fatalf("Incr seeded = %d", n)
	}

	_ = l.Set(ctx, "text", []byte(`"abc"`))
	_, err := l.Incr(ctx, "text")
	if !errors.Is(err, backend.ErrDeserialization) {
		t.Fatalf("Incr on non-decimal: err=%v, want deserialization", err)
	}
}

func TestConcurrentIncrDoesNotLoseUpdates(t *testing.T) {
	ctx := context.Background()
	l := newTestLocal(t, nil)

	const n = 64
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Incr(ctx, "hits"); err != nil {
				t.Errorf("Incr: %v", err)
			}
		}()
	}
	wg.Wait()
	got, _, _ := l.Get(ctx, "hits")
	if string(got) != strconv.Itoa(n) {
		t.Fatalf("hits = %q, want %d", got, n)
	}
}

func TestHashFieldLifecycle(t *testing.T) {
	ctx := context.Background()
	l := newTestLocal(t, nil)

	if err := l.HSet(ctx, "h", "f", []byte("v")); err != nil {
		t.Fatalf("HSet: %v", err)
	}
	if ok, _ := l.HExists(ctx, "h", "f"); !ok {
		t.Fatalf("HExists after HSet = false")
	}
	if ok, _ := l.Exists(ctx, "h"); !ok {
		t.Fatalf("Exists(h) = false with a field present")
	}
	if v, ok, _ := l.HGet(ctx, "h", "f"); !ok || string(v) != "v" {
		t.Fatalf("HGet = %q,%v", v, ok)
	}
	if err := l.HDel(ctx, "h", "f"); err != nil {
		t.Fatalf("HDel: %v", err)
	}
	if ok, _ := l.HExists(ctx, "h", "f"); ok {
		t.Fatalf("HExists after HDel = true")
	}
	if ok, _ := l.Exists(ctx, "h"); ok {
		t.Fatalf("Exists(h) = true after removing its only field")
	}
}

func TestHashKeysAndLen(t *testing.T) {
	ctx := context.Background()
	l := newTestLocal(t, nil)

	for _, f := range []string{"b", "a", "c"} {
		_ = l.HSet(ctx, "cfg", f, []byte(f))
	}
	keys, _ := l.HKeys(ctx, "cfg")
	if !reflect.DeepEqual(keys, []string{"a", "b", "c"}) {
		t.Fatalf("HKeys = %v", keys)
	}
	if n, _ := l.HLen(ctx, "cfg"); n != 3 {
		t.Fatalf("HLen = %d", n)
	}
	_ = l.HDel(ctx, "cfg", "a")
	if n, _ := l.HLen(ctx, "cfg"); n != 2 {
		t.Fatalf("HLen after HDel = %d", n)
	}
	if keys, _ := l.HKeys(ctx, "none"); len(keys) != 0 {
		t.Fatalf("HKeys(none) = %v", keys)
	}
	if n, _ := l.HLen(ctx, "none"); n != 0 {
		t.Fatalf("HLen(none) = %d", n)
	}
}

func TestKeysGlob(t *testing.T) {
	ctx := context.Background()
	for _, engine := range []Engine{EngineRistretto, EngineBigcache} {
		t.Run(string(engine), func(t *testing.T) {
			l := newTestLocal(t, func(c *Config) { c.Engine = engine })
			for _, k := range []string{"user:1", "user:2", "user:10", "sys:config"} {
				_ = l.Set(ctx, k, []byte("v"))
			}
			_ = l.HSet(ctx, "user:hash", "f", []byte("v"))

			cases := []struct {
				pattern string
				want    []string
			}{
				{"user:*", []string{"user:1", "user:10", "user:2", "user:hash"}},
				{"user:?", []string{"user:1", "user:2"}},
				{"[^u]*", []string{"sys:config"}},
				{"*", []string{"sys:config", "user:1", "user:10", "user:2", "user:hash"}},
				{"nothing:*", []string{}},
			}
			for _, tc := range cases {
				got, err := l.Keys(ctx, tc.pattern)
				if err != nil {
					t.Fatalf("Keys(%q): %v", tc.pattern, err)
				}
				if !reflect.DeepEqual(got, tc.want) {
					t.Fatalf("Keys(%q) = %v, want %v", tc.pattern, got, tc.want)
				}
			}

			_ = l.Del(ctx, "user:1")
			got, _ := l.Keys(ctx, "user:?")
			if !reflect.DeepEqual(got, []string{"user:2"}) {
				t.Fatalf("Keys after Del = %v", got)
			}
		})
	}
}

func TestSweepPrunesExpiredIndexEntries(t *testing.T) {
	ctx := context.Background()
	l := newTestLocal(t, func(c *Config) { c.DefaultTTL = 20 * time.Millisecond })
	_ = l.Set(ctx, "gone", []byte("v"))

	rs, ok := l.store.(*ristrettoStore)
	if !ok {
		t.Fatalf("default engine should be ristretto, got %T", l.store)
	}
	if !rs.index.Has("gone") {
		t.Fatalf("index should track the key after Set")
	}
	time.Sleep(60 * time.Millisecond)
	l.store.sweep()
	if rs.index.Has("gone") {
		t.Fatalf("sweep should drop expired keys from the index")
	}
}

func TestIntrospectionDefaults(t *testing.T) {
	ctx := context.Background()
	l := newTestLocal(t, nil)
	_ = l.Set(ctx, "k", []byte("v"))
	if s, err := l.Info(ctx, ""); err != nil || s != "" {
		t.Fatalf("Info = %q,%v", s, err)
	}
	if n, err := l.DBSize(ctx); err != nil || n != 0 {
		t.Fatalf("DBSize = %d,%v", n, err)
	}
	if l.Kind() != backend.KindLocal {
		t.Fatalf("Kind = %v", l.Kind())
	}
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{}, nil)
	if !errors.Is(err, backend.ErrConfiguration) {
		t.Fatalf("empty name: err=%v, want configuration", err)
	}
	_, err = New(Config{Name: "x", Engine: "lru"}, nil)
	if !errors.Is(err, backend.ErrConfiguration) {
		t.Fatalf("unknown engine: err=%v, want configuration", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	l, err := New(Config{Name: "c", CleanupInterval: 10 * time.Millisecond}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := l.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := l.Close(context.Background()); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
