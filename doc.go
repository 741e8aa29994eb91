// Package tiercache is a tiered cache: an in-process Local tier, a shared
// Remote tier on Redis, and a multi-level composition of both.
//
// Components:
//   - backend: the Backend contract every tier implements, error codes, Logger.
//   - local: bounded in-process tier (Ristretto or BigCache) with a hash store.
//   - remote: Redis tier, standalone or cluster.
//   - multi: Local-first reads, write-through to Remote, Remote-owned counters.
//   - Registry: builds one backend from Settings, safely under concurrent Init.
//
// Typical use:
//
//	s, err := tiercache.LoadSettings("cache.yaml")
//	if err != nil { ... }
//	if err := tiercache.Init(ctx, s); err != nil { ... }
//	c, _ := tiercache.Default()
//	_ = tiercache.Set(ctx, c, "user:1", User{Name: "Ada"})
//	u, ok, err := tiercache.Get[User](ctx, c, "user:1")
//
// Settings file:
//
//	enabled: true
//	kind: multi
//	codec: msgpack
//	local:  { name: app, max_capacity: 10000, default_ttl_secs: 3600 }
//	remote: { url: "redis://127.0.0.1:6379/0", password: "...", pool_max: 20 }
//	multi:  { local_ttl_secs: 300, fallback_to_local: true }
package tiercache
