package tiercache

import "github.com/unkn0wn-root/tiercache/backend"

// Re-exported so callers can classify errors without importing backend.
var (
	ErrNotInitialized  = backend.ErrNotInitialized
	ErrConnection      = backend.ErrConnection
	ErrSerialization   = backend.ErrSerialization
	ErrDeserialization = backend.ErrDeserialization
	ErrConfiguration   = backend.ErrConfiguration
)
