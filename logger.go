package tiercache

import "github.com/unkn0wn-root/tiercache/backend"

type (
	Logger    = backend.Logger
	Fields    = backend.Fields
	NopLogger = backend.NopLogger
)
