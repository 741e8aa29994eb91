// Package codec converts cache values to and from the []byte payloads the
// backends store.
//
// Codec[V] is the typed form used by tiercache.Typed. Marshaler is the untyped
// form behind the generic helpers tiercache.Get and tiercache.Set; it is
// picked by name from settings ("json", "msgpack", "cbor").
package codec

import (
	"fmt"
	"strings"
)

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// Marshaler encodes arbitrary values. Unmarshal expects a pointer.
type Marshaler interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(b []byte, v any) error
}

// Of adapts a Marshaler to a Codec for one value type.
func Of[V any](m Marshaler) Codec[V] { return marshalerCodec[V]{m: m} }

type marshalerCodec[V any] struct{ m Marshaler }

func (c marshalerCodec[V]) Encode(v V) ([]byte, error) { return c.m.Marshal(v) }
func (c marshalerCodec[V]) Decode(b []byte) (V, error) {
	var v V
	err := c.m.Unmarshal(b, &v)
	return v, err
}

// ByName returns the Marshaler registered under name. Empty means JSON.
func ByName(name string) (Marshaler, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return JSONMarshaler{}, nil
	case "msgpack":
		return MsgpackMarshaler{}, nil
	case "cbor":
		return NewCBORMarshaler(false)
	default:
		return nil, fmt.Errorf("unknown codec %q (want json, msgpack or cbor)", name)
	}
}
