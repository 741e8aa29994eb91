package codec

import (
	"github.com/fxamacker/cbor/v2"
)

// CBOR encodes V with fxamacker/cbor.
// The zero value is NOT ready to use. Construct with NewCBOR or MustCBOR.
//
// deterministic=true selects RFC 8949 Core Deterministic encoding for
// byte-stable output. Time values are encoded as RFC3339Nano.
type CBOR[V any] struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var _ Codec[struct{}] = CBOR[struct{}]{}

func cborModes(deterministic bool) (cbor.EncMode, cbor.DecMode, error) {
	var eo cbor.EncOptions
	if deterministic {
		eo = cbor.CoreDetEncOptions()
	} else {
		eo = cbor.PreferredUnsortedEncOptions()
	}
	eo.Time = cbor.TimeRFC3339Nano

	em, err := eo.EncMode()
	if err != nil {
		return nil, nil, err
	}
	dm, err := (cbor.DecOptions{}).DecMode()
	if err != nil {
		return nil, nil, err
	}
	return em, dm, nil
}

func NewCBOR[V any](deterministic bool) (CBOR[V], error) {
	em, dm, err := cborModes(deterministic)
	if err != nil {
		return CBOR[V]{}, err
	}
	return CBOR[V]{enc: em, dec: dm}, nil
}

// MustCBOR is like NewCBOR but panics on error. Meant for package-level
// variables.
func MustCBOR[V any](deterministic bool) CBOR[V] {
	c, err := NewCBOR[V](deterministic)
	if err != nil {
		panic(err)
	}
	return c
}

func (c CBOR[V]) Encode(v V) ([]byte, error) {
	return c.enc.Marshal(v)
}

func (c CBOR[V]) Decode(b []byte) (V, error) {
	var v V
	err := c.dec.Unmarshal(b, &v)
	return v, err
}

// CBORMarshaler is the untyped counterpart of CBOR.
type CBORMarshaler struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

func NewCBORMarshaler(deterministic bool) (CBORMarshaler, error) {
	em, dm, err := cborModes(deterministic)
	if err != nil {
		return CBORMarshaler{}, err
	}
	return CBORMarshaler{enc: em, dec: dm}, nil
}

func (CBORMarshaler) Name() string                      { return "cbor" }
func (m CBORMarshaler) Marshal(v any) ([]byte, error)   { return m.enc.Marshal(v) }
func (m CBORMarshaler) Unmarshal(b []byte, v any) error { return m.dec.Unmarshal(b, v) }
