package codec

import "encoding/json"

// JSON encodes V with encoding/json. The zero value is ready to use.
type JSON[V any] struct{}

func (JSON[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }
func (JSON[V]) Decode(b []byte) (V, error) {
	var v V
	err := json.Unmarshal(b, &v)
	return v, err
}

// JSONMarshaler is the default Marshaler.
type JSONMarshaler struct{}

func (JSONMarshaler) Name() string                    { return "json" }
func (JSONMarshaler) Marshal(v any) ([]byte, error)   { return json.Marshal(v) }
func (JSONMarshaler) Unmarshal(b []byte, v any) error { return json.Unmarshal(b, v) }
