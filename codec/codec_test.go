package codec

import (
	"errors"
	"testing"
	"time"

	"google.golang.org/protobuf/types/known/wrapperspb"
)

type user struct {
	ID    int64     `json:"id" msgpack:"id" cbor:"id"`
	Name  string    `json:"name" msgpack:"name" cbor:"name"`
	Since time.Time `json:"since" msgpack:"since" cbor:"since"`
}

func sampleUser() user {
	return user{ID: 7, Name: "Ada", Since: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func checkUser(t *testing.T, got user) {
	t.Helper()
	want := sampleUser()
	if got.ID != want.ID || got.Name != want.Name || !got.Since.Equal(want.Since) {
		t.Fatalf("decoded %+v, want %+v", got, want)
	}
}

func TestTypedCodecs(t *testing.T) {
	codecs := map[string]Codec[user]{
		"json":     JSON[user]{},
		"msgpack":  Msgpack[user]{},
		"cbor":     MustCBOR[user](false),
		"cbor-det": MustCBOR[user](true),
		"limit":    Limit[user]{Inner: JSON[user]{}, MaxDecode: 1024},
	}
	for name, c := range codecs {
		t.Run(name, func(t *testing.T) {
			b, err := c.Encode(sampleUser())
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			got, err := c.Decode(b)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			checkUser(t, got)
		})
	}
}

func TestMarshalers(t *testing.T) {
	for _, name := range []string{"json", "msgpack", "cbor", ""} {
		m, err := ByName(name)
		if err != nil {
			t.Fatalf("ByName(%q): %v", name, err)
		}
		b, err := m.Marshal(sampleUser())
		if err != nil {
			t.Fatalf("%s Marshal: %v", m.Name(), err)
		}
		var got user
		if err := m.Unmarshal(b, &got); err != nil {
			t.Fatalf("%s Unmarshal: %v", m.Name(), err)
		}
		checkUser(t, got)

		// Of exposes the same marshaler as a typed codec
		got, err = Of[user](m).Decode(b)
		if err != nil {
			t.Fatalf("%s Of.Decode: %v", m.Name(), err)
		}
		checkUser(t, got)
	}

	if _, err := ByName("gob"); err == nil {
		t.Fatalf("ByName(gob) should fail")
	}
}

func TestLimitRejectsOversizedPayload(t *testing.T) {
	c := Limit[string]{Inner: String{}, MaxDecode: 4}
	if _, err := c.Decode([]byte("12345")); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("err = %v, want ErrTooLarge", err)
	}
	if s, err := c.Decode([]byte("1234")); err != nil || s != "1234" {
		t.Fatalf("Decode = %q, %v", s, err)
	}
	off := Limit[string]{Inner: String{}}
	if _, err := off.Decode(make([]byte, 1<<16)); err != nil {
		t.Fatalf("MaxDecode=0 should disable the limit: %v", err)
	}
}

func TestProtobuf(t *testing.T) {
	c := NewProtobuf(func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} })
	b, err := c.Encode(wrapperspb.String("hello"))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := c.Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.GetValue() != "hello" {
		t.Fatalf("Decode = %q", got.GetValue())
	}

	var zero Protobuf[*wrapperspb.StringValue]
	if _, err := zero.Decode(b); err == nil {
		t.Fatalf("zero Protobuf codec should refuse to decode")
	}
}

func TestRawCodecs(t *testing.T) {
	if b, _ := (String{}).Encode("abc"); string(b) != "abc" {
		t.Fatalf("String.Encode = %q", b)
	}
	if b, _ := (Int64{}).Encode(-42); string(b) != "-42" {
		t.Fatalf("Int64.Encode = %q", b)
	}
	if n, err := (Int64{}).Decode([]byte(" 17\n")); err != nil || n != 17 {
		t.Fatalf("Int64.Decode = %d, %v", n, err)
	}
	if _, err := (Int64{}).Decode([]byte(`"17"`)); err == nil {
		t.Fatalf("Int64.Decode should reject quoted numbers")
	}
	in := []byte{0, 1, 2}
	if out, _ := (Bytes{}).Decode(in); len(out) != 3 {
		t.Fatalf("Bytes.Decode = %v", out)
	}
}
