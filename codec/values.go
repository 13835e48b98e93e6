package codec

import (
	"encoding/json"

	"github.com/fxamacker/cbor/v2"
	"github.com/vmihailenco/msgpack/v5"
	"google.golang.org/protobuf/proto"
)

// JSON stores values as encoding/json documents, readable from redis-cli.
type JSON[V any] struct{}

func (JSON[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }

func (JSON[V]) Decode(b []byte) (V, error) {
	var v V
	err := json.Unmarshal(b, &v)
	return v, decodeErr("json", b, err)
}

// Msgpack stores values with vmihailenco/msgpack. Struct fields follow
// `msgpack:"name"` tags.
type Msgpack[V any] struct{}

func (Msgpack[V]) Encode(v V) ([]byte, error) { return msgpack.Marshal(v) }

func (Msgpack[V]) Decode(b []byte) (V, error) {
	var v V
	err := msgpack.Unmarshal(b, &v)
	return v, decodeErr("msgpack", b, err)
}

// CBOR stores values with fxamacker/cbor. Build it with NewCBOR.
type CBOR[V any] struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

// NewCBOR picks core deterministic encoding when canonical is set, so equal
// values always produce equal records; otherwise the shorter preferred
// encoding. time.Time is written as an RFC 3339 string either way.
func NewCBOR[V any](canonical bool) (CBOR[V], error) {
	opts := cbor.PreferredUnsortedEncOptions()
	if canonical {
		opts = cbor.CoreDetEncOptions()
	}
	opts.Time = cbor.TimeRFC3339Nano

	enc, err := opts.EncMode()
	if err != nil {
		return CBOR[V]{}, err
	}
	dec, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		return CBOR[V]{}, err
	}
	return CBOR[V]{enc: enc, dec: dec}, nil
}

// MustCBOR panics where NewCBOR would fail.
func MustCBOR[V any](canonical bool) CBOR[V] {
	c, err := NewCBOR[V](canonical)
	if err != nil {
		panic(err)
	}
	return c
}

func (c CBOR[V]) Encode(v V) ([]byte, error) { return c.enc.Marshal(v) }

func (c CBOR[V]) Decode(b []byte) (V, error) {
	var v V
	err := c.dec.Unmarshal(b, &v)
	return v, decodeErr("cbor", b, err)
}

// Protobuf stores proto messages in binary wire form. alloc returns an
// empty message to decode into.
type Protobuf[M proto.Message] struct {
	alloc func() M
}

func NewProtobuf[M proto.Message](alloc func() M) Protobuf[M] {
	return Protobuf[M]{alloc: alloc}
}

func (c Protobuf[M]) Encode(m M) ([]byte, error) { return proto.Marshal(m) }

func (c Protobuf[M]) Decode(b []byte) (M, error) {
	m := c.alloc()
	err := proto.Unmarshal(b, m)
	return m, decodeErr("protobuf", b, err)
}

// Bytes passes records through untouched.
type Bytes struct{}

func (Bytes) Encode(b []byte) ([]byte, error) { return b, nil }
func (Bytes) Decode(b []byte) ([]byte, error) { return b, nil }

// String converts between records and Go strings without UTF-8 checks.
type String struct{}

func (String) Encode(s string) ([]byte, error) { return []byte(s), nil }
func (String) Decode(b []byte) (string, error) { return string(b), nil }
