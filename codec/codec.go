// Package codec turns typed keys and values into the byte strings a Store
// keeps. Values go through a Codec. Keys go through a KeyCodec whose output
// sorts bytewise in the same order as the typed keys, which keeps range
// scans over the lexicographic order index meaningful.
package codec

import "fmt"

// Codec converts record values.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// KeyCodec converts record keys. For any a < b, EncodeKey(a) must compare
// below EncodeKey(b) under bytes.Compare.
type KeyCodec[K any] interface {
	EncodeKey(K) []byte
	DecodeKey([]byte) (K, error)
}

// DecodeError reports stored bytes a codec could not read.
type DecodeError struct {
	Format string
	Size   int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("codec: %s: cannot decode %d bytes: %v", e.Format, e.Size, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func decodeErr(format string, b []byte, err error) error {
	if err == nil {
		return nil
	}
	return &DecodeError{Format: format, Size: len(b), Err: err}
}

// Funcs builds a Codec from two functions, for formats not covered here.
type Funcs[V any] struct {
	EncodeFunc func(V) ([]byte, error)
	DecodeFunc func([]byte) (V, error)
}

func (f Funcs[V]) Encode(v V) ([]byte, error) { return f.EncodeFunc(v) }
func (f Funcs[V]) Decode(b []byte) (V, error) { return f.DecodeFunc(b) }
