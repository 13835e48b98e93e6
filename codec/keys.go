package codec

import (
	"encoding/binary"
	"fmt"
)

// StringKey stores keys as their UTF-8 bytes. Byte order equals Go string
// order.
type StringKey struct{}

func (StringKey) EncodeKey(k string) []byte          { return []byte(k) }
func (StringKey) DecodeKey(b []byte) (string, error) { return string(b), nil }

// BytesKey keeps keys as given.
type BytesKey struct{}

func (BytesKey) EncodeKey(k []byte) []byte          { return k }
func (BytesKey) DecodeKey(b []byte) ([]byte, error) { return b, nil }

// Uint64Key writes keys as 8 big-endian bytes so numeric order survives the
// lexicographic index ("10" would sort before "9" as decimal text).
type Uint64Key struct{}

func (Uint64Key) EncodeKey(k uint64) []byte {
	return binary.BigEndian.AppendUint64(make([]byte, 0, 8), k)
}

func (Uint64Key) DecodeKey(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, decodeErr("uint64 key", b, fmt.Errorf("want 8 bytes"))
	}
	return binary.BigEndian.Uint64(b), nil
}

// Int64Key is Uint64Key with the sign bit flipped, so negative keys sort
// before positive ones.
type Int64Key struct{}

const signBit = 1 << 63

func (Int64Key) EncodeKey(k int64) []byte { return Uint64Key{}.EncodeKey(uint64(k) ^ signBit) }

func (Int64Key) DecodeKey(b []byte) (int64, error) {
	u, err := Uint64Key{}.DecodeKey(b)
	if err != nil {
		return 0, err
	}
	return int64(u ^ signBit), nil
}
