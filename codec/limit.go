package codec

import (
	"errors"
	"fmt"
)

// ErrTooLarge marks a record refused by MaxSize.
var ErrTooLarge = errors.New("record too large")

// MaxSize refuses to decode records longer than Bytes before handing them to
// Inner. Anyone with access to the Redis server can write a record, so this
// bounds what a reader allocates. Bytes <= 0 turns the check off; encoding
// is never limited.
type MaxSize[V any] struct {
	Inner Codec[V]
	Bytes int
}

func (c MaxSize[V]) Encode(v V) ([]byte, error) { return c.Inner.Encode(v) }

func (c MaxSize[V]) Decode(b []byte) (V, error) {
	if c.Bytes > 0 && len(b) > c.Bytes {
		var zero V
		return zero, decodeErr("limit", b, fmt.Errorf("%w (max %d)", ErrTooLarge, c.Bytes))
	}
	return c.Inner.Decode(b)
}
