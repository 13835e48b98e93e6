package redisdown

import (
	"context"
	"fmt"

	c "github.com/unkn0wn-root/redisdown/codec"
)

// Typed is a Store view with keys of type K and values of type V. Keys pass
// through an order-preserving KeyCodec so range scans still follow K's
// order.
type Typed[K, V any] struct {
	s    *Store
	keys c.KeyCodec[K]
	vals c.Codec[V]
}

// NewTyped wraps s. The Store keeps its own lifecycle; closing it is up to
// the caller.
func NewTyped[K, V any](s *Store, keys c.KeyCodec[K], vals c.Codec[V]) *Typed[K, V] {
	return &Typed[K, V]{s: s, keys: keys, vals: vals}
}

// Store returns the wrapped store.
func (t *Typed[K, V]) Store() *Store { return t.s }

func (t *Typed[K, V]) Get(ctx context.Context, key K) (V, error) {
	var zero V
	b, err := t.s.Get(ctx, t.keys.EncodeKey(key))
	if err != nil {
		return zero, err
	}
	v, err := t.vals.Decode(b)
	if err != nil {
		return zero, fmt.Errorf("redisdown: %s: %w", t.s.location, err)
	}
	return v, nil
}

func (t *Typed[K, V]) Put(ctx context.Context, key K, v V) error {
	b, err := t.vals.Encode(v)
	if err != nil {
		return fmt.Errorf("redisdown: encode into %s: %w", t.s.location, err)
	}
	return t.s.Put(ctx, t.keys.EncodeKey(key), b)
}

func (t *Typed[K, V]) Delete(ctx context.Context, key K) error {
	return t.s.Delete(ctx, t.keys.EncodeKey(key))
}

// Iterator starts a range scan. Bounds of type K are encoded with the key
// codec; other bound values are passed through as raw keys. KeysOnly and
// ValuesOnly are ignored since both halves are always decoded.
func (t *Typed[K, V]) Iterator(opts IteratorOptions) *TypedIterator[K, V] {
	for _, b := range []*any{&opts.Gt, &opts.Gte, &opts.Lt, &opts.Lte} {
		if k, ok := (*b).(K); ok {
			*b = t.keys.EncodeKey(k)
		}
	}
	opts.KeysOnly, opts.ValuesOnly = false, false
	return &TypedIterator[K, V]{it: t.s.Iterator(opts), t: t}
}

// TypedIterator decodes the entries of an underlying Iterator.
type TypedIterator[K, V any] struct {
	it  *Iterator
	t   *Typed[K, V]
	key K
	val V
	err error
}

// Next advances and decodes the next entry. A key or value that fails to
// decode stops the iteration and is reported by Err.
func (ti *TypedIterator[K, V]) Next(ctx context.Context) bool {
	var (
		zk K
		zv V
	)
	ti.key, ti.val = zk, zv
	if ti.err != nil || !ti.it.Next(ctx) {
		return false
	}
	raw := ti.it.Key()
	k, err := ti.t.keys.DecodeKey(raw)
	if err == nil {
		ti.val, err = ti.t.vals.Decode(ti.it.Value())
	}
	if err != nil {
		ti.err = fmt.Errorf("redisdown: %s at %q: %w", ti.t.s.location, raw, err)
		_ = ti.it.Close()
		return false
	}
	ti.key = k
	return true
}

func (ti *TypedIterator[K, V]) Key() K   { return ti.key }
func (ti *TypedIterator[K, V]) Value() V { return ti.val }

func (ti *TypedIterator[K, V]) Err() error {
	if ti.err != nil {
		return ti.err
	}
	return ti.it.Err()
}

func (ti *TypedIterator[K, V]) Close() error { return ti.it.Close() }
