package redisdown

import "context"

// DB is the ordered key/value API implemented by *Store. Depend on it where a
// fake is handy in tests.
type DB interface {
	Get(ctx context.Context, key any) ([]byte, error)
	Has(ctx context.Context, key any) (bool, error)
	Put(ctx context.Context, key, value any) error
	Delete(ctx context.Context, key any) error
	Batch(ctx context.Context, ops []Op) error
	NewBatch() *Batch
	Iterator(opts IteratorOptions) *Iterator

	Destroy(ctx context.Context, doClose bool) error
	Close(ctx context.Context) error

	Location() string
	Features() Features
}

var _ DB = (*Store)(nil)
