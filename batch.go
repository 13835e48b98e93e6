package redisdown

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/redisdown/internal/keys"
)

// OpType is the kind of a batch operation.
type OpType string

const (
	OpPut    OpType = "put"
	OpDelete OpType = "del"
)

// Op is one entry of Store.Batch. Prefix, when set, writes under that
// location instead of the store's own.
type Op struct {
	Type   OpType
	Prefix string
	Key    any
	Value  any
}

// command is one queued Redis command. Every logical write queues two: the
// record and its order-index membership.
type command struct {
	put      bool
	location string
	key      []byte
	value    []byte
}

func appendPut(cmds []command, location string, key, value any) []command {
	return append(cmds, command{put: true, location: location, key: keys.Normalize(key), value: keys.Normalize(value)})
}

func appendDel(cmds []command, location string, key any) []command {
	return append(cmds, command{location: location, key: keys.Normalize(key)})
}

func (s *Store) prefix(p string) string {
	if p == "" {
		return s.location
	}
	return p
}

// Put stores value under key. A nil value is stored as empty.
func (s *Store) Put(ctx context.Context, key, value any) error {
	if !s.isOpen() {
		return ErrNotOpen
	}
	return s.exec(ctx, appendPut(nil, s.location, key, value))
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key any) error {
	if !s.isOpen() {
		return ErrNotOpen
	}
	return s.exec(ctx, appendDel(nil, s.location, key))
}

// Batch applies ops in order as one MULTI/EXEC block. If any op has an
// unknown type nothing is sent and a *BadOperationError is returned.
func (s *Store) Batch(ctx context.Context, ops []Op) error {
	if !s.isOpen() {
		return ErrNotOpen
	}
	cmds := make([]command, 0, len(ops))
	for i, op := range ops {
		switch op.Type {
		case OpPut:
			cmds = appendPut(cmds, s.prefix(op.Prefix), op.Key, op.Value)
		case OpDelete:
			cmds = appendDel(cmds, s.prefix(op.Prefix), op.Key)
		default:
			return &BadOperationError{Index: i, Type: op.Type}
		}
	}
	return s.exec(ctx, cmds)
}

// exec runs cmds in one transaction. Either every command applies or none.
func (s *Store) exec(ctx context.Context, cmds []command) error {
	if len(cmds) == 0 {
		return nil
	}
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, c := range cmds {
			vk := keys.ValueKey(c.location, c.key)
			ik := keys.IndexKey(c.location)
			if c.put {
				p.Set(ctx, vk, c.value, 0)
				p.ZAdd(ctx, ik, redis.Z{Score: 0, Member: c.key})
			} else {
				p.Del(ctx, vk)
				p.ZRem(ctx, ik, c.key)
			}
		}
		return nil
	})
	s.hooks.BatchExecuted(s.location, 2*len(cmds), err)
	if err != nil {
		return backendErr("batch", s.location, err)
	}
	s.evict(ctx, cmds)
	return nil
}

// Batch is a chained write batch. It is not safe for concurrent use.
type Batch struct {
	s    *Store
	cmds []command
}

// NewBatch starts an empty chained batch.
func (s *Store) NewBatch() *Batch { return &Batch{s: s} }

func (b *Batch) Put(key, value any) *Batch {
	b.cmds = appendPut(b.cmds, b.s.location, key, value)
	return b
}

func (b *Batch) Delete(key any) *Batch {
	b.cmds = appendDel(b.cmds, b.s.location, key)
	return b
}

// Len is the number of queued operations.
func (b *Batch) Len() int { return len(b.cmds) }

// Reset drops every queued operation.
func (b *Batch) Reset() { b.cmds = b.cmds[:0] }

// Write executes the queued operations atomically and resets the batch on
// success.
func (b *Batch) Write(ctx context.Context) error {
	if !b.s.isOpen() {
		return ErrNotOpen
	}
	if err := b.s.exec(ctx, b.cmds); err != nil {
		return err
	}
	b.Reset()
	return nil
}
