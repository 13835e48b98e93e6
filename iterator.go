package redisdown

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/redisdown/internal/keys"
)

// IteratorOptions bound and shape a range scan. Bounds are compared as raw
// bytes; Gt takes precedence over Gte and Lt over Lte.
type IteratorOptions struct {
	Gt, Gte any // lower edge
	Lt, Lte any // upper edge

	Reverse bool
	Limit   int // <= 0 means no limit

	KeysOnly   bool // skip value hydration
	ValuesOnly bool // Key() returns nil

	HighWaterMark int // page size; 0 => store default
}

// IteratorState is where an iterator is in its lifecycle.
type IteratorState int32

const (
	IteratorIdle IteratorState = iota
	IteratorFetching
	IteratorBuffered
	IteratorExhausted
	IteratorClosed
)

func (s IteratorState) String() string {
	switch s {
	case IteratorIdle:
		return "idle"
	case IteratorFetching:
		return "fetching"
	case IteratorBuffered:
		return "buffered"
	case IteratorExhausted:
		return "exhausted"
	case IteratorClosed:
		return "closed"
	default:
		return "unknown"
	}
}

type entry struct {
	key   []byte
	value []byte
}

// Iterator walks one location's keys in lexicographic (or reverse) order,
// fetching HighWaterMark index members per round trip.
//
// It is not a snapshot: keys written or removed while iterating may or may not
// show up depending on when the page covering them is fetched.
//
//	it := s.Iterator(redisdown.IteratorOptions{Gte: "rooms:"})
//	defer it.Close()
//	for it.Next(ctx) {
//	    use(it.Key(), it.Value())
//	}
//	if err := it.Err(); err != nil { ... }
type Iterator struct {
	s        *Store
	location string
	index    string

	min, max string // ZRANGEBYLEX bounds of the whole scan
	reverse  bool
	pageSize int
	keysOnly bool
	valsOnly bool

	limited   bool
	remaining int

	mu       sync.Mutex // serializes Next
	state    atomic.Int32
	buf      []entry
	last     []byte // last key handed to the buffer, the resume point
	started  bool
	lastPage bool
	cur      entry
	err      error
}

// Iterator returns a new range iterator. It performs no I/O until Next.
func (s *Store) Iterator(opts IteratorOptions) *Iterator {
	it := &Iterator{
		s:        s,
		location: s.location,
		index:    keys.IndexKey(s.location),
		min:      keys.MinusInf,
		max:      keys.PlusInf,
		reverse:  opts.Reverse,
		pageSize: coalesce(opts.HighWaterMark, s.highWaterMark),
		keysOnly: opts.KeysOnly,
		valsOnly: opts.ValuesOnly,
	}
	if it.pageSize <= 0 {
		it.pageSize = DefaultHighWaterMark
	}
	switch {
	case opts.Gt != nil:
		it.min = keys.Exclusive(keys.Normalize(opts.Gt))
	case opts.Gte != nil:
		it.min = keys.Inclusive(keys.Normalize(opts.Gte))
	}
	switch {
	case opts.Lt != nil:
		it.max = keys.Exclusive(keys.Normalize(opts.Lt))
	case opts.Lte != nil:
		it.max = keys.Inclusive(keys.Normalize(opts.Lte))
	}
	if opts.Limit > 0 {
		it.limited = true
		it.remaining = opts.Limit
	}
	if !s.isOpen() {
		it.err = ErrNotOpen
		it.state.Store(int32(IteratorExhausted))
	}
	return it
}

// State returns the current lifecycle state.
func (it *Iterator) State() IteratorState { return IteratorState(it.state.Load()) }

// Next advances to the next entry, fetching a page if the buffer is empty.
// It returns false at the end of the range, after Close, or on error.
func (it *Iterator) Next(ctx context.Context) bool {
	it.mu.Lock()
	defer it.mu.Unlock()

	for {
		switch it.State() {
		case IteratorClosed, IteratorExhausted:
			it.cur = entry{}
			it.buf = nil
			return false
		}
		if it.limited && it.remaining <= 0 {
			it.finish(IteratorExhausted)
			return false
		}
		if len(it.buf) > 0 {
			it.cur = it.buf[0]
			it.buf = it.buf[1:]
			if it.limited {
				it.remaining--
			}
			if len(it.buf) == 0 && it.lastPage {
				it.finish(IteratorExhausted)
			}
			return true
		}
		if it.lastPage {
			it.finish(IteratorExhausted)
			continue
		}
		if err := it.fetch(ctx); err != nil {
			it.err = err
			it.finish(IteratorExhausted)
			it.cur = entry{}
			return false
		}
	}
}

// finish moves to a terminal state unless the iterator was closed meanwhile.
func (it *Iterator) finish(st IteratorState) {
	it.state.CompareAndSwap(int32(IteratorIdle), int32(st))
	it.state.CompareAndSwap(int32(IteratorFetching), int32(st))
	it.state.CompareAndSwap(int32(IteratorBuffered), int32(st))
	it.buf = nil
}

func (it *Iterator) fetch(ctx context.Context) error {
	if !it.state.CompareAndSwap(int32(IteratorIdle), int32(IteratorFetching)) &&
		!it.state.CompareAndSwap(int32(IteratorBuffered), int32(IteratorFetching)) {
		return nil
	}

	count := it.pageSize
	if it.limited && it.remaining < count {
		count = it.remaining
	}

	rng := &redis.ZRangeBy{Min: it.min, Max: it.max, Count: int64(count)}
	var members []string
	var err error
	if it.reverse {
		if it.started {
			rng.Max = keys.Exclusive(it.last)
		}
		members, err = it.s.rdb.ZRevRangeByLex(ctx, it.index, rng).Result()
	} else {
		if it.started {
			rng.Min = keys.Exclusive(it.last)
		}
		members, err = it.s.rdb.ZRangeByLex(ctx, it.index, rng).Result()
	}
	if err != nil {
		return backendErr("iterate", it.location, err)
	}
	it.started = true
	it.s.hooks.PageFetched(it.location, len(members), it.reverse)

	if len(members) == 0 {
		it.lastPage = true
		it.state.CompareAndSwap(int32(IteratorFetching), int32(IteratorBuffered))
		return nil
	}
	if len(members) < count {
		it.lastPage = true
	}
	it.last = []byte(members[len(members)-1])

	page, err := it.hydrate(ctx, members)
	if err != nil {
		return err
	}
	// Close may have happened while the page was in flight.
	if !it.state.CompareAndSwap(int32(IteratorFetching), int32(IteratorBuffered)) {
		return nil
	}
	it.buf = page
	return nil
}

func (it *Iterator) hydrate(ctx context.Context, members []string) ([]entry, error) {
	page := make([]entry, 0, len(members))
	if it.keysOnly {
		for _, m := range members {
			page = append(page, entry{key: []byte(m)})
		}
		return page, nil
	}

	vks := make([]string, len(members))
	for i, m := range members {
		vks[i] = keys.ValueKey(it.location, []byte(m))
	}
	vals, err := it.s.rdb.MGet(ctx, vks...).Result()
	if err != nil {
		return nil, backendErr("iterate", it.location, err)
	}
	for i, m := range members {
		var v []byte
		switch t := vals[i].(type) {
		case string:
			v = []byte(t)
		case []byte:
			v = t
		default:
			it.s.hooks.DanglingIndexEntry(it.location, []byte(m))
			continue
		}
		page = append(page, entry{key: []byte(m), value: v})
	}
	return page, nil
}

// Key returns the current key. Nil with ValuesOnly or when not positioned.
func (it *Iterator) Key() []byte {
	if it.valsOnly {
		return nil
	}
	return it.cur.key
}

// Value returns the current value. Nil with KeysOnly or when not positioned.
func (it *Iterator) Value() []byte {
	if it.keysOnly {
		return nil
	}
	return it.cur.value
}

// Err returns the error that ended the iteration, if any.
func (it *Iterator) Err() error { return it.err }

// Close stops the iterator and drops buffered entries. A page fetch already
// in flight completes, but its result is discarded. Close is idempotent.
func (it *Iterator) Close() error {
	prev := IteratorState(it.state.Swap(int32(IteratorClosed)))
	if prev == IteratorClosed {
		return nil
	}
	if it.mu.TryLock() {
		it.buf = nil
		it.cur = entry{}
		it.mu.Unlock()
	}
	return nil
}

// Collect drains it into key/value pairs and closes it.
func (it *Iterator) Collect(ctx context.Context) ([][2][]byte, error) {
	defer it.Close()
	var out [][2][]byte
	for it.Next(ctx) {
		out = append(out, [2][]byte{it.Key(), it.Value()})
	}
	return out, it.Err()
}
