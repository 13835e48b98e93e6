package redisdown

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/redisdown/internal/keys"
	pr "github.com/unkn0wn-root/redisdown/provider"
)

type ownership uint8

const (
	ownBorrowed  ownership = iota // caller-supplied client, never closed here
	ownShared                     // registry entry, closed by the last store
	ownExclusive                  // OwnClient, closed on Close
)

type state uint8

const (
	stateOpen state = iota + 1
	stateDestroying
	stateClosed
)

// Features lists the optional LevelDB capabilities a store supports.
type Features struct {
	Snapshots bool
	Seek      bool
}

// Store is one logical, ordered key/value store: a location (key prefix) on a
// possibly shared Redis client.
//
// Reads, writes and iterators may be used concurrently. Open, Close and
// Destroy on the same Store must not race with each other.
type Store struct {
	location    string // sanitized prefix
	rawLocation string // as passed to Open
	identity    string
	own         ownership

	rdb           redis.UniversalClient
	registry      *Registry
	scripts       ScriptLoader
	highWaterMark int
	cache         pr.Provider
	epoch         *atomic.Uint64 // write epoch of cache; nil without cache
	log           Logger
	hooks         Hooks

	mu    sync.RWMutex
	state state
}

// Open opens the store at location, creating or sharing a client built from
// opts.Conn. The location may be a URL (redis://host:port/prefix) in which
// case the address is taken from it and the path becomes the prefix.
func Open(ctx context.Context, location string, opts Options) (*Store, error) {
	reg := opts.Registry
	if reg == nil {
		reg = DefaultRegistry()
	}
	if !boolOr(opts.CreateIfMissing, true) && !reg.Known(location) {
		return nil, fmt.Errorf("%w: database %q does not exist", ErrConfiguration, location)
	}

	s := newStore(location, opts, reg)
	s.identity = opts.Conn.Identity(location)
	if opts.OwnClient {
		s.own = ownExclusive
		s.rdb = reg.dial(opts.Conn, location)
		s.hooks.ConnectionOpened(s.identity, false)
		s.log.Debug("dialed exclusive client", Fields{"addr": opts.Conn.Addr(location)})
	} else {
		s.own = ownShared
		c, created := reg.acquire(s.location, s.identity, opts.Conn, location)
		s.rdb = c
		if created {
			s.hooks.ConnectionOpened(s.identity, true)
			s.log.Debug("dialed shared client", Fields{"addr": opts.Conn.Addr(location)})
		} else {
			s.log.Debug("reusing shared client", Fields{"refs": reg.Refs(s.identity)})
		}
	}
	reg.remember(location, opts.Conn)

	if err := s.finishOpen(ctx, opts.DestroyOnOpen); err != nil {
		_ = s.Close(ctx)
		return nil, err
	}
	return s, nil
}

// OpenClient opens the store at location on a client the caller owns. The
// client is never registered, shared or closed by the store.
func OpenClient(ctx context.Context, location string, client redis.UniversalClient, opts Options) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: nil client", ErrConfiguration)
	}
	reg := opts.Registry
	if reg == nil {
		reg = DefaultRegistry()
	}
	if !boolOr(opts.CreateIfMissing, true) && !reg.Known(location) {
		return nil, fmt.Errorf("%w: database %q does not exist", ErrConfiguration, location)
	}
	s := newStore(location, opts, reg)
	s.own = ownBorrowed
	s.rdb = client
	if err := s.finishOpen(ctx, opts.DestroyOnOpen); err != nil {
		_ = s.Close(ctx)
		return nil, err
	}
	return s, nil
}

func newStore(location string, opts Options, reg *Registry) *Store {
	loc := keys.SanitizeLocation(location)
	s := &Store{
		location:      loc,
		rawLocation:   location,
		registry:      reg,
		scripts:       coalesce[ScriptLoader](opts.Scripts, NopScriptLoader{}),
		highWaterMark: coalesce(opts.HighWaterMark, DefaultHighWaterMark),
		cache:         opts.ReadCache,
		log:           withFields(coalesce[Logger](opts.Logger, NopLogger{}), Fields{"location": loc}),
		hooks:         coalesce[Hooks](opts.Hooks, NopHooks{}),
		state:         stateOpen,
	}
	if s.cache != nil {
		s.epoch = epochOf(s.cache)
	}
	return s
}

func (s *Store) finishOpen(ctx context.Context, destroyOnOpen bool) error {
	if destroyOnOpen {
		// a failed index delete is logged by Destroy; the store still opens
		_ = s.Destroy(ctx, false)
		return nil
	}
	if err := s.scripts.Preload(ctx, s.rdb); err != nil {
		s.log.Error("script preload failed", Fields{"err": err})
		return backendErr("preload", s.location, err)
	}
	return nil
}

// Location returns the key prefix the store writes under.
func (s *Store) Location() string { return s.location }

// Client returns the underlying client.
func (s *Store) Client() redis.UniversalClient { return s.rdb }

// Features reports that neither snapshots nor seek are supported.
func (s *Store) Features() Features { return Features{} }

// HighWaterMark returns the default iterator page size.
func (s *Store) HighWaterMark() int { return s.highWaterMark }

func (s *Store) isOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == stateOpen
}

// Get returns the value stored under key, or ErrNotFound.
func (s *Store) Get(ctx context.Context, key any) ([]byte, error) {
	if !s.isOpen() {
		return nil, ErrNotOpen
	}
	vk := keys.ValueKey(s.location, keys.Normalize(key))
	var start uint64
	if s.cache != nil {
		if b, ok, err := s.cache.Get(ctx, vk); err == nil && ok {
			return b, nil
		}
		start = s.epoch.Load()
	}
	b, err := s.rdb.Get(ctx, vk).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, backendErr("get", s.location, err)
	}
	if b == nil {
		b = []byte{}
	}
	if s.cache != nil {
		s.fill(ctx, vk, b, start)
	}
	return b, nil
}

// Has reports whether key has a record.
func (s *Store) Has(ctx context.Context, key any) (bool, error) {
	_, err := s.Get(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Close releases the store's hold on its client. It always completes: client
// teardown errors are logged, never returned. Calling Close again is a no-op.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.state == stateClosed {
		s.mu.Unlock()
		return nil
	}
	s.state = stateClosed
	s.mu.Unlock()

	switch s.own {
	case ownBorrowed:
		return nil
	case ownShared:
		last := s.registry.Release(s.identity, s.location)
		s.hooks.ConnectionReleased(s.identity, s.location, s.registry.Refs(s.identity))
		if !last {
			return nil
		}
	}
	s.teardown(ctx)
	return nil
}

func (s *Store) teardown(_ context.Context) {
	err := s.rdb.Close()
	if errors.Is(err, redis.ErrClosed) {
		err = nil
	}
	if err != nil {
		s.log.Warn("error attempting to quit the redis client", Fields{"err": err})
	}
	if ss, ok := s.scripts.(*ScriptSet); ok {
		ss.Forget(s.rdb)
	}
	s.hooks.ConnectionClosed(s.identity, err)
}

// Destroy deletes the store's order index and, when doClose is true, closes
// the store. Records are kept: Get still finds them, iteration does not.
// The index deletion error is returned after the store was closed.
func (s *Store) Destroy(ctx context.Context, doClose bool) error {
	s.mu.Lock()
	if s.state != stateOpen {
		s.mu.Unlock()
		return ErrNotOpen
	}
	s.state = stateDestroying
	s.mu.Unlock()

	err := s.rdb.Del(ctx, keys.IndexKey(s.location)).Err()
	if err != nil {
		s.log.Error("destroy failed", Fields{"err": err})
	} else {
		s.log.Info("destroyed order index", nil)
	}

	s.mu.Lock()
	s.state = stateOpen
	s.mu.Unlock()

	if doClose {
		_ = s.Close(ctx)
	}
	return backendErr("destroy", s.location, err)
}
