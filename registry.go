package redisdown

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/redisdown/internal/keys"
)

// DialFunc builds a client for the given options and location. It must not
// block on network I/O; go-redis clients connect lazily.
type DialFunc func(opts ConnOptions, location string) redis.UniversalClient

// DefaultDial builds a single-node go-redis client.
func DefaultDial(opts ConnOptions, location string) redis.UniversalClient {
	return redis.NewClient(opts.RedisOptions(location))
}

type connEntry struct {
	client redis.UniversalClient
	refs   map[string]int // sanitized location -> open stores
	total  int
}

// Registry de-duplicates backend clients across stores. Stores whose
// connection options resolve to the same identity share one client; the
// client is closed when the last of them closes.
//
// It also remembers the options every store was opened with (keyed by the
// location as passed to Open) so Destroy can reconnect later.
type Registry struct {
	mu    sync.Mutex
	conns map[string]*connEntry
	known map[string]ConnOptions

	dial DialFunc
	log  Logger
}

// RegistryOption configures NewRegistry.
type RegistryOption func(*Registry)

// WithDial overrides how clients are built.
func WithDial(d DialFunc) RegistryOption { return func(r *Registry) { r.dial = d } }

// WithRegistryLogger sets the logger used for registry housekeeping.
func WithRegistryLogger(l Logger) RegistryOption { return func(r *Registry) { r.log = l } }

// NewRegistry returns an empty registry. Use it in tests or to isolate groups
// of stores; Open falls back to DefaultRegistry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		conns: make(map[string]*connEntry),
		known: make(map[string]ConnOptions),
		dial:  DefaultDial,
		log:   NopLogger{},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

var (
	defaultRegistryOnce sync.Once
	defaultRegistry     *Registry
)

// DefaultRegistry is the process-wide registry used when Options.Registry is nil.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() { defaultRegistry = NewRegistry() })
	return defaultRegistry
}

// Resolve and Register are the low-level half of sharing, for callers that
// build clients themselves: Resolve first, and on a miss dial and Register.
// Open does the same through one locked step with the registry's DialFunc.

// Resolve returns the shared client for identity and records one more
// reference from location. ok=false means no client is registered yet and the
// caller has to dial one and Register it.
func (r *Registry) Resolve(location, identity string) (redis.UniversalClient, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolveLocked(location, identity)
}

func (r *Registry) resolveLocked(location, identity string) (redis.UniversalClient, bool) {
	e, ok := r.conns[identity]
	if !ok {
		return nil, false
	}
	e.refs[location]++
	e.total++
	return e.client, true
}

func (r *Registry) insertLocked(location, identity string, client redis.UniversalClient) {
	r.conns[identity] = &connEntry{client: client, refs: map[string]int{location: 1}, total: 1}
}

// Register adds a freshly dialed client with a single reference from
// location. If another store registered the same identity in the meantime,
// the reference is added to that entry and its client is returned instead;
// the caller then owns (and should close) the client it passed in.
func (r *Registry) Register(identity string, client redis.UniversalClient, location string) redis.UniversalClient {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.resolveLocked(location, identity); ok {
		return c
	}
	r.insertLocked(location, identity, client)
	return client
}

// acquire is Resolve, dial and Register under one lock so concurrent opens
// never build two clients for the same identity.
func (r *Registry) acquire(location, identity string, opts ConnOptions, rawLocation string) (redis.UniversalClient, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.resolveLocked(location, identity); ok {
		return c, false
	}
	c := r.dial(opts, rawLocation)
	r.insertLocked(location, identity, c)
	return c, true
}

// Release drops one reference from location. It returns true when the entry
// became unreferenced and was removed; the caller must then close the client.
// Unknown identities or locations are ignored.
func (r *Registry) Release(identity, location string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[identity]
	if !ok {
		return false
	}
	if n := e.refs[location]; n > 0 {
		e.total--
		if n == 1 {
			delete(e.refs, location)
		} else {
			e.refs[location] = n - 1
		}
	}
	if e.total > 0 {
		return false
	}
	delete(r.conns, identity)
	return true
}

// Refs returns how many open stores reference identity.
func (r *Registry) Refs(identity string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[identity]; ok {
		return e.total
	}
	return 0
}

// Len returns the number of registered clients.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// ResetAll closes every registered client, ignoring close errors, and clears
// the table. Stores still holding one of those clients will fail afterwards.
func (r *Registry) ResetAll(_ context.Context) {
	r.mu.Lock()
	conns := r.conns
	r.conns = make(map[string]*connEntry)
	r.mu.Unlock()

	for id, e := range conns {
		if err := e.client.Close(); err != nil {
			r.log.Debug("reset: close failed (ignored)", Fields{"identity": identityDigest(id), "err": err})
		}
	}
}

func (r *Registry) remember(rawLocation string, opts ConnOptions) {
	r.mu.Lock()
	r.known[rawLocation] = opts
	r.mu.Unlock()
}

// Known reports whether a store was ever opened at rawLocation (the location
// exactly as passed to Open) with connection options.
func (r *Registry) Known(rawLocation string) bool {
	r.mu.Lock()
	_, ok := r.known[rawLocation]
	r.mu.Unlock()
	return ok
}

func (r *Registry) forget(rawLocation string) (ConnOptions, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	opts, ok := r.known[rawLocation]
	if ok {
		delete(r.known, rawLocation)
	}
	return opts, ok
}

// Destroy wipes the order index of rawLocation using a throwaway client.
// With opts == nil the options recorded by an earlier Open are used and then
// forgotten; if there are none, ErrConfiguration is returned. Record keys are
// left in place.
func (r *Registry) Destroy(ctx context.Context, rawLocation string, opts *ConnOptions) error {
	var conn ConnOptions
	if opts != nil {
		conn = *opts
	} else {
		var ok bool
		if conn, ok = r.forget(rawLocation); !ok {
			return fmt.Errorf("%w: no connection registered for %q", ErrConfiguration, rawLocation)
		}
	}

	location := keys.SanitizeLocation(rawLocation)
	client := r.dial(conn, rawLocation)
	err := client.Del(ctx, keys.IndexKey(location)).Err()
	if cerr := client.Close(); cerr != nil {
		r.log.Warn("destroy: error attempting to close the redis client", Fields{"location": location, "err": cerr})
	}
	if err != nil {
		return backendErr("destroy", location, err)
	}
	r.log.Info("destroyed order index", Fields{"location": location})
	return nil
}

// Destroy wipes the order index of location through the default registry.
func Destroy(ctx context.Context, location string, opts *ConnOptions) error {
	return DefaultRegistry().Destroy(ctx, location, opts)
}
