package redisdown

import (
	"context"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/redis/go-redis/v9"
)

// ScriptLoader preloads server-side scripts on a client before Open returns.
// It is called on every Open, including opens that reuse a shared client, so
// implementations should remember which clients they have already seen.
type ScriptLoader interface {
	Preload(ctx context.Context, client redis.Scripter) error
}

// NopScriptLoader loads nothing.
type NopScriptLoader struct{}

func (NopScriptLoader) Preload(context.Context, redis.Scripter) error { return nil }

// ScriptSet loads a fixed set of Lua scripts once per client.
type ScriptSet struct {
	scripts []*redis.Script
	loaded  *xsync.MapOf[redis.Scripter, struct{}]
}

var _ ScriptLoader = (*ScriptSet)(nil)

// NewScriptSet returns a loader for scripts.
func NewScriptSet(scripts ...*redis.Script) *ScriptSet {
	return &ScriptSet{
		scripts: scripts,
		loaded:  xsync.NewMapOf[redis.Scripter, struct{}](),
	}
}

// Preload runs SCRIPT LOAD for every script the first time client is seen.
// A failed load is retried on the next Preload.
func (s *ScriptSet) Preload(ctx context.Context, client redis.Scripter) error {
	if _, ok := s.loaded.Load(client); ok {
		return nil
	}
	for _, sc := range s.scripts {
		if err := sc.Load(ctx, client).Err(); err != nil {
			return err
		}
	}
	s.loaded.Store(client, struct{}{})
	return nil
}

// Forget drops client from the loaded set, e.g. after it was closed.
func (s *ScriptSet) Forget(client redis.Scripter) { s.loaded.Delete(client) }

// Loaded reports whether client already had the scripts loaded.
func (s *ScriptSet) Loaded(client redis.Scripter) bool {
	_, ok := s.loaded.Load(client)
	return ok
}
