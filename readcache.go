package redisdown

import (
	"context"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/unkn0wn-root/redisdown/internal/keys"
	pr "github.com/unkn0wn-root/redisdown/provider"
)

// cacheEpochs counts evicting writes per read cache, shared by every store
// in the process that uses the same provider.
var cacheEpochs = xsync.NewMapOf[pr.Provider, *atomic.Uint64]()

func epochOf(p pr.Provider) *atomic.Uint64 {
	e, _ := cacheEpochs.LoadOrCompute(p, func() *atomic.Uint64 { return new(atomic.Uint64) })
	return e
}

// fill caches a value read from Redis at epoch start. A write that evicted
// through the same cache after start may have committed a newer value, so
// the fill is skipped, or undone when the write raced with the Set itself.
// Writers bump the epoch before deleting, which makes the second check
// sufficient: either it sees the bump, or the writer's delete runs after
// this Set.
func (s *Store) fill(ctx context.Context, vk string, b []byte, start uint64) {
	if s.epoch.Load() != start {
		return
	}
	ok, err := s.cache.Set(ctx, vk, b)
	if err != nil || !ok {
		s.log.Debug("read cache rejected value", Fields{"key": vk, "err": err})
		return
	}
	if s.epoch.Load() != start {
		_ = s.cache.Del(ctx, vk)
	}
}

func (s *Store) evict(ctx context.Context, cmds []command) {
	if s.cache == nil {
		return
	}
	s.epoch.Add(1)
	for _, c := range cmds {
		_ = s.cache.Del(ctx, keys.ValueKey(c.location, c.key))
	}
}
