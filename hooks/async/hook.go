// Package asynchook moves Hooks calls off the request path.
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{PageEvery: 100})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	s, _ := redisdown.Open(ctx, "rooms", redisdown.Options{Hooks: hooks})
//
// Events are dropped when the queue is full.
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/redisdown"
)

type Hooks struct {
	inner   redisdown.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	closed  atomic.Bool
	dropped atomic.Uint64
}

var _ redisdown.Hooks = (*Hooks)(nil)

func New(inner redisdown.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Events raised after
// Close are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.closed.Store(true)
		close(h.q)
		h.wg.Wait()
	})
}

// Dropped counts events lost to a full queue or a closed wrapper.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	if h.closed.Load() {
		h.dropped.Add(1)
		return
	}
	defer func() {
		// send on a channel closed between the check and the send
		if recover() != nil {
			h.dropped.Add(1)
		}
	}()
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) ConnectionOpened(id string, shared bool) {
	h.try(func() { h.inner.ConnectionOpened(id, shared) })
}
func (h *Hooks) ConnectionReleased(id, loc string, refs int) {
	h.try(func() { h.inner.ConnectionReleased(id, loc, refs) })
}
func (h *Hooks) ConnectionClosed(id string, err error) {
	h.try(func() { h.inner.ConnectionClosed(id, err) })
}
func (h *Hooks) PageFetched(loc string, n int, rev bool) {
	h.try(func() { h.inner.PageFetched(loc, n, rev) })
}
func (h *Hooks) BatchExecuted(loc string, n int, err error) {
	h.try(func() { h.inner.BatchExecuted(loc, n, err) })
}
func (h *Hooks) DanglingIndexEntry(loc string, key []byte) {
	k := append([]byte(nil), key...)
	h.try(func() { h.inner.DanglingIndexEntry(loc, k) })
}
