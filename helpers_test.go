package redisdown

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func connFor(t *testing.T, mr *miniredis.Miniredis) ConnOptions {
	t.Helper()
	port, err := strconv.Atoi(mr.Port())
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	return ConnOptions{Host: mr.Host(), Port: port, MaxAttempts: 1}
}

// openTest opens location against mr on a private registry.
func openTest(t *testing.T, mr *miniredis.Miniredis, reg *Registry, location string, mut func(*Options)) *Store {
	t.Helper()
	opts := Options{Conn: connFor(t, mr), Registry: reg}
	if mut != nil {
		mut(&opts)
	}
	s, err := Open(context.Background(), location, opts)
	if err != nil {
		t.Fatalf("Open(%q): %v", location, err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func collectKeys(t *testing.T, s *Store, opts IteratorOptions) []string {
	t.Helper()
	ctx := context.Background()
	it := s.Iterator(opts)
	defer it.Close()
	var out []string
	for it.Next(ctx) {
		out = append(out, string(it.Key()))
	}
	if err := it.Err(); err != nil {
		t.Fatalf("iterate: %v", err)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

type memProvider struct {
	mu   sync.Mutex
	m    map[string][]byte
	hits int
}

func newMemProvider() *memProvider { return &memProvider{m: make(map[string][]byte)} }

func (p *memProvider) Get(_ context.Context, key string) ([]byte, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.m[key]
	if ok {
		p.hits++
	}
	return v, ok, nil
}

func (p *memProvider) Set(_ context.Context, key string, value []byte) (bool, error) {
	p.mu.Lock()
	p.m[key] = value
	p.mu.Unlock()
	return true, nil
}

func (p *memProvider) Del(_ context.Context, key string) error {
	p.mu.Lock()
	delete(p.m, key)
	p.mu.Unlock()
	return nil
}

func (p *memProvider) Close(context.Context) error { return nil }

type countingHooks struct {
	NopHooks
	mu       sync.Mutex
	opened   int
	closed   int
	pages    int
	batches  int
	dangling []string
}

func (h *countingHooks) ConnectionOpened(string, bool) { h.mu.Lock(); h.opened++; h.mu.Unlock() }
func (h *countingHooks) ConnectionClosed(string, error) {
	h.mu.Lock()
	h.closed++
	h.mu.Unlock()
}
func (h *countingHooks) PageFetched(string, int, bool) { h.mu.Lock(); h.pages++; h.mu.Unlock() }
func (h *countingHooks) BatchExecuted(string, int, error) {
	h.mu.Lock()
	h.batches++
	h.mu.Unlock()
}
func (h *countingHooks) DanglingIndexEntry(_ string, k []byte) {
	h.mu.Lock()
	h.dangling = append(h.dangling, string(k))
	h.mu.Unlock()
}
