package bigcache

import (
	"context"
	"testing"
	"time"
)

func TestProviderGetSetDel(t *testing.T) {
	ctx := context.Background()
	p, err := New(ctx, Config{LifeWindow: time.Minute, Shards: 16})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close(ctx)

	if _, ok, err := p.Get(ctx, "missing"); ok || err != nil {
		t.Fatalf("miss: ok=%v err=%v", ok, err)
	}
	if ok, err := p.Set(ctx, "rooms$1", []byte("x")); err != nil || !ok {
		t.Fatalf("Set ok=%v err=%v", ok, err)
	}
	if v, ok, err := p.Get(ctx, "rooms$1"); err != nil || !ok || string(v) != "x" {
		t.Fatalf("Get=%q ok=%v err=%v", v, ok, err)
	}
	if err := p.Del(ctx, "rooms$1"); err != nil {
		t.Fatal(err)
	}
	if err := p.Del(ctx, "rooms$1"); err != nil {
		t.Fatalf("deleting a missing key must not fail: %v", err)
	}
}
