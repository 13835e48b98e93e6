package ristretto

import (
	"context"
	"testing"
)

func TestProviderGetSetDel(t *testing.T) {
	ctx := context.Background()
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected invalid config error")
	}
	p, err := New(Config{NumCounters: 1000, MaxCost: 1 << 20, BufferItems: 64})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close(ctx)

	if ok, err := p.Set(ctx, "rooms$1", []byte("x")); err != nil || !ok {
		t.Fatalf("Set ok=%v err=%v", ok, err)
	}
	p.Wait()
	if v, ok, err := p.Get(ctx, "rooms$1"); err != nil || !ok || string(v) != "x" {
		t.Fatalf("Get=%q ok=%v err=%v", v, ok, err)
	}
	_ = p.Del(ctx, "rooms$1")
	if _, ok, _ := p.Get(ctx, "rooms$1"); ok {
		t.Fatalf("Del did not remove the entry")
	}
}
