package redisdown

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"

	c "github.com/unkn0wn-root/redisdown/codec"
)

type room struct {
	ID    string `json:"id" msgpack:"id"`
	Topic string `json:"topic" msgpack:"topic"`
}

func TestTypedRoundTripAndScan(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	s := openTest(t, mr, NewRegistry(), "typed", nil)

	for name, codec := range map[string]c.Codec[room]{
		"json":    c.JSON[room]{},
		"msgpack": c.Msgpack[room]{},
		"cbor":    c.MustCBOR[room](true),
	} {
		t.Run(name, func(t *testing.T) {
			rooms := NewTyped[string, room](s, c.StringKey{}, codec)
			want := []room{{"1", "go"}, {"2", "redis"}}
			for _, r := range want {
				if err := rooms.Put(ctx, "rooms:"+r.ID, r); err != nil {
					t.Fatal(err)
				}
			}
			got, err := rooms.Get(ctx, "rooms:2")
			if err != nil || got != want[1] {
				t.Fatalf("Get=%+v err=%v", got, err)
			}

			it := rooms.Iterator(IteratorOptions{Gte: "rooms:", KeysOnly: true})
			defer it.Close()
			var i int
			for it.Next(ctx) {
				if it.Value() != want[i] || it.Key() != "rooms:"+want[i].ID {
					t.Fatalf("entry %d = %s %+v", i, it.Key(), it.Value())
				}
				i++
			}
			if it.Err() != nil || i != len(want) {
				t.Fatalf("err=%v n=%d", it.Err(), i)
			}
			for _, r := range want {
				if err := rooms.Delete(ctx, "rooms:"+r.ID); err != nil {
					t.Fatal(err)
				}
			}
		})
	}
}

func TestTypedDecodeFailureStopsIteration(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	s := openTest(t, mr, NewRegistry(), "typed", nil)
	rooms := NewTyped[string, room](s, c.StringKey{}, c.JSON[room]{})

	if err := rooms.Put(ctx, "a", room{ID: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "b", "not json"); err != nil {
		t.Fatal(err)
	}
	if _, err := rooms.Get(ctx, "b"); err == nil {
		t.Fatalf("expected decode error")
	}
	if _, err := rooms.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	it := rooms.Iterator(IteratorOptions{})
	var n int
	for it.Next(ctx) {
		n++
	}
	var de *c.DecodeError
	if n != 1 || !errors.As(it.Err(), &de) || de.Format != "json" {
		t.Fatalf("n=%d err=%v", n, it.Err())
	}
	if rooms.Store() != s {
		t.Fatalf("Store() mismatch")
	}
}

func TestTypedNumericKeysScanInNumericOrder(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	s := openTest(t, mr, NewRegistry(), "seq", nil)
	events := NewTyped[int64, string](s, c.Int64Key{}, c.String{})

	for _, k := range []int64{10, -3, 9, 100, 0} {
		if err := events.Put(ctx, k, fmt.Sprint("e", k)); err != nil {
			t.Fatal(err)
		}
	}

	it := events.Iterator(IteratorOptions{Gte: int64(0), Lt: int64(100)})
	defer it.Close()
	var got []int64
	for it.Next(ctx) {
		if it.Value() != fmt.Sprint("e", it.Key()) {
			t.Fatalf("value %q under key %d", it.Value(), it.Key())
		}
		got = append(got, it.Key())
	}
	if it.Err() != nil {
		t.Fatal(it.Err())
	}
	if fmt.Sprint(got) != "[0 9 10]" {
		t.Fatalf("got %v", got)
	}

	if v, err := events.Get(ctx, -3); err != nil || v != "e-3" {
		t.Fatalf("Get(-3)=%q err=%v", v, err)
	}
}
