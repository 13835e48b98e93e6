package redisdown

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func seed(t *testing.T, s *Store, keys ...string) {
	t.Helper()
	ops := make([]Op, 0, len(keys))
	for _, k := range keys {
		ops = append(ops, Op{Type: OpPut, Key: k, Value: "v-" + k})
	}
	if err := s.Batch(context.Background(), ops); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestIteratorOrderIsLexicographic(t *testing.T) {
	mr := miniredis.RunT(t)
	s := openTest(t, mr, NewRegistry(), "lex", nil)
	seed(t, s, "2", "10", "1")

	got := collectKeys(t, s, IteratorOptions{})
	if !equalStrings(got, []string{"1", "10", "2"}) {
		t.Fatalf("order=%v", got)
	}
}

func TestIteratorPaginationIsTransparent(t *testing.T) {
	mr := miniredis.RunT(t)
	s := openTest(t, mr, NewRegistry(), "pages", nil)
	var ks []string
	for i := 0; i < 37; i++ {
		ks = append(ks, fmt.Sprintf("key:%03d", i))
	}
	seed(t, s, ks...)

	for _, opts := range []IteratorOptions{
		{},
		{Reverse: true},
		{Gte: "key:010", Lt: "key:030"},
		{Gt: "key:010", Lte: "key:030", Reverse: true},
		{Limit: 11},
	} {
		small := opts
		small.HighWaterMark = 1
		big := opts
		big.HighWaterMark = 128
		a, b := collectKeys(t, s, small), collectKeys(t, s, big)
		if !equalStrings(a, b) {
			t.Fatalf("opts %+v: hwm=1 %v\nhwm=128 %v", opts, a, b)
		}
	}
}

func TestIteratorBounds(t *testing.T) {
	mr := miniredis.RunT(t)
	s := openTest(t, mr, NewRegistry(), "b", nil)
	seed(t, s, "a", "b", "c", "d", "e")

	cases := []struct {
		name string
		opts IteratorOptions
		want []string
	}{
		{"all", IteratorOptions{}, []string{"a", "b", "c", "d", "e"}},
		{"gte", IteratorOptions{Gte: "b"}, []string{"b", "c", "d", "e"}},
		{"gt", IteratorOptions{Gt: "b"}, []string{"c", "d", "e"}},
		{"lt", IteratorOptions{Lt: "c"}, []string{"a", "b"}},
		{"lte", IteratorOptions{Lte: "c"}, []string{"a", "b", "c"}},
		{"gt wins over gte", IteratorOptions{Gt: "b", Gte: "a"}, []string{"c", "d", "e"}},
		{"window", IteratorOptions{Gt: "a", Lt: "e"}, []string{"b", "c", "d"}},
		{"reverse lte limit", IteratorOptions{Lte: "d", Limit: 2, Reverse: true}, []string{"d", "c"}},
		{"reverse window", IteratorOptions{Gte: "b", Lt: "e", Reverse: true}, []string{"d", "c", "b"}},
		{"limit", IteratorOptions{Limit: 3}, []string{"a", "b", "c"}},
		{"empty range", IteratorOptions{Gt: "e"}, nil},
		{"inverted range", IteratorOptions{Gte: "d", Lte: "b"}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, hwm := range []int{1, 2, 128} {
				tc.opts.HighWaterMark = hwm
				if got := collectKeys(t, s, tc.opts); !equalStrings(got, tc.want) {
					t.Fatalf("hwm=%d got %v want %v", hwm, got, tc.want)
				}
			}
		})
	}
}

func TestIteratorRoomsScenario(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	s := openTest(t, mr, NewRegistry(), "chat", nil)

	if err := s.Put(ctx, "rooms:1", "x"); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "rooms:2", "y"); err != nil {
		t.Fatal(err)
	}
	got, err := s.Iterator(IteratorOptions{Gte: "rooms:1"}).Collect(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := [][2]string{{"rooms:1", "x"}, {"rooms:2", "y"}}
	if len(got) != len(want) {
		t.Fatalf("got %d entries", len(got))
	}
	for i := range want {
		if string(got[i][0]) != want[i][0] || string(got[i][1]) != want[i][1] {
			t.Fatalf("entry %d = (%s,%s)", i, got[i][0], got[i][1])
		}
	}
}

func TestIteratorKeysOnlyAndValuesOnly(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	s := openTest(t, mr, NewRegistry(), "kv", nil)
	seed(t, s, "a", "b")

	it := s.Iterator(IteratorOptions{KeysOnly: true})
	defer it.Close()
	for it.Next(ctx) {
		if it.Key() == nil || it.Value() != nil {
			t.Fatalf("keys-only: key=%q value=%q", it.Key(), it.Value())
		}
	}

	it2 := s.Iterator(IteratorOptions{ValuesOnly: true})
	defer it2.Close()
	var vals []string
	for it2.Next(ctx) {
		if it2.Key() != nil {
			t.Fatalf("values-only returned key %q", it2.Key())
		}
		vals = append(vals, string(it2.Value()))
	}
	if !equalStrings(vals, []string{"v-a", "v-b"}) {
		t.Fatalf("values=%v", vals)
	}
}

func TestIteratorStatesAndClose(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	hooks := &countingHooks{}
	s := openTest(t, mr, NewRegistry(), "st", func(o *Options) { o.Hooks = hooks })
	seed(t, s, "a", "b", "c", "d")

	it := s.Iterator(IteratorOptions{HighWaterMark: 2})
	if it.State() != IteratorIdle {
		t.Fatalf("state=%v", it.State())
	}
	if !it.Next(ctx) || string(it.Key()) != "a" {
		t.Fatalf("first Next failed")
	}
	if it.State() != IteratorBuffered {
		t.Fatalf("state after first page=%v", it.State())
	}
	if hooks.pages != 1 {
		t.Fatalf("pages=%d", hooks.pages)
	}

	if err := it.Close(); err != nil {
		t.Fatal(err)
	}
	if it.Next(ctx) {
		t.Fatalf("Next after Close must end the sequence")
	}
	if it.State() != IteratorClosed || it.Key() != nil {
		t.Fatalf("state=%v key=%q", it.State(), it.Key())
	}
	if err := it.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if hooks.pages != 1 {
		t.Fatalf("closed iterator fetched again")
	}

	it = s.Iterator(IteratorOptions{})
	for it.Next(ctx) {
	}
	if it.State() != IteratorExhausted || it.Err() != nil {
		t.Fatalf("state=%v err=%v", it.State(), it.Err())
	}
	if it.Next(ctx) {
		t.Fatalf("exhausted iterator restarted")
	}
}

func TestIteratorSkipsDanglingIndexEntries(t *testing.T) {
	mr := miniredis.RunT(t)
	hooks := &countingHooks{}
	s := openTest(t, mr, NewRegistry(), "dg", func(o *Options) { o.Hooks = hooks })
	seed(t, s, "a", "c")
	if _, err := mr.ZAdd("dg:z", 0, "b"); err != nil { // index member without a record
		t.Fatal(err)
	}

	got := collectKeys(t, s, IteratorOptions{HighWaterMark: 1, Limit: 2})
	if !equalStrings(got, []string{"a", "c"}) {
		t.Fatalf("got %v", got)
	}
	if len(hooks.dangling) != 1 || hooks.dangling[0] != "b" {
		t.Fatalf("dangling=%v", hooks.dangling)
	}

	// keys-only scans do not hydrate, so they still see the member
	if got := collectKeys(t, s, IteratorOptions{KeysOnly: true}); !equalStrings(got, []string{"a", "b", "c"}) {
		t.Fatalf("keys-only got %v", got)
	}
}

func TestIteratorBackendError(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	s := openTest(t, mr, NewRegistry(), "err", nil)
	seed(t, s, "a")

	mr.SetError("ERR backend down")
	defer mr.SetError("")

	it := s.Iterator(IteratorOptions{})
	defer it.Close()
	if it.Next(ctx) {
		t.Fatalf("Next should fail")
	}
	if !errors.Is(it.Err(), ErrBackendUnavailable) {
		t.Fatalf("err=%v", it.Err())
	}
	if it.State() != IteratorExhausted {
		t.Fatalf("state=%v", it.State())
	}
}

func TestIteratorSeesWritesAheadOfCursor(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	s := openTest(t, mr, NewRegistry(), "live", nil)
	seed(t, s, "a", "b")

	it := s.Iterator(IteratorOptions{HighWaterMark: 1})
	defer it.Close()
	if !it.Next(ctx) || string(it.Key()) != "a" {
		t.Fatalf("first Next")
	}
	// "c" lands past the cursor before its page is fetched
	if err := s.Put(ctx, "c", "v-c"); err != nil {
		t.Fatal(err)
	}
	var rest []string
	for it.Next(ctx) {
		rest = append(rest, string(it.Key()))
	}
	if !equalStrings(rest, []string{"b", "c"}) {
		t.Fatalf("rest=%v", rest)
	}
}
