package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/redisdown"
)

func newShell(t *testing.T) (*shell, *bytes.Buffer, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	s, err := redisdown.OpenClient(context.Background(), "cli", rdb, redisdown.Options{})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	var out bytes.Buffer
	return &shell{s: s, w: &out}, &out, mr
}

func run(t *testing.T, sh *shell, lines ...string) {
	t.Helper()
	for _, l := range lines {
		if err := sh.exec(context.Background(), l); err != nil {
			t.Fatalf("%q: %v", l, err)
		}
	}
}

func TestShellPutGetScan(t *testing.T) {
	sh, out, mr := newShell(t)

	run(t, sh, "PUT b two words", "put a 1", "PUT c 3")
	if got, _ := mr.Get("cli$b"); got != "two words" {
		t.Fatalf("stored value=%q", got)
	}

	out.Reset()
	run(t, sh, "GET b")
	if out.String() != "two words\n" {
		t.Fatalf("GET printed %q", out.String())
	}

	out.Reset()
	run(t, sh, "SCAN RANGE a c")
	if out.String() != "a\t1\nb\ttwo words\n" {
		t.Fatalf("SCAN RANGE printed %q", out.String())
	}

	out.Reset()
	run(t, sh, "RSCAN LIMIT 1")
	if out.String() != "c\t3\n" {
		t.Fatalf("RSCAN printed %q", out.String())
	}

	out.Reset()
	run(t, sh, "DEL a", "DEL b", "DEL c", "SCAN")
	if !strings.HasSuffix(out.String(), "(empty)\n") {
		t.Fatalf("SCAN after deletes printed %q", out.String())
	}
}

func TestShellBatch(t *testing.T) {
	sh, out, mr := newShell(t)

	run(t, sh, "BATCH", "PUT x 1", "PUT y 2", "DEL x")
	if mr.Exists("cli$y") {
		t.Fatalf("queued writes must not reach Redis before COMMIT")
	}
	run(t, sh, "COMMIT")
	if !strings.Contains(out.String(), "applied 3 operations") {
		t.Fatalf("COMMIT printed %q", out.String())
	}
	if mr.Exists("cli$x") || !mr.Exists("cli$y") {
		t.Fatalf("batch not applied")
	}

	run(t, sh, "BATCH", "PUT z 1", "ROLLBACK")
	if mr.Exists("cli$z") {
		t.Fatalf("rolled back write reached Redis")
	}
	if err := sh.exec(context.Background(), "COMMIT"); err == nil {
		t.Fatalf("COMMIT without a batch must fail")
	}
}

func TestShellErrors(t *testing.T) {
	sh, _, _ := newShell(t)
	ctx := context.Background()

	if err := sh.exec(ctx, "GET missing"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("GET missing err=%v", err)
	}
	for _, l := range []string{"PUT k", "FROB", "SCAN LIMIT x", ".nope"} {
		if err := sh.exec(ctx, l); err == nil {
			t.Fatalf("%q: expected an error", l)
		}
	}
	if err := sh.exec(ctx, ".exit"); !errors.Is(err, errExit) {
		t.Fatalf(".exit err=%v", err)
	}
}

func TestParseBatch(t *testing.T) {
	sh, _, mr := newShell(t)
	b := sh.s.NewBatch()
	in := strings.NewReader("# seed\nput a hello world\n\ndel b\n")
	if err := parseBatch(in, b); err != nil {
		t.Fatal(err)
	}
	if b.Len() != 2 {
		t.Fatalf("Len=%d", b.Len())
	}
	if err := b.Write(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got, _ := mr.Get("cli$a"); got != "hello world" {
		t.Fatalf("a=%q", got)
	}

	if err := parseBatch(strings.NewReader("put onlykey\n"), sh.s.NewBatch()); err == nil {
		t.Fatalf("expected an error for a put without value")
	}
	if err := parseBatch(strings.NewReader("merge a b\n"), sh.s.NewBatch()); err == nil {
		t.Fatalf("expected an error for an unknown operation")
	}
}
