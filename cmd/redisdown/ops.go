package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/unkn0wn-root/redisdown"
)

func doGet(ctx context.Context, s *redisdown.Store, w io.Writer, key string) error {
	v, err := s.Get(ctx, key)
	if errors.Is(err, redisdown.ErrNotFound) {
		return fmt.Errorf("key %q not found", key)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(v))
	return nil
}

func doScan(ctx context.Context, s *redisdown.Store, w io.Writer, opts redisdown.IteratorOptions) error {
	it := s.Iterator(opts)
	defer it.Close()

	n := 0
	for it.Next(ctx) {
		switch {
		case opts.KeysOnly:
			fmt.Fprintln(w, string(it.Key()))
		case opts.ValuesOnly:
			fmt.Fprintln(w, string(it.Value()))
		default:
			fmt.Fprintf(w, "%s\t%s\n", it.Key(), it.Value())
		}
		n++
	}
	if err := it.Err(); err != nil {
		return err
	}
	if n == 0 {
		fmt.Fprintln(w, "(empty)")
	}
	return nil
}

// parseBatch reads one operation per line:
//
//	put <key> <value...>
//	del <key>
//
// Blank lines and lines starting with # are skipped.
func parseBatch(r io.Reader, b *redisdown.Batch) error {
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.SplitN(text, " ", 3)
		switch strings.ToLower(fields[0]) {
		case "put":
			if len(fields) < 3 {
				return fmt.Errorf("line %d: put needs a key and a value", line)
			}
			b.Put(fields[1], fields[2])
		case "del", "delete":
			if len(fields) != 2 {
				return fmt.Errorf("line %d: del needs exactly one key", line)
			}
			b.Delete(fields[1])
		default:
			return fmt.Errorf("line %d: unknown operation %q", line, fields[0])
		}
	}
	return sc.Err()
}
