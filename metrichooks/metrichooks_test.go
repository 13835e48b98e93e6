package metrichooks

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestCountersFollowEvents(t *testing.T) {
	h := New(nil, "test")

	h.ConnectionOpened("id", true)
	h.ConnectionOpened("id", false)
	h.BatchExecuted("loc", 4, nil)
	h.BatchExecuted("loc", 2, errors.New("x"))
	h.PageFetched("loc", 3, false)
	h.DanglingIndexEntry("loc", []byte("k"))
	h.ConnectionClosed("id", errors.New("quit"))

	if h.batches.Get() != 2 || h.batchErrors.Get() != 1 || h.batchCommands.Get() != 6 {
		t.Fatalf("batches=%d errors=%d commands=%d", h.batches.Get(), h.batchErrors.Get(), h.batchCommands.Get())
	}
	if h.connsShared.Get() != 1 || h.connsOpened.Get() != 1 || h.closeErrors.Get() != 1 {
		t.Fatalf("connection counters off")
	}

	var buf bytes.Buffer
	h.WritePrometheus(&buf)
	out := buf.String()
	for _, want := range []string{
		`test_connections_opened_total{kind="shared"} 1`,
		"test_batch_commands_total 6",
		"test_dangling_index_entries_total 1",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}
