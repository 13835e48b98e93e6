// Package metrichooks counts store events with VictoriaMetrics/metrics.
//
// Counters are registered in a metrics.Set so several stores (or tests) can
// keep separate series; expose them with Set.WritePrometheus.
package metrichooks

import (
	"fmt"
	"io"

	"github.com/VictoriaMetrics/metrics"

	"github.com/unkn0wn-root/redisdown"
)

type Hooks struct {
	set *metrics.Set

	connsOpened     *metrics.Counter
	connsShared     *metrics.Counter
	connsReleased   *metrics.Counter
	connsClosed     *metrics.Counter
	closeErrors     *metrics.Counter
	batches         *metrics.Counter
	batchErrors     *metrics.Counter
	batchCommands   *metrics.Counter
	pages           *metrics.Counter
	pageMembers     *metrics.Histogram
	danglingEntries *metrics.Counter
}

var _ redisdown.Hooks = (*Hooks)(nil)

// New registers the counters in set (a fresh one when nil). namespace
// prefixes every metric name.
func New(set *metrics.Set, namespace string) *Hooks {
	if set == nil {
		set = metrics.NewSet()
	}
	if namespace == "" {
		namespace = "redisdown"
	}
	name := func(n string) string { return fmt.Sprintf("%s_%s", namespace, n) }
	return &Hooks{
		set:             set,
		connsOpened:     set.NewCounter(name(`connections_opened_total{kind="exclusive"}`)),
		connsShared:     set.NewCounter(name(`connections_opened_total{kind="shared"}`)),
		connsReleased:   set.NewCounter(name("connections_released_total")),
		connsClosed:     set.NewCounter(name("connections_closed_total")),
		closeErrors:     set.NewCounter(name("connection_close_errors_total")),
		batches:         set.NewCounter(name("batches_total")),
		batchErrors:     set.NewCounter(name("batch_errors_total")),
		batchCommands:   set.NewCounter(name("batch_commands_total")),
		pages:           set.NewCounter(name("iterator_pages_total")),
		pageMembers:     set.NewHistogram(name("iterator_page_members")),
		danglingEntries: set.NewCounter(name("dangling_index_entries_total")),
	}
}

// Set returns the metrics set the counters live in.
func (h *Hooks) Set() *metrics.Set { return h.set }

// WritePrometheus writes every counter in Prometheus text format.
func (h *Hooks) WritePrometheus(w io.Writer) { h.set.WritePrometheus(w) }

func (h *Hooks) ConnectionOpened(_ string, shared bool) {
	if shared {
		h.connsShared.Inc()
		return
	}
	h.connsOpened.Inc()
}

func (h *Hooks) ConnectionReleased(string, string, int) { h.connsReleased.Inc() }

func (h *Hooks) ConnectionClosed(_ string, err error) {
	h.connsClosed.Inc()
	if err != nil {
		h.closeErrors.Inc()
	}
}

func (h *Hooks) PageFetched(_ string, members int, _ bool) {
	h.pages.Inc()
	h.pageMembers.Update(float64(members))
}

func (h *Hooks) BatchExecuted(_ string, commands int, err error) {
	h.batches.Inc()
	h.batchCommands.Add(commands)
	if err != nil {
		h.batchErrors.Inc()
	}
}

func (h *Hooks) DanglingIndexEntry(string, []byte) { h.danglingEntries.Inc() }
