package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/redisdown"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	PageEvery  uint64
	BatchEvery uint64
	// Optional redactor for keys and connection identities (identities carry
	// the password). Defaults to a SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	pageCtr  atomic.Uint64
	batchCtr atomic.Uint64
}

var _ redisdown.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) ConnectionOpened(identity string, shared bool) {
	if h.l == nil {
		return
	}
	h.l.Info("redisdown.connection_opened",
		"identity", h.redact(identity),
		"shared", shared)
}

func (h *Hooks) ConnectionReleased(identity, location string, refs int) {
	if h.l == nil {
		return
	}
	h.l.Debug("redisdown.connection_released",
		"identity", h.redact(identity),
		"location", location,
		"refs", refs)
}

func (h *Hooks) ConnectionClosed(identity string, err error) {
	if h.l == nil {
		return
	}
	if err != nil {
		h.l.Warn("redisdown.connection_close_failed",
			"identity", h.redact(identity),
			"err", err)
		return
	}
	h.l.Info("redisdown.connection_closed", "identity", h.redact(identity))
}

func (h *Hooks) PageFetched(location string, members int, reverse bool) {
	if h.l == nil || !sample(h.opts.PageEvery, &h.pageCtr) {
		return
	}
	h.l.Debug("redisdown.page_fetched",
		"location", location,
		"members", members,
		"reverse", reverse)
}

func (h *Hooks) BatchExecuted(location string, commands int, err error) {
	if h.l == nil {
		return
	}
	if err != nil {
		h.l.Error("redisdown.batch_failed",
			"location", location,
			"commands", commands,
			"err", err)
		return
	}
	if !sample(h.opts.BatchEvery, &h.batchCtr) {
		return
	}
	h.l.Debug("redisdown.batch_executed",
		"location", location,
		"commands", commands)
}

func (h *Hooks) DanglingIndexEntry(location string, key []byte) {
	if h.l == nil {
		return
	}
	h.l.Warn("redisdown.dangling_index_entry",
		"location", location,
		"key", h.redact(string(key)))
}
