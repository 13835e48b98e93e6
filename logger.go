package redisdown

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fields carries structured context for one log entry.
type Fields map[string]any

// Logger receives the store's diagnostics: connection churn, teardown
// failures, destroy results. Adapters for zap, logrus and slog live under
// log/. A nil Options.Logger disables logging.
type Logger interface {
	Debug(msg string, f Fields)
	Info(msg string, f Fields)
	Warn(msg string, f Fields)
	Error(msg string, f Fields)
}

type NopLogger struct{}

func (NopLogger) Debug(string, Fields) {}
func (NopLogger) Info(string, Fields)  {}
func (NopLogger) Warn(string, Fields)  {}
func (NopLogger) Error(string, Fields) {}

// scopedLogger adds a fixed set of fields, such as the location, to every
// entry.
type scopedLogger struct {
	l    Logger
	base Fields
}

func withFields(l Logger, base Fields) Logger {
	if _, nop := l.(NopLogger); nop {
		return l
	}
	return scopedLogger{l: l, base: base}
}

func (s scopedLogger) merge(f Fields) Fields {
	out := make(Fields, len(s.base)+len(f))
	for k, v := range s.base {
		out[k] = v
	}
	for k, v := range f {
		out[k] = v
	}
	return out
}

func (s scopedLogger) Debug(msg string, f Fields) { s.l.Debug(msg, s.merge(f)) }
func (s scopedLogger) Info(msg string, f Fields)  { s.l.Info(msg, s.merge(f)) }
func (s scopedLogger) Warn(msg string, f Fields)  { s.l.Warn(msg, s.merge(f)) }
func (s scopedLogger) Error(msg string, f Fields) { s.l.Error(msg, s.merge(f)) }

// identityDigest shortens a connection identity for logs. Identities embed
// the password.
func identityDigest(identity string) string {
	sum := sha256.Sum256([]byte(identity))
	return hex.EncodeToString(sum[:6])
}
