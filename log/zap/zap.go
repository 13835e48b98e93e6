// Package zap adapts a *zap.Logger to redisdown.Logger.
package zap

import (
	"github.com/unkn0wn-root/redisdown"
	"go.uber.org/zap"
)

// ZapLogger forwards store diagnostics to L.
type ZapLogger struct{ L *zap.Logger }

var _ redisdown.Logger = ZapLogger{}

// New names the logger "redisdown" so store events are easy to filter.
func New(l *zap.Logger) ZapLogger { return ZapLogger{L: l.Named("redisdown")} }

// Debug logs connection reuse and cache misses.
func (z ZapLogger) Debug(msg string, f redisdown.Fields) { z.L.Debug(msg, zf(f)...) }

// Info logs lifecycle events such as a destroyed index.
func (z ZapLogger) Info(msg string, f redisdown.Fields) { z.L.Info(msg, zf(f)...) }

// Warn logs teardown failures that Close swallows.
func (z ZapLogger) Warn(msg string, f redisdown.Fields) { z.L.Warn(msg, zf(f)...) }

// Error logs failed destroys and script preloads.
func (z ZapLogger) Error(msg string, f redisdown.Fields) { z.L.Error(msg, zf(f)...) }

// zf maps fields to zap fields. Errors keep their type; byte slices, which
// are raw keys, are written as text rather than base64.
func zf(f redisdown.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(f))
	for k, v := range f {
		switch t := v.(type) {
		case error:
			out = append(out, zap.NamedError(k, t))
		case []byte:
			out = append(out, zap.ByteString(k, t))
		default:
			out = append(out, zap.Any(k, v))
		}
	}
	return out
}
