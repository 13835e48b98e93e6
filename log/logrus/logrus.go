// Package logrus adapts a *logrus.Entry to redisdown.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"
	"github.com/unkn0wn-root/redisdown"
)

// LogrusLogger forwards store diagnostics to E.
type LogrusLogger struct{ E *logrus.Entry }

var _ redisdown.Logger = LogrusLogger{}

// New tags every entry with component=redisdown.
func New(l *logrus.Logger) LogrusLogger {
	return LogrusLogger{E: l.WithField("component", "redisdown")}
}

// Debug logs connection reuse and cache misses.
func (l LogrusLogger) Debug(msg string, f redisdown.Fields) { l.with(f).Debug(msg) }

// Info logs lifecycle events such as a destroyed index.
func (l LogrusLogger) Info(msg string, f redisdown.Fields) { l.with(f).Info(msg) }

// Warn logs teardown failures that Close swallows.
func (l LogrusLogger) Warn(msg string, f redisdown.Fields) { l.with(f).Warn(msg) }

// Error logs failed destroys and script preloads.
func (l LogrusLogger) Error(msg string, f redisdown.Fields) { l.with(f).Error(msg) }

// with attaches f. An "err" error goes to logrus' own error key; byte
// slices, which are raw keys, become strings.
func (l LogrusLogger) with(f redisdown.Fields) *logrus.Entry {
	if len(f) == 0 {
		return l.E
	}
	fields := make(logrus.Fields, len(f))
	for k, v := range f {
		switch t := v.(type) {
		case error:
			if k == "err" {
				k = logrus.ErrorKey
			}
			fields[k] = t
		case []byte:
			fields[k] = string(t)
		default:
			fields[k] = v
		}
	}
	return l.E.WithFields(fields)
}
