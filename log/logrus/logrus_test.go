package logrus

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/unkn0wn-root/redisdown"
)

func TestLogrusLoggerFields(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	l := New(base)

	l.Warn("teardown failed", redisdown.Fields{"err": errors.New("boom"), "key": []byte("user:1")})
	if e := hook.LastEntry(); e.Data[logrus.ErrorKey] == nil || e.Data["key"] != "user:1" {
		t.Fatalf("data=%v", e.Data)
	}

	l.Info("destroyed order index", redisdown.Fields{"location": "rooms"})

	e := hook.LastEntry()
	if e == nil || e.Level != logrus.InfoLevel || e.Message != "destroyed order index" {
		t.Fatalf("entry=%+v", e)
	}
	if e.Data["location"] != "rooms" || e.Data["component"] != "redisdown" {
		t.Fatalf("data=%v", e.Data)
	}
}
