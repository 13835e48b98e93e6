package redisdown

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/redisdown/internal/keys"
	pr "github.com/unkn0wn-root/redisdown/provider"
)

const (
	// DefaultHighWaterMark is the iterator page size when none is configured.
	DefaultHighWaterMark = 128

	defaultHost = "127.0.0.1"
	defaultPort = 6379
)

// ConnOptions describe how to reach Redis. Every field takes part in the
// connection identity: two stores whose options resolve to the same identity
// share one client unless Options.OwnClient is set.
//
// Fields without a go-redis equivalent (DetectBuffers, SocketNoDelay,
// NoReadyCheck, EnableOfflineQueue) only affect sharing.
type ConnOptions struct {
	Host     string
	Port     int
	TLS      bool
	Password string

	Parser        string // "resp3" selects RESP3, anything else RESP2
	ReturnBuffers *bool  // nil => true
	DetectBuffers bool

	SocketNoDelay      *bool
	NoReadyCheck       bool
	EnableOfflineQueue *bool
	KeepAlive          time.Duration
	RetryMaxDelay      time.Duration
	ConnectTimeout     time.Duration
	MaxAttempts        int

	// URL is an alternative way to give host, port, password and TLS
	// (redis://:pass@host:port, rediss:// for TLS). It overrides those fields.
	URL string
}

// Options configure Open.
type Options struct {
	Conn ConnOptions

	OwnClient       bool  // exclusive client, never shared nor registered
	HighWaterMark   int   // iterator page size; 0 => DefaultHighWaterMark
	CreateIfMissing *bool // nil => true; false fails Open for unknown locations
	DestroyOnOpen   bool  // wipe the order index right after opening

	Registry  *Registry    // nil => DefaultRegistry()
	Scripts   ScriptLoader // nil => NopScriptLoader
	ReadCache pr.Provider  // optional process-local cache for Get
	Logger    Logger       // nil => NopLogger
	Hooks     Hooks        // nil => NopHooks
}

// resolve folds URL information (from URL or from a URL-form location) into
// the explicit fields and applies defaults. The result has URL cleared.
func (c ConnOptions) resolve(location string) ConnOptions {
	raw := c.URL
	if raw == "" && keys.IsURL(location) {
		raw = location
	}
	if raw != "" {
		if u, err := url.Parse(raw); err == nil {
			if h := u.Hostname(); h != "" {
				c.Host = h
			}
			if p, err := strconv.Atoi(u.Port()); err == nil {
				c.Port = p
			}
			if pw, ok := u.User.Password(); ok {
				c.Password = pw
			}
			if strings.EqualFold(u.Scheme, "rediss") {
				c.TLS = true
			}
		}
	}
	c.URL = ""
	c.Host = coalesce(c.Host, defaultHost)
	c.Port = coalesce(c.Port, defaultPort)
	c.ReturnBuffers = Bool(boolOr(c.ReturnBuffers, true))
	return c
}

// identityFields is the whitelisted, canonical form hashed into an identity.
// Field order is fixed by the struct, so equal options encode equally.
type identityFields struct {
	Host               string `json:"host"`
	Port               int    `json:"port"`
	TLS                bool   `json:"tls,omitempty"`
	Password           string `json:"password,omitempty"`
	Parser             string `json:"parser,omitempty"`
	ReturnBuffers      *bool  `json:"return_buffers,omitempty"`
	DetectBuffers      bool   `json:"detect_buffers,omitempty"`
	SocketNoDelay      *bool  `json:"socket_nodelay,omitempty"`
	NoReadyCheck       bool   `json:"no_ready_check,omitempty"`
	EnableOfflineQueue *bool  `json:"enable_offline_queue,omitempty"`
	KeepAlive          int64  `json:"keep_alive,omitempty"`
	RetryMaxDelay      int64  `json:"retry_max_delay,omitempty"`
	ConnectTimeout     int64  `json:"connect_timeout,omitempty"`
	MaxAttempts        int    `json:"max_attempts,omitempty"`
}

// Identity returns the canonical connection identity for these options as
// used by a store opened at location.
func (c ConnOptions) Identity(location string) string {
	r := c.resolve(location)
	b, _ := json.Marshal(identityFields{
		Host:               r.Host,
		Port:               r.Port,
		TLS:                r.TLS,
		Password:           r.Password,
		Parser:             r.Parser,
		ReturnBuffers:      r.ReturnBuffers,
		DetectBuffers:      r.DetectBuffers,
		SocketNoDelay:      r.SocketNoDelay,
		NoReadyCheck:       r.NoReadyCheck,
		EnableOfflineQueue: r.EnableOfflineQueue,
		KeepAlive:          int64(r.KeepAlive),
		RetryMaxDelay:      int64(r.RetryMaxDelay),
		ConnectTimeout:     int64(r.ConnectTimeout),
		MaxAttempts:        r.MaxAttempts,
	})
	return string(b)
}

// Addr is the host:port these options dial.
func (c ConnOptions) Addr(location string) string {
	r := c.resolve(location)
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

// RedisOptions translates the options into a go-redis client configuration.
func (c ConnOptions) RedisOptions(location string) *redis.Options {
	r := c.resolve(location)
	o := &redis.Options{
		Addr:            net.JoinHostPort(r.Host, strconv.Itoa(r.Port)),
		Password:        r.Password,
		Protocol:        2,
		DialTimeout:     r.ConnectTimeout,
		MaxRetryBackoff: r.RetryMaxDelay,
	}
	if strings.EqualFold(r.Parser, "resp3") {
		o.Protocol = 3
	}
	switch {
	case r.MaxAttempts == 1:
		o.MaxRetries = -1 // go-redis: -1 disables retries
	case r.MaxAttempts > 1:
		o.MaxRetries = r.MaxAttempts - 1
	}
	if r.TLS {
		o.TLSConfig = &tls.Config{ServerName: r.Host, MinVersion: tls.VersionTLS12}
	}
	if r.KeepAlive > 0 {
		nd := &net.Dialer{Timeout: r.ConnectTimeout, KeepAlive: r.KeepAlive}
		tlsConf := o.TLSConfig
		o.Dialer = func(ctx context.Context, network, addr string) (net.Conn, error) {
			if tlsConf != nil {
				d := &tls.Dialer{NetDialer: nd, Config: tlsConf}
				return d.DialContext(ctx, network, addr)
			}
			return nd.DialContext(ctx, network, addr)
		}
	}
	return o
}
