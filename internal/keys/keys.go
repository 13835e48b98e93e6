// Package keys maps logical (location, key) pairs onto the Redis keyspace.
//
// Layout:
//
//	<location>$<key>  - value record (plain string key)
//	<location>:z      - order index (sorted set, every member scored 0)
//
// The separator is not escaped: a key containing '$' is stored as-is.
package keys

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	recordSep   = "$"
	indexSuffix = ":z"

	// DefaultLocation is used when a store is opened with an empty location.
	DefaultLocation = "rd"
)

// Lexicographic range sentinels understood by ZRANGEBYLEX.
const (
	MinusInf = "-"
	PlusInf  = "+"
)

// ValueKey returns the Redis key holding the record for key under location.
func ValueKey(location string, key []byte) string {
	var b strings.Builder
	b.Grow(len(location) + len(recordSep) + len(key))
	b.WriteString(location)
	b.WriteString(recordSep)
	b.Write(key)
	return b.String()
}

// IndexKey returns the Redis key of the order index for location.
func IndexKey(location string) string { return location + indexSuffix }

// Normalize converts a key or value to bytes. Byte slices pass through
// unchanged, nil becomes empty, everything else uses its string form.
func Normalize(v any) []byte {
	switch t := v.(type) {
	case nil:
		return []byte{}
	case []byte:
		if t == nil {
			return []byte{}
		}
		return t
	case string:
		return []byte(t)
	case fmt.Stringer:
		return []byte(t.String())
	default:
		return []byte(fmt.Sprint(t))
	}
}

// Inclusive returns a ZRANGEBYLEX bound that includes k.
func Inclusive(k []byte) string { return "[" + string(k) }

// Exclusive returns a ZRANGEBYLEX bound that excludes k.
func Exclusive(k []byte) string { return "(" + string(k) }

// IsURL reports whether location is written in URL form (scheme://...).
func IsURL(location string) bool { return strings.Contains(location, "://") }

// SanitizeLocation turns whatever was passed to Open into the prefix used in
// the keyspace. URL forms keep only their path, one leading '/' is dropped and
// a %7B...%7D hash tag is restored to {...} so cluster slot selection works.
func SanitizeLocation(location string) string {
	if location == "" {
		return DefaultLocation
	}
	if IsURL(location) {
		u, err := url.Parse(location)
		if err != nil || u.Path == "" {
			return DefaultLocation
		}
		location = u.Path
	}
	location = strings.TrimPrefix(location, "/")
	if location == "" {
		return DefaultLocation
	}
	if strings.HasPrefix(location, "%7B") && strings.Index(location, "%7D") > 0 {
		location = strings.Replace(location, "%7B", "{", 1)
		location = strings.Replace(location, "%7D", "}", 1)
	}
	return location
}
