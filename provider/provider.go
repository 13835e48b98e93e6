// Package provider defines the optional read cache a Store can put in front
// of point lookups.
//
// Keys are the Redis value keys ("<location>$<key>"). Implementations MUST be
// byte-for-byte transparent: Get returns exactly the bytes passed to Set.
//
// The cache is process-local. A Store evicts keys it writes itself, but it
// cannot see writes made by other processes or other stores on different
// clients, so only enable it when this process is the sole writer of the
// locations it serves.
package provider

import "context"

// Provider is a minimal byte store. Must be safe for concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value. Returns ok=false when the store rejected the write
	// under pressure.
	Set(ctx context.Context, key string, value []byte) (ok bool, err error)

	// Del removes a key (best-effort).
	Del(ctx context.Context, key string) error

	// Close releases resources.
	Close(ctx context.Context) error
}
