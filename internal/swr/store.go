package swr

import (
    "context"
    "time"
)

// Store is the key-value backing store behind the cache wrapper. It is shared
// across processes; implementations only need get/set-with-expiry plus a
// reachability probe, no transactions.
type Store interface {
    // Get returns the stored bytes for key. found=false with a nil error is
    // a plain miss.
    Get(ctx context.Context, key string) (value []byte, found bool, err error)
    // Set stores value under key and lets the store expire it after ttl.
    Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
    // Ping reports whether the store is reachable.
    Ping(ctx context.Context) error
}
