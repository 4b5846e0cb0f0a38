// Package memstore is an in-process swr.Store. It backs tests and runs where
// no Redis is reachable; entries are lost on process exit, which the SWR
// semantics tolerate (the next caller just fetches fresh).
package memstore

import (
    "context"
    "sync"
    "time"
)

// item stores one value with its expiry.
type item struct {
    expiresAt time.Time
    value     []byte
}

// Store is a TTL map guarded by an RWMutex.
// MaxItems, when set, caps the map size with a best-effort sweep.
type Store struct {
    MaxItems int

    mu    sync.RWMutex
    items map[string]item
}

func New() *Store {
    return &Store{items: make(map[string]item)}
}

// Get returns the value for key if it exists and has not expired.
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
    now := time.Now()
    s.mu.RLock()
    it, ok := s.items[key]
    s.mu.RUnlock()
    if !ok || !now.Before(it.expiresAt) {
        return nil, false, nil
    }
    return it.value, true, nil
}

// Set stores a copy of value under key, expiring after ttl.
// A ttl <= 0 keeps the entry until overwritten or evicted.
func (s *Store) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
    now := time.Now()
    exp := now.Add(ttl)
    if ttl <= 0 {
        exp = now.Add(100 * 365 * 24 * time.Hour)
    }
    v := make([]byte, len(value))
    copy(v, value)

    s.mu.Lock()
    if s.items == nil {
        s.items = make(map[string]item)
    }
    s.items[key] = item{expiresAt: exp, value: v}
    // best-effort cap: remove expired entries first, then arbitrary ones
    if s.MaxItems > 0 && len(s.items) > s.MaxItems {
        for k, it := range s.items {
            if now.After(it.expiresAt) {
                delete(s.items, k)
            }
            if len(s.items) <= s.MaxItems {
                break
            }
        }
        for k := range s.items {
            if len(s.items) <= s.MaxItems {
                break
            }
            delete(s.items, k)
        }
    }
    s.mu.Unlock()
    return nil
}

// Ping always succeeds; the store lives in the caller's process.
func (s *Store) Ping(_ context.Context) error { return nil }
