// Package swr implements stale-while-revalidate caching on top of a shared
// key-value store. A Func wraps an arbitrary fetch operation: fresh entries
// are served without touching the network, stale entries are served
// immediately while a background refresh runs, and expired entries (or
// misses) fall through to a synchronous fetch.
package swr

import (
    "context"
    "crypto/sha256"
    "encoding/hex"
    "encoding/json"
    "io"
    "log"
    "time"

    "golang.org/x/sync/singleflight"

    "pricefeed/internal/metrics"
)

const (
    // defaultMargin pads the store-level expiry past ttl+grace so clock skew
    // or store latency cannot drop the key before a refresh had a chance.
    defaultMargin = 60 * time.Second
    // defaultRefreshTimeout caps a fire-and-forget background refresh.
    defaultRefreshTimeout = 30 * time.Second
)

// entry is the stored (produced-at, value) pair. JSON keeps it
// self-describing: readers ignore fields they do not know, so new fields can
// be added without breaking older entries.
type entry[T any] struct {
    ProducedAtMS int64 `json:"produced_at_ms"`
    Value        T     `json:"value"`
}

// Func wraps one fetch operation with SWR caching. All invocations with the
// same name and arguments share one cache key.
type Func[T any] struct {
    store Store
    name  string
    ttl   time.Duration
    grace time.Duration
    fetch func(ctx context.Context, args ...string) (T, error)

    margin         time.Duration
    refreshTimeout time.Duration
    now            func() time.Time
    sf             singleflight.Group
}

// Option configures a Func.
type Option[T any] func(*Func[T])

// WithClock substitutes the time source, for tests.
func WithClock[T any](now func() time.Time) Option[T] {
    return func(f *Func[T]) { f.now = now }
}

// WithMargin overrides the store-expiry padding added past ttl+grace.
func WithMargin[T any](m time.Duration) Option[T] {
    return func(f *Func[T]) { f.margin = m }
}

// WithRefreshTimeout overrides the background refresh deadline.
func WithRefreshTimeout[T any](d time.Duration) Option[T] {
    return func(f *Func[T]) { f.refreshTimeout = d }
}

// NewFunc wraps fetch under name with the given TTL and grace period.
func NewFunc[T any](store Store, name string, ttl, grace time.Duration, fetch func(ctx context.Context, args ...string) (T, error), opts ...Option[T]) *Func[T] {
    f := &Func[T]{
        store:          store,
        name:           name,
        ttl:            ttl,
        grace:          grace,
        fetch:          fetch,
        margin:         defaultMargin,
        refreshTimeout: defaultRefreshTimeout,
        now:            time.Now,
    }
    for _, o := range opts {
        o(f)
    }
    return f
}

// Key returns the cache key for a set of call arguments. Identical
// (name, args) always map to the same key. Args are joined with a unit
// separator before hashing, so two different argument lists cannot collide
// by concatenation. Callers pass pre-normalized strings; the wrapper never
// formats other types itself, which keeps keys stable across locales and
// float representations.
func (f *Func[T]) Key(args ...string) string {
    h := sha256.New()
    io.WriteString(h, f.name)
    for _, a := range args {
        h.Write([]byte{0x1f})
        io.WriteString(h, a)
    }
    return "swr:" + hex.EncodeToString(h.Sum(nil))
}

// Get serves the wrapped operation through the cache.
//
// A store read failure is logged and handled like a miss, never surfaced.
// Only a foreground fetch failure (miss or expired entry with a failing
// upstream) reaches the caller, and it reaches the caller untouched.
func (f *Func[T]) Get(ctx context.Context, args ...string) (T, error) {
    key := f.Key(args...)

    if e, ok := f.load(ctx, key); ok {
        age := f.now().Sub(time.UnixMilli(e.ProducedAtMS))
        switch state := StateAt(age, f.ttl, f.grace); state {
        case Fresh:
            metrics.CacheRequests.WithLabelValues(state.String()).Inc()
            return e.Value, nil
        case Stale:
            metrics.CacheRequests.WithLabelValues(state.String()).Inc()
            go f.refresh(key, args)
            return e.Value, nil
        default:
            metrics.CacheRequests.WithLabelValues(state.String()).Inc()
        }
    } else {
        metrics.CacheRequests.WithLabelValues("miss").Inc()
    }

    // Miss or expired: fetch synchronously. Concurrent callers for the same
    // key share a single flight.
    v, err, _ := f.sf.Do(key, func() (any, error) {
        return f.fetchAndStore(ctx, key, args)
    })
    if err != nil {
        var zero T
        return zero, err
    }
    return v.(T), nil
}

// load reads and decodes the entry for key. Any store or decode failure is
// logged and reported as a miss.
func (f *Func[T]) load(ctx context.Context, key string) (entry[T], bool) {
    var e entry[T]
    b, found, err := f.store.Get(ctx, key)
    if err != nil {
        log.Printf("swr: %s: store get failed, treating as miss: %v", f.name, err)
        return e, false
    }
    if !found {
        return e, false
    }
    if err := json.Unmarshal(b, &e); err != nil {
        log.Printf("swr: %s: corrupt cache entry, treating as miss: %v", f.name, err)
        return e, false
    }
    return e, true
}

// fetchAndStore runs the wrapped fetch and, on success, overwrites the cache
// entry. A fetch failure writes nothing; a store write failure is logged and
// the freshly fetched value is still returned.
func (f *Func[T]) fetchAndStore(ctx context.Context, key string, args []string) (T, error) {
    v, err := f.fetch(ctx, args...)
    if err != nil {
        return v, err
    }
    b, err := json.Marshal(entry[T]{ProducedAtMS: f.now().UnixMilli(), Value: v})
    if err != nil {
        log.Printf("swr: %s: encode cache entry failed: %v", f.name, err)
        return v, nil
    }
    if err := f.store.Set(ctx, key, b, f.ttl+f.grace+f.margin); err != nil {
        log.Printf("swr: %s: store set failed: %v", f.name, err)
    }
    return v, nil
}

// refresh re-runs the fetch for a stale key without blocking the caller.
// Concurrent stale readers of the same key share one in-flight refresh.
// Failures are counted and logged, never retried; the stale entry stays in
// place until a refresh succeeds or the grace window runs out.
func (f *Func[T]) refresh(key string, args []string) {
    ctx, cancel := context.WithTimeout(context.Background(), f.refreshTimeout)
    defer cancel()
    if _, err, _ := f.sf.Do(key, func() (any, error) {
        return f.fetchAndStore(ctx, key, args)
    }); err != nil {
        metrics.RefreshFailures.Inc()
        log.Printf("swr: %s: background refresh failed: %v", f.name, err)
    }
}
