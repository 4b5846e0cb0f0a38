// Package redisstore backs the cache wrapper with a shared Redis instance.
package redisstore

import (
    "context"
    "errors"
    "fmt"
    "time"

    "github.com/redis/go-redis/v9"
)

// Config holds the Redis connection settings.
type Config struct {
    Addr     string // host:port, default localhost:6379
    Password string
    DB       int
    // PoolSize caps the connection pool shared by all callers.
    PoolSize int
    // Timeout applies to dialing and to each read/write round trip.
    Timeout time.Duration
}

// Store implements swr.Store on a Redis client with an explicit lifecycle:
// constructed and pinged on startup, closed on shutdown.
type Store struct {
    cli *redis.Client
}

// New connects to Redis and verifies the server with a ping so a bad address
// fails at startup rather than on the first request.
func New(cfg Config) (*Store, error) {
    if cfg.Addr == "" {
        cfg.Addr = "localhost:6379"
    }
    if cfg.PoolSize <= 0 {
        cfg.PoolSize = 20
    }
    if cfg.Timeout <= 0 {
        cfg.Timeout = 5 * time.Second
    }
    cli := redis.NewClient(&redis.Options{
        Addr:         cfg.Addr,
        Password:     cfg.Password,
        DB:           cfg.DB,
        PoolSize:     cfg.PoolSize,
        DialTimeout:  cfg.Timeout,
        ReadTimeout:  cfg.Timeout,
        WriteTimeout: cfg.Timeout,
    })
    ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
    defer cancel()
    if err := cli.Ping(ctx).Err(); err != nil {
        _ = cli.Close()
        return nil, fmt.Errorf("redis ping: %w", err)
    }
    return &Store{cli: cli}, nil
}

// Get returns the bytes stored under key; a missing key is a plain miss.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
    b, err := s.cli.Get(ctx, key).Bytes()
    if err != nil {
        if errors.Is(err, redis.Nil) {
            return nil, false, nil
        }
        return nil, false, err
    }
    return b, true, nil
}

// Set stores value under key with a server-side expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
    return s.cli.Set(ctx, key, value, ttl).Err()
}

// Ping reports reachability, for readiness checks.
func (s *Store) Ping(ctx context.Context) error {
    return s.cli.Ping(ctx).Err()
}

// Close releases the connection pool.
func (s *Store) Close() error {
    return s.cli.Close()
}
