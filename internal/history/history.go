// Package history persists the latest consensus price per ticker in
// Postgres. It is a plain upsert sink: no time series, no durability
// guarantees beyond what the database already provides.
package history

import (
    "context"
    "fmt"
    "time"

    "github.com/jackc/pgx/v5/pgxpool"
    "github.com/shopspring/decimal"
)

// Record is one consensus price observation for a ticker.
type Record struct {
    Ticker     string
    Price      decimal.Decimal
    RecordedAt time.Time
}

// Recorder writes records through a pgx pool with an explicit lifecycle.
type Recorder struct {
    pool *pgxpool.Pool
}

// Open connects to databaseURL and verifies the connection with a ping.
func Open(ctx context.Context, databaseURL string) (*Recorder, error) {
    pool, err := pgxpool.New(ctx, databaseURL)
    if err != nil {
        return nil, fmt.Errorf("history: connect: %w", err)
    }
    if err := pool.Ping(ctx); err != nil {
        pool.Close()
        return nil, fmt.Errorf("history: ping: %w", err)
    }
    return &Recorder{pool: pool}, nil
}

// Upsert writes the latest price for a ticker; a later write replaces the
// row. The decimal goes over the wire as text so the numeric column keeps
// the exact value.
func (r *Recorder) Upsert(ctx context.Context, rec Record) error {
    _, err := r.pool.Exec(ctx,
        `INSERT INTO prices (ticker, price, recorded_at)
         VALUES ($1, $2::numeric, $3)
         ON CONFLICT (ticker) DO UPDATE
         SET price = EXCLUDED.price, recorded_at = EXCLUDED.recorded_at`,
        rec.Ticker, rec.Price.String(), rec.RecordedAt)
    if err != nil {
        return fmt.Errorf("history: upsert %s: %w", rec.Ticker, err)
    }
    return nil
}

// Ping reports database reachability, for readiness checks.
func (r *Recorder) Ping(ctx context.Context) error {
    return r.pool.Ping(ctx)
}

// Close releases the pool.
func (r *Recorder) Close() {
    r.pool.Close()
}
