// Package marketdata binds the consensus engine and the snapshot source
// behind stale-while-revalidate caching. It is the surface the HTTP server
// and the CLI call into.
package marketdata

import (
    "context"
    "errors"
    "fmt"
    "strings"
    "time"

    "pricefeed/internal/consensus"
    "pricefeed/internal/provider"
    "pricefeed/internal/swr"
)

// ErrNoData means the upstream had nothing for the symbol.
var ErrNoData = errors.New("no upstream data")

// SnapshotFetcher is the detail-payload capability (price, yield, PE,
// sector) of a source that serves more than a bare price.
type SnapshotFetcher interface {
    Snapshot(ctx context.Context, symbol string) (provider.Snapshot, bool, error)
}

// Config sets the cache windows per operation.
type Config struct {
    PriceTTL      time.Duration
    PriceGrace    time.Duration
    SnapshotTTL   time.Duration
    SnapshotGrace time.Duration
    // Margin pads the store-level expiry; zero keeps the swr default.
    Margin time.Duration
}

// Service answers price and snapshot queries through the cache.
type Service struct {
    price    *swr.Func[float64]
    snapshot *swr.Func[provider.Snapshot]
}

func New(store swr.Store, engine *consensus.Engine, snaps SnapshotFetcher, cfg Config) *Service {
    if cfg.PriceTTL <= 0 { cfg.PriceTTL = 60 * time.Second }
    if cfg.PriceGrace <= 0 { cfg.PriceGrace = time.Hour }
    if cfg.SnapshotTTL <= 0 { cfg.SnapshotTTL = 60 * time.Second }
    if cfg.SnapshotGrace <= 0 { cfg.SnapshotGrace = time.Hour }

    var priceOpts []swr.Option[float64]
    var snapOpts []swr.Option[provider.Snapshot]
    if cfg.Margin > 0 {
        priceOpts = append(priceOpts, swr.WithMargin[float64](cfg.Margin))
        snapOpts = append(snapOpts, swr.WithMargin[provider.Snapshot](cfg.Margin))
    }

    s := &Service{}
    s.price = swr.NewFunc(store, "marketdata.price", cfg.PriceTTL, cfg.PriceGrace,
        func(ctx context.Context, args ...string) (float64, error) {
            return engine.Fetch(ctx, args[0])
        }, priceOpts...)
    s.snapshot = swr.NewFunc(store, "marketdata.snapshot", cfg.SnapshotTTL, cfg.SnapshotGrace,
        func(ctx context.Context, args ...string) (provider.Snapshot, error) {
            if snaps == nil {
                return provider.Snapshot{}, fmt.Errorf("%w: no snapshot source configured", ErrNoData)
            }
            snap, found, err := snaps.Snapshot(ctx, args[0])
            if err != nil {
                return provider.Snapshot{}, err
            }
            if !found {
                return provider.Snapshot{}, fmt.Errorf("%w: %s", ErrNoData, args[0])
            }
            return snap, nil
        }, snapOpts...)
    return s
}

// Price returns the cached-or-computed consensus price for symbol.
func (s *Service) Price(ctx context.Context, symbol string) (float64, error) {
    return s.price.Get(ctx, normalizeSymbol(symbol))
}

// Snapshot returns the cached-or-fetched detail payload for symbol.
func (s *Service) Snapshot(ctx context.Context, symbol string) (provider.Snapshot, error) {
    return s.snapshot.Get(ctx, normalizeSymbol(symbol))
}

// normalizeSymbol canonicalizes tickers once at the boundary so equal
// symbols always share one cache key.
func normalizeSymbol(s string) string {
    return strings.ToUpper(strings.TrimSpace(s))
}
