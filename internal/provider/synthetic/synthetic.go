// Package synthetic is a provider that fabricates prices around a fixed
// baseline. It needs no network, which makes it useful in tests and as a
// degraded-mode stand-in when real sources are unreachable.
package synthetic

import (
    "context"
    "math/rand/v2"
    "time"
)

// Config controls the synthetic provider.
type Config struct {
    Name string
    // Base is the center of the generated range. Defaults to 150.
    Base float64
    // Jitter is the maximum absolute deviation from Base. Defaults to 5.
    Jitter float64
    // Delay is artificial latency per call, to mimic a real upstream.
    Delay time.Duration
}

type Provider struct {
    cfg Config
}

func New(cfg Config) *Provider {
    if cfg.Name == "" { cfg.Name = "Synthetic" }
    if cfg.Base <= 0 { cfg.Base = 150 }
    if cfg.Jitter <= 0 { cfg.Jitter = 5 }
    return &Provider{cfg: cfg}
}

func (p *Provider) Name() string { return p.cfg.Name }

// Fetch returns a uniform random price in [Base-Jitter, Base+Jitter] after
// the configured delay, or the context error if canceled while waiting.
func (p *Provider) Fetch(ctx context.Context, _ string) (float64, bool, error) {
    if p.cfg.Delay > 0 {
        t := time.NewTimer(p.cfg.Delay)
        defer t.Stop()
        select {
        case <-ctx.Done():
            return 0, false, ctx.Err()
        case <-t.C:
        }
    }
    return p.cfg.Base + (rand.Float64()*2-1)*p.cfg.Jitter, true, nil
}
