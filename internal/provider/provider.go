package provider

import "context"

// Provider fetches the current price of one symbol from one upstream source.
// found=false with a nil error is the clean "no data" result (unknown symbol,
// rate-limit notice, malformed payload) and is distinct from a failure.
// Implementations enforce their own timeout so a slow upstream cannot stall
// callers that fan out across several providers.
type Provider interface {
    Name() string
    Fetch(ctx context.Context, symbol string) (price float64, found bool, err error)
}

// Snapshot is the normalized detail payload produced by sources that serve
// more than a bare price. Optional fields stay nil when the upstream has no
// value for them.
type Snapshot struct {
    Price  float64  `json:"price"`
    Yield  *float64 `json:"yield,omitempty"`
    PE     *float64 `json:"pe,omitempty"`
    Sector string   `json:"sector,omitempty"`
}
