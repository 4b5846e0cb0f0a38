// Package consensus reconciles price readings from independent providers
// into a single value, rejecting statistical outliers.
package consensus

import (
    "context"
    "errors"
    "fmt"
    "log"
    "math"

    "pricefeed/internal/metrics"
    "pricefeed/internal/provider"
)

// ErrNoConsensus means no provider produced a usable reading, or every
// reading was rejected by the outlier filter.
var ErrNoConsensus = errors.New("no valid price readings")

// zMax is the outlier cutoff. Deliberately aggressive: with 2-4 providers a
// stale or broken quote hurts more than losing a borderline reading. Policy
// constant, safe to tune.
const zMax = 1.5

// minSamples is the smallest valid set the z-score filter applies to;
// below it there is no statistical basis for rejection.
const minSamples = 3

// Consensus reduces a set of readings to one value.
//
//   - empty input: ok=false
//   - fewer than minSamples: plain arithmetic mean, no outliers
//   - zero spread: the common value, no outliers
//   - otherwise: values with |z| > zMax (z over the population standard
//     deviation) are flagged as outliers and the mean of the rest is
//     returned; if everything is flagged, ok=false and all indices are
//     reported suspect
func Consensus(prices []float64) (value float64, outliers []int, ok bool) {
    if len(prices) == 0 {
        return 0, nil, false
    }
    m := mean(prices)
    if len(prices) < minSamples {
        return m, nil, true
    }
    sd := stddev(prices, m)
    if sd == 0 {
        return prices[0], nil, true
    }
    kept := make([]float64, 0, len(prices))
    for i, p := range prices {
        if math.Abs((p-m)/sd) > zMax {
            outliers = append(outliers, i)
            continue
        }
        kept = append(kept, p)
    }
    if len(kept) == 0 {
        return 0, outliers, false
    }
    return mean(kept), outliers, true
}

func mean(xs []float64) float64 {
    var sum float64
    for _, x := range xs {
        sum += x
    }
    return sum / float64(len(xs))
}

// stddev is the population standard deviation around m.
func stddev(xs []float64, m float64) float64 {
    var sum float64
    for _, x := range xs {
        d := x - m
        sum += d * d
    }
    return math.Sqrt(sum / float64(len(xs)))
}

// Engine fans a symbol out to every configured provider and reduces the
// answers to a consensus price.
type Engine struct {
    Providers []provider.Provider
}

type reading struct {
    name  string
    price float64
    found bool
    err   error
}

// Fetch queries all providers concurrently. A provider failing, answering
// empty, or hanging up to its own internal timeout never prevents collecting
// the others; discarded providers are logged by name. Returns ErrNoConsensus
// when nothing usable remains.
func (e *Engine) Fetch(ctx context.Context, symbol string) (float64, error) {
    if len(e.Providers) == 0 {
        return 0, fmt.Errorf("%w: no providers configured", ErrNoConsensus)
    }

    ch := make(chan reading, len(e.Providers))
    for _, p := range e.Providers {
        p := p
        go func() {
            price, found, err := p.Fetch(ctx, symbol)
            ch <- reading{name: p.Name(), price: price, found: found, err: err}
        }()
    }

    names := make([]string, 0, len(e.Providers))
    prices := make([]float64, 0, len(e.Providers))
    for range e.Providers {
        r := <-ch
        if r.err != nil {
            metrics.ProviderFailures.WithLabelValues(r.name).Inc()
            log.Printf("consensus: provider %s failed for %s: %v", r.name, symbol, r.err)
            continue
        }
        if !r.found {
            metrics.ProviderFailures.WithLabelValues(r.name).Inc()
            log.Printf("consensus: provider %s returned no data for %s", r.name, symbol)
            continue
        }
        names = append(names, r.name)
        prices = append(prices, r.price)
    }

    value, outliers, ok := Consensus(prices)
    for _, i := range outliers {
        metrics.OutlierReadings.WithLabelValues(names[i]).Inc()
        log.Printf("consensus: suspected bad data source %s: outlier value %v for %s", names[i], prices[i], symbol)
    }
    if !ok {
        return 0, fmt.Errorf("%w for %s", ErrNoConsensus, symbol)
    }
    return value, nil
}
