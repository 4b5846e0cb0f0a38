package consensus

import (
    "context"
    "errors"
    "testing"
    "time"

    "pricefeed/internal/provider"
)

func TestConsensus_AgreementWithinBand(t *testing.T) {
    v, outliers, ok := Consensus([]float64{100, 101, 99})
    if !ok {
        t.Fatal("want ok")
    }
    if len(outliers) != 0 {
        t.Fatalf("unexpected outliers: %v", outliers)
    }
    if v != 100 {
        t.Fatalf("v=%v, want 100", v)
    }
}

func TestConsensus_RejectsSingleBadReading(t *testing.T) {
    v, outliers, ok := Consensus([]float64{100, 100, 100, 1000})
    if !ok {
        t.Fatal("want ok")
    }
    if len(outliers) != 1 || outliers[0] != 3 {
        t.Fatalf("outliers=%v, want [3]", outliers)
    }
    if v != 100 {
        t.Fatalf("v=%v, want 100", v)
    }
}

func TestConsensus_SmallSetsUseMeanUnfiltered(t *testing.T) {
    // with fewer than three readings there is no basis for rejection,
    // even when they disagree wildly
    v, outliers, ok := Consensus([]float64{100, 200})
    if !ok || len(outliers) != 0 {
        t.Fatalf("ok=%v outliers=%v", ok, outliers)
    }
    if v != 150 {
        t.Fatalf("v=%v, want 150", v)
    }

    v, _, ok = Consensus([]float64{42})
    if !ok || v != 42 {
        t.Fatalf("single reading: v=%v ok=%v", v, ok)
    }
}

func TestConsensus_ZeroSpread(t *testing.T) {
    v, outliers, ok := Consensus([]float64{250, 250, 250, 250})
    if !ok || len(outliers) != 0 || v != 250 {
        t.Fatalf("v=%v outliers=%v ok=%v", v, outliers, ok)
    }
}

func TestConsensus_Empty(t *testing.T) {
    _, _, ok := Consensus(nil)
    if ok {
        t.Fatal("empty input must not produce a value")
    }
}

type fakeProvider struct {
    name  string
    price float64
    found bool
    err   error
    delay time.Duration
}

func (f fakeProvider) Name() string { return f.name }

func (f fakeProvider) Fetch(ctx context.Context, _ string) (float64, bool, error) {
    if f.delay > 0 {
        select {
        case <-time.After(f.delay):
        case <-ctx.Done():
            return 0, false, ctx.Err()
        }
    }
    return f.price, f.found, f.err
}

func TestEngine_FailingProviderIsIsolated(t *testing.T) {
    e := &Engine{Providers: []provider.Provider{
        fakeProvider{name: "a", price: 100, found: true},
        fakeProvider{name: "b", err: errors.New("timeout")},
        fakeProvider{name: "c", price: 102, found: true},
    }}
    v, err := e.Fetch(t.Context(), "AAPL")
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if v != 101 {
        t.Fatalf("v=%v, want 101", v)
    }
}

func TestEngine_AbsentIsNotAnError(t *testing.T) {
    e := &Engine{Providers: []provider.Provider{
        fakeProvider{name: "a", found: false}, // knows nothing about the symbol
        fakeProvider{name: "b", price: 88, found: true},
    }}
    v, err := e.Fetch(t.Context(), "AAPL")
    if err != nil || v != 88 {
        t.Fatalf("v=%v err=%v", v, err)
    }
}

func TestEngine_NoUsableReadings(t *testing.T) {
    e := &Engine{Providers: []provider.Provider{
        fakeProvider{name: "a", err: errors.New("down")},
        fakeProvider{name: "b", found: false},
    }}
    _, err := e.Fetch(t.Context(), "AAPL")
    if !errors.Is(err, ErrNoConsensus) {
        t.Fatalf("err=%v, want ErrNoConsensus", err)
    }
}

func TestEngine_NoProvidersConfigured(t *testing.T) {
    e := &Engine{}
    _, err := e.Fetch(t.Context(), "AAPL")
    if !errors.Is(err, ErrNoConsensus) {
        t.Fatalf("err=%v, want ErrNoConsensus", err)
    }
}

func TestEngine_SlowProviderBoundByContext(t *testing.T) {
    e := &Engine{Providers: []provider.Provider{
        fakeProvider{name: "fast", price: 100, found: true},
        fakeProvider{name: "slow", price: 500, found: true, delay: 5 * time.Second},
    }}
    ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
    defer cancel()

    start := time.Now()
    v, err := e.Fetch(ctx, "AAPL")
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if v != 100 {
        t.Fatalf("v=%v, want the fast provider's reading", v)
    }
    if time.Since(start) > 2*time.Second {
        t.Fatal("fetch waited out the slow provider")
    }
}
