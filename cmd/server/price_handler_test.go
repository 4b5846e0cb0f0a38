package main

import (
    "context"
    "encoding/json"
    "errors"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "pricefeed/internal/consensus"
    "pricefeed/internal/marketdata"
    "pricefeed/internal/provider"
    "pricefeed/internal/store/memstore"
    "pricefeed/internal/swr"
)

type fakeProvider struct { name string; price float64; found bool; err error }
func (f fakeProvider) Name() string { return f.name }
func (f fakeProvider) Fetch(_ context.Context, _ string) (float64, bool, error) {
    return f.price, f.found, f.err
}

type fakeSnapshots struct { snap provider.Snapshot; found bool }
func (f fakeSnapshots) Snapshot(_ context.Context, _ string) (provider.Snapshot, bool, error) {
    return f.snap, f.found, nil
}

func newTestService(providers []provider.Provider, snaps marketdata.SnapshotFetcher) *marketdata.Service {
    return marketdata.New(memstore.New(), &consensus.Engine{Providers: providers}, snaps, marketdata.Config{})
}

func TestPriceHandler_ConsensusAcrossProviders(t *testing.T) {
    svc := newTestService([]provider.Provider{
        fakeProvider{name: "a", price: 100, found: true},
        fakeProvider{name: "b", price: 102, found: true},
    }, nil)

    rr := httptest.NewRecorder()
    writePrice(rr, t.Context(), svc, "aapl")
    if rr.Code != 200 { t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String()) }
    var resp priceResponse
    if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil { t.Fatalf("decode: %v", err) }
    if resp.Symbol != "AAPL" { t.Fatalf("symbol=%q, want normalized AAPL", resp.Symbol) }
    if resp.Price != 101 { t.Fatalf("price=%v, want 101", resp.Price) }
}

func TestPriceHandler_AllProvidersDown(t *testing.T) {
    svc := newTestService([]provider.Provider{
        fakeProvider{name: "a", err: errors.New("down")},
    }, nil)

    rr := httptest.NewRecorder()
    writePrice(rr, t.Context(), svc, "AAPL")
    if rr.Code != http.StatusBadGateway {
        t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
    }
}

func TestSnapshotHandler_FullPayload(t *testing.T) {
    y := 0.0044
    svc := newTestService(nil, fakeSnapshots{
        snap:  provider.Snapshot{Price: 190.5, Yield: &y, Sector: "Technology"},
        found: true,
    })

    rr := httptest.NewRecorder()
    writeSnapshot(rr, t.Context(), svc, "AAPL")
    if rr.Code != 200 { t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String()) }
    var resp snapshotResponse
    if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil { t.Fatalf("decode: %v", err) }
    if resp.Symbol != "AAPL" || resp.Price != 190.5 || resp.Sector != "Technology" {
        t.Fatalf("unexpected: %+v", resp)
    }
    if resp.Yield == nil || *resp.Yield != y { t.Fatalf("yield: %+v", resp.Yield) }
}

func TestSnapshotHandler_UnknownSymbolIs404(t *testing.T) {
    svc := newTestService(nil, fakeSnapshots{found: false})

    rr := httptest.NewRecorder()
    writeSnapshot(rr, t.Context(), svc, "DOESNOTEXIST")
    if rr.Code != http.StatusNotFound {
        t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
    }
}

func TestHealthHandler_ReportsCacheState(t *testing.T) {
    rr := httptest.NewRecorder()
    writeHealth(rr, t.Context(), memstore.New())
    if rr.Code != 200 { t.Fatalf("status=%d", rr.Code) }
    var resp healthResponse
    if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil { t.Fatalf("decode: %v", err) }
    if resp.Status != "ok" || resp.Cache != "reachable" {
        t.Fatalf("unexpected: %+v", resp)
    }

    // an unreachable store degrades the probe detail, not the status
    rr = httptest.NewRecorder()
    writeHealth(rr, t.Context(), deadStore{})
    if rr.Code != 200 { t.Fatalf("status=%d", rr.Code) }
    if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil { t.Fatalf("decode: %v", err) }
    if resp.Status != "ok" || resp.Cache != "degraded" {
        t.Fatalf("unexpected degraded response: %+v", resp)
    }
}

type deadStore struct{}
func (deadStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, errors.New("down") }
func (deadStore) Set(context.Context, string, []byte, time.Duration) error { return errors.New("down") }
func (deadStore) Ping(context.Context) error { return errors.New("down") }

var _ swr.Store = deadStore{}
