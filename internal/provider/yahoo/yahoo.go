// Package yahoo adapts the Yahoo Finance public endpoints to the provider
// contract: the v8 chart endpoint for current prices and the v10
// quoteSummary endpoint for detail snapshots.
package yahoo

import (
    "context"
    "encoding/json"
    "fmt"
    "log"
    "net/http"
    "net/url"
    "time"

    "pricefeed/internal/httpx"
    "pricefeed/internal/provider"
)

// Config controls the Yahoo Finance adapter.
type Config struct {
    Name    string
    BaseURL string            // default https://query1.finance.yahoo.com
    Headers map[string]string // optional extra headers
    // Timeout caps each upstream call so a slow Yahoo response cannot stall
    // a consensus batch. Defaults to 7s.
    Timeout time.Duration
}

type Provider struct {
    cfg    Config
    client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Provider {
    if cfg.Name == "" { cfg.Name = "YahooFinance" }
    if cfg.BaseURL == "" { cfg.BaseURL = "https://query1.finance.yahoo.com" }
    if cfg.Timeout <= 0 { cfg.Timeout = 7 * time.Second }
    return &Provider{cfg: cfg, client: hc}
}

func (p *Provider) Name() string { return p.cfg.Name }

// Fetch returns the latest market price for symbol. An unknown symbol or a
// payload without a usable price resolves to absent, never to a fatal error.
func (p *Provider) Fetch(ctx context.Context, symbol string) (float64, bool, error) {
    ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
    defer cancel()

    u := fmt.Sprintf("%s/v8/finance/chart/%s?range=1d&interval=1d", p.cfg.BaseURL, url.PathEscape(symbol))
    var body chartResponse
    if ok, err := p.getJSON(ctx, u, &body); !ok || err != nil {
        return 0, false, err
    }
    if len(body.Chart.Result) == 0 {
        return 0, false, nil
    }
    meta := body.Chart.Result[0].Meta
    // Prefer the live price; fall back to the previous close the way the
    // chart endpoint reports it off-hours.
    switch {
    case meta.RegularMarketPrice != nil:
        return *meta.RegularMarketPrice, true, nil
    case meta.ChartPreviousClose != nil:
        return *meta.ChartPreviousClose, true, nil
    }
    return 0, false, nil
}

// Snapshot returns the detail payload (price, dividend yield, PE, sector)
// for symbol. Missing optional fields stay nil; a missing price resolves to
// absent.
func (p *Provider) Snapshot(ctx context.Context, symbol string) (provider.Snapshot, bool, error) {
    ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
    defer cancel()

    u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=price%%2CsummaryDetail%%2CassetProfile",
        p.cfg.BaseURL, url.PathEscape(symbol))
    var body quoteSummaryResponse
    if ok, err := p.getJSON(ctx, u, &body); !ok || err != nil {
        return provider.Snapshot{}, false, err
    }
    if len(body.QuoteSummary.Result) == 0 {
        return provider.Snapshot{}, false, nil
    }
    res := body.QuoteSummary.Result[0]

    var snap provider.Snapshot
    if res.Price != nil && res.Price.RegularMarketPrice.Raw != nil {
        snap.Price = *res.Price.RegularMarketPrice.Raw
    } else if res.SummaryDetail != nil && res.SummaryDetail.PreviousClose.Raw != nil {
        snap.Price = *res.SummaryDetail.PreviousClose.Raw
    } else {
        return provider.Snapshot{}, false, nil
    }
    if sd := res.SummaryDetail; sd != nil {
        snap.Yield = sd.DividendYield.Raw
        // trailing PE preferred, forward PE as fallback
        if sd.TrailingPE.Raw != nil {
            snap.PE = sd.TrailingPE.Raw
        } else {
            snap.PE = sd.ForwardPE.Raw
        }
    }
    if res.AssetProfile != nil {
        snap.Sector = res.AssetProfile.Sector
    }
    return snap, true, nil
}

// getJSON performs a GET and decodes the body into out. Upstream refusing
// the symbol (404) or sending garbage resolves to a clean not-found; only
// transport-level problems and unexpected statuses are errors.
func (p *Provider) getJSON(ctx context.Context, u string, out any) (bool, error) {
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
    if err != nil {
        return false, err
    }
    for k, v := range p.cfg.Headers {
        req.Header.Set(k, v)
    }
    req.Header.Set("Accept", "application/json")
    resp, err := p.client.Do(ctx, req)
    if err != nil {
        return false, err
    }
    defer resp.Body.Close()
    if resp.StatusCode == http.StatusNotFound {
        return false, nil
    }
    if resp.StatusCode < 200 || resp.StatusCode >= 300 {
        return false, fmt.Errorf("GET %s -> %d", u, resp.StatusCode)
    }
    if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
        log.Printf("yahoo: malformed response from %s: %v", u, err)
        return false, nil
    }
    return true, nil
}

// Response models for the two endpoints, trimmed to the fields used.

type chartResponse struct {
    Chart struct {
        Result []struct {
            Meta struct {
                Currency           string   `json:"currency"`
                Symbol             string   `json:"symbol"`
                RegularMarketPrice *float64 `json:"regularMarketPrice"`
                ChartPreviousClose *float64 `json:"chartPreviousClose"`
            } `json:"meta"`
        } `json:"result"`
        Error any `json:"error"`
    } `json:"chart"`
}

type quoteSummaryResponse struct {
    QuoteSummary struct {
        Result []struct {
            Price *struct {
                RegularMarketPrice rawValue `json:"regularMarketPrice"`
            } `json:"price"`
            SummaryDetail *struct {
                PreviousClose rawValue `json:"previousClose"`
                DividendYield rawValue `json:"dividendYield"`
                TrailingPE    rawValue `json:"trailingPE"`
                ForwardPE     rawValue `json:"forwardPE"`
            } `json:"summaryDetail"`
            AssetProfile *struct {
                Sector string `json:"sector"`
            } `json:"assetProfile"`
        } `json:"result"`
        Error any `json:"error"`
    } `json:"quoteSummary"`
}

// rawValue is Yahoo's {raw, fmt} number wrapper; only raw matters here.
type rawValue struct {
    Raw *float64 `json:"raw"`
}
