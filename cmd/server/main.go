package main

import (
    "compress/gzip"
    "context"
    "encoding/json"
    "errors"
    "io"
    "log"
    "net/http"
    "os"
    "os/signal"
    "strings"
    "sync"
    "syscall"
    "time"

    "github.com/joho/godotenv"
    "github.com/prometheus/client_golang/prometheus/promhttp"

    "pricefeed/internal/config"
    "pricefeed/internal/consensus"
    "pricefeed/internal/httpx"
    "pricefeed/internal/marketdata"
    "pricefeed/internal/provider"
    "pricefeed/internal/provider/alphavantage"
    "pricefeed/internal/provider/ratelimit"
    "pricefeed/internal/provider/synthetic"
    "pricefeed/internal/provider/yahoo"
    "pricefeed/internal/store/memstore"
    "pricefeed/internal/store/redisstore"
    "pricefeed/internal/swr"
)

func main() {
    _ = godotenv.Load()

    cfgPath := os.Getenv("CONFIG_FILE")
    cfg, err := config.Load(cfgPath)
    if err != nil { log.Fatalf("config: %v", err) }
    port := cfg.Server.Port

    if cfg.AlphaVantage.Enabled && cfg.AlphaVantage.APIKey == "" {
        log.Println("warning: alphavantage.enabled=true but ALPHAVANTAGE_API_KEY not set")
    }

    httpClient := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)

    // Cache store: Redis when reachable, else degrade to the in-process
    // store so the service still answers (every entry just starts cold).
    var store swr.Store
    redis, err := redisstore.New(redisstore.Config{
        Addr:     cfg.Cache.RedisAddr,
        Password: cfg.Cache.RedisPassword,
        DB:       cfg.Cache.RedisDB,
        PoolSize: cfg.Cache.PoolSize,
        Timeout:  time.Duration(cfg.Cache.OpTimeoutSec) * time.Second,
    })
    if err != nil {
        log.Printf("warning: cache store unavailable (%v); using in-process store", err)
        store = memstore.New()
    } else {
        defer redis.Close()
        store = redis
    }

    providers, yf := buildProviders(cfg, httpClient)
    if len(providers) == 0 {
        log.Fatal("no providers configured; enable at least one in config or env")
    }
    engine := &consensus.Engine{Providers: providers}

    var snaps marketdata.SnapshotFetcher
    if yf != nil { snaps = yf }
    svc := marketdata.New(store, engine, snaps, marketdata.Config{
        PriceTTL:   time.Duration(cfg.Cache.TTLSeconds) * time.Second,
        PriceGrace: time.Duration(cfg.Cache.GraceSeconds) * time.Second,
        Margin:     time.Duration(cfg.Cache.MarginSeconds) * time.Second,
    })

    mux := http.NewServeMux()
    mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
        writeHealth(w, r.Context(), store)
    })
    mux.Handle("/metrics", promhttp.Handler())
    mux.HandleFunc("/api/price", func(w http.ResponseWriter, r *http.Request) {
        if r.Method != http.MethodGet {
            http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
            return
        }
        symbol := r.URL.Query().Get("symbol")
        if strings.TrimSpace(symbol) == "" {
            http.Error(w, "missing symbol query param", http.StatusBadRequest)
            return
        }
        writePrice(w, r.Context(), svc, symbol)
    })
    mux.HandleFunc("/api/snapshot", func(w http.ResponseWriter, r *http.Request) {
        if r.Method != http.MethodGet {
            http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
            return
        }
        symbol := r.URL.Query().Get("symbol")
        if strings.TrimSpace(symbol) == "" {
            http.Error(w, "missing symbol query param", http.StatusBadRequest)
            return
        }
        writeSnapshot(w, r.Context(), svc, symbol)
    })

    srv := &http.Server{
        Addr:              ":" + port,
        Handler:           withJSONHeaders(withGzip(recoverPanic(mux))),
        ReadHeaderTimeout: 5 * time.Second,
        ReadTimeout:       15 * time.Second,
        WriteTimeout:      20 * time.Second,
        IdleTimeout:       60 * time.Second,
    }

    go func() {
        log.Printf("server listening on :%s", port)
        if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
            log.Fatalf("server: %v", err)
        }
    }()

    // graceful shutdown
    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()
    <-ctx.Done()
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    _ = srv.Shutdown(shutdownCtx)
}

// buildProviders wires the enabled provider adapters, each behind its own
// rate limiting where configured. The yahoo adapter is returned separately
// because it also serves detail snapshots.
func buildProviders(cfg config.Config, httpClient *httpx.Client) ([]provider.Provider, *yahoo.Provider) {
    var providers []provider.Provider
    var yf *yahoo.Provider

    if cfg.Yahoo.Enabled {
        yf = yahoo.New(yahoo.Config{
            BaseURL: cfg.Yahoo.Endpoint,
            Timeout: time.Duration(cfg.Yahoo.TimeoutSec) * time.Second,
        }, httpClient)
        providers = append(providers, yf)
    }
    if cfg.AlphaVantage.Enabled && cfg.AlphaVantage.APIKey != "" {
        client, err := alphavantage.NewClient(
            cfg.AlphaVantage.APIKey,
            alphavantage.WithHTTPClient(httpClient.HTTP),
            alphavantage.WithBaseURL(cfg.AlphaVantage.Endpoint),
        )
        if err != nil {
            log.Printf("alphavantage client error: %v", err)
        } else {
            var p provider.Provider = alphavantage.NewProvider(alphavantage.Config{
                Timeout: time.Duration(cfg.AlphaVantage.TimeoutSec) * time.Second,
            }, client)
            // Prefer token bucket with burst if RPM is set, otherwise min-interval
            if cfg.AlphaVantage.MaxRequestsPerMinute > 0 {
                rate := float64(cfg.AlphaVantage.MaxRequestsPerMinute) / 60.0
                burst := cfg.AlphaVantage.Burst
                if burst <= 0 { burst = 1 }
                p = &ratelimit.TokenBucketProvider{P: p, TB: ratelimit.NewTokenBucket(rate, burst)}
            } else if cfg.AlphaVantage.MinRequestIntervalSec > 0 {
                interval := time.Duration(cfg.AlphaVantage.MinRequestIntervalSec) * time.Second
                p = &ratelimit.MinInterval{P: p, Interval: interval}
            }
            providers = append(providers, p)
        }
    }
    if cfg.Synthetic.Enabled {
        providers = append(providers, synthetic.New(synthetic.Config{
            Base:   cfg.Synthetic.BasePrice,
            Jitter: cfg.Synthetic.Jitter,
            Delay:  time.Duration(cfg.Synthetic.DelayMs) * time.Millisecond,
        }))
    }
    return providers, yf
}

type priceResponse struct {
    Symbol string  `json:"symbol"`
    Price  float64 `json:"price"`
}

type snapshotResponse struct {
    Symbol string `json:"symbol"`
    provider.Snapshot
}

type healthResponse struct {
    Status string `json:"status"`
    Cache  string `json:"cache"`
}

func writePrice(w http.ResponseWriter, rctx context.Context, svc *marketdata.Service, symbol string) {
    ctx, cancel := context.WithTimeout(rctx, 15*time.Second)
    defer cancel()
    price, err := svc.Price(ctx, symbol)
    if err != nil {
        // ErrNoConsensus and transport failures alike mean the upstreams
        // could not answer right now.
        http.Error(w, err.Error(), http.StatusBadGateway)
        return
    }
    writeJSON(w, priceResponse{Symbol: strings.ToUpper(strings.TrimSpace(symbol)), Price: price})
}

func writeSnapshot(w http.ResponseWriter, rctx context.Context, svc *marketdata.Service, symbol string) {
    ctx, cancel := context.WithTimeout(rctx, 15*time.Second)
    defer cancel()
    snap, err := svc.Snapshot(ctx, symbol)
    if err != nil {
        if errors.Is(err, marketdata.ErrNoData) {
            http.Error(w, err.Error(), http.StatusNotFound)
            return
        }
        http.Error(w, err.Error(), http.StatusBadGateway)
        return
    }
    writeJSON(w, snapshotResponse{Symbol: strings.ToUpper(strings.TrimSpace(symbol)), Snapshot: snap})
}

func writeHealth(w http.ResponseWriter, rctx context.Context, store swr.Store) {
    ctx, cancel := context.WithTimeout(rctx, 2*time.Second)
    defer cancel()
    resp := healthResponse{Status: "ok", Cache: "reachable"}
    if err := store.Ping(ctx); err != nil {
        // Degraded cache never fails the service, only the probe detail.
        resp.Cache = "degraded"
    }
    writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, v any) {
    w.WriteHeader(http.StatusOK)
    enc := json.NewEncoder(w)
    enc.SetEscapeHTML(false)
    _ = enc.Encode(v)
}

func withJSONHeaders(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if !strings.HasPrefix(r.URL.Path, "/metrics") {
            w.Header().Set("Content-Type", "application/json; charset=utf-8")
        }
        // Basic CORS for browser usage; adjust as needed.
        w.Header().Set("Access-Control-Allow-Origin", "*")
        w.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
        w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
        if r.Method == http.MethodOptions {
            w.WriteHeader(http.StatusNoContent)
            return
        }
        next.ServeHTTP(w, r)
    })
}

// withGzip compresses response when client supports gzip.
func withGzip(next http.Handler) http.Handler {
    var gzPool = sync.Pool{New: func() any {
        // Prefer best speed to reduce CPU usage since payloads are JSON
        w, _ := gzip.NewWriterLevel(io.Discard, gzip.BestSpeed)
        return w
    }}
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
            next.ServeHTTP(w, r)
            return
        }
        gz := gzPool.Get().(*gzip.Writer)
        gz.Reset(w)
        defer func() {
            _ = gz.Close()
            gz.Reset(io.Discard)
            gzPool.Put(gz)
        }()
        w.Header().Set("Content-Encoding", "gzip")
        w.Header().Add("Vary", "Accept-Encoding")
        gw := gzipResponseWriter{ResponseWriter: w, Writer: gz}
        next.ServeHTTP(gw, r)
    })
}

type gzipResponseWriter struct {
    http.ResponseWriter
    Writer io.Writer
}

func (g gzipResponseWriter) Write(b []byte) (int, error) {
    return g.Writer.Write(b)
}

// recoverPanic protects handlers from panics.
func recoverPanic(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        defer func() {
            if rec := recover(); rec != nil {
                http.Error(w, "internal server error", http.StatusInternalServerError)
            }
        }()
        next.ServeHTTP(w, r)
    })
}
