package config

import (
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"

    "gopkg.in/yaml.v3"
)

type Server struct {
    Port              string `json:"port" yaml:"port"`
    RequestTimeoutSec int    `json:"request_timeout_sec" yaml:"request_timeout_sec"`
}

type Cache struct {
    RedisAddr     string `json:"redis_addr" yaml:"redis_addr"`
    RedisPassword string `json:"redis_password" yaml:"redis_password"`
    RedisDB       int    `json:"redis_db" yaml:"redis_db"`
    PoolSize      int    `json:"pool_size" yaml:"pool_size"`
    OpTimeoutSec  int    `json:"op_timeout_sec" yaml:"op_timeout_sec"`
    // TTL/grace windows for the price operation; the snapshot operation
    // keeps its own fixed windows.
    TTLSeconds    int `json:"ttl_sec" yaml:"ttl_sec"`
    GraceSeconds  int `json:"grace_sec" yaml:"grace_sec"`
    MarginSeconds int `json:"margin_sec" yaml:"margin_sec"`
}

type Yahoo struct {
    Enabled    bool   `json:"enabled" yaml:"enabled"`
    Endpoint   string `json:"endpoint" yaml:"endpoint"`
    TimeoutSec int    `json:"timeout_sec" yaml:"timeout_sec"`
}

type AlphaVantage struct {
    Enabled               bool   `json:"enabled" yaml:"enabled"`
    APIKey                string `json:"api_key" yaml:"api_key"`
    Endpoint              string `json:"endpoint" yaml:"endpoint"`
    TimeoutSec            int    `json:"timeout_sec" yaml:"timeout_sec"`
    MaxRequestsPerMinute  int    `json:"max_requests_per_minute" yaml:"max_requests_per_minute"`
    Burst                 int    `json:"burst" yaml:"burst"`
    MinRequestIntervalSec int    `json:"min_request_interval_sec" yaml:"min_request_interval_sec"`
}

type Synthetic struct {
    Enabled   bool    `json:"enabled" yaml:"enabled"`
    BasePrice float64 `json:"base_price" yaml:"base_price"`
    Jitter    float64 `json:"jitter" yaml:"jitter"`
    DelayMs   int     `json:"delay_ms" yaml:"delay_ms"`
}

type History struct {
    DatabaseURL string `json:"database_url" yaml:"database_url"`
}

type Config struct {
    Server       Server       `json:"server" yaml:"server"`
    Cache        Cache        `json:"cache" yaml:"cache"`
    Yahoo        Yahoo        `json:"yahoo" yaml:"yahoo"`
    AlphaVantage AlphaVantage `json:"alphavantage" yaml:"alphavantage"`
    Synthetic    Synthetic    `json:"synthetic" yaml:"synthetic"`
    History      History      `json:"history" yaml:"history"`
}

func Default() Config {
    return Config{
        Server: Server{Port: "8080", RequestTimeoutSec: 15},
        Cache: Cache{
            RedisAddr:     "localhost:6379",
            PoolSize:      20,
            OpTimeoutSec:  5,
            TTLSeconds:    60,
            GraceSeconds:  3600,
            MarginSeconds: 60,
        },
        Yahoo: Yahoo{
            Enabled:    true,
            Endpoint:   "https://query1.finance.yahoo.com",
            TimeoutSec: 7,
        },
        AlphaVantage: AlphaVantage{
            Enabled:              false,
            Endpoint:             "https://www.alphavantage.co",
            TimeoutSec:           7,
            MaxRequestsPerMinute: 5,
            Burst:                1,
        },
        Synthetic: Synthetic{
            Enabled:   false,
            BasePrice: 150,
            Jitter:    5,
            DelayMs:   100,
        },
    }
}

// Load reads config from path (JSON, or YAML for .yaml/.yml files). If path
// is empty it looks for config.json, then config.yaml, in the working
// directory, and falls back to defaults when neither exists. Environment
// variables override select fields for secrecy.
func Load(path string) (Config, error) {
    cfg := Default()
    if path == "" {
        for _, cand := range []string{"config.json", "config.yaml", "config.yml"} {
            if _, err := os.Stat(cand); err == nil {
                path = cand
                break
            }
        }
    }
    if path != "" {
        b, err := os.ReadFile(path)
        if err != nil && !errors.Is(err, os.ErrNotExist) {
            return cfg, fmt.Errorf("read config: %w", err)
        }
        if err == nil {
            switch strings.ToLower(filepath.Ext(path)) {
            case ".yaml", ".yml":
                if err := yaml.Unmarshal(b, &cfg); err != nil {
                    return cfg, fmt.Errorf("parse config: %w", err)
                }
            default:
                if err := json.Unmarshal(b, &cfg); err != nil {
                    return cfg, fmt.Errorf("parse config: %w", err)
                }
            }
        }
    }
    applyEnv(&cfg)
    return cfg, nil
}

func applyEnv(cfg *Config) {
    if v := os.Getenv("PORT"); v != "" { cfg.Server.Port = v }
    if v := os.Getenv("REQUEST_TIMEOUT_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Server.RequestTimeoutSec = x }
    }

    if v := os.Getenv("REDIS_ADDR"); v != "" { cfg.Cache.RedisAddr = v }
    if v := os.Getenv("REDIS_PASSWORD"); v != "" { cfg.Cache.RedisPassword = v }
    if v := os.Getenv("REDIS_DB"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { cfg.Cache.RedisDB = x }
    }
    if v := os.Getenv("CACHE_TTL_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Cache.TTLSeconds = x }
    }
    if v := os.Getenv("CACHE_GRACE_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { cfg.Cache.GraceSeconds = x }
    }
    if v := os.Getenv("CACHE_MARGIN_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { cfg.Cache.MarginSeconds = x }
    }

    if v := os.Getenv("YAHOO_ENABLED"); v != "" { setBool(&cfg.Yahoo.Enabled, v) }
    if v := os.Getenv("YAHOO_ENDPOINT"); v != "" { cfg.Yahoo.Endpoint = v }

    if v := os.Getenv("ALPHAVANTAGE_ENABLED"); v != "" { setBool(&cfg.AlphaVantage.Enabled, v) }
    if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" { cfg.AlphaVantage.APIKey = v }
    if v := os.Getenv("ALPHAVANTAGE_ENDPOINT"); v != "" { cfg.AlphaVantage.Endpoint = v }
    if v := os.Getenv("ALPHAVANTAGE_MAX_RPM"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { cfg.AlphaVantage.MaxRequestsPerMinute = x }
    }
    if v := os.Getenv("ALPHAVANTAGE_BURST"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.AlphaVantage.Burst = x }
    }
    if v := os.Getenv("ALPHAVANTAGE_MIN_INTERVAL_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { cfg.AlphaVantage.MinRequestIntervalSec = x }
    }

    if v := os.Getenv("SYNTHETIC_ENABLED"); v != "" { setBool(&cfg.Synthetic.Enabled, v) }
    if v := os.Getenv("SYNTHETIC_BASE_PRICE"); v != "" {
        var x float64; fmt.Sscanf(v, "%g", &x); if x > 0 { cfg.Synthetic.BasePrice = x }
    }
    if v := os.Getenv("SYNTHETIC_DELAY_MS"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { cfg.Synthetic.DelayMs = x }
    }

    if v := os.Getenv("DATABASE_URL"); v != "" { cfg.History.DatabaseURL = v }
}

func setBool(dst *bool, v string) {
    switch strings.ToLower(v) {
    case "1", "true", "yes", "y":
        *dst = true
    case "0", "false", "no", "n":
        *dst = false
    }
}
