// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promauto"
)

var (
    // CacheRequests counts cache lookups by freshness state
    // (fresh, stale, expired, miss).
    CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
        Name: "pricefeed_cache_requests_total",
        Help: "Cache lookups by freshness state.",
    }, []string{"state"})

    // RefreshFailures counts background refresh attempts that ended in error.
    RefreshFailures = promauto.NewCounter(prometheus.CounterOpts{
        Name: "pricefeed_cache_refresh_failures_total",
        Help: "Background cache refreshes that failed.",
    })

    // ProviderFailures counts provider fetches that errored or came back empty.
    ProviderFailures = promauto.NewCounterVec(prometheus.CounterOpts{
        Name: "pricefeed_provider_failures_total",
        Help: "Provider fetches that returned an error or no data.",
    }, []string{"provider"})

    // OutlierReadings counts readings rejected by the z-score filter.
    OutlierReadings = promauto.NewCounterVec(prometheus.CounterOpts{
        Name: "pricefeed_consensus_outliers_total",
        Help: "Readings rejected as outliers, by originating provider.",
    }, []string{"provider"})
)
