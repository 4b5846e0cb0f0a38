package main

import (
	"time"

	"github.com/spf13/cobra"

	"pricefeed/internal/config"
	"pricefeed/internal/consensus"
	"pricefeed/internal/httpx"
	"pricefeed/internal/provider"
	"pricefeed/internal/provider/alphavantage"
	"pricefeed/internal/provider/ratelimit"
	"pricefeed/internal/provider/synthetic"
	"pricefeed/internal/provider/yahoo"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pricectl",
	Short: "Market data operations tool",
	Long: `pricectl drives the pricefeed components from the command line:
one-shot consensus fetches, cache warming over a ticker list, and
recording consensus prices into Postgres.`,
	SilenceUsage: true,
}

// Execute runs the root command. Called once from main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (JSON or YAML)")
}

// loadSetup builds the pieces every subcommand needs: config, HTTP client,
// providers, and the consensus engine over them.
func loadSetup() (config.Config, *consensus.Engine, *yahoo.Provider, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return cfg, nil, nil, err
	}
	httpClient := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)

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
		if err == nil {
			var p provider.Provider = alphavantage.NewProvider(alphavantage.Config{
				Timeout: time.Duration(cfg.AlphaVantage.TimeoutSec) * time.Second,
			}, client)
			if cfg.AlphaVantage.MaxRequestsPerMinute > 0 {
				rate := float64(cfg.AlphaVantage.MaxRequestsPerMinute) / 60.0
				burst := cfg.AlphaVantage.Burst
				if burst <= 0 {
					burst = 1
				}
				p = &ratelimit.TokenBucketProvider{P: p, TB: ratelimit.NewTokenBucket(rate, burst)}
			} else if cfg.AlphaVantage.MinRequestIntervalSec > 0 {
				p = &ratelimit.MinInterval{P: p, Interval: time.Duration(cfg.AlphaVantage.MinRequestIntervalSec) * time.Second}
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
	return cfg, &consensus.Engine{Providers: providers}, yf, nil
}
