package alphavantage

import (
	"context"
	"time"
)

// Config controls the provider wrapper around a Client.
type Config struct {
	Name string
	// Timeout caps each upstream call. Defaults to 7s.
	Timeout time.Duration
}

// Provider adapts a Client to the provider contract.
type Provider struct {
	cfg    Config
	client *Client
}

func NewProvider(cfg Config, client *Client) *Provider {
	if cfg.Name == "" {
		cfg.Name = "AlphaVantage"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 7 * time.Second
	}
	return &Provider{cfg: cfg, client: client}
}

func (p *Provider) Name() string { return p.cfg.Name }

func (p *Provider) Fetch(ctx context.Context, symbol string) (float64, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()
	return p.client.GlobalQuote(ctx, symbol)
}
