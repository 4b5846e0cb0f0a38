package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"pricefeed/internal/marketdata"
	"pricefeed/internal/store/redisstore"
)

var (
	seedFile      string
	seedWorkers   int
	seedSnapshots bool
)

// seedCmd warms the shared cache for a ticker list so first readers after a
// deploy hit warm entries instead of a thundering herd of misses.
var seedCmd = &cobra.Command{
	Use:   "seed [SYMBOL...]",
	Short: "Warm the cache for a list of tickers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, engine, yf, err := loadSetup()
		if err != nil {
			return err
		}
		tickers := args
		if seedFile != "" {
			fromFile, err := readTickers(seedFile)
			if err != nil {
				return err
			}
			tickers = append(tickers, fromFile...)
		}
		if len(tickers) == 0 {
			return fmt.Errorf("no tickers given; pass symbols or --file")
		}

		// Seeding only makes sense against the shared store.
		store, err := redisstore.New(redisstore.Config{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
			PoolSize: cfg.Cache.PoolSize,
			Timeout:  time.Duration(cfg.Cache.OpTimeoutSec) * time.Second,
		})
		if err != nil {
			return fmt.Errorf("cache store: %w", err)
		}
		defer store.Close()

		var snaps marketdata.SnapshotFetcher
		if yf != nil {
			snaps = yf
		}
		svc := marketdata.New(store, engine, snaps, marketdata.Config{
			PriceTTL:   time.Duration(cfg.Cache.TTLSeconds) * time.Second,
			PriceGrace: time.Duration(cfg.Cache.GraceSeconds) * time.Second,
			Margin:     time.Duration(cfg.Cache.MarginSeconds) * time.Second,
		})

		runID := uuid.NewString()
		log.Printf("seed run %s: %d tickers, %d workers", runID, len(tickers), seedWorkers)

		var okCount, failCount atomic.Int64
		g, ctx := errgroup.WithContext(context.Background())
		g.SetLimit(seedWorkers)
		for _, t := range tickers {
			t := t
			g.Go(func() error {
				if _, err := svc.Price(ctx, t); err != nil {
					failCount.Add(1)
					log.Printf("seed run %s: %s price: %v", runID, t, err)
					return nil // one bad ticker never aborts the run
				}
				if seedSnapshots && snaps != nil {
					if _, err := svc.Snapshot(ctx, t); err != nil {
						log.Printf("seed run %s: %s snapshot: %v", runID, t, err)
					}
				}
				okCount.Add(1)
				return nil
			})
		}
		_ = g.Wait()
		log.Printf("seed run %s done: %d ok, %d failed", runID, okCount.Load(), failCount.Load())
		return nil
	},
}

// readTickers reads one ticker per line; blank lines and #-comments are
// skipped.
func readTickers(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read tickers: %w", err)
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "file with one ticker per line")
	seedCmd.Flags().IntVar(&seedWorkers, "workers", 8, "concurrent fetches")
	seedCmd.Flags().BoolVar(&seedSnapshots, "snapshots", true, "also warm detail snapshots")
	rootCmd.AddCommand(seedCmd)
}
