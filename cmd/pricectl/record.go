package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"pricefeed/internal/history"
)

var (
	recordDatabaseURL string
	recordTimeout     int
)

// recordCmd fetches a fresh consensus price per symbol and upserts it into
// the prices table. Meant to run from cron; a failed symbol is logged and
// skipped so the rest of the batch still lands.
var recordCmd = &cobra.Command{
	Use:   "record SYMBOL...",
	Short: "Fetch consensus prices and store them in Postgres",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, engine, _, err := loadSetup()
		if err != nil {
			return err
		}
		dbURL := recordDatabaseURL
		if dbURL == "" {
			dbURL = cfg.History.DatabaseURL
		}
		if dbURL == "" {
			return fmt.Errorf("no database URL; pass --database-url or set DATABASE_URL")
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(recordTimeout)*time.Second)
		defer cancel()

		rec, err := history.Open(ctx, dbURL)
		if err != nil {
			return err
		}
		defer rec.Close()

		var stored int
		for _, sym := range args {
			price, err := engine.Fetch(ctx, sym)
			if err != nil {
				log.Printf("%s: %v", sym, err)
				continue
			}
			err = rec.Upsert(ctx, history.Record{
				Ticker:     sym,
				Price:      decimal.NewFromFloat(price),
				RecordedAt: time.Now().UTC(),
			})
			if err != nil {
				log.Printf("%s: %v", sym, err)
				continue
			}
			stored++
		}
		log.Printf("recorded %d/%d symbols", stored, len(args))
		if stored == 0 {
			return fmt.Errorf("no prices recorded")
		}
		return nil
	},
}

func init() {
	recordCmd.Flags().StringVar(&recordDatabaseURL, "database-url", "", "Postgres connection URL (defaults to DATABASE_URL)")
	recordCmd.Flags().IntVar(&recordTimeout, "timeout", 60, "overall timeout in seconds")
	rootCmd.AddCommand(recordCmd)
}
