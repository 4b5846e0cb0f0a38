package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
)

var fetchTimeout int

// fetchCmd queries every configured provider once and prints the consensus
// price per symbol, bypassing the cache. Useful for checking provider
// health and the outlier filter by hand.
var fetchCmd = &cobra.Command{
	Use:   "fetch SYMBOL...",
	Short: "One-shot consensus fetch, no cache",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, engine, _, err := loadSetup()
		if err != nil {
			return err
		}
		if len(engine.Providers) == 0 {
			return fmt.Errorf("no providers configured; enable at least one in config or env")
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(fetchTimeout)*time.Second)
		defer cancel()

		type row struct {
			Symbol string  `json:"symbol"`
			Price  float64 `json:"price"`
		}
		var out []row
		for _, sym := range args {
			price, err := engine.Fetch(ctx, sym)
			if err != nil {
				log.Printf("%s: %v", sym, err)
				continue
			}
			out = append(out, row{Symbol: sym, Price: price})
		}
		if len(out) == 0 {
			return fmt.Errorf("no prices fetched")
		}
		b, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(b))
		return nil
	},
}

func init() {
	fetchCmd.Flags().IntVar(&fetchTimeout, "timeout", 30, "overall timeout in seconds")
	rootCmd.AddCommand(fetchCmd)
}
