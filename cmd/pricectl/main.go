// Package main provides the pricectl CLI application.
package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// Optional .env for local development; missing file is fine.
	_ = godotenv.Load()
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
