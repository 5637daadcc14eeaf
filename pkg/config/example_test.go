package config_test

import (
	"fmt"

	"github.com/wonny/momentum/pkg/config"
)

// Example demonstrates how to use the config package
func Example() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	fmt.Printf("Ranking source: %s (top %d)\n", cfg.Ranking.Source, cfg.Ranking.TopN)
	fmt.Printf("Stocks per group: %d\n", cfg.Resolver.Limit)
	fmt.Printf("Listed feed: %s\n", cfg.Quotes.ListedURL)
}
