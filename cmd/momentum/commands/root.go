package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/momentum/pkg/config"
	"github.com/wonny/momentum/pkg/logger"
)

var (
	// Global flags
	env     string
	source  string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "momentum",
	Short: "Taiwan industry momentum report",
	Long: `Momentum CLI

업종(產業) 모멘텀 랭킹을 수집하고, 그룹별 대표 종목을
상장(TWSE)/장외(TPEx) 당일 시세와 결합합니다.

Usage:
  go run ./cmd/momentum [command]

Examples:
  go run ./cmd/momentum report 1week
  go run ./cmd/momentum report 1day --json
  go run ./cmd/momentum quote 2330 3105
  go run ./cmd/momentum serve
  go run ./cmd/momentum schedule`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		return err
	}
	return nil
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().StringVar(&source, "source", "", "ranking source override (api|browser)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// loadConfig reads the environment and applies global flag overrides
func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	if env != "" {
		cfg.Env = env
	}
	if source != "" {
		if source != "api" && source != "browser" {
			return nil, nil, fmt.Errorf("--source must be api or browser, got %q", source)
		}
		if source == "browser" && cfg.Sector.BaseURL == "" {
			return nil, nil, fmt.Errorf("--source browser requires SECTOR_BASE_URL")
		}
		cfg.Ranking.Source = source
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	return cfg, logger.New(cfg), nil
}
