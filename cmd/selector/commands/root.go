package commands

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	strategyFile string
	env          string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "selector",
	Short: "AlphaSelector - A股多策略选股工具",
	Long: `AlphaSelector CLI

沪深 A 股日线选股: 股票池 → 日线 → 因子 → 策略 → 报告.

Usage:
  go run ./cmd/selector [command]

Examples:
  go run ./cmd/selector select
  go run ./cmd/selector select --strategies trend_breakout,reversal --json
  go run ./cmd/selector factors 600519 --tail 5
  go run ./cmd/selector collect --limit 100
  go run ./cmd/selector api --scheduler`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&strategyFile, "config", "", "strategy YAML file (default: $STRATEGY_CONFIG or built-in thresholds)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production|test)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
