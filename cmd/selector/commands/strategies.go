package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/alphaselector/internal/strategy"
	"github.com/wonny/alphaselector/internal/strategyconfig"
	"github.com/wonny/alphaselector/pkg/config"
)

// strategiesCmd lists the enabled strategies and their thresholds
var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "列出策略",
	RunE:  runStrategies,
}

func init() {
	rootCmd.AddCommand(strategiesCmd)
}

func runStrategies(cmd *cobra.Command, args []string) error {
	appCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	path := appCfg.StrategyConfigPath
	if strategyFile != "" {
		path = strategyFile
	}

	cfg, _, err := strategyconfig.Load(path)
	if err != nil {
		return err
	}
	reg, err := cfg.Registry()
	if err != nil {
		return err
	}
	hash, err := strategyconfig.Hash(cfg)
	if err != nil {
		return err
	}

	PrintDoubleSeparator()
	fmt.Printf("  策略 (%d)   config %s\n", len(reg.List()), shortHash(hash))
	PrintSeparator()
	for i, s := range reg.All() {
		fmt.Printf("   %d. %-16s %s\n", i+1, s.Name(), strategy.Title(s.Name()))
		if d, ok := s.(strategy.Describer); ok {
			fmt.Printf("      %s\n", d.Describe())
		}
	}
	PrintDoubleSeparator()

	for _, w := range strategyconfig.Warn(cfg) {
		PrintWarning(w.Message)
	}
	return nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
