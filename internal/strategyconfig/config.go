package strategyconfig

import "github.com/wonny/alphaselector/internal/strategy"

// Config is the strategy file: which strategies run, in which order, with which thresholds
type Config struct {
	Meta       Meta       `yaml:"meta" json:"meta"`
	Strategies Strategies `yaml:"strategies" json:"strategies"`
	Thresholds Thresholds `yaml:"thresholds" json:"thresholds"`
}

// Meta 元信息
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// Strategies lists enabled strategy names; report order follows this list
type Strategies struct {
	Enabled []string `yaml:"enabled" json:"enabled"`
}

// Thresholds per strategy; omitted keys keep their defaults
type Thresholds struct {
	TrendBreakout TrendBreakout `yaml:"trend_breakout" json:"trend_breakout"`
	Reversal      Reversal      `yaml:"reversal" json:"reversal"`
	MAGoldenCross MAGoldenCross `yaml:"ma_golden_cross" json:"ma_golden_cross"`
}

type TrendBreakout struct {
	MinVolumeRatio float64 `yaml:"min_volume_ratio" json:"min_volume_ratio"`
	VolumeWeight   float64 `yaml:"volume_weight" json:"volume_weight"`
	PremiumWeight  float64 `yaml:"premium_weight" json:"premium_weight"`
}

type Reversal struct {
	MinReboundPct  float64 `yaml:"min_rebound_pct" json:"min_rebound_pct"`
	VolumeMultiple float64 `yaml:"volume_multiple" json:"volume_multiple"`
}

type MAGoldenCross struct {
	MinVolumeRatio float64 `yaml:"min_volume_ratio" json:"min_volume_ratio"`
}

// Default mirrors the built-in strategies and thresholds
func Default() *Config {
	th := strategy.DefaultThresholds()
	return &Config{
		Meta: Meta{StrategyID: "alpha_selector", Version: "1"},
		Strategies: Strategies{
			Enabled: strategy.Names(),
		},
		Thresholds: Thresholds{
			TrendBreakout: TrendBreakout{
				MinVolumeRatio: th.TrendBreakout.MinVolumeRatio,
				VolumeWeight:   th.TrendBreakout.VolumeWeight,
				PremiumWeight:  th.TrendBreakout.PremiumWeight,
			},
			Reversal: Reversal{
				MinReboundPct:  th.Reversal.MinReboundPct,
				VolumeMultiple: th.Reversal.VolumeMultiple,
			},
			MAGoldenCross: MAGoldenCross{
				MinVolumeRatio: th.MAGoldenCross.MinVolumeRatio,
			},
		},
	}
}

// StrategyThresholds converts the file thresholds for the strategy package
func (c *Config) StrategyThresholds() strategy.Thresholds {
	return strategy.Thresholds{
		TrendBreakout: strategy.TrendBreakoutThresholds{
			MinVolumeRatio: c.Thresholds.TrendBreakout.MinVolumeRatio,
			VolumeWeight:   c.Thresholds.TrendBreakout.VolumeWeight,
			PremiumWeight:  c.Thresholds.TrendBreakout.PremiumWeight,
		},
		Reversal: strategy.ReversalThresholds{
			MinReboundPct:  c.Thresholds.Reversal.MinReboundPct,
			VolumeMultiple: c.Thresholds.Reversal.VolumeMultiple,
		},
		MAGoldenCross: strategy.MAGoldenCrossThresholds{
			MinVolumeRatio: c.Thresholds.MAGoldenCross.MinVolumeRatio,
		},
	}
}

// Registry builds a registry of the enabled strategies in file order
func (c *Config) Registry() (*strategy.Registry, error) {
	all := strategy.NewRegistry(strategy.Defaults(c.StrategyThresholds())...)
	enabled, err := all.Select(c.Strategies.Enabled)
	if err != nil {
		return nil, err
	}
	return strategy.NewRegistry(enabled...), nil
}
