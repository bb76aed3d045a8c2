package strategyconfig

import (
	"fmt"
	"math"

	"github.com/wonny/alphaselector/internal/strategy"
)

// ValidationError 校验失败 (中止)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 不推荐的取值 (只警告)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
func Validate(cfg *Config) error {
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	if len(cfg.Strategies.Enabled) == 0 {
		return ValidationError{"strategies.enabled", "must list at least one strategy"}
	}
	known := make(map[string]bool)
	for _, name := range strategy.Names() {
		known[name] = true
	}
	seen := make(map[string]bool)
	for _, name := range cfg.Strategies.Enabled {
		if !known[name] {
			return ValidationError{"strategies.enabled", fmt.Sprintf("unknown strategy %q", name)}
		}
		if seen[name] {
			return ValidationError{"strategies.enabled", fmt.Sprintf("duplicate strategy %q", name)}
		}
		seen[name] = true
	}

	tb := cfg.Thresholds.TrendBreakout
	if err := validatePositive(tb.MinVolumeRatio, "thresholds.trend_breakout.min_volume_ratio"); err != nil {
		return err
	}
	if tb.VolumeWeight < 0 || tb.PremiumWeight < 0 {
		return ValidationError{"thresholds.trend_breakout", "weights must be >= 0"}
	}

	rv := cfg.Thresholds.Reversal
	if err := validatePositive(rv.MinReboundPct, "thresholds.reversal.min_rebound_pct"); err != nil {
		return err
	}
	if err := validatePositive(rv.VolumeMultiple, "thresholds.reversal.volume_multiple"); err != nil {
		return err
	}

	if err := validatePositive(cfg.Thresholds.MAGoldenCross.MinVolumeRatio, "thresholds.ma_golden_cross.min_volume_ratio"); err != nil {
		return err
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	tb := cfg.Thresholds.TrendBreakout
	if math.Abs(tb.VolumeWeight+tb.PremiumWeight-1) > 1e-6 {
		warnings = append(warnings, Warning{
			Code:    "BREAKOUT_WEIGHTS",
			Message: fmt.Sprintf("trend_breakout weights sum to %.3f, scores are not comparable with the default", tb.VolumeWeight+tb.PremiumWeight),
		})
	}

	if cfg.Thresholds.MAGoldenCross.MinVolumeRatio < 1 {
		warnings = append(warnings, Warning{
			Code:    "GOLDEN_CROSS_LOW_VOLUME",
			Message: "ma_golden_cross min_volume_ratio < 1 accepts shrinking volume",
		})
	}

	return warnings
}

func validatePositive(v float64, field string) error {
	if math.IsNaN(v) || v <= 0 {
		return ValidationError{field, "must be > 0"}
	}
	return nil
}
