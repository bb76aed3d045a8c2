package strategy

// Thresholds groups the tunable constants of the built-in strategies
type Thresholds struct {
	TrendBreakout TrendBreakoutThresholds `json:"trend_breakout"`
	Reversal      ReversalThresholds      `json:"reversal"`
	MAGoldenCross MAGoldenCrossThresholds `json:"ma_golden_cross"`
}

// TrendBreakoutThresholds configures TrendBreakout
type TrendBreakoutThresholds struct {
	MinVolumeRatio float64 `json:"min_volume_ratio"` // volume_ratio must exceed this
	VolumeWeight   float64 `json:"volume_weight"`    // score weight of volume_ratio
	PremiumWeight  float64 `json:"premium_weight"`   // score weight of close/ma5 - 1
}

// ReversalThresholds configures Reversal
type ReversalThresholds struct {
	MinReboundPct  float64 `json:"min_rebound_pct"` // last pct_change must exceed this (percent)
	VolumeMultiple float64 `json:"volume_multiple"` // last volume must exceed this × previous volume
}

// MAGoldenCrossThresholds configures MAGoldenCross
type MAGoldenCrossThresholds struct {
	MinVolumeRatio float64 `json:"min_volume_ratio"`
}

// DefaultThresholds returns the production constants
func DefaultThresholds() Thresholds {
	return Thresholds{
		TrendBreakout: TrendBreakoutThresholds{
			MinVolumeRatio: 1.8,
			VolumeWeight:   0.7,
			PremiumWeight:  0.3,
		},
		Reversal: ReversalThresholds{
			MinReboundPct:  2.0,
			VolumeMultiple: 1.5,
		},
		MAGoldenCross: MAGoldenCrossThresholds{
			MinVolumeRatio: 1.3,
		},
	}
}
