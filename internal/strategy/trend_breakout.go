package strategy

import (
	"fmt"
	"math"

	"github.com/wonny/alphaselector/internal/contracts"
)

var _ Strategy = (*TrendBreakout)(nil)

// TrendBreakout selects a close above the prior 5-day high on heavy volume
// while the short average leads the long one.
type TrendBreakout struct {
	th TrendBreakoutThresholds
}

// NewTrendBreakout creates the breakout strategy
func NewTrendBreakout(th TrendBreakoutThresholds) *TrendBreakout {
	return &TrendBreakout{th: th}
}

// Name returns "trend_breakout"
func (s *TrendBreakout) Name() string {
	return NameTrendBreakout
}

// Condition: close > previous high_5d, volume_ratio > min, ma5 > ma10
func (s *TrendBreakout) Condition(fs contracts.FactorSeries) bool {
	if len(fs) < 2 {
		return false
	}
	last, prev := fs.Last(), fs.Prev()
	if !contracts.AllDefined(last.Close, prev.High5D, last.VolumeRatio, last.MA5, last.MA10) {
		return false
	}

	return last.Close > prev.High5D &&
		last.VolumeRatio > s.th.MinVolumeRatio &&
		last.MA5 > last.MA10
}

// Score weights the volume surge and the premium over ma5
func (s *TrendBreakout) Score(fs contracts.FactorSeries) float64 {
	if len(fs) == 0 {
		return math.NaN()
	}
	last := fs.Last()
	return last.VolumeRatio*s.th.VolumeWeight + (last.Close/last.MA5-1)*s.th.PremiumWeight
}

// Describe explains the rule
func (s *TrendBreakout) Describe() string {
	return fmt.Sprintf("close > prior high_5d, volume_ratio > %.2f, ma5 > ma10; score = vr×%.2f + (close/ma5-1)×%.2f",
		s.th.MinVolumeRatio, s.th.VolumeWeight, s.th.PremiumWeight)
}
