package strategy

import (
	"fmt"
	"math"

	"github.com/wonny/alphaselector/internal/contracts"
)

var _ Strategy = (*MAGoldenCross)(nil)

// MAGoldenCross selects the bar on which ma5 crosses above ma10 on expanding volume
type MAGoldenCross struct {
	th MAGoldenCrossThresholds
}

// NewMAGoldenCross creates the golden cross strategy
func NewMAGoldenCross(th MAGoldenCrossThresholds) *MAGoldenCross {
	return &MAGoldenCross{th: th}
}

// Name returns "ma_golden_cross"
func (s *MAGoldenCross) Name() string {
	return NameMAGoldenCross
}

// Condition: prev ma5 <= prev ma10, last ma5 > last ma10, volume_ratio > min
func (s *MAGoldenCross) Condition(fs contracts.FactorSeries) bool {
	if len(fs) < 2 {
		return false
	}
	last, prev := fs.Last(), fs.Prev()
	if !contracts.AllDefined(prev.MA5, prev.MA10, last.MA5, last.MA10, last.VolumeRatio) {
		return false
	}

	return prev.MA5 <= prev.MA10 &&
		last.MA5 > last.MA10 &&
		last.VolumeRatio > s.th.MinVolumeRatio
}

// Score is the last volume_ratio
func (s *MAGoldenCross) Score(fs contracts.FactorSeries) float64 {
	if len(fs) == 0 {
		return math.NaN()
	}
	return fs.Last().VolumeRatio
}

// Describe explains the rule
func (s *MAGoldenCross) Describe() string {
	return fmt.Sprintf("ma5 crosses above ma10, volume_ratio > %.2f; score = volume_ratio", s.th.MinVolumeRatio)
}
