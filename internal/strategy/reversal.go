package strategy

import (
	"fmt"
	"math"

	"github.com/wonny/alphaselector/internal/contracts"
)

var _ Strategy = (*Reversal)(nil)

// reversalMinBars is the shortest history the rule looks at
const reversalMinBars = 5

// Reversal selects a strong up day after three falling days.
//
// Over the last four bars: bars -4, -3 and -2 closed down with volume not
// falling; bar -1 rose more than MinReboundPct on volume above
// VolumeMultiple × bar -2's volume.
type Reversal struct {
	th ReversalThresholds
}

// NewReversal creates the oversold rebound strategy
func NewReversal(th ReversalThresholds) *Reversal {
	return &Reversal{th: th}
}

// Name returns "reversal"
func (s *Reversal) Name() string {
	return NameReversal
}

// Condition checks the decline-then-rebound pattern
func (s *Reversal) Condition(fs contracts.FactorSeries) bool {
	if len(fs) < reversalMinBars {
		return false
	}
	w := fs.Tail(4)
	decline, rebound := w[:3], w[3]

	for i, b := range decline {
		if !contracts.AllDefined(b.PctChange, b.Volume) || !(b.PctChange < 0) {
			return false
		}
		if i > 0 && !(decline[i-1].Volume <= b.Volume) {
			return false
		}
	}

	if !contracts.AllDefined(rebound.PctChange, rebound.Volume) {
		return false
	}
	return rebound.PctChange > s.th.MinReboundPct &&
		rebound.Volume > s.th.VolumeMultiple*decline[2].Volume
}

// Score is the rebound day's pct_change
func (s *Reversal) Score(fs contracts.FactorSeries) float64 {
	if len(fs) == 0 {
		return math.NaN()
	}
	return fs.Last().PctChange
}

// Describe explains the rule
func (s *Reversal) Describe() string {
	return fmt.Sprintf("3 down days with non-decreasing volume, then pct_change > %.1f%% on volume > %.1f× prior; score = pct_change",
		s.th.MinReboundPct, s.th.VolumeMultiple)
}
