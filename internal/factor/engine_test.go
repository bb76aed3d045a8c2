package factor

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/alphaselector/internal/contracts"
	"github.com/wonny/alphaselector/pkg/logger"
)

func makeSeries(closes, volumes []float64) contracts.Series {
	start := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	out := make(contracts.Series, len(closes))
	for i, c := range closes {
		v := 1000.0
		if volumes != nil {
			v = volumes[i]
		}
		out[i] = contracts.Bar{
			Date:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c + 0.5,
			Low:    c - 0.5,
			Close:  c,
			Volume: v,
		}
	}
	return out
}

func randomWalk(n int, seed int64) contracts.Series {
	rng := rand.New(rand.NewSource(seed))
	closes := make([]float64, n)
	volumes := make([]float64, n)
	price := 20.0
	for i := range closes {
		price *= 1 + (rng.Float64()-0.5)*0.08
		closes[i] = price
		volumes[i] = 1e5 * (0.5 + rng.Float64())
	}
	return makeSeries(closes, volumes)
}

func seq(from, to float64) []float64 {
	var out []float64
	for v := from; v <= to; v++ {
		out = append(out, v)
	}
	return out
}

// sameFloat treats two undefined values as equal
func sameFloat(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return a == b
}

func assertSameFactors(t *testing.T, want, got contracts.FactorSeries) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		w, g := want[i], got[i]
		assert.Equal(t, w.Bar, g.Bar, "bar %d", i)
		pairs := [][2]float64{
			{w.MA5, g.MA5}, {w.MA10, g.MA10}, {w.RSI, g.RSI},
			{w.MACD, g.MACD}, {w.MACDSignal, g.MACDSignal}, {w.MACDHist, g.MACDHist},
			{w.High5D, g.High5D}, {w.VolumeMA5, g.VolumeMA5}, {w.VolumeRatio, g.VolumeRatio},
		}
		for j, p := range pairs {
			assert.True(t, sameFloat(p[0], p[1]), "bar %d factor %d: want %v got %v", i, j, p[0], p[1])
		}
	}
}

func TestComputeFactors_Empty(t *testing.T) {
	e := NewEngine(logger.NewNop())

	out := e.ComputeFactors(nil)
	assert.Empty(t, out)
}

func TestComputeFactors_MA5UndefinedBelowWindow(t *testing.T) {
	e := NewEngine(logger.NewNop())

	out := e.ComputeFactors(makeSeries([]float64{10, 11, 12, 13}, nil))
	require.Len(t, out, 4)
	for i, fb := range out {
		assert.True(t, math.IsNaN(fb.MA5), "bar %d", i)
		assert.True(t, math.IsNaN(fb.MA10), "bar %d", i)
		assert.True(t, math.IsNaN(fb.High5D), "bar %d", i)
		assert.True(t, math.IsNaN(fb.RSI), "bar %d", i)
		assert.True(t, math.IsNaN(fb.VolumeRatio), "bar %d", i)
	}
	// MACD has no warm-up
	assert.InDelta(t, 0.0, out[0].MACD, 1e-12)
	assert.False(t, math.IsNaN(out[3].MACD))
}

func TestComputeFactors_MovingAverages(t *testing.T) {
	e := NewEngine(logger.NewNop())

	out := e.ComputeFactors(makeSeries(seq(1, 12), nil))

	for i := 0; i < 4; i++ {
		assert.True(t, math.IsNaN(out[i].MA5))
	}
	assert.InDelta(t, 3.0, out[4].MA5, 1e-9)
	assert.InDelta(t, 10.0, out[11].MA5, 1e-9)

	for i := 0; i < 9; i++ {
		assert.True(t, math.IsNaN(out[i].MA10))
	}
	assert.InDelta(t, 5.5, out[9].MA10, 1e-9)
	assert.InDelta(t, 7.5, out[11].MA10, 1e-9)
}

func TestComputeFactors_High5DIsPriorWindow(t *testing.T) {
	e := NewEngine(logger.NewNop())
	series := makeSeries([]float64{10, 14, 11, 12, 13, 9, 8, 20}, nil)

	out := e.ComputeFactors(series)

	for i := 0; i < 5; i++ {
		assert.True(t, math.IsNaN(out[i].High5D), "bar %d", i)
	}
	// highs are close+0.5
	assert.InDelta(t, 14.5, out[5].High5D, 1e-12) // bars 0..4
	assert.InDelta(t, 14.5, out[6].High5D, 1e-12) // bars 1..5
	assert.InDelta(t, 13.5, out[7].High5D, 1e-12) // bars 2..6, excludes bar 7's 20.5
}

func TestComputeFactors_High5DNonAnticipative(t *testing.T) {
	e := NewEngine(logger.NewNop())
	base := randomWalk(40, 7)

	spiked := make(contracts.Series, len(base))
	copy(spiked, base)
	spiked[39].High = 1e6

	a := e.ComputeFactors(base)
	b := e.ComputeFactors(spiked)

	for i := range a {
		assert.True(t, sameFloat(a[i].High5D, b[i].High5D), "bar %d", i)
	}
}

func TestComputeFactors_RSIBounds(t *testing.T) {
	e := NewEngine(logger.NewNop())

	for seed := int64(1); seed <= 5; seed++ {
		out := e.ComputeFactors(randomWalk(120, seed))
		for i, fb := range out {
			if i < RSIPeriod-1 {
				assert.True(t, math.IsNaN(fb.RSI), "seed %d bar %d", seed, i)
				continue
			}
			assert.GreaterOrEqual(t, fb.RSI, 0.0)
			assert.LessOrEqual(t, fb.RSI, 100.0)
		}
	}
}

func TestComputeFactors_RSIExtremes(t *testing.T) {
	e := NewEngine(logger.NewNop())

	up := e.ComputeFactors(makeSeries(seq(1, 10), nil))
	assert.InDelta(t, 100.0, up[9].RSI, 1e-3)

	flat := e.ComputeFactors(makeSeries([]float64{5, 5, 5, 5, 5, 5, 5}, nil))
	assert.InDelta(t, 0.0, flat[6].RSI, 1e-9)

	down := e.ComputeFactors(makeSeries([]float64{10, 9, 8, 7, 6, 5, 4}, nil))
	assert.InDelta(t, 0.0, down[6].RSI, 1e-9)
}

func TestComputeFactors_RSIFirstDefinedBar(t *testing.T) {
	e := NewEngine(logger.NewNop())

	// deltas: +1 -1 +2 -1 +1 ; the first bar contributes 0 to both sides
	out := e.ComputeFactors(makeSeries([]float64{10, 11, 10, 12, 11, 12}, nil))

	gain := (1.0 + 2 + 1) / 6
	loss := (1.0 + 1) / 6
	want := 100 - 100/(1+gain/(loss+Epsilon))
	assert.InDelta(t, want, out[5].RSI, 1e-9)
	assert.True(t, math.IsNaN(out[4].RSI))
}

func TestComputeFactors_MACD(t *testing.T) {
	e := NewEngine(logger.NewNop())
	series := randomWalk(60, 3)

	out := e.ComputeFactors(series)

	closes := make([]float64, len(series))
	for i, b := range series {
		closes[i] = b.Close
	}
	fast := ewmAdjusted(closes, MACDFast)
	slow := ewmAdjusted(closes, MACDSlow)

	for i, fb := range out {
		assert.InDelta(t, fast[i]-slow[i], fb.MACD, 1e-12)
		assert.InDelta(t, fb.MACD-fb.MACDSignal, fb.MACDHist, 1e-12)
	}
}

func TestComputeFactors_VolumeRatio(t *testing.T) {
	e := NewEngine(logger.NewNop())

	volumes := []float64{100, 100, 100, 100, 200, 0}
	out := e.ComputeFactors(makeSeries([]float64{1, 2, 3, 4, 5, 6}, volumes))

	for i := 0; i < VolumeWindow-1; i++ {
		assert.True(t, math.IsNaN(out[i].VolumeMA5))
		assert.True(t, math.IsNaN(out[i].VolumeRatio))
	}
	assert.InDelta(t, 120.0, out[4].VolumeMA5, 1e-9)
	assert.InDelta(t, 200.0/120, out[4].VolumeRatio, 1e-6)
	assert.InDelta(t, 0.0, out[5].VolumeRatio, 1e-12)
}

func TestComputeFactors_ZeroVolumeStaysFinite(t *testing.T) {
	e := NewEngine(logger.NewNop())

	out := e.ComputeFactors(makeSeries(seq(1, 6), []float64{0, 0, 0, 0, 0, 0}))
	assert.InDelta(t, 0.0, out[5].VolumeRatio, 1e-12)
	assert.True(t, contracts.Defined(out[5].VolumeRatio))
}

func TestComputeFactors_Deterministic(t *testing.T) {
	e := NewEngine(logger.NewNop())
	series := randomWalk(80, 11)

	assertSameFactors(t, e.ComputeFactors(series), e.ComputeFactors(series))
}

func TestComputeFactors_DoesNotMutateInput(t *testing.T) {
	e := NewEngine(logger.NewNop())
	series := randomWalk(30, 5)
	before := make(contracts.Series, len(series))
	copy(before, series)

	_ = e.ComputeFactors(series)
	assert.Equal(t, before, series)
}

func TestAddFactors_OrderIndependent(t *testing.T) {
	e := NewEngine(logger.NewNop())
	base := Wrap(randomWalk(50, 13))

	a := e.AddVolumePriceFactors(e.AddTechnicalFactors(base))
	b := e.AddTechnicalFactors(e.AddVolumePriceFactors(base))
	assertSameFactors(t, a, b)

	// idempotent
	assertSameFactors(t, a, e.AddTechnicalFactors(a))
	assertSameFactors(t, a, e.AddVolumePriceFactors(a))

	// input left untouched
	assert.True(t, math.IsNaN(base[len(base)-1].MA5))
}
