package factor

import (
	"math"

	"github.com/markcheno/go-talib"
)

// rollingMean is the k-bar simple moving average; the first k-1 values are NaN
func rollingMean(in []float64, k int) []float64 {
	out := nanSlice(len(in))
	if k < 1 || len(in) < k {
		return out
	}
	sma := talib.Sma(in, k)
	copy(out[k-1:], sma[k-1:])
	return out
}

// rollingMax is the k-bar maximum including the current bar; the first k-1 values are NaN
func rollingMax(in []float64, k int) []float64 {
	out := nanSlice(len(in))
	if k < 1 || len(in) < k {
		return out
	}
	if k == 1 {
		copy(out, in)
		return out
	}
	mx := talib.Max(in, k)
	copy(out[k-1:], mx[k-1:])
	return out
}

// shift moves values n bars later; the first n values become NaN
func shift(in []float64, n int) []float64 {
	out := nanSlice(len(in))
	for i := n; i < len(in); i++ {
		out[i] = in[i-n]
	}
	return out
}

// ewmAdjusted is the exponentially weighted mean with α = 2/(span+1),
// weights normalised over all observations so far (defined from bar 0):
//
//	y_t = Σ (1-α)^i x_{t-i} / Σ (1-α)^i
//
// talib.Ema seeds with an SMA and leaves the first span-1 bars empty, which is
// a different series, so this one is computed directly.
func ewmAdjusted(in []float64, span int) []float64 {
	out := nanSlice(len(in))
	if span < 1 {
		return out
	}
	decay := 1 - 2/float64(span+1)
	var num, den float64
	for i, x := range in {
		num = x + decay*num
		den = 1 + decay*den
		out[i] = num / den
	}
	return out
}

// gainsLosses splits bar-to-bar changes; the first bar contributes 0 to both
func gainsLosses(closes []float64) (gains, losses []float64) {
	gains = make([]float64, len(closes))
	losses = make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else if delta < 0 {
			losses[i] = -delta
		}
	}
	return gains, losses
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
