package factor

import (
	"fmt"

	"github.com/wonny/alphaselector/internal/contracts"
	"github.com/wonny/alphaselector/pkg/logger"
)

// Factor parameters
const (
	MAShort      = 5
	MALong       = 10
	RSIPeriod    = 6
	MACDFast     = 12
	MACDSlow     = 26
	MACDSignal   = 9
	HighWindow   = 5
	VolumeWindow = 5

	// Epsilon keeps RSI and volume ratio finite on flat or zero-volume windows
	Epsilon = 1e-6
)

// Engine derives technical and volume factors from daily bars
// ⭐ SSOT: 因子计算只在这里
type Engine struct {
	logger *logger.Logger
}

// NewEngine creates a factor engine
func NewEngine(log *logger.Logger) *Engine {
	if log == nil {
		log = logger.NewNop()
	}
	return &Engine{logger: log}
}

// ComputeFactors returns the series with every factor column attached.
// It never fails: an empty series or an internal failure yields the bars with
// all factors undefined.
func (e *Engine) ComputeFactors(series contracts.Series) (out contracts.FactorSeries) {
	base := wrap(series)
	if len(series) == 0 {
		e.logger.Warn("Empty series, no factors computed")
		return base
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.WithFields(map[string]interface{}{
				"bars":  len(series),
				"panic": fmt.Sprint(r),
			}).Warn("Factor computation failed, returning undefined factors")
			out = wrap(series)
		}
	}()

	return e.AddVolumePriceFactors(e.AddTechnicalFactors(base))
}

// AddTechnicalFactors returns a copy with ma5, ma10, rsi, macd, macd_signal,
// macd_hist and high_5d set. Only raw columns are read.
func (e *Engine) AddTechnicalFactors(fs contracts.FactorSeries) contracts.FactorSeries {
	out := clone(fs)
	if len(out) == 0 {
		return out
	}

	closes := column(out, func(b contracts.FactorBar) float64 { return b.Close })
	highs := column(out, func(b contracts.FactorBar) float64 { return b.High })

	ma5 := rollingMean(closes, MAShort)
	ma10 := rollingMean(closes, MALong)

	gains, losses := gainsLosses(closes)
	gainMA := rollingMean(gains, RSIPeriod)
	lossMA := rollingMean(losses, RSIPeriod)

	emaFast := ewmAdjusted(closes, MACDFast)
	emaSlow := ewmAdjusted(closes, MACDSlow)
	macd := make([]float64, len(closes))
	for i := range macd {
		macd[i] = emaFast[i] - emaSlow[i]
	}
	signal := ewmAdjusted(macd, MACDSignal)

	high5d := shift(rollingMax(highs, HighWindow), 1)

	for i := range out {
		out[i].MA5 = ma5[i]
		out[i].MA10 = ma10[i]
		out[i].RSI = 100 - 100/(1+gainMA[i]/(lossMA[i]+Epsilon))
		out[i].MACD = macd[i]
		out[i].MACDSignal = signal[i]
		out[i].MACDHist = macd[i] - signal[i]
		out[i].High5D = high5d[i]
	}

	e.logger.WithFields(map[string]interface{}{
		"bars": len(out),
		"ma5":  out[len(out)-1].MA5,
		"rsi":  out[len(out)-1].RSI,
	}).Debug("Computed technical factors")

	return out
}

// AddVolumePriceFactors returns a copy with volume_ma5 and volume_ratio set.
// Only raw columns are read.
func (e *Engine) AddVolumePriceFactors(fs contracts.FactorSeries) contracts.FactorSeries {
	out := clone(fs)
	if len(out) == 0 {
		return out
	}

	volumes := column(out, func(b contracts.FactorBar) float64 { return b.Volume })
	vma := rollingMean(volumes, VolumeWindow)

	for i := range out {
		out[i].VolumeMA5 = vma[i]
		out[i].VolumeRatio = volumes[i] / (vma[i] + Epsilon)
	}

	return out
}

// Wrap lifts raw bars into a FactorSeries with every factor undefined
func Wrap(series contracts.Series) contracts.FactorSeries {
	return wrap(series)
}

func wrap(series contracts.Series) contracts.FactorSeries {
	out := make(contracts.FactorSeries, len(series))
	for i, b := range series {
		out[i] = contracts.NewFactorBar(b)
	}
	return out
}

func clone(fs contracts.FactorSeries) contracts.FactorSeries {
	out := make(contracts.FactorSeries, len(fs))
	copy(out, fs)
	return out
}

func column(fs contracts.FactorSeries, get func(contracts.FactorBar) float64) []float64 {
	out := make([]float64, len(fs))
	for i, b := range fs {
		out[i] = get(b)
	}
	return out
}
