package contracts

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Bar is one daily OHLCV record (前复权)
// ⭐ SSOT: 日线数据结构
type Bar struct {
	Date      time.Time `json:"date"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	Amount    float64   `json:"amount"`
	Amplitude float64   `json:"amplitude"`
	PctChange float64   `json:"pct_change"` // percent, 2.5 means +2.5%
	Change    float64   `json:"change"`
	Turnover  float64   `json:"turnover"`
}

// Series is a daily bar history, ascending by date with unique dates
type Series []Bar

// Validate reports the first ordering violation in the series
func (s Series) Validate() error {
	for i := 1; i < len(s); i++ {
		if !s[i].Date.After(s[i-1].Date) {
			return fmt.Errorf("bar %d (%s) not after bar %d (%s)",
				i, s[i].Date.Format("2006-01-02"), i-1, s[i-1].Date.Format("2006-01-02"))
		}
	}
	return nil
}

// Last returns the most recent bar; ok is false for an empty series
func (s Series) Last() (Bar, bool) {
	if len(s) == 0 {
		return Bar{}, false
	}
	return s[len(s)-1], true
}

// FactorBar is a Bar plus the derived factor columns.
// Undefined factors are NaN; use Defined to test them.
// ⭐ SSOT: 因子列定义
type FactorBar struct {
	Bar

	MA5         float64 `json:"ma5"`
	MA10        float64 `json:"ma10"`
	RSI         float64 `json:"rsi"`
	MACD        float64 `json:"macd"`
	MACDSignal  float64 `json:"macd_signal"`
	MACDHist    float64 `json:"macd_hist"`
	High5D      float64 `json:"high_5d"`
	VolumeMA5   float64 `json:"volume_ma5"`
	VolumeRatio float64 `json:"volume_ratio"`
}

// NewFactorBar wraps a raw bar with every factor undefined
func NewFactorBar(b Bar) FactorBar {
	nan := math.NaN()
	return FactorBar{
		Bar:         b,
		MA5:         nan,
		MA10:        nan,
		RSI:         nan,
		MACD:        nan,
		MACDSignal:  nan,
		MACDHist:    nan,
		High5D:      nan,
		VolumeMA5:   nan,
		VolumeRatio: nan,
	}
}

// MarshalJSON encodes undefined factors as null
func (f FactorBar) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Bar
		MA5         *float64 `json:"ma5"`
		MA10        *float64 `json:"ma10"`
		RSI         *float64 `json:"rsi"`
		MACD        *float64 `json:"macd"`
		MACDSignal  *float64 `json:"macd_signal"`
		MACDHist    *float64 `json:"macd_hist"`
		High5D      *float64 `json:"high_5d"`
		VolumeMA5   *float64 `json:"volume_ma5"`
		VolumeRatio *float64 `json:"volume_ratio"`
	}{
		Bar:         f.Bar,
		MA5:         nullable(f.MA5),
		MA10:        nullable(f.MA10),
		RSI:         nullable(f.RSI),
		MACD:        nullable(f.MACD),
		MACDSignal:  nullable(f.MACDSignal),
		MACDHist:    nullable(f.MACDHist),
		High5D:      nullable(f.High5D),
		VolumeMA5:   nullable(f.VolumeMA5),
		VolumeRatio: nullable(f.VolumeRatio),
	})
}

func nullable(v float64) *float64 {
	if !Defined(v) {
		return nil
	}
	return &v
}

// FactorSeries is the FactorEngine output, aligned 1:1 with its input Series
type FactorSeries []FactorBar

// Last returns the most recent row; callers check Len first
func (fs FactorSeries) Last() FactorBar {
	return fs[len(fs)-1]
}

// Prev returns the row before the most recent one; callers check Len first
func (fs FactorSeries) Prev() FactorBar {
	return fs[len(fs)-2]
}

// Tail returns the last n rows (fewer if the series is shorter)
func (fs FactorSeries) Tail(n int) FactorSeries {
	if n >= len(fs) {
		return fs
	}
	return fs[len(fs)-n:]
}

// Bars strips the factor columns
func (fs FactorSeries) Bars() Series {
	out := make(Series, len(fs))
	for i, f := range fs {
		out[i] = f.Bar
	}
	return out
}

// Defined reports whether a factor value is present
func Defined(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// AllDefined reports whether every value is present
func AllDefined(values ...float64) bool {
	for _, v := range values {
		if !Defined(v) {
			return false
		}
	}
	return true
}
