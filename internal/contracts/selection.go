package contracts

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// UnknownIndustry is returned when a stock's industry cannot be resolved
const UnknownIndustry = "未知"

// Stock identifies one A-share security
type Stock struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// SelectionResult is one (stock, strategy) signal
// ⭐ SSOT: 选股结果 (代码/名称/行业/策略/评分/股价/热点)
type SelectionResult struct {
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	Industry string  `json:"industry"`
	Strategy string  `json:"strategy"`
	Score    float64 `json:"score"` // 3 decimals
	Price    float64 `json:"price"` // last close, 2 decimals
	Hot      bool    `json:"hot"`
}

// StrategySummary aggregates one strategy's results
type StrategySummary struct {
	Strategy  string  `json:"strategy"`
	Count     int     `json:"count"`
	MeanScore float64 `json:"mean_score"` // 3 decimals, 0 when Count is 0
}

// Report is the output of one selection run
// ⭐ SSOT: 选股报告
type Report struct {
	RunID        string            `json:"run_id"`
	ConfigHash   string            `json:"config_hash,omitempty"`
	StartDate    string            `json:"start_date"`
	EndDate      string            `json:"end_date"`
	StartedAt    time.Time         `json:"started_at"`
	FinishedAt   time.Time         `json:"finished_at"`
	UniverseSize int               `json:"universe_size"`
	Evaluated    int               `json:"evaluated"`
	Skipped      int               `json:"skipped"`
	HotSectors   []string          `json:"hot_sectors"`
	Strategies   []string          `json:"strategies"`
	Results      []SelectionResult `json:"results"`
	Summaries    []StrategySummary `json:"summaries"`
}

// Empty reports whether no stock was selected
func (r *Report) Empty() bool {
	return len(r.Results) == 0
}

// ByStrategy returns the results of one strategy in report order
func (r *Report) ByStrategy(name string) []SelectionResult {
	var out []SelectionResult
	for _, res := range r.Results {
		if res.Strategy == name {
			out = append(out, res)
		}
	}
	return out
}

// Round rounds half away from zero to the given decimal places.
// Non-finite values are returned unchanged.
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// UniverseCriteria filters the listed universe
type UniverseCriteria struct {
	BoardPrefixes       []string // e.g. "00" (深主板), "60" (沪主板)
	ExcludeST           bool
	MinFloatMarketValue float64 // yuan
}
