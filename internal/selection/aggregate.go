package selection

import (
	"strings"

	"github.com/wonny/alphaselector/internal/contracts"
)

// Merge flattens per-stock evaluations into report order:
// strategies in the supplied order, stocks in universe order within a strategy.
func Merge(evals []Evaluation, strategies int) []contracts.SelectionResult {
	out := []contracts.SelectionResult{}
	for si := 0; si < strategies; si++ {
		for _, ev := range evals {
			if si < len(ev.Results) && ev.Results[si] != nil {
				out = append(out, *ev.Results[si])
			}
		}
	}
	return out
}

// Summarize counts results and averages their recorded scores per strategy.
// Every name in order gets a summary; a strategy with no results has count 0 and mean 0.
func Summarize(results []contracts.SelectionResult, order []string) []contracts.StrategySummary {
	type acc struct {
		count int
		sum   float64
	}
	byName := make(map[string]*acc, len(order))
	for _, name := range order {
		byName[name] = &acc{}
	}
	for _, res := range results {
		a, ok := byName[res.Strategy]
		if !ok {
			continue
		}
		a.count++
		a.sum += res.Score
	}

	out := make([]contracts.StrategySummary, 0, len(order))
	seen := make(map[string]bool, len(order))
	for _, name := range order {
		if seen[name] {
			continue
		}
		seen[name] = true
		a := byName[name]
		mean := 0.0
		if a.count > 0 {
			mean = contracts.Round(a.sum/float64(a.count), 3)
		}
		out = append(out, contracts.StrategySummary{Strategy: name, Count: a.count, MeanScore: mean})
	}
	return out
}

// IsHot reports whether any hot sector name occurs in the stock's display name or industry
func IsHot(stock contracts.Stock, industry string, hot []string) bool {
	for _, h := range hot {
		if h == "" {
			continue
		}
		if strings.Contains(stock.Name, h) || strings.Contains(industry, h) {
			return true
		}
	}
	return false
}
