// Package strategy defines the stock selection rules evaluated over a
// FactorSeries and an ordered Registry to look them up by name.
package strategy

import (
	"fmt"

	"github.com/wonny/alphaselector/internal/contracts"
)

// Strategy decides whether a stock is selected and how strongly.
// Implementations are stateless and safe for concurrent use.
type Strategy interface {
	// Name returns the unique identifier used in reports.
	Name() string

	// Condition reports whether the rule fires on the most recent bar.
	// Short series and undefined factors never fire.
	Condition(fs contracts.FactorSeries) bool

	// Score ranks a fired signal; only meaningful when Condition is true.
	Score(fs contracts.FactorSeries) float64
}

// Describer is implemented by strategies that can explain their rule
type Describer interface {
	Describe() string
}

// Strategy names
const (
	NameTrendBreakout = "trend_breakout"
	NameReversal      = "reversal"
	NameMAGoldenCross = "ma_golden_cross"
)

var titles = map[string]string{
	NameTrendBreakout: "趋势突破",
	NameReversal:      "超跌反弹",
	NameMAGoldenCross: "均线金叉",
}

// Title returns the display title of a built-in strategy, or the name itself
func Title(name string) string {
	if t, ok := titles[name]; ok {
		return t
	}
	return name
}

// Names lists the built-in strategies in canonical order
func Names() []string {
	return []string{NameTrendBreakout, NameReversal, NameMAGoldenCross}
}

// Defaults returns the built-in strategies in canonical order
func Defaults(th Thresholds) []Strategy {
	return []Strategy{
		NewTrendBreakout(th.TrendBreakout),
		NewReversal(th.Reversal),
		NewMAGoldenCross(th.MAGoldenCross),
	}
}

// Registry holds strategies in registration order
type Registry struct {
	order      []string
	strategies map[string]Strategy
}

// NewRegistry creates a registry pre-populated with the given strategies
func NewRegistry(strategies ...Strategy) *Registry {
	r := &Registry{strategies: make(map[string]Strategy)}
	for _, s := range strategies {
		r.Register(s)
	}
	return r
}

// Register adds a strategy keyed by Name(); re-registering replaces it in place
func (r *Registry) Register(s Strategy) {
	if _, exists := r.strategies[s.Name()]; !exists {
		r.order = append(r.order, s.Name())
	}
	r.strategies[s.Name()] = s
}

// Get retrieves a strategy by name
func (r *Registry) Get(name string) (Strategy, bool) {
	s, ok := r.strategies[name]
	return s, ok
}

// List returns registered names in registration order
func (r *Registry) List() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// All returns registered strategies in registration order
func (r *Registry) All() []Strategy {
	out := make([]Strategy, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.strategies[name])
	}
	return out
}

// Select resolves names in the given order; an empty list selects everything
func (r *Registry) Select(names []string) ([]Strategy, error) {
	if len(names) == 0 {
		return r.All(), nil
	}

	seen := make(map[string]bool, len(names))
	out := make([]Strategy, 0, len(names))
	for _, name := range names {
		s, ok := r.strategies[name]
		if !ok {
			return nil, fmt.Errorf("unknown strategy %q (available: %v)", name, r.order)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, s)
	}
	return out, nil
}
