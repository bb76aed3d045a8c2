package contracts

import (
	"math"
	"sort"
	"strings"
)

// Sector heat weights
const (
	SectorPctWeight    = 0.6
	SectorInflowWeight = 0.4
)

// SectorFlow is one industry or concept board's daily move and money flow
type SectorFlow struct {
	Name      string  `json:"name"`
	PctChange float64 `json:"pct_change"` // percent
	NetInflow float64 `json:"net_inflow"` // 亿元 (1e8 yuan)
}

// Score is pct_change×0.6 + net_inflow(亿)×0.4
func (f SectorFlow) Score() float64 {
	return f.PctChange*SectorPctWeight + f.NetInflow*SectorInflowWeight
}

// TopSectors returns the names of the k highest-scoring sectors.
// Ties keep input order; undefined scores rank last.
func TopSectors(flows []SectorFlow, k int) []string {
	if k <= 0 || len(flows) == 0 {
		return []string{}
	}

	ranked := make([]SectorFlow, len(flows))
	copy(ranked, flows)
	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := ranked[i].Score(), ranked[j].Score()
		if math.IsNaN(sj) {
			return !math.IsNaN(si)
		}
		return si > sj
	})

	if k > len(ranked) {
		k = len(ranked)
	}
	out := make([]string, 0, k)
	for _, f := range ranked[:k] {
		out = append(out, f.Name)
	}
	return out
}

// Accept reports whether a listed security passes the universe filters
func (c UniverseCriteria) Accept(code, name string, floatMarketValue float64) bool {
	if len(c.BoardPrefixes) > 0 {
		matched := false
		for _, p := range c.BoardPrefixes {
			if strings.HasPrefix(code, p) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if c.ExcludeST && strings.Contains(strings.ToUpper(name), "ST") {
		return false
	}
	return floatMarketValue >= c.MinFloatMarketValue
}
