package selection

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/alphaselector/internal/contracts"
	"github.com/wonny/alphaselector/internal/strategy"
	"github.com/wonny/alphaselector/pkg/logger"
)

func testConfig() Config {
	cfg := DefaultConfig(barStart, barStart.AddDate(0, 3, 0))
	cfg.UniverseLimit = 0
	cfg.FetchTimeout = time.Second
	cfg.Concurrency = 4
	return cfg
}

func defaultStrategies() []strategy.Strategy {
	return strategy.Defaults(strategy.DefaultThresholds())
}

func newTestRunner(u *fakeUniverse, b *fakeBars, ind *fakeIndustry, hot *fakeHot, cfg Config) *Runner {
	deps := Dependencies{Universe: u, Bars: b, Industry: ind}
	if hot != nil {
		deps.Hot = hot
	}
	return NewRunner(deps, cfg, logger.NewNop())
}

func TestRun_MinimumHistory(t *testing.T) {
	u := &fakeUniverse{stocks: []contracts.Stock{{Code: "600019", Name: "宝钢股份"}, {Code: "600020", Name: "中原高速"}}}
	b := newFakeBars()
	b.series["600019"] = breakoutSeries(19, 12)
	b.series["600020"] = breakoutSeries(20, 12)

	r := newTestRunner(u, b, &fakeIndustry{}, nil, testConfig())
	report, err := r.Run(context.Background(), defaultStrategies())
	require.NoError(t, err)

	assert.Equal(t, 2, report.UniverseSize)
	assert.Equal(t, 1, report.Evaluated)
	assert.Equal(t, 1, report.Skipped)
	require.NotEmpty(t, report.Results)
	for _, res := range report.Results {
		assert.Equal(t, "600020", res.Code)
	}
}

func TestRun_ResultFields(t *testing.T) {
	u := &fakeUniverse{stocks: []contracts.Stock{{Code: "600519", Name: "贵州茅台"}}}
	b := newFakeBars()
	b.series["600519"] = breakoutSeries(30, 12.345)
	ind := &fakeIndustry{industries: map[string]string{"600519": "白酒"}}

	r := newTestRunner(u, b, ind, nil, testConfig())
	report, err := r.Run(context.Background(), []strategy.Strategy{
		strategy.NewTrendBreakout(strategy.DefaultThresholds().TrendBreakout),
	})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)

	res := report.Results[0]
	assert.Equal(t, "600519", res.Code)
	assert.Equal(t, "贵州茅台", res.Name)
	assert.Equal(t, "白酒", res.Industry)
	assert.Equal(t, strategy.NameTrendBreakout, res.Strategy)
	assert.Equal(t, 12.35, res.Price)
	assert.False(t, res.Hot)

	vr := 500 / ((400 + 500) / 5.0)
	ma5 := (40 + 12.345) / 5
	assert.InDelta(t, contracts.Round(vr*0.7+(12.345/ma5-1)*0.3, 3), res.Score, 1e-9)
	assert.Equal(t, res.Score, contracts.Round(res.Score, 3))

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "20250102", report.StartDate)
	assert.Equal(t, []contracts.StrategySummary{{Strategy: strategy.NameTrendBreakout, Count: 1, MeanScore: res.Score}}, report.Summaries)
	assert.Equal(t, []string{"00", "60"}, u.got.BoardPrefixes)
}

func TestRun_FetchFailureIsolated(t *testing.T) {
	var stocks []contracts.Stock
	b := newFakeBars()
	for i := 0; i < 50; i++ {
		code := fmt.Sprintf("6000%02d", i)
		stocks = append(stocks, contracts.Stock{Code: code, Name: "股票" + code})
		if i%3 == 0 {
			b.series[code] = quietSeries(40)
		} else {
			b.series[code] = breakoutSeries(40, 11+float64(i)/10)
		}
	}
	u := &fakeUniverse{stocks: stocks}
	cfg := testConfig()
	cfg.Concurrency = 8

	baseline, err := newTestRunner(u, b, &fakeIndustry{}, nil, cfg).Run(context.Background(), defaultStrategies())
	require.NoError(t, err)
	require.NotEmpty(t, baseline.Results)

	failed := "600017"
	b.failing[failed] = true
	degraded, err := newTestRunner(u, b, &fakeIndustry{}, nil, cfg).Run(context.Background(), defaultStrategies())
	require.NoError(t, err)

	var want []contracts.SelectionResult
	for _, res := range baseline.Results {
		if res.Code != failed {
			want = append(want, res)
		}
	}
	assert.Equal(t, want, degraded.Results)
	assert.Less(t, len(degraded.Results), len(baseline.Results))
	assert.Equal(t, 49, degraded.Evaluated)
	assert.Equal(t, 1, degraded.Skipped)
}

func TestRun_Deterministic(t *testing.T) {
	var stocks []contracts.Stock
	b := newFakeBars()
	for i := 0; i < 20; i++ {
		code := fmt.Sprintf("0000%02d", i)
		stocks = append(stocks, contracts.Stock{Code: code, Name: code})
		b.series[code] = breakoutSeries(25, 10.5+float64(i)/7)
	}
	u := &fakeUniverse{stocks: stocks}

	cfg := testConfig()
	cfg.Concurrency = 1
	serial, err := newTestRunner(u, b, &fakeIndustry{}, nil, cfg).Run(context.Background(), defaultStrategies())
	require.NoError(t, err)

	cfg.Concurrency = 16
	parallel, err := newTestRunner(u, b, &fakeIndustry{}, nil, cfg).Run(context.Background(), defaultStrategies())
	require.NoError(t, err)

	assert.Equal(t, serial.Results, parallel.Results)
	assert.Equal(t, serial.Summaries, parallel.Summaries)
}

func TestRun_ReportOrder(t *testing.T) {
	u := &fakeUniverse{stocks: []contracts.Stock{
		{Code: "600002", Name: "B"},
		{Code: "600001", Name: "A"},
		{Code: "600003", Name: "C"},
	}}
	b := newFakeBars()
	b.series["600002"] = breakoutSeries(30, 12)
	b.series["600001"] = breakoutSeries(30, 13)
	b.series["600003"] = quietSeries(30)

	th := strategy.DefaultThresholds()
	strategies := []strategy.Strategy{
		strategy.NewMAGoldenCross(th.MAGoldenCross),
		strategy.NewReversal(th.Reversal),
		strategy.NewTrendBreakout(th.TrendBreakout),
	}

	report, err := newTestRunner(u, b, &fakeIndustry{}, nil, testConfig()).Run(context.Background(), strategies)
	require.NoError(t, err)

	var got []string
	for _, res := range report.Results {
		got = append(got, res.Strategy+"/"+res.Code)
	}
	assert.Equal(t, []string{
		"ma_golden_cross/600002",
		"ma_golden_cross/600001",
		"trend_breakout/600002",
		"trend_breakout/600001",
	}, got)

	require.Len(t, report.Summaries, 3)
	assert.Equal(t, "ma_golden_cross", report.Summaries[0].Strategy)
	assert.Equal(t, contracts.StrategySummary{Strategy: "reversal"}, report.Summaries[1])
	assert.Equal(t, 2, report.Summaries[2].Count)
}

func TestRun_IndustryResolvedOncePerFiredStock(t *testing.T) {
	u := &fakeUniverse{stocks: []contracts.Stock{{Code: "600001", Name: "A"}, {Code: "600003", Name: "C"}}}
	b := newFakeBars()
	b.series["600001"] = breakoutSeries(30, 12) // fires two strategies
	b.series["600003"] = quietSeries(30)
	ind := &fakeIndustry{industries: map[string]string{"600001": "银行"}}

	report, err := newTestRunner(u, b, ind, nil, testConfig()).Run(context.Background(), defaultStrategies())
	require.NoError(t, err)
	require.Len(t, report.Results, 2)

	assert.Equal(t, int32(1), ind.callsFor("600001"))
	assert.Equal(t, int32(0), ind.callsFor("600003"))
	for _, res := range report.Results {
		assert.Equal(t, "银行", res.Industry)
	}
}

func TestRun_UnknownIndustryWithoutClassifier(t *testing.T) {
	u := &fakeUniverse{stocks: []contracts.Stock{{Code: "600001", Name: "A"}}}
	b := newFakeBars()
	b.series["600001"] = breakoutSeries(30, 12)

	r := NewRunner(Dependencies{Universe: u, Bars: b}, testConfig(), nil)
	report, err := r.Run(context.Background(), defaultStrategies())
	require.NoError(t, err)
	require.NotEmpty(t, report.Results)
	assert.Equal(t, contracts.UnknownIndustry, report.Results[0].Industry)
}

func TestRun_HotSectors(t *testing.T) {
	stocks := []contracts.Stock{{Code: "600001", Name: "光伏科技"}, {Code: "600002", Name: "某某银行"}, {Code: "600003", Name: "普通股份"}}
	ind := &fakeIndustry{industries: map[string]string{"600001": "电力设备", "600002": "银行", "600003": "半导体"}}
	b := newFakeBars()
	for _, s := range stocks {
		b.series[s.Code] = breakoutSeries(30, 12)
	}
	u := &fakeUniverse{stocks: stocks}
	only := []strategy.Strategy{strategy.NewTrendBreakout(strategy.DefaultThresholds().TrendBreakout)}

	t.Run("matches name or industry", func(t *testing.T) {
		hot := &fakeHot{names: []string{"光伏", "半导体", "", "白酒"}}
		report, err := newTestRunner(u, b, ind, hot, testConfig()).Run(context.Background(), only)
		require.NoError(t, err)

		assert.Equal(t, []string{"光伏", "半导体", ""}, report.HotSectors)
		require.Len(t, report.Results, 3)
		assert.True(t, report.Results[0].Hot)  // name contains 光伏
		assert.False(t, report.Results[1].Hot) // 银行 not hot
		assert.True(t, report.Results[2].Hot)  // industry 半导体
	})

	t.Run("lookup failure marks nothing hot", func(t *testing.T) {
		hot := &fakeHot{names: []string{"光伏"}, err: errUnavailable}
		report, err := newTestRunner(u, b, ind, hot, testConfig()).Run(context.Background(), only)
		require.NoError(t, err)

		assert.Empty(t, report.HotSectors)
		require.Len(t, report.Results, 3)
		for _, res := range report.Results {
			assert.False(t, res.Hot)
		}
	})
}

func TestRun_UniverseFailureIsFatal(t *testing.T) {
	u := &fakeUniverse{err: errUnavailable}
	b := newFakeBars()

	report, err := newTestRunner(u, b, &fakeIndustry{}, nil, testConfig()).Run(context.Background(), defaultStrategies())
	require.Error(t, err)
	assert.ErrorIs(t, err, errUnavailable)

	require.NotNil(t, report)
	assert.Empty(t, report.Results)
	assert.Zero(t, report.UniverseSize)
	assert.Len(t, report.Summaries, 3)
	assert.Equal(t, int32(0), atomic.LoadInt32(&b.calls))
}

func TestRun_UniverseLimit(t *testing.T) {
	var stocks []contracts.Stock
	b := newFakeBars()
	for i := 0; i < 10; i++ {
		code := fmt.Sprintf("6000%02d", i)
		stocks = append(stocks, contracts.Stock{Code: code})
		b.series[code] = quietSeries(30)
	}
	cfg := testConfig()
	cfg.UniverseLimit = 4

	report, err := newTestRunner(&fakeUniverse{stocks: stocks}, b, &fakeIndustry{}, nil, cfg).Run(context.Background(), defaultStrategies())
	require.NoError(t, err)
	assert.Equal(t, 4, report.UniverseSize)
	assert.Equal(t, int32(4), atomic.LoadInt32(&b.calls))
}

func TestRun_FetchTimeoutSkipsStock(t *testing.T) {
	u := &fakeUniverse{stocks: []contracts.Stock{{Code: "600001"}, {Code: "600002"}}}
	b := newFakeBars()
	b.block["600001"] = true
	b.series["600002"] = breakoutSeries(30, 12)

	cfg := testConfig()
	cfg.FetchTimeout = 20 * time.Millisecond

	report, err := newTestRunner(u, b, &fakeIndustry{}, nil, cfg).Run(context.Background(), defaultStrategies())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	require.NotEmpty(t, report.Results)
	for _, res := range report.Results {
		assert.Equal(t, "600002", res.Code)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	u := &fakeUniverse{stocks: []contracts.Stock{{Code: "600001"}, {Code: "600002"}}}
	b := newFakeBars()
	b.series["600001"] = breakoutSeries(30, 12)
	b.series["600002"] = breakoutSeries(30, 12)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := newTestRunner(u, b, &fakeIndustry{}, nil, testConfig()).Run(ctx, defaultStrategies())
	require.NoError(t, err)
	assert.Empty(t, report.Results)
	assert.Zero(t, report.Evaluated)
}

func TestEvaluate_Outcomes(t *testing.T) {
	b := newFakeBars()
	b.series["600001"] = quietSeries(25)
	b.series["600002"] = quietSeries(5)
	b.failing["600003"] = true

	r := newTestRunner(&fakeUniverse{}, b, &fakeIndustry{}, nil, testConfig())
	tests := []struct {
		code string
		want Outcome
		bars int
	}{
		{"600001", OutcomeEvaluated, 25},
		{"600002", OutcomeInsufficientHistory, 5},
		{"600003", OutcomeFetchFailed, 0},
		{"600004", OutcomeInsufficientHistory, 0}, // absent series
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			ev := r.Evaluate(context.Background(), contracts.Stock{Code: tt.code}, defaultStrategies(), nil)
			assert.Equal(t, tt.want, ev.Outcome, ev.Outcome.String())
			assert.Equal(t, tt.bars, ev.Bars)
			assert.Len(t, ev.Results, 3)
		})
	}
}
