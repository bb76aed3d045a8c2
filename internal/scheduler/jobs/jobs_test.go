package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/alphaselector/internal/contracts"
	"github.com/wonny/alphaselector/internal/marketdata"
	"github.com/wonny/alphaselector/internal/selection"
	"github.com/wonny/alphaselector/internal/strategy"
)

type stubUniverse struct {
	stocks []contracts.Stock
	err    error
}

func (u stubUniverse) ListUniverse(context.Context, contracts.UniverseCriteria) ([]contracts.Stock, error) {
	return u.stocks, u.err
}

type stubBars struct {
	err   error
	start time.Time
	end   time.Time
}

func (b *stubBars) FetchDailyBars(_ context.Context, _ string, start, end time.Time) (contracts.Series, error) {
	b.start, b.end = start, end
	return nil, b.err
}

type stubStore struct{}

func (stubStore) LatestDate(context.Context, string) (time.Time, error) {
	return time.Time{}, marketdata.ErrNotFound
}

func (stubStore) SaveBatch(context.Context, string, contracts.Series) error { return nil }

var runDay = time.Date(2025, 6, 13, 15, 30, 0, 0, time.Local)

func newService(u stubUniverse, b *stubBars) *selection.Service {
	cfg := selection.DefaultConfig(time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local), time.Date(2025, 1, 31, 0, 0, 0, 0, time.Local))
	runner := selection.NewRunner(selection.Dependencies{Universe: u, Bars: b}, cfg, nil)
	reg := strategy.NewRegistry(strategy.Defaults(strategy.DefaultThresholds())...)
	return selection.NewService(runner, reg, selection.NewReportStore(), nil)
}

func TestSelectionJob_Run(t *testing.T) {
	bars := &stubBars{}
	svc := newService(stubUniverse{stocks: []contracts.Stock{{Code: "600519"}}}, bars)

	job := NewSelectionJob(svc, "0 30 15 * * 1-5", []string{strategy.NameReversal}, nil)
	job.now = func() time.Time { return runDay }

	assert.Equal(t, "daily_selection", job.Name())
	assert.Equal(t, "0 30 15 * * 1-5", job.Schedule())
	require.NoError(t, job.Run(context.Background()))

	report, ok := svc.Store().Latest()
	require.True(t, ok)
	assert.Equal(t, []string{strategy.NameReversal}, report.Strategies)
	assert.Equal(t, "20250613", report.EndDate)
	assert.Equal(t, "20250101", report.StartDate)
	assert.Equal(t, 1, report.Skipped)
}

func TestSelectionJob_Lookback(t *testing.T) {
	bars := &stubBars{}
	svc := newService(stubUniverse{stocks: []contracts.Stock{{Code: "600519"}}}, bars)

	job := NewSelectionJob(svc, "@daily", nil, nil).WithLookback(90 * 24 * time.Hour)
	job.now = func() time.Time { return runDay }
	require.NoError(t, job.Run(context.Background()))

	assert.True(t, bars.start.Equal(runDay.Add(-90*24*time.Hour)))
	assert.True(t, bars.end.Equal(runDay))
}

func TestSelectionJob_UniverseFailure(t *testing.T) {
	svc := newService(stubUniverse{err: errors.New("down")}, &stubBars{})
	job := NewSelectionJob(svc, "@daily", nil, nil)

	assert.Error(t, job.Run(context.Background()))
	_, ok := svc.Store().Latest()
	assert.False(t, ok)
}

func TestCollectJob_Run(t *testing.T) {
	base := marketdata.CollectConfig{Start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local), Workers: 2}

	ok := marketdata.NewCollector(stubUniverse{stocks: []contracts.Stock{{Code: "600519"}}}, &stubBars{}, stubStore{}, nil)
	job := NewCollectJob(ok, "0 0 16 * * 1-5", base, nil)
	assert.Equal(t, "bar_collection", job.Name())
	assert.NoError(t, job.Run(context.Background()))

	failing := marketdata.NewCollector(stubUniverse{stocks: []contracts.Stock{{Code: "600519"}}}, &stubBars{err: errors.New("timeout")}, stubStore{}, nil)
	assert.Error(t, NewCollectJob(failing, "@daily", base, nil).Run(context.Background()))

	down := marketdata.NewCollector(stubUniverse{err: errors.New("down")}, &stubBars{}, stubStore{}, nil)
	assert.Error(t, NewCollectJob(down, "@daily", base, nil).Run(context.Background()))
}
