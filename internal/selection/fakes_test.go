package selection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wonny/alphaselector/internal/contracts"
)

var errUnavailable = errors.New("upstream unavailable")

type fakeUniverse struct {
	stocks []contracts.Stock
	err    error
	got    contracts.UniverseCriteria
}

func (f *fakeUniverse) ListUniverse(_ context.Context, c contracts.UniverseCriteria) ([]contracts.Stock, error) {
	f.got = c
	return f.stocks, f.err
}

type fakeBars struct {
	mu      sync.Mutex
	series  map[string]contracts.Series
	failing map[string]bool
	block   map[string]bool // wait for ctx cancellation
	calls   int32
}

func newFakeBars() *fakeBars {
	return &fakeBars{
		series:  make(map[string]contracts.Series),
		failing: make(map[string]bool),
		block:   make(map[string]bool),
	}
}

func (f *fakeBars) FetchDailyBars(ctx context.Context, code string, _, _ time.Time) (contracts.Series, error) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	s, fail, block := f.series[code], f.failing[code], f.block[code]
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if fail {
		return nil, fmt.Errorf("fetch %s: %w", code, errUnavailable)
	}
	return s, nil
}

type fakeIndustry struct {
	industries map[string]string
	calls      sync.Map // code -> *int32
}

func (f *fakeIndustry) ClassifyIndustry(_ context.Context, code string) string {
	n, _ := f.calls.LoadOrStore(code, new(int32))
	atomic.AddInt32(n.(*int32), 1)
	if ind, ok := f.industries[code]; ok {
		return ind
	}
	return contracts.UnknownIndustry
}

func (f *fakeIndustry) callsFor(code string) int32 {
	n, ok := f.calls.Load(code)
	if !ok {
		return 0
	}
	return atomic.LoadInt32(n.(*int32))
}

type fakeHot struct {
	names []string
	err   error
}

func (f *fakeHot) HotSectors(_ context.Context, topK int) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	if topK < len(f.names) {
		return f.names[:topK], nil
	}
	return f.names, nil
}

var barStart = time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

// breakoutSeries is flat at 10 with a last-bar jump to lastClose on 5x volume,
// which fires both trend_breakout and ma_golden_cross.
func breakoutSeries(n int, lastClose float64) contracts.Series {
	out := make(contracts.Series, n)
	for i := range out {
		c, v := 10.0, 100.0
		if i == n-1 {
			c, v = lastClose, 500
		}
		out[i] = contracts.Bar{
			Date: barStart.AddDate(0, 0, i), Open: c, High: c + 0.5, Low: c - 0.5, Close: c, Volume: v,
		}
	}
	return out
}

// quietSeries never fires any built-in strategy
func quietSeries(n int) contracts.Series {
	out := make(contracts.Series, n)
	for i := range out {
		out[i] = contracts.Bar{
			Date: barStart.AddDate(0, 0, i), Open: 10, High: 10.5, Low: 9.5, Close: 10, Volume: 100,
		}
	}
	return out
}
