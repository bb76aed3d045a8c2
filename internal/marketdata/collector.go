package marketdata

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/alphaselector/internal/contracts"
	"github.com/wonny/alphaselector/pkg/config"
	"github.com/wonny/alphaselector/pkg/logger"
)

// BarStore is where the collector writes (PriceRepository)
type BarStore interface {
	LatestDate(ctx context.Context, code string) (time.Time, error)
	SaveBatch(ctx context.Context, code string, series contracts.Series) error
}

// CollectConfig controls one collection pass
type CollectConfig struct {
	Criteria contracts.UniverseCriteria
	Start    time.Time
	End      time.Time
	Limit    int // 0 = whole universe
	Workers  int
}

// CollectSummary counts the outcome of a collection pass
type CollectSummary struct {
	Stocks   int
	Updated  int
	UpToDate int
	Failed   int
	Bars     int64
}

// Collector syncs daily bars from a source into the store
// ⭐ SSOT: 日线同步只在这里
type Collector struct {
	universe contracts.UniverseProvider
	source   contracts.BarProvider
	store    BarStore
	logger   *logger.Logger
}

// NewCollector creates a new Collector instance
func NewCollector(universe contracts.UniverseProvider, source contracts.BarProvider, store BarStore, log *logger.Logger) *Collector {
	if log == nil {
		log = logger.NewNop()
	}
	return &Collector{
		universe: universe,
		source:   source,
		store:    store,
		logger:   log.WithField("module", "collector"),
	}
}

// Collect fetches each stock's missing bars and upserts them.
// Per-stock failures are counted; only a universe failure is returned.
func (c *Collector) Collect(ctx context.Context, cfg CollectConfig) (CollectSummary, error) {
	stocks, err := c.universe.ListUniverse(ctx, cfg.Criteria)
	if err != nil {
		return CollectSummary{}, fmt.Errorf("list universe: %w", err)
	}
	if cfg.Limit > 0 && len(stocks) > cfg.Limit {
		stocks = stocks[:cfg.Limit]
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	c.logger.WithFields(map[string]interface{}{
		"stock_count": len(stocks),
		"from":        cfg.Start.Format(config.DateLayout),
		"to":          cfg.End.Format(config.DateLayout),
		"workers":     workers,
	}).Info("Starting bar collection")

	var updated, upToDate, failed int32
	var bars int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, stock := range stocks {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			n, err := c.collectOne(gctx, stock.Code, cfg.Start, cfg.End)
			switch {
			case err != nil:
				atomic.AddInt32(&failed, 1)
				c.logger.WithError(err).WithField("stock_code", stock.Code).Warn("Failed to collect bars")
			case n == 0:
				atomic.AddInt32(&upToDate, 1)
			default:
				atomic.AddInt32(&updated, 1)
				atomic.AddInt64(&bars, int64(n))
			}
			return nil
		})
	}
	_ = g.Wait()

	summary := CollectSummary{
		Stocks:   len(stocks),
		Updated:  int(updated),
		UpToDate: int(upToDate),
		Failed:   int(failed),
		Bars:     bars,
	}
	c.logger.WithFields(map[string]interface{}{
		"updated":    summary.Updated,
		"up_to_date": summary.UpToDate,
		"failed":     summary.Failed,
		"bars":       summary.Bars,
	}).Info("Bar collection completed")

	return summary, ctx.Err()
}

// collectOne fetches from the day after the latest stored bar
func (c *Collector) collectOne(ctx context.Context, code string, start, end time.Time) (int, error) {
	from, end := dateOnly(start), dateOnly(end)
	latest, err := c.store.LatestDate(ctx, code)
	switch {
	case err == nil:
		if next := dateOnly(latest).AddDate(0, 0, 1); next.After(from) {
			from = next
		}
	case !errors.Is(err, ErrNotFound):
		return 0, err
	}
	if from.After(end) {
		return 0, nil
	}

	series, err := c.source.FetchDailyBars(ctx, code, from, end)
	if err != nil {
		return 0, err
	}
	if err := c.store.SaveBatch(ctx, code, series); err != nil {
		return 0, err
	}
	return len(series), nil
}
