package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/alphaselector/internal/marketdata"
	"github.com/wonny/alphaselector/pkg/logger"
)

// CollectJob syncs daily bars into Postgres
type CollectJob struct {
	collector *marketdata.Collector
	schedule  string
	base      marketdata.CollectConfig
	now       func() time.Time
	logger    *logger.Logger
}

// NewCollectJob creates a collect job; End of base is replaced by the run date
func NewCollectJob(c *marketdata.Collector, schedule string, base marketdata.CollectConfig, log *logger.Logger) *CollectJob {
	if log == nil {
		log = logger.NewNop()
	}
	return &CollectJob{
		collector: c,
		schedule:  schedule,
		base:      base,
		now:       time.Now,
		logger:    log,
	}
}

// Name returns the job name
func (j *CollectJob) Name() string {
	return "bar_collection"
}

// Schedule returns the cron schedule
func (j *CollectJob) Schedule() string {
	return j.schedule
}

// Run collects bars up to today; failing stocks are retried on the next run
func (j *CollectJob) Run(ctx context.Context) error {
	cfg := j.base
	cfg.End = j.now()

	summary, err := j.collector.Collect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("collect bars: %w", err)
	}
	if summary.Stocks > 0 && summary.Failed == summary.Stocks {
		return fmt.Errorf("collect bars: all %d stocks failed", summary.Stocks)
	}

	j.logger.WithFields(map[string]interface{}{
		"updated": summary.Updated,
		"failed":  summary.Failed,
	}).Info("Scheduled collection completed")
	return nil
}
