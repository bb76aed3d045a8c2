package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/alphaselector/internal/selection"
	"github.com/wonny/alphaselector/pkg/logger"
)

// SelectionJob runs the daily screen after the close and publishes the report
// ⭐ SSOT: 定时选股只在这个 Job
type SelectionJob struct {
	service    *selection.Service
	schedule   string
	strategies []string
	lookback   time.Duration // 0 = configured start date
	now        func() time.Time
	logger     *logger.Logger
}

// NewSelectionJob creates a selection job; an empty strategy list runs all
func NewSelectionJob(svc *selection.Service, schedule string, strategies []string, log *logger.Logger) *SelectionJob {
	if log == nil {
		log = logger.NewNop()
	}
	return &SelectionJob{
		service:    svc,
		schedule:   schedule,
		strategies: strategies,
		now:        time.Now,
		logger:     log,
	}
}

// WithLookback screens [today - d, today] instead of the configured start date
func (j *SelectionJob) WithLookback(d time.Duration) *SelectionJob {
	j.lookback = d
	return j
}

// Name returns the job name
func (j *SelectionJob) Name() string {
	return "daily_selection"
}

// Schedule returns the cron schedule (weekdays after the A-share close)
func (j *SelectionJob) Schedule() string {
	return j.schedule
}

// Run executes one selection ending today
func (j *SelectionJob) Run(ctx context.Context) error {
	today := j.now()
	opts := selection.RunOptions{Strategies: j.strategies, End: today}
	if j.lookback > 0 {
		opts.Start = today.Add(-j.lookback)
	}

	report, err := j.service.Run(ctx, opts)
	if err != nil {
		return fmt.Errorf("selection run: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":    report.RunID,
		"results":   len(report.Results),
		"evaluated": report.Evaluated,
		"skipped":   report.Skipped,
	}).Info("Scheduled selection completed")
	return nil
}
