package selection

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/alphaselector/internal/contracts"
	"github.com/wonny/alphaselector/internal/factor"
	"github.com/wonny/alphaselector/internal/strategy"
	"github.com/wonny/alphaselector/pkg/config"
	"github.com/wonny/alphaselector/pkg/logger"
)

// Dependencies are the collaborators a run consumes. Hot may be nil.
type Dependencies struct {
	Universe contracts.UniverseProvider
	Bars     contracts.BarProvider
	Industry contracts.IndustryClassifier
	Hot      contracts.HotSectorProvider
}

// Config controls one selection run
type Config struct {
	Criteria      contracts.UniverseCriteria
	Start         time.Time
	End           time.Time
	UniverseLimit int // 0 = whole universe
	MinBars       int
	Concurrency   int
	FetchTimeout  time.Duration // 0 = no per-fetch timeout
	HotSectorTopK int
}

// DefaultConfig returns the standard screening parameters for [start, end]
func DefaultConfig(start, end time.Time) Config {
	return Config{
		Criteria: contracts.UniverseCriteria{
			BoardPrefixes:       []string{"00", "60"},
			ExcludeST:           true,
			MinFloatMarketValue: 3e9,
		},
		Start:         start,
		End:           end,
		UniverseLimit: 50,
		MinBars:       20,
		Concurrency:   8,
		FetchTimeout:  15 * time.Second,
		HotSectorTopK: 3,
	}
}

// NewConfig maps application settings onto a run config
func NewConfig(sc config.SelectionConfig) Config {
	return Config{
		Criteria: contracts.UniverseCriteria{
			BoardPrefixes:       sc.BoardPrefixes,
			ExcludeST:           sc.ExcludeST,
			MinFloatMarketValue: sc.MinMarketValue,
		},
		Start:         sc.Start(),
		End:           sc.End(),
		UniverseLimit: sc.UniverseLimit,
		MinBars:       sc.MinBars,
		Concurrency:   sc.Concurrency,
		FetchTimeout:  sc.FetchTimeout,
		HotSectorTopK: sc.HotSectorTopK,
	}
}

// Outcome is what happened to one stock during a run
type Outcome int

const (
	OutcomeNotRun Outcome = iota // not scheduled, run cancelled first
	OutcomeEvaluated
	OutcomeFetchFailed
	OutcomeInsufficientHistory
)

func (o Outcome) String() string {
	switch o {
	case OutcomeEvaluated:
		return "evaluated"
	case OutcomeFetchFailed:
		return "fetch_failed"
	case OutcomeInsufficientHistory:
		return "insufficient_history"
	default:
		return "not_run"
	}
}

// Evaluation is the per-stock result of a run
type Evaluation struct {
	Stock   contracts.Stock
	Outcome Outcome
	Bars    int
	// Results is indexed like the strategies passed in; nil means not fired
	Results []*contracts.SelectionResult
}

// Runner screens a universe against a list of strategies
// ⭐ SSOT: 选股流程编排只在这里
type Runner struct {
	deps   Dependencies
	cfg    Config
	engine *factor.Engine
	logger *logger.Logger
}

// NewRunner creates a runner
func NewRunner(deps Dependencies, cfg Config, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Runner{
		deps:   deps,
		cfg:    cfg,
		engine: factor.NewEngine(log),
		logger: log,
	}
}

// Config returns the run configuration
func (r *Runner) Config() Config {
	return r.cfg
}

// With returns a copy of the runner using cfg
func (r *Runner) With(cfg Config) *Runner {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	c := *r
	c.cfg = cfg
	return &c
}

// Run screens the universe. The only error is a failure to list the
// universe, in which case the returned report is empty.
func (r *Runner) Run(ctx context.Context, strategies []strategy.Strategy) (*contracts.Report, error) {
	report := &contracts.Report{
		RunID:      uuid.NewString(),
		StartDate:  r.cfg.Start.Format(config.DateLayout),
		EndDate:    r.cfg.End.Format(config.DateLayout),
		StartedAt:  time.Now(),
		HotSectors: []string{},
		Strategies: make([]string, len(strategies)),
		Results:    []contracts.SelectionResult{},
	}
	for i, s := range strategies {
		report.Strategies[i] = s.Name()
	}
	log := r.logger.WithField("run_id", report.RunID)

	stocks, err := r.deps.Universe.ListUniverse(ctx, r.cfg.Criteria)
	if err != nil {
		report.Summaries = Summarize(nil, report.Strategies)
		report.FinishedAt = time.Now()
		log.WithError(err).Error("Failed to list universe, aborting run")
		return report, fmt.Errorf("list universe: %w", err)
	}
	if r.cfg.UniverseLimit > 0 && len(stocks) > r.cfg.UniverseLimit {
		stocks = stocks[:r.cfg.UniverseLimit]
	}
	report.UniverseSize = len(stocks)

	report.HotSectors = r.hotSectors(ctx, log)

	log.WithFields(map[string]interface{}{
		"stocks":      len(stocks),
		"strategies":  report.Strategies,
		"hot_sectors": report.HotSectors,
		"workers":     r.cfg.Concurrency,
	}).Info("Starting selection run")

	evals := r.evaluateAll(ctx, stocks, strategies, report.HotSectors)

	for _, ev := range evals {
		switch ev.Outcome {
		case OutcomeEvaluated:
			report.Evaluated++
		case OutcomeFetchFailed, OutcomeInsufficientHistory:
			report.Skipped++
		}
	}

	report.Results = Merge(evals, len(strategies))
	report.Summaries = Summarize(report.Results, report.Strategies)
	report.FinishedAt = time.Now()

	for _, sum := range report.Summaries {
		log.WithFields(map[string]interface{}{
			"strategy":   sum.Strategy,
			"count":      sum.Count,
			"mean_score": sum.MeanScore,
		}).Infof("%s 选出 %d 只", strategy.Title(sum.Strategy), sum.Count)
	}
	log.WithFields(map[string]interface{}{
		"evaluated": report.Evaluated,
		"skipped":   report.Skipped,
		"results":   len(report.Results),
		"duration":  report.FinishedAt.Sub(report.StartedAt).String(),
	}).Info("Selection run completed")

	return report, nil
}

// evaluateAll runs one task per stock on a bounded pool; each task writes only its own slot
func (r *Runner) evaluateAll(ctx context.Context, stocks []contracts.Stock, strategies []strategy.Strategy, hot []string) []Evaluation {
	evals := make([]Evaluation, len(stocks))
	for i, s := range stocks {
		evals[i] = Evaluation{Stock: s}
	}

	var g errgroup.Group
	g.SetLimit(r.cfg.Concurrency)

	for i := range stocks {
		if ctx.Err() != nil {
			r.logger.WithField("remaining", len(stocks)-i).Warn("Run cancelled, remaining stocks not scheduled")
			break
		}
		g.Go(func() error {
			evals[i] = r.Evaluate(ctx, stocks[i], strategies, hot)
			return nil
		})
	}
	_ = g.Wait()

	return evals
}

// Evaluate fetches one stock's bars and runs every strategy over its factors
func (r *Runner) Evaluate(ctx context.Context, stock contracts.Stock, strategies []strategy.Strategy, hot []string) Evaluation {
	ev := Evaluation{Stock: stock, Results: make([]*contracts.SelectionResult, len(strategies))}
	log := r.logger.WithField("code", stock.Code)

	series, err := r.fetch(ctx, stock.Code)
	if err != nil {
		log.WithError(err).Warn("Bar fetch failed, skipping stock")
		ev.Outcome = OutcomeFetchFailed
		return ev
	}
	ev.Bars = len(series)
	if len(series) < r.cfg.MinBars {
		log.WithFields(map[string]interface{}{
			"bars":     len(series),
			"min_bars": r.cfg.MinBars,
		}).Debug("Insufficient history, skipping stock")
		ev.Outcome = OutcomeInsufficientHistory
		return ev
	}
	ev.Outcome = OutcomeEvaluated

	fs := r.engine.ComputeFactors(series)
	last := fs.Last()

	var industry string
	for i, s := range strategies {
		if !s.Condition(fs) {
			continue
		}
		score := s.Score(fs)
		if !contracts.Defined(score) {
			log.WithField("strategy", s.Name()).Warn("Strategy fired with undefined score, dropping signal")
			continue
		}
		if industry == "" {
			industry = r.classify(ctx, stock.Code)
		}

		ev.Results[i] = &contracts.SelectionResult{
			Code:     stock.Code,
			Name:     stock.Name,
			Industry: industry,
			Strategy: s.Name(),
			Score:    contracts.Round(score, 3),
			Price:    contracts.Round(last.Close, 2),
			Hot:      IsHot(stock, industry, hot),
		}
		log.WithFields(map[string]interface{}{
			"strategy": s.Name(),
			"score":    ev.Results[i].Score,
		}).Debug("Strategy fired")
	}

	return ev
}

func (r *Runner) fetch(ctx context.Context, code string) (contracts.Series, error) {
	if r.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.FetchTimeout)
		defer cancel()
	}
	series, err := r.deps.Bars.FetchDailyBars(ctx, code, r.cfg.Start, r.cfg.End)
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return series, nil
}

func (r *Runner) classify(ctx context.Context, code string) string {
	if r.deps.Industry == nil {
		return contracts.UnknownIndustry
	}
	industry := r.deps.Industry.ClassifyIndustry(ctx, code)
	if industry == "" {
		return contracts.UnknownIndustry
	}
	return industry
}

func (r *Runner) hotSectors(ctx context.Context, log *logger.Logger) []string {
	if r.deps.Hot == nil || r.cfg.HotSectorTopK <= 0 {
		return []string{}
	}
	hot, err := r.deps.Hot.HotSectors(ctx, r.cfg.HotSectorTopK)
	if err != nil {
		log.WithError(err).Warn("Hot sector lookup failed, continuing without hot sectors")
		return []string{}
	}
	if hot == nil {
		return []string{}
	}
	return hot
}
