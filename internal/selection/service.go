package selection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/alphaselector/internal/contracts"
	"github.com/wonny/alphaselector/internal/strategy"
	"github.com/wonny/alphaselector/pkg/config"
	"github.com/wonny/alphaselector/pkg/logger"
)

// ErrRunInProgress is returned when a run is requested while another is active
var ErrRunInProgress = errors.New("selection run already in progress")

// Service runs selections by strategy name and publishes successful reports
type Service struct {
	runner     *Runner
	registry   *strategy.Registry
	store      *ReportStore
	configHash string
	running    sync.Mutex
	logger     *logger.Logger
}

// NewService wires a runner, the available strategies and a report store
func NewService(runner *Runner, registry *strategy.Registry, store *ReportStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		runner:   runner,
		registry: registry,
		store:    store,
		logger:   log,
	}
}

// WithConfigHash stamps reports with the strategy file hash
func (s *Service) WithConfigHash(hash string) *Service {
	s.configHash = hash
	return s
}

// Registry returns the available strategies
func (s *Service) Registry() *strategy.Registry {
	return s.registry
}

// Store returns the report store
func (s *Service) Store() *ReportStore {
	return s.store
}

// RunOptions overrides the runner defaults for one run; zero values keep them
type RunOptions struct {
	Strategies []string // empty = every registered strategy
	Start      time.Time
	End        time.Time
	Limit      int
}

// Run selects the requested strategies, runs them and publishes the report
func (s *Service) Run(ctx context.Context, opts RunOptions) (*contracts.Report, error) {
	strategies, err := s.registry.Select(opts.Strategies)
	if err != nil {
		return nil, err
	}

	cfg := s.runner.Config()
	if !opts.Start.IsZero() {
		cfg.Start = opts.Start
	}
	if !opts.End.IsZero() {
		cfg.End = opts.End
	}
	if opts.Limit > 0 {
		cfg.UniverseLimit = opts.Limit
	}
	if cfg.End.Before(cfg.Start) {
		return nil, fmt.Errorf("end date %s is before start date %s",
			cfg.End.Format(config.DateLayout), cfg.Start.Format(config.DateLayout))
	}

	if !s.running.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.running.Unlock()

	report, err := s.runner.With(cfg).Run(ctx, strategies)
	report.ConfigHash = s.configHash
	if err != nil {
		return report, err
	}

	s.store.Publish(report)
	return report, nil
}
