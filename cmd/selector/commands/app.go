package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/alphaselector/internal/contracts"
	"github.com/wonny/alphaselector/internal/external/eastmoney"
	"github.com/wonny/alphaselector/internal/external/ths"
	"github.com/wonny/alphaselector/internal/marketdata"
	"github.com/wonny/alphaselector/internal/selection"
	"github.com/wonny/alphaselector/internal/strategy"
	"github.com/wonny/alphaselector/internal/strategyconfig"
	"github.com/wonny/alphaselector/pkg/config"
	"github.com/wonny/alphaselector/pkg/database"
	"github.com/wonny/alphaselector/pkg/httputil"
	"github.com/wonny/alphaselector/pkg/logger"
	"github.com/wonny/alphaselector/pkg/redis"
)

// app holds the wired dependencies shared by every command
// ⭐ SSOT: 依赖组装只在这里
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	db    *database.DB // nil when DATABASE_URL is not set
	redis *redis.Client

	eastmoney *eastmoney.Client
	ths       *ths.Client

	prices   *marketdata.PriceRepository // nil without a database
	bars     contracts.BarProvider
	industry contracts.IndustryClassifier
	hot      contracts.HotSectorProvider

	strategies *strategyconfig.Config
	registry   *strategy.Registry
	configHash string
}

// newApp loads config and connects the optional stores
func newApp(ctx context.Context) (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if env != "" {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if strategyFile != "" {
		cfg.StrategyConfigPath = strategyFile
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	a := &app{cfg: cfg, log: log}

	// 3. Strategy thresholds
	a.strategies, _, err = strategyconfig.Load(cfg.StrategyConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load strategy config: %w", err)
	}
	for _, w := range strategyconfig.Warn(a.strategies) {
		log.WithField("code", w.Code).Warn(w.Message)
	}
	if a.registry, err = a.strategies.Registry(); err != nil {
		return nil, fmt.Errorf("build strategy registry: %w", err)
	}
	if a.configHash, err = strategyconfig.Hash(a.strategies); err != nil {
		return nil, fmt.Errorf("hash strategy config: %w", err)
	}

	// 4. Optional stores
	a.db, err = database.New(ctx, cfg)
	switch {
	case errors.Is(err, database.ErrDisabled):
		log.Debug("Database disabled, bars are fetched live")
	case err != nil:
		return nil, fmt.Errorf("connect to database: %w", err)
	default:
		if err := a.db.EnsureSchema(ctx); err != nil {
			a.db.Close()
			return nil, err
		}
		a.prices = marketdata.NewPriceRepository(a.db.Pool)
		log.Info("Connected to database")
	}

	a.redis, err = redis.New(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	// 5. External clients, one HTTP client per upstream so each keeps its own rate
	limiter := redis.NewRateLimiter(a.redis, "ratelimit")
	emHTTP := newHTTPClient(log, cfg.Eastmoney.RatePerSec, limiter, redis.EastmoneyRateLimit, a.redis.Enabled()).
		WithHeader("Referer", "https://quote.eastmoney.com/")
	thsHTTP := newHTTPClient(log, cfg.THS.RatePerSec, limiter, redis.THSRateLimit, a.redis.Enabled()).
		WithHeader("Referer", cfg.THS.BaseURL)

	a.eastmoney = eastmoney.NewClient(emHTTP, cfg.Eastmoney, log)
	a.ths = ths.NewClient(thsHTTP, cfg.THS, log)

	// 6. Providers with cache in front
	cache := redis.NewCache(a.redis, "alphaselector")
	var source contracts.BarProvider = a.eastmoney
	if a.prices != nil {
		source = marketdata.NewFallback(log, a.prices, a.eastmoney)
	}
	a.bars = marketdata.NewCachedBars(source, cache, log)
	a.industry = marketdata.NewCachedIndustry(a.eastmoney, cache, log)

	switch cfg.Selection.HotSectorSource {
	case "industry":
		a.hot = marketdata.NewCachedHot(a.ths, cache, "ths_industry")
	case "concept":
		a.hot = marketdata.NewCachedHot(a.eastmoney.Concepts(), cache, "em_concept")
	}

	return a, nil
}

// newHTTPClient throttles locally at rps and, when shared, across processes via Redis
func newHTTPClient(log *logger.Logger, rps float64, limiter *redis.RateLimiter, rl redis.RateLimitConfig, shared bool) *httputil.Client {
	c := httputil.NewWithTimeout(log, 20*time.Second).
		WithRate(rps)
	if shared {
		if limit := int(rps); limit >= 1 {
			rl.Limit = limit
		}
		c = c.WithRateLimiter(limiter, rl)
	}
	return c
}

// service builds the selection service over the wired providers
func (a *app) service() *selection.Service {
	deps := selection.Dependencies{
		Universe: a.eastmoney,
		Bars:     a.bars,
		Industry: a.industry,
		Hot:      a.hot,
	}
	runner := selection.NewRunner(deps, selection.NewConfig(a.cfg.Selection), a.log)
	return selection.NewService(runner, a.registry, selection.NewReportStore(), a.log).
		WithConfigHash(a.configHash)
}

// collector builds the bar collector; it needs a database
func (a *app) collector() (*marketdata.Collector, error) {
	if a.prices == nil {
		return nil, database.ErrDisabled
	}
	return marketdata.NewCollector(a.eastmoney, a.eastmoney, a.prices, a.log), nil
}

// collectConfig is the default collection range from config
func (a *app) collectConfig() marketdata.CollectConfig {
	sc := a.cfg.Selection
	return marketdata.CollectConfig{
		Criteria: selection.NewConfig(sc).Criteria,
		Start:    sc.Start(),
		End:      sc.End(),
		Limit:    sc.UniverseLimit,
		Workers:  sc.Concurrency,
	}
}

// Close releases the stores
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

// parseDateFlag parses a YYYYMMDD flag value; empty keeps def
func parseDateFlag(name, value string, def time.Time) (time.Time, error) {
	if value == "" {
		return def, nil
	}
	t, err := time.ParseInLocation(config.DateLayout, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: expected YYYYMMDD, got %q", name, value)
	}
	return t, nil
}
