package marketdata

import (
	"context"
	"time"

	"github.com/wonny/alphaselector/internal/contracts"
	"github.com/wonny/alphaselector/pkg/config"
	"github.com/wonny/alphaselector/pkg/logger"
	"github.com/wonny/alphaselector/pkg/redis"
)

// Cache is the JSON cache the decorators read through (*redis.Cache)
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, fn func() (interface{}, error)) error
}

// CachedBars caches a BarProvider's non-empty series for a day
type CachedBars struct {
	next   contracts.BarProvider
	cache  Cache
	logger *logger.Logger
}

var _ contracts.BarProvider = (*CachedBars)(nil)

// NewCachedBars wraps next with a read-through cache
func NewCachedBars(next contracts.BarProvider, cache Cache, log *logger.Logger) *CachedBars {
	if log == nil {
		log = logger.NewNop()
	}
	return &CachedBars{next: next, cache: cache, logger: log}
}

// FetchDailyBars serves from cache, falling back to the wrapped provider
func (c *CachedBars) FetchDailyBars(ctx context.Context, code string, start, end time.Time) (contracts.Series, error) {
	key := redis.BarsKey(code, start.Format(config.DateLayout), end.Format(config.DateLayout))

	var cached contracts.Series
	if found, err := c.cache.Get(ctx, key, &cached); err != nil {
		c.logger.WithError(err).WithField("key", key).Debug("Bar cache read failed")
	} else if found && len(cached) > 0 {
		return cached, nil
	}

	series, err := c.next.FetchDailyBars(ctx, code, start, end)
	if err != nil || len(series) == 0 {
		return series, err
	}

	if err := c.cache.Set(ctx, key, series, redis.TTLDaily); err != nil {
		c.logger.WithError(err).WithField("key", key).Debug("Bar cache write failed")
	}
	return series, nil
}

// CachedIndustry caches resolved industries; 未知 is never cached
type CachedIndustry struct {
	next   contracts.IndustryClassifier
	cache  Cache
	logger *logger.Logger
}

var _ contracts.IndustryClassifier = (*CachedIndustry)(nil)

// NewCachedIndustry wraps next with a read-through cache
func NewCachedIndustry(next contracts.IndustryClassifier, cache Cache, log *logger.Logger) *CachedIndustry {
	if log == nil {
		log = logger.NewNop()
	}
	return &CachedIndustry{next: next, cache: cache, logger: log}
}

// ClassifyIndustry serves from cache, falling back to the wrapped classifier
func (c *CachedIndustry) ClassifyIndustry(ctx context.Context, code string) string {
	key := redis.IndustryKey(code)

	var industry string
	if found, err := c.cache.Get(ctx, key, &industry); err == nil && found && industry != "" {
		return industry
	}

	industry = c.next.ClassifyIndustry(ctx, code)
	if industry == "" || industry == contracts.UnknownIndustry {
		return contracts.UnknownIndustry
	}

	if err := c.cache.Set(ctx, key, industry, redis.TTLMedium); err != nil {
		c.logger.WithError(err).WithField("key", key).Debug("Industry cache write failed")
	}
	return industry
}

// CachedHot caches a hot sector list per source, day and K
type CachedHot struct {
	next   contracts.HotSectorProvider
	cache  Cache
	source string
	now    func() time.Time
}

var _ contracts.HotSectorProvider = (*CachedHot)(nil)

// NewCachedHot wraps next; source names the provider in the cache key
func NewCachedHot(next contracts.HotSectorProvider, cache Cache, source string) *CachedHot {
	return &CachedHot{next: next, cache: cache, source: source, now: time.Now}
}

// HotSectors serves from cache for a short while; failures are not cached
func (c *CachedHot) HotSectors(ctx context.Context, topK int) ([]string, error) {
	key := redis.HotSectorsKey(c.source, c.now().Format(config.DateLayout), topK)

	var hot []string
	err := c.cache.GetOrSet(ctx, key, &hot, redis.TTLShort, func() (interface{}, error) {
		return c.next.HotSectors(ctx, topK)
	})
	if err != nil {
		return nil, err
	}
	return hot, nil
}
