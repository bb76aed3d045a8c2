package marketdata

import (
	"context"
	"errors"
	"time"

	"github.com/wonny/alphaselector/internal/contracts"
	"github.com/wonny/alphaselector/pkg/logger"
)

// Fallback tries bar providers in order; the first non-empty series wins
type Fallback struct {
	providers []contracts.BarProvider
	logger    *logger.Logger
}

var _ contracts.BarProvider = (*Fallback)(nil)

// NewFallback creates a provider chain
func NewFallback(log *logger.Logger, providers ...contracts.BarProvider) *Fallback {
	if log == nil {
		log = logger.NewNop()
	}
	return &Fallback{providers: providers, logger: log}
}

// FetchDailyBars returns the first non-empty series. When every provider
// fails the errors are joined; when some merely had no data the result is empty.
func (f *Fallback) FetchDailyBars(ctx context.Context, code string, start, end time.Time) (contracts.Series, error) {
	var errs []error
	for i, p := range f.providers {
		series, err := p.FetchDailyBars(ctx, code, start, end)
		if err != nil {
			f.logger.WithError(err).WithFields(map[string]interface{}{
				"stock_code": code,
				"provider":   i,
			}).Debug("Bar provider failed, trying next")
			errs = append(errs, err)
			continue
		}
		if len(series) > 0 {
			return series, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	if len(errs) == len(f.providers) && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return contracts.Series{}, nil
}
