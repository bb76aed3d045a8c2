package marketdata

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/alphaselector/pkg/config"
	"github.com/wonny/alphaselector/pkg/database"
)

func setupRepository(t *testing.T) *PriceRepository {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	ctx := context.Background()
	db, err := database.New(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.EnsureSchema(ctx))

	t.Cleanup(func() {
		_, _ = db.Pool.Exec(context.Background(), `DELETE FROM data.daily_bars WHERE stock_code = '999999'`)
	})
	return NewPriceRepository(db.Pool)
}

func TestPriceRepository_RoundTrip(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()
	code := "999999"

	_, err := repo.LatestDate(ctx, code)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.SaveBatch(ctx, code, sampleSeries(3, 2)))
	updated := sampleSeries(3)
	updated[0].Close = 10.9
	require.NoError(t, repo.SaveBatch(ctx, code, updated))

	series, err := repo.FetchDailyBars(ctx, code, day(1), day(31))
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.True(t, series[0].Date.Before(series[1].Date))
	assert.Equal(t, 10.9, series[1].Close)
	assert.NoError(t, series.Validate())

	latest, err := repo.LatestDate(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, day(3).Format(config.DateLayout), latest.Format(config.DateLayout))
}

func TestPriceRepository_Coverage(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveBatch(ctx, "999999", sampleSeries(3)))

	cov, err := repo.Coverage(ctx, day(3))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, cov.Stocks, 1)
	assert.GreaterOrEqual(t, cov.Covered, 1)
	assert.GreaterOrEqual(t, cov.Bars, int64(1))
	assert.Greater(t, cov.Ratio(), 0.0)
}
