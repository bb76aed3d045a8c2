package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/alphaselector/internal/contracts"
)

// ErrNotFound is returned when a stock has no stored bars
var ErrNotFound = errors.New("marketdata: not found")

// PriceRepository stores daily bars in data.daily_bars
// ⭐ SSOT: 日线存储只在这里
type PriceRepository struct {
	pool *pgxpool.Pool
}

var _ contracts.BarProvider = (*PriceRepository)(nil)

// NewPriceRepository creates a new price repository
func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

// FetchDailyBars returns stored bars for [start, end] in ascending date order
func (r *PriceRepository) FetchDailyBars(ctx context.Context, code string, start, end time.Time) (contracts.Series, error) {
	query := `
		SELECT trade_date, open_price, high_price, low_price, close_price, volume,
		       amount, amplitude, pct_change, change, turnover
		FROM data.daily_bars
		WHERE stock_code = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, code, dateOnly(start), dateOnly(end))
	if err != nil {
		return nil, fmt.Errorf("query daily bars %s: %w", code, err)
	}
	defer rows.Close()

	var series contracts.Series
	for rows.Next() {
		var b contracts.Bar
		if err := rows.Scan(
			&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume,
			&b.Amount, &b.Amplitude, &b.PctChange, &b.Change, &b.Turnover,
		); err != nil {
			return nil, fmt.Errorf("scan daily bar %s: %w", code, err)
		}
		series = append(series, b)
	}
	return series, rows.Err()
}

// LatestDate returns the most recent stored trade date of a stock
func (r *PriceRepository) LatestDate(ctx context.Context, code string) (time.Time, error) {
	query := `SELECT MAX(trade_date) FROM data.daily_bars WHERE stock_code = $1`

	var latest *time.Time
	if err := r.pool.QueryRow(ctx, query, code).Scan(&latest); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, ErrNotFound
		}
		return time.Time{}, fmt.Errorf("query latest date %s: %w", code, err)
	}
	if latest == nil {
		return time.Time{}, ErrNotFound
	}
	return *latest, nil
}

// SaveBatch upserts a stock's bars in one round trip
func (r *PriceRepository) SaveBatch(ctx context.Context, code string, series contracts.Series) error {
	if len(series) == 0 {
		return nil
	}

	query := `
		INSERT INTO data.daily_bars (
			stock_code, trade_date, open_price, high_price, low_price, close_price, volume,
			amount, amplitude, pct_change, change, turnover, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
		ON CONFLICT (stock_code, trade_date) DO UPDATE SET
			open_price = EXCLUDED.open_price,
			high_price = EXCLUDED.high_price,
			low_price = EXCLUDED.low_price,
			close_price = EXCLUDED.close_price,
			volume = EXCLUDED.volume,
			amount = EXCLUDED.amount,
			amplitude = EXCLUDED.amplitude,
			pct_change = EXCLUDED.pct_change,
			change = EXCLUDED.change,
			turnover = EXCLUDED.turnover,
			updated_at = NOW()
	`

	batch := &pgx.Batch{}
	for _, b := range series {
		batch.Queue(query,
			code, dateOnly(b.Date), b.Open, b.High, b.Low, b.Close, b.Volume,
			zeroIfNaN(b.Amount), zeroIfNaN(b.Amplitude), zeroIfNaN(b.PctChange),
			zeroIfNaN(b.Change), zeroIfNaN(b.Turnover),
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range series {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upsert daily bars %s: %w", code, err)
		}
	}
	return nil
}

// Coverage summarizes how many stored stocks have a bar on one trading day
type Coverage struct {
	Date    time.Time `json:"date"`
	Stocks  int       `json:"stocks"`  // distinct stocks stored
	Covered int       `json:"covered"` // stocks with a bar on Date
	Bars    int64     `json:"bars"`
}

// Ratio is Covered / Stocks (0 when nothing is stored)
func (c Coverage) Ratio() float64 {
	if c.Stocks == 0 {
		return 0
	}
	return float64(c.Covered) / float64(c.Stocks)
}

// Coverage reports bar coverage for date; a zero date means the latest stored day
func (r *PriceRepository) Coverage(ctx context.Context, date time.Time) (Coverage, error) {
	var (
		cov    Coverage
		latest *time.Time
	)
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT stock_code), MAX(trade_date)
		FROM data.daily_bars
	`).Scan(&cov.Bars, &cov.Stocks, &latest)
	if err != nil {
		return Coverage{}, fmt.Errorf("count daily bars: %w", err)
	}
	if latest == nil {
		return cov, nil
	}

	cov.Date = dateOnly(date)
	if date.IsZero() {
		cov.Date = dateOnly(*latest)
	}
	err = r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM data.daily_bars WHERE trade_date = $1
	`, cov.Date).Scan(&cov.Covered)
	if err != nil {
		return Coverage{}, fmt.Errorf("count covered stocks: %w", err)
	}
	return cov, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func zeroIfNaN(v float64) float64 {
	if !contracts.Defined(v) {
		return 0
	}
	return v
}
