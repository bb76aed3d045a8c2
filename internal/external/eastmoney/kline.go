package eastmoney

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/wonny/alphaselector/internal/contracts"
	"github.com/wonny/alphaselector/pkg/config"
)

const klineDateLayout = "2006-01-02"

// FetchDailyBars fetches forward-adjusted (前复权) daily bars for [start, end]
// ⭐ SSOT: 日线行情获取只在这个函数
func (c *Client) FetchDailyBars(ctx context.Context, code string, start, end time.Time) (contracts.Series, error) {
	params := url.Values{}
	params.Set("secid", SecID(code))
	params.Set("fields1", "f1,f2,f3,f4,f5,f6")
	params.Set("fields2", "f51,f52,f53,f54,f55,f56,f57,f58,f59,f60,f61")
	params.Set("klt", "101")
	params.Set("fqt", "1")
	params.Set("beg", start.Format(config.DateLayout))
	params.Set("end", end.Format(config.DateLayout))
	params.Set("lmt", "1000000")

	body, err := c.fetchJSON(ctx, c.cfg.KlineURL, params)
	if err != nil {
		return nil, fmt.Errorf("fetch klines %s: %w", code, err)
	}

	series, err := parseKlines(body)
	if err != nil {
		return nil, fmt.Errorf("parse klines %s: %w", code, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"stock_code": code,
		"count":      len(series),
	}).Debug("Fetched daily bars")
	return series, nil
}

// parseKlines turns data.klines rows
// "date,open,close,high,low,volume,amount,amplitude,pct_change,change,turnover"
// into an ascending, date-unique series. Malformed rows are dropped.
func parseKlines(body []byte) (contracts.Series, error) {
	data := gjson.GetBytes(body, "data")
	if !data.Exists() || data.Type == gjson.Null {
		return nil, ErrNoData
	}

	klines := data.Get("klines").Array()
	series := make(contracts.Series, 0, len(klines))
	for _, k := range klines {
		bar, ok := parseKlineRow(k.String())
		if !ok {
			continue
		}
		series = append(series, bar)
	}

	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})

	// keep the last row for a repeated date
	out := series[:0]
	for _, b := range series {
		if n := len(out); n > 0 && out[n-1].Date.Equal(b.Date) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func parseKlineRow(row string) (contracts.Bar, bool) {
	parts := strings.Split(strings.TrimSpace(row), ",")
	if len(parts) < 6 {
		return contracts.Bar{}, false
	}
	date, err := time.ParseInLocation(klineDateLayout, parts[0], time.Local)
	if err != nil {
		return contracts.Bar{}, false
	}

	// price and volume columns must parse; the optional ones default to 0
	field := func(i int) float64 {
		if i >= len(parts) {
			return optional(i)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil {
			return optional(i)
		}
		return f
	}

	bar := contracts.Bar{
		Date:      date,
		Open:      field(1),
		Close:     field(2),
		High:      field(3),
		Low:       field(4),
		Volume:    field(5),
		Amount:    field(6),
		Amplitude: field(7),
		PctChange: field(8),
		Change:    field(9),
		Turnover:  field(10),
	}
	if !contracts.AllDefined(bar.Open, bar.Close, bar.High, bar.Low, bar.Volume) {
		return contracts.Bar{}, false
	}
	return bar, true
}

func optional(i int) float64 {
	if i <= 5 {
		return math.NaN()
	}
	return 0
}
