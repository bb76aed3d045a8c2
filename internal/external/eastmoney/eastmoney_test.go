package eastmoney

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/alphaselector/internal/contracts"
	"github.com/wonny/alphaselector/pkg/config"
	"github.com/wonny/alphaselector/pkg/httputil"
	"github.com/wonny/alphaselector/pkg/logger"
)

func TestSecID(t *testing.T) {
	tests := map[string]string{
		"600519": "1.600519",
		"510300": "1.510300",
		"900901": "1.900901",
		"000001": "0.000001",
		"300750": "0.300750",
		" 601318": "1.601318",
	}
	for code, want := range tests {
		assert.Equal(t, want, SecID(code), code)
	}
}

func TestParseListings(t *testing.T) {
	t.Run("array diff", func(t *testing.T) {
		body := `{"rc":0,"data":{"total":3,"diff":[
			{"f12":"600519","f14":"贵州茅台","f21":2.1e12},
			{"f12":"000002","f14":"*ST万科","f21":"-"},
			{"f12":"","f14":"blank"}
		]}}`
		rows, total, err := parseListings([]byte(body))
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, rows, 2)
		assert.Equal(t, Listing{Code: "600519", Name: "贵州茅台", FloatMarketValue: 2.1e12}, rows[0])
		assert.Zero(t, rows[1].FloatMarketValue)
	})

	t.Run("object diff", func(t *testing.T) {
		body := `{"data":{"total":1,"diff":{"0":{"f12":"000001","f14":"平安银行","f21":"2.2E11"}}}}`
		rows, _, err := parseListings([]byte(body))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, 2.2e11, rows[0].FloatMarketValue)
	})

	t.Run("null data", func(t *testing.T) {
		_, _, err := parseListings([]byte(`{"rc":0,"data":null}`))
		assert.ErrorIs(t, err, ErrNoData)
	})
}

func TestParseKlines(t *testing.T) {
	body := `{"data":{"code":"600519","klines":[
		"2025-01-03,10.10,10.20,10.30,10.00,1200,1.2e6,2.97,0.99,0.10,0.50",
		"2025-01-02,10.00,10.10,10.20,9.90,1000,1.0e6,3.00,1.00,0.10,0.40",
		"2025-01-03,10.10,10.25,10.30,10.00,1300,1.3e6,2.97,1.49,0.15,0.55",
		"bad-date,1,1,1,1,1",
		"2025-01-06,x,10.3,10.4,10.1,900"
	]}}`

	series, err := parseKlines([]byte(body))
	require.NoError(t, err)
	require.Len(t, series, 2)
	require.NoError(t, series.Validate())

	first := series[0]
	assert.Equal(t, 2, first.Date.Day())
	assert.Equal(t, 10.0, first.Open)
	assert.Equal(t, 10.1, first.Close)
	assert.Equal(t, 10.2, first.High)
	assert.Equal(t, 9.9, first.Low)
	assert.Equal(t, 1000.0, first.Volume)
	assert.Equal(t, 1.0, first.PctChange)
	assert.Equal(t, 0.4, first.Turnover)

	// duplicate date keeps the later row
	assert.Equal(t, 10.25, series[1].Close)
	assert.Equal(t, 1300.0, series[1].Volume)
}

func TestParseKlines_Empty(t *testing.T) {
	series, err := parseKlines([]byte(`{"data":{"klines":[]}}`))
	require.NoError(t, err)
	assert.Empty(t, series)

	_, err = parseKlines([]byte(`{"data":null}`))
	assert.ErrorIs(t, err, ErrNoData)
}

func TestParseIndustry(t *testing.T) {
	assert.Equal(t, "酿酒行业", parseIndustry([]byte(`{"data":{"f57":"600519","f127":"酿酒行业"}}`)))
	assert.Equal(t, contracts.UnknownIndustry, parseIndustry([]byte(`{"data":{"f127":"-"}}`)))
	assert.Equal(t, contracts.UnknownIndustry, parseIndustry([]byte(`{"data":null}`)))
	assert.Equal(t, contracts.UnknownIndustry, parseIndustry([]byte(`not json`)))
}

func TestParseConceptFlows(t *testing.T) {
	body := `{"data":{"total":2,"diff":[
		{"f12":"BK1","f14":"光伏概念","f3":2.5,"f62":300000000},
		{"f12":"BK2","f14":"白酒","f3":"-","f62":-1e8}
	]}}`
	flows, err := parseConceptFlows([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, []contracts.SectorFlow{
		{Name: "光伏概念", PctChange: 2.5, NetInflow: 3},
		{Name: "白酒", PctChange: 0, NetInflow: -1},
	}, flows)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.EastmoneyConfig{
		ListURL:    srv.URL + "/api/qt/clist/get",
		KlineURL:   srv.URL + "/api/qt/stock/kline/get",
		QuoteURL:   srv.URL + "/api/qt/stock/get",
		RatePerSec: 100,
	}
	httpClient := httputil.New(logger.NewNop()).DisableRetry()
	return NewClient(httpClient, cfg, logger.NewNop())
}

func TestClient_ListUniverse(t *testing.T) {
	var pages []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/qt/clist/get", r.URL.Path)
		assert.Equal(t, AShareBoards, r.URL.Query().Get("fs"))
		pn := r.URL.Query().Get("pn")
		pages = append(pages, pn)

		var b strings.Builder
		b.WriteString(`{"data":{"total":101,"diff":[`)
		if pn == "1" {
			for i := 0; i < listPageSize; i++ {
				if i > 0 {
					b.WriteString(",")
				}
				switch i {
				case 0:
					b.WriteString(`{"f12":"600519","f14":"贵州茅台","f21":2e12}`)
				case 1:
					b.WriteString(`{"f12":"300750","f14":"宁德时代","f21":1e12}`)
				case 2:
					b.WriteString(`{"f12":"600001","f14":"ST某某","f21":5e9}`)
				default:
					b.WriteString(`{"f12":"000999","f14":"小盘","f21":1e9}`)
				}
			}
		} else {
			b.WriteString(`{"f12":"000001","f14":"平安银行","f21":2e11}`)
		}
		b.WriteString(`]}}`)
		_, _ = w.Write([]byte(b.String()))
	})

	stocks, err := c.ListUniverse(context.Background(), contracts.UniverseCriteria{
		BoardPrefixes: []string{"00", "60"}, ExcludeST: true, MinFloatMarketValue: 3e9,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, pages)
	assert.Equal(t, []contracts.Stock{
		{Code: "600519", Name: "贵州茅台"},
		{Code: "000001", Name: "平安银行"},
	}, stocks)
}

func TestClient_ListUniverseFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.ListUniverse(context.Background(), contracts.UniverseCriteria{})
	require.Error(t, err)
	assert.ErrorIs(t, err, httputil.ErrStatus)
}

func TestClient_FetchDailyBars(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "1.600519", q.Get("secid"))
		assert.Equal(t, "101", q.Get("klt"))
		assert.Equal(t, "1", q.Get("fqt"))
		assert.Equal(t, "20250101", q.Get("beg"))
		assert.Equal(t, "20250131", q.Get("end"))
		_, _ = w.Write([]byte(`{"data":{"klines":["2025-01-02,10,10.1,10.2,9.9,1000,1e6,3,1,0.1,0.4"]}}`))
	})

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local)
	series, err := c.FetchDailyBars(context.Background(), "600519", start, start.AddDate(0, 0, 30))
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, 10.1, series[0].Close)
}

func TestClient_ClassifyIndustryFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	assert.Equal(t, contracts.UnknownIndustry, c.ClassifyIndustry(context.Background(), "600519"))
}

func TestConcepts_HotSectors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, ConceptBoards, r.URL.Query().Get("fs"))
		_, _ = w.Write([]byte(`{"data":{"diff":[
			{"f14":"A","f3":1,"f62":0},
			{"f14":"B","f3":3,"f62":1e8},
			{"f14":"C","f3":2,"f62":5e8}
		]}}`))
	})

	hot, err := c.Concepts().HotSectors(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "B"}, hot) // 3.2, 2.2, 0.6
}

func TestParseKlines_ShortRow(t *testing.T) {
	series, err := parseKlines([]byte(`{"data":{"klines":["2025-01-07,10,10.3,10.4,10.1,900,-"]}}`))
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, 900.0, series[0].Volume)
	assert.Zero(t, series[0].Amount)
	assert.Zero(t, series[0].PctChange)
}
