package eastmoney

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/wonny/alphaselector/pkg/config"
	"github.com/wonny/alphaselector/pkg/httputil"
	"github.com/wonny/alphaselector/pkg/logger"
)

// ErrNoData is returned when a response carries no data payload
var ErrNoData = errors.New("eastmoney: no data")

// Board filters of the clist endpoint
const (
	// 沪深京 A 股: 深主板, 深创业板, 沪主板, 沪科创板
	AShareBoards = "m:0+t:6,m:0+t:80,m:1+t:2,m:1+t:23"
	// 概念板块
	ConceptBoards = "m:90+t:3"

	listPageSize = 100
)

// Client handles communication with the eastmoney quote API
// ⭐ SSOT: 东方财富 API 调用只在这个客户端
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	cfg        config.EastmoneyConfig
}

// NewClient creates a new eastmoney client
func NewClient(httpClient *httputil.Client, cfg config.EastmoneyConfig, log *logger.Logger) *Client {
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{
		httpClient: httpClient,
		logger:     log,
		cfg:        cfg,
	}
}

// fetchJSON GETs base?params and returns the raw body
func (c *Client) fetchJSON(ctx context.Context, base string, params url.Values) ([]byte, error) {
	fullURL := base
	if len(params) > 0 {
		fullURL = fmt.Sprintf("%s?%s", base, params.Encode())
	}

	body, err := c.httpClient.GetBody(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	return body, nil
}

// SecID converts a 6-digit code to an eastmoney secid: 1.xxxxxx for
// Shanghai (6/5/9 prefixes), 0.xxxxxx otherwise
func SecID(code string) string {
	code = strings.TrimSpace(code)
	if code != "" && (code[0] == '6' || code[0] == '5' || code[0] == '9') {
		return "1." + code
	}
	return "0." + code
}
