package ths

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"github.com/wonny/alphaselector/internal/contracts"
	"github.com/wonny/alphaselector/pkg/config"
	"github.com/wonny/alphaselector/pkg/httputil"
	"github.com/wonny/alphaselector/pkg/logger"
)

// IndustryFlowPath is the 行业资金流向 page
const IndustryFlowPath = "/funds/hyzjl/"

// Client scrapes the 同花顺 data center
// ⭐ SSOT: 同花顺数据中心抓取只在这个客户端
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

var _ contracts.HotSectorProvider = (*Client)(nil)

// NewClient creates a new 10jqka client
func NewClient(httpClient *httputil.Client, cfg config.THSConfig, log *logger.Logger) *Client {
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// IndustryFlows fetches today's industry fund-flow table
func (c *Client) IndustryFlows(ctx context.Context) ([]contracts.SectorFlow, error) {
	body, err := c.httpClient.GetBody(ctx, c.baseURL+IndustryFlowPath)
	if err != nil {
		return nil, fmt.Errorf("fetch industry fund flow: %w", err)
	}

	flows, err := parseIndustryFlows(body)
	if err != nil {
		return nil, fmt.Errorf("parse industry fund flow: %w", err)
	}

	c.logger.WithField("count", len(flows)).Debug("Fetched industry fund flow")
	return flows, nil
}

// HotSectors returns the top K industries by pct×0.6 + net inflow(亿)×0.4
func (c *Client) HotSectors(ctx context.Context, topK int) ([]string, error) {
	flows, err := c.IndustryFlows(ctx)
	if err != nil {
		return nil, err
	}
	if len(flows) == 0 {
		return nil, fmt.Errorf("industry fund flow table is empty")
	}
	return contracts.TopSectors(flows, topK), nil
}

// parseIndustryFlows reads the table rows
// 序号 | 行业 | 行业指数 | 涨跌幅 | 流入资金(亿) | 流出资金(亿) | 净额(亿) | …
func parseIndustryFlows(body []byte) ([]contracts.SectorFlow, error) {
	doc, err := goquery.NewDocumentFromReader(decodePage(body))
	if err != nil {
		return nil, err
	}

	var flows []contracts.SectorFlow
	doc.Find("table tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 7 {
			return
		}
		name := strings.TrimSpace(cells.Eq(1).Text())
		if name == "" {
			return
		}
		flows = append(flows, contracts.SectorFlow{
			Name:      name,
			PctChange: parseNum(cells.Eq(3).Text()),
			NetInflow: parseNum(cells.Eq(6).Text()),
		})
	})
	return flows, nil
}

// decodePage returns a UTF-8 reader; the data center serves GBK
func decodePage(body []byte) io.Reader {
	if utf8.Valid(body) {
		return bytes.NewReader(body)
	}
	return transform.NewReader(bytes.NewReader(body), simplifiedchinese.GBK.NewDecoder())
}

// parseNum parses "2.35%", "+1,234.5" and the like; unparsable is NaN
func parseNum(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "+")
	if s == "" || s == "-" || s == "--" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}
