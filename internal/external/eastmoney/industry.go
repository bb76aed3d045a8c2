package eastmoney

import (
	"context"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/wonny/alphaselector/internal/contracts"
)

// ClassifyIndustry returns the stock's 所属行业 (f127), or 未知 on any failure
func (c *Client) ClassifyIndustry(ctx context.Context, code string) string {
	params := url.Values{}
	params.Set("secid", SecID(code))
	params.Set("fltt", "2")
	params.Set("invt", "2")
	params.Set("fields", "f57,f58,f127")

	body, err := c.fetchJSON(ctx, c.cfg.QuoteURL, params)
	if err != nil {
		c.logger.WithError(err).WithField("stock_code", code).Warn("获取行业信息失败")
		return contracts.UnknownIndustry
	}
	return parseIndustry(body)
}

func parseIndustry(body []byte) string {
	industry := strings.TrimSpace(gjson.GetBytes(body, "data.f127").String())
	if industry == "" || industry == "-" {
		return contracts.UnknownIndustry
	}
	return industry
}
