package eastmoney

import (
	"context"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/wonny/alphaselector/internal/contracts"
)

// Listing is one row of the A-share list
type Listing struct {
	Code             string
	Name             string
	FloatMarketValue float64 // yuan
}

// ListUniverse lists all A shares and keeps those passing the criteria, in listing order
func (c *Client) ListUniverse(ctx context.Context, criteria contracts.UniverseCriteria) ([]contracts.Stock, error) {
	listings, err := c.ListAShares(ctx)
	if err != nil {
		return nil, err
	}

	stocks := make([]contracts.Stock, 0, len(listings))
	for _, l := range listings {
		if criteria.Accept(l.Code, l.Name, l.FloatMarketValue) {
			stocks = append(stocks, contracts.Stock{Code: l.Code, Name: l.Name})
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"listed":   len(listings),
		"accepted": len(stocks),
	}).Info("成功加载股票池")
	return stocks, nil
}

// ListAShares pages through the clist endpoint until every listing is read
func (c *Client) ListAShares(ctx context.Context) ([]Listing, error) {
	var all []Listing
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		params := url.Values{}
		params.Set("pn", strconv.Itoa(page))
		params.Set("pz", strconv.Itoa(listPageSize))
		params.Set("po", "1")
		params.Set("np", "1")
		params.Set("fltt", "2")
		params.Set("invt", "2")
		params.Set("fid", "f12")
		params.Set("fs", AShareBoards)
		params.Set("fields", "f12,f14,f21")

		body, err := c.fetchJSON(ctx, c.cfg.ListURL, params)
		if err != nil {
			return nil, err
		}
		rows, total, err := parseListings(body)
		if err != nil {
			if page > 1 {
				break
			}
			return nil, err
		}
		all = append(all, rows...)

		if len(rows) == 0 || len(rows) < listPageSize || len(all) >= total {
			break
		}
	}
	return all, nil
}

// parseListings reads data.total and data.diff (array or "0","1",… object)
func parseListings(body []byte) ([]Listing, int, error) {
	data := gjson.GetBytes(body, "data")
	if !data.Exists() || data.Type == gjson.Null {
		return nil, 0, ErrNoData
	}

	var rows []Listing
	data.Get("diff").ForEach(func(_, v gjson.Result) bool {
		code := v.Get("f12").String()
		if code == "" {
			return true
		}
		rows = append(rows, Listing{
			Code:             code,
			Name:             v.Get("f14").String(),
			FloatMarketValue: number(v.Get("f21")),
		})
		return true
	})
	return rows, int(data.Get("total").Int()), nil
}

// number reads a numeric field; "-" and other placeholders count as 0
func number(r gjson.Result) float64 {
	switch r.Type {
	case gjson.Number:
		return r.Float()
	case gjson.String:
		f, err := strconv.ParseFloat(r.Str, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
