package eastmoney

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/wonny/alphaselector/internal/contracts"
)

// conceptPageSize covers every concept board in one page
const conceptPageSize = 1000

// ConceptFlows lists concept boards with pct change (f3) and main net inflow (f62)
func (c *Client) ConceptFlows(ctx context.Context) ([]contracts.SectorFlow, error) {
	params := url.Values{}
	params.Set("pn", "1")
	params.Set("pz", strconv.Itoa(conceptPageSize))
	params.Set("po", "1")
	params.Set("np", "1")
	params.Set("fltt", "2")
	params.Set("invt", "2")
	params.Set("fid", "f3")
	params.Set("fs", ConceptBoards)
	params.Set("fields", "f12,f14,f3,f62")

	body, err := c.fetchJSON(ctx, c.cfg.ListURL, params)
	if err != nil {
		return nil, fmt.Errorf("fetch concept boards: %w", err)
	}
	return parseConceptFlows(body)
}

func parseConceptFlows(body []byte) ([]contracts.SectorFlow, error) {
	data := gjson.GetBytes(body, "data")
	if !data.Exists() || data.Type == gjson.Null {
		return nil, ErrNoData
	}

	var flows []contracts.SectorFlow
	data.Get("diff").ForEach(func(_, v gjson.Result) bool {
		name := v.Get("f14").String()
		if name == "" {
			return true
		}
		flows = append(flows, contracts.SectorFlow{
			Name:      name,
			PctChange: number(v.Get("f3")),
			NetInflow: number(v.Get("f62")) / 1e8,
		})
		return true
	})
	return flows, nil
}

// Concepts ranks concept boards as hot sectors
type Concepts struct {
	client *Client
}

var _ contracts.HotSectorProvider = (*Concepts)(nil)

// Concepts returns the concept-board hot sector provider
func (c *Client) Concepts() *Concepts {
	return &Concepts{client: c}
}

// HotSectors returns the top K concept boards by heat score
func (p *Concepts) HotSectors(ctx context.Context, topK int) ([]string, error) {
	flows, err := p.client.ConceptFlows(ctx)
	if err != nil {
		return nil, err
	}
	return contracts.TopSectors(flows, topK), nil
}
