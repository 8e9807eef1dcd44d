package gecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"spyton-bot/internal/models"
)

// BestPool resolves the deepest-liquidity pool for a token, along with the
// market-cap and liquidity figures the source reports for it. Pool ids come
// back prefixed with the network ("ton_..."); the prefix is stripped so the
// id can be fed straight into the trades endpoint.
func (c *Client) BestPool(ctx context.Context, tokenAddress string) (models.PoolInfo, error) {
	if tokenAddress == "" {
		return models.PoolInfo{}, fmt.Errorf("tokenAddress is required")
	}

	path := fmt.Sprintf("/networks/%s/tokens/%s/pools", c.network, tokenAddress)
	params := url.Values{}
	params.Set("page", "1")

	body, err := c.get(ctx, path, params)
	if err != nil {
		return models.PoolInfo{}, err
	}

	var resp poolsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.PoolInfo{}, fmt.Errorf("%w: failed to unmarshal pools response: %v", models.ErrSourceUnavailable, err)
	}

	var best models.PoolInfo
	bestLiq := -1.0
	for _, p := range resp.Data {
		liq := parseFloat(string(p.Attributes.ReserveInUSD))
		if liq == 0 {
			liq = parseFloat(string(p.Attributes.LiquidityUSD))
		}
		if liq <= bestLiq {
			continue
		}
		bestLiq = liq

		chartURL := p.Attributes.GTURL
		if chartURL == "" {
			chartURL = p.Attributes.URL
		}

		best = models.PoolInfo{
			Address:      strings.TrimPrefix(p.ID, c.network+"_"),
			URL:          chartURL,
			MarketCapUSD: parseFloat(string(p.Attributes.MarketCapUSD)),
			LiquidityUSD: liq,
		}
	}

	if best.Address == "" {
		return models.PoolInfo{}, fmt.Errorf("no pools found for token %s", tokenAddress)
	}
	return best, nil
}

func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
