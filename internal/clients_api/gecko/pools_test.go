package gecko

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const poolsPage = `{
  "data": [
    {
      "id": "ton_EQPoolShallow",
      "attributes": {
        "name": "SPY/TON shallow",
        "reserve_in_usd": "12000.50",
        "market_cap_usd": "900000",
        "gt_url": "https://www.geckoterminal.com/ton/pools/EQPoolShallow"
      }
    },
    {
      "id": "ton_EQPoolDeep",
      "attributes": {
        "name": "SPY/TON deep",
        "reserve_in_usd": "250000.75",
        "market_cap_usd": "900000",
        "gt_url": "https://www.geckoterminal.com/ton/pools/EQPoolDeep"
      }
    }
  ]
}`

func TestBestPoolPicksDeepestLiquidity(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/networks/ton/tokens/EQToken/pools", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		w.Write([]byte(poolsPage))
	})

	pool, err := client.BestPool(context.Background(), "EQToken")
	require.NoError(t, err)

	// The network prefix is stripped from the pool id.
	assert.Equal(t, "EQPoolDeep", pool.Address)
	assert.Equal(t, "https://www.geckoterminal.com/ton/pools/EQPoolDeep", pool.URL)
	assert.Equal(t, 250000.75, pool.LiquidityUSD)
	assert.Equal(t, 900000.0, pool.MarketCapUSD)
}

func TestBestPoolLiquidityFieldFallback(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": [{"id": "ton_EQPool", "attributes": {"liquidity_usd": "5000", "url": "https://chart"}}]}`))
	})

	pool, err := client.BestPool(context.Background(), "EQToken")
	require.NoError(t, err)
	assert.Equal(t, "EQPool", pool.Address)
	assert.Equal(t, "https://chart", pool.URL)
	assert.Equal(t, 5000.0, pool.LiquidityUSD)
}

func TestBestPoolNoPools(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": []}`))
	})

	_, err := client.BestPool(context.Background(), "EQToken")
	require.Error(t, err)
}

func TestBestPoolRequiresAddress(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("unexpected request")
	})

	_, err := client.BestPool(context.Background(), "")
	require.Error(t, err)
}
