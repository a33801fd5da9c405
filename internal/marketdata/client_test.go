package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(zap.NewNop(), nil, srv.URL, "test-key")
}

func TestListExchanges(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/exchanges", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("page"))
		assert.Equal(t, "250", r.URL.Query().Get("per_page"))
		assert.Equal(t, "test-key", r.Header.Get("x-cg-pro-api-key"))

		_, _ = w.Write([]byte(`[
			{"id":"binance","name":"Binance","centralized":true,"country":"Cayman Islands"},
			{"id":"uniswap-v3","name":"Uniswap V3","centralized":false}
		]`))
	}))

	out, err := c.ListExchanges(context.Background(), 3, 250)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "binance", out[0].ID)
	require.NotNil(t, out[1].Centralized)
	assert.False(t, *out[1].Centralized)
}

func TestListExchanges_MissingFlagStaysNil(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"obscure-venue","name":"Obscure Venue"}]`))
	}))

	out, err := c.ListExchanges(context.Background(), 1, 250)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Nil(t, out[0].Centralized, "absent flag must stay distinguishable from false")
}

func TestGetCoin(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/coins/ethereum", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("tickers"))

		_, _ = w.Write([]byte(`{
			"id":"ethereum","symbol":"eth","name":"Ethereum",
			"links":{"repos_url":{"github":["https://github.com/ethereum/go-ethereum"]}},
			"market_data":{"current_price":{"usd":"1850.42"}},
			"tickers":[
				{"base":"ETH","target":"USDT","market":{"name":"Binance","identifier":"binance"},"last":"1850.1"},
				{"base":"WETH","target":"USDC","market":{"name":"Uniswap V3","identifier":"uniswap-v3"},"last":"1850.3"}
			]
		}`))
	}))

	coin, err := c.GetCoin(context.Background(), "ethereum")
	require.NoError(t, err)
	assert.Equal(t, "eth", coin.Symbol)
	require.Len(t, coin.Tickers, 2)
	assert.Equal(t, "uniswap-v3", coin.Tickers[1].Market.Identifier)
	assert.Equal(t, "1850.42", coin.MarketData.CurrentPrice["usd"].String())
}

func TestGetMarketChart_PairsBecomePoints(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/coins/bitcoin/market_chart", r.URL.Path)
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currency"))
		assert.Equal(t, "30", r.URL.Query().Get("days"))

		_, _ = w.Write([]byte(`{
			"prices":[[1756684800000,65000.5],[1756688400000,65120.25],[1756692000000]],
			"market_caps":[[1756684800000,1280000000000]],
			"total_volumes":[[1756684800000,31000000000]]
		}`))
	}))

	chart, err := c.GetMarketChart(context.Background(), "bitcoin", "usd", 30)
	require.NoError(t, err)
	require.Len(t, chart.Prices, 2, "malformed pairs are skipped")
	assert.Equal(t, int64(1756684800000), chart.Prices[0].Timestamp)
	assert.Equal(t, "65120.25", chart.Prices[1].Value.String())
	assert.Len(t, chart.MarketCaps, 1)
}

func TestClient_ClientErrorSurfacesUpstreamMessage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status":{"error_message":"coin not found"}}`))
	}))

	_, err := c.GetCoin(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "coin not found")
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))

	out, err := c.ListAssetPlatforms(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, int32(2), calls.Load())
}
