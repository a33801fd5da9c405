package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/chainboard/chainboard/internal/httpclient"
	"github.com/chainboard/chainboard/internal/rate"
)

const rateLimitKey = "coingecko"

// Client wraps low-level HTTP communication with the market-data API.
type Client struct {
	logger  *zap.Logger
	exec    *httpclient.Executor
	baseURL string
	apiKey  string
}

// NewClient constructs a market-data client. apiKey may be empty for the
// public tier; the inter-request pacing then matters even more.
func NewClient(logger *zap.Logger, rateMgr *rate.Manager, baseURL, apiKey string) *Client {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	exec := httpclient.New(logger, rateMgr, httpClient, 2, "coingecko", func(status int, body []byte) error {
		var errResp errorResponse
		_ = json.Unmarshal(body, &errResp)

		msg := errResp.Status.ErrorMessage
		if msg == "" {
			msg = errResp.Error
		}
		if msg == "" {
			msg = string(body)
		}
		return fmt.Errorf("market-data api returned %d: %s", status, msg)
	})
	return &Client{
		logger:  logger,
		exec:    exec,
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// ListExchanges retrieves one page of the venue catalog.
// GET /exchanges?page=N&per_page=M
func (c *Client) ListExchanges(ctx context.Context, page, perPage int) ([]Exchange, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))

	var out []Exchange
	if err := c.getJSON(ctx, "/exchanges", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListAssetPlatforms retrieves all known chains.
// GET /asset_platforms
func (c *Client) ListAssetPlatforms(ctx context.Context) ([]AssetPlatform, error) {
	var out []AssetPlatform
	if err := c.getJSON(ctx, "/asset_platforms", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetCoin retrieves token metadata including its trading-pair tickers.
// GET /coins/{id}
func (c *Client) GetCoin(ctx context.Context, id string) (*Coin, error) {
	q := url.Values{}
	q.Set("localization", "false")
	q.Set("tickers", "true")
	q.Set("market_data", "true")
	q.Set("community_data", "false")
	q.Set("developer_data", "false")

	var out Coin
	if err := c.getJSON(ctx, "/coins/"+url.PathEscape(id), q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetMarketChart retrieves a coin's price/market-cap/volume series.
// GET /coins/{id}/market_chart?vs_currency=usd&days=30
func (c *Client) GetMarketChart(ctx context.Context, id, vsCurrency string, days int) (*MarketChart, error) {
	q := url.Values{}
	q.Set("vs_currency", vsCurrency)
	q.Set("days", strconv.Itoa(days))

	var raw chartResponse
	if err := c.getJSON(ctx, "/coins/"+url.PathEscape(id)+"/market_chart", q, &raw); err != nil {
		return nil, err
	}
	return raw.toChart(), nil
}

// getJSON performs an authenticated GET request and decodes the JSON response.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-pro-api-key", c.apiKey)
	}

	return c.exec.DoJSON(ctx, req, rateLimitKey, out)
}
