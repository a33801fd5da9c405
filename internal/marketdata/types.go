package marketdata

import "github.com/shopspring/decimal"

// Exchange is one raw record from the paginated /exchanges listing.
// Centralized is the source's own hint; it is only a fallback for
// classification and may be absent or wrong.
type Exchange struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Centralized       *bool   `json:"centralized,omitempty"`
	Country           string  `json:"country,omitempty"`
	TrustScore        int     `json:"trust_score,omitempty"`
	TradeVolume24hBTC float64 `json:"trade_volume_24h_btc,omitempty"`
	YearEstablished   int     `json:"year_established,omitempty"`
	Image             string  `json:"image,omitempty"`
	URL               string  `json:"url,omitempty"`
}

// AssetPlatform is a chain/network entry.
type AssetPlatform struct {
	ID           string `json:"id"`
	ChainID      *int64 `json:"chain_identifier"`
	Name         string `json:"name"`
	ShortName    string `json:"shortname,omitempty"`
	NativeCoinID string `json:"native_coin_id,omitempty"`
}

// Market identifies the venue a ticker trades on.
type Market struct {
	Name       string `json:"name"`
	Identifier string `json:"identifier"`
}

// Ticker is a single trading pair listing for a coin.
type Ticker struct {
	Base       string          `json:"base"`
	Target     string          `json:"target"`
	Market     Market          `json:"market"`
	Last       decimal.Decimal `json:"last"`
	Volume     decimal.Decimal `json:"volume"`
	TrustScore string          `json:"trust_score,omitempty"`
	TradeURL   string          `json:"trade_url,omitempty"`
}

// CoinLinks carries the subset of coin links the dashboard uses.
type CoinLinks struct {
	Homepage []string  `json:"homepage,omitempty"`
	ReposURL RepoLinks `json:"repos_url"`
}

type RepoLinks struct {
	Github []string `json:"github,omitempty"`
}

// CoinMarketData holds per-currency price aggregates.
type CoinMarketData struct {
	CurrentPrice      map[string]decimal.Decimal `json:"current_price,omitempty"`
	MarketCap         map[string]decimal.Decimal `json:"market_cap,omitempty"`
	TotalVolume       map[string]decimal.Decimal `json:"total_volume,omitempty"`
	PriceChangePct24h decimal.Decimal            `json:"price_change_percentage_24h"`
}

// Coin is the full token metadata document.
type Coin struct {
	ID          string            `json:"id"`
	Symbol      string            `json:"symbol"`
	Name        string            `json:"name"`
	Description map[string]string `json:"description,omitempty"`
	Links       *CoinLinks        `json:"links,omitempty"`
	MarketData  *CoinMarketData   `json:"market_data,omitempty"`
	Tickers     []Ticker          `json:"tickers,omitempty"`
}

// PricePoint is one sample of a market chart series.
type PricePoint struct {
	Timestamp int64           `json:"t"` // unix milliseconds
	Value     decimal.Decimal `json:"v"`
}

// MarketChart holds price, market-cap, and volume series for a coin.
type MarketChart struct {
	Prices       []PricePoint `json:"prices"`
	MarketCaps   []PricePoint `json:"market_caps"`
	TotalVolumes []PricePoint `json:"total_volumes"`
}

// chartResponse matches the wire format: arrays of [timestamp, value] pairs.
type chartResponse struct {
	Prices       [][]decimal.Decimal `json:"prices"`
	MarketCaps   [][]decimal.Decimal `json:"market_caps"`
	TotalVolumes [][]decimal.Decimal `json:"total_volumes"`
}

func (r *chartResponse) toChart() *MarketChart {
	return &MarketChart{
		Prices:       toPoints(r.Prices),
		MarketCaps:   toPoints(r.MarketCaps),
		TotalVolumes: toPoints(r.TotalVolumes),
	}
}

func toPoints(pairs [][]decimal.Decimal) []PricePoint {
	points := make([]PricePoint, 0, len(pairs))
	for _, p := range pairs {
		if len(p) < 2 {
			continue
		}
		points = append(points, PricePoint{Timestamp: p[0].IntPart(), Value: p[1]})
	}
	return points
}

// errorResponse is the upstream error body shape.
type errorResponse struct {
	Error  string `json:"error,omitempty"`
	Status struct {
		ErrorMessage string `json:"error_message,omitempty"`
	} `json:"status,omitempty"`
}
