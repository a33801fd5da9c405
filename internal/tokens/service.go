package tokens

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/chainboard/chainboard/internal/marketdata"
	"github.com/chainboard/chainboard/internal/metrics"
)

const (
	overviewCacheKeyPrefix = "tokens:overview:"
	chartCacheKeyPrefix    = "tokens:chart:"
)

// VenueListing is one trading pair annotated with the venue classification.
type VenueListing struct {
	VenueName   string          `json:"venue_name"`
	VenueID     string          `json:"venue_id"`
	Pair        string          `json:"pair"`
	LastPrice   decimal.Decimal `json:"last_price"`
	Centralized bool            `json:"centralized"`
}

// Overview is the dashboard view of a single token.
type Overview struct {
	ID                string          `json:"id"`
	Symbol            string          `json:"symbol"`
	Name              string          `json:"name"`
	PriceUSD          decimal.Decimal `json:"price_usd"`
	MarketCapUSD      decimal.Decimal `json:"market_cap_usd"`
	PriceChangePct24h decimal.Decimal `json:"price_change_pct_24h"`
	Venues            []VenueListing  `json:"venues"`
	CEXCount          int             `json:"cex_count"`
	DEXCount          int             `json:"dex_count"`
	RepoOrg           string          `json:"repo_org,omitempty"`
	GeneratedAt       time.Time       `json:"generated_at"`
}

// CoinSource is the slice of the market-data client the service needs.
type CoinSource interface {
	GetCoin(ctx context.Context, id string) (*marketdata.Coin, error)
	GetMarketChart(ctx context.Context, id, vsCurrency string, days int) (*marketdata.MarketChart, error)
}

// VenueMapper classifies venue identifiers as centralized or not.
type VenueMapper interface {
	BuildMap(ctx context.Context, identifiers []string) (map[string]bool, error)
}

// KV is the slice of the store the service needs.
type KV interface {
	GetJSON(ctx context.Context, key string, dest any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Service assembles cached token overviews and charts.
type Service struct {
	logger      *zap.Logger
	coins       CoinSource
	venues      VenueMapper
	cache       KV
	overviewTTL time.Duration
	chartTTL    time.Duration
}

func NewService(logger *zap.Logger, coins CoinSource, venues VenueMapper, cache KV, overviewTTL, chartTTL time.Duration) *Service {
	if overviewTTL <= 0 {
		overviewTTL = 30 * time.Minute
	}
	if chartTTL <= 0 {
		chartTTL = 10 * time.Minute
	}
	return &Service{
		logger:      logger,
		coins:       coins,
		venues:      venues,
		cache:       cache,
		overviewTTL: overviewTTL,
		chartTTL:    chartTTL,
	}
}

// Overview returns the annotated view of a token, served from cache when
// fresh.
func (s *Service) Overview(ctx context.Context, id string) (*Overview, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		return nil, fmt.Errorf("token id is required")
	}
	key := overviewCacheKeyPrefix + id

	var cached Overview
	if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
		metrics.IncCacheOp("token_overview", "hit")
		return &cached, nil
	}
	metrics.IncCacheOp("token_overview", "miss")

	overview, err := s.build(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetJSON(ctx, key, overview, s.overviewTTL); err != nil {
		s.logger.Warn("tokens.overview_cache_write_failed",
			zap.String("token", id), zap.Error(err))
	}
	return overview, nil
}

func (s *Service) build(ctx context.Context, id string) (*Overview, error) {
	coin, err := s.coins.GetCoin(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch coin %s: %w", id, err)
	}

	identifiers := make([]string, 0, len(coin.Tickers))
	seen := map[string]struct{}{}
	for _, tk := range coin.Tickers {
		vid := strings.ToLower(tk.Market.Identifier)
		if vid == "" {
			continue
		}
		if _, ok := seen[vid]; ok {
			continue
		}
		seen[vid] = struct{}{}
		identifiers = append(identifiers, vid)
	}

	venueMap := map[string]bool{}
	if len(identifiers) > 0 {
		venueMap, err = s.venues.BuildMap(ctx, identifiers)
		if err != nil {
			// Listings without classification are worse than no listings on
			// the dashboard; fail the overview instead of guessing.
			return nil, fmt.Errorf("classify venues for %s: %w", id, err)
		}
	}

	overview := &Overview{
		ID:          coin.ID,
		Symbol:      coin.Symbol,
		Name:        coin.Name,
		RepoOrg:     repoOrg(coin),
		GeneratedAt: time.Now().UTC(),
	}
	if md := coin.MarketData; md != nil {
		overview.PriceUSD = md.CurrentPrice["usd"]
		overview.MarketCapUSD = md.MarketCap["usd"]
		overview.PriceChangePct24h = md.PriceChangePct24h
	}

	for _, tk := range coin.Tickers {
		vid := strings.ToLower(tk.Market.Identifier)
		if vid == "" {
			continue
		}
		centralized, ok := venueMap[vid]
		if !ok {
			centralized = true
		}
		overview.Venues = append(overview.Venues, VenueListing{
			VenueName:   tk.Market.Name,
			VenueID:     vid,
			Pair:        tk.Base + "/" + tk.Target,
			LastPrice:   tk.Last,
			Centralized: centralized,
		})
		if centralized {
			overview.CEXCount++
		} else {
			overview.DEXCount++
		}
	}

	return overview, nil
}

// Chart returns a token's price series, cached briefly.
func (s *Service) Chart(ctx context.Context, id string, days int) (*marketdata.MarketChart, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		return nil, fmt.Errorf("token id is required")
	}
	if days <= 0 || days > 365 {
		days = 30
	}
	key := fmt.Sprintf("%s%s:%d", chartCacheKeyPrefix, id, days)

	var cached marketdata.MarketChart
	if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
		metrics.IncCacheOp("token_chart", "hit")
		return &cached, nil
	}
	metrics.IncCacheOp("token_chart", "miss")

	chart, err := s.coins.GetMarketChart(ctx, id, "usd", days)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetJSON(ctx, key, chart, s.chartTTL); err != nil {
		s.logger.Warn("tokens.chart_cache_write_failed",
			zap.String("token", id), zap.Error(err))
	}
	return chart, nil
}

// repoOrg pulls the owning organization out of the coin's first repository
// link, e.g. "https://github.com/ethereum/go-ethereum" yields "ethereum".
func repoOrg(coin *marketdata.Coin) string {
	if coin.Links == nil || len(coin.Links.ReposURL.Github) == 0 {
		return ""
	}
	u, err := url.Parse(coin.Links.ReposURL.Github[0])
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return ""
	}
	return strings.ToLower(parts[0])
}
