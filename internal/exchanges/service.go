package exchanges

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/chainboard/chainboard/internal/marketdata"
	"github.com/chainboard/chainboard/internal/metrics"
	"github.com/chainboard/chainboard/internal/store"
)

const (
	catalogCacheKey = "exchanges:catalog"
	idMapCacheKey   = "exchanges:idmap"

	catalogPageSize = 250
)

// Venue is a classified trading venue from the market-data catalog.
// Centralized is always derived — it is recomputed from the identifier and
// name on every read and never trusted straight from a cache payload.
type Venue struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Centralized       bool    `json:"centralized"`
	Country           string  `json:"country,omitempty"`
	TrustScore        int     `json:"trust_score,omitempty"`
	TradeVolume24hBTC float64 `json:"trade_volume_24h_btc,omitempty"`
	YearEstablished   int     `json:"year_established,omitempty"`
	Image             string  `json:"image,omitempty"`
	URL               string  `json:"url,omitempty"`
}

// VenueLister is the slice of the market-data client the catalog needs.
type VenueLister interface {
	ListExchanges(ctx context.Context, page, perPage int) ([]marketdata.Exchange, error)
}

// KV is the slice of the store the catalog and identifier map need.
type KV interface {
	GetJSON(ctx context.Context, key string, dest any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Service owns the venue catalog and the identifier→centralized map.
// The external cache is the only state shared across requests; concurrent
// cache-fill races are accepted, last write wins.
type Service struct {
	logger     *zap.Logger
	venues     VenueLister
	cache      KV
	classifier *Classifier
	pageDelay  time.Duration
	catalogTTL time.Duration
	mapTTL     time.Duration
}

// NewService constructs the exchange classification service. Zero durations
// fall back to the defaults (200 ms page delay, 24 h TTLs).
func NewService(logger *zap.Logger, venues VenueLister, cache KV, pageDelay, catalogTTL, mapTTL time.Duration) *Service {
	if pageDelay <= 0 {
		pageDelay = 200 * time.Millisecond
	}
	if catalogTTL <= 0 {
		catalogTTL = 24 * time.Hour
	}
	if mapTTL <= 0 {
		mapTTL = 24 * time.Hour
	}
	return &Service{
		logger:     logger,
		venues:     venues,
		cache:      cache,
		classifier: NewClassifier(),
		pageDelay:  pageDelay,
		catalogTTL: catalogTTL,
		mapTTL:     mapTTL,
	}
}

// Catalog returns the full classified venue catalog, serving from cache when
// possible. Cached entries are re-classified on every read so table changes
// take effect within the cache lifetime; the cached boolean only survives as
// the classifier's last-resort fallback.
func (s *Service) Catalog(ctx context.Context) ([]Venue, error) {
	var cached []Venue
	err := s.cache.GetJSON(ctx, catalogCacheKey, &cached)
	switch {
	case err == nil && len(cached) > 0:
		metrics.IncCacheOp("catalog", "hit")
		venues := s.dedupe(cached)
		for i := range venues {
			prior := venues[i].Centralized
			venues[i].Centralized = s.classifier.Classify(venues[i].ID, venues[i].Name, &prior)
		}
		return venues, nil
	case errors.Is(err, store.ErrNotFound) || err == nil:
		metrics.IncCacheOp("catalog", "miss")
	default:
		metrics.IncCacheOp("catalog", "error")
		s.logger.Warn("exchanges.catalog_cache_read_failed", zap.Error(err))
	}

	venues := s.collectAll(ctx)
	if len(venues) == 0 {
		return nil, fmt.Errorf("exchange catalog unavailable")
	}
	sortByName(venues)

	if err := s.cache.SetJSON(ctx, catalogCacheKey, venues, s.catalogTTL); err != nil {
		s.logger.Warn("exchanges.catalog_cache_write_failed", zap.Error(err))
	}
	return venues, nil
}

// RefreshCatalog bypasses the cache read and rebuilds the catalog from the
// remote listing, overwriting the cached copy. Used by the background
// refresher to keep the cache warm.
func (s *Service) RefreshCatalog(ctx context.Context) (int, error) {
	venues := s.collectAll(ctx)
	if len(venues) == 0 {
		return 0, fmt.Errorf("exchange catalog unavailable")
	}
	sortByName(venues)

	if err := s.cache.SetJSON(ctx, catalogCacheKey, venues, s.catalogTTL); err != nil {
		s.logger.Warn("exchanges.catalog_cache_write_failed", zap.Error(err))
	}
	return len(venues), nil
}

// collectAll pages through the remote venue listing until a short or empty
// page. A page failure aborts the loop with whatever was collected so far —
// a partial catalog beats none.
func (s *Service) collectAll(ctx context.Context) []Venue {
	var collected []Venue

	for page := 1; ; page++ {
		batch, err := s.venues.ListExchanges(ctx, page, catalogPageSize)
		if err != nil {
			s.logger.Warn("exchanges.page_fetch_failed",
				zap.Int("page", page),
				zap.Int("collected", len(collected)),
				zap.Error(err))
			break
		}
		if len(batch) == 0 {
			break
		}

		for _, raw := range batch {
			if raw.ID == "" {
				continue
			}
			name := raw.Name
			if name == "" {
				name = raw.ID
			}
			centralized := s.classifier.Classify(raw.ID, name, raw.Centralized)
			metrics.IncClassification(centralized)
			collected = append(collected, Venue{
				ID:                raw.ID,
				Name:              name,
				Centralized:       centralized,
				Country:           raw.Country,
				TrustScore:        raw.TrustScore,
				TradeVolume24hBTC: raw.TradeVolume24hBTC,
				YearEstablished:   raw.YearEstablished,
				Image:             raw.Image,
				URL:               raw.URL,
			})
		}

		if len(batch) < catalogPageSize {
			break
		}

		select {
		case <-time.After(s.pageDelay):
		case <-ctx.Done():
			s.logger.Warn("exchanges.collect_canceled",
				zap.Int("pages", page),
				zap.Int("collected", len(collected)))
			return s.dedupe(collected)
		}
	}

	return s.dedupe(collected)
}

// dedupe keeps the first-seen venue for each identifier.
func (s *Service) dedupe(venues []Venue) []Venue {
	seen := make(map[string]struct{}, len(venues))
	out := make([]Venue, 0, len(venues))
	for _, v := range venues {
		if _, dup := seen[v.ID]; dup {
			s.logger.Warn("exchanges.duplicate_venue_dropped",
				zap.String("id", v.ID),
				zap.String("name", v.Name))
			continue
		}
		seen[v.ID] = struct{}{}
		out = append(out, v)
	}
	return out
}

func sortByName(venues []Venue) {
	sort.SliceStable(venues, func(i, j int) bool {
		return strings.ToLower(venues[i].Name) < strings.ToLower(venues[j].Name)
	})
}
