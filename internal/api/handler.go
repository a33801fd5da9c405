package api

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/chainboard/chainboard/internal/exchanges"
	"github.com/chainboard/chainboard/internal/marketdata"
	"github.com/chainboard/chainboard/internal/metrics"
	"github.com/chainboard/chainboard/internal/repohost"
	"github.com/chainboard/chainboard/internal/tokens"
	"github.com/chainboard/chainboard/pkg/model"
)

const chainsCacheKey = "chains:catalog"

// ExchangeService serves the venue catalog and classification map.
type ExchangeService interface {
	Catalog(ctx context.Context) ([]exchanges.Venue, error)
	BuildMap(ctx context.Context, identifiers []string) (map[string]bool, error)
}

// TokenService serves token overviews and price charts.
type TokenService interface {
	Overview(ctx context.Context, id string) (*tokens.Overview, error)
	Chart(ctx context.Context, id string, days int) (*marketdata.MarketChart, error)
}

// ActivityService serves repository activity summaries.
type ActivityService interface {
	Activity(ctx context.Context, org string) (*repohost.ActivitySummary, error)
}

// AssessmentService serves generated token assessments.
type AssessmentService interface {
	Assess(ctx context.Context, tokenID string) (*model.Assessment, error)
	History(ctx context.Context, tokenID string, limit int) ([]model.Assessment, error)
}

// ChainLister lists the known chains/networks.
type ChainLister interface {
	ListAssetPlatforms(ctx context.Context) ([]marketdata.AssetPlatform, error)
}

// KV is the slice of the store the handler needs for the chains cache.
type KV interface {
	GetJSON(ctx context.Context, key string, dest any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

type Handler struct {
	Logger      *zap.Logger
	Exchanges   ExchangeService
	Tokens      TokenService
	Activity    ActivityService
	Assessments AssessmentService
	Chains      ChainLister
	Cache       KV
	ChainsTTL   time.Duration
}

// ListExchanges godoc
func (h *Handler) ListExchanges(c *fiber.Ctx) error {
	venues, err := h.Exchanges.Catalog(c.Context())
	if err != nil {
		h.Logger.Error("api.list_exchanges_failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"count":     len(venues),
		"exchanges": venues,
	})
}

// ClassifyExchanges godoc
func (h *Handler) ClassifyExchanges(c *fiber.Ctx) error {
	raw := c.Query("ids")
	if strings.TrimSpace(raw) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "query parameter 'ids' is required"})
	}

	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.ToLower(strings.TrimSpace(id)); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "query parameter 'ids' is required"})
	}

	m, err := h.Exchanges.BuildMap(c.Context(), ids)
	if err != nil {
		h.Logger.Error("api.classify_exchanges_failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}

	// Respond only with what was asked for, not the whole accumulated map.
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = m[id]
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"centralized": out})
}

// ListChains godoc
func (h *Handler) ListChains(c *fiber.Ctx) error {
	var cached []marketdata.AssetPlatform
	if err := h.Cache.GetJSON(c.Context(), chainsCacheKey, &cached); err == nil {
		metrics.IncCacheOp("chains", "hit")
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"count": len(cached), "chains": cached})
	}
	metrics.IncCacheOp("chains", "miss")

	chains, err := h.Chains.ListAssetPlatforms(c.Context())
	if err != nil {
		h.Logger.Error("api.list_chains_failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}

	ttl := h.ChainsTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if err := h.Cache.SetJSON(c.Context(), chainsCacheKey, chains, ttl); err != nil {
		h.Logger.Warn("api.chains_cache_write_failed", zap.Error(err))
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"count": len(chains), "chains": chains})
}

// GetToken godoc
func (h *Handler) GetToken(c *fiber.Ctx) error {
	id := c.Params("id")
	overview, err := h.Tokens.Overview(c.Context(), id)
	if err != nil {
		h.Logger.Error("api.token_overview_failed", zap.String("token", id), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusOK).JSON(overview)
}

// GetTokenChart godoc
func (h *Handler) GetTokenChart(c *fiber.Ctx) error {
	id := c.Params("id")
	days := c.QueryInt("days", 30)

	chart, err := h.Tokens.Chart(c.Context(), id, days)
	if err != nil {
		h.Logger.Error("api.token_chart_failed", zap.String("token", id), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusOK).JSON(chart)
}

// GetRepoActivity godoc
func (h *Handler) GetRepoActivity(c *fiber.Ctx) error {
	org := c.Params("org")
	summary, err := h.Activity.Activity(c.Context(), org)
	if err != nil {
		h.Logger.Error("api.repo_activity_failed", zap.String("org", org), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusOK).JSON(summary)
}

// GetAssessment godoc
func (h *Handler) GetAssessment(c *fiber.Ctx) error {
	id := c.Params("id")
	a, err := h.Assessments.Assess(c.Context(), id)
	if err != nil {
		h.Logger.Error("api.assessment_failed", zap.String("token", id), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusOK).JSON(a)
}

// GetAssessmentHistory godoc
func (h *Handler) GetAssessmentHistory(c *fiber.Ctx) error {
	id := c.Params("id")
	limit := c.QueryInt("limit", 20)

	history, err := h.Assessments.History(c.Context(), id, limit)
	if err != nil {
		h.Logger.Error("api.assessment_history_failed", zap.String("token", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"count":       len(history),
		"assessments": history,
	})
}
