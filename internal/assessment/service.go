package assessment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chainboard/chainboard/internal/llm"
	"github.com/chainboard/chainboard/internal/metrics"
	"github.com/chainboard/chainboard/internal/repohost"
	"github.com/chainboard/chainboard/internal/tokens"
	"github.com/chainboard/chainboard/pkg/model"
)

const assessmentCacheKeyPrefix = "assessments:"

const systemPrompt = `You are an analyst writing short risk assessments of crypto tokens
for a dashboard. You are given market listings data and, when available, a summary of the
project's open-source development activity. Reply with a JSON object only:
{"summary": "<2-3 sentences>", "risk_level": "low"|"medium"|"high", "highlights": ["<fact>", ...]}`

// verdict is the JSON shape the model is asked to produce.
type verdict struct {
	Summary    string   `json:"summary"`
	RiskLevel  string   `json:"risk_level"`
	Highlights []string `json:"highlights"`
}

// OverviewSource provides the market view of a token.
type OverviewSource interface {
	Overview(ctx context.Context, id string) (*tokens.Overview, error)
}

// ActivitySource provides development-activity summaries.
type ActivitySource interface {
	Activity(ctx context.Context, org string) (*repohost.ActivitySummary, error)
}

// Completer produces a model reply for a prompt pair.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Storage is the slice of the store the service needs: the response cache
// plus assessment history.
type Storage interface {
	GetJSON(ctx context.Context, key string, dest any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	SaveAssessment(ctx context.Context, a model.Assessment) error
	ListAssessments(ctx context.Context, tokenID string, limit int) ([]model.Assessment, error)
}

// EventSink publishes assessment lifecycle events.
type EventSink interface {
	PublishAssessmentCreated(ctx context.Context, a *model.Assessment) error
}

// Service generates, caches, and records token assessments.
type Service struct {
	logger    *zap.Logger
	overviews OverviewSource
	activity  ActivitySource
	completer Completer
	storage   Storage
	events    EventSink
	modelName string
	ttl       time.Duration
}

// NewService wires an assessment service. events may be nil when no event bus
// is configured.
func NewService(
	logger *zap.Logger,
	overviews OverviewSource,
	activity ActivitySource,
	completer Completer,
	storage Storage,
	events EventSink,
	modelName string,
	ttl time.Duration,
) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{
		logger:    logger,
		overviews: overviews,
		activity:  activity,
		completer: completer,
		storage:   storage,
		events:    events,
		modelName: modelName,
		ttl:       ttl,
	}
}

// Assess returns the current assessment for a token, generating one when the
// cache has none.
func (s *Service) Assess(ctx context.Context, tokenID string) (*model.Assessment, error) {
	tokenID = strings.ToLower(strings.TrimSpace(tokenID))
	if tokenID == "" {
		return nil, fmt.Errorf("token id is required")
	}
	key := assessmentCacheKeyPrefix + tokenID

	var cached model.Assessment
	if err := s.storage.GetJSON(ctx, key, &cached); err == nil {
		metrics.IncCacheOp("assessment", "hit")
		return &cached, nil
	}
	metrics.IncCacheOp("assessment", "miss")

	a, err := s.generate(ctx, tokenID)
	if err != nil {
		return nil, err
	}

	if err := s.storage.SetJSON(ctx, key, a, s.ttl); err != nil {
		s.logger.Warn("assessment.cache_write_failed",
			zap.String("token", tokenID), zap.Error(err))
	}
	if err := s.storage.SaveAssessment(ctx, *a); err != nil {
		s.logger.Warn("assessment.history_write_failed",
			zap.String("token", tokenID), zap.Error(err))
	}
	if s.events != nil {
		if err := s.events.PublishAssessmentCreated(ctx, a); err != nil {
			s.logger.Warn("assessment.event_publish_failed",
				zap.String("token", tokenID), zap.Error(err))
		}
	}
	return a, nil
}

// History lists previously generated assessments for a token.
func (s *Service) History(ctx context.Context, tokenID string, limit int) ([]model.Assessment, error) {
	return s.storage.ListAssessments(ctx, strings.ToLower(strings.TrimSpace(tokenID)), limit)
}

func (s *Service) generate(ctx context.Context, tokenID string) (*model.Assessment, error) {
	overview, err := s.overviews.Overview(ctx, tokenID)
	if err != nil {
		return nil, fmt.Errorf("token overview for %s: %w", tokenID, err)
	}

	var activity *repohost.ActivitySummary
	if overview.RepoOrg != "" && s.activity != nil {
		activity, err = s.activity.Activity(ctx, overview.RepoOrg)
		if err != nil {
			// Assessments degrade to market-only rather than failing.
			s.logger.Warn("assessment.activity_unavailable",
				zap.String("token", tokenID),
				zap.String("org", overview.RepoOrg),
				zap.Error(err))
			activity = nil
		}
	}

	reply, err := s.completer.Complete(ctx, systemPrompt, buildPrompt(overview, activity))
	if err != nil {
		return nil, fmt.Errorf("llm completion for %s: %w", tokenID, err)
	}

	v := parseVerdict(s.logger, tokenID, reply)
	a := &model.Assessment{
		ID:         uuid.New(),
		TokenID:    tokenID,
		Org:        overview.RepoOrg,
		Summary:    v.Summary,
		RiskLevel:  v.RiskLevel,
		Highlights: v.Highlights,
		Model:      s.modelName,
		CreatedAt:  time.Now().UTC(),
	}
	return a, nil
}

func buildPrompt(overview *tokens.Overview, activity *repohost.ActivitySummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Token: %s (%s)\n", overview.Name, strings.ToUpper(overview.Symbol))
	fmt.Fprintf(&b, "Price (USD): %s, market cap: %s, 24h change: %s%%\n",
		overview.PriceUSD, overview.MarketCapUSD, overview.PriceChangePct24h)
	fmt.Fprintf(&b, "Listed on %d centralized and %d decentralized venues.\n",
		overview.CEXCount, overview.DEXCount)

	if len(overview.Venues) > 0 {
		b.WriteString("Top listings:\n")
		max := len(overview.Venues)
		if max > 10 {
			max = 10
		}
		for _, v := range overview.Venues[:max] {
			kind := "DEX"
			if v.Centralized {
				kind = "CEX"
			}
			fmt.Fprintf(&b, "- %s (%s): %s\n", v.VenueName, kind, v.Pair)
		}
	}

	if activity == nil {
		b.WriteString("No development activity data available.\n")
	} else {
		fmt.Fprintf(&b, "Development activity for %s: %d repos, %d total stars, %d recent commits.\n",
			activity.Org, activity.RepoCount, activity.TotalStars, activity.TotalCommits)
		for _, r := range activity.Repos {
			fmt.Fprintf(&b, "- %s: %d stars, %d recent commits\n", r.Name, r.Stars, r.RecentCommits)
		}
	}
	return b.String()
}

// parseVerdict decodes the model reply defensively: a malformed reply becomes
// a plain-text summary instead of an error.
func parseVerdict(logger *zap.Logger, tokenID, reply string) verdict {
	raw, err := llm.ExtractJSON(reply)
	if err == nil {
		var v verdict
		if err := json.Unmarshal([]byte(raw), &v); err == nil && v.Summary != "" {
			v.RiskLevel = normalizeRisk(v.RiskLevel)
			return v
		}
	}

	logger.Warn("assessment.reply_not_json", zap.String("token", tokenID))
	return verdict{
		Summary:   strings.TrimSpace(reply),
		RiskLevel: "unknown",
	}
}

func normalizeRisk(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "low":
		return "low"
	case "medium", "moderate":
		return "medium"
	case "high":
		return "high"
	default:
		return "unknown"
	}
}
