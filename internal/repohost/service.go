package repohost

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/chainboard/chainboard/internal/metrics"
)

const activityCacheKeyPrefix = "repohost:activity:"

// maxReposSummarized caps how many repositories get the expensive commit and
// contributor walk; the org listing itself is always complete.
const maxReposSummarized = 5

// Source lists repositories, commits and contributors for an organization.
type Source interface {
	ListOrgRepos(ctx context.Context, org string) ([]Repo, error)
	ListCommits(ctx context.Context, owner, repo string) ([]Commit, error)
	ListContributors(ctx context.Context, owner, repo string) ([]Contributor, error)
}

// KV is the slice of the store the service needs.
type KV interface {
	GetJSON(ctx context.Context, key string, dest any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Service produces cached development-activity summaries for organizations.
type Service struct {
	logger *zap.Logger
	source Source
	cache  KV
	ttl    time.Duration
}

func NewService(logger *zap.Logger, source Source, cache KV, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &Service{logger: logger, source: source, cache: cache, ttl: ttl}
}

// Activity returns the activity summary for an organization, served from
// cache when fresh.
func (s *Service) Activity(ctx context.Context, org string) (*ActivitySummary, error) {
	org = strings.ToLower(strings.TrimSpace(org))
	if org == "" {
		return nil, fmt.Errorf("organization is required")
	}
	key := activityCacheKeyPrefix + org

	var cached ActivitySummary
	if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
		metrics.IncCacheOp("repohost_activity", "hit")
		return &cached, nil
	}
	metrics.IncCacheOp("repohost_activity", "miss")

	summary, err := s.build(ctx, org)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetJSON(ctx, key, summary, s.ttl); err != nil {
		s.logger.Warn("repohost.activity_cache_write_failed",
			zap.String("org", org), zap.Error(err))
	}
	return summary, nil
}

func (s *Service) build(ctx context.Context, org string) (*ActivitySummary, error) {
	repos, err := s.source.ListOrgRepos(ctx, org)
	if err != nil {
		return nil, fmt.Errorf("list repos for %s: %w", org, err)
	}

	summary := &ActivitySummary{
		Org:         org,
		RepoCount:   len(repos),
		GeneratedAt: time.Now().UTC(),
	}
	for _, r := range repos {
		summary.TotalStars += r.Stars
	}

	// Most recently pushed, non-fork repos get the detailed walk.
	active := make([]Repo, 0, len(repos))
	for _, r := range repos {
		if !r.Fork {
			active = append(active, r)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].PushedAt.After(active[j].PushedAt)
	})
	if len(active) > maxReposSummarized {
		active = active[:maxReposSummarized]
	}

	for i, r := range active {
		commits, err := s.source.ListCommits(ctx, org, r.Name)
		if err != nil {
			s.logger.Warn("repohost.commit_listing_failed",
				zap.String("org", org),
				zap.String("repo", r.Name),
				zap.Error(err))
			continue
		}
		summary.TotalCommits += len(commits)
		summary.Repos = append(summary.Repos, RepoActivity{
			Name:          r.Name,
			Stars:         r.Stars,
			Forks:         r.Forks,
			Language:      r.Language,
			RecentCommits: len(commits),
		})

		// Contributors only for the most active repo.
		if i == 0 {
			contributors, err := s.source.ListContributors(ctx, org, r.Name)
			if err != nil {
				s.logger.Warn("repohost.contributor_listing_failed",
					zap.String("org", org),
					zap.String("repo", r.Name),
					zap.Error(err))
			} else {
				summary.TopContributors = contributors
			}
		}
	}

	return summary, nil
}
