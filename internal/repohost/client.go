package repohost

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

const (
	rateLimitKey = "github"

	repoPageSize   = 100
	commitPageSize = 100

	// maxCommitPages bounds the commit walk; dashboards need recency, not
	// the full history.
	maxCommitPages = 5
)

// Client wraps low-level HTTP communication with the repository-hosting API.
type Client struct {
	logger    *zap.Logger
	exec      *httpclient.Executor
	baseURL   string
	token     string
	pageDelay time.Duration
}

// NewClient constructs a repo-hosting client. token may be empty for
// unauthenticated (heavily rate-limited) access.
func NewClient(logger *zap.Logger, rateMgr *rate.Manager, baseURL, token string) *Client {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	exec := httpclient.New(logger, rateMgr, httpClient, 2, "github", func(status int, body []byte) error {
		var errResp errorResponse
		_ = json.Unmarshal(body, &errResp)
		msg := errResp.Message
		if msg == "" {
			msg = string(body)
		}
		return fmt.Errorf("repo host returned %d: %s", status, msg)
	})
	return &Client{
		logger:    logger,
		exec:      exec,
		baseURL:   baseURL,
		token:     token,
		pageDelay: 200 * time.Millisecond,
	}
}

// ListOrgRepos retrieves every repository of an organization, paging until a
// short page.
func (c *Client) ListOrgRepos(ctx context.Context, org string) ([]Repo, error) {
	var all []Repo
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("page", strconv.Itoa(page))
		q.Set("per_page", strconv.Itoa(repoPageSize))
		q.Set("sort", "pushed")

		var batch []Repo
		if err := c.getJSON(ctx, "/orgs/"+url.PathEscape(org)+"/repos", q, &batch); err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < repoPageSize {
			return all, nil
		}

		select {
		case <-time.After(c.pageDelay):
		case <-ctx.Done():
			return all, ctx.Err()
		}
	}
}

// ListCommits retrieves recent commits of a repository, best-effort: a page
// failure after the first returns what was collected so far. The walk is
// capped at maxCommitPages.
func (c *Client) ListCommits(ctx context.Context, owner, repo string) ([]Commit, error) {
	var all []Commit
	for page := 1; page <= maxCommitPages; page++ {
		q := url.Values{}
		q.Set("page", strconv.Itoa(page))
		q.Set("per_page", strconv.Itoa(commitPageSize))

		var batch []Commit
		path := "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(repo) + "/commits"
		if err := c.getJSON(ctx, path, q, &batch); err != nil {
			if page == 1 {
				return nil, err
			}
			c.logger.Warn("github.commit_page_failed",
				zap.String("repo", owner+"/"+repo),
				zap.Int("page", page),
				zap.Int("collected", len(all)),
				zap.Error(err))
			return all, nil
		}
		all = append(all, batch...)
		if len(batch) < commitPageSize {
			return all, nil
		}

		select {
		case <-time.After(c.pageDelay):
		case <-ctx.Done():
			return all, ctx.Err()
		}
	}
	return all, nil
}

// ListContributors retrieves a repository's top contributors (single page).
func (c *Client) ListContributors(ctx context.Context, owner, repo string) ([]Contributor, error) {
	q := url.Values{}
	q.Set("per_page", "10")

	var out []Contributor
	path := "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(repo) + "/contributors"
	if err := c.getJSON(ctx, path, q, &out); err != nil {
		return nil, err
	}
	return out, nil
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
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return c.exec.DoJSON(ctx, req, rateLimitKey, out)
}
