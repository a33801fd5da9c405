package repohost

import "time"

// Repo is one repository in an organization listing.
type Repo struct {
	Name       string    `json:"name"`
	FullName   string    `json:"full_name"`
	Fork       bool      `json:"fork"`
	Stars      int       `json:"stargazers_count"`
	Forks      int       `json:"forks_count"`
	OpenIssues int       `json:"open_issues_count"`
	Language   string    `json:"language,omitempty"`
	PushedAt   time.Time `json:"pushed_at"`
}

// Commit is a single commit entry from the commits listing.
type Commit struct {
	SHA    string       `json:"sha"`
	Commit CommitDetail `json:"commit"`
}

type CommitDetail struct {
	Message string       `json:"message"`
	Author  CommitAuthor `json:"author"`
}

type CommitAuthor struct {
	Name string    `json:"name"`
	Date time.Time `json:"date"`
}

// Contributor is one entry from the contributors listing.
type Contributor struct {
	Login         string `json:"login"`
	Contributions int    `json:"contributions"`
}

// errorResponse is the upstream error body shape.
type errorResponse struct {
	Message string `json:"message,omitempty"`
}

// RepoActivity summarizes one repository's recent history.
type RepoActivity struct {
	Name          string `json:"name"`
	Stars         int    `json:"stars"`
	Forks         int    `json:"forks"`
	Language      string `json:"language,omitempty"`
	RecentCommits int    `json:"recent_commits"`
}

// ActivitySummary aggregates an organization's development activity.
type ActivitySummary struct {
	Org             string         `json:"org"`
	RepoCount       int            `json:"repo_count"`
	TotalStars      int            `json:"total_stars"`
	TotalCommits    int            `json:"total_commits"`
	Repos           []RepoActivity `json:"repos"`
	TopContributors []Contributor  `json:"top_contributors,omitempty"`
	GeneratedAt     time.Time      `json:"generated_at"`
}
