// Package github implements the GitHubClient port using the go-github library.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/ericfisherdev/repowatch/internal/domain/model"
	"github.com/ericfisherdev/repowatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.GitHubClient = (*Client)(nil)

// Client implements the driven.GitHubClient port using the go-github library.
type Client struct {
	gh *gh.Client
}

// NewClient creates a GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client)
//
// An empty token is allowed; unauthenticated requests work under GitHub's
// lower anonymous rate limit.
func NewClient(token string) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)

	client := gh.NewClient(rateLimitClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}

	return &Client{gh: client}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return &Client{gh: client}, nil
}

// LookupRepository confirms the repository exists and returns its canonical
// display name. A 404 maps to driven.ErrRepoNotFound.
func (c *Client) LookupRepository(ctx context.Context, repoFullName string) (string, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return "", err
	}

	repository, resp, err := c.gh.Repositories.Get(ctx, owner, repo)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return "", fmt.Errorf("looking up %s: %w", repoFullName, driven.ErrRepoNotFound)
		}
		return "", fmt.Errorf("looking up %s: %w", repoFullName, err)
	}

	return repository.GetFullName(), nil
}

// FetchRecentItems lists the newest issues and pull requests for the
// repository, newest-first by creation time. Only the first page is
// requested: the reconciler's short-circuit walk never needs older items.
func (c *Client) FetchRecentItems(ctx context.Context, repoFullName string, perPage int) ([]model.Item, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	opts := &gh.IssueListByRepoOptions{
		State:     "all",
		Sort:      "created",
		Direction: "desc",
		ListOptions: gh.ListOptions{
			PerPage: perPage,
		},
	}

	issues, resp, err := c.gh.Issues.ListByRepo(ctx, owner, repo, opts)
	if err != nil {
		return nil, fmt.Errorf("listing items for %s: %w", repoFullName, err)
	}

	logRateLimit(resp, repoFullName, len(issues))

	items := make([]model.Item, 0, len(issues))
	for _, issue := range issues {
		items = append(items, mapItem(issue))
	}

	return items, nil
}

// FetchItemDetail fetches a single issue by number; when the issue carries a
// pull request linkage, the PR endpoint is consulted instead so diff stats
// and merge state are populated.
func (c *Client) FetchItemDetail(ctx context.Context, repoFullName string, number int) (*model.ItemDetail, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	issue, resp, err := c.gh.Issues.Get(ctx, owner, repo, number)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("fetching %s#%d: %w", repoFullName, number, driven.ErrRepoNotFound)
		}
		return nil, fmt.Errorf("fetching %s#%d: %w", repoFullName, number, err)
	}

	if issue.IsPullRequest() {
		pr, _, err := c.gh.PullRequests.Get(ctx, owner, repo, number)
		if err != nil {
			return nil, fmt.Errorf("fetching PR %s#%d: %w", repoFullName, number, err)
		}
		return mapPullRequestDetail(pr), nil
	}

	return mapIssueDetail(issue), nil
}

func mapItem(issue *gh.Issue) model.Item {
	return model.Item{
		Number:        issue.GetNumber(),
		Title:         issue.GetTitle(),
		State:         issue.GetState(),
		Author:        issue.GetUser().GetLogin(),
		CreatedAt:     issue.GetCreatedAt().Time,
		URL:           issue.GetHTMLURL(),
		IsPullRequest: issue.IsPullRequest(),
	}
}

func mapIssueDetail(issue *gh.Issue) *model.ItemDetail {
	detail := &model.ItemDetail{
		Number:    issue.GetNumber(),
		Title:     issue.GetTitle(),
		State:     issue.GetState(),
		Author:    issue.GetUser().GetLogin(),
		CreatedAt: issue.GetCreatedAt().Time,
		UpdatedAt: issue.GetUpdatedAt().Time,
		URL:       issue.GetHTMLURL(),
		Body:      issue.GetBody(),
	}

	for _, label := range issue.Labels {
		detail.Labels = append(detail.Labels, label.GetName())
	}
	for _, assignee := range issue.Assignees {
		detail.Assignees = append(detail.Assignees, assignee.GetLogin())
	}

	return detail
}

func mapPullRequestDetail(pr *gh.PullRequest) *model.ItemDetail {
	detail := &model.ItemDetail{
		Number:        pr.GetNumber(),
		Title:         pr.GetTitle(),
		State:         pr.GetState(),
		Author:        pr.GetUser().GetLogin(),
		CreatedAt:     pr.GetCreatedAt().Time,
		UpdatedAt:     pr.GetUpdatedAt().Time,
		URL:           pr.GetHTMLURL(),
		Body:          pr.GetBody(),
		IsPullRequest: true,
		Merged:        pr.GetMerged(),
		HeadLabel:     pr.GetHead().GetLabel(),
		BaseLabel:     pr.GetBase().GetLabel(),
		Additions:     pr.GetAdditions(),
		Deletions:     pr.GetDeletions(),
		ChangedFiles:  pr.GetChangedFiles(),
	}

	for _, label := range pr.Labels {
		detail.Labels = append(detail.Labels, label.GetName())
	}
	for _, assignee := range pr.Assignees {
		detail.Assignees = append(detail.Assignees, assignee.GetLogin())
	}
	for _, reviewer := range pr.RequestedReviewers {
		detail.RequestedReviewers = append(detail.RequestedReviewers, reviewer.GetLogin())
	}

	return detail
}

// logRateLimit logs API usage and warns when the remaining quota runs low.
func logRateLimit(resp *gh.Response, endpoint string, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Remaining < 100 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset", resp.Rate.Reset.Time,
		)
	}
}

// splitRepo splits "owner/repo" into its parts.
func splitRepo(fullName string) (string, string, error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo name %q: expected owner/repo", fullName)
	}
	return parts[0], parts[1], nil
}
