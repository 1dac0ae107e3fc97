// Package gateway provides a gateway to the GitHub API, abstracting away
// the underlying REST and GraphQL clients, pagination, rate limiting and
// retries.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/Cy8erEgo/repo-analyzer/internal/domain"
	"github.com/Cy8erEgo/repo-analyzer/internal/planner"
)

// Credentials carry the forge login and token. They are constructed once
// at startup and passed in explicitly; nothing deeper reads the
// environment.
type Credentials struct {
	Login string
	Token string
}

// Fetcher defines the behavior of a gateway for fetching repository data
// from GitHub.
type Fetcher interface {
	Commits(plan planner.Endpoint) *Paginator[*github.RepositoryCommit]
	Contributors(plan planner.Endpoint) *Paginator[*github.Contributor]
	PullRequests(plan planner.Endpoint) *Paginator[*github.PullRequest]
	Issues(plan planner.Endpoint) *Paginator[*github.Issue]
	PullRequestLeadTimes(ctx context.Context, req domain.QueryRequest) ([]LeadTimeSample, error)
}

var _ Fetcher = (*GitHubGateway)(nil)

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        *log.Logger
}

// NewGitHubGateway builds a gateway whose HTTP client stacks, outermost
// first: auth (basic when a login is given, token otherwise), the
// secondary rate-limit waiter, and the retry/primary-rate-limit
// transport. A non-github.com host routes both clients through the
// Enterprise API URLs.
func NewGitHubGateway(creds Credentials, host string, logger *log.Logger) (*GitHubGateway, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(
		newRetryTransport(nil),
		github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}

	var transport http.RoundTripper
	if creds.Login != "" {
		transport = &github.BasicAuthTransport{
			Username:  creds.Login,
			Password:  creds.Token,
			Transport: rateLimitWaiter,
		}
	} else {
		transport = &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: creds.Token}),
		}
	}
	httpClient := &http.Client{Transport: transport}

	restClient := github.NewClient(httpClient)
	graphqlClient := githubv4.NewClient(httpClient)
	if host != "" && host != "github.com" {
		restClient, err = restClient.WithEnterpriseURLs("https://"+host+"/api/v3/", "https://"+host+"/api/uploads/")
		if err != nil {
			return nil, fmt.Errorf("failed to configure enterprise URLs for %s: %w", host, err)
		}
		graphqlClient = githubv4.NewEnterpriseClient("https://"+host+"/api/graphql", httpClient)
	}

	return &GitHubGateway{
		restClient:    restClient,
		graphqlClient: graphqlClient,
		logger:        logger,
	}, nil
}

// classifyErr maps client errors onto the domain error taxonomy so the
// caller can tell credential, quota and connectivity failures apart.
func classifyErr(err error) error {
	if err == nil {
		return nil
	}

	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return fmt.Errorf("%w: %v", domain.ErrRateLimited, err)
	}

	var apiErr *github.ErrorResponse
	if errors.As(err, &apiErr) && apiErr.Response != nil {
		switch code := apiErr.Response.StatusCode; {
		case code == http.StatusUnauthorized || code == http.StatusForbidden:
			return fmt.Errorf("%w: %v", domain.ErrAuth, err)
		case code >= 500:
			return fmt.Errorf("%w: %v", domain.ErrNetwork, err)
		default:
			return err
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	return err
}
