package gateway

import (
	"context"

	"github.com/google/go-github/v62/github"

	"github.com/Cy8erEgo/repo-analyzer/internal/planner"
)

// Commits lists commits on the requested branch. Date filtering happens
// server-side via since/until, so no local predicates are needed.
func (g *GitHubGateway) Commits(plan planner.Endpoint) *Paginator[*github.RepositoryCommit] {
	opts := github.CommitsListOptions{
		SHA:         plan.Params.Branch,
		Since:       plan.Params.Since,
		Until:       plan.Params.Until,
		ListOptions: github.ListOptions{PerPage: plan.Params.PerPage},
	}
	fetch := func(ctx context.Context, page int) ([]*github.RepositoryCommit, *github.Response, error) {
		o := opts
		o.Page = page
		commits, resp, err := g.restClient.Repositories.ListCommits(ctx, plan.Repo.Owner, plan.Repo.Name, &o)
		if err != nil {
			return nil, resp, classifyErr(err)
		}
		g.logger.Printf("fetched commits page %d (%d records)", page, len(commits))
		return commits, resp, nil
	}
	return NewPaginator(fetch, nil, nil)
}

// Contributors lists contributors ranked by contribution count. The
// endpoint has no timestamps, so neither date filtering nor early stop
// applies; every page is fetched.
func (g *GitHubGateway) Contributors(plan planner.Endpoint) *Paginator[*github.Contributor] {
	opts := github.ListContributorsOptions{
		ListOptions: github.ListOptions{PerPage: plan.Params.PerPage},
	}
	if plan.Params.Anonymous {
		opts.Anon = "1"
	}
	fetch := func(ctx context.Context, page int) ([]*github.Contributor, *github.Response, error) {
		o := opts
		o.Page = page
		contributors, resp, err := g.restClient.Repositories.ListContributors(ctx, plan.Repo.Owner, plan.Repo.Name, &o)
		if err != nil {
			return nil, resp, classifyErr(err)
		}
		g.logger.Printf("fetched contributors page %d (%d records)", page, len(contributors))
		return contributors, resp, nil
	}
	return NewPaginator(fetch, nil, nil)
}

// PullRequests lists pull requests based on the requested branch. The API
// cannot date-filter this listing, so records are filtered locally
// against the window; because the listing is requested created-descending,
// the first record older than the window ends the sequence early.
func (g *GitHubGateway) PullRequests(plan planner.Endpoint) *Paginator[*github.PullRequest] {
	opts := github.PullRequestListOptions{
		State:       plan.Params.State,
		Base:        plan.Params.Branch,
		Sort:        plan.Params.Sort,
		Direction:   plan.Params.Direction,
		ListOptions: github.ListOptions{PerPage: plan.Params.PerPage},
	}
	fetch := func(ctx context.Context, page int) ([]*github.PullRequest, *github.Response, error) {
		o := opts
		o.Page = page
		prs, resp, err := g.restClient.PullRequests.List(ctx, plan.Repo.Owner, plan.Repo.Name, &o)
		if err != nil {
			return nil, resp, classifyErr(err)
		}
		g.logger.Printf("fetched pull requests page %d (%d records)", page, len(prs))
		return prs, resp, nil
	}
	window := plan.Window
	keep := func(pr *github.PullRequest) bool {
		// Records without a creation timestamp pass through so the
		// aggregator can count them as skipped.
		return pr.CreatedAt == nil || window.Contains(pr.CreatedAt.Time)
	}
	var stop func(*github.PullRequest) bool
	if plan.Params.Sort == "created" && plan.Params.Direction == "desc" {
		stop = func(pr *github.PullRequest) bool {
			return pr.CreatedAt != nil && window.Before(pr.CreatedAt.Time)
		}
	}
	return NewPaginator(fetch, keep, stop)
}

// Issues lists issues created in the window. The listing also carries
// pull requests; those are dropped locally so the two endpoint kinds do
// not double-count.
func (g *GitHubGateway) Issues(plan planner.Endpoint) *Paginator[*github.Issue] {
	opts := github.IssueListByRepoOptions{
		State:       plan.Params.State,
		Sort:        plan.Params.Sort,
		Direction:   plan.Params.Direction,
		ListOptions: github.ListOptions{PerPage: plan.Params.PerPage},
	}
	fetch := func(ctx context.Context, page int) ([]*github.Issue, *github.Response, error) {
		o := opts
		o.Page = page
		issues, resp, err := g.restClient.Issues.ListByRepo(ctx, plan.Repo.Owner, plan.Repo.Name, &o)
		if err != nil {
			return nil, resp, classifyErr(err)
		}
		g.logger.Printf("fetched issues page %d (%d records)", page, len(issues))
		return issues, resp, nil
	}
	window := plan.Window
	keep := func(issue *github.Issue) bool {
		if issue.IsPullRequest() {
			return false
		}
		return issue.CreatedAt == nil || window.Contains(issue.CreatedAt.Time)
	}
	var stop func(*github.Issue) bool
	if plan.Params.Sort == "created" && plan.Params.Direction == "desc" {
		stop = func(issue *github.Issue) bool {
			return issue.CreatedAt != nil && window.Before(issue.CreatedAt.Time)
		}
	}
	return NewPaginator(fetch, keep, stop)
}
