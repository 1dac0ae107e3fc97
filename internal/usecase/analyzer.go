package usecase

import (
	"context"
	"log"
	"time"

	"github.com/Cy8erEgo/repo-analyzer/internal/domain"
	"github.com/Cy8erEgo/repo-analyzer/internal/gateway"
	"github.com/Cy8erEgo/repo-analyzer/internal/planner"
)

// Options tune a single analysis run.
type Options struct {
	// TopContributors caps the commit-authorship ranking; 0 keeps everyone.
	TopContributors int
	// LeadTime enables the extra pull-request lead-time query.
	LeadTime bool
}

// Analyzer is the use case for collecting repository statistics. It walks
// the endpoint plan sequentially, folds each endpoint's records and
// assembles the final report.
type Analyzer struct {
	fetcher gateway.Fetcher
	logger  *log.Logger
	// now is injectable so stale thresholds are deterministic in tests.
	now func() time.Time
}

// NewAnalyzer creates a new Analyzer instance.
func NewAnalyzer(fetcher gateway.Fetcher, logger *log.Logger) *Analyzer {
	return &Analyzer{
		fetcher: fetcher,
		logger:  logger,
		now:     time.Now,
	}
}

// Run fetches every planned endpoint and assembles the report. Endpoints
// are independent: a failed fetch is recorded in the report's failures
// instead of aborting the run, so zero activity and "could not fetch"
// stay distinguishable. The returned report is complete even when some
// endpoints failed; callers decide what a fully-failed run means.
func (a *Analyzer) Run(ctx context.Context, req domain.QueryRequest, opts Options) *domain.Report {
	a.logger.Printf("analyzing %s (branch %s)", req.Repo.FullName(), req.Branch)

	report := &domain.Report{
		Repository: req.Repo,
		Branch:     req.Branch,
		Window:     req.Window,
		Failures:   make(map[string]string),
	}

	for _, endpoint := range planner.Plan(req) {
		var err error
		switch endpoint.Kind {
		case domain.KindCommits:
			report.Commits, err = a.collectCommits(ctx, endpoint, opts.TopContributors)
		case domain.KindContributors:
			report.Contributors, err = a.collectContributors(ctx, endpoint)
		case domain.KindPullRequests:
			report.PullRequests, err = a.collectPullRequests(ctx, endpoint)
		case domain.KindIssues:
			report.Issues, err = a.collectIssues(ctx, endpoint)
		}
		if err != nil {
			a.logger.Printf("endpoint %s failed: %v", endpoint.Kind, err)
			report.Failures[string(endpoint.Kind)] = err.Error()
		}
	}

	if opts.LeadTime {
		leadTimes, err := a.collectLeadTimes(ctx, req)
		if err != nil {
			a.logger.Printf("endpoint %s failed: %v", domain.KindLeadTimes, err)
			report.Failures[string(domain.KindLeadTimes)] = err.Error()
		} else {
			report.LeadTimes = leadTimes
		}
	}

	a.logger.Println("aggregation complete")
	return report
}

func (a *Analyzer) collectCommits(ctx context.Context, endpoint planner.Endpoint, top int) (*domain.CommitStats, error) {
	result := newCommitStats()
	it := a.fetcher.Commits(endpoint)
	for {
		commit, ok, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		foldCommit(result, commit)
	}
	finalizeCommitStats(result, top)
	return result, nil
}

func (a *Analyzer) collectContributors(ctx context.Context, endpoint planner.Endpoint) (*domain.ContributorStats, error) {
	result := newContributorStats()
	it := a.fetcher.Contributors(endpoint)
	for {
		contributor, ok, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		foldContributor(result, contributor)
	}
	return result, nil
}

func (a *Analyzer) collectPullRequests(ctx context.Context, endpoint planner.Endpoint) (*domain.PullRequestStats, error) {
	result := newPullRequestStats()
	staleBefore := a.now().AddDate(0, 0, -stalePullRequestDays)
	it := a.fetcher.PullRequests(endpoint)
	for {
		pr, ok, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		foldPullRequest(result, pr, staleBefore)
	}
	return result, nil
}

func (a *Analyzer) collectIssues(ctx context.Context, endpoint planner.Endpoint) (*domain.IssueStats, error) {
	result := newIssueStats()
	staleBefore := a.now().AddDate(0, 0, -staleIssueDays)
	it := a.fetcher.Issues(endpoint)
	for {
		issue, ok, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		foldIssue(result, issue, staleBefore)
	}
	return result, nil
}

func (a *Analyzer) collectLeadTimes(ctx context.Context, req domain.QueryRequest) (*domain.LeadTimeStats, error) {
	samples, err := a.fetcher.PullRequestLeadTimes(ctx, req)
	if err != nil {
		return nil, err
	}
	return summarizeLeadTimes(samples)
}
