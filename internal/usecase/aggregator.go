// Package usecase contains the business logic of the application.
package usecase

import (
	"sort"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/montanaflynn/stats"

	"github.com/Cy8erEgo/repo-analyzer/internal/domain"
	"github.com/Cy8erEgo/repo-analyzer/internal/gateway"
)

const (
	// An open pull request older than this counts as stale.
	stalePullRequestDays = 30
	// An open issue older than this counts as stale.
	staleIssueDays = 14
)

const dateBucketLayout = "2006-01-02"

// dateBucket keys histogram entries by the record's UTC calendar date.
func dateBucket(t time.Time) string {
	return t.UTC().Format(dateBucketLayout)
}

func newCommitStats() *domain.CommitStats {
	return &domain.CommitStats{
		PerAuthor: make(map[string]int),
		ByDate:    make(map[string]int),
	}
}

// foldCommit accumulates one commit. A record without an author login or
// a commit timestamp is malformed and lands on the skipped counter
// instead of aborting the aggregation.
func foldCommit(s *domain.CommitStats, c *github.RepositoryCommit) {
	login := c.GetAuthor().GetLogin()
	date := c.GetCommit().GetAuthor().GetDate()
	if login == "" || date.IsZero() {
		s.Skipped++
		return
	}
	s.Total++
	s.PerAuthor[login]++
	s.ByDate[dateBucket(date.Time)]++
}

// finalizeCommitStats ranks authors by commit count descending (login
// ascending on ties) and keeps the top limit entries.
func finalizeCommitStats(s *domain.CommitStats, limit int) {
	ranking := make([]domain.AuthorCount, 0, len(s.PerAuthor))
	for login, count := range s.PerAuthor {
		ranking = append(ranking, domain.AuthorCount{Login: login, Commits: count})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Commits != ranking[j].Commits {
			return ranking[i].Commits > ranking[j].Commits
		}
		return ranking[i].Login < ranking[j].Login
	})
	if limit > 0 && len(ranking) > limit {
		ranking = ranking[:limit]
	}
	s.TopContributors = ranking
}

func newPullRequestStats() *domain.PullRequestStats {
	return &domain.PullRequestStats{ByDate: make(map[string]int)}
}

func foldPullRequest(s *domain.PullRequestStats, pr *github.PullRequest, staleBefore time.Time) {
	if pr.CreatedAt == nil || pr.GetState() == "" {
		s.Skipped++
		return
	}
	createdAt := pr.CreatedAt.Time
	s.Total++
	s.ByDate[dateBucket(createdAt)]++
	if pr.GetState() == "open" {
		s.Open++
		if createdAt.Before(staleBefore) {
			s.Stale++
		}
	} else {
		s.Closed++
	}
}

func newIssueStats() *domain.IssueStats {
	return &domain.IssueStats{ByDate: make(map[string]int)}
}

func foldIssue(s *domain.IssueStats, issue *github.Issue, staleBefore time.Time) {
	if issue.CreatedAt == nil || issue.GetState() == "" {
		s.Skipped++
		return
	}
	createdAt := issue.CreatedAt.Time
	s.Total++
	s.ByDate[dateBucket(createdAt)]++
	if issue.GetState() == "open" {
		s.Open++
		if createdAt.Before(staleBefore) {
			s.Stale++
		}
	} else {
		s.Closed++
	}
}

func newContributorStats() *domain.ContributorStats {
	return &domain.ContributorStats{PerLogin: make(map[string]int)}
}

func foldContributor(s *domain.ContributorStats, c *github.Contributor) {
	if c.GetLogin() == "" {
		s.Skipped++
		return
	}
	s.Total++
	s.Contributions += c.GetContributions()
	s.PerLogin[c.GetLogin()] += c.GetContributions()
}

// summarizeLeadTimes reduces lead-time samples to count/mean/median/p90.
func summarizeLeadTimes(samples []gateway.LeadTimeSample) (*domain.LeadTimeStats, error) {
	result := &domain.LeadTimeStats{Count: len(samples)}
	if len(samples) == 0 {
		return result, nil
	}

	seconds := make([]float64, 0, len(samples))
	for _, sample := range samples {
		seconds = append(seconds, sample.LastReviewedAt.Sub(sample.CreatedAt).Seconds())
	}

	mean, err := stats.Mean(seconds)
	if err != nil {
		return nil, err
	}
	median, err := stats.Median(seconds)
	if err != nil {
		return nil, err
	}
	p90, err := stats.Percentile(seconds, 90)
	if err != nil {
		return nil, err
	}

	result.MeanSeconds = mean
	result.MedianSeconds = median
	result.P90Seconds = p90
	return result, nil
}
