package domain

// AuthorCount is one row of the top-contributors ranking.
type AuthorCount struct {
	Login   string `json:"login"`
	Commits int    `json:"commits"`
}

// CommitStats summarizes the commits fetched for the window and branch.
type CommitStats struct {
	Total           int            `json:"total"`
	PerAuthor       map[string]int `json:"per_author,omitempty"`
	ByDate          map[string]int `json:"by_date,omitempty"`
	Skipped         int            `json:"skipped"`
	TopContributors []AuthorCount  `json:"top_contributors,omitempty"`
}

// PullRequestStats summarizes pull requests targeting the branch.
type PullRequestStats struct {
	Total   int            `json:"total"`
	Open    int            `json:"open"`
	Closed  int            `json:"closed"`
	Stale   int            `json:"stale"`
	ByDate  map[string]int `json:"by_date,omitempty"`
	Skipped int            `json:"skipped"`
}

// IssueStats summarizes issues created in the window.
type IssueStats struct {
	Total   int            `json:"total"`
	Open    int            `json:"open"`
	Closed  int            `json:"closed"`
	Stale   int            `json:"stale"`
	ByDate  map[string]int `json:"by_date,omitempty"`
	Skipped int            `json:"skipped"`
}

// ContributorStats summarizes the repository's contributor listing,
// ranked by the API in contribution order.
type ContributorStats struct {
	Total         int            `json:"total"`
	Contributions int            `json:"contributions"`
	PerLogin      map[string]int `json:"per_login,omitempty"`
	Skipped       int            `json:"skipped"`
}

// LeadTimeStats summarizes creation-to-last-review durations for closed
// pull requests.
type LeadTimeStats struct {
	Count         int     `json:"count"`
	MeanSeconds   float64 `json:"mean_seconds"`
	MedianSeconds float64 `json:"median_seconds"`
	P90Seconds    float64 `json:"p90_seconds"`
}

// Report is the assembled result of one analysis run. Endpoints that
// failed outright are recorded in Failures keyed by endpoint kind, so a
// consumer can distinguish zero activity from a fetch failure.
type Report struct {
	Repository   RepoRef           `json:"repository"`
	Branch       string            `json:"branch"`
	Window       TimeWindow        `json:"window"`
	Commits      *CommitStats      `json:"commits,omitempty"`
	PullRequests *PullRequestStats `json:"pull_requests,omitempty"`
	Issues       *IssueStats       `json:"issues,omitempty"`
	Contributors *ContributorStats `json:"contributors,omitempty"`
	LeadTimes    *LeadTimeStats    `json:"lead_times,omitempty"`
	Failures     map[string]string `json:"failures,omitempty"`
}

// AllFailed reports whether no endpoint produced statistics.
func (r *Report) AllFailed() bool {
	return r.Commits == nil &&
		r.PullRequests == nil &&
		r.Issues == nil &&
		r.Contributors == nil &&
		r.LeadTimes == nil
}
