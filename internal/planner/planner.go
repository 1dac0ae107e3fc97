// Package planner maps a query request onto the set of API endpoints to
// fetch and their base parameters. Planning is deterministic: the same
// request always yields the same ordered plan.
package planner

import (
	"time"

	"github.com/Cy8erEgo/repo-analyzer/internal/domain"
)

// PageSize is the records-per-page requested from every listing endpoint.
const PageSize = 100

// Params are the base query parameters for one endpoint fetch. Zero
// values mean the parameter is not sent.
type Params struct {
	Branch    string
	Since     time.Time
	Until     time.Time
	State     string
	Sort      string
	Direction string
	Anonymous bool
	PerPage   int
}

// Endpoint is one entry of a plan: which kind of data to fetch from which
// repository, with which parameters.
type Endpoint struct {
	Kind   domain.EndpointKind
	Repo   domain.RepoRef
	Window domain.TimeWindow
	Params Params
}

// Plan builds the ordered fetch plan for a request: exactly one entry per
// supported endpoint kind. Each endpoint is fetched independently, so a
// failure on one never prevents attempting the others.
func Plan(req domain.QueryRequest) []Endpoint {
	return []Endpoint{
		{
			Kind:   domain.KindCommits,
			Repo:   req.Repo,
			Window: req.Window,
			Params: Params{
				Branch:  req.Branch,
				Since:   req.Window.Since(),
				Until:   req.Window.Until(),
				PerPage: PageSize,
			},
		},
		{
			Kind:   domain.KindContributors,
			Repo:   req.Repo,
			Window: req.Window,
			Params: Params{
				Anonymous: false,
				PerPage:   PageSize,
			},
		},
		{
			Kind:   domain.KindPullRequests,
			Repo:   req.Repo,
			Window: req.Window,
			Params: Params{
				Branch:    req.Branch,
				State:     "all",
				Sort:      "created",
				Direction: "desc",
				PerPage:   PageSize,
			},
		},
		{
			Kind:   domain.KindIssues,
			Repo:   req.Repo,
			Window: req.Window,
			Params: Params{
				State:     "all",
				Sort:      "created",
				Direction: "desc",
				PerPage:   PageSize,
			},
		},
	}
}
