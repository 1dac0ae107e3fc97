package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/shurcooL/githubv4"

	"github.com/Cy8erEgo/repo-analyzer/internal/domain"
)

// LeadTimeSample holds the timestamps needed to compute the lead time of
// a single closed pull request.
type LeadTimeSample struct {
	CreatedAt      time.Time
	LastReviewedAt time.Time
}

// prLeadTimeQuery fetches closed PRs with their review timestamps. A
// small page size keeps this heavier query within GraphQL node limits.
type prLeadTimeQuery struct {
	Search struct {
		PageInfo struct {
			HasNextPage bool
			EndCursor   githubv4.String
		}
		Edges []struct {
			Node struct {
				Typename    string `graphql:"__typename"`
				PullRequest struct {
					CreatedAt githubv4.DateTime
					Reviews   struct {
						Nodes []struct {
							SubmittedAt githubv4.DateTime
						}
					} `graphql:"reviews(first: 100, states: [COMMENTED, APPROVED, CHANGES_REQUESTED])"`
				} `graphql:"... on PullRequest"`
			}
		}
	} `graphql:"search(query: $query, type: ISSUE, first: 20, after: $cursor)"`
}

// PullRequestLeadTimes fetches creation and last-review timestamps for
// closed pull requests of the repository within the window. Reviewless
// PRs are excluded.
func (g *GitHubGateway) PullRequestLeadTimes(ctx context.Context, req domain.QueryRequest) ([]LeadTimeSample, error) {
	query := fmt.Sprintf("repo:%s is:pr is:closed", req.Repo.FullName())
	if r := req.Window.SearchRange(); r != "" {
		query += " created:" + r
	}

	variables := map[string]interface{}{
		"query":  githubv4.String(query),
		"cursor": (*githubv4.String)(nil),
	}

	var samples []LeadTimeSample
	for {
		var q prLeadTimeQuery
		if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
			return nil, fmt.Errorf("failed to execute GraphQL query for lead times: %w", err)
		}

		for _, edge := range q.Search.Edges {
			pr := edge.Node.PullRequest
			if edge.Node.Typename != "PullRequest" || len(pr.Reviews.Nodes) == 0 {
				continue
			}

			lastReviewedAt := pr.Reviews.Nodes[0].SubmittedAt.Time
			for _, review := range pr.Reviews.Nodes[1:] {
				if review.SubmittedAt.After(lastReviewedAt) {
					lastReviewedAt = review.SubmittedAt.Time
				}
			}
			samples = append(samples, LeadTimeSample{
				CreatedAt:      pr.CreatedAt.Time,
				LastReviewedAt: lastReviewedAt,
			})
		}

		if !q.Search.PageInfo.HasNextPage {
			break
		}
		variables["cursor"] = githubv4.NewString(q.Search.PageInfo.EndCursor)
		g.logger.Println("fetching next page of PRs for lead time analysis")
	}
	return samples, nil
}
