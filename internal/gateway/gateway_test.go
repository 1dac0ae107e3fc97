package gateway

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-github/v62/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cy8erEgo/repo-analyzer/internal/domain"
	"github.com/Cy8erEgo/repo-analyzer/internal/planner"
)

// setupTestGateway creates a GitHubGateway that communicates with a mock HTTP server.
func setupTestGateway(t *testing.T, handler http.Handler) (*GitHubGateway, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	restClient := github.NewClient(server.Client())
	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	restClient.BaseURL = baseURL

	gateway := &GitHubGateway{
		restClient: restClient,
		logger:     log.New(io.Discard, "", 0),
	}
	return gateway, server
}

func testPlan(t *testing.T, kind domain.EndpointKind) planner.Endpoint {
	t.Helper()
	window, err := domain.ParseTimeWindow("2024-01-01", "2024-03-31")
	require.NoError(t, err)
	req := domain.QueryRequest{
		Repo:   domain.RepoRef{Host: "github.com", Owner: "octo", Name: "demo"},
		Branch: "master",
		Window: window,
	}
	for _, endpoint := range planner.Plan(req) {
		if endpoint.Kind == kind {
			return endpoint
		}
	}
	t.Fatalf("no plan entry for kind %s", kind)
	return planner.Endpoint{}
}

// linkNext emits a Link header advertising the next page, the way the
// real API communicates its continuation cursor.
func linkNext(w http.ResponseWriter, r *http.Request, next int) {
	w.Header().Set("Link", fmt.Sprintf(`<https://api.github.com%s?page=%d>; rel="next"`, r.URL.Path, next))
}

func TestGatewayCommitsPagination(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/demo/commits", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "master", q.Get("sha"))
		assert.Equal(t, "100", q.Get("per_page"))
		assert.Equal(t, "2024-01-01T00:00:00Z", q.Get("since"))
		assert.Equal(t, "2024-03-31T23:59:59Z", q.Get("until"))

		switch q.Get("page") {
		case "", "1":
			linkNext(w, r, 2)
			fmt.Fprint(w, `[{"sha":"a1","author":{"login":"alice"},"commit":{"author":{"date":"2024-03-01T10:00:00Z"}}}]`)
		case "2":
			fmt.Fprint(w, `[{"sha":"b2","author":{"login":"bob"},"commit":{"author":{"date":"2024-02-01T10:00:00Z"}}}]`)
		default:
			t.Errorf("unexpected page %q", q.Get("page"))
		}
	})

	gateway, _ := setupTestGateway(t, mux)
	it := gateway.Commits(testPlan(t, domain.KindCommits))

	var shas []string
	for {
		commit, ok, err := it.Next(context.Background())
		require.NoError(t, err)
		if !ok {
			break
		}
		shas = append(shas, commit.GetSHA())
	}
	assert.Equal(t, []string{"a1", "b2"}, shas)
}

func TestGatewayPullRequestsEarlyStop(t *testing.T) {
	requests := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/demo/pulls", func(w http.ResponseWriter, r *http.Request) {
		requests++
		q := r.URL.Query()
		assert.Equal(t, "all", q.Get("state"))
		assert.Equal(t, "master", q.Get("base"))
		assert.Equal(t, "created", q.Get("sort"))
		assert.Equal(t, "desc", q.Get("direction"))

		// Second record predates the window; with created-descending order
		// the remaining pages cannot contain anything newer.
		linkNext(w, r, 2)
		fmt.Fprint(w, `[
			{"number":2,"state":"open","created_at":"2024-03-05T09:00:00Z"},
			{"number":1,"state":"closed","created_at":"2023-11-01T09:00:00Z"}
		]`)
	})

	gateway, _ := setupTestGateway(t, mux)
	it := gateway.PullRequests(testPlan(t, domain.KindPullRequests))

	var numbers []int
	for {
		pr, ok, err := it.Next(context.Background())
		require.NoError(t, err)
		if !ok {
			break
		}
		numbers = append(numbers, pr.GetNumber())
	}
	assert.Equal(t, []int{2}, numbers)
	assert.Equal(t, 1, requests, "iteration must stop before fetching page 2")
}

func TestGatewayIssuesDropsPullRequestsAndFiltersWindow(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/demo/issues", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"number":30,"state":"open","created_at":"2024-03-10T12:00:00Z"},
			{"number":29,"state":"open","created_at":"2024-03-09T12:00:00Z","pull_request":{"url":"https://api.github.com/repos/octo/demo/pulls/29"}},
			{"number":28,"state":"closed","created_at":"2024-02-01T12:00:00Z"},
			{"number":27,"state":"closed","created_at":"2023-12-01T12:00:00Z"}
		]`)
	})

	gateway, _ := setupTestGateway(t, mux)
	it := gateway.Issues(testPlan(t, domain.KindIssues))

	var numbers []int
	for {
		issue, ok, err := it.Next(context.Background())
		require.NoError(t, err)
		if !ok {
			break
		}
		numbers = append(numbers, issue.GetNumber())
	}
	assert.Equal(t, []int{30, 28}, numbers)
}

func TestGatewayContributors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/demo/contributors", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("anon"))
		fmt.Fprint(w, `[{"login":"alice","contributions":42},{"login":"bob","contributions":7}]`)
	})

	gateway, _ := setupTestGateway(t, mux)
	it := gateway.Contributors(testPlan(t, domain.KindContributors))

	total := 0
	for {
		contributor, ok, err := it.Next(context.Background())
		require.NoError(t, err)
		if !ok {
			break
		}
		total += contributor.GetContributions()
	}
	assert.Equal(t, 49, total)
}

func TestGatewayClassifiesEndpointErrors(t *testing.T) {
	testCases := []struct {
		name        string
		status      int
		expectedErr error
	}{
		{name: "bad credentials", status: http.StatusUnauthorized, expectedErr: domain.ErrAuth},
		{name: "forbidden", status: http.StatusForbidden, expectedErr: domain.ErrAuth},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gateway, _ := setupTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				fmt.Fprint(w, `{"message":"nope"}`)
			}))

			it := gateway.Commits(testPlan(t, domain.KindCommits))
			_, ok, err := it.Next(context.Background())
			assert.False(t, ok)
			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}

func TestClassifyErr(t *testing.T) {
	rateErr := &github.RateLimitError{
		Response: &http.Response{
			StatusCode: http.StatusForbidden,
			Request:    &http.Request{Method: http.MethodGet, URL: &url.URL{}},
		},
	}
	assert.ErrorIs(t, classifyErr(rateErr), domain.ErrRateLimited)

	urlErr := &url.Error{Op: "Get", URL: "https://api.github.com", Err: fmt.Errorf("connection refused")}
	assert.ErrorIs(t, classifyErr(urlErr), domain.ErrNetwork)

	serverErr := &github.ErrorResponse{Response: &http.Response{StatusCode: http.StatusBadGateway}}
	assert.ErrorIs(t, classifyErr(serverErr), domain.ErrNetwork)

	notFound := &github.ErrorResponse{Response: &http.Response{StatusCode: http.StatusNotFound}}
	err := classifyErr(notFound)
	assert.NotErrorIs(t, err, domain.ErrAuth)
	assert.NotErrorIs(t, err, domain.ErrNetwork)

	assert.NoError(t, classifyErr(nil))
}
