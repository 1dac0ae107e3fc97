package gateway

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testTransport builds a retryTransport with fast backoff, a fixed clock
// and a recording sleep function.
func testTransport(now time.Time) (*retryTransport, *[]time.Duration) {
	slept := &[]time.Duration{}
	rt := newRetryTransport(nil)
	rt.initialWait = time.Millisecond
	rt.now = func() time.Time { return now }
	rt.sleep = func(d time.Duration) { *slept = append(*slept, d) }
	return rt, slept
}

func doGet(t *testing.T, rt *retryTransport, url string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	t.Cleanup(func() { drainBody(resp) })
	return resp
}

func TestRetryTransportRetriesServerErrors(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, "ok")
	}))
	defer server.Close()

	rt, slept := testTransport(time.Now())
	resp := doGet(t, rt, server.URL)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, calls)
	assert.Empty(t, *slept, "backoff must not use the rate-limit sleep")
}

func TestRetryTransportGivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	rt, _ := testTransport(time.Now())
	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	_, err = rt.RoundTrip(req)
	assert.Error(t, err)
	assert.Equal(t, maxAttempts, calls)
}

func TestRetryTransportDoesNotRetryClientErrors(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	rt, slept := testTransport(time.Now())
	resp := doGet(t, rt, server.URL)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *slept)
}

func TestRetryTransportWaitsOnceForRateLimitReset(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(now.Unix()+30, 10))
			w.WriteHeader(http.StatusForbidden)
			return
		}
		fmt.Fprint(w, "ok")
	}))
	defer server.Close()

	rt, slept := testTransport(now)
	resp := doGet(t, rt, server.URL)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, calls)
	require.Len(t, *slept, 1)
	assert.Equal(t, 31*time.Second, (*slept)[0])
}

func TestRetryTransportRetriesRateLimitOnlyOnce(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(now.Unix()+5, 10))
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	rt, slept := testTransport(now)
	resp := doGet(t, rt, server.URL)

	// Still limited after the wait: the 403 propagates for upstream
	// classification instead of looping.
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 2, calls)
	assert.Len(t, *slept, 1)
}

func TestRetryTransportIgnores403WithoutQuotaExhaustion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "42")
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	rt, slept := testTransport(time.Now())
	resp := doGet(t, rt, server.URL)

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Empty(t, *slept)
}

func TestRateLimitWaitClampsToCap(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	resp := &http.Response{
		StatusCode: http.StatusForbidden,
		Header: http.Header{
			"X-Ratelimit-Remaining": []string{"0"},
			"X-Ratelimit-Reset":     []string{strconv.FormatInt(now.Add(10*time.Hour).Unix(), 10)},
		},
	}
	wait, limited := rateLimitWait(resp, now)
	assert.True(t, limited)
	assert.Equal(t, maxRateLimitWait, wait)
}
