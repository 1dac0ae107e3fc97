package gateway

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	maxAttempts      = 3
	backoffBase      = 1 * time.Second
	backoffCap       = 30 * time.Second
	maxRateLimitWait = 15 * time.Minute
)

// retryTransport retries transient failures (5xx, transport errors) with
// exponential backoff, and handles primary rate limiting: when the quota
// is exhausted it sleeps until the advertised reset time and retries the
// request exactly once per limit event. A still-limited response after
// the wait is returned as-is for upstream classification.
type retryTransport struct {
	base        http.RoundTripper
	initialWait time.Duration
	// sleep and now are injectable for tests.
	sleep func(time.Duration)
	now   func() time.Time
}

func newRetryTransport(base http.RoundTripper) *retryTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &retryTransport{
		base:        base,
		initialWait: backoffBase,
		sleep:       time.Sleep,
		now:         time.Now,
	}
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// A request whose body cannot be replayed gets a single attempt.
	if req.Body != nil && req.GetBody == nil {
		return t.base.RoundTrip(req)
	}

	resp, err := t.roundTripRetry(req)
	if err != nil {
		return nil, err
	}
	if wait, limited := rateLimitWait(resp, t.now()); limited {
		drainBody(resp)
		t.sleep(wait)
		return t.roundTripRetry(req)
	}
	return resp, nil
}

// roundTripRetry issues the request, retrying 5xx responses and transport
// errors up to maxAttempts total attempts.
func (t *retryTransport) roundTripRetry(req *http.Request) (*http.Response, error) {
	var resp *http.Response

	operation := func() error {
		r, err := t.attempt(req)
		if err != nil {
			return err
		}
		if r.StatusCode >= 500 {
			drainBody(r)
			return fmt.Errorf("server error: %s", r.Status)
		}
		resp = r
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = t.initialWait
	bo.MaxInterval = backoffCap
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, maxAttempts-1), req.Context())

	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return resp, nil
}

// attempt sends one clone of the request, rewinding the body if present.
func (t *retryTransport) attempt(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		r.Body = body
	}
	return t.base.RoundTrip(r)
}

// rateLimitWait reports whether the response signals an exhausted primary
// quota and, if so, how long to wait for the advertised reset.
func rateLimitWait(resp *http.Response, now time.Time) (time.Duration, bool) {
	if resp.StatusCode != http.StatusForbidden && resp.StatusCode != http.StatusTooManyRequests {
		return 0, false
	}
	if resp.Header.Get("X-RateLimit-Remaining") != "0" {
		return 0, false
	}
	wait := time.Minute
	if secs, err := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64); err == nil {
		// One extra second so the retry lands after the reset tick.
		wait = time.Unix(secs, 0).Sub(now) + time.Second
	}
	if wait < time.Second {
		wait = time.Second
	}
	if wait > maxRateLimitWait {
		wait = maxRateLimitWait
	}
	return wait, true
}

func drainBody(resp *http.Response) {
	if resp.Body == nil {
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
