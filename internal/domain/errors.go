package domain

import "errors"

var (
	// ErrInvalidInput indicates a malformed repository URL or date; the run
	// aborts before any network call.
	ErrInvalidInput = errors.New("invalid input")
	// ErrAuth indicates bad or missing credentials. Never retried.
	ErrAuth = errors.New("authentication failed")
	// ErrRateLimited indicates the API quota stayed exhausted after the
	// single reset wait. Fatal for the affected endpoint only.
	ErrRateLimited = errors.New("rate limit exhausted")
	// ErrNetwork indicates a transient connectivity or server failure that
	// survived all retries. Fatal for the affected endpoint only.
	ErrNetwork = errors.New("network failure")
)
