// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// DateLayout is the input format for --date-from and --date-to.
const DateLayout = "2006-01-02"

// EndpointKind is a category of queryable repository data.
type EndpointKind string

const (
	KindCommits      EndpointKind = "commits"
	KindContributors EndpointKind = "contributors"
	KindPullRequests EndpointKind = "pull_requests"
	KindIssues       EndpointKind = "issues"
	KindLeadTimes    EndpointKind = "lead_times"
)

// RepoRef identifies a single repository on a forge host.
// It is immutable once constructed.
type RepoRef struct {
	Host  string `json:"host"`
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// FullName returns the owner/name pair as used in API search qualifiers.
func (r RepoRef) FullName() string {
	return r.Owner + "/" + r.Name
}

// ParseRepoURL extracts a RepoRef from a repository web URL such as
// https://github.com/golang/go or git@-less forms with an explicit scheme.
// A URL that does not carry a host plus owner/name path fails with
// ErrInvalidInput.
func ParseRepoURL(raw string) (RepoRef, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return RepoRef{}, fmt.Errorf("%w: incorrect repository URL %q: %v", ErrInvalidInput, raw, err)
	}
	if u.Host == "" && !strings.Contains(raw, "://") {
		// Accept bare "github.com/owner/name".
		u, err = url.Parse("https://" + strings.TrimSpace(raw))
		if err != nil {
			return RepoRef{}, fmt.Errorf("%w: incorrect repository URL %q: %v", ErrInvalidInput, raw, err)
		}
	}
	if u.Host == "" {
		return RepoRef{}, fmt.Errorf("%w: incorrect repository URL %q", ErrInvalidInput, raw)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return RepoRef{}, fmt.Errorf("%w: incorrect repository URL %q", ErrInvalidInput, raw)
	}
	name := strings.TrimSuffix(parts[1], ".git")
	if name == "" {
		return RepoRef{}, fmt.Errorf("%w: incorrect repository URL %q", ErrInvalidInput, raw)
	}

	return RepoRef{Host: strings.ToLower(u.Host), Owner: parts[0], Name: name}, nil
}

// TimeWindow is an optionally-bounded date range. Bounds are normalized to
// midnight UTC and are inclusive on calendar dates: a record stamped
// anywhere on the To date still falls inside the window.
type TimeWindow struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

// ParseTimeWindow builds a TimeWindow from YYYY-MM-DD strings. Empty
// strings mean unbounded on that side. A malformed date or From > To
// fails with ErrInvalidInput.
func ParseTimeWindow(fromStr, toStr string) (TimeWindow, error) {
	var w TimeWindow
	if fromStr != "" {
		t, err := time.ParseInLocation(DateLayout, fromStr, time.UTC)
		if err != nil {
			return TimeWindow{}, fmt.Errorf("%w: incorrect date format %q, expected YYYY-MM-DD", ErrInvalidInput, fromStr)
		}
		w.From = &t
	}
	if toStr != "" {
		t, err := time.ParseInLocation(DateLayout, toStr, time.UTC)
		if err != nil {
			return TimeWindow{}, fmt.Errorf("%w: incorrect date format %q, expected YYYY-MM-DD", ErrInvalidInput, toStr)
		}
		w.To = &t
	}
	if w.From != nil && w.To != nil && w.From.After(*w.To) {
		return TimeWindow{}, fmt.Errorf("%w: date range %s..%s is inverted", ErrInvalidInput, fromStr, toStr)
	}
	return w, nil
}

// Contains reports whether the timestamp falls inside the window,
// inclusive on both calendar-date bounds.
func (w TimeWindow) Contains(t time.Time) bool {
	u := t.UTC()
	if w.From != nil && u.Before(*w.From) {
		return false
	}
	if w.To != nil && !u.Before(w.To.AddDate(0, 0, 1)) {
		return false
	}
	return true
}

// Before reports whether the timestamp is strictly before the lower
// bound. Always false for an unbounded window; used for the
// descending-order early stop.
func (w TimeWindow) Before(t time.Time) bool {
	return w.From != nil && t.UTC().Before(*w.From)
}

// Since returns the lower bound for server-side filtering, or the zero
// time when unbounded.
func (w TimeWindow) Since() time.Time {
	if w.From == nil {
		return time.Time{}
	}
	return *w.From
}

// Until returns the inclusive upper bound instant for server-side
// filtering (end of the To date), or the zero time when unbounded.
func (w TimeWindow) Until() time.Time {
	if w.To == nil {
		return time.Time{}
	}
	return w.To.AddDate(0, 0, 1).Add(-time.Second)
}

// SearchRange renders the window as a GitHub search qualifier value like
// "2024-01-01..2024-03-31", using "*" for an absent bound. Empty when the
// window is fully unbounded.
func (w TimeWindow) SearchRange() string {
	if w.From == nil && w.To == nil {
		return ""
	}
	from, to := "*", "*"
	if w.From != nil {
		from = w.From.Format(DateLayout)
	}
	if w.To != nil {
		to = w.To.Format(DateLayout)
	}
	return from + ".." + to
}

// QueryRequest fully determines what is fetched. It is immutable and
// passed by value downstream.
type QueryRequest struct {
	Repo   RepoRef
	Branch string
	Window TimeWindow
}
