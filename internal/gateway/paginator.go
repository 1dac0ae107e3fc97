package gateway

import (
	"context"

	"github.com/google/go-github/v62/github"
)

// fetchPage retrieves one page of records; page is the 1-based page
// number. The returned response carries the continuation cursor
// (NextPage, 0 when absent).
type fetchPage[T any] func(ctx context.Context, page int) ([]T, *github.Response, error)

// Paginator turns a paginated listing endpoint into a lazy, finite,
// non-restartable sequence of records. Pages are fetched on demand; once
// Next reports done or an error, the sequence is over for good.
//
// keep locally filters records the endpoint cannot pre-filter
// server-side; stop ends the whole sequence at the first record that is
// past the window in the endpoint's documented sort order. Either may be
// nil.
type Paginator[T any] struct {
	fetch fetchPage[T]
	keep  func(T) bool
	stop  func(T) bool

	buf  []T
	page int
	done bool
	err  error
}

// NewPaginator builds a Paginator over fetch. Exported so tests and
// fakes can drive the aggregation pipeline from in-memory pages.
func NewPaginator[T any](fetch fetchPage[T], keep, stop func(T) bool) *Paginator[T] {
	return &Paginator[T]{fetch: fetch, keep: keep, stop: stop, page: 1}
}

// Next returns the next record of the sequence. ok is false when the
// sequence is exhausted; err is non-nil when a fetch failed, after which
// the paginator stays failed. The context is consulted before each page
// request, so a caller-supplied deadline aborts between pages without
// interrupting an in-flight request.
func (p *Paginator[T]) Next(ctx context.Context) (rec T, ok bool, err error) {
	var zero T
	for {
		if p.err != nil {
			return zero, false, p.err
		}
		if len(p.buf) == 0 {
			if p.done {
				return zero, false, nil
			}
			if err := ctx.Err(); err != nil {
				p.err = err
				return zero, false, err
			}
			records, resp, err := p.fetch(ctx, p.page)
			if err != nil {
				p.err = err
				return zero, false, err
			}
			if resp == nil || resp.NextPage == 0 || len(records) == 0 {
				p.done = true
			} else {
				p.page = resp.NextPage
			}
			p.buf = records
			if len(p.buf) == 0 {
				return zero, false, nil
			}
		}
		rec, p.buf = p.buf[0], p.buf[1:]
		if p.stop != nil && p.stop(rec) {
			p.done, p.buf = true, nil
			return zero, false, nil
		}
		if p.keep != nil && !p.keep(rec) {
			continue
		}
		return rec, true, nil
	}
}
