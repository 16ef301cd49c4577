package pagination

import (
	"context"
	"errors"
)

// ErrInconsistentPage is returned when the server reports a page that does
// not follow the requested one, or a last page that regresses.
var ErrInconsistentPage = errors.New("inconsistent pagination")

// Envelope is one decoded page of a paginated response.
type Envelope[T any] struct {
	// Page is the 1-based number of this page.
	Page int

	// LastPage is the 1-based number of the last page.
	LastPage int

	// PerPage is the per-page item count reported by the server. It is only
	// used for the size estimate.
	PerPage int

	// Results holds the records of this page in server order.
	Results []T
}

// PageFetcher fetches a single page. Implementations perform exactly one
// request per call, keep no state between calls and never retry.
type PageFetcher[T any] interface {
	FetchPage(ctx context.Context, page int) (*Envelope[T], error)
}

// FetcherFunc adapts a function to the PageFetcher interface.
type FetcherFunc[T any] func(ctx context.Context, page int) (*Envelope[T], error)

// FetchPage calls f(ctx, page).
func (f FetcherFunc[T]) FetchPage(ctx context.Context, page int) (*Envelope[T], error) {
	return f(ctx, page)
}
