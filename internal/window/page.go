package window

import (
	"context"

	"photo-stream/internal/query"
)

// Page is one fetched slice of the listing in canonical forward order.
// Nil NextCursor/PrevCursor means the server saw no further data on
// that side at fetch time. Total is advisory and must never terminate
// a pagination loop; only a nil cursor does that.
type Page[T any] struct {
	Items      []T
	NextCursor *string
	PrevCursor *string
	Total      int
}

// Request describes one page fetch. At most one of Cursor and
// BeforeCursor is set; both empty requests the first page.
type Request struct {
	Cursor       string
	BeforeCursor string
	Limit        int
	Filters      query.Filters
}

// Fetcher is the boundary the Manager depends on: an HTTP call or a
// direct database query supplied by the caller. It may be slow and it
// may fail; retry, backoff, and cancellation are its responsibility.
// The Manager only sequences calls and never mutates its own state on
// a failed fetch.
type Fetcher[T any] interface {
	FetchPage(ctx context.Context, req Request) (*Page[T], error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc[T any] func(ctx context.Context, req Request) (*Page[T], error)

// FetchPage calls f.
func (f FetcherFunc[T]) FetchPage(ctx context.Context, req Request) (*Page[T], error) {
	return f(ctx, req)
}
