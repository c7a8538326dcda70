// Package fetch owns the remote side of a feed: transport plus wire
// parsing, normalized into plain items the rest of the system consumes.
package fetch

import (
	"context"
	"errors"
)

var (
	// ErrFetch covers transport failures: DNS, connection, HTTP status.
	ErrFetch = errors.New("feed fetch failed")
	// ErrParse covers a malformed feed body.
	ErrParse = errors.New("feed parse failed")
)

// Item is one normalized remote feed item. A nil field was absent in
// the remote feed; Link in particular drives deduplication, and items
// with a nil Link are classified as new on every refresh.
type Item struct {
	Title       *string
	Author      *string
	PubDate     *string
	Description *string
	Content     *string
	Link        *string
}

// Result is a fetched feed: channel-level metadata plus items in the
// remote document's order.
type Result struct {
	Title    *string
	SiteLink *string
	Items    []Item
}

// Fetcher retrieves and parses a feed. Errors wrap ErrFetch or
// ErrParse; neither is retried by callers in this module.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Result, error)
}
