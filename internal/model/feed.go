package model

import "time"

// Feed is a subscribed syndication source. FeedLink is the URL the feed
// was subscribed with; it is never changed after creation and refresh
// always re-fetches it.
type Feed struct {
	ID          int64
	Title       *string
	FeedLink    string
	SiteLink    *string
	RefreshedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
