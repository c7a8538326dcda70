package model

import "time"

// Entry is one item belonging to a Feed. Link is the identity key used
// for deduplication within a feed; entries without a link are never
// deduplicated. ReadOn is an application-level marker that refresh never
// touches.
type Entry struct {
	ID          int64
	FeedID      int64
	Title       *string
	Author      *string
	PubDate     *string
	Description *string
	Content     *string
	Link        *string
	ReadOn      *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
