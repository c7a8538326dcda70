// Package testutil provides a throwaway sqlite database and row seeding
// helpers for repository and service tests.
package testutil

import (
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"feedbox/internal/db"
	"feedbox/internal/model"
	"feedbox/internal/snowflake"
)

var snowflakeOnce sync.Once

// NewTestDB opens a migrated sqlite database in a test temp dir and
// closes it when the test finishes.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	snowflakeOnce.Do(func() {
		if err := snowflake.Init(1); err != nil {
			t.Fatalf("init snowflake: %v", err)
		}
	})

	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})
	return database
}

// SeedFeed inserts a feed row directly and returns its ID.
func SeedFeed(t *testing.T, database *sql.DB, feed model.Feed) int64 {
	t.Helper()

	id := snowflake.NextID()
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := database.Exec(
		`INSERT INTO feeds (id, title, feed_link, site_link, refreshed_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, NULL, ?, ?)`,
		id, nullable(feed.Title), feed.FeedLink, nullable(feed.SiteLink), now, now,
	)
	if err != nil {
		t.Fatalf("seed feed: %v", err)
	}
	return id
}

// SeedEntry inserts an entry row directly and returns its ID.
func SeedEntry(t *testing.T, database *sql.DB, entry model.Entry) int64 {
	t.Helper()

	id := snowflake.NextID()
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := database.Exec(
		`INSERT INTO entries (id, feed_id, title, author, pub_date, description, content, link, read_on, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL, ?, ?)`,
		id, entry.FeedID, nullable(entry.Title), nullable(entry.Author), nullable(entry.PubDate),
		nullable(entry.Description), nullable(entry.Content), nullable(entry.Link), now, now,
	)
	if err != nil {
		t.Fatalf("seed entry: %v", err)
	}
	return id
}

func nullable(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
