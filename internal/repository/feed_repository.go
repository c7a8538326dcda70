package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"feedbox/internal/model"
	"feedbox/internal/snowflake"
)

// FeedTitle is the (id, title) projection returned by ListTitles.
type FeedTitle struct {
	FeedID int64
	Title  string
}

type FeedRepository interface {
	Create(ctx context.Context, feed model.Feed) (model.Feed, error)
	GetByID(ctx context.Context, id int64) (model.Feed, error)
	GetFeedLink(ctx context.Context, id int64) (string, error)
	List(ctx context.Context) ([]model.Feed, error)
	ListTitles(ctx context.Context) ([]FeedTitle, error)
	UpdateRefreshedAt(ctx context.Context, id int64, refreshedAt time.Time) error
}

type feedRepository struct {
	db dbtx
}

func NewFeedRepository(db dbtx) FeedRepository {
	return &feedRepository{db: db}
}

func (r *feedRepository) Create(ctx context.Context, feed model.Feed) (model.Feed, error) {
	feed.ID = snowflake.NextID()
	now := time.Now().UTC()
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO feeds (id, title, feed_link, site_link, refreshed_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, NULL, ?, ?)`,
		feed.ID,
		nullableString(feed.Title),
		feed.FeedLink,
		nullableString(feed.SiteLink),
		formatTime(now),
		formatTime(now),
	)
	if err != nil {
		return model.Feed{}, fmt.Errorf("create feed: %w", err)
	}
	feed.RefreshedAt = nil
	feed.CreatedAt = now
	feed.UpdatedAt = now
	return feed, nil
}

func (r *feedRepository) GetByID(ctx context.Context, id int64) (model.Feed, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, title, feed_link, site_link, refreshed_at, created_at, updated_at FROM feeds WHERE id = ?`, id)
	return scanFeed(row)
}

// GetFeedLink avoids loading the full record when refresh only needs the
// fetch URL.
func (r *feedRepository) GetFeedLink(ctx context.Context, id int64) (string, error) {
	var feedLink string
	err := r.db.QueryRowContext(ctx, `SELECT feed_link FROM feeds WHERE id = ?`, id).Scan(&feedLink)
	if err != nil {
		return "", err
	}
	return feedLink, nil
}

func (r *feedRepository) List(ctx context.Context) ([]model.Feed, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, title, feed_link, site_link, refreshed_at, created_at, updated_at FROM feeds`)
	if err != nil {
		return nil, fmt.Errorf("list feeds: %w", err)
	}
	defer rows.Close()

	var feeds []model.Feed
	for rows.Next() {
		feed, err := scanFeed(rows)
		if err != nil {
			return nil, err
		}
		feeds = append(feeds, feed)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feeds: %w", err)
	}

	return feeds, nil
}

// ListTitles sorts ascending by title. SQLite puts NULL titles first in
// ascending order; a NULL title maps to the empty string.
func (r *feedRepository) ListTitles(ctx context.Context) ([]FeedTitle, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, title FROM feeds ORDER BY title ASC`)
	if err != nil {
		return nil, fmt.Errorf("list feed titles: %w", err)
	}
	defer rows.Close()

	var titles []FeedTitle
	for rows.Next() {
		var ft FeedTitle
		var title sql.NullString
		if err := rows.Scan(&ft.FeedID, &title); err != nil {
			return nil, fmt.Errorf("scan feed title: %w", err)
		}
		ft.Title = title.String
		titles = append(titles, ft)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feed titles: %w", err)
	}

	return titles, nil
}

func (r *feedRepository) UpdateRefreshedAt(ctx context.Context, id int64, refreshedAt time.Time) error {
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE feeds SET refreshed_at = ?, updated_at = ? WHERE id = ?`,
		formatTime(refreshedAt),
		formatTime(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("update feed refreshed_at: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update feed refreshed_at: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func scanFeed(scanner interface {
	Scan(dest ...interface{}) error
}) (model.Feed, error) {
	var feed model.Feed
	var title sql.NullString
	var siteLink sql.NullString
	var refreshedAt sql.NullString
	var createdAt string
	var updatedAt string
	if err := scanner.Scan(
		&feed.ID,
		&title,
		&feed.FeedLink,
		&siteLink,
		&refreshedAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		return model.Feed{}, err
	}
	if title.Valid {
		feed.Title = &title.String
	}
	if siteLink.Valid {
		feed.SiteLink = &siteLink.String
	}
	var err error
	if refreshedAt.Valid {
		feed.RefreshedAt, err = ParseTimePtr(refreshedAt.String)
		if err != nil {
			return model.Feed{}, fmt.Errorf("parse feed refreshed_at: %w", err)
		}
	}
	feed.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return model.Feed{}, fmt.Errorf("parse feed created_at: %w", err)
	}
	feed.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return model.Feed{}, fmt.Errorf("parse feed updated_at: %w", err)
	}
	return feed, nil
}
