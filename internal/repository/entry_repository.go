package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"feedbox/internal/model"
	"feedbox/internal/snowflake"
)

type EntryRepository interface {
	Create(ctx context.Context, entry model.Entry) (model.Entry, error)
	GetByID(ctx context.Context, id int64) (model.Entry, error)
	ListByFeed(ctx context.Context, feedID int64) ([]model.Entry, error)
	ListLinks(ctx context.Context, feedID int64) (map[string]struct{}, error)
}

type entryRepository struct {
	db dbtx
}

func NewEntryRepository(db dbtx) EntryRepository {
	return &entryRepository{db: db}
}

func (r *entryRepository) Create(ctx context.Context, entry model.Entry) (model.Entry, error) {
	entry.ID = snowflake.NextID()
	now := time.Now().UTC()
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO entries (id, feed_id, title, author, pub_date, description, content, link, read_on, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL, ?, ?)`,
		entry.ID,
		entry.FeedID,
		nullableString(entry.Title),
		nullableString(entry.Author),
		nullableString(entry.PubDate),
		nullableString(entry.Description),
		nullableString(entry.Content),
		nullableString(entry.Link),
		formatTime(now),
		formatTime(now),
	)
	if err != nil {
		return model.Entry{}, fmt.Errorf("create entry: %w", err)
	}
	entry.ReadOn = nil
	entry.CreatedAt = now
	entry.UpdatedAt = now
	return entry, nil
}

func (r *entryRepository) GetByID(ctx context.Context, id int64) (model.Entry, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, feed_id, title, author, pub_date, description, content, link, read_on, created_at, updated_at
		 FROM entries WHERE id = ?`,
		id,
	)
	return scanEntry(row)
}

// ListByFeed returns entries in storage order; callers needing a
// particular order sort themselves.
func (r *entryRepository) ListByFeed(ctx context.Context, feedID int64) ([]model.Entry, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, feed_id, title, author, pub_date, description, content, link, read_on, created_at, updated_at
		 FROM entries WHERE feed_id = ?`,
		feedID,
	)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []model.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return entries, nil
}

// ListLinks returns the distinct set of non-NULL links stored for a
// feed. Run it on the same dbtx as the inserts that follow for a
// consistent snapshot.
func (r *entryRepository) ListLinks(ctx context.Context, feedID int64) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT DISTINCT link FROM entries WHERE feed_id = ? AND link IS NOT NULL`,
		feedID,
	)
	if err != nil {
		return nil, fmt.Errorf("list entry links: %w", err)
	}
	defer rows.Close()

	links := make(map[string]struct{})
	for rows.Next() {
		var link string
		if err := rows.Scan(&link); err != nil {
			return nil, fmt.Errorf("scan entry link: %w", err)
		}
		links[link] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entry links: %w", err)
	}

	return links, nil
}

func scanEntry(scanner interface {
	Scan(dest ...interface{}) error
}) (model.Entry, error) {
	var e model.Entry
	var title, author, pubDate, description, content, link, readOn sql.NullString
	var createdAt, updatedAt string

	err := scanner.Scan(
		&e.ID, &e.FeedID, &title, &author, &pubDate, &description, &content, &link,
		&readOn, &createdAt, &updatedAt,
	)
	if err != nil {
		return model.Entry{}, err
	}

	if title.Valid {
		e.Title = &title.String
	}
	if author.Valid {
		e.Author = &author.String
	}
	if pubDate.Valid {
		e.PubDate = &pubDate.String
	}
	if description.Valid {
		e.Description = &description.String
	}
	if content.Valid {
		e.Content = &content.String
	}
	if link.Valid {
		e.Link = &link.String
	}
	if readOn.Valid {
		e.ReadOn, err = ParseTimePtr(readOn.String)
		if err != nil {
			return model.Entry{}, fmt.Errorf("parse entry read_on: %w", err)
		}
	}
	e.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return model.Entry{}, fmt.Errorf("parse entry created_at: %w", err)
	}
	e.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return model.Entry{}, fmt.Errorf("parse entry updated_at: %w", err)
	}

	return e, nil
}
