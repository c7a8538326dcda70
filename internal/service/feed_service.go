package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"feedbox/internal/db"
	"feedbox/internal/fetch"
	"feedbox/internal/logger"
	"feedbox/internal/model"
	"feedbox/internal/reconcile"
	"feedbox/internal/repository"
)

// FeedService owns the feed lifecycle: Subscribe performs the first
// fetch and inserts every remote item unconditionally; Refresh re-fetches
// the stored feed link and inserts only the items reconciliation selects.
type FeedService interface {
	Subscribe(ctx context.Context, feedURL string) (int64, error)
	Refresh(ctx context.Context, feedID int64) ([]int64, error)
	GetFeed(ctx context.Context, feedID int64) (model.Feed, error)
	GetEntry(ctx context.Context, entryID int64) (model.Entry, error)
	ListEntries(ctx context.Context, feedID int64) ([]model.Entry, error)
	ListFeedTitles(ctx context.Context) ([]repository.FeedTitle, error)
}

type feedService struct {
	db      *sql.DB
	feeds   repository.FeedRepository
	entries repository.EntryRepository
	fetcher fetch.Fetcher

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewFeedService(database *sql.DB, feeds repository.FeedRepository, entries repository.EntryRepository, fetcher fetch.Fetcher) FeedService {
	return &feedService{
		db:      database,
		feeds:   feeds,
		entries: entries,
		fetcher: fetcher,
		locks:   make(map[int64]*sync.Mutex),
	}
}

// Subscribe fetches url, creates the feed record and bulk-inserts every
// remote item without reconciliation. A failed insert aborts the loop
// and leaves the feed with a partial entry set; there is no rollback.
func (s *feedService) Subscribe(ctx context.Context, feedURL string) (int64, error) {
	trimmedURL := strings.TrimSpace(feedURL)
	if !isValidURL(trimmedURL) {
		return 0, fmt.Errorf("%w: invalid feed url", fetch.ErrFetch)
	}

	fetched, err := s.fetcher.Fetch(ctx, trimmedURL)
	if err != nil {
		return 0, err
	}

	feed := model.Feed{
		Title:    fetched.Title,
		FeedLink: trimmedURL,
		SiteLink: fetched.SiteLink,
	}
	created, err := s.feeds.Create(ctx, feed)
	if err != nil {
		return 0, err
	}

	for _, item := range fetched.Items {
		if _, err := s.entries.Create(ctx, itemToEntry(created.ID, item)); err != nil {
			return 0, err
		}
	}

	logger.Info("subscribed to feed", "feed_id", created.ID, "url", trimmedURL, "entries", len(fetched.Items))
	return created.ID, nil
}

// Refresh re-fetches the feed's stored link and inserts only the items
// reconciliation classifies as new, in remote order, returning their ids.
// The link snapshot, the inserts and the refreshed_at bump run in one
// transaction, so a failed insert leaves no partial state. Refreshes of
// the same feed id are serialized; distinct ids run concurrently.
func (s *feedService) Refresh(ctx context.Context, feedID int64) ([]int64, error) {
	lock := s.feedLock(feedID)
	lock.Lock()
	defer lock.Unlock()

	feedLink, err := s.feeds.GetFeedLink(ctx, feedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get feed link: %w", err)
	}

	// The fetch is the only suspension point; no storage mutation happens
	// before it completes.
	fetched, err := s.fetcher.Fetch(ctx, feedLink)
	if err != nil {
		return nil, err
	}

	var insertedIDs []int64
	err = db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		feeds := repository.NewFeedRepository(tx)
		entries := repository.NewEntryRepository(tx)

		localLinks, err := entries.ListLinks(ctx, feedID)
		if err != nil {
			return err
		}

		for _, item := range reconcile.NewItems(fetched.Items, localLinks) {
			created, err := entries.Create(ctx, itemToEntry(feedID, item))
			if err != nil {
				return err
			}
			insertedIDs = append(insertedIDs, created.ID)
		}

		if err := feeds.UpdateRefreshedAt(ctx, feedID, time.Now().UTC()); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("refreshed feed", "feed_id", feedID, "new_entries", len(insertedIDs))
	return insertedIDs, nil
}

func (s *feedService) GetFeed(ctx context.Context, feedID int64) (model.Feed, error) {
	feed, err := s.feeds.GetByID(ctx, feedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Feed{}, ErrNotFound
		}
		return model.Feed{}, fmt.Errorf("get feed: %w", err)
	}
	return feed, nil
}

func (s *feedService) GetEntry(ctx context.Context, entryID int64) (model.Entry, error) {
	entry, err := s.entries.GetByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Entry{}, ErrNotFound
		}
		return model.Entry{}, fmt.Errorf("get entry: %w", err)
	}
	return entry, nil
}

func (s *feedService) ListEntries(ctx context.Context, feedID int64) ([]model.Entry, error) {
	return s.entries.ListByFeed(ctx, feedID)
}

func (s *feedService) ListFeedTitles(ctx context.Context) ([]repository.FeedTitle, error) {
	return s.feeds.ListTitles(ctx)
}

// feedLock returns the mutex serializing refreshes of one feed id.
// Locks are never discarded; subscribed feeds number in the dozens.
func (s *feedService) feedLock(feedID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[feedID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[feedID] = lock
	}
	return lock
}

func itemToEntry(feedID int64, item fetch.Item) model.Entry {
	return model.Entry{
		FeedID:      feedID,
		Title:       item.Title,
		Author:      item.Author,
		PubDate:     item.PubDate,
		Description: item.Description,
		Content:     item.Content,
		Link:        item.Link,
	}
}

func isValidURL(value string) bool {
	parsed, err := url.ParseRequestURI(value)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	return parsed.Host != ""
}
