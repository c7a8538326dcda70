// Package scheduler refreshes every subscribed feed on a fixed interval.
package scheduler

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"feedbox/internal/logger"
	"feedbox/internal/repository"
	"feedbox/internal/service"
)

// maxConcurrentRefreshes bounds how many feeds refresh at once; the
// per-feed serialization lives in the service.
const maxConcurrentRefreshes = 4

type Scheduler struct {
	feeds      repository.FeedRepository
	service    service.FeedService
	interval   time.Duration
	stopCh     chan struct{}
	wg         sync.WaitGroup
	cancelFunc context.CancelFunc // cancels the current refresh pass
	mu         sync.Mutex         // protects cancelFunc
}

func New(feeds repository.FeedRepository, svc service.FeedService, interval time.Duration) *Scheduler {
	return &Scheduler{
		feeds:    feeds,
		service:  svc,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.run()
	logger.Info("scheduler started", "interval_ms", s.interval.Milliseconds())
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
	logger.Info("scheduler stopped")
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	// Run immediately on start
	s.refreshAll()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.refreshAll()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Scheduler) refreshAll() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)

	s.mu.Lock()
	s.cancelFunc = cancel
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		s.cancelFunc = nil
		s.mu.Unlock()
	}()

	feeds, err := s.feeds.List(ctx)
	if err != nil {
		logger.Error("list feeds for refresh", "error", err)
		return
	}

	sem := semaphore.NewWeighted(maxConcurrentRefreshes)
	var wg sync.WaitGroup
	for _, feed := range feeds {
		if err := sem.Acquire(ctx, 1); err != nil {
			logger.Warn("refresh pass cancelled", "error", err)
			break
		}
		wg.Add(1)
		go func(feedID int64) {
			defer wg.Done()
			defer sem.Release(1)
			if _, err := s.service.Refresh(ctx, feedID); err != nil {
				logger.Error("refresh feed", "feed_id", feedID, "error", err)
			}
		}(feed.ID)
	}
	wg.Wait()
}
