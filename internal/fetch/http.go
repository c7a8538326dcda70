package fetch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"

	"feedbox/internal/config"
)

const defaultTimeout = 30 * time.Second

// Outbound fetches are rate limited so a tight refresh loop cannot
// hammer remote servers.
const (
	defaultRateLimit = rate.Limit(2)
	defaultRateBurst = 4
)

// HTTPFetcher fetches feeds over HTTP and parses them with gofeed.
type HTTPFetcher struct {
	client  *http.Client
	limiter *rate.Limiter
}

func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &HTTPFetcher{
		client:  client,
		limiter: rate.NewLimiter(defaultRateLimit, defaultRateBurst),
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (Result, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	req.Header.Set("User-Agent", config.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return Result{}, fmt.Errorf("%w: HTTP %d", ErrFetch, resp.StatusCode)
	}

	parsed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrParse, err)
	}

	result := Result{
		Title:    optional(parsed.Title),
		SiteLink: optional(parsed.Link),
		Items:    make([]Item, 0, len(parsed.Items)),
	}
	for _, item := range parsed.Items {
		result.Items = append(result.Items, normalizeItem(item))
	}

	return result, nil
}

func normalizeItem(item *gofeed.Item) Item {
	normalized := Item{
		Title:       optional(item.Title),
		PubDate:     optional(item.Published),
		Description: optional(item.Description),
		Content:     optional(item.Content),
		Link:        optional(item.Link),
	}
	if item.Author != nil {
		normalized.Author = optional(item.Author.Name)
	}
	return normalized
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
