package newsletter

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"time"

	"opensox-api/internal/common/pagination"
	"opensox-api/internal/domain/entity"
	"opensox-api/internal/infra/cache"
	"opensox-api/internal/observability/metrics"
)

const (
	// FeedCacheKey holds the parsed feed.
	FeedCacheKey = "newsletters:feed"
	// DefaultCacheTTL is used when Service.CacheTTL is zero.
	DefaultCacheTTL = 10 * time.Minute

	contentKeyPrefix = "newsletters:content:"
	cacheName        = "newsletters"
)

// FeedSource returns every published newsletter. *newsfeed.Reader
// implements it.
type FeedSource interface {
	Fetch(ctx context.Context) ([]entity.Newsletter, error)
}

// ContentSource extracts the article body of a page. *newsfeed.ContentFetcher
// implements it.
type ContentSource interface {
	FetchContent(ctx context.Context, url string) (string, error)
}

// PaidChecker reports whether a user has paid access.
type PaidChecker interface {
	IsPaidUser(ctx context.Context, userID string) (bool, error)
}

// Service provides the newsletter reader use cases.
type Service struct {
	Feed FeedSource
	// Content is the page fallback for items without a body. nil disables it.
	Content ContentSource
	Subs    PaidChecker
	Cache   cache.Cache

	// CacheTTL defaults to DefaultCacheTTL.
	CacheTTL time.Duration
	// Pagination defaults to pagination.DefaultConfig().
	Pagination *pagination.Config
}

func (s *Service) cacheTTL() time.Duration {
	if s.CacheTTL > 0 {
		return s.CacheTTL
	}
	return DefaultCacheTTL
}

func (s *Service) pageConfig() pagination.Config {
	if s.Pagination != nil {
		return *s.Pagination
	}
	return pagination.DefaultConfig()
}

// List returns one page of newsletters matching f. Content is omitted from
// list items.
func (s *Service) List(ctx context.Context, userID string, f Filter) (pagination.Response[entity.Newsletter], error) {
	var zero pagination.Response[entity.Newsletter]
	if err := s.requirePaid(ctx, userID); err != nil {
		return zero, err
	}

	params := pagination.Params{Page: f.Page, Limit: f.Limit}.WithDefaults(s.pageConfig())

	items, err := s.items(ctx)
	if err != nil {
		return zero, err
	}
	selected, err := apply(items, f)
	if err != nil {
		return zero, err
	}
	for i := range selected {
		selected[i].Content = ""
	}
	return pagination.Slice(selected, params), nil
}

// Get returns the newsletter with the given slug, including its body. Items
// published without a body have it extracted from their page.
func (s *Service) Get(ctx context.Context, userID, slug string) (*entity.Newsletter, error) {
	if err := s.requirePaid(ctx, userID); err != nil {
		return nil, err
	}

	items, err := s.items(ctx)
	if err != nil {
		return nil, err
	}

	var found *entity.Newsletter
	for i := range items {
		if items[i].ID == slug {
			n := items[i]
			found = &n
			break
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}

	if found.Content == "" {
		found.Content = s.pageContent(ctx, found)
	}
	return found, nil
}

// Refresh re-reads the feed and replaces the cached copy.
func (s *Service) Refresh(ctx context.Context) (int, error) {
	items, err := s.Feed.Fetch(ctx)
	if err != nil {
		return 0, err
	}
	s.store(ctx, items)
	return len(items), nil
}

func (s *Service) requirePaid(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrUserIDRequired
	}
	paid, err := s.Subs.IsPaidUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("check subscription: %w", err)
	}
	if !paid {
		return ErrPremiumRequired
	}
	return nil
}

// items reads the feed through the cache.
func (s *Service) items(ctx context.Context) ([]entity.Newsletter, error) {
	if s.Cache != nil {
		var items []entity.Newsletter
		err := cache.GetJSON(ctx, s.Cache, FeedCacheKey, &items)
		switch {
		case err == nil:
			metrics.RecordCacheLookup(cacheName, "hit")
			return items, nil
		case errors.Is(err, cache.ErrMiss):
			metrics.RecordCacheLookup(cacheName, "miss")
		default:
			metrics.RecordCacheLookup(cacheName, "error")
			slog.Warn("newsletter cache read failed", slog.Any("error", err))
		}
	}

	items, err := s.Feed.Fetch(ctx)
	if err != nil {
		slog.Error("newsletter feed fetch failed", slog.Any("error", err))
		return nil, ErrFeedUnavailable
	}
	s.store(ctx, items)
	return items, nil
}

func (s *Service) store(ctx context.Context, items []entity.Newsletter) {
	if s.Cache == nil {
		return
	}
	if err := cache.SetJSON(ctx, s.Cache, FeedCacheKey, items, s.cacheTTL()); err != nil {
		slog.Warn("newsletter cache write failed", slog.Any("error", err))
	}
}

// pageContent returns the extracted page body of n, or its description as
// a paragraph when extraction is disabled or fails.
func (s *Service) pageContent(ctx context.Context, n *entity.Newsletter) string {
	fallback := ""
	if n.Description != "" {
		fallback = "<p>" + html.EscapeString(n.Description) + "</p>"
	}
	if s.Content == nil || n.Link == "" {
		return fallback
	}

	key := contentKeyPrefix + n.ID
	if s.Cache != nil {
		if raw, err := s.Cache.Get(ctx, key); err == nil {
			metrics.RecordCacheLookup(cacheName, "hit")
			return string(raw)
		}
	}

	content, err := s.Content.FetchContent(ctx, n.Link)
	if err != nil {
		slog.Warn("newsletter content extraction failed, using description",
			slog.String("slug", n.ID),
			slog.String("url", n.Link),
			slog.Any("error", err))
		return fallback
	}
	if s.Cache != nil {
		if err := s.Cache.Set(ctx, key, []byte(content), s.cacheTTL()); err != nil {
			slog.Warn("newsletter content cache write failed", slog.Any("error", err))
		}
	}
	return content
}
