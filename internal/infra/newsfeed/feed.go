// Package newsfeed reads the published newsletter feed and, for items
// without a body, extracts the article from its page with readability.
package newsfeed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/sony/gobreaker"

	"opensox-api/internal/domain/entity"
	"opensox-api/internal/observability/metrics"
	"opensox-api/internal/resilience/circuitbreaker"
	"opensox-api/internal/resilience/retry"
)

// Reader downloads and parses the newsletter feed. It is safe for
// concurrent use.
type Reader struct {
	feedURL        string
	userAgent      string
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewReader creates a Reader for cfg.FeedURL. client may be nil.
func NewReader(cfg Config, client *http.Client) *Reader {
	if client == nil {
		client = &http.Client{Timeout: cfg.FeedTimeout}
	}
	return &Reader{
		feedURL:        cfg.FeedURL,
		userAgent:      cfg.UserAgent,
		client:         client,
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		retryConfig:    retry.FeedFetchConfig(),
	}
}

// Fetch returns every newsletter in the feed, newest first.
func (r *Reader) Fetch(ctx context.Context) ([]entity.Newsletter, error) {
	start := time.Now()
	items, err := retry.Do(ctx, r.retryConfig, func() ([]entity.Newsletter, error) {
		items, err := circuitbreaker.Run(r.circuitBreaker, func() ([]entity.Newsletter, error) {
			return r.doFetch(ctx)
		})
		if errors.Is(err, gobreaker.ErrOpenState) {
			slog.Warn("feed fetch circuit breaker open, request rejected",
				slog.String("service", r.circuitBreaker.Name()),
				slog.String("url", r.feedURL))
		}
		return items, err
	})
	if err != nil {
		return nil, fmt.Errorf("fetch newsletter feed: %w", err)
	}
	metrics.RecordFeedFetch(time.Since(start), len(items))
	return items, nil
}

func (r *Reader) doFetch(ctx context.Context) ([]entity.Newsletter, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = r.userAgent
	fp.Client = r.client

	feed, err := fp.ParseURLWithContext(r.feedURL, ctx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) {
			return nil, &retry.HTTPError{StatusCode: httpErr.StatusCode, Message: httpErr.Status}
		}
		return nil, err
	}
	return convertFeed(feed), nil
}

// convertFeed maps feed items to newsletters and sorts them newest first.
// Items with duplicate slugs keep the first occurrence.
func convertFeed(feed *gofeed.Feed) []entity.Newsletter {
	out := make([]entity.Newsletter, 0, len(feed.Items))
	seen := make(map[string]struct{}, len(feed.Items))
	for _, it := range feed.Items {
		n := convertItem(it)
		if n.ID == "" {
			continue
		}
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

func convertItem(it *gofeed.Item) entity.Newsletter {
	var date time.Time
	switch {
	case it.PublishedParsed != nil:
		date = *it.PublishedParsed
	case it.UpdatedParsed != nil:
		date = *it.UpdatedParsed
	}

	// Content優先、なければDescriptionを使用
	body := it.Content
	summary := htmlToText(it.Description)
	text := htmlToText(body)
	if text == "" {
		text = summary
	}
	if summary == "" {
		summary = excerpt(text, excerptRunes)
	}

	tags := make([]string, 0, len(it.Categories))
	for _, c := range it.Categories {
		if c = strings.TrimSpace(c); c != "" {
			tags = append(tags, c)
		}
	}

	return entity.Newsletter{
		ID:          slugFor(it.Link, it.Title),
		Title:       strings.TrimSpace(it.Title),
		Description: summary,
		Excerpt:     excerpt(text, excerptRunes),
		Content:     body,
		Link:        it.Link,
		Date:        date,
		ReadTime:    readTime(text),
		Tags:        tags,
	}
}

// Breaker exposes the feed circuit breaker for health reporting.
func (r *Reader) Breaker() *circuitbreaker.CircuitBreaker {
	return r.circuitBreaker
}
