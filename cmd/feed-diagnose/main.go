// Package main diagnoses the newsletter feed: reachability, item count,
// newest entry and, optionally, which items need the page-content fallback.
// Usage: opensox-feed-diagnose [--url URL] [--content] [--output json]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"opensox-api/internal/infra/newsfeed"
)

// Diagnostic is the report for one feed.
type Diagnostic struct {
	URL          string       `json:"url"`
	Status       string       `json:"status"` // OK, EMPTY, ERROR
	ItemCount    int          `json:"item_count"`
	LatestDate   string       `json:"latest_date,omitempty"`
	ErrorMessage string       `json:"error_message,omitempty"`
	ResponseTime int64        `json:"response_time_ms"`
	Items        []ItemReport `json:"items,omitempty"`
}

// ItemReport describes one feed entry.
type ItemReport struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	HasContent  bool   `json:"has_content"`
	FetchedSize int    `json:"fetched_size,omitempty"`
	FetchError  string `json:"fetch_error,omitempty"`
}

func main() {
	var (
		feedURL      string
		fetchContent bool
		outputFormat string
		timeout      time.Duration
	)
	flag.StringVar(&feedURL, "url", "", "Feed URL (default: NEWSLETTER_FEED_URL)")
	flag.BoolVar(&fetchContent, "content", false, "Fetch pages for items without a body")
	flag.StringVar(&outputFormat, "output", "text", "Output format: text or json")
	flag.DurationVar(&timeout, "timeout", 60*time.Second, "Overall deadline")
	flag.Parse()

	cfg, _ := newsfeed.LoadConfigFromEnv()
	if feedURL != "" {
		cfg.FeedURL = feedURL
	}
	if cfg.FeedURL == "" {
		fmt.Fprintln(os.Stderr, "Error: no feed URL; pass --url or set NEWSLETTER_FEED_URL")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	diag := diagnose(ctx, cfg, fetchContent)

	if outputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(diag)
	} else {
		printReport(diag)
	}

	if diag.Status == "ERROR" {
		os.Exit(1)
	}
}

func diagnose(ctx context.Context, cfg newsfeed.Config, fetchContent bool) Diagnostic {
	diag := Diagnostic{URL: cfg.FeedURL}

	start := time.Now()
	items, err := newsfeed.NewReader(cfg, nil).Fetch(ctx)
	diag.ResponseTime = time.Since(start).Milliseconds()
	if err != nil {
		diag.Status = "ERROR"
		diag.ErrorMessage = err.Error()
		return diag
	}

	diag.ItemCount = len(items)
	if len(items) == 0 {
		diag.Status = "EMPTY"
		return diag
	}
	diag.Status = "OK"
	diag.LatestDate = items[0].Date.Format(time.RFC3339)

	var fetcher *newsfeed.ContentFetcher
	if fetchContent {
		fetcher = newsfeed.NewContentFetcher(cfg)
	}
	for _, it := range items {
		rep := ItemReport{Slug: it.ID, Title: it.Title, HasContent: it.Content != ""}
		if fetcher != nil && !rep.HasContent && it.Link != "" {
			body, err := fetcher.FetchContent(ctx, it.Link)
			if err != nil {
				rep.FetchError = err.Error()
			} else {
				rep.FetchedSize = len(body)
			}
		}
		diag.Items = append(diag.Items, rep)
	}
	return diag
}

func printReport(d Diagnostic) {
	fmt.Printf("Feed:      %s\n", d.URL)
	fmt.Printf("Status:    %s (%dms)\n", d.Status, d.ResponseTime)
	if d.ErrorMessage != "" {
		fmt.Printf("Error:     %s\n", d.ErrorMessage)
		return
	}
	fmt.Printf("Items:     %d\n", d.ItemCount)
	if d.LatestDate != "" {
		fmt.Printf("Latest:    %s\n", d.LatestDate)
	}
	for _, it := range d.Items {
		mark := "body"
		switch {
		case it.FetchError != "":
			mark = "fetch failed: " + it.FetchError
		case it.FetchedSize > 0:
			mark = fmt.Sprintf("fetched %d bytes", it.FetchedSize)
		case !it.HasContent:
			mark = "no body"
		}
		fmt.Printf("  - %-40s %s\n", it.Slug, mark)
	}
}
