package newsfeed

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"

	"github.com/go-shiori/go-readability"

	"opensox-api/internal/infra/avatar"
	"opensox-api/internal/observability/metrics"
	"opensox-api/internal/resilience/circuitbreaker"
)

var (
	ErrTooManyRedirects  = errors.New("too many redirects")
	ErrBodyTooLarge      = errors.New("response body too large")
	ErrTimeout           = errors.New("content fetch timed out")
	ErrReadabilityFailed = errors.New("readability extraction failed")
)

// ContentFetcher downloads a newsletter page and extracts the article body
// with go-readability.
//
// Every URL, redirect targets included, is checked against private address
// ranges before it is requested, and again at dial time. Thread safety: safe for concurrent use.
type ContentFetcher struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	resolver       *net.Resolver
	config         Config
}

// NewContentFetcher creates a ContentFetcher from cfg.
func NewContentFetcher(cfg Config) *ContentFetcher {
	f := &ContentFetcher{
		circuitBreaker: circuitbreaker.New(circuitbreaker.ContentFetchConfig()),
		resolver:       net.DefaultResolver,
		config:         cfg,
	}
	dialer := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}
	if cfg.DenyPrivateIPs {
		dialer.Control = guardDial
	}
	f.client = &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			DialContext:         dialer.DialContext,
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > f.config.MaxRedirects {
				return fmt.Errorf("%w: %d redirects", ErrTooManyRedirects, len(via))
			}
			if err := validateURL(req.Context(), f.resolver, req.URL.String(), f.config.DenyPrivateIPs); err != nil {
				return fmt.Errorf("redirect target validation failed: %w", err)
			}
			return nil
		},
	}
	return f
}

// guardDial refuses the connection when the resolved address is blocked,
// closing the window between validateURL's lookup and the dial.
func guardDial(network, address string, c syscall.RawConn) error {
	if err := avatar.GuardResolvedAddr(network, address, c); err != nil {
		return fmt.Errorf("%w: %w", ErrPrivateIP, err)
	}
	return nil
}

// FetchContent returns the cleaned article HTML at rawURL.
func (f *ContentFetcher) FetchContent(ctx context.Context, rawURL string) (string, error) {
	if err := validateURL(ctx, f.resolver, rawURL, f.config.DenyPrivateIPs); err != nil {
		return "", err
	}

	start := time.Now()
	content, err := circuitbreaker.Run(f.circuitBreaker, func() (string, error) {
		return f.doFetch(ctx, rawURL)
	})
	if err != nil {
		metrics.RecordContentFetch("failure", time.Since(start))
		return "", err
	}
	metrics.RecordContentFetch("success", time.Since(start))
	return content, nil
}

func (f *ContentFetcher) doFetch(ctx context.Context, rawURL string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.config.ContentTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create request: %v", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: request exceeded %v", ErrTimeout, f.config.ContentTimeout)
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Err != nil {
			return "", urlErr.Err
		}
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	htmlBytes, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBodySize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(htmlBytes)) > f.config.MaxBodySize {
		return "", fmt.Errorf("%w: exceeds limit %d bytes", ErrBodyTooLarge, f.config.MaxBodySize)
	}

	pageURL := resp.Request.URL
	article, err := readability.FromReader(bytes.NewReader(htmlBytes), pageURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrReadabilityFailed, err)
	}
	if article.Content == "" {
		return "", fmt.Errorf("%w: no readable content found", ErrReadabilityFailed)
	}
	return article.Content, nil
}

// Breaker exposes the content circuit breaker for health reporting.
func (f *ContentFetcher) Breaker() *circuitbreaker.CircuitBreaker {
	return f.circuitBreaker
}
