package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
)

const (
	// DefaultMaxChars bounds the returned body when the caller gives no limit.
	DefaultMaxChars = 50000

	maxBodyBytes = 5 * 1024 * 1024
	fetchTimeout = 30 * time.Second

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// ErrorKind categorizes fetch failures so the calling agent can decide
// whether to retry, rephrase, or give up.
type ErrorKind string

const (
	ErrBlocked    ErrorKind = "blocked"
	ErrBadURL     ErrorKind = "bad_url"
	ErrTimeout    ErrorKind = "timed_out"
	ErrConnection ErrorKind = "connection_failed"
	ErrStatus     ErrorKind = "http_status"
	ErrTooLarge   ErrorKind = "too_large"
	ErrCanceled   ErrorKind = "canceled"
)

// FetchError is a typed fetch failure. Text formatting for the model
// happens at the tool boundary, not here.
type FetchError struct {
	Kind    ErrorKind
	URL     string
	Message string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s (%s): %s", e.Message, e.Kind, e.URL)
}

// Result is a successful fetch.
type Result struct {
	Content   string
	Title     string
	FinalURL  string
	Cached    bool
	Truncated bool
}

// Fetcher composes the SSRF guard, the fetch cache, and the content
// extractor around an HTTP client. The cache lock is only held around
// Get/Put, never across the network call.
type Fetcher struct {
	client    *retryablehttp.Client
	cache     *Cache
	extractor Extractor
	blocked   func(string) bool
	maxBody   int64
}

// NewFetcher builds a fetcher over the given cache.
func NewFetcher(cache *Cache) *Fetcher {
	client := retryablehttp.NewClient()
	// Single attempt: the 30s timeout bounds the whole call and a bad
	// status is reported, not retried.
	client.RetryMax = 0
	client.Logger = nil
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.HTTPClient.Timeout = fetchTimeout
	return &Fetcher{
		client:    client,
		cache:     cache,
		extractor: NewExtractor(),
		blocked:   Blocked,
		maxBody:   maxBodyBytes,
	}
}

// NormalizeURL defaults the scheme to https when none is given.
func NormalizeURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		return "https://" + trimmed
	}
	return trimmed
}

// Fetch retrieves a webpage and returns its extracted text. Cached results
// are served for CacheTTL, keyed by the requested (pre-redirect) URL, and
// prefixed so the caller can tell they did not hit the network.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, maxChars int) (Result, error) {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	target := NormalizeURL(rawURL)

	if f.blocked(target) {
		return Result{}, &FetchError{Kind: ErrBlocked, URL: target, Message: "blocked for security reasons (internal/private address)"}
	}

	if content, ok := f.cache.Get(target); ok {
		return Result{Content: "(cached)\n\n" + content, FinalURL: target, Cached: true}, nil
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Result{}, &FetchError{Kind: ErrBadURL, URL: target, Message: "malformed URL"}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return Result{}, f.transportError(target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, &FetchError{Kind: ErrStatus, URL: target, Message: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}
	if resp.ContentLength > f.maxBody {
		return Result{}, &FetchError{Kind: ErrTooLarge, URL: target, Message: fmt.Sprintf("page too large (%dMB), maximum %dMB", resp.ContentLength/1024/1024, f.maxBody/1024/1024)}
	}

	// Content-Length can be absent or wrong, so the read enforces the
	// bound as well.
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return Result{}, f.transportError(target, err)
	}
	if int64(len(body)) > f.maxBody {
		return Result{}, &FetchError{Kind: ErrTooLarge, URL: target, Message: fmt.Sprintf("page too large, maximum %dMB", f.maxBody/1024/1024)}
	}

	markup := string(body)
	title := f.extractor.Title(markup)
	text := f.extractor.Body(markup)

	// Truncation counts characters, not bytes, so multi-byte runes are
	// never split.
	truncated := false
	if utf8.RuneCountInString(text) > maxChars {
		text = string([]rune(text)[:maxChars]) + fmt.Sprintf("\n\n... (truncated at %d characters)", maxChars)
		truncated = true
	}

	finalURL := target
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	content := fmt.Sprintf("Title: %s\nURL: %s\n\n%s", title, finalURL, text)
	f.cache.Put(target, content)

	return Result{Content: content, Title: title, FinalURL: finalURL, Truncated: truncated}, nil
}

func (f *Fetcher) transportError(target string, err error) *FetchError {
	if errors.Is(err, context.Canceled) {
		return &FetchError{Kind: ErrCanceled, URL: target, Message: "request canceled"}
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &FetchError{Kind: ErrTimeout, URL: target, Message: "request timed out"}
	}
	return &FetchError{Kind: ErrConnection, URL: target, Message: "could not connect"}
}
