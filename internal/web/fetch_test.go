package web

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"unicode/utf8"
)

func TestNormalizeURL(t *testing.T) {
	if got := NormalizeURL("example.com"); got != "https://example.com" {
		t.Fatalf("expected https scheme, got %q", got)
	}
	if got := NormalizeURL("http://example.com"); got != "http://example.com" {
		t.Fatalf("expected unchanged URL, got %q", got)
	}
}

func TestFetchBlockedNoNetwork(t *testing.T) {
	cache := NewCache()
	fetcher := NewFetcher(cache)
	_, err := fetcher.Fetch(context.Background(), "http://localhost:8080/admin", 0)
	fetchErr, ok := err.(*FetchError)
	if !ok {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fetchErr.Kind != ErrBlocked {
		t.Fatalf("expected blocked kind, got %s", fetchErr.Kind)
	}
	if !strings.Contains(fetchErr.Error(), "http://localhost:8080/admin") {
		t.Fatalf("expected offending URL in error, got %q", fetchErr.Error())
	}
	if count := cache.Clear(); count != 0 {
		t.Fatalf("expected cache untouched, got %d entries", count)
	}
}

func TestFetchCachesByRequestedURL(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, "<html><title>Hello</title><body><p>hello world</p></body></html>")
	}))
	defer server.Close()

	cache := NewCache()
	fetcher := NewFetcher(cache)
	fetcher.blocked = func(string) bool { return false }

	first, err := fetcher.Fetch(context.Background(), server.URL, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Cached {
		t.Fatalf("first fetch must miss the cache")
	}
	if !strings.Contains(first.Content, "Title: Hello") || !strings.Contains(first.Content, "hello world") {
		t.Fatalf("unexpected content: %q", first.Content)
	}

	second, err := fetcher.Fetch(context.Background(), server.URL, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.Cached {
		t.Fatalf("second fetch must hit the cache")
	}
	if !strings.HasPrefix(second.Content, "(cached)\n\n") {
		t.Fatalf("expected cache prefix, got %q", second.Content)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected a single network fetch, got %d", hits.Load())
	}
}

func TestFetchTruncation(t *testing.T) {
	long := strings.Repeat("x", 200)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "<html><body><p>%s</p></body></html>", long)
	}))
	defer server.Close()

	fetcher := NewFetcher(NewCache())
	fetcher.blocked = func(string) bool { return false }

	res, err := fetcher.Fetch(context.Background(), server.URL, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Truncated {
		t.Fatalf("expected truncation")
	}
	marker := "... (truncated at 50 characters)"
	if !strings.HasSuffix(res.Content, marker) {
		t.Fatalf("expected truncation marker, got %q", res.Content)
	}
	body := res.Content[strings.Index(res.Content, "\n\n")+2:]
	body = strings.TrimSuffix(body, "\n\n"+marker)
	if len(body) != 50 {
		t.Fatalf("expected body of exactly 50 chars, got %d", len(body))
	}
}

func TestFetchHTTPStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	fetcher := NewFetcher(NewCache())
	fetcher.blocked = func(string) bool { return false }

	_, err := fetcher.Fetch(context.Background(), server.URL, 0)
	fetchErr, ok := err.(*FetchError)
	if !ok || fetchErr.Kind != ErrStatus {
		t.Fatalf("expected http_status error, got %v", err)
	}
	if !strings.Contains(fetchErr.Message, "404") {
		t.Fatalf("expected status in message, got %q", fetchErr.Message)
	}
}

func TestFetchTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, strings.Repeat("a", 4096))
	}))
	defer server.Close()

	fetcher := NewFetcher(NewCache())
	fetcher.blocked = func(string) bool { return false }
	fetcher.maxBody = 1024

	_, err := fetcher.Fetch(context.Background(), server.URL, 0)
	fetchErr, ok := err.(*FetchError)
	if !ok || fetchErr.Kind != ErrTooLarge {
		t.Fatalf("expected too_large error, got %v", err)
	}
}

func TestFetchRedirectKeepsRequestedKey(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusFound)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><title>Landed</title><body>done</body></html>")
	})

	cache := NewCache()
	fetcher := NewFetcher(cache)
	fetcher.blocked = func(string) bool { return false }

	res, err := fetcher.Fetch(context.Background(), server.URL+"/start", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(res.Content, "URL: "+server.URL+"/final") {
		t.Fatalf("expected post-redirect URL in content, got %q", res.Content)
	}
	// the entry is keyed by the requested URL, not the redirect target
	if _, ok := cache.Get(server.URL + "/start"); !ok {
		t.Fatalf("expected cache entry under requested URL")
	}
	if _, ok := cache.Get(server.URL + "/final"); ok {
		t.Fatalf("did not expect cache entry under redirect target")
	}
}

func TestFetchTruncationMultiByte(t *testing.T) {
	long := strings.Repeat("é", 100)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "<html><body><p>%s</p></body></html>", long)
	}))
	defer server.Close()

	fetcher := NewFetcher(NewCache())
	fetcher.blocked = func(string) bool { return false }

	res, err := fetcher.Fetch(context.Background(), server.URL, 51)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	marker := "... (truncated at 51 characters)"
	body := res.Content[strings.Index(res.Content, "\n\n")+2:]
	body = strings.TrimSuffix(body, "\n\n"+marker)
	if got := utf8.RuneCountInString(body); got != 51 {
		t.Fatalf("expected body of exactly 51 characters, got %d", got)
	}
	if !utf8.ValidString(body) {
		t.Fatalf("expected valid UTF-8 after truncation")
	}
}

func TestFetchNoRetryOnServerError(t *testing.T) {
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&hits, 1) == 1 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, "<html><body>recovered</body></html>")
	}))
	defer server.Close()

	fetcher := NewFetcher(NewCache())
	fetcher.blocked = func(string) bool { return false }

	_, err := fetcher.Fetch(context.Background(), server.URL, 0)
	fetchErr, ok := err.(*FetchError)
	if !ok || fetchErr.Kind != ErrStatus {
		t.Fatalf("expected http_status error, got %v", err)
	}
	if got := atomic.LoadInt64(&hits); got != 1 {
		t.Fatalf("expected a single request, got %d", got)
	}
}
