package web

import (
	"testing"
	"time"
)

func TestCacheRoundTrip(t *testing.T) {
	cache := NewCache()
	cache.Put("https://example.com", "content")
	got, ok := cache.Get("https://example.com")
	if !ok {
		t.Fatalf("expected cache hit")
	}
	if got != "content" {
		t.Fatalf("unexpected content: %q", got)
	}
}

func TestCacheExpiry(t *testing.T) {
	now := time.Now()
	cache := NewCache()
	cache.now = func() time.Time { return now }
	cache.Put("https://example.com", "content")

	now = now.Add(CacheTTL + time.Second)
	if _, ok := cache.Get("https://example.com"); ok {
		t.Fatalf("expected expired entry to be absent")
	}
	// lazy eviction removed the entry during Get
	if count := cache.Clear(); count != 0 {
		t.Fatalf("expected clear count 0 after eviction, got %d", count)
	}
}

func TestCacheClearCount(t *testing.T) {
	cache := NewCache()
	cache.Put("https://a.example", "a")
	cache.Put("https://b.example", "b")
	cache.Put("https://c.example", "c")
	if count := cache.Clear(); count != 3 {
		t.Fatalf("expected clear count 3, got %d", count)
	}
	if _, ok := cache.Get("https://a.example"); ok {
		t.Fatalf("expected cache to be empty after clear")
	}
}

func TestCachePutOverwrites(t *testing.T) {
	cache := NewCache()
	cache.Put("https://example.com", "old")
	cache.Put("https://example.com", "new")
	got, _ := cache.Get("https://example.com")
	if got != "new" {
		t.Fatalf("expected overwrite, got %q", got)
	}
	if count := cache.Clear(); count != 1 {
		t.Fatalf("expected single entry, got %d", count)
	}
}
