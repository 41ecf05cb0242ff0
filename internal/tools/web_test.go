package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"deskagent/internal/web"
)

func TestFetchToolBlocksInternalAddress(t *testing.T) {
	tool := NewFetchTool(web.NewFetcher(web.NewCache()))
	input, _ := json.Marshal(map[string]any{"url": "http://169.254.169.254/latest/meta-data"})
	_, err := tool.Execute(context.Background(), input, Meta{MaxBytes: 4096})
	if err == nil {
		t.Fatalf("expected metadata endpoint to be blocked")
	}
	if !strings.Contains(err.Error(), "blocked") {
		t.Fatalf("error = %q, want blocked kind", err)
	}
}

func TestFetchToolRequiresURL(t *testing.T) {
	tool := NewFetchTool(web.NewFetcher(web.NewCache()))
	input, _ := json.Marshal(map[string]any{"url": "   "})
	if _, err := tool.Execute(context.Background(), input, Meta{}); err == nil {
		t.Fatalf("expected missing url error")
	}
}

func TestClearCacheToolReportsCount(t *testing.T) {
	cache := web.NewCache()
	cache.Put("https://a.example", "one")
	cache.Put("https://b.example", "two")

	tool := NewClearCacheTool(cache)
	res, err := tool.Execute(context.Background(), json.RawMessage(`{}`), Meta{})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	output := res.Payload.(clearCacheOutput)
	if output.Cleared != 2 {
		t.Fatalf("cleared = %d, want 2", output.Cleared)
	}
	if cache.Clear() != 0 {
		t.Fatalf("cache should be empty after clear")
	}
}
