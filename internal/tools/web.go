package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"deskagent/internal/util"
	"deskagent/internal/web"
)

// FetchTool retrieves a webpage as plain text through the web subsystem:
// SSRF guard, TTL cache, content extraction.
type FetchTool struct {
	fetcher *web.Fetcher
}

// NewFetchTool wraps a fetcher.
func NewFetchTool(fetcher *web.Fetcher) *FetchTool {
	return &FetchTool{fetcher: fetcher}
}

func (t *FetchTool) Name() string { return "fetch_webpage" }

func (t *FetchTool) Description() string {
	return "Fetch a webpage and return its title, final URL, and extracted text. Internal/private addresses are blocked; results are cached for 5 minutes."
}

func (t *FetchTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url":       map[string]any{"type": "string"},
			"max_chars": map[string]any{"type": "integer", "minimum": 1},
		},
		"required":             []string{"url"},
		"additionalProperties": false,
	}
}

type fetchInput struct {
	URL      string `json:"url"`
	MaxChars int    `json:"max_chars"`
}

type fetchOutput struct {
	Content    string `json:"content"`
	Title      string `json:"title,omitempty"`
	URL        string `json:"url"`
	Cached     bool   `json:"cached"`
	Truncated  bool   `json:"truncated"`
	DurationMs int64  `json:"duration_ms"`
}

func (t *FetchTool) Execute(ctx context.Context, input json.RawMessage, meta Meta) (Result, error) {
	var args fetchInput
	if err := json.Unmarshal(input, &args); err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(args.URL) == "" {
		return Result{}, errors.New("url is required")
	}

	// The configured character budget applies when the model gives none.
	maxChars := args.MaxChars
	if maxChars <= 0 {
		maxChars = meta.MaxChars
	}

	start := time.Now()
	res, err := t.fetcher.Fetch(ctx, args.URL, maxChars)
	if err != nil {
		return Result{}, err
	}

	content := res.Content
	truncated := res.Truncated
	if meta.MaxBytes > 0 {
		if trimmed, did := util.TruncateBytes(content, meta.MaxBytes); did {
			content = trimmed
			truncated = true
		}
	}

	output := fetchOutput{
		Content:    content,
		Title:      res.Title,
		URL:        res.FinalURL,
		Cached:     res.Cached,
		Truncated:  truncated,
		DurationMs: time.Since(start).Milliseconds(),
	}
	preview := util.Preview(content, 12, 2000)
	return Result{
		ToolName:   t.Name(),
		Payload:    output,
		Preview:    preview,
		LineCount:  strings.Count(content, "\n") + 1,
		ByteCount:  len(content),
		Truncated:  truncated,
		DurationMs: output.DurationMs,
	}, nil
}

// ClearCacheTool empties the webpage fetch cache.
type ClearCacheTool struct {
	cache *web.Cache
}

// NewClearCacheTool wraps the fetch cache.
func NewClearCacheTool(cache *web.Cache) *ClearCacheTool {
	return &ClearCacheTool{cache: cache}
}

func (t *ClearCacheTool) Name() string { return "clear_web_cache" }

func (t *ClearCacheTool) Description() string {
	return "Clear the webpage fetch cache and report how many entries were removed."
}

func (t *ClearCacheTool) Schema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"properties":           map[string]any{},
		"additionalProperties": false,
	}
}

type clearCacheOutput struct {
	Cleared int `json:"cleared"`
}

func (t *ClearCacheTool) Execute(ctx context.Context, input json.RawMessage, meta Meta) (Result, error) {
	count := t.cache.Clear()
	preview := fmt.Sprintf("Cleared %d cached entries", count)
	return Result{
		ToolName:  t.Name(),
		Payload:   clearCacheOutput{Cleared: count},
		Preview:   preview,
		LineCount: 1,
		ByteCount: len(preview),
	}, nil
}
