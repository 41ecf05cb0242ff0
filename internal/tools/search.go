package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
)

const maxSearchResults = 10

// SearchTool queries the Exa search API.
type SearchTool struct {
	apiKey string
	client *retryablehttp.Client
}

// NewSearchTool constructs a web search tool.
func NewSearchTool(apiKey string) *SearchTool {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.Logger = nil
	return &SearchTool{apiKey: apiKey, client: client}
}

func (s *SearchTool) Name() string { return "web_search" }

func (s *SearchTool) Description() string {
	return "Search the web and return titles, URLs, and snippets."
}

func (s *SearchTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query":       map[string]any{"type": "string"},
			"num_results": map[string]any{"type": "integer", "minimum": 1, "maximum": maxSearchResults},
		},
		"required":             []string{"query"},
		"additionalProperties": false,
	}
}

type searchInput struct {
	Query      string `json:"query"`
	NumResults int    `json:"num_results"`
}

type searchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

type searchOutput struct {
	Results    []searchResult `json:"results"`
	DurationMs int64          `json:"duration_ms"`
	Truncated  bool           `json:"truncated"`
}

func (s *SearchTool) Execute(ctx context.Context, input json.RawMessage, meta Meta) (Result, error) {
	if strings.TrimSpace(s.apiKey) == "" {
		return Result{}, errors.New("EXA_API_KEY is missing")
	}

	var args searchInput
	if err := json.Unmarshal(input, &args); err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(args.Query) == "" {
		return Result{}, errors.New("query is required")
	}
	if args.NumResults <= 0 {
		args.NumResults = 5
	}
	if args.NumResults > maxSearchResults {
		args.NumResults = maxSearchResults
	}

	timeout := meta.ToolTimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	payload := map[string]any{
		"query":      args.Query,
		"numResults": args.NumResults,
		"contents":   map[string]any{"text": true},
	}
	body, _ := json.Marshal(payload)
	request, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, "https://api.exa.ai/search", bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	request.Header.Set("x-api-key", s.apiKey)
	request.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(request)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return Result{}, fmt.Errorf("web search failed: %s", string(b))
	}

	var raw struct {
		Results []struct {
			Title string `json:"title"`
			URL   string `json:"url"`
			Text  string `json:"text"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return Result{}, err
	}

	results := make([]searchResult, 0, len(raw.Results))
	for _, item := range raw.Results {
		results = append(results, searchResult{Title: item.Title, URL: item.URL, Snippet: item.Text})
	}

	truncated, byteCount := fitSearchResults(&results, meta.MaxBytes)
	output := searchOutput{Results: results, DurationMs: time.Since(start).Milliseconds(), Truncated: truncated}
	preview := searchPreview(results)
	return Result{
		ToolName:   s.Name(),
		Payload:    output,
		Preview:    preview,
		LineCount:  strings.Count(preview, "\n") + 1,
		ByteCount:  byteCount,
		Truncated:  truncated,
		DurationMs: output.DurationMs,
	}, nil
}

// fitSearchResults shrinks snippets, then drops results, until the JSON
// payload fits the byte budget.
func fitSearchResults(results *[]searchResult, maxBytes int) (bool, int) {
	if maxBytes <= 0 {
		return false, 0
	}
	truncated := false
	for limit := 1200; limit >= 200; limit /= 2 {
		for i := range *results {
			if len((*results)[i].Snippet) > limit {
				(*results)[i].Snippet = (*results)[i].Snippet[:limit]
				truncated = true
			}
		}
		data, _ := json.Marshal(searchOutput{Results: *results})
		if len(data) <= maxBytes {
			return truncated, len(data)
		}
	}
	for len(*results) > 1 {
		*results = (*results)[:len(*results)-1]
		truncated = true
		data, _ := json.Marshal(searchOutput{Results: *results})
		if len(data) <= maxBytes {
			return truncated, len(data)
		}
	}
	data, _ := json.Marshal(searchOutput{Results: *results})
	return truncated, len(data)
}

func searchPreview(results []searchResult) string {
	var b strings.Builder
	shown := len(results)
	if shown > 3 {
		shown = 3
	}
	for i := 0; i < shown; i++ {
		item := results[i]
		b.WriteString(fmt.Sprintf("%s - %s\n", item.Title, item.URL))
		if item.Snippet != "" {
			b.WriteString(item.Snippet)
			b.WriteString("\n")
		}
	}
	return strings.TrimSpace(b.String())
}
