package tools

import (
	"strings"
	"testing"
)

func TestFitSearchResultsShrinksSnippets(t *testing.T) {
	results := []searchResult{
		{Title: "One", URL: "https://one.example", Snippet: strings.Repeat("a", 5000)},
		{Title: "Two", URL: "https://two.example", Snippet: strings.Repeat("b", 5000)},
	}
	truncated, size := fitSearchResults(&results, 4000)
	if !truncated {
		t.Fatalf("expected truncation")
	}
	if size > 4000 {
		t.Fatalf("size = %d, want <= 4000", size)
	}
	if len(results) == 0 {
		t.Fatalf("all results dropped")
	}
}

func TestFitSearchResultsDropsResults(t *testing.T) {
	var results []searchResult
	for i := 0; i < 10; i++ {
		results = append(results, searchResult{Title: "T", URL: "https://example.com", Snippet: strings.Repeat("x", 300)})
	}
	truncated, size := fitSearchResults(&results, 800)
	if !truncated {
		t.Fatalf("expected truncation")
	}
	if size > 800 {
		t.Fatalf("size = %d, want <= 800", size)
	}
	if len(results) >= 10 {
		t.Fatalf("expected results to be dropped, have %d", len(results))
	}
}
