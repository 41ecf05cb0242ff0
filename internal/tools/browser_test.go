package tools

import (
	"os"
	"path/filepath"
	"testing"
)

const bookmarksFixture = `{
  "roots": {
    "bookmark_bar": {
      "type": "folder",
      "name": "Bookmarks bar",
      "children": [
        {"type": "url", "name": "Example", "url": "https://example.com/"},
        {
          "type": "folder",
          "name": "Work",
          "children": [
            {"type": "url", "name": "Tracker", "url": "https://tracker.example.com/board"}
          ]
        }
      ]
    },
    "other": {
      "type": "folder",
      "name": "Other bookmarks",
      "children": [
        {"type": "url", "name": "Recipes", "url": "https://recipes.example.org/"}
      ]
    }
  }
}`

func TestParseBookmarksFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Bookmarks")
	if err := os.WriteFile(path, []byte(bookmarksFixture), 0o644); err != nil {
		t.Fatal(err)
	}

	bookmarks, err := parseBookmarksFile(path)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(bookmarks) != 3 {
		t.Fatalf("bookmarks = %d, want 3", len(bookmarks))
	}
	if bookmarks[1].Name != "Tracker" || bookmarks[1].Folder != "Bookmarks bar/Work" {
		t.Fatalf("nested bookmark wrong: %+v", bookmarks[1])
	}
	if bookmarks[2].URL != "https://recipes.example.org/" {
		t.Fatalf("other root missing: %+v", bookmarks[2])
	}
}

func TestParseBookmarksFileRejectsInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Bookmarks")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := parseBookmarksFile(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
