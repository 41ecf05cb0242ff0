package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/kbinani/screenshot"

	"deskagent/internal/util"
	"deskagent/internal/web"
	"deskagent/internal/workspace"
)

const maxBookmarksDisplay = 100

// BrowserTool drives the user's desktop browser: opening URLs, capturing
// the screen and reading Chrome bookmarks.
type BrowserTool struct{}

func NewBrowserTool() *BrowserTool {
	return &BrowserTool{}
}

func (b *BrowserTool) Name() string { return "browser" }

func (b *BrowserTool) Description() string {
	return "Browser and screen helpers: open_url (open a URL in the default browser), screenshot (capture the primary display to a PNG file), bookmarks (list Chrome bookmarks, optionally filtered)."
}

func (b *BrowserTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"action": map[string]any{"type": "string", "enum": []string{"open_url", "screenshot", "bookmarks"}},
			"url":    map[string]any{"type": "string"},
			"path":   map[string]any{"type": "string", "description": "output path for screenshot, defaults to the Desktop"},
			"filter": map[string]any{"type": "string", "description": "substring filter for bookmarks"},
		},
		"required":             []string{"action"},
		"additionalProperties": false,
	}
}

type browserInput struct {
	Action string `json:"action"`
	URL    string `json:"url"`
	Path   string `json:"path"`
	Filter string `json:"filter"`
}

type browserOutput struct {
	Content string `json:"content"`
	Path    string `json:"path,omitempty"`
}

func (b *BrowserTool) Execute(ctx context.Context, input json.RawMessage, meta Meta) (Result, error) {
	var args browserInput
	if err := json.Unmarshal(input, &args); err != nil {
		return Result{}, err
	}

	start := time.Now()
	var output browserOutput
	var err error
	switch args.Action {
	case "open_url":
		output, err = b.openURL(ctx, args.URL)
	case "screenshot":
		output, err = b.captureScreen(args.Path)
	case "bookmarks":
		output, err = b.listBookmarks(args.Filter)
	default:
		return Result{}, fmt.Errorf("unknown action: %s", args.Action)
	}
	if err != nil {
		return Result{}, err
	}

	return Result{
		ToolName:   b.Name(),
		Payload:    output,
		Preview:    util.Preview(output.Content, 12, 2000),
		LineCount:  strings.Count(output.Content, "\n") + 1,
		ByteCount:  len(output.Content),
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}

func (b *BrowserTool) openURL(ctx context.Context, rawURL string) (browserOutput, error) {
	if strings.TrimSpace(rawURL) == "" {
		return browserOutput{}, errors.New("url is required for open_url")
	}
	target := web.NormalizeURL(rawURL)
	if web.Blocked(target) {
		return browserOutput{}, fmt.Errorf("refusing to open internal address: %s", rawURL)
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", target)
	case "windows":
		cmd = exec.CommandContext(ctx, "cmd", "/C", "start", "", target)
	default:
		cmd = exec.CommandContext(ctx, "xdg-open", target)
	}
	if err := cmd.Start(); err != nil {
		return browserOutput{}, fmt.Errorf("could not open browser: %w", err)
	}
	go func() { _ = cmd.Wait() }()
	return browserOutput{Content: "Opened " + target + " in the default browser"}, nil
}

func (b *BrowserTool) captureScreen(outPath string) (browserOutput, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return browserOutput{}, errors.New("no active displays to capture")
	}
	bounds := screenshot.GetDisplayBounds(0)
	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return browserOutput{}, fmt.Errorf("screen capture failed: %w", err)
	}

	if outPath == "" {
		outPath = filepath.Join(workspace.DesktopPath(), fmt.Sprintf("screenshot_%s.png", time.Now().Format("20060102_150405")))
	}
	resolved, err := workspace.ResolvePath(outPath)
	if err != nil {
		return browserOutput{}, err
	}
	if strings.ToLower(filepath.Ext(resolved)) != ".png" {
		resolved += ".png"
	}

	file, err := os.Create(resolved)
	if err != nil {
		return browserOutput{}, err
	}
	defer file.Close()
	if err := png.Encode(file, img); err != nil {
		return browserOutput{}, err
	}
	return browserOutput{
		Content: fmt.Sprintf("Saved screenshot (%dx%d) to %s", bounds.Dx(), bounds.Dy(), resolved),
		Path:    resolved,
	}, nil
}

func (b *BrowserTool) listBookmarks(filter string) (browserOutput, error) {
	path, err := chromeBookmarksPath()
	if err != nil {
		return browserOutput{}, err
	}
	bookmarks, err := parseBookmarksFile(path)
	if err != nil {
		return browserOutput{}, err
	}

	filter = strings.ToLower(filter)
	var matched []bookmark
	for _, bm := range bookmarks {
		if filter != "" &&
			!strings.Contains(strings.ToLower(bm.Name), filter) &&
			!strings.Contains(strings.ToLower(bm.URL), filter) {
			continue
		}
		matched = append(matched, bm)
	}

	if len(matched) == 0 {
		return browserOutput{Content: "No bookmarks found"}, nil
	}
	total := len(matched)
	if len(matched) > maxBookmarksDisplay {
		matched = matched[:maxBookmarksDisplay]
	}

	var buf strings.Builder
	fmt.Fprintf(&buf, "Chrome bookmarks (%d of %d):\n", len(matched), total)
	for _, bm := range matched {
		fmt.Fprintf(&buf, "- %s\n  %s\n", bm.Name, bm.URL)
	}
	return browserOutput{Content: strings.TrimRight(buf.String(), "\n")}, nil
}

type bookmark struct {
	Name   string
	URL    string
	Folder string
}

type bookmarkNode struct {
	Type     string         `json:"type"`
	Name     string         `json:"name"`
	URL      string         `json:"url"`
	Children []bookmarkNode `json:"children"`
}

type bookmarkFile struct {
	Roots map[string]bookmarkNode `json:"roots"`
}

// parseBookmarksFile reads a Chrome Bookmarks JSON file and flattens its
// folder tree into a list.
func parseBookmarksFile(path string) ([]bookmark, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read bookmarks: %w", err)
	}
	var file bookmarkFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("invalid bookmarks file: %w", err)
	}

	var out []bookmark
	var walk func(node bookmarkNode, folder string)
	walk = func(node bookmarkNode, folder string) {
		switch node.Type {
		case "url":
			out = append(out, bookmark{Name: node.Name, URL: node.URL, Folder: folder})
		case "folder":
			sub := node.Name
			if folder != "" && sub != "" {
				sub = folder + "/" + sub
			}
			for _, child := range node.Children {
				walk(child, sub)
			}
		}
	}
	for _, root := range []string{"bookmark_bar", "other", "synced"} {
		if node, ok := file.Roots[root]; ok {
			walk(node, "")
		}
	}
	return out, nil
}

func chromeBookmarksPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	var path string
	switch runtime.GOOS {
	case "darwin":
		path = filepath.Join(home, "Library", "Application Support", "Google", "Chrome", "Default", "Bookmarks")
	case "windows":
		local := os.Getenv("LOCALAPPDATA")
		if local == "" {
			local = filepath.Join(home, "AppData", "Local")
		}
		path = filepath.Join(local, "Google", "Chrome", "User Data", "Default", "Bookmarks")
	default:
		path = filepath.Join(home, ".config", "google-chrome", "Default", "Bookmarks")
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("no Chrome bookmarks file at %s", path)
	}
	return path, nil
}
