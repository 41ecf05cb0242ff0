package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"deskagent/internal/util"
	"deskagent/internal/workspace"
)

const (
	defaultMaxFileBytes = 10 * 1024 * 1024
	maxLinesDisplay     = 1000
)

// FileTool performs one-shot filesystem operations. A single tool with an
// action parameter keeps the model-facing surface small.
type FileTool struct{}

// NewFileTool constructs a file tool.
func NewFileTool() *FileTool {
	return &FileTool{}
}

func (f *FileTool) Name() string { return "file" }

func (f *FileTool) Description() string {
	return "Read, write, list, delete files or create directories. Reads are capped at 10MB and 1000 lines; system locations and credential files are refused."
}

func (f *FileTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"action":  map[string]any{"type": "string", "enum": []string{"read", "write", "list", "delete", "mkdir"}},
			"path":    map[string]any{"type": "string"},
			"content": map[string]any{"type": "string"},
		},
		"required":             []string{"action", "path"},
		"additionalProperties": false,
	}
}

type fileInput struct {
	Action  string `json:"action"`
	Path    string `json:"path"`
	Content string `json:"content"`
}

type fileOutput struct {
	Path      string `json:"path"`
	Content   string `json:"content,omitempty"`
	Message   string `json:"message,omitempty"`
	Size      string `json:"size,omitempty"`
	Truncated bool   `json:"truncated,omitempty"`
}

func (f *FileTool) Execute(ctx context.Context, input json.RawMessage, meta Meta) (Result, error) {
	var args fileInput
	if err := json.Unmarshal(input, &args); err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(args.Path) == "" {
		return Result{}, errors.New("path is required")
	}
	path, err := workspace.ResolvePath(args.Path)
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	var output fileOutput
	switch args.Action {
	case "read":
		output, err = f.read(path, meta.MaxBytes)
	case "write":
		output, err = f.write(path, args.Content)
	case "list":
		output, err = f.list(path)
	case "delete":
		output, err = f.remove(path)
	case "mkdir":
		output, err = f.mkdir(path)
	default:
		return Result{}, fmt.Errorf("unknown action: %s", args.Action)
	}
	if err != nil {
		return Result{}, err
	}

	body := output.Content
	if body == "" {
		body = output.Message
	}
	preview := util.Preview(body, 12, 2000)
	return Result{
		ToolName:   f.Name(),
		Payload:    output,
		Preview:    preview,
		LineCount:  strings.Count(body, "\n") + 1,
		ByteCount:  len(body),
		Truncated:  output.Truncated,
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}

func (f *FileTool) read(path string, maxBytes int) (fileOutput, error) {
	if workspace.IsDenylisted(path) {
		return fileOutput{}, fmt.Errorf("reading credential files is blocked: %s", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fileOutput{}, fmt.Errorf("file not found: %s", path)
	}
	if info.IsDir() {
		return fileOutput{}, fmt.Errorf("not a file: %s", path)
	}
	limit := int64(maxBytes)
	if limit <= 0 {
		limit = defaultMaxFileBytes
	}
	if info.Size() > limit {
		return fileOutput{}, fmt.Errorf("file too large (%s), maximum %s: %s", util.FormatSize(info.Size()), util.FormatSize(limit), path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fileOutput{}, err
	}
	content := util.RedactSecrets(string(data))

	truncated := false
	lines := strings.Split(content, "\n")
	if len(lines) > maxLinesDisplay {
		content = strings.Join(lines[:maxLinesDisplay], "\n")
		content += fmt.Sprintf("\n\n... (truncated, showing %d of %d lines)", maxLinesDisplay, len(lines))
		truncated = true
	}
	return fileOutput{Path: path, Content: content, Size: util.FormatSize(info.Size()), Truncated: truncated}, nil
}

func (f *FileTool) write(path string, content string) (fileOutput, error) {
	if workspace.IsBlockedPath(path) || workspace.IsBlockedPath(filepath.Dir(path)) {
		return fileOutput{}, fmt.Errorf("writing to this location is blocked: %s", path)
	}
	if workspace.IsDenylisted(path) {
		return fileOutput{}, fmt.Errorf("writing credential files is blocked: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fileOutput{}, err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fileOutput{}, err
	}
	size := util.FormatSize(int64(len(content)))
	return fileOutput{Path: path, Message: fmt.Sprintf("Wrote %s to %s", size, path), Size: size}, nil
}

func (f *FileTool) list(path string) (fileOutput, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fileOutput{}, fmt.Errorf("directory not found: %s", path)
	}
	if !info.IsDir() {
		return fileOutput{}, fmt.Errorf("not a directory: %s", path)
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return fileOutput{}, err
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return strings.ToLower(entries[i].Name()) < strings.ToLower(entries[j].Name())
	})

	var lines []string
	var dirs, files int
	var totalSize int64
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			lines = append(lines, fmt.Sprintf("?????????  %10s  %16s  %s (access denied)", "?", "?", entry.Name()))
			continue
		}
		modified := info.ModTime().Format("2006-01-02 15:04")
		if entry.IsDir() {
			dirs++
			lines = append(lines, fmt.Sprintf("%s  %10s  %s  [DIR]%s", info.Mode().String(), "-", modified, entry.Name()))
		} else {
			files++
			totalSize += info.Size()
			lines = append(lines, fmt.Sprintf("%s  %10s  %s  %s", info.Mode().String(), util.FormatSize(info.Size()), modified, entry.Name()))
		}
	}

	header := fmt.Sprintf("Directory: %s\nTotal: %d folders, %d files (%s)\n%s\n",
		path, dirs, files, util.FormatSize(totalSize), strings.Repeat("-", 70))
	body := header + strings.Join(lines, "\n")
	if len(lines) == 0 {
		body = header + "(empty directory)"
	}
	return fileOutput{Path: path, Content: body}, nil
}

func (f *FileTool) remove(path string) (fileOutput, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fileOutput{}, fmt.Errorf("file not found: %s", path)
	}
	if info.IsDir() {
		return fileOutput{}, fmt.Errorf("not a file, refusing to delete a directory: %s", path)
	}
	if workspace.IsBlockedPath(path) || workspace.IsBlockedPath(filepath.Dir(path)) {
		return fileOutput{}, fmt.Errorf("deleting from this location is blocked: %s", path)
	}
	if err := os.Remove(path); err != nil {
		return fileOutput{}, err
	}
	return fileOutput{Path: path, Message: "Deleted " + path}, nil
}

func (f *FileTool) mkdir(path string) (fileOutput, error) {
	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			return fileOutput{Path: path, Message: "Directory already exists: " + path}, nil
		}
		return fileOutput{}, fmt.Errorf("a file with this name already exists: %s", path)
	}
	if workspace.IsBlockedPath(path) {
		return fileOutput{}, fmt.Errorf("creating directories in this location is blocked: %s", path)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fileOutput{}, err
	}
	return fileOutput{Path: path, Message: "Created directory " + path}, nil
}
