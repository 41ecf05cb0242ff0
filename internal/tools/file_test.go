package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func runFile(t *testing.T, args map[string]any) (Result, error) {
	t.Helper()
	tool := NewFileTool()
	input, err := json.Marshal(args)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return tool.Execute(context.Background(), input, Meta{MaxBytes: 1 << 20})
}

func TestFileToolWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")

	if _, err := runFile(t, map[string]any{"action": "write", "path": path, "content": "first line\nsecond line"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	res, err := runFile(t, map[string]any{"action": "read", "path": path})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	output := res.Payload.(fileOutput)
	if !strings.Contains(output.Content, "second line") {
		t.Fatalf("content = %q, want written text", output.Content)
	}
}

func TestFileToolList(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	res, err := runFile(t, map[string]any{"action": "list", "path": dir})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	output := res.Payload.(fileOutput)
	if !strings.Contains(output.Content, "1 folders, 1 files") {
		t.Fatalf("header missing counts: %q", output.Content)
	}
	if !strings.Contains(output.Content, "[DIR]sub") {
		t.Fatalf("directory entry missing: %q", output.Content)
	}
}

func TestFileToolDeleteRefusesDirectory(t *testing.T) {
	dir := t.TempDir()
	if _, err := runFile(t, map[string]any{"action": "delete", "path": dir}); err == nil {
		t.Fatalf("expected directory delete to be refused")
	}
}

func TestFileToolMkdirAndDelete(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "made")
	if _, err := runFile(t, map[string]any{"action": "mkdir", "path": sub}); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if _, err := os.Stat(sub); err != nil {
		t.Fatalf("directory not created: %v", err)
	}

	path := filepath.Join(sub, "temp.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := runFile(t, map[string]any{"action": "delete", "path": path}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("file still exists")
	}
}

func TestFileToolRefusesCredentialFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("API_KEY=secret"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := runFile(t, map[string]any{"action": "read", "path": path}); err == nil {
		t.Fatalf("expected .env read to be refused")
	}
	if _, err := runFile(t, map[string]any{"action": "write", "path": path, "content": "x"}); err == nil {
		t.Fatalf("expected .env write to be refused")
	}
}

func TestFileToolRefusesSystemLocations(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix path test")
	}
	if _, err := runFile(t, map[string]any{"action": "write", "path": "/etc/agent.conf", "content": "x"}); err == nil {
		t.Fatalf("expected system write to be refused")
	}
}
