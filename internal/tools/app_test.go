package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestAppToolListsProcesses(t *testing.T) {
	tool := NewAppTool()
	input, _ := json.Marshal(map[string]any{"action": "processes"})
	res, err := tool.Execute(context.Background(), input, Meta{})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	content := res.Payload.(appOutput).Content
	if !strings.Contains(content, "PID") || !strings.Contains(content, "Showing") {
		t.Fatalf("unexpected process listing: %q", content)
	}
}

func TestAppToolSysinfo(t *testing.T) {
	tool := NewAppTool()
	input, _ := json.Marshal(map[string]any{"action": "sysinfo"})
	res, err := tool.Execute(context.Background(), input, Meta{})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	content := res.Payload.(appOutput).Content
	if !strings.Contains(content, "Memory:") {
		t.Fatalf("sysinfo missing memory section: %q", content)
	}
}

func TestAppToolKillRequiresTarget(t *testing.T) {
	tool := NewAppTool()
	input, _ := json.Marshal(map[string]any{"action": "kill"})
	if _, err := tool.Execute(context.Background(), input, Meta{}); err == nil {
		t.Fatalf("expected missing pid/name error")
	}
}

func TestAppToolUnknownAction(t *testing.T) {
	tool := NewAppTool()
	input, _ := json.Marshal(map[string]any{"action": "explode"})
	if _, err := tool.Execute(context.Background(), input, Meta{}); err == nil {
		t.Fatalf("expected unknown action error")
	}
}
