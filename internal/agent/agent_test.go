package agent

import (
	"context"
	"encoding/json"
	"testing"

	"deskagent/internal/config"
	"deskagent/internal/llm"
	"deskagent/internal/tools"
	"deskagent/internal/workspace"

	"go.uber.org/zap"
)

type fakeTool struct{}

func (f fakeTool) Name() string        { return "file" }
func (f fakeTool) Description() string { return "fake tool" }
func (f fakeTool) Schema() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{"action": map[string]any{"type": "string"}, "path": map[string]any{"type": "string"}}, "required": []string{"action", "path"}}
}
func (f fakeTool) Execute(ctx context.Context, input json.RawMessage, meta tools.Meta) (tools.Result, error) {
	payload := map[string]any{"path": "/tmp", "content": "Directory: /tmp\n(empty directory)"}
	return tools.Result{ToolName: "file", Payload: payload, Preview: "Directory: /tmp", LineCount: 2, ByteCount: 31, Truncated: false, DurationMs: 1}, nil
}

func TestAgentRunWithMock(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	cfg := config.Config{Model: config.DefaultModel, MaxSteps: 4, JSON: true, NoHistory: true, ToolLimits: config.ToolLimits{ShellMaxBytes: 1024, WebMaxBytes: 1024, WebMaxChars: 1000, SearchMaxBytes: 1024, FileMaxBytes: 1024, DocMaxBytes: 1024}}
	client := llm.NewMockClient()
	registry := tools.NewRegistry(fakeTool{})
	machine := workspace.Context{Hostname: "testbox", Home: "/tmp"}
	ag := NewAgent(client, registry, nil, logger, cfg)

	result, err := ag.Run(context.Background(), "what is in my home directory", machine)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.FinalAnswer == "" {
		t.Fatalf("expected final answer")
	}
	if len(result.ToolCalls) == 0 {
		t.Fatalf("expected tool calls")
	}
}

func TestParsePlanTrimsBullets(t *testing.T) {
	plan := parsePlan("- check desktop\n* list files\n\n- summarize")
	if len(plan) != 3 {
		t.Fatalf("plan = %v, want 3 items", plan)
	}
	if plan[0] != "check desktop" {
		t.Fatalf("plan[0] = %q", plan[0])
	}
}

func TestMetaForToolBudgets(t *testing.T) {
	logger := zap.NewNop()
	cfg := config.Config{ToolLimits: config.ToolLimits{ShellMaxBytes: 100, WebMaxBytes: 200, WebMaxChars: 300, SearchMaxBytes: 400, FileMaxBytes: 500, DocMaxBytes: 600}}
	ag := NewAgent(llm.NewMockClient(), tools.NewRegistry(), nil, logger, cfg)
	machine := workspace.Context{Hostname: "testbox", Home: "/tmp"}

	meta := ag.metaFor("fetch_webpage", machine)
	if meta.MaxBytes != 200 || meta.MaxChars != 300 {
		t.Fatalf("fetch_webpage meta = %+v", meta)
	}
	meta = ag.metaFor("execute_command", machine)
	if meta.MaxBytes != 100 || meta.MaxChars != 0 {
		t.Fatalf("execute_command meta = %+v", meta)
	}
	if meta.HomeDir != "/tmp" {
		t.Fatalf("expected home dir from machine context, got %q", meta.HomeDir)
	}
}
