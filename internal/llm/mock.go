package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// MockClient is a deterministic client for tests and demos.
type MockClient struct {
	mu    sync.Mutex
	calls int
}

// NewMockClient returns a simple mock.
func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Create(ctx context.Context, req Request) (Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if m.calls == 1 {
		return Response{Content: "- Inspect the home directory\n- List its contents with the file tool\n- Summarize what is there"}, nil
	}
	if m.calls == 2 {
		args, _ := json.Marshal(map[string]any{"action": "list", "path": "~"})
		return Response{ToolCalls: []ToolCall{{ID: "call_1", Name: "file", Arguments: args}}}, nil
	}
	return Response{Content: "Summary: Mock response based on tool results. [tool:file]\nNext steps: Ask for a specific file to open or edit."}, nil
}

func (m *MockClient) Stream(ctx context.Context, req Request, onDelta func(string)) (Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	content := "Summary: Mock response based on tool results. [tool:file]\nNext steps: Ask for a specific file to open or edit."
	resp := Response{Content: content}
	if onDelta != nil {
		onDelta(resp.Content)
	}
	return resp, nil
}
