package tools

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

func runOffice(t *testing.T, args map[string]any) (Result, error) {
	t.Helper()
	tool := NewOfficeTool()
	input, err := json.Marshal(args)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return tool.Execute(context.Background(), input, Meta{MaxBytes: 1 << 20})
}

func TestOfficeToolExcelRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	csvData := "Name,Amount\nAlpha,10\nBeta,25"

	if _, err := runOffice(t, map[string]any{"action": "write_excel", "path": path, "data": csvData, "sheet": "Totals"}); err != nil {
		t.Fatalf("write_excel: %v", err)
	}

	res, err := runOffice(t, map[string]any{"action": "read_excel", "path": path})
	if err != nil {
		t.Fatalf("read_excel: %v", err)
	}
	content := res.Payload.(officeOutput).Content
	if !strings.Contains(content, "Sheet: Totals") {
		t.Fatalf("sheet name missing: %q", content)
	}
	for _, want := range []string{"Name", "Alpha", "Beta", "25"} {
		if !strings.Contains(content, want) {
			t.Fatalf("content missing %q: %q", want, content)
		}
	}

	res, err = runOffice(t, map[string]any{"action": "list_sheets", "path": path})
	if err != nil {
		t.Fatalf("list_sheets: %v", err)
	}
	if !strings.Contains(res.Payload.(officeOutput).Content, "1. Totals") {
		t.Fatalf("sheet listing wrong: %q", res.Payload.(officeOutput).Content)
	}
}

func TestOfficeToolRejectsMissingSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.xlsx")
	if _, err := runOffice(t, map[string]any{"action": "write_excel", "path": path, "data": "A,B\n1,2"}); err != nil {
		t.Fatalf("write_excel: %v", err)
	}
	if _, err := runOffice(t, map[string]any{"action": "read_excel", "path": path, "sheet": "Nope"}); err == nil {
		t.Fatalf("expected unknown sheet error")
	}
}

func TestOfficeToolWordRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memo.docx")
	content := "# Status\n\nAll systems running.\n\n## Next steps\n\nShip the release."

	if _, err := runOffice(t, map[string]any{"action": "write_word", "path": path, "data": content, "title": "Weekly Memo"}); err != nil {
		t.Fatalf("write_word: %v", err)
	}

	res, err := runOffice(t, map[string]any{"action": "read_word", "path": path})
	if err != nil {
		t.Fatalf("read_word: %v", err)
	}
	text := res.Payload.(officeOutput).Content
	for _, want := range []string{"Weekly Memo", "Status", "All systems running.", "Ship the release."} {
		if !strings.Contains(text, want) {
			t.Fatalf("document missing %q: %q", want, text)
		}
	}
}

func TestOfficeToolWordEscapesMarkup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "escape.docx")
	if _, err := runOffice(t, map[string]any{"action": "write_word", "path": path, "data": "a < b && c > d"}); err != nil {
		t.Fatalf("write_word: %v", err)
	}
	res, err := runOffice(t, map[string]any{"action": "read_word", "path": path})
	if err != nil {
		t.Fatalf("read_word: %v", err)
	}
	if !strings.Contains(res.Payload.(officeOutput).Content, "a < b && c > d") {
		t.Fatalf("special characters not preserved: %q", res.Payload.(officeOutput).Content)
	}
}

func TestFormatTablePadsColumns(t *testing.T) {
	table := formatTable([][]string{{"Alpha", "10"}, {"B", "2500"}}, []string{"Name", "Amount"})
	lines := strings.Split(table, "\n")
	if len(lines) != 4 {
		t.Fatalf("lines = %d, want 4", len(lines))
	}
	for _, line := range lines[1:] {
		if len(line) != len(lines[0]) {
			t.Fatalf("uneven row widths:\n%s", table)
		}
	}
}
