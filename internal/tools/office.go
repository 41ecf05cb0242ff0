package tools

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"deskagent/internal/util"
	"deskagent/internal/workspace"
)

const (
	maxRowsDisplay = 100
	maxColsDisplay = 26
)

var excelExtensions = map[string]struct{}{
	".xlsx": {}, ".xlsm": {}, ".xltx": {}, ".xltm": {},
}

// OfficeTool reads and writes Excel workbooks and Word documents.
type OfficeTool struct{}

// NewOfficeTool constructs an office document tool.
func NewOfficeTool() *OfficeTool {
	return &OfficeTool{}
}

func (o *OfficeTool) Name() string { return "office" }

func (o *OfficeTool) Description() string {
	return "Read or write Office documents: Excel workbooks (read_excel, write_excel, list_sheets) and Word documents (read_word, write_word). Excel reads show at most 100 rows and 26 columns."
}

func (o *OfficeTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"action": map[string]any{"type": "string", "enum": []string{"read_excel", "write_excel", "list_sheets", "read_word", "write_word"}},
			"path":   map[string]any{"type": "string"},
			"sheet":  map[string]any{"type": "string"},
			"data":   map[string]any{"type": "string", "description": "CSV data for write_excel, paragraph text for write_word"},
			"title":  map[string]any{"type": "string"},
		},
		"required":             []string{"action", "path"},
		"additionalProperties": false,
	}
}

type officeInput struct {
	Action string `json:"action"`
	Path   string `json:"path"`
	Sheet  string `json:"sheet"`
	Data   string `json:"data"`
	Title  string `json:"title"`
}

type officeOutput struct {
	Path    string `json:"path"`
	Content string `json:"content,omitempty"`
	Message string `json:"message,omitempty"`
}

func (o *OfficeTool) Execute(ctx context.Context, input json.RawMessage, meta Meta) (Result, error) {
	var args officeInput
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
	var output officeOutput
	switch args.Action {
	case "read_excel":
		output, err = o.readExcel(path, args.Sheet)
	case "write_excel":
		output, err = o.writeExcel(path, args.Data, args.Sheet)
	case "list_sheets":
		output, err = o.listSheets(path)
	case "read_word":
		output, err = o.readWord(path)
	case "write_word":
		output, err = o.writeWord(path, args.Data, args.Title)
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
	truncated := false
	if meta.MaxBytes > 0 {
		if trimmed, did := util.TruncateBytes(body, meta.MaxBytes); did {
			body = trimmed
			output.Content = trimmed
			truncated = true
		}
	}
	return Result{
		ToolName:   o.Name(),
		Payload:    output,
		Preview:    util.Preview(body, 12, 2000),
		LineCount:  strings.Count(body, "\n") + 1,
		ByteCount:  len(body),
		Truncated:  truncated,
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}

func (o *OfficeTool) readExcel(path string, sheet string) (officeOutput, error) {
	if _, ok := excelExtensions[strings.ToLower(filepath.Ext(path))]; !ok {
		return officeOutput{}, fmt.Errorf("not an Excel file: %s", path)
	}
	file, err := excelize.OpenFile(path)
	if err != nil {
		return officeOutput{}, fmt.Errorf("could not open workbook: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return officeOutput{}, errors.New("workbook has no sheets")
	}
	if sheet == "" {
		sheet = sheets[0]
	} else if !containsString(sheets, sheet) {
		return officeOutput{}, fmt.Errorf("sheet %q not found, available: %s", sheet, strings.Join(sheets, ", "))
	}

	rows, err := file.GetRows(sheet)
	if err != nil {
		return officeOutput{}, err
	}

	var headers []string
	var data [][]string
	for i, row := range rows {
		if i > maxRowsDisplay {
			break
		}
		if len(row) > maxColsDisplay {
			row = row[:maxColsDisplay]
		}
		if allEmpty(row) {
			continue
		}
		if headers == nil {
			headers = row
			continue
		}
		data = append(data, row)
	}
	if headers == nil {
		return officeOutput{Path: path, Content: fmt.Sprintf("Sheet %q is empty", sheet)}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "File: %s\nSheet: %s\nSize: %d rows\n", filepath.Base(path), sheet, len(rows))
	if len(rows) > maxRowsDisplay {
		fmt.Fprintf(&b, "(showing first %d rows)\n", maxRowsDisplay)
	}
	b.WriteString("\n")
	b.WriteString(formatTable(data, headers))
	return officeOutput{Path: path, Content: b.String()}, nil
}

func (o *OfficeTool) writeExcel(path string, data string, sheet string) (officeOutput, error) {
	if data == "" {
		return officeOutput{}, errors.New("data is required")
	}
	if strings.ToLower(filepath.Ext(path)) != ".xlsx" {
		path += ".xlsx"
	}
	if sheet == "" {
		sheet = "Sheet1"
	}

	rows, err := csv.NewReader(strings.NewReader(data)).ReadAll()
	if err != nil {
		return officeOutput{}, fmt.Errorf("invalid CSV data: %w", err)
	}
	if len(rows) == 0 {
		return officeOutput{}, errors.New("no data rows provided")
	}

	file := excelize.NewFile()
	defer file.Close()
	if sheet != "Sheet1" {
		if err := file.SetSheetName("Sheet1", sheet); err != nil {
			return officeOutput{}, err
		}
	}

	widths := map[int]float64{}
	for rowIdx, row := range rows {
		for colIdx, value := range row {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			if err != nil {
				return officeOutput{}, err
			}
			if err := file.SetCellValue(sheet, cell, value); err != nil {
				return officeOutput{}, err
			}
			if width := float64(len(value)) + 2; width > widths[colIdx] {
				widths[colIdx] = width
			}
		}
	}

	// bold header row
	boldStyle, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		endCell, _ := excelize.CoordinatesToCellName(len(rows[0]), 1)
		_ = file.SetCellStyle(sheet, "A1", endCell, boldStyle)
	}
	for colIdx, width := range widths {
		if width > 50 {
			width = 50
		}
		name, err := excelize.ColumnNumberToName(colIdx + 1)
		if err != nil {
			continue
		}
		_ = file.SetColWidth(sheet, name, name, width)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return officeOutput{}, err
	}
	if err := file.SaveAs(path); err != nil {
		return officeOutput{}, err
	}
	return officeOutput{Path: path, Message: fmt.Sprintf("Saved workbook %s (%d rows, %d columns)", path, len(rows), len(rows[0]))}, nil
}

func (o *OfficeTool) listSheets(path string) (officeOutput, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return officeOutput{}, fmt.Errorf("could not open workbook: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	var b strings.Builder
	fmt.Fprintf(&b, "File: %s\nSheets (%d):\n", filepath.Base(path), len(sheets))
	for i, name := range sheets {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, name)
	}
	return officeOutput{Path: path, Content: strings.TrimRight(b.String(), "\n")}, nil
}

func (o *OfficeTool) readWord(path string) (officeOutput, error) {
	if strings.ToLower(filepath.Ext(path)) != ".docx" {
		return officeOutput{}, fmt.Errorf("not a Word document (.docx): %s", path)
	}
	paragraphs, err := readDocx(path)
	if err != nil {
		return officeOutput{}, err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "File: %s\nParagraphs: %d\n\n", filepath.Base(path), len(paragraphs))
	b.WriteString(strings.Join(paragraphs, "\n\n"))
	return officeOutput{Path: path, Content: b.String()}, nil
}

func (o *OfficeTool) writeWord(path string, content string, title string) (officeOutput, error) {
	if content == "" {
		return officeOutput{}, errors.New("data is required")
	}
	if strings.ToLower(filepath.Ext(path)) != ".docx" {
		path += ".docx"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return officeOutput{}, err
	}
	if err := writeDocx(path, title, content); err != nil {
		return officeOutput{}, err
	}
	return officeOutput{Path: path, Message: "Saved document " + path}, nil
}

// formatTable renders rows as a markdown table with bounded column widths.
func formatTable(rows [][]string, headers []string) string {
	if len(rows) == 0 && len(headers) == 0 {
		return "(empty)"
	}
	all := append([][]string{headers}, rows...)
	widths := make([]int, len(headers))
	for _, row := range all {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			length := len(cell)
			if length > 50 {
				length = 50
			}
			if length > widths[i] {
				widths[i] = length
			}
		}
	}

	renderRow := func(row []string) string {
		cells := make([]string, len(widths))
		for i := range widths {
			value := ""
			if i < len(row) {
				value = row[i]
			}
			if len(value) > 50 {
				value = value[:50]
			}
			cells[i] = value + strings.Repeat(" ", widths[i]-len(value))
		}
		return "| " + strings.Join(cells, " | ") + " |"
	}

	var lines []string
	lines = append(lines, renderRow(headers))
	separators := make([]string, len(widths))
	for i, w := range widths {
		separators[i] = strings.Repeat("-", w)
	}
	lines = append(lines, "|-"+strings.Join(separators, "-|-")+"-|")
	for _, row := range rows {
		lines = append(lines, renderRow(row))
	}
	return strings.Join(lines, "\n")
}

func containsString(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}

func allEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
