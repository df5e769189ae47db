// Package testutils holds shared helpers for package tests
package testutils

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// CreateTestLogger creates a logger that discards output
func CreateTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

// CreateTestContext creates a context suitable for testing
func CreateTestContext() context.Context {
	return context.Background()
}

// SheetFixture describes one sheet of a generated workbook. A nil value leaves the cell empty.
type SheetFixture struct {
	Name string
	Rows [][]any
}

// WriteWorkbook saves an xlsx file at path containing the given sheets in order
func WriteWorkbook(t *testing.T, path string, sheets ...SheetFixture) {
	t.Helper()

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			t.Logf("Warning: failed to close workbook: %v", err)
		}
	}()

	defaultSheet := f.GetSheetName(0)
	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, sheet.Name); err != nil {
				t.Fatalf("Failed to rename sheet: %v", err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			t.Fatalf("Failed to create sheet %q: %v", sheet.Name, err)
		}

		for r, row := range sheet.Rows {
			for c, value := range row {
				if value == nil {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				if err != nil {
					t.Fatalf("Invalid coordinates: %v", err)
				}
				if err := f.SetCellValue(sheet.Name, cell, value); err != nil {
					t.Fatalf("Failed to set %s!%s: %v", sheet.Name, cell, err)
				}
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		t.Fatalf("Failed to save test workbook: %v", err)
	}
}

// DecodeResult unmarshals the JSON text content of a tool result into v
func DecodeResult(t *testing.T, result *mcp.CallToolResult, v any) {
	t.Helper()

	if result == nil {
		t.Fatal("Expected tool result, got nil")
	}
	if len(result.Content) == 0 {
		t.Fatal("Expected content in tool result")
	}

	textContent, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("Expected TextContent, got %T", result.Content[0])
	}

	if err := json.Unmarshal([]byte(textContent.Text), v); err != nil {
		t.Fatalf("Failed to parse tool result JSON %q: %v", textContent.Text, err)
	}
}
