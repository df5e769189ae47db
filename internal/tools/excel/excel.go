// Package excel implements the read-only spreadsheet query tools: listing sheet names and
// previewing the tables detected within a sheet.
package excel

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/excel-preview-mcp/internal/tables"
	"github.com/sammcj/excel-preview-mcp/internal/tools"
	"github.com/sammcj/excel-preview-mcp/internal/workbook"
	"github.com/sirupsen/logrus"
)

// Tool names
const (
	ListSheetsToolName   = "list_excel_sheets"
	SheetPreviewToolName = "get_sheet_preview"
)

// WorkbookLoader loads the configured spreadsheet
type WorkbookLoader interface {
	Path() string
	Load(ctx context.Context) (*workbook.Workbook, error)
}

// PreviewDefaults are the bounds used when get_sheet_preview arguments are omitted
type PreviewDefaults struct {
	TableLimit int
	RowPreview int
}

// DefaultPreviewDefaults returns the standard bounds of two tables and five rows
func DefaultPreviewDefaults() PreviewDefaults {
	return PreviewDefaults{TableLimit: tables.DefaultTableLimit, RowPreview: tables.DefaultRowPreview}
}

// SheetList is the list_excel_sheets result
type SheetList struct {
	ExcelFile string   `json:"excel_file"`
	Sheets    []string `json:"sheets"`
}

// ErrorResult is the payload returned for recoverable query failures
type ErrorResult struct {
	Error string `json:"error"`
}

// ListSheetsTool lists the sheet names of the configured workbook
type ListSheetsTool struct {
	loader WorkbookLoader
}

// NewListSheetsTool creates the list_excel_sheets tool
func NewListSheetsTool(loader WorkbookLoader) *ListSheetsTool {
	return &ListSheetsTool{loader: loader}
}

// Definition returns the tool's definition for MCP registration
func (t *ListSheetsTool) Definition() mcp.Tool {
	return mcp.NewTool(
		ListSheetsToolName,
		mcp.WithDescription("Lists all sheets in the configured Excel file, in workbook order. Use before get_sheet_preview to find valid sheet names."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)
}

// Execute loads the workbook and returns its sheet names
func (t *ListSheetsTool) Execute(ctx context.Context, logger *logrus.Logger, args map[string]any) (*mcp.CallToolResult, error) {
	logger.WithField("filepath", t.loader.Path()).Info("Listing sheets")

	wb, err := t.loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	return tools.NewToolResultJSON(SheetList{
		ExcelFile: t.loader.Path(),
		Sheets:    wb.SheetNames(),
	})
}

// ProvideExtendedInfo provides detailed usage information for list_excel_sheets
func (t *ListSheetsTool) ProvideExtendedInfo() *tools.ExtendedHelp {
	return &tools.ExtendedHelp{
		Examples: []tools.ToolExample{
			{
				Description:    "List every sheet in the configured workbook",
				Arguments:      map[string]any{},
				ExpectedResult: `{"excel_file": "/data/Insurance.xlsx", "sheets": ["Policies", "Claims"]}`,
			},
		},
		Troubleshooting: []tools.TroubleshootingTip{
			{
				Problem:  "Tool fails with 'failed to load ... workbook'",
				Solution: "The configured file exists but could not be parsed. Check it opens in a spreadsheet application and is not password protected.",
			},
		},
		WhenToUse:    "Discovering which sheets exist before previewing one.",
		WhenNotToUse: "Reading cell data; use get_sheet_preview for that.",
	}
}

// SheetPreviewTool previews the tables detected in one sheet
type SheetPreviewTool struct {
	loader   WorkbookLoader
	defaults PreviewDefaults
}

// NewSheetPreviewTool creates the get_sheet_preview tool
func NewSheetPreviewTool(loader WorkbookLoader, defaults PreviewDefaults) *SheetPreviewTool {
	return &SheetPreviewTool{loader: loader, defaults: defaults}
}

// Definition returns the tool's definition for MCP registration
func (t *SheetPreviewTool) Definition() mcp.Tool {
	return mcp.NewTool(
		SheetPreviewToolName,
		mcp.WithDescription(`Extracts table-like sections from a sheet of the configured Excel file and returns a preview of each.

A table is a run of consecutive non-empty rows; fully blank rows separate tables. Each preview reports the table's full row and column count plus the first row_preview rows.`),
		mcp.WithString("sheet_name",
			mcp.Required(),
			mcp.Description("Name of the sheet to read (exact, case sensitive). Use list_excel_sheets to find names."),
		),
		mcp.WithNumber("table_limit",
			mcp.Description("Number of tables to preview"),
			mcp.DefaultNumber(float64(t.defaults.TableLimit)),
		),
		mcp.WithNumber("row_preview",
			mcp.Description("Number of rows to show per table"),
			mcp.DefaultNumber(float64(t.defaults.RowPreview)),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)
}

// Execute loads the workbook, extracts the sheet's tables, and returns the preview.
// An unknown sheet is reported as an error payload rather than a failure.
func (t *SheetPreviewTool) Execute(ctx context.Context, logger *logrus.Logger, args map[string]any) (*mcp.CallToolResult, error) {
	sheetName, ok := args["sheet_name"].(string)
	if !ok {
		return nil, &ValidationError{Field: "sheet_name", Value: args["sheet_name"], Message: "sheet_name parameter is required"}
	}

	tableLimit, err := getIntArg(args, "table_limit", t.defaults.TableLimit)
	if err != nil {
		return nil, err
	}
	rowPreview, err := getIntArg(args, "row_preview", t.defaults.RowPreview)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"filepath":    t.loader.Path(),
		"sheet_name":  sheetName,
		"table_limit": tableLimit,
		"row_preview": rowPreview,
	}).Info("Previewing sheet")

	preview, err := t.preview(ctx, sheetName, tableLimit, rowPreview)
	if err != nil {
		var notFound *SheetNotFoundError
		if errors.As(err, &notFound) {
			logger.WithField("sheet_name", sheetName).Debug("Sheet not found")
			return tools.NewToolResultJSON(ErrorResult{Error: notFound.Error()})
		}
		return nil, err
	}

	return tools.NewToolResultJSON(preview)
}

// preview returns a *SheetNotFoundError before any extraction when the sheet is absent
func (t *SheetPreviewTool) preview(ctx context.Context, sheetName string, tableLimit, rowPreview int) (tables.SheetPreview, error) {
	wb, err := t.loader.Load(ctx)
	if err != nil {
		return tables.SheetPreview{}, err
	}

	sheet, ok := wb.Sheet(sheetName)
	if !ok {
		return tables.SheetPreview{}, &SheetNotFoundError{
			SheetName:   sheetName,
			Suggestions: suggestSheets(sheetName, wb.SheetNames()),
		}
	}

	extracted := tables.Extract(sheet.Rows)
	return tables.BuildPreview(sheetName, extracted, tableLimit, rowPreview), nil
}

// ProvideExtendedInfo provides detailed usage information for get_sheet_preview
func (t *SheetPreviewTool) ProvideExtendedInfo() *tools.ExtendedHelp {
	return &tools.ExtendedHelp{
		Examples: []tools.ToolExample{
			{
				Description: "Preview the first two tables of a sheet with five rows each",
				Arguments: map[string]any{
					"sheet_name": "Policies",
				},
				ExpectedResult: `{"sheet_name": "Policies", "detected_tables": 3, "preview": [{"table_index": 1, "rows": 12, "cols": 4, "data": [...]}, ...]}`,
			},
			{
				Description: "Peek at just the header row of the first table",
				Arguments: map[string]any{
					"sheet_name":  "Claims",
					"table_limit": 1,
					"row_preview": 1,
				},
				ExpectedResult: "One preview entry whose data holds only the first row; rows and cols still report the whole table.",
			},
		},
		CommonPatterns: []string{
			"Call list_excel_sheets first, then preview each sheet of interest",
			"Use a small row_preview to inspect headers, then raise it for sample data",
			"detected_tables reports every table in the sheet even when table_limit hides some",
		},
		Troubleshooting: []tools.TroubleshootingTip{
			{
				Problem:  `Result is {"error": "Sheet 'X' not found."}`,
				Solution: "Sheet names are matched exactly. Use a name returned by list_excel_sheets; close matches are suggested in the message.",
			},
			{
				Problem:  "Two blocks of data are reported as one table",
				Solution: "Tables are only split by rows that are completely blank across the sheet's used width. A stray value in an otherwise blank row joins the blocks.",
			},
			{
				Problem:  "Formula cells show empty values",
				Solution: "Only values cached by the spreadsheet application are read. Open and save the file in a spreadsheet application to recalculate them.",
			},
		},
		ParameterDetails: map[string]string{
			"sheet_name":  "Exact sheet name, case sensitive.",
			"table_limit": fmt.Sprintf("Maximum tables to include (default %d). Negative values count back from the last table.", t.defaults.TableLimit),
			"row_preview": fmt.Sprintf("Maximum rows per table (default %d). rows/cols always describe the full table.", t.defaults.RowPreview),
		},
		WhenToUse:    "Understanding the layout and sample contents of a sheet without reading all of its data.",
		WhenNotToUse: "Exporting full sheet contents or editing the workbook; this server is read-only and returns previews only.",
	}
}
