package toolhelp_test

import (
	"path/filepath"
	"testing"

	"github.com/sammcj/excel-preview-mcp/internal/registry"
	"github.com/sammcj/excel-preview-mcp/internal/testutils"
	"github.com/sammcj/excel-preview-mcp/internal/tools/excel"
	"github.com/sammcj/excel-preview-mcp/internal/tools/utilities/toolhelp"
	"github.com/sammcj/excel-preview-mcp/internal/workbook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry(t *testing.T) (*registry.Registry, *toolhelp.ToolHelpTool) {
	t.Helper()
	t.Setenv("DISABLED_TOOLS", "")

	loader := workbook.NewLoader(filepath.Join(t.TempDir(), "Insurance.xlsx"))
	reg := registry.New(testutils.CreateTestLogger())
	reg.Register(excel.NewListSheetsTool(loader))
	reg.Register(excel.NewSheetPreviewTool(loader, excel.DefaultPreviewDefaults()))

	help := toolhelp.NewToolHelpTool(reg)
	reg.Register(help)
	return reg, help
}

func TestToolHelpTool_DefinitionEnumeratesTools(t *testing.T) {
	_, help := newRegistry(t)

	def := help.Definition()
	assert.Equal(t, toolhelp.ToolName, def.Name)
	assert.Equal(t, []string{"tool_name"}, def.InputSchema.Required)

	prop, ok := def.InputSchema.Properties["tool_name"].(map[string]any)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"get_sheet_preview", "list_excel_sheets"}, prop["enum"])
}

func TestToolHelpTool_Execute(t *testing.T) {
	reg, _ := newRegistry(t)

	result, err := reg.Execute(testutils.CreateTestContext(), toolhelp.ToolName, map[string]any{
		"tool_name": "get_sheet_preview",
	})
	require.NoError(t, err)

	var got toolhelp.ToolHelpResponse
	testutils.DecodeResult(t, result, &got)
	assert.Equal(t, "get_sheet_preview", got.ToolName)
	assert.True(t, got.HasExtendedInfo)
	assert.Equal(t, "get_sheet_preview", got.BasicInfo["name"])
	require.NotNil(t, got.ExtendedInfo)
	assert.NotEmpty(t, got.ExtendedInfo.Examples)
	assert.Contains(t, got.ExtendedInfo.ParameterDetails, "row_preview")
}

func TestToolHelpTool_Errors(t *testing.T) {
	reg, _ := newRegistry(t)

	_, err := reg.Execute(testutils.CreateTestContext(), toolhelp.ToolName, map[string]any{})
	assert.ErrorContains(t, err, "tool_name")

	_, err = reg.Execute(testutils.CreateTestContext(), toolhelp.ToolName, map[string]any{"tool_name": "unknown"})
	assert.ErrorContains(t, err, "not found")
}
