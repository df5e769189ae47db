// Package toolhelp exposes the extended usage information of registered tools as a tool
package toolhelp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/excel-preview-mcp/internal/registry"
	"github.com/sammcj/excel-preview-mcp/internal/tools"
	"github.com/sirupsen/logrus"
)

// ToolName is the name the help tool is registered under
const ToolName = "get_tool_help"

// ToolHelpTool returns examples and troubleshooting tips for other registered tools
type ToolHelpTool struct {
	registry *registry.Registry
}

// NewToolHelpTool creates a help tool that describes the tools in reg
func NewToolHelpTool(reg *registry.Registry) *ToolHelpTool {
	return &ToolHelpTool{registry: reg}
}

// Definition returns the tool's definition for MCP registration. It must be called after
// the other tools are registered so the enum lists them.
func (t *ToolHelpTool) Definition() mcp.Tool {
	toolsWithExtendedHelp := t.helpfulTools()

	description := "Get detailed usage examples and troubleshooting for the spreadsheet tools when a call returns something unexpected."
	if len(toolsWithExtendedHelp) == 0 {
		description = "No tools currently provide extended help information."
	}

	return mcp.NewTool(
		ToolName,
		mcp.WithDescription(description),
		mcp.WithString("tool_name",
			mcp.Required(),
			mcp.Description("Name of the tool to get help for"),
			mcp.Enum(toolsWithExtendedHelp...),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)
}

// Execute returns the help for the named tool
func (t *ToolHelpTool) Execute(ctx context.Context, logger *logrus.Logger, args map[string]any) (*mcp.CallToolResult, error) {
	toolName, ok := args["tool_name"].(string)
	if !ok || toolName == "" {
		return nil, fmt.Errorf("invalid parameters: missing or invalid required parameter: tool_name")
	}

	available := strings.Join(t.helpfulTools(), ", ")

	tool, exists := t.registry.Tool(toolName)
	if !exists {
		return nil, fmt.Errorf("tool '%s' not found or disabled. Tools with extended help: %s", toolName, available)
	}

	provider, ok := tool.(tools.ExtendedHelpProvider)
	if !ok {
		return nil, fmt.Errorf("tool '%s' does not provide extended help. Tools with extended help: %s", toolName, available)
	}

	logger.WithField("tool_name", toolName).Debug("Providing tool help")

	response := &ToolHelpResponse{
		ToolName:        toolName,
		BasicInfo:       basicInfo(tool),
		HasExtendedInfo: true,
	}
	if info := provider.ProvideExtendedInfo(); info != nil {
		response.ExtendedInfo = info
	} else {
		response.HasExtendedInfo = false
		response.Message = fmt.Sprintf("Tool '%s' returned no extended information", toolName)
	}

	return tools.NewToolResultJSON(response)
}

// helpfulTools lists registered tools with extended help, excluding this one
func (t *ToolHelpTool) helpfulTools() []string {
	names := make([]string, 0)
	for _, name := range t.registry.NamesWithExtendedHelp() {
		if name != ToolName {
			names = append(names, name)
		}
	}
	return names
}

func basicInfo(tool tools.Tool) map[string]any {
	definition := tool.Definition()

	info := map[string]any{
		"name":        definition.Name,
		"description": definition.Description,
	}
	if definition.InputSchema.Type != "" {
		info["input_schema"] = definition.InputSchema
	}
	return info
}
