// Package cli runs the spreadsheet tools directly from the command line. Tools execute
// in-process through the registry, so no MCP client is needed.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/excel-preview-mcp/internal/registry"
	"github.com/sammcj/excel-preview-mcp/internal/tools"
)

// OutputFormat controls how results are rendered
type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates an --output value
func ParseOutputFormat(value string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(value)) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (expected text or json)", value)
	}
}

// Runner executes CLI commands against the tool registry
type Runner struct {
	registry *registry.Registry
	output   OutputFormat
	out      io.Writer
}

// NewRunner creates a Runner writing to out in the given format
func NewRunner(reg *registry.Registry, output OutputFormat, out io.Writer) *Runner {
	return &Runner{registry: reg, output: output, out: out}
}

type toolSummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ListTools prints the enabled tools and the first line of their descriptions
func (r *Runner) ListTools() error {
	names := r.registry.Names()
	entries := make([]toolSummary, 0, len(names))
	for _, name := range names {
		tool, _ := r.registry.Tool(name)
		entries = append(entries, toolSummary{Name: name, Description: firstLine(tool.Definition().Description)})
	}

	if r.output == OutputJSON {
		return writeJSON(r.out, entries)
	}

	name := color.New(color.FgCyan, color.Bold).SprintFunc()
	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\n", name(e.Name), e.Description)
	}
	return w.Flush()
}

// HelpTool prints the parameters of a tool and its extended help when it has any
func (r *Runner) HelpTool(name string) error {
	tool, ok := r.resolveTool(name)
	if !ok {
		return fmt.Errorf("unknown tool: %s", name)
	}
	def := tool.Definition()

	var extended *tools.ExtendedHelp
	if provider, ok := tool.(tools.ExtendedHelpProvider); ok {
		extended = provider.ProvideExtendedInfo()
	}

	if r.output == OutputJSON {
		return writeJSON(r.out, struct {
			Tool     mcp.Tool            `json:"tool"`
			Extended *tools.ExtendedHelp `json:"extended_help,omitempty"`
		}{def, extended})
	}

	heading := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(r.out, "%s %s\n\n", heading("Tool:"), def.Name)
	if def.Description != "" {
		fmt.Fprintf(r.out, "%s\n\n", def.Description)
	}

	if len(def.InputSchema.Properties) == 0 {
		fmt.Fprintln(r.out, "No parameters.")
	} else {
		fmt.Fprintln(r.out, heading("Parameters:"))
		if err := r.writeParameters(def); err != nil {
			return err
		}
	}

	if extended != nil && len(extended.Examples) > 0 {
		fmt.Fprintf(r.out, "\n%s\n", heading("Examples:"))
		for _, example := range extended.Examples {
			args, err := json.Marshal(example.Arguments)
			if err != nil {
				return fmt.Errorf("failed to encode example arguments: %w", err)
			}
			fmt.Fprintf(r.out, "  %s\n    %s\n", example.Description, color.GreenString(string(args)))
		}
	}
	return nil
}

func (r *Runner) writeParameters(def mcp.Tool) error {
	props := def.InputSchema.Properties
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	slices.Sort(names)

	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	for _, name := range names {
		prop, ok := props[name].(map[string]any)
		if !ok {
			continue
		}
		propType, _ := prop["type"].(string)
		desc, _ := prop["description"].(string)

		suffix := ""
		if slices.Contains(def.InputSchema.Required, name) {
			suffix = color.YellowString(" (required)")
		} else if dflt, ok := prop["default"]; ok {
			suffix = fmt.Sprintf(" (default %v)", dflt)
		}
		fmt.Fprintf(w, "  --%s\t%s\t%s%s%s\n", toFlagName(name), propType, firstLine(desc), suffix, formatEnum(prop))
	}
	return w.Flush()
}

// RunTool executes a tool with arguments given as --key=value flags, a JSON object, or both.
// Flags take precedence over JSON keys.
func (r *Runner) RunTool(ctx context.Context, name string, args []string) error {
	tool, ok := r.resolveTool(name)
	if !ok {
		return fmt.Errorf("unknown tool: %s (run 'excel-preview-mcp cli list' to see available tools)", name)
	}
	def := tool.Definition()

	params, err := parseArgs(args, def)
	if err != nil {
		return fmt.Errorf("argument error: %w", err)
	}

	result, err := r.registry.Execute(ctx, def.Name, params)
	if err != nil {
		return fmt.Errorf("tool error: %w", err)
	}
	return r.renderResult(result)
}

func (r *Runner) renderResult(result *mcp.CallToolResult) error {
	if result == nil {
		return nil
	}

	if r.output == OutputJSON {
		for _, content := range result.Content {
			if text, ok := content.(mcp.TextContent); ok && json.Valid([]byte(text.Text)) {
				if _, err := fmt.Fprintln(r.out, text.Text); err != nil {
					return err
				}
				continue
			}
			if err := writeJSON(r.out, content); err != nil {
				return err
			}
		}
	} else {
		for _, content := range result.Content {
			switch c := content.(type) {
			case mcp.TextContent:
				fmt.Fprintln(r.out, c.Text)
			default:
				if err := writeJSON(r.out, c); err != nil {
					return err
				}
			}
		}
	}

	if result.IsError {
		return fmt.Errorf("tool returned an error")
	}
	return nil
}

// resolveTool accepts kebab-case names as typed on the command line
func (r *Runner) resolveTool(name string) (tools.Tool, bool) {
	if tool, ok := r.registry.Tool(name); ok {
		return tool, true
	}
	return r.registry.Tool(strings.ReplaceAll(name, "-", "_"))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func firstLine(s string) string {
	before, _, _ := strings.Cut(s, "\n")
	return before
}

func formatEnum(prop map[string]any) string {
	var values []string
	switch enum := prop["enum"].(type) {
	case []string:
		values = enum
	case []any:
		for _, v := range enum {
			values = append(values, fmt.Sprint(v))
		}
	}
	if len(values) == 0 {
		return ""
	}
	return " [" + strings.Join(values, "|") + "]"
}
