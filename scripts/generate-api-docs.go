//go:build ignore

// Generates a markdown reference for the MCP tools from their definitions and extended help.
//
//	go run scripts/generate-api-docs.go -output docs/tools.md
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/template"

	"github.com/sammcj/excel-preview-mcp/internal/registry"
	"github.com/sammcj/excel-preview-mcp/internal/tools"
	"github.com/sammcj/excel-preview-mcp/internal/tools/excel"
	"github.com/sammcj/excel-preview-mcp/internal/tools/utilities/toolhelp"
	"github.com/sammcj/excel-preview-mcp/internal/workbook"
	"github.com/sirupsen/logrus"
)

type ToolInfo struct {
	Name        string
	Description string
	Parameters  []ParameterInfo
	Help        *tools.ExtendedHelp
}

type ParameterInfo struct {
	Name        string
	Type        string
	Required    bool
	Default     string
	Description string
}

const referenceTemplate = `# Tool Reference
{{range .}}
## {{.Name}}

{{.Description}}
{{if .Parameters}}
| Parameter | Type | Required | Default | Description |
|---|---|---|---|---|
{{- range .Parameters}}
| ` + "`{{.Name}}`" + ` | {{.Type}} | {{if .Required}}yes{{else}}no{{end}} | {{.Default}} | {{.Description}} |
{{- end}}
{{else}}
No parameters.
{{end}}
{{- with .Help}}{{if .WhenToUse}}
**When to use:** {{.WhenToUse}}
{{end}}{{range .Examples}}
- {{.Description}}: ` + "`{{json .Arguments}}`" + `
{{- end}}
{{range .Troubleshooting}}
- **{{.Problem}}** {{.Solution}}
{{- end}}
{{end}}
{{end}}`

func main() {
	var (
		toolName = flag.String("tool", "", "Generate docs for a specific tool only")
		output   = flag.String("output", "docs/tools.md", "Output file, or - for stdout")
	)
	flag.Parse()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	// definitions do not read the workbook, so any path will do
	loader := workbook.NewLoader("Insurance.xlsx")
	reg := registry.New(logger)
	reg.Register(excel.NewListSheetsTool(loader))
	reg.Register(excel.NewSheetPreviewTool(loader, excel.DefaultPreviewDefaults()))
	reg.Register(toolhelp.NewToolHelpTool(reg))

	var infos []ToolInfo
	for _, name := range reg.Names() {
		if *toolName != "" && name != *toolName {
			continue
		}
		tool, _ := reg.Tool(name)
		infos = append(infos, extractToolInfo(tool))
	}
	if len(infos) == 0 {
		fmt.Fprintf(os.Stderr, "no tool named %q\n", *toolName)
		os.Exit(1)
	}

	if err := writeReference(infos, *output); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func extractToolInfo(tool tools.Tool) ToolInfo {
	def := tool.Definition()
	info := ToolInfo{Name: def.Name, Description: def.Description}

	for name, raw := range def.InputSchema.Properties {
		schema, _ := raw.(map[string]any)
		param := ParameterInfo{
			Name:     name,
			Required: slices.Contains(def.InputSchema.Required, name),
		}
		param.Type, _ = schema["type"].(string)
		param.Description, _ = schema["description"].(string)
		if dflt, ok := schema["default"]; ok {
			param.Default = fmt.Sprint(dflt)
		}
		info.Parameters = append(info.Parameters, param)
	}
	slices.SortFunc(info.Parameters, func(a, b ParameterInfo) int {
		return strings.Compare(a.Name, b.Name)
	})

	if provider, ok := tool.(tools.ExtendedHelpProvider); ok {
		info.Help = provider.ProvideExtendedInfo()
	}
	return info
}

func writeReference(infos []ToolInfo, output string) error {
	tmpl, err := template.New("reference").Funcs(template.FuncMap{
		"json": func(v any) string {
			data, _ := json.Marshal(v)
			return string(data)
		},
	}).Parse(referenceTemplate)
	if err != nil {
		return fmt.Errorf("parsing template: %w", err)
	}

	if output == "-" {
		return tmpl.Execute(os.Stdout, infos)
	}

	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	file, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating %s: %w", output, err)
	}
	defer file.Close()

	if err := tmpl.Execute(file, infos); err != nil {
		return fmt.Errorf("executing template: %w", err)
	}
	fmt.Printf("Generated %s\n", output)
	return nil
}
