package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// parseArgs converts CLI arguments into tool arguments. It accepts a JSON object,
// --key=value, --key value and bare --flag for booleans.
func parseArgs(args []string, def mcp.Tool) (map[string]any, error) {
	params := make(map[string]any)
	fromFlags := make(map[string]bool)
	schema := newSchemaInfo(def)

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch {
		case strings.HasPrefix(arg, "{"):
			var obj map[string]any
			if err := json.Unmarshal([]byte(arg), &obj); err != nil {
				return nil, fmt.Errorf("invalid JSON argument: %w", err)
			}
			for k, v := range obj {
				if !fromFlags[k] {
					params[k] = v
				}
			}
		case strings.HasPrefix(arg, "--"):
			key, val, err := schema.parseFlag(arg, args, &i)
			if err != nil {
				return nil, err
			}
			params[key] = val
			fromFlags[key] = true
		default:
			return nil, fmt.Errorf("unexpected argument: %s (use --key=value flags or pass a JSON object)", arg)
		}
	}

	return params, nil
}

// schemaInfo maps flag names to parameters and parameters to their JSON Schema types
type schemaInfo struct {
	types       map[string]string
	flagToParam map[string]string
}

func newSchemaInfo(def mcp.Tool) schemaInfo {
	info := schemaInfo{
		types:       make(map[string]string, len(def.InputSchema.Properties)),
		flagToParam: make(map[string]string, len(def.InputSchema.Properties)),
	}
	for name, prop := range def.InputSchema.Properties {
		if pm, ok := prop.(map[string]any); ok {
			if t, ok := pm["type"].(string); ok {
				info.types[name] = t
			}
		}
		info.flagToParam[toFlagName(name)] = name
	}
	return info
}

func (s schemaInfo) param(flagName string) string {
	if name, ok := s.flagToParam[flagName]; ok {
		return name
	}
	return strings.ReplaceAll(flagName, "-", "_")
}

func (s schemaInfo) parseFlag(arg string, args []string, idx *int) (string, any, error) {
	stripped := strings.TrimPrefix(arg, "--")

	if flagName, raw, found := strings.Cut(stripped, "="); found {
		name := s.param(flagName)
		return name, coerceValue(raw, s.types[name]), nil
	}

	name := s.param(stripped)
	if s.types[name] == "boolean" {
		return name, true, nil
	}

	*idx++
	if *idx >= len(args) {
		return "", nil, fmt.Errorf("flag --%s requires a value", stripped)
	}
	return name, coerceValue(args[*idx], s.types[name]), nil
}

// coerceValue converts raw to the Go type matching schemaType. Values that do not parse
// are passed through as strings so the tool can report them.
func coerceValue(raw, schemaType string) any {
	switch schemaType {
	case "number", "integer":
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
	case "boolean":
		if b, err := strconv.ParseBool(raw); err == nil {
			return b
		}
	}
	return raw
}

// toFlagName converts snake_case or camelCase to kebab-case
func toFlagName(s string) string {
	var out strings.Builder
	for i, r := range strings.ReplaceAll(s, "_", "-") {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				out.WriteByte('-')
			}
			r += 'a' - 'A'
		}
		out.WriteRune(r)
	}
	return out.String()
}
