package excel

import (
	"fmt"
	"math"

	"github.com/sahilm/fuzzy"
)

// maxSuggestions caps how many close sheet names a not-found message lists
const maxSuggestions = 3

// getIntArg extracts an integer argument. JSON numbers arrive as float64; the CLI may
// pass int64. Missing arguments return def, and floats outside the int range saturate.
func getIntArg(args map[string]any, key string, def int) (int, error) {
	val, exists := args[key]
	if !exists || val == nil {
		return def, nil
	}

	switch v := val.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, &ValidationError{Field: key, Value: val, Message: "must be a whole number"}
		}
		switch {
		case v >= math.MaxInt:
			return math.MaxInt, nil
		case v <= math.MinInt:
			return math.MinInt, nil
		}
		return int(v), nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	default:
		return 0, &ValidationError{Field: key, Value: val, Message: fmt.Sprintf("must be a number, got %T", val)}
	}
}

// suggestSheets returns up to maxSuggestions sheet names that fuzzily match name
func suggestSheets(name string, sheets []string) []string {
	if name == "" || len(sheets) == 0 {
		return nil
	}

	matches := fuzzy.Find(name, sheets)
	suggestions := make([]string, 0, maxSuggestions)
	for _, match := range matches {
		suggestions = append(suggestions, match.Str)
		if len(suggestions) == maxSuggestions {
			break
		}
	}
	return suggestions
}
