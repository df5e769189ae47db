package excel

import (
	"fmt"
	"strings"
)

// ValidationError represents an argument that is missing or has the wrong type
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

// SheetNotFoundError reports a sheet name that is not in the workbook. Suggestions holds
// close matches, best first.
type SheetNotFoundError struct {
	SheetName   string
	Suggestions []string
}

func (e *SheetNotFoundError) Error() string {
	msg := fmt.Sprintf("Sheet '%s' not found.", e.SheetName)
	if len(e.Suggestions) > 0 {
		msg += " Did you mean: " + strings.Join(e.Suggestions, ", ") + "?"
	}
	return msg
}
