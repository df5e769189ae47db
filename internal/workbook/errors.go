package workbook

import (
	"errors"
	"fmt"
)

// ErrFileNotFound indicates the spreadsheet path does not exist
var ErrFileNotFound = errors.New("excel file not found")

// ErrUnsupportedFormat indicates the file extension has no reader
var ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

// LoadError represents a spreadsheet that exists but could not be read
type LoadError struct {
	Path   string
	Format string
	Cause  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s workbook %s: %v", e.Format, e.Path, e.Cause)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
