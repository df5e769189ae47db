// Package workbook loads spreadsheet files into an in-memory grid of computed cell values.
//
// Files are opened read-only and closed before Load returns. Nothing is cached: every call
// to Load reads the file from disk again.
package workbook

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Sheet is a named grid of rows. All rows share the same width.
type Sheet struct {
	Name string
	Rows []Row
}

// Width returns the number of columns in the sheet
func (s *Sheet) Width() int {
	if len(s.Rows) == 0 {
		return 0
	}
	return len(s.Rows[0])
}

// Workbook is a loaded spreadsheet
type Workbook struct {
	Path   string
	Format string
	sheets []*Sheet
}

// SheetNames returns the sheet names in workbook order
func (w *Workbook) SheetNames() []string {
	names := make([]string, len(w.sheets))
	for i, s := range w.sheets {
		names[i] = s.Name
	}
	return names
}

// Sheet returns the sheet with the exact given name
func (w *Workbook) Sheet(name string) (*Sheet, bool) {
	for _, s := range w.sheets {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// Loader opens the spreadsheet at a fixed path
type Loader struct {
	path   string
	comma  rune
	logger *logrus.Logger
}

// Option configures a Loader
type Option func(*Loader)

// WithCSVComma sets the field delimiter used for .csv sources
func WithCSVComma(comma rune) Option {
	return func(l *Loader) {
		if comma != 0 {
			l.comma = comma
		}
	}
}

// WithLogger enables debug logging of loads
func WithLogger(logger *logrus.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader creates a loader for the spreadsheet at path
func NewLoader(path string, opts ...Option) *Loader {
	l := &Loader{path: path, comma: ','}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the spreadsheet path
func (l *Loader) Path() string {
	return l.path
}

// Load reads the whole workbook. It returns an error wrapping ErrFileNotFound when the
// path is missing and a *LoadError when the file cannot be parsed.
func (l *Loader) Load(ctx context.Context) (*Workbook, error) {
	if err := CheckExists(l.path); err != nil {
		return nil, err
	}

	start := time.Now()
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(l.path), "."))

	var (
		sheets []*Sheet
		err    error
	)
	switch format {
	case "xlsx", "xlsm", "xltx", "xltm":
		sheets, err = readXLSX(ctx, l.path)
	case "xls":
		sheets, err = readXLS(ctx, l.path)
	case "csv":
		sheets, err = readCSV(l.path, l.comma)
	case "tsv":
		sheets, err = readCSV(l.path, '\t')
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(l.path))
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &LoadError{Path: l.path, Format: format, Cause: err}
	}

	if l.logger != nil {
		l.logger.WithFields(logrus.Fields{
			"path":     l.path,
			"format":   format,
			"sheets":   len(sheets),
			"duration": time.Since(start).String(),
		}).Debug("Loaded workbook")
	}

	return &Workbook{Path: l.path, Format: format, sheets: sheets}, nil
}

// CheckExists returns an error wrapping ErrFileNotFound when path does not exist
func CheckExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrFileNotFound, path)
	}
	return nil
}
