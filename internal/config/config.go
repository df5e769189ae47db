// Package config resolves the spreadsheet path and preview defaults from flags, the
// environment and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/sammcj/excel-preview-mcp/internal/tables"
	"github.com/sammcj/excel-preview-mcp/internal/workbook"
	"gopkg.in/yaml.v3"
)

// DefaultExcelPath is used when no path is configured anywhere
const DefaultExcelPath = "Insurance.xlsx"

// Config holds the server configuration
type Config struct {
	ExcelPath string        `yaml:"excel_path"`
	Preview   PreviewConfig `yaml:"preview"`
	CSV       CSVConfig     `yaml:"csv"`
}

// PreviewConfig holds the get_sheet_preview defaults
type PreviewConfig struct {
	TableLimit int `yaml:"table_limit"`
	RowPreview int `yaml:"row_preview"`
}

// CSVConfig holds options for delimited sources
type CSVConfig struct {
	Comma string `yaml:"comma"`
}

// ConfigurationError reports configuration that prevents the server from starting
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error in %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		ExcelPath: DefaultExcelPath,
		Preview: PreviewConfig{
			TableLimit: tables.DefaultTableLimit,
			RowPreview: tables.DefaultRowPreview,
		},
		CSV: CSVConfig{Comma: ","},
	}
}

// DefaultConfigPath returns ~/.excel-preview-mcp/config.yaml
func DefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".excel-preview-mcp", "config.yaml")
}

// LoadFile reads a YAML config file over the defaults. A missing file is only an error
// when required is true.
func LoadFile(path string, required bool) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(ExpandHome(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return cfg, nil
		}
		return nil, &ConfigurationError{Field: "config", Err: err}
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &ConfigurationError{Field: "config", Err: fmt.Errorf("failed to parse %s: %w", path, err)}
	}

	return cfg, nil
}

// Validate checks the source file exists and the CSV delimiter is usable. The excel path
// is expanded in place.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ExcelPath) == "" {
		return &ConfigurationError{Field: "excel_path", Err: errors.New("no spreadsheet path configured")}
	}
	c.ExcelPath = ExpandHome(c.ExcelPath)

	if err := workbook.CheckExists(c.ExcelPath); err != nil {
		return &ConfigurationError{Field: "excel_path", Err: err}
	}

	if _, err := c.CSVComma(); err != nil {
		return err
	}
	return nil
}

// CSVComma returns the configured CSV delimiter, defaulting to a comma
func (c *Config) CSVComma() (rune, error) {
	comma := c.CSV.Comma
	if comma == `\t` {
		comma = "\t"
	}
	if comma == "" {
		return ',', nil
	}

	r, size := utf8.DecodeRuneInString(comma)
	if size != len(comma) || r == utf8.RuneError || r == '"' || r == '\r' || r == '\n' {
		return 0, &ConfigurationError{Field: "csv.comma", Err: fmt.Errorf("invalid delimiter %q", c.CSV.Comma)}
	}
	return r, nil
}

// ExpandHome replaces a leading ~/ with the user's home directory
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
}
