package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sammcj/excel-preview-mcp/internal/config"
	"github.com/sammcj/excel-preview-mcp/internal/workbook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, config.DefaultExcelPath, cfg.ExcelPath)
	assert.Equal(t, 2, cfg.Preview.TableLimit)
	assert.Equal(t, 5, cfg.Preview.RowPreview)

	comma, err := cfg.CSVComma()
	require.NoError(t, err)
	assert.Equal(t, ',', comma)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "excel_path: /data/claims.xlsx\npreview:\n  row_preview: 10\ncsv:\n  comma: ';'\n")

	cfg, err := config.LoadFile(path, true)
	require.NoError(t, err)

	assert.Equal(t, "/data/claims.xlsx", cfg.ExcelPath)
	assert.Equal(t, 2, cfg.Preview.TableLimit, "unset fields keep their defaults")
	assert.Equal(t, 10, cfg.Preview.RowPreview)

	comma, err := cfg.CSVComma()
	require.NoError(t, err)
	assert.Equal(t, ';', comma)
}

func TestLoadFile_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")

	cfg, err := config.LoadFile(path, false)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	_, err = config.LoadFile(path, true)
	var cfgErr *config.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "config", cfgErr.Field)
}

func TestLoadFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "preview: [unterminated\n")

	_, err := config.LoadFile(path, true)
	assert.ErrorContains(t, err, "failed to parse")
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "Insurance.csv")
	writeFile(t, existing, "a,b\n")

	cfg := config.Default()
	cfg.ExcelPath = existing
	assert.NoError(t, cfg.Validate())

	cfg.ExcelPath = filepath.Join(dir, "missing.xlsx")
	err := cfg.Validate()
	var cfgErr *config.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "excel_path", cfgErr.Field)
	assert.ErrorIs(t, err, workbook.ErrFileNotFound)

	cfg.ExcelPath = "  "
	assert.Error(t, cfg.Validate())
}

func TestCSVComma(t *testing.T) {
	tests := []struct {
		comma   string
		want    rune
		wantErr bool
	}{
		{comma: "", want: ','},
		{comma: "|", want: '|'},
		{comma: `\t`, want: '\t'},
		{comma: ";;", wantErr: true},
		{comma: `"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.comma, func(t *testing.T) {
			cfg := config.Default()
			cfg.CSV.Comma = tt.comma

			got, err := cfg.CSVComma()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "data.xlsx"), config.ExpandHome("~/data.xlsx"))
	assert.Equal(t, "/abs/data.xlsx", config.ExpandHome("/abs/data.xlsx"))
	assert.Equal(t, "~user/data.xlsx", config.ExpandHome("~user/data.xlsx"))
}
