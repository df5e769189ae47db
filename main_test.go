package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/excel-preview-mcp/internal/config"
	"github.com/sammcj/excel-preview-mcp/internal/testutils"
	"github.com/sammcj/excel-preview-mcp/internal/tools"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	urfavecli "github.com/urfave/cli/v3"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]logrus.Level{
		"":        logrus.WarnLevel,
		"debug":   logrus.DebugLevel,
		" INFO ":  logrus.InfoLevel,
		"warning": logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
		"bogus":   logrus.WarnLevel,
	}
	for value, want := range tests {
		t.Run(value, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", value)
			assert.Equal(t, want, parseLogLevel())
		})
	}
}

func TestTimeoutSessionManager(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewTimeoutSessionManager(time.Minute, testutils.CreateTestLogger())
	m.now = func() time.Time { return now }

	id := m.Generate()
	terminated, err := m.Validate(id)
	require.NoError(t, err)
	assert.False(t, terminated)

	now = now.Add(2 * time.Minute)
	terminated, err = m.Validate(id)
	require.NoError(t, err)
	assert.True(t, terminated, "idle sessions expire")

	_, err = m.Validate("not-a-uuid")
	assert.ErrorIs(t, err, errInvalidSession)

	id = m.Generate()
	notAllowed, err := m.Terminate(id)
	require.NoError(t, err)
	assert.False(t, notAllowed)
	terminated, err = m.Validate(id)
	require.NoError(t, err)
	assert.True(t, terminated)
}

func TestRequireBearerToken(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := requireBearerToken("s3cret", testutils.CreateTestLogger(), next)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic s3cret", want: http.StatusUnauthorized},
		{name: "wrong token", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "valid", header: "Bearer s3cret", want: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/http", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

// runWithFlags parses args against the root flags and returns the resolved config
func runWithFlags(t *testing.T, args ...string) (*config.Config, error) {
	t.Helper()

	var (
		cfg *config.Config
		err error
	)
	app := newApp(testutils.CreateTestLogger())
	app.Action = func(ctx context.Context, cmd *urfavecli.Command) error {
		cfg, err = resolveConfig(cmd)
		return nil
	}
	require.NoError(t, app.Run(context.Background(), append([]string{"excel-preview-mcp"}, args...)))
	return cfg, err
}

func TestResolveConfig(t *testing.T) {
	t.Setenv("EXCEL_PATH", "")
	t.Setenv("EXCEL_PREVIEW_CONFIG", "")
	dir := t.TempDir()

	fromFile := filepath.Join(dir, "from-file.csv")
	fromFlag := filepath.Join(dir, "from-flag.csv")
	require.NoError(t, os.WriteFile(fromFile, []byte("a\n"), 0o600))
	require.NoError(t, os.WriteFile(fromFlag, []byte("a\n"), 0o600))

	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("excel_path: "+fromFile+"\npreview:\n  table_limit: 4\n"), 0o600))

	cfg, err := runWithFlags(t, "--config", configPath)
	require.NoError(t, err)
	assert.Equal(t, fromFile, cfg.ExcelPath)
	assert.Equal(t, 4, cfg.Preview.TableLimit)

	cfg, err = runWithFlags(t, "--config", configPath, "--excel-path", fromFlag)
	require.NoError(t, err)
	assert.Equal(t, fromFlag, cfg.ExcelPath, "the flag overrides the config file")

	_, err = runWithFlags(t, "--config", configPath, "--excel-path", filepath.Join(dir, "missing.xlsx"))
	var cfgErr *config.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestServer_HandlerLogsToolErrors(t *testing.T) {
	t.Setenv("DISABLED_TOOLS", "")
	t.Setenv("LOG_TOOL_ERRORS", "")
	dir := t.TempDir()

	path := filepath.Join(dir, "Insurance.xlsx")
	testutils.WriteWorkbook(t, path, testutils.SheetFixture{Name: "Sheet1", Rows: [][]any{{"A"}}})

	cfg := config.Default()
	cfg.ExcelPath = path
	srv, err := newServer(cfg, 0, "stdio", testutils.CreateTestLogger())
	require.NoError(t, err)
	defer srv.Close()

	errorLog, err := tools.NewErrorLogger(testutils.CreateTestLogger(), dir, 0)
	require.NoError(t, err)
	srv.errorLog = errorLog

	assert.ElementsMatch(t, []string{"get_sheet_preview", "get_tool_help", "list_excel_sheets"}, srv.registry.Names())

	request := mcp.CallToolRequest{}
	request.Params.Name = "get_sheet_preview"
	request.Params.Arguments = map[string]any{"sheet_name": "Sheet1"}
	result, err := srv.handler("get_sheet_preview")(context.Background(), request)
	require.NoError(t, err)
	require.NotNil(t, result)

	request.Params.Arguments = map[string]any{"sheet_name": 7}
	_, err = srv.handler("get_sheet_preview")(context.Background(), request)
	require.ErrorContains(t, err, "tool execution failed")

	require.NoError(t, srv.errorLog.Close())
	data, err := os.ReadFile(errorLog.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"tool_name":"get_sheet_preview"`)
	assert.Contains(t, string(data), `"transport":"stdio"`)
}

func TestServer_MCPServerListsTools(t *testing.T) {
	t.Setenv("DISABLED_TOOLS", "get_tool_help")
	path := filepath.Join(t.TempDir(), "Insurance.xlsx")
	testutils.WriteWorkbook(t, path, testutils.SheetFixture{Name: "Sheet1"})

	cfg := config.Default()
	cfg.ExcelPath = path
	srv, err := newServer(cfg, 0, "http", testutils.CreateTestLogger())
	require.NoError(t, err)
	defer srv.Close()

	mcpSrv := srv.mcpServer()
	require.NotNil(t, mcpSrv)
	assert.ElementsMatch(t, []string{"get_sheet_preview", "list_excel_sheets"}, srv.registry.Names())
}
