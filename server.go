package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/sammcj/excel-preview-mcp/internal/config"
	"github.com/sammcj/excel-preview-mcp/internal/registry"
	"github.com/sammcj/excel-preview-mcp/internal/tools"
	"github.com/sammcj/excel-preview-mcp/internal/tools/excel"
	"github.com/sammcj/excel-preview-mcp/internal/tools/utilities/toolhelp"
	"github.com/sammcj/excel-preview-mcp/internal/workbook"
	"github.com/sirupsen/logrus"
	urfavecli "github.com/urfave/cli/v3"
)

// server bundles the registered tools with the resources they need
type server struct {
	registry  *registry.Registry
	errorLog  *tools.ErrorLogger
	transport string
	logger    *logrus.Logger
}

// newServer registers the spreadsheet tools for cfg. The help tool is registered last so
// its enum lists the others.
func newServer(cfg *config.Config, rateLimit float64, transport string, logger *logrus.Logger) (*server, error) {
	comma, err := cfg.CSVComma()
	if err != nil {
		return nil, err
	}

	loader := workbook.NewLoader(cfg.ExcelPath,
		workbook.WithCSVComma(comma),
		workbook.WithLogger(logger),
	)
	defaults := excel.PreviewDefaults{
		TableLimit: cfg.Preview.TableLimit,
		RowPreview: cfg.Preview.RowPreview,
	}

	reg := registry.New(logger)
	reg.SetRateLimit(rateLimit)
	reg.Register(excel.NewListSheetsTool(loader))
	reg.Register(excel.NewSheetPreviewTool(loader, defaults))
	reg.Register(toolhelp.NewToolHelpTool(reg))

	return &server{
		registry:  reg,
		errorLog:  newErrorLog(logger),
		transport: transport,
		logger:    logger,
	}, nil
}

// newErrorLog enables the tool error log when LOG_TOOL_ERRORS=true
func newErrorLog(logger *logrus.Logger) *tools.ErrorLogger {
	if os.Getenv("LOG_TOOL_ERRORS") != "true" {
		return tools.DisabledErrorLogger()
	}

	dir, err := logDir()
	if err != nil {
		logger.WithError(err).Warn("Failed to initialise tool error logger")
		return tools.DisabledErrorLogger()
	}

	retention, _ := strconv.Atoi(os.Getenv("LOG_TOOL_ERRORS_RETENTION_DAYS"))
	errorLog, err := tools.NewErrorLogger(logger, dir, retention)
	if err != nil {
		logger.WithError(err).Warn("Failed to initialise tool error logger")
		return tools.DisabledErrorLogger()
	}
	return errorLog
}

// Close releases the error log
func (s *server) Close() {
	if err := s.errorLog.Close(); err != nil {
		s.logger.WithError(err).Warn("Failed to close tool error logger")
	}
}

// handler adapts a registered tool to an MCP tool handler
func (s *server) handler(name string) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, ok := request.Params.Arguments.(map[string]any)
		if !ok && request.Params.Arguments != nil {
			return nil, fmt.Errorf("invalid arguments type: expected map[string]any, got %T", request.Params.Arguments)
		}

		result, err := s.registry.Execute(ctx, name, args)
		if err != nil {
			s.logger.WithError(err).WithField("tool", name).Error("Tool execution failed")
			s.errorLog.Log(name, args, err, s.transport)
			return nil, fmt.Errorf("tool execution failed: %w", err)
		}
		return result, nil
	}
}

// mcpServer creates an MCP server exposing every registered tool
func (s *server) mcpServer() *mcpserver.MCPServer {
	srv := mcpserver.NewMCPServer("excel-preview-mcp", Version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)

	for name, tool := range s.registry.Tools() {
		srv.AddTool(tool.Definition(), s.handler(name))
		s.logger.WithField("tool", name).Debug("Registered MCP tool")
	}
	return srv
}

// serve is the root command action
func serve(ctx context.Context, cmd *urfavecli.Command, logger *logrus.Logger) error {
	transport := cmd.String("transport")
	isStdioMode.Store(transport == "stdio")

	if file := configureLogging(logger, transport == "stdio"); file != nil {
		defer func() { _ = file.Close() }()
	}

	cfg, err := resolveConfig(cmd)
	if err != nil {
		logger.WithError(err).Error("Invalid configuration")
		return err
	}

	srv, err := newServer(cfg, cmd.Float("rate-limit"), transport, logger)
	if err != nil {
		return err
	}
	defer srv.Close()

	logger.WithFields(logrus.Fields{
		"version":    Version,
		"excel_path": cfg.ExcelPath,
		"transport":  transport,
		"tools":      srv.registry.Names(),
	}).Info("Starting excel-preview-mcp")

	mcpSrv := srv.mcpServer()
	port := cmd.String("port")

	switch transport {
	case "stdio":
		return mcpserver.ServeStdio(mcpSrv)
	case "sse":
		sseServer := mcpserver.NewSSEServer(mcpSrv, mcpserver.WithBaseURL(fmt.Sprintf("%s:%s", cmd.String("base-url"), port)))
		logger.WithField("port", port).Info("Starting SSE server")
		return sseServer.Start(":" + port)
	case "http":
		return startStreamableHTTPServer(ctx, cmd, mcpSrv, logger)
	default:
		return fmt.Errorf("unsupported transport: %s", transport)
	}
}

// startStreamableHTTPServer serves the MCP endpoint until ctx is cancelled, then shuts
// down gracefully
func startStreamableHTTPServer(ctx context.Context, cmd *urfavecli.Command, mcpSrv *mcpserver.MCPServer, logger *logrus.Logger) error {
	port := cmd.String("port")
	endpointPath := cmd.String("endpoint-path")
	sessionTimeout := cmd.Duration("session-timeout")

	opts := []mcpserver.StreamableHTTPOption{
		mcpserver.WithEndpointPath(endpointPath),
		mcpserver.WithLogger(&logrusAdapter{logger: logger}),
	}

	heartbeatInterval := 30 * time.Second
	if sessionTimeout > 0 {
		opts = append(opts, mcpserver.WithSessionIdManager(NewTimeoutSessionManager(sessionTimeout, logger)))
		heartbeatInterval = sessionTimeout / 4
	}
	opts = append(opts, mcpserver.WithHeartbeatInterval(heartbeatInterval))

	var handler http.Handler = mcpserver.NewStreamableHTTPServer(mcpSrv, opts...)
	if token := cmd.String("auth-token"); token != "" {
		handler = requireBearerToken(token, logger, handler)
		logger.Info("Bearer token authentication enabled")
	}

	mux := http.NewServeMux()
	mux.Handle(endpointPath, handler)

	httpServer := &http.Server{
		Addr:           ":" + port,
		Handler:        mux,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()
	logger.WithFields(logrus.Fields{
		"port":      port,
		"endpoint":  endpointPath,
		"heartbeat": heartbeatInterval.String(),
	}).Info("Streamable HTTP server started")

	select {
	case err := <-serverErr:
		return fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
		logger.Info("Shutdown signal received, stopping HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}

	logger.Info("HTTP server stopped gracefully")
	return nil
}

// logrusAdapter adapts logrus.Logger to the mcp-go util.Logger interface
type logrusAdapter struct {
	logger *logrus.Logger
}

func (l *logrusAdapter) Infof(format string, args ...any) {
	l.logger.Infof(format, args...)
}

func (l *logrusAdapter) Errorf(format string, args ...any) {
	l.logger.Errorf(format, args...)
}
