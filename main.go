package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sammcj/excel-preview-mcp/internal/cli"
	"github.com/sammcj/excel-preview-mcp/internal/config"
	"github.com/sirupsen/logrus"
	urfavecli "github.com/urfave/cli/v3"
)

// Version information (set during build)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// isStdioMode is read by the exit path, which must not write to stdout or stderr in stdio mode
var isStdioMode atomic.Bool

func main() {
	// .env never overrides variables that are already set
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Discard output until the transport is known
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(parseLogLevel())
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	app := newApp(logger)
	if err := app.Run(ctx, os.Args); err != nil {
		// Nothing may be written to stdout or stderr in stdio mode; serve has already
		// logged the error to the log file
		if !isStdioMode.Load() {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newApp(logger *logrus.Logger) *urfavecli.Command {
	return &urfavecli.Command{
		Name:    "excel-preview-mcp",
		Usage:   "MCP server for previewing the tables in a spreadsheet",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		Flags: []urfavecli.Flag{
			&urfavecli.StringFlag{
				Name:    "excel-path",
				Aliases: []string{"f"},
				Usage:   "Spreadsheet to serve (.xlsx, .xlsm, .xls, .csv or .tsv)",
				Sources: urfavecli.EnvVars("EXCEL_PATH"),
			},
			&urfavecli.StringFlag{
				Name:    "config",
				Usage:   "YAML config file (default: ~/.excel-preview-mcp/config.yaml)",
				Sources: urfavecli.EnvVars("EXCEL_PREVIEW_CONFIG"),
			},
			&urfavecli.StringFlag{
				Name:    "transport",
				Aliases: []string{"t"},
				Value:   "stdio",
				Usage:   "Transport type (stdio, sse, or http)",
			},
			&urfavecli.StringFlag{
				Name:  "port",
				Value: "18080",
				Usage: "Port to use for HTTP transports (SSE and Streamable HTTP)",
			},
			&urfavecli.StringFlag{
				Name:  "base-url",
				Value: "http://localhost",
				Usage: "Base URL for HTTP transports",
			},
			&urfavecli.StringFlag{
				Name:    "auth-token",
				Usage:   "Bearer token required by the Streamable HTTP transport (optional)",
				Sources: urfavecli.EnvVars("EXCEL_PREVIEW_AUTH_TOKEN"),
			},
			&urfavecli.StringFlag{
				Name:  "endpoint-path",
				Value: "/http",
				Usage: "Endpoint path for Streamable HTTP transport",
			},
			&urfavecli.DurationFlag{
				Name:  "session-timeout",
				Value: 30 * time.Minute,
				Usage: "Idle timeout for Streamable HTTP sessions",
			},
			&urfavecli.FloatFlag{
				Name:    "rate-limit",
				Usage:   "Maximum tool calls per second (0 for unlimited)",
				Sources: urfavecli.EnvVars("EXCEL_PREVIEW_RATE_LIMIT"),
			},
		},
		Commands: []*urfavecli.Command{
			{
				Name:  "version",
				Usage: "Print version information",
				Action: func(ctx context.Context, cmd *urfavecli.Command) error {
					fmt.Printf("excel-preview-mcp version %s\n", Version)
					fmt.Printf("Commit: %s\n", Commit)
					fmt.Printf("Built: %s\n", BuildDate)
					return nil
				},
			},
			newCLICommand(logger),
		},
		Action: func(ctx context.Context, cmd *urfavecli.Command) error {
			return serve(ctx, cmd, logger)
		},
	}
}

// newCLICommand runs tools directly without an MCP client
func newCLICommand(logger *logrus.Logger) *urfavecli.Command {
	runner := func(cmd *urfavecli.Command) (*cli.Runner, func(), error) {
		output, err := cli.ParseOutputFormat(cmd.String("output"))
		if err != nil {
			return nil, nil, err
		}

		logger.SetOutput(os.Stderr)
		logger.SetLevel(parseLogLevel())

		cfg, err := resolveConfig(cmd)
		if err != nil {
			return nil, nil, err
		}
		srv, err := newServer(cfg, cmd.Float("rate-limit"), "cli", logger)
		if err != nil {
			return nil, nil, err
		}
		return cli.NewRunner(srv.registry, output, os.Stdout), srv.Close, nil
	}

	return &urfavecli.Command{
		Name:  "cli",
		Usage: "Run tools directly from the command line",
		Flags: []urfavecli.Flag{
			&urfavecli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   "text",
				Usage:   "Output format (text or json)",
			},
		},
		Commands: []*urfavecli.Command{
			{
				Name:  "list",
				Usage: "List available tools",
				Action: func(ctx context.Context, cmd *urfavecli.Command) error {
					r, closeFn, err := runner(cmd)
					if err != nil {
						return err
					}
					defer closeFn()
					return r.ListTools()
				},
			},
			{
				Name:      "help",
				Usage:     "Show parameters and examples for a tool",
				ArgsUsage: "<tool>",
				Action: func(ctx context.Context, cmd *urfavecli.Command) error {
					if cmd.Args().Len() != 1 {
						return fmt.Errorf("usage: excel-preview-mcp cli help <tool>")
					}
					r, closeFn, err := runner(cmd)
					if err != nil {
						return err
					}
					defer closeFn()
					return r.HelpTool(cmd.Args().First())
				},
			},
			{
				Name:            "run",
				Usage:           "Run a tool with --key=value flags or a JSON object",
				ArgsUsage:       "<tool> [--key=value ...] ['{\"key\": \"value\"}']",
				SkipFlagParsing: true,
				Action: func(ctx context.Context, cmd *urfavecli.Command) error {
					if cmd.Args().Len() < 1 {
						return fmt.Errorf("usage: excel-preview-mcp cli run <tool> [arguments]")
					}
					r, closeFn, err := runner(cmd)
					if err != nil {
						return err
					}
					defer closeFn()
					return r.RunTool(ctx, cmd.Args().First(), cmd.Args().Tail())
				},
			},
		},
	}
}

// resolveConfig applies, in increasing precedence, the defaults, the YAML config file and
// the --excel-path flag or EXCEL_PATH. The result is validated.
func resolveConfig(cmd *urfavecli.Command) (*config.Config, error) {
	configPath := cmd.String("config")
	required := configPath != ""
	if !required {
		configPath = config.DefaultConfigPath()
	}

	cfg, err := config.LoadFile(configPath, required)
	if err != nil {
		return nil, err
	}

	if path := strings.TrimSpace(cmd.String("excel-path")); path != "" {
		cfg.ExcelPath = path
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
