package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

const logFileName = "excel-preview-mcp.log"

// parseLogLevel reads LOG_LEVEL, defaulting to warn when unset or invalid
func parseLogLevel() logrus.Level {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))) {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.WarnLevel
	}
}

// logDir returns ~/.excel-preview-mcp/logs
func logDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to find home directory: %w", err)
	}
	return filepath.Join(homeDir, ".excel-preview-mcp", "logs"), nil
}

// configureLogging points logger at the log file. When the file cannot be opened, stdio
// mode discards output so the protocol stream stays clean and other transports use stderr.
// The returned file, if any, must be closed by the caller.
func configureLogging(logger *logrus.Logger, stdio bool) *os.File {
	level := parseLogLevel()
	logger.SetLevel(level)
	logrus.SetLevel(level)

	file, err := openLogFile()
	if err != nil {
		var fallback io.Writer = os.Stderr
		if stdio {
			fallback = io.Discard
		}
		logger.SetOutput(fallback)
		logrus.SetOutput(fallback)
		logger.WithError(err).Debug("Log file unavailable")
		return nil
	}

	logger.SetOutput(file)
	logrus.SetOutput(file)
	logger.WithField("level", level.String()).Debug("Logging configured")
	return file
}

func openLogFile() (*os.File, error) {
	dir, err := logDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return os.OpenFile(filepath.Join(dir, logFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
}
