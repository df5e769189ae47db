package tools

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultLogRetentionDays is the default number of days to retain error logs
	DefaultLogRetentionDays = 60

	errorLogFileName = "tool-errors.log"
)

// ErrorLogEntry is one line of the tool error log
type ErrorLogEntry struct {
	Timestamp string         `json:"timestamp"`
	ToolName  string         `json:"tool_name"`
	Arguments map[string]any `json:"arguments,omitempty"`
	Error     string         `json:"error"`
	Transport string         `json:"transport,omitempty"`
}

// ErrorLogger appends failed tool invocations to a JSON lines file.
// A disabled logger accepts every call and writes nothing.
type ErrorLogger struct {
	mu        sync.Mutex
	logger    *logrus.Logger
	file      *os.File
	path      string
	retention time.Duration
	now       func() time.Time
}

// DisabledErrorLogger returns a logger that records nothing
func DisabledErrorLogger() *ErrorLogger {
	return &ErrorLogger{}
}

// NewErrorLogger opens (or creates) the error log in dir and drops entries older than
// retentionDays. A non-positive retentionDays uses DefaultLogRetentionDays.
func NewErrorLogger(logger *logrus.Logger, dir string, retentionDays int) (*ErrorLogger, error) {
	if retentionDays <= 0 {
		retentionDays = DefaultLogRetentionDays
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	l := &ErrorLogger{
		logger:    logger,
		path:      filepath.Join(dir, errorLogFileName),
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		now:       time.Now,
	}

	if err := l.rotate(); err != nil {
		return nil, err
	}

	logger.WithField("path", l.path).Info("Tool error logging enabled")
	return l, nil
}

// Enabled reports whether entries are written
func (l *ErrorLogger) Enabled() bool {
	return l.path != ""
}

// Path returns the log file path, or "" when disabled
func (l *ErrorLogger) Path() string {
	return l.path
}

// Log records a failed tool invocation
func (l *ErrorLogger) Log(toolName string, args map[string]any, err error, transport string) {
	if !l.Enabled() {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return
	}

	line, marshalErr := json.Marshal(ErrorLogEntry{
		Timestamp: l.now().Format(time.RFC3339),
		ToolName:  toolName,
		Arguments: args,
		Error:     err.Error(),
		Transport: transport,
	})
	if marshalErr != nil {
		l.logger.WithError(marshalErr).Error("Failed to marshal tool error log entry")
		return
	}

	if _, writeErr := l.file.Write(append(line, '\n')); writeErr != nil {
		l.logger.WithError(writeErr).Error("Failed to write tool error log entry")
		return
	}
	if syncErr := l.file.Sync(); syncErr != nil {
		l.logger.WithError(syncErr).Error("Failed to sync tool error log file")
	}
}

// Close closes the log file
func (l *ErrorLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// rotate rewrites the log keeping only entries inside the retention window, then
// reopens it for appending. Malformed lines are kept.
func (l *ErrorLogger) rotate() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		if err := l.file.Close(); err != nil {
			return fmt.Errorf("failed to close log file for rotation: %w", err)
		}
		l.file = nil
	}

	kept, err := l.readRetained()
	if err != nil {
		return err
	}

	if kept != nil {
		tmpPath := l.path + ".tmp"
		if err := os.WriteFile(tmpPath, []byte(strings.Join(kept, "\n")+"\n"), 0600); err != nil {
			return fmt.Errorf("failed to write rotated log file: %w", err)
		}
		if err := os.Rename(tmpPath, l.path); err != nil {
			_ = os.Remove(tmpPath)
			return fmt.Errorf("failed to replace log file during rotation: %w", err)
		}
	}

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("failed to open tool error log file: %w", err)
	}
	l.file = file
	return nil
}

// readRetained returns the lines to keep, or nil when the file does not exist yet
func (l *ErrorLogger) readRetained() ([]string, error) {
	file, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open log file for rotation: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	cutoff := l.now().Add(-l.retention)
	kept := []string{}

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var entry ErrorLogEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			kept = append(kept, line)
			continue
		}
		ts, err := time.Parse(time.RFC3339, entry.Timestamp)
		if err != nil || ts.After(cutoff) {
			kept = append(kept, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading log file during rotation: %w", err)
	}

	return kept, nil
}
