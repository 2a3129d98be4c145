package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// parseLogLevel parses a string log level to a charmbracelet/log Level
func parseLogLevel(level string) log.Level {
	switch level {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// newLogger creates the program logger. An empty file writes to w; the
// returned closer releases the log file, if any.
func newLogger(w io.Writer, level, file string) (*log.Logger, func() error, error) {
	closer := func() error { return nil }

	if file != "" {
		expanded, err := expandPath(file)
		if err != nil {
			return nil, nil, err
		}
		if err := os.MkdirAll(filepath.Dir(expanded), 0755); err != nil {
			return nil, nil, err
		}
		f, err := os.OpenFile(expanded, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, err
		}
		w, closer = f, f.Close
	}

	logger := log.NewWithOptions(w, log.Options{
		Level:           parseLogLevel(level),
		Formatter:       log.TextFormatter,
		ReportTimestamp: file != "",
		Prefix:          appName,
	})

	return logger, closer, nil
}
