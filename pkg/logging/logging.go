package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// ConsoleLogger builds the default stderr logger.
func ConsoleLogger(level logrus.Level) *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return logger
}

// FileLogger mirrors log output to logPath in JSON in addition to stderr.
// A broken log file must never stop the process, so setup errors fall back
// to console-only logging.
func FileLogger(level logrus.Level, logPath string) *logrus.Logger {
	logger := ConsoleLogger(level)
	if logPath == "" {
		return logger
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		logger.WithError(err).Warn("failed to create log directory, logging to console only")
		return logger
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger.WithError(err).Warn("failed to open log file, logging to console only")
		return logger
	}
	logger.SetOutput(io.MultiWriter(os.Stderr, f))
	logger.SetFormatter(&logrus.JSONFormatter{})
	return logger
}
