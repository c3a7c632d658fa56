// Package logging provides file-based logging for quire.
// It outputs logs to both a global log file (<data>/logs/quire.log)
// and task-specific log files (<data>/logs/task-<branch>.log).
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/runoshun/quire/internal/domain"
)

// Ensure Logger implements domain.Logger interface.
var _ domain.Logger = (*Logger)(nil)

// Logger writes formatted entries to the global and per-task log files.
// Loggers derived with WithRequest share the open files.
type Logger struct {
	sink      *sink
	requestID string
	level     slog.Level
}

// sink owns the open log files.
type sink struct {
	globalFile *os.File
	taskFiles  map[string]*os.File
	dataDir    string
	mu         sync.Mutex
}

// New creates a new Logger that writes under dataDir/logs.
// If dataDir is empty, logging is disabled (returns a no-op logger).
func New(dataDir string, level slog.Level) *Logger {
	return &Logger{
		sink: &sink{
			dataDir:   dataDir,
			taskFiles: make(map[string]*os.File),
		},
		level: level,
	}
}

// WithRequest returns a logger that tags every entry with requestID.
// An empty requestID generates a new one.
func (l *Logger) WithRequest(requestID string) *Logger {
	if requestID == "" {
		requestID = uuid.NewString()
	}
	return &Logger{sink: l.sink, level: l.level, requestID: requestID}
}

// RequestID returns the request id of the logger, or "".
func (l *Logger) RequestID() string {
	return l.requestID
}

// ParseLevel parses a log level string into slog.Level.
func ParseLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ensureLogsDir creates the logs directory if it doesn't exist.
func (s *sink) ensureLogsDir() error {
	return os.MkdirAll(filepath.Join(s.dataDir, domain.LogsDirName), 0o750)
}

func (s *sink) openLocked(path string) (*os.File, error) {
	if err := s.ensureLogsDir(); err != nil {
		return nil, fmt.Errorf("create logs directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640) //nolint:gosec // Log file readable by owner and group
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// write appends entry to the global log and, for task entries, the task log.
func (s *sink) write(task, entry string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.globalFile == nil {
		f, err := s.openLocked(domain.GlobalLogPath(s.dataDir))
		if err != nil {
			return
		}
		s.globalFile = f
	}
	_, _ = io.WriteString(s.globalFile, entry)

	if task == "" || domain.ValidateBranchName(task) != nil {
		return
	}
	tf, ok := s.taskFiles[task]
	if !ok {
		f, err := s.openLocked(domain.TaskLogPath(s.dataDir, task))
		if err != nil {
			return
		}
		tf = f
		s.taskFiles[task] = f
	}
	_, _ = io.WriteString(tf, entry)
}

// Close closes all open log files.
func (l *Logger) Close() error {
	s := l.sink
	s.mu.Lock()
	defer s.mu.Unlock()

	var lastErr error
	if s.globalFile != nil {
		if err := s.globalFile.Close(); err != nil {
			lastErr = err
		}
		s.globalFile = nil
	}
	for name, f := range s.taskFiles {
		if err := f.Close(); err != nil {
			lastErr = err
		}
		delete(s.taskFiles, name)
	}
	return lastErr
}

// formatLog formats a log entry in the specified format.
// Format: [2025-12-30 09:32:51] [INFO] [a1b2c3d] [sync] message (req 1f0c9e2a)
func formatLog(t time.Time, level slog.Level, task, category, requestID, msg string) string {
	taskStr := "global"
	if task != "" {
		taskStr = task
	}
	suffix := ""
	if requestID != "" {
		short := requestID
		if len(short) > 8 {
			short = short[:8]
		}
		suffix = " (req " + short + ")"
	}
	return fmt.Sprintf("[%s] [%s] [%s] [%s] %s%s\n",
		t.Format("2006-01-02 15:04:05"),
		levelToString(level),
		taskStr,
		category,
		msg,
		suffix,
	)
}

func levelToString(level slog.Level) string {
	switch level {
	case slog.LevelDebug:
		return "DEBUG"
	case slog.LevelInfo:
		return "INFO"
	case slog.LevelWarn:
		return "WARN"
	case slog.LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func (l *Logger) log(level slog.Level, task, category, msg string) {
	if l.sink.dataDir == "" {
		return // Logging disabled
	}
	if level < l.level {
		return
	}
	l.sink.write(task, formatLog(time.Now(), level, task, category, l.requestID, msg))
}

// Info logs an info message.
func (l *Logger) Info(task, category, msg string) {
	l.log(slog.LevelInfo, task, category, msg)
}

// Debug logs a debug message.
func (l *Logger) Debug(task, category, msg string) {
	l.log(slog.LevelDebug, task, category, msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(task, category, msg string) {
	l.log(slog.LevelWarn, task, category, msg)
}

// Error logs an error message.
func (l *Logger) Error(task, category, msg string) {
	l.log(slog.LevelError, task, category, msg)
}
