package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LogLevel is the logging verbosity.
type LogLevel int

// Log levels, lowest to highest verbosity.
const (
	LogLevelOff LogLevel = iota
	LogLevelError
	LogLevelDebug
)

// ParseLogLevel maps a config string to a level, defaulting to error.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "none":
		return LogLevelOff
	case "debug":
		return LogLevelDebug
	default:
		return LogLevelError
	}
}

func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "debug"
	case LogLevelOff:
		return "off"
	default:
		return "error"
	}
}

// Logger writes leveled, timestamped lines to a file. Writes are
// mutex-guarded so the session watcher goroutine and command code can log
// concurrently. A nil file (level off, or no path configured) discards
// everything.
type Logger struct {
	mu    sync.Mutex
	level LogLevel
	file  *os.File
}

// NewLogger opens filePath for appending and returns a logger at the given
// level. A leading ~/ expands to the user home; parent directories are
// created as needed.
func NewLogger(level LogLevel, filePath string) (*Logger, error) {
	l := &Logger{level: level}
	if level == LogLevelOff || filePath == "" {
		return l, nil
	}

	if strings.HasPrefix(filePath, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		filePath = filepath.Join(home, filePath[2:])
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o750); err != nil {
		return nil, err
	}

	// #nosec G304 -- log file path is from validated config
	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	l.file = f
	return l, nil
}

// NullLogger returns a logger that discards all output.
func NullLogger() *Logger {
	return &Logger{level: LogLevelOff}
}

// Close closes the underlying log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Debug logs at debug level.
func (l *Logger) Debug(format string, args ...any) {
	l.write(LogLevelDebug, format, args...)
}

// Error logs at error level.
func (l *Logger) Error(format string, args ...any) {
	l.write(LogLevelError, format, args...)
}

func (l *Logger) write(level LogLevel, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil || l.level == LogLevelOff || level > l.level {
		return
	}

	stamp := time.Now().Format("2006-01-02 15:04:05.000")
	_, _ = fmt.Fprintf(l.file, "%s [%s] %s\n",
		stamp, strings.ToUpper(level.String()), fmt.Sprintf(format, args...))
}
