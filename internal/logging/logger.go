// Package logging writes structured key=value lines to a daily log file
// and echoes the ones a person should see to the console.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents a log severity level
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value any
}

// String creates a string field
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an integer field
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Int64 creates an int64 field
func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a boolean field
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Duration creates a duration field
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

// Logger handles structured logging
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, err error, fields ...Field)
}

// DefaultPrefix is the log file prefix (alchemize-YYYY-MM-DD.log)
const DefaultPrefix = "alchemize"

// Config configures the logger
type Config struct {
	// LogDir is the directory where log files are stored (default: ~/.whispering-alchemy/logs)
	LogDir string
	// Prefix is the log file prefix
	Prefix string
	// RetentionDays is the number of days to retain old log files (default: 30)
	RetentionDays int
	// Component is the component name shown in brackets (e.g., "[rename]")
	Component string
	// MinLevel is the minimum log level written to the file (default: LevelInfo)
	MinLevel Level
	// Console receives warnings and errors, plus info and debug lines when Verbose is set
	Console io.Writer
	// Verbose echoes every decision to Console
	Verbose bool
	// minLevelSet tracks whether MinLevel was explicitly configured
	minLevelSet bool
}

// WithMinLevel returns a copy of Config with the specified minimum log level
func (c Config) WithMinLevel(level Level) Config {
	c.MinLevel = level
	c.minLevelSet = true
	return c
}

// DefaultLogDir returns ~/.whispering-alchemy/logs
func DefaultLogDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".whispering-alchemy", "logs")
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		LogDir:        DefaultLogDir(),
		Prefix:        DefaultPrefix,
		RetentionDays: 30,
		MinLevel:      LevelInfo,
		Console:       os.Stderr,
	}
}

// sink is the file and console state shared by a logger and its derived loggers.
type sink struct {
	mu          sync.Mutex
	file        *os.File
	currentDate string
	logDir      string
	prefix      string
	console     io.Writer
	verbose     bool
}

// FileLogger implements Logger with daily file rotation and console echo
type FileLogger struct {
	component string
	minLevel  Level
	fields    []Field
	retention int
	sink      *sink
}

// New creates a new FileLogger with the given configuration
func New(config Config) (*FileLogger, error) {
	if config.LogDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		config.LogDir = filepath.Join(homeDir, ".whispering-alchemy", "logs")
	}
	if config.Prefix == "" {
		config.Prefix = DefaultPrefix
	}
	if config.RetentionDays <= 0 {
		config.RetentionDays = 30
	}
	if !config.minLevelSet {
		config.MinLevel = LevelInfo
	}
	if config.Verbose && config.MinLevel > LevelInfo {
		config.MinLevel = LevelInfo
	}

	if err := os.MkdirAll(config.LogDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logger := &FileLogger{
		component: config.Component,
		minLevel:  config.MinLevel,
		retention: config.RetentionDays,
		sink: &sink{
			logDir:  config.LogDir,
			prefix:  config.Prefix,
			console: config.Console,
			verbose: config.Verbose,
		},
	}

	if err := logger.sink.rotateIfNeeded(); err != nil {
		return nil, err
	}

	// Log cleanup errors but don't fail initialization
	if err := logger.cleanOldLogs(); err != nil {
		logger.Error("failed to clean old logs", err)
	}

	return logger, nil
}

// Debug logs a debug message
func (l *FileLogger) Debug(msg string, fields ...Field) {
	l.log(LevelDebug, msg, nil, fields...)
}

// Info logs an informational message
func (l *FileLogger) Info(msg string, fields ...Field) {
	l.log(LevelInfo, msg, nil, fields...)
}

// Warn logs a message that needs the user's attention
func (l *FileLogger) Warn(msg string, fields ...Field) {
	l.log(LevelWarn, msg, nil, fields...)
}

// Error logs an error message
func (l *FileLogger) Error(msg string, err error, fields ...Field) {
	l.log(LevelError, msg, err, fields...)
}

// Close closes the logger and its underlying file
func (l *FileLogger) Close() error {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	if l.sink.file != nil {
		err := l.sink.file.Close()
		l.sink.file = nil
		return err
	}
	return nil
}

// WithComponent returns a logger sharing the same file with the specified component name
func (l *FileLogger) WithComponent(component string) *FileLogger {
	derived := *l
	derived.component = component
	return &derived
}

// With returns a logger that appends fields to every line
func (l *FileLogger) With(fields ...Field) *FileLogger {
	derived := *l
	derived.fields = append(append([]Field(nil), l.fields...), fields...)
	return &derived
}

func (l *FileLogger) log(level Level, msg string, err error, fields ...Field) {
	toFile := level >= l.minLevel
	toConsole := l.sink.console != nil && (level >= LevelWarn || l.sink.verbose)
	if !toFile && !toConsole {
		return
	}

	all := fields
	if len(l.fields) > 0 {
		all = append(append([]Field(nil), fields...), l.fields...)
	}
	body := l.formatBody(msg, err, all)

	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	if toConsole {
		if level >= LevelWarn {
			fmt.Fprintf(l.sink.console, "%s %s\n", level.String(), body)
		} else {
			fmt.Fprintln(l.sink.console, body)
		}
	}

	if !toFile {
		return
	}
	if rotateErr := l.sink.rotateIfNeeded(); rotateErr != nil {
		// If rotation fails, try to write to stderr
		fmt.Fprintf(os.Stderr, "log rotation failed: %v\n", rotateErr)
		return
	}

	timestamp := time.Now().UTC().Format(time.RFC3339)
	line := fmt.Sprintf("%s %-5s %s\n", timestamp, level.String(), body)
	if l.sink.file != nil {
		l.sink.file.WriteString(line)
	}
}

func (l *FileLogger) formatBody(msg string, err error, fields []Field) string {
	var sb strings.Builder

	if l.component != "" {
		sb.WriteString("[")
		sb.WriteString(l.component)
		sb.WriteString("] ")
	}

	sb.WriteString(msg)

	if err != nil {
		sb.WriteString(" error=")
		sb.WriteString(formatValue(err.Error()))
	}

	for _, f := range fields {
		sb.WriteString(" ")
		sb.WriteString(f.Key)
		sb.WriteString("=")
		sb.WriteString(formatValue(f.Value))
	}

	return sb.String()
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		if val == "" || strings.ContainsAny(val, " \t\n\"") {
			return fmt.Sprintf("%q", val)
		}
		return val
	case time.Duration:
		return val.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (s *sink) fileName(date string) string {
	return filepath.Join(s.logDir, fmt.Sprintf("%s-%s.log", s.prefix, date))
}

func (s *sink) rotateIfNeeded() error {
	today := time.Now().UTC().Format("2006-01-02")

	if s.currentDate == today && s.file != nil {
		return nil
	}

	if s.file != nil {
		s.file.Close()
		s.file = nil
	}

	file, err := os.OpenFile(s.fileName(today), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	s.file = file
	s.currentDate = today

	return nil
}

func (l *FileLogger) cleanOldLogs() error {
	entries, err := os.ReadDir(l.sink.logDir)
	if err != nil {
		return fmt.Errorf("failed to read log directory: %w", err)
	}

	prefix := l.sink.prefix + "-"
	cutoff := time.Now().UTC().AddDate(0, 0, -l.retention)

	var toDelete []string

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".log") {
			continue
		}

		// Extract date from filename: prefix-YYYY-MM-DD.log
		dateStr := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".log")

		logDate, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}

		if logDate.Before(cutoff) {
			toDelete = append(toDelete, filepath.Join(l.sink.logDir, name))
		}
	}

	sort.Strings(toDelete)

	for _, path := range toDelete {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove old log file %s: %w", path, err)
		}
	}

	return nil
}

// LogPath returns the path to the current log file
func (l *FileLogger) LogPath() string {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	if l.sink.file != nil {
		return l.sink.file.Name()
	}
	return l.sink.fileName(time.Now().UTC().Format("2006-01-02"))
}

// Nop returns a Logger that discards everything.
func Nop() Logger { return nopLogger{} }

type nopLogger struct{}

func (nopLogger) Debug(string, ...Field)        {}
func (nopLogger) Info(string, ...Field)         {}
func (nopLogger) Warn(string, ...Field)         {}
func (nopLogger) Error(string, error, ...Field) {}

// With attaches fields to every line written through l.
func With(l Logger, fields ...Field) Logger {
	switch v := l.(type) {
	case *FileLogger:
		return v.With(fields...)
	case nopLogger:
		return v
	}
	return &fieldLogger{next: l, fields: fields}
}

type fieldLogger struct {
	next   Logger
	fields []Field
}

func (f *fieldLogger) merge(fields []Field) []Field {
	return append(append([]Field(nil), f.fields...), fields...)
}

func (f *fieldLogger) Debug(msg string, fields ...Field) { f.next.Debug(msg, f.merge(fields)...) }
func (f *fieldLogger) Info(msg string, fields ...Field)  { f.next.Info(msg, f.merge(fields)...) }
func (f *fieldLogger) Warn(msg string, fields ...Field)  { f.next.Warn(msg, f.merge(fields)...) }
func (f *fieldLogger) Error(msg string, err error, fields ...Field) {
	f.next.Error(msg, err, f.merge(fields)...)
}
