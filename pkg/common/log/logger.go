// Package log provides the leveled logger used by blobmark components.
package log

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"
)

// Level represents the logging level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the log level.
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
		return fmt.Sprintf("LEVEL(%d)", l)
	}
}

// Logger is the logging interface blobmark components write to.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})

	// WithField returns a logger that attaches key=value to every
	// entry it emits.
	WithField(key string, value interface{}) Logger

	SetLevel(level Level)
}

// StandardLogger writes timestamped, leveled lines with sorted fields.
type StandardLogger struct {
	mu     sync.Mutex
	level  Level
	out    io.Writer
	fields map[string]interface{}
}

// Option configures a StandardLogger.
type Option func(*StandardLogger)

// WithLevel sets the minimum level emitted.
func WithLevel(level Level) Option {
	return func(l *StandardLogger) { l.level = level }
}

// WithOutput sets the destination writer.
func WithOutput(out io.Writer) Option {
	return func(l *StandardLogger) { l.out = out }
}

// NewStandardLogger returns a logger writing to stdout at info level,
// adjusted by the given options.
func NewStandardLogger(options ...Option) *StandardLogger {
	l := &StandardLogger{
		level:  LevelInfo,
		out:    os.Stdout,
		fields: make(map[string]interface{}),
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

func (l *StandardLogger) log(level Level, msg string, args ...interface{}) {
	if level < l.level {
		return
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	keys := make([]string, 0, len(l.fields))
	for k := range l.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := ""
	for _, k := range keys {
		fields += fmt.Sprintf(" %s=%v", k, l.fields[k])
	}

	ts := time.Now().Format("2006-01-02 15:04:05.000")
	fmt.Fprintf(l.out, "[%s] [%s]%s %s\n", ts, level, fields, msg)
}

func (l *StandardLogger) Debug(msg string, args ...interface{}) { l.log(LevelDebug, msg, args...) }
func (l *StandardLogger) Info(msg string, args ...interface{})  { l.log(LevelInfo, msg, args...) }
func (l *StandardLogger) Warn(msg string, args ...interface{})  { l.log(LevelWarn, msg, args...) }
func (l *StandardLogger) Error(msg string, args ...interface{}) { l.log(LevelError, msg, args...) }

// WithField returns a copy of the logger with one extra field.
func (l *StandardLogger) WithField(key string, value interface{}) Logger {
	nl := &StandardLogger{
		level:  l.level,
		out:    l.out,
		fields: make(map[string]interface{}, len(l.fields)+1),
	}
	for k, v := range l.fields {
		nl.fields[k] = v
	}
	nl.fields[key] = value
	return nl
}

// SetLevel sets the minimum level emitted.
func (l *StandardLogger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

var defaultLogger = NewStandardLogger()

// GetDefaultLogger returns the process-wide logger.
func GetDefaultLogger() Logger {
	return defaultLogger
}
