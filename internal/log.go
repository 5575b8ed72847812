package internal

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// LogLevel orders verbosity from ERROR (quietest) to TRACE
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
	LogLevelTrace
)

var levelNames = [...]string{"ERROR", "WARN", "INFO", "DEBUG", "TRACE"}

func (l LogLevel) String() string {
	if l < LogLevelError || l > LogLevelTrace {
		return fmt.Sprintf("LogLevel(%d)", int(l))
	}
	return levelNames[l]
}

// ParseLogLevel accepts a level name in any case (WARNING for WARN).
// Unknown or empty names select INFO.
func ParseLogLevel(s string) LogLevel {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "WARNING" {
		return LogLevelWarn
	}
	for i, n := range levelNames {
		if n == name {
			return LogLevel(i)
		}
	}
	return LogLevelInfo
}

// Logger writes "[LEVEL] [component] message" lines at or below its level
type Logger struct {
	level     LogLevel
	component string
	out       *log.Logger
}

// NewLogger writes to stderr
func NewLogger(level LogLevel) *Logger {
	return NewLoggerTo(os.Stderr, level)
}

func NewLoggerTo(w io.Writer, level LogLevel) *Logger {
	return &Logger{level: level, out: log.New(w, "", log.LstdFlags)}
}

// With tags every line with component; level and output are shared
func (l *Logger) With(component string) *Logger {
	return &Logger{level: l.level, component: component, out: l.out}
}

// Enabled reports whether messages at level would be written
func (l *Logger) Enabled(level LogLevel) bool { return level <= l.level }

func (l *Logger) logAt(level LogLevel, format string, args []interface{}) {
	if !l.Enabled(level) {
		return
	}
	prefix := "[" + level.String() + "] "
	if l.component != "" {
		prefix += "[" + l.component + "] "
	}
	l.out.Print(prefix + fmt.Sprintf(format, args...))
}

func (l *Logger) Error(format string, args ...interface{}) { l.logAt(LogLevelError, format, args) }
func (l *Logger) Warn(format string, args ...interface{})  { l.logAt(LogLevelWarn, format, args) }
func (l *Logger) Info(format string, args ...interface{})  { l.logAt(LogLevelInfo, format, args) }
func (l *Logger) Debug(format string, args ...interface{}) { l.logAt(LogLevelDebug, format, args) }
func (l *Logger) Trace(format string, args ...interface{}) { l.logAt(LogLevelTrace, format, args) }

// DefaultLogger starts at LOG_LEVEL; binaries replace it once config is loaded
var DefaultLogger = NewLogger(ParseLogLevel(os.Getenv("LOG_LEVEL")))
