package core

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger interface for structured logging
// Implementations can provide custom logging behavior (e.g., integration with logrus, zap, etc.)
type Logger interface {
	// Debug logs a debug message with optional fields
	Debug(msg string, fields ...Field)

	// Info logs an info message with optional fields
	Info(msg string, fields ...Field)

	// Warn logs a warning message with optional fields
	Warn(msg string, fields ...Field)

	// Error logs an error message with optional fields
	Error(msg string, fields ...Field)

	// Print logs a message without a level
	Print(msg string, fields ...Field)
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value any
}

// F creates a new Field with the given key and value
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

const consoleTimeFormat = "15:04:05.000"

// ZerologLogger adapts a zerolog.Logger to Logger.
type ZerologLogger struct {
	zl zerolog.Logger
}

var _ Logger = (*ZerologLogger)(nil)

// NewZerologLogger wraps zl.
func NewZerologLogger(zl zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{zl: zl}
}

// NewConsoleLogger writes human readable lines to w at the given minimum level.
// Unknown levels fall back to info.
func NewConsoleLogger(w io.Writer, level string) *ZerologLogger {
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: consoleTimeFormat}
	return NewZerologLogger(zerolog.New(cw).Level(parseLevel(level)).With().Timestamp().Logger())
}

// NewJSONLogger writes one JSON object per line to w. Unknown levels fall
// back to info.
func NewJSONLogger(w io.Writer, level string) *ZerologLogger {
	return NewZerologLogger(zerolog.New(w).Level(parseLevel(level)).With().Timestamp().Logger())
}

func parseLevel(level string) zerolog.Level {
	level = strings.ToLower(strings.TrimSpace(level))
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// NewDefaultLogger creates a console logger on stderr at info level.
func NewDefaultLogger() *ZerologLogger {
	return NewConsoleLogger(os.Stderr, "info")
}

// Debug logs a debug message
func (l *ZerologLogger) Debug(msg string, fields ...Field) {
	write(l.zl.Debug(), msg, fields)
}

// Info logs an info message
func (l *ZerologLogger) Info(msg string, fields ...Field) {
	write(l.zl.Info(), msg, fields)
}

// Warn logs a warning message
func (l *ZerologLogger) Warn(msg string, fields ...Field) {
	write(l.zl.Warn(), msg, fields)
}

// Error logs an error message
func (l *ZerologLogger) Error(msg string, fields ...Field) {
	write(l.zl.Error(), msg, fields)
}

// Print logs a message with no level attached
func (l *ZerologLogger) Print(msg string, fields ...Field) {
	write(l.zl.Log(), msg, fields)
}

func write(e *zerolog.Event, msg string, fields []Field) {
	if e == nil {
		return
	}
	for _, f := range fields {
		if err, ok := f.Value.(error); ok {
			e = e.AnErr(f.Key, err)
			continue
		}
		e = e.Interface(f.Key, f.Value)
	}
	e.Msg(msg)
}

// NoOpLogger is a logger that discards all log messages
// Useful for tests or when logging is not desired
type NoOpLogger struct{}

// NewNoOpLogger creates a new NoOpLogger
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (l *NoOpLogger) Debug(msg string, fields ...Field) {}
func (l *NoOpLogger) Info(msg string, fields ...Field)  {}
func (l *NoOpLogger) Warn(msg string, fields ...Field)  {}
func (l *NoOpLogger) Error(msg string, fields ...Field) {}
func (l *NoOpLogger) Print(msg string, fields ...Field) {}

// =============================================================================
// Sink: a (level, message) logging collaborator
// =============================================================================

// Sink receives plain messages at a fixed level.
type Sink interface {
	Log(msg string)
}

// Sink levels understood by NewSink.
const (
	SinkLevelInfo  = "info"
	SinkLevelWarn  = "warn"
	SinkLevelError = "error"
)

type levelSink struct {
	logger Logger
	level  string
}

// NewSink returns a Sink writing to logger at level. Levels are matched case
// insensitively; anything other than info, warn or error goes to the plain
// Print sink.
func NewSink(logger Logger, level string) Sink {
	if logger == nil {
		logger = NewNoOpLogger()
	}
	return levelSink{logger: logger, level: strings.ToLower(strings.TrimSpace(level))}
}

func (s levelSink) Log(msg string) {
	switch s.level {
	case SinkLevelInfo:
		s.logger.Info(msg)
	case SinkLevelWarn:
		s.logger.Warn(msg)
	case SinkLevelError:
		s.logger.Error(msg)
	default:
		s.logger.Print(msg)
	}
}
