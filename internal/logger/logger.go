// Package logger provides structured logging for the ticket checker.
//
// Log lines are written through logrus, as JSON by default. Every helper takes a Fields
// map so call sites look the same whether or not they add context:
//
//	logger.Info("Fetched event list", logger.Fields{
//	    "url": listURL,
//	    "entries": n,
//	})
//
//	logger.Error("Telegram request failed", logger.Fields{"chat_id": chatID}, err)
//
// A run attaches its run id once with SetDefault(Default().With(...)).
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Level represents log severity
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Format selects the line encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Fields represents structured log fields
type Fields = logrus.Fields

// Logger provides structured logging
type Logger struct {
	entry *logrus.Entry
}

var defaultLogger *Logger

func init() {
	defaultLogger = New(LevelInfo, FormatJSON, os.Stdout)
}

// ParseLevel converts a level name such as "debug" or "warn" into a Level
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return "", fmt.Errorf("unknown log level: %q", s)
	}
}

// New creates a logger writing to output. Messages below level are discarded.
func New(level Level, format Format, output io.Writer) *Logger {
	l := logrus.New()
	l.SetOutput(output)
	l.SetLevel(toLogrus(level))
	if format == FormatText {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "timestamp",
				logrus.FieldKeyMsg:  "message",
			},
		})
	}
	return &Logger{entry: logrus.NewEntry(l)}
}

func toLogrus(level Level) logrus.Level {
	switch level {
	case LevelDebug:
		return logrus.DebugLevel
	case LevelWarn:
		return logrus.WarnLevel
	case LevelError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// SetDefault sets the logger used by the package-level functions
func SetDefault(logger *Logger) {
	defaultLogger = logger
}

// Default returns the logger used by the package-level functions
func Default() *Logger {
	return defaultLogger
}

// With returns a logger that adds fields to every entry
func (l *Logger) With(fields Fields) *Logger {
	return &Logger{entry: l.entry.WithFields(fields)}
}

// Debug logs a debug message with optional structured fields.
func (l *Logger) Debug(message string, fields Fields) {
	l.entry.WithFields(fields).Debug(message)
}

// Info logs an informational message with optional structured fields.
func (l *Logger) Info(message string, fields Fields) {
	l.entry.WithFields(fields).Info(message)
}

// Warn logs a warning message with optional structured fields.
func (l *Logger) Warn(message string, fields Fields) {
	l.entry.WithFields(fields).Warn(message)
}

// Error logs an error message with optional structured fields and an error object.
func (l *Logger) Error(message string, fields Fields, err error) {
	e := l.entry.WithFields(fields)
	if err != nil {
		e = e.WithError(err)
	}
	e.Error(message)
}

// Debug logs a debug message with the default logger
func Debug(message string, fields Fields) {
	defaultLogger.Debug(message, fields)
}

// Info logs an info message with the default logger
func Info(message string, fields Fields) {
	defaultLogger.Info(message, fields)
}

// Warn logs a warning message with the default logger
func Warn(message string, fields Fields) {
	defaultLogger.Warn(message, fields)
}

// Error logs an error message with the default logger
func Error(message string, fields Fields, err error) {
	defaultLogger.Error(message, fields, err)
}

// Leveled adapts the logger to the key/value logging interface used by
// go-retryablehttp. Retry chatter is demoted one level so a normal run stays quiet.
type Leveled struct {
	l *Logger
}

// NewLeveled wraps l, or the default logger when l is nil
func NewLeveled(l *Logger) *Leveled {
	return &Leveled{l: l}
}

func (a *Leveled) logger() *Logger {
	if a.l != nil {
		return a.l
	}
	return defaultLogger
}

func (a *Leveled) Error(msg string, keysAndValues ...interface{}) {
	a.logger().Warn(msg, kvFields(keysAndValues))
}

func (a *Leveled) Warn(msg string, keysAndValues ...interface{}) {
	a.logger().Warn(msg, kvFields(keysAndValues))
}

func (a *Leveled) Info(msg string, keysAndValues ...interface{}) {
	a.logger().Debug(msg, kvFields(keysAndValues))
}

func (a *Leveled) Debug(msg string, keysAndValues ...interface{}) {
	a.logger().Debug(msg, kvFields(keysAndValues))
}

// kvFields turns alternating key/value pairs into Fields; a dangling key maps to nil
func kvFields(kv []interface{}) Fields {
	fields := make(Fields, len(kv)/2+1)
	for i := 0; i < len(kv); i += 2 {
		key := fmt.Sprint(kv[i])
		if i+1 < len(kv) {
			fields[key] = kv[i+1]
		} else {
			fields[key] = nil
		}
	}
	return fields
}
