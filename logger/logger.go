package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger represents a structured logger
type Logger struct {
	logger zerolog.Logger
}

// Fields represents log fields
type Fields map[string]interface{}

var (
	// Default is the default logger instance
	Default *Logger
)

// Init initializes the default logger. Production writes JSON lines at info level,
// otherwise a console writer at debug level. LOG_LEVEL overrides the level.
func Init(production bool) {
	level := getLogLevel(production)

	// Configure zerolog
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(level)

	logger := zerolog.New(newOutput(production)).With().Timestamp().Logger()

	Default = &Logger{logger: logger}

	Default.Info().
		Str("level", level.String()).
		Bool("production", production).
		Msg("Logger initialized")
}

func newOutput(production bool) io.Writer {
	if production {
		return os.Stdout
	}
	// Create console writer for development
	return zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
}

// New wraps an existing zerolog logger, mainly for tests
func New(l zerolog.Logger) *Logger {
	return &Logger{logger: l}
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{logger: zerolog.Nop()}
}

// getLogLevel returns the log level from environment variable
func getLogLevel(production bool) zerolog.Level {
	levelStr := os.Getenv("LOG_LEVEL")
	if levelStr == "" {
		if production {
			return zerolog.InfoLevel
		}
		return zerolog.DebugLevel
	}

	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// WithFields creates a new logger with fields
func (l *Logger) WithFields(fields Fields) *Logger {
	newLogger := l.logger.With()
	for k, v := range fields {
		newLogger = newLogger.Interface(k, v)
	}
	return &Logger{logger: newLogger.Logger()}
}

// WithField creates a new logger with a single field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{logger: l.logger.With().Interface(key, value).Logger()}
}

// Debug returns a debug event
func (l *Logger) Debug() *zerolog.Event {
	return l.logger.Debug()
}

// Info returns an info event
func (l *Logger) Info() *zerolog.Event {
	return l.logger.Info()
}

// Warn returns a warn event
func (l *Logger) Warn() *zerolog.Event {
	return l.logger.Warn()
}

// Error returns an error event
func (l *Logger) Error() *zerolog.Event {
	return l.logger.Error()
}

// Fatal returns a fatal event
func (l *Logger) Fatal() *zerolog.Event {
	return l.logger.Fatal()
}

// WithError adds an error to the logger
func (l *Logger) WithError(err error) *Logger {
	return &Logger{logger: l.logger.With().Err(err).Logger()}
}

// Global functions for printf-style call sites

// Info logs an info message
func Info(format string, v ...interface{}) {
	if Default == nil {
		Init(false)
	}
	Default.Info().Msgf(format, v...)
}

// Warn logs a warning message
func Warn(format string, v ...interface{}) {
	if Default == nil {
		Init(false)
	}
	Default.Warn().Msgf(format, v...)
}

func component(name string) *Logger {
	if Default == nil {
		Init(false)
	}
	return Default.WithField("component", name)
}

// ForSearch creates a logger for the search client
func ForSearch() *Logger {
	return component("search")
}

// ForServer creates a logger for the HTTP server
func ForServer() *Logger {
	return component("server")
}

// ForWorker creates a logger for the trending worker
func ForWorker() *Logger {
	return component("worker")
}

// ForPublisher creates a logger for the publisher
func ForPublisher() *Logger {
	return component("publisher")
}

// ForCache creates a logger for the cache
func ForCache() *Logger {
	return component("cache")
}

// LogError is a convenience method for logging errors with context
func LogError(component string, err error, format string, v ...interface{}) {
	if Default == nil {
		Init(false)
	}
	msg := fmt.Sprintf(format, v...)
	Default.Error().
		Str("component", component).
		Err(err).
		Msg(msg)
}
