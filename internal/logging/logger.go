package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog behind the aperture.Logger key/value interface.
type Logger struct {
	logger zerolog.Logger
}

// New creates a Logger writing JSON lines to stderr with timestamps.
func New() *Logger {
	return &Logger{
		logger: zerolog.New(os.Stderr).With().Timestamp().Logger(),
	}
}

// NewWriter creates a Logger writing to w. Used by tests to capture output.
func NewWriter(w io.Writer) *Logger {
	return &Logger{
		logger: zerolog.New(w).With().Timestamp().Logger(),
	}
}

func (l *Logger) log(event *zerolog.Event, msg string, keysAndValues ...interface{}) {
	for i := 0; i < len(keysAndValues); i += 2 {
		key := fmt.Sprintf("%v", keysAndValues[i])
		if i+1 < len(keysAndValues) {
			event.Interface(key, keysAndValues[i+1])
		} else {
			event.Interface(key, nil)
		}
	}
	event.Msg(msg)
}

// Debug logs a debug-level message with structured key/value pairs.
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.log(l.logger.Debug(), msg, keysAndValues...)
}

// Info logs an info-level message with structured key/value pairs.
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.log(l.logger.Info(), msg, keysAndValues...)
}

// Warn logs a warning-level message with structured key/value pairs.
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.log(l.logger.Warn(), msg, keysAndValues...)
}

// Error logs an error-level message with structured key/value pairs.
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.log(l.logger.Error(), msg, keysAndValues...)
}
