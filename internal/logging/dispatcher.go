package logging

import "log/slog"

// DispatcherLogger narrows an slog.Logger to the key-value logger the
// dispatcher depends on, so the dispatcher package never imports slog
// directly and tests can drop in fakes.
type DispatcherLogger struct {
	logger *slog.Logger
}

// NewDispatcherLogger wraps the given logger. Nil falls back to the
// default logger.
func NewDispatcherLogger(logger *slog.Logger) *DispatcherLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &DispatcherLogger{logger: logger}
}

// Debug logs a debug message with key-value pairs.
func (l *DispatcherLogger) Debug(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

// Info logs an info message with key-value pairs.
func (l *DispatcherLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Info(msg, keysAndValues...)
}

// Error logs an error message with key-value pairs.
func (l *DispatcherLogger) Error(msg string, keysAndValues ...any) {
	l.logger.Error(msg, keysAndValues...)
}
