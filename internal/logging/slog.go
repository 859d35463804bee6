package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// consoleOut is the console handler target. Tests swap it for a buffer.
var consoleOut io.Writer = os.Stdout

// SlogManager owns the process-wide slog logger: a console handler plus an
// optional session-file handler behind a MultiHandler, wrapped in a
// ContextHandler that stamps every record with the dynamic callbacks below.
type SlogManager struct {
	logger *slog.Logger

	// Dynamic context, set by the host during wiring. Each non-nil
	// callback contributes one attribute to every record.
	GetDatasetName   func() string
	IsTourActive     func() bool
	IsMonitorRunning func() bool
}

// NewSlogManager creates an unconfigured manager. Logger() falls back to
// slog.Default until Setup runs.
func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// parseLevel converts a string log level to slog.Level. Unknown input
// means INFO.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup builds the logger. A nil file keeps console-only output; calling
// Setup again replaces the previous handler chain, which is how the host
// upgrades from bootstrap console logging to the full session sink.
func (m *SlogManager) Setup(file io.Writer, level string) {
	lvl := parseLevel(level)

	handlerOpts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}

	var handlers []slog.Handler
	handlers = append(handlers, slog.NewTextHandler(consoleOut, handlerOpts))
	if file != nil {
		handlers = append(handlers, slog.NewTextHandler(file, handlerOpts))
	}

	var handler slog.Handler = NewMultiHandler(handlers...)
	handler = NewContextHandler(handler, m.contextAttrs)

	m.logger = slog.New(handler)
	m.logger.Info("Logging initialized", "level", lvl.String())
}

// contextAttrs runs per record on the emitting goroutine.
func (m *SlogManager) contextAttrs() []slog.Attr {
	attrs := make([]slog.Attr, 0, 3)
	if m.GetDatasetName != nil {
		attrs = append(attrs, slog.String("dataset", m.GetDatasetName()))
	}
	if m.IsTourActive != nil {
		attrs = append(attrs, slog.Bool("tourActive", m.IsTourActive()))
	}
	if m.IsMonitorRunning != nil {
		attrs = append(attrs, slog.Bool("monitorRunning", m.IsMonitorRunning()))
	}
	return attrs
}

// Logger returns the configured slog.Logger.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

// WriteLog writes a log entry tagged with the originating function name.
// Compatibility surface for call sites predating structured logging.
func (m *SlogManager) WriteLog(functionName, data, level string) {
	if m.logger == nil {
		return
	}

	switch parseLevel(level) {
	case slog.LevelDebug:
		m.logger.Debug(data, "function", functionName)
	case slog.LevelWarn:
		m.logger.Warn(data, "function", functionName)
	case slog.LevelError:
		m.logger.Error(data, "function", functionName)
	default:
		m.logger.Info(data, "function", functionName)
	}
}
