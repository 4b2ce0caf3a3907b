package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// LogLevel is a thin enum for user friendly level configuration decoupled from slog.
type LogLevel int

const (
	// LogLevelDebug is the debug logging level.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is the informational logging level.
	LogLevelInfo
	// LogLevelWarn is the warning logging level.
	LogLevelWarn
	// LogLevelError is the error logging level.
	LogLevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger defines the minimal structured logging interface consumed by the
// agent loop, tools and stores. Args are alternating key/value pairs, as in
// slog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// CallRecorder is the optional metrics surface beyond plain Logger. The
// agent loop upgrades its Logger to a CallRecorder when the concrete value
// provides one, recording per-call latency and session totals.
type CallRecorder interface {
	LogToolCall(tool string, dur time.Duration, success bool, err error)
	LogModelCall(model string, dur time.Duration, success bool, err error)
	LogSession(status string, steps int, dur time.Duration)
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// NewDefaultSlogLogger creates a Logger using slog.Default().
func NewDefaultSlogLogger() Logger {
	return NewSlogAdapter(slog.Default())
}

// LoggerConfig configures construction of a SessionLogger.
type LoggerConfig struct {
	Level     LogLevel
	Format    string // json or text
	Output    io.Writer
	AddSource bool
	Agent     string
	SessionID string
}

// DefaultLoggerConfig returns a baseline JSON info level configuration.
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{Level: LogLevelInfo, Format: "json", Output: os.Stdout}
}

// SessionLogger wraps slog.Logger adding contextual cloning helpers and
// domain convenience methods. It should be cheap to copy via With* methods.
type SessionLogger struct {
	logger    *slog.Logger
	level     LogLevel
	agent     string
	sessionID string
}

// NewLogger builds a SessionLogger from a config (or defaults if nil).
func NewLogger(cfg *LoggerConfig) *SessionLogger {
	if cfg == nil {
		cfg = DefaultLoggerConfig()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: slogLevel(cfg.Level), AddSource: cfg.AddSource}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	return &SessionLogger{logger: slog.New(handler), level: cfg.Level, agent: cfg.Agent, sessionID: cfg.SessionID}
}

func slogLevel(l LogLevel) slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithAgent returns a copy bound to the named agent.
func (l *SessionLogger) WithAgent(agent string) *SessionLogger {
	nl := *l
	nl.agent = agent
	return &nl
}

// WithSession returns a copy bound to a session identifier.
func (l *SessionLogger) WithSession(sessionID string) *SessionLogger {
	nl := *l
	nl.sessionID = sessionID
	return &nl
}

// Debug logs at debug level.
func (l *SessionLogger) Debug(msg string, args ...any) {
	l.emit(slog.LevelDebug, l.level <= LogLevelDebug, msg, args)
}

// Info logs at info level.
func (l *SessionLogger) Info(msg string, args ...any) {
	l.emit(slog.LevelInfo, l.level <= LogLevelInfo, msg, args)
}

// Warn logs at warn level.
func (l *SessionLogger) Warn(msg string, args ...any) {
	l.emit(slog.LevelWarn, l.level <= LogLevelWarn, msg, args)
}

// Error logs at error level.
func (l *SessionLogger) Error(msg string, args ...any) {
	l.emit(slog.LevelError, l.level <= LogLevelError, msg, args)
}

func (l *SessionLogger) emit(level slog.Level, allowed bool, msg string, args []any) {
	if !allowed {
		return
	}
	all := make([]any, 0, len(args)+4)
	if l.agent != "" {
		all = append(all, "agent", l.agent)
	}
	if l.sessionID != "" {
		all = append(all, "session_id", l.sessionID)
	}
	all = append(all, args...)
	l.logger.Log(context.Background(), level, msg, all...)
}

// LogToolCall records execution details for a tool invocation.
func (l *SessionLogger) LogToolCall(tool string, dur time.Duration, success bool, err error) {
	args := []any{"tool_name", tool, "duration", dur, "success", success}
	if err != nil {
		args = append(args, "error", err.Error())
	}
	if success {
		l.Info("Tool execution completed", args...)
		return
	}
	l.Error("Tool execution failed", args...)
}

// LogModelCall records reasoning engine call latency and success.
func (l *SessionLogger) LogModelCall(model string, dur time.Duration, success bool, err error) {
	args := []any{"model", model, "duration", dur, "success", success}
	if err != nil {
		args = append(args, "error", err.Error())
	}
	if success {
		l.Info("Model call completed", args...)
		return
	}
	l.Error("Model call failed", args...)
}

// LogSession records aggregate session metrics at termination.
func (l *SessionLogger) LogSession(status string, steps int, dur time.Duration) {
	l.Info("Session completed", "status", status, "step_count", steps, "duration", dur)
}

// NoOpLogger discards all log messages. Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}
