// Package log provides structured logging for the firmwarenator CLI.
//
// The tool is one-shot and user-facing, so the logger favors a console
// encoder on stderr over JSON. --verbose lowers the level to debug, which
// is where the diagnostic echo of resolved settings lands.
package log

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger provides printf-style logging for the CLI.
// Diagnostics go to stderr so they never mix with artifact streams
// or rendered output on stdout.
type Logger struct {
	sugar *zap.SugaredLogger
}

// New creates a logger writing to os.Stderr.
// When verbose is false, debug entries are suppressed.
func New(verbose bool) *Logger {
	return NewWithWriter(verbose, os.Stderr)
}

// NewWithWriter creates a logger writing to w. Used by tests to capture output.
func NewWithWriter(verbose bool, w io.Writer) *Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:          "timestamp",
		LevelKey:         "level",
		MessageKey:       "message",
		EncodeTime:       zapcore.RFC3339TimeEncoder,
		EncodeLevel:      zapcore.LowercaseLevelEncoder,
		ConsoleSeparator: "  ",
	}

	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(w),
		level,
	)

	return &Logger{sugar: zap.New(core).Sugar()}
}

// Nop returns a logger that discards everything. Used by tests.
func Nop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

// Debugf logs a debug message with printf-style formatting.
func (l *Logger) Debugf(template string, args ...any) {
	l.sugar.Debugf(template, args...)
}

// Infof logs an info message with printf-style formatting.
func (l *Logger) Infof(template string, args ...any) {
	l.sugar.Infof(template, args...)
}

// Warnf logs a warning message with printf-style formatting.
func (l *Logger) Warnf(template string, args ...any) {
	l.sugar.Warnf(template, args...)
}

// Errorf logs an error message with printf-style formatting.
func (l *Logger) Errorf(template string, args ...any) {
	l.sugar.Errorf(template, args...)
}

// With returns a Logger with additional context fields.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{sugar: l.sugar.With(args...)}
}
