// Package log provides the process-wide leveled logger.
package log

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log level constants accepted by SetLevel.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

var zapLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)

var encoderConfig = zapcore.EncoderConfig{
	TimeKey:        "ts",
	LevelKey:       "level",
	NameKey:        "logger",
	CallerKey:      "caller",
	MessageKey:     "msg",
	StacktraceKey:  "stacktrace",
	LineEnding:     zapcore.DefaultLineEnding,
	EncodeLevel:    zapcore.CapitalLevelEncoder,
	EncodeTime:     zapcore.ISO8601TimeEncoder,
	EncodeDuration: zapcore.StringDurationEncoder,
	EncodeCaller:   zapcore.ShortCallerEncoder,
}

// Default borrows logging utilities from zap. Replace it with any
// implementation of Logger to redirect engine logging.
var Default Logger = zap.New(
	zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(os.Stderr),
		zapLevel,
	),
	zap.AddCaller(),
	zap.AddCallerSkip(1),
).Sugar()

// Logger is the minimal leveled interface the engine logs through.
type Logger interface {
	Debug(args ...any)
	Debugf(format string, args ...any)
	Info(args ...any)
	Infof(format string, args ...any)
	Warn(args ...any)
	Warnf(format string, args ...any)
	Error(args ...any)
	Errorf(format string, args ...any)
}

// SetLevel sets the log level. Valid levels: "debug", "info", "warn", "error".
// Unknown values leave the level unchanged.
func SetLevel(level string) {
	switch level {
	case LevelDebug:
		zapLevel.SetLevel(zapcore.DebugLevel)
	case LevelInfo:
		zapLevel.SetLevel(zapcore.InfoLevel)
	case LevelWarn:
		zapLevel.SetLevel(zapcore.WarnLevel)
	case LevelError:
		zapLevel.SetLevel(zapcore.ErrorLevel)
	}
}

// Debug logs a message at debug level.
func Debug(args ...any) { Default.Debug(args...) }

// Debugf logs a formatted message at debug level.
func Debugf(format string, args ...any) { Default.Debugf(format, args...) }

// Info logs a message at info level.
func Info(args ...any) { Default.Info(args...) }

// Infof logs a formatted message at info level.
func Infof(format string, args ...any) { Default.Infof(format, args...) }

// Warn logs a message at warn level.
func Warn(args ...any) { Default.Warn(args...) }

// Warnf logs a formatted message at warn level.
func Warnf(format string, args ...any) { Default.Warnf(format, args...) }

// Error logs a message at error level.
func Error(args ...any) { Default.Error(args...) }

// Errorf logs a formatted message at error level.
func Errorf(format string, args ...any) { Default.Errorf(format, args...) }
