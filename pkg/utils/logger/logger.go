// Package logger wraps zap with named, component-scoped sugared loggers.
package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a named sugared logger for a single component.
type Logger struct {
	*zap.SugaredLogger
}

var (
	root *zap.SugaredLogger
	once sync.Once
)

// Init configures the process-wide logger. The first call wins; later calls
// are no-ops so tests and library consumers can call it freely.
func Init(level, env string) {
	once.Do(func() {
		encCfg := zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		}

		var enc zapcore.Encoder
		if env == "production" {
			enc = zapcore.NewJSONEncoder(encCfg)
		} else {
			enc = zapcore.NewConsoleEncoder(encCfg)
		}

		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			lvl = zapcore.InfoLevel
		}

		core := zapcore.NewCore(enc, zapcore.AddSync(os.Stdout), zap.NewAtomicLevelAt(lvl))
		root = zap.New(core, zap.AddCaller()).Sugar()
	})
}

// GetLogger returns a logger named after the given component.
func GetLogger(name string) *Logger {
	if root == nil {
		Init("info", "development")
	}
	return &Logger{root.Named(name)}
}

// With returns a child logger with additional structured context.
func (l *Logger) With(args ...interface{}) *Logger {
	return &Logger{l.SugaredLogger.With(args...)}
}
