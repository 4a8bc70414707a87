// Package logging wraps go.uber.org/zap with the service's logger
// configuration: JSON or console output, optional rotated file output via
// lumberjack, and a process-wide global logger.
package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the interface for structured logging.
type Logger interface {
	// Debug logs a message at DebugLevel.
	Debug(msg string, fields ...zap.Field)
	// Info logs a message at InfoLevel.
	Info(msg string, fields ...zap.Field)
	// Warn logs a message at WarnLevel.
	Warn(msg string, fields ...zap.Field)
	// Error logs a message at ErrorLevel.
	Error(msg string, fields ...zap.Field)
	// Fatal logs a message at FatalLevel and then calls os.Exit(1).
	Fatal(msg string, fields ...zap.Field)

	// With creates a child logger with additional fields.
	With(fields ...zap.Field) Logger
	// WithError creates a child logger with an error field.
	WithError(err error) Logger
	// Named creates a child logger with the given name.
	Named(name string) Logger

	// Zap returns the underlying *zap.Logger.
	Zap() *zap.Logger
	// Sync flushes any buffered log entries.
	Sync() error
}

// zapLogger wraps *zap.Logger to implement the Logger interface.
type zapLogger struct {
	zl *zap.Logger
}

// NewLogger creates a new Logger from the given Config.
func NewLogger(config Config) Logger {
	config.applyDefaults()

	encoder := getEncoder(config)
	level := config.TransportLevel()

	var cores []zapcore.Core
	if config.LogInTerminal {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level))
	}
	if config.Director != "" {
		rotated := &lumberjack.Logger{
			Filename:   filepath.Join(config.Director, "pixelforge.log"),
			MaxSize:    config.MaxSize,
			MaxAge:     config.MaxAge,
			MaxBackups: config.MaxBackups,
			Compress:   config.Compress,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(rotated), level))
	}

	return &zapLogger{zl: zap.New(zapcore.NewTee(cores...))}
}

// FromZap wraps an existing *zap.Logger as a Logger.
func FromZap(zl *zap.Logger) Logger {
	return &zapLogger{zl: zl}
}

// getEncoder returns a zapcore.Encoder based on the config format.
func getEncoder(config Config) zapcore.Encoder {
	encoderConfig := zapcore.EncoderConfig{
		MessageKey:     "message",
		LevelKey:       "level",
		TimeKey:        "time",
		NameKey:        "logger",
		CallerKey:      "caller",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout(config.TimeFormat),
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}
	if config.Format == "json" {
		return zapcore.NewJSONEncoder(encoderConfig)
	}
	return zapcore.NewConsoleEncoder(encoderConfig)
}

func (l *zapLogger) Debug(msg string, fields ...zap.Field) { l.zl.Debug(msg, fields...) }
func (l *zapLogger) Info(msg string, fields ...zap.Field)  { l.zl.Info(msg, fields...) }
func (l *zapLogger) Warn(msg string, fields ...zap.Field)  { l.zl.Warn(msg, fields...) }
func (l *zapLogger) Error(msg string, fields ...zap.Field) { l.zl.Error(msg, fields...) }
func (l *zapLogger) Fatal(msg string, fields ...zap.Field) { l.zl.Fatal(msg, fields...) }

func (l *zapLogger) With(fields ...zap.Field) Logger {
	return &zapLogger{zl: l.zl.With(fields...)}
}

func (l *zapLogger) WithError(err error) Logger {
	return l.With(zap.Error(err))
}

func (l *zapLogger) Named(name string) Logger {
	return &zapLogger{zl: l.zl.Named(name)}
}

func (l *zapLogger) Zap() *zap.Logger { return l.zl }
func (l *zapLogger) Sync() error      { return l.zl.Sync() }
