// Package logger provides the process-wide structured logger.
package logger

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures Init.
type Options struct {
	Env   string // "dev" for console output, anything else for JSON
	Level string // debug, info, warn, error
	File  string // optional log file, written in addition to stderr
}

var (
	globalLogger = zap.NewNop()
	logFile      *os.File
	mu           sync.Mutex
)

// Init initializes the global logger.
func Init(opts Options) error {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var encoder zapcore.Encoder
	if opts.Env == "dev" || opts.Env == "" {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	mu.Lock()
	defer mu.Unlock()

	// Close previous log file if exists
	closeFileLocked()

	cores := []zapcore.Core{zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level)}
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("failed to create log file: %w", err)
		}
		logFile = f
		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), zapcore.AddSync(f), level))
	}

	globalLogger = zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	return nil
}

// Close flushes the logger and closes the log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	_ = globalLogger.Sync()
	closeFileLocked()
	globalLogger = zap.NewNop()
}

func closeFileLocked() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

// L returns the global logger for structured fields.
func L() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	return globalLogger
}

// Info logs an info message.
func Info(format string, v ...any) {
	L().WithOptions(zap.AddCallerSkip(1)).Sugar().Infof(format, v...)
}

// Debug logs a debug message.
func Debug(format string, v ...any) {
	L().WithOptions(zap.AddCallerSkip(1)).Sugar().Debugf(format, v...)
}

// Error logs an error message.
func Error(format string, v ...any) {
	L().WithOptions(zap.AddCallerSkip(1)).Sugar().Errorf(format, v...)
}

// Warn logs a warning message.
func Warn(format string, v ...any) {
	L().WithOptions(zap.AddCallerSkip(1)).Sugar().Warnf(format, v...)
}
