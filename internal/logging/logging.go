// Package logging builds the zap logger used across dormwatch.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jgoulah/dormwatch/internal/config"
)

// ParseLevel maps debug, info, warn and error to zap levels. Anything else is info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// LogFilePath expands {date} in the configured path to YYYYMMDD
func LogFilePath(pattern string, now time.Time) string {
	return strings.ReplaceAll(pattern, "{date}", now.Format("20060102"))
}

// New returns a console logger on stderr, teed to a file when cfg.File is set.
// A disabled config yields a no-op logger. The returned close func flushes
// the logger and closes the log file; call it once the logger is no longer used.
func New(cfg config.LoggingConfig) (*zap.Logger, func(), error) {
	if !cfg.LoggingEnabled() {
		return zap.NewNop(), func() {}, nil
	}

	level := zap.NewAtomicLevelAt(ParseLevel(cfg.Level))

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), level),
	}

	var file *os.File
	if cfg.File != "" {
		path := LogFilePath(cfg.File, time.Now())
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, nil, fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		file = f
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(f), level))
	}

	logger := zap.New(zapcore.NewTee(cores...)).With(zap.String("service_name", "dormwatch"))
	closeFn := func() {
		_ = logger.Sync()
		if file != nil {
			file.Close()
		}
	}
	return logger, closeFn, nil
}
