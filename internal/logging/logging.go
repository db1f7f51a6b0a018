// Package logging builds the process logger. The terminal belongs to the
// dashboard, so records go to a size-rotated file.
package logging

import (
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"flowguard/internal/config"
)

// New returns a JSON logger writing to the file named in cfg. The returned
// closer flushes the logger and closes the file.
func New(cfg config.LogConfig) (*zap.Logger, io.Closer) {
	sink := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
	}
	logger := NewWithWriter(zapcore.AddSync(sink), ParseLevel(cfg.Level))
	return logger, closer{logger: logger, sink: sink}
}

// NewWithWriter returns a JSON logger writing to w at level.
func NewWithWriter(w zapcore.WriteSyncer, level zapcore.Level) *zap.Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), w, level)
	return zap.New(core)
}

// ParseLevel converts "debug", "info", "warn" or "error" to a level.
// Unknown strings default to info.
func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(s) {
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

type closer struct {
	logger *zap.Logger
	sink   *lumberjack.Logger
}

func (c closer) Close() error {
	_ = c.logger.Sync()
	return c.sink.Close()
}
