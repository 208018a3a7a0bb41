// Package logging builds the zap logger used for run diagnostics.
package logging

import (
	"strings"

	"github.com/nconklindev/modelswap/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a logger from the logging section of the config.
// Format "json" gives machine-readable lines, anything else the console encoder.
func New(cfg config.LoggingConfig) (*zap.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	zc.Development = false
	zc.DisableStacktrace = true
	zc.Level = zap.NewAtomicLevelAt(ParseLevel(cfg.Level))

	if strings.ToLower(cfg.Format) == "json" {
		zc.Encoding = "json"
		zc.EncoderConfig = zap.NewProductionEncoderConfig()
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zc.EncoderConfig.CallerKey = ""
	}

	out := "stderr"
	if cfg.File != "" {
		out = cfg.File
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	zc.OutputPaths = []string{out}
	zc.ErrorOutputPaths = []string{out}

	return zc.Build()
}

// ParseLevel maps debug, warn, error to zap levels; anything else is info.
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
