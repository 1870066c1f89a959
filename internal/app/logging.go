package app

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggingConfig configures logging wiring.
type LoggingConfig struct {
	Logger *zap.Logger
}

// NewLogger returns the configured logger, named for the application.
func NewLogger(cfg LoggingConfig) *zap.Logger {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger.Named("app")
}

// BuildLogger creates a production JSON logger at the given level.
func BuildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if strings.TrimSpace(level) != "" {
		parsed, err := zapcore.ParseLevel(strings.TrimSpace(level))
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		cfg.Level = zap.NewAtomicLevelAt(parsed)
	}
	return cfg.Build()
}
