package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a sugared zap logger for the given level ("debug", "info",
// "warn", "error"). Output always goes to stderr so stdout stays free for
// the MCP protocol when the daemon runs in stdio mode.
func New(level string) (*zap.SugaredLogger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("logger: invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	log, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logger: build failed: %w", err)
	}
	return log.Sugar(), nil
}

// NewNop returns a logger that discards everything, for tests
func NewNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// Must is a convenience wrapper that exits on logger construction failure
func Must(level string) *zap.SugaredLogger {
	log, err := New(level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return log
}
