package logging

import (
	"context"
	"fmt"
	"sync"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	logger *otelzap.Logger
)

// Init initializes the global logger at the given level ("debug", "info", "warn", "error").
// An empty level means info. Call this early in main.
func Init(level string) error {
	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	z, err := cfg.Build()
	if err != nil {
		return err
	}

	Set(otelzap.New(z))
	return nil
}

// Set replaces the global logger. Tests use it with zaptest/observer cores.
func Set(l *otelzap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
	otelzap.ReplaceGlobals(l)
}

// fallbackLogger returns a no-op logger if Init() was not called, so library
// callers stay silent unless the binary opts in.
func fallbackLogger() *otelzap.Logger {
	return otelzap.New(zap.NewNop())
}

// L returns the global otelzap.Logger (for advanced use).
func L() *otelzap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if logger != nil {
		return logger
	}
	return fallbackLogger()
}

// C returns a context-aware logger (recommended for most use).
func C(ctx context.Context) otelzap.LoggerWithCtx {
	return L().Ctx(ctx)
}

// Sync flushes buffered log entries.
func Sync() {
	_ = L().Sync()
}
