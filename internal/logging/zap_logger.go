// Package logging provides logging utilities for the benchmark orchestrator.
// This file provides an optional high-performance Zap logger that can coexist
// with the default logrus logger, for runs where logrus's reflection-based
// formatting would otherwise dominate the cost of a high-iteration-count benchmark.
package logging

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	zapLogger  *zap.Logger
	zapSugar   *zap.SugaredLogger
	zapEnabled bool
	zapOnce    sync.Once
	zapMu      sync.RWMutex
)

// ZapConfig configures the Zap logger.
type ZapConfig struct {
	// Development enables development mode (more verbose, human-readable output).
	Development bool
	// Level sets the minimum log level.
	Level zapcore.Level
	// OutputPaths are the paths to write logs to (e.g., "stdout", "/var/log/app.log").
	OutputPaths []string
	// ErrorOutputPaths are the paths to write error logs to.
	ErrorOutputPaths []string
	// EnableCaller adds caller information to log entries.
	EnableCaller bool
	// EnableStacktrace adds stack trace on error logs.
	EnableStacktrace bool
}

// DefaultZapConfig returns sensible defaults for Zap logging.
func DefaultZapConfig(debug bool) ZapConfig {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}
	return ZapConfig{
		Development:      debug,
		Level:            level,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		EnableCaller:     true,
		EnableStacktrace: !debug,
	}
}

// InitZapLogger initializes the Zap logger with the given configuration.
// This can be called multiple times safely; initialization happens only once.
// Returns nil if initialization succeeds, otherwise returns the error.
func InitZapLogger(cfg ZapConfig) error {
	var initErr error
	zapOnce.Do(func() {
		var zapCfg zap.Config

		if cfg.Development {
			zapCfg = zap.NewDevelopmentConfig()
			zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
			zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
		} else {
			zapCfg = zap.NewProductionConfig()
			zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		}

		zapCfg.Level = zap.NewAtomicLevelAt(cfg.Level)

		if len(cfg.OutputPaths) > 0 {
			zapCfg.OutputPaths = cfg.OutputPaths
		}
		if len(cfg.ErrorOutputPaths) > 0 {
			zapCfg.ErrorOutputPaths = cfg.ErrorOutputPaths
		}

		zapCfg.DisableCaller = !cfg.EnableCaller
		zapCfg.DisableStacktrace = !cfg.EnableStacktrace

		var err error
		zapLogger, err = zapCfg.Build()
		if err != nil {
			initErr = err
			return
		}

		zapSugar = zapLogger.Sugar()
		zapEnabled = true
	})
	return initErr
}

// InitZapLoggerSimple initializes Zap with simple debug flag.
func InitZapLoggerSimple(debug bool) error {
	return InitZapLogger(DefaultZapConfig(debug))
}

// ZapEnabled returns true if Zap logger has been initialized.
func ZapEnabled() bool {
	zapMu.RLock()
	defer zapMu.RUnlock()
	return zapEnabled
}

// Zap returns the Zap logger instance.
// Returns nil if Zap has not been initialized.
func Zap() *zap.Logger {
	zapMu.RLock()
	defer zapMu.RUnlock()
	if !zapEnabled {
		return nil
	}
	return zapLogger
}

// Sugar returns the Zap sugared logger instance.
// Returns nil if Zap has not been initialized.
func Sugar() *zap.SugaredLogger {
	zapMu.RLock()
	defer zapMu.RUnlock()
	if !zapEnabled {
		return nil
	}
	return zapSugar
}

// ZapSync flushes any buffered log entries.
// Should be called before program exit.
func ZapSync() error {
	zapMu.RLock()
	defer zapMu.RUnlock()
	if !zapEnabled || zapLogger == nil {
		return nil
	}
	return zapLogger.Sync()
}

// ZapServer creates a server field for structured logging.
func ZapServer(serverName string) zap.Field {
	return zap.String("server", serverName)
}

// ZapOperation creates an operation field for structured logging.
func ZapOperation(operation string) zap.Field {
	return zap.String("operation", operation)
}

// ZapConcurrency creates a concurrent_users field for structured logging.
func ZapConcurrency(concurrentUsers uint32) zap.Field {
	return zap.Uint32("concurrent_users", concurrentUsers)
}

// ZapDurationMs creates a duration_ms field for structured logging.
func ZapDurationMs(durationMs float64) zap.Field {
	return zap.Float64("duration_ms", durationMs)
}

// ZapIterations creates an iterations field for structured logging.
func ZapIterations(iterations uint32) zap.Field {
	return zap.Uint32("iterations", iterations)
}

// ZapLogToFile configures Zap to also log to a file.
func ZapLogToFile(filePath string, debug bool) error {
	cfg := DefaultZapConfig(debug)
	cfg.OutputPaths = append(cfg.OutputPaths, filePath)
	return InitZapLogger(cfg)
}

// ZapWithRotation sets up Zap to write rotated output through lumberjack, by registering
// a lumberjack-backed output sink (scheme "lumberjack-<n>") and pointing OutputPaths at it. This completes the rotation
// support that a plain file path cannot provide on its own.
func ZapWithRotation(filePath string, maxSizeMB, maxBackups, maxAgeDays int, debug bool) error {
	sinkURL, err := registerLumberjackSink(filePath, maxSizeMB, maxBackups, maxAgeDays)
	if err != nil {
		return err
	}

	cfg := DefaultZapConfig(debug)
	cfg.OutputPaths = append(cfg.OutputPaths, sinkURL)
	return InitZapLogger(cfg)
}

func init() {
	if os.Getenv("FHIR_BENCH_ZAP_ENABLED") == "true" {
		debug := os.Getenv("DEBUG") == "true"
		_ = InitZapLoggerSimple(debug)
	}
}
