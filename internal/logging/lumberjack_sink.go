package logging

import (
	"fmt"
	"net/url"
	"sync"

	"go.uber.org/zap"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

var (
	lumberjackOnce     sync.Once
	lumberjackRegister sync.Mutex
	lumberjackSeq      int
)

// registerLumberjackSink registers a zap sink factory backed by a rotating lumberjack
// logger and returns the "lumberjack-<n>:<filePath>" URL to pass as a zap OutputPath. Zap
// identifies sinks by URL scheme, so each registration gets its own numbered scheme.
func registerLumberjackSink(filePath string, maxSizeMB, maxBackups, maxAgeDays int) (string, error) {
	lumberjackRegister.Lock()
	defer lumberjackRegister.Unlock()

	lumberjackSeq++
	scheme := fmt.Sprintf("lumberjack-%d", lumberjackSeq)

	writer := &lumberjack.Logger{
		Filename:   filePath,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   true,
	}

	if err := zap.RegisterSink(scheme, func(*url.URL) (zap.Sink, error) {
		return &lumberjackSink{Logger: writer}, nil
	}); err != nil {
		return "", fmt.Errorf("unable to register lumberjack sink: %w", err)
	}

	return scheme + ":" + filePath, nil
}

// lumberjackSink adapts *lumberjack.Logger (an io.WriteCloser) to the zap.Sink interface,
// which additionally requires Sync. Lumberjack has no buffering to flush, so Sync is a no-op.
type lumberjackSink struct {
	*lumberjack.Logger
}

func (s *lumberjackSink) Sync() error {
	return nil
}
