package logging

import (
	"log/slog"
	"os"
	"sync"
)

// Global logger instance and synchronization. The engine has no startup
// phase of its own to call an explicit Init from — GetLogger is the only
// entry point subsystems ever reach — so initialization is purely lazy.
var (
	logger   *slog.Logger
	loggerMu sync.RWMutex
	initOnce sync.Once
)

// GetLogger returns the process-wide logger, initializing it with INFO-level
// text output to stdout on first call. Safe for concurrent use.
func GetLogger() *slog.Logger {
	initOnce.Do(func() {
		loggerMu.Lock()
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
		loggerMu.Unlock()
	})

	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}
