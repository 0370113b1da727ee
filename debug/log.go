package debug

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu      sync.Mutex
	enabled atomic.Bool
	logger  atomic.Pointer[zap.SugaredLogger]
)

func init() {
	logger.Store(zap.NewNop().Sugar())
}

// DefaultPath is ~/.config/go-pattern/debug.log
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "go-pattern", "debug.log")
}

// Enable starts debug logging to path (DefaultPath if empty)
func Enable(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if enabled.Load() {
		return nil
	}
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	// Truncate like a fresh session; zap appends.
	if err := os.WriteFile(path, nil, 0644); err != nil {
		return err
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	l, err := cfg.Build()
	if err != nil {
		return err
	}

	logger.Store(l.Sugar())
	enabled.Store(true)
	Log("debug", "=== Debug logging started ===")
	return nil
}

// SetLogger routes debug output to an existing zap logger (nil disables)
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	if l == nil {
		logger.Store(zap.NewNop().Sugar())
		enabled.Store(false)
		return
	}
	logger.Store(l.Sugar())
	enabled.Store(true)
}

// Disable stops debug logging
func Disable() {
	mu.Lock()
	defer mu.Unlock()

	_ = logger.Load().Sync()
	logger.Store(zap.NewNop().Sugar())
	enabled.Store(false)
}

// Log writes a message to the debug log
func Log(category, format string, args ...any) {
	if !enabled.Load() {
		return
	}
	logger.Load().Debugw(fmt.Sprintf(format, args...), "cat", category)
}

// Warn writes a message at warn level; used for failures that are recovered from
func Warn(category, format string, args ...any) {
	if !enabled.Load() {
		return
	}
	logger.Load().Warnw(fmt.Sprintf(format, args...), "cat", category)
}

// LogEvery logs only every N calls (use for high-frequency events)
var (
	countersMu sync.Mutex
	counters   = make(map[string]int)
)

func LogEvery(n int, category, format string, args ...any) {
	if !enabled.Load() {
		return
	}
	countersMu.Lock()
	key := category + format
	counters[key]++
	count := counters[key]
	countersMu.Unlock()

	if count%n == 0 {
		Log(category, format+" (every %d, count=%d)", append(args, n, count)...)
	}
}
