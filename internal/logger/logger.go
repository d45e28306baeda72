package logger

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu            sync.RWMutex
	defaultLogger *zap.Logger
)

// New builds a zap logger. format is "json" or "console".
func New(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch format {
	case "json":
		cfg = zap.NewProductionConfig()
	case "console", "":
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stdout"}

	return cfg.Build()
}

// Init sets the global logger. A bad level or format falls back to info/console.
func Init(level, format string) *zap.Logger {
	l, err := New(level, format)
	if err != nil {
		l, _ = New("info", "console")
		l.Warn("logger config rejected, using defaults", zap.Error(err))
	}

	mu.Lock()
	defaultLogger = l
	mu.Unlock()
	zap.ReplaceGlobals(l)
	return l
}

func Get() *zap.Logger {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()
	if l == nil {
		return Init("info", "console")
	}
	return l
}

// Sync flushes buffered entries, call before exit.
func Sync() {
	_ = Get().Sync()
}

func Info(msg string, kv ...any) {
	Get().Sugar().Infow(msg, kv...)
}

func Warn(msg string, kv ...any) {
	Get().Sugar().Warnw(msg, kv...)
}

// Fatal logs at error level and exits the process
func Fatal(msg string, kv ...any) {
	Get().Sugar().Errorw(msg, kv...)
	Sync()
	os.Exit(1)
}
