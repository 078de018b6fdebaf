// Package logging provides config-driven categorized logging for
// agencydesk. Log lines go to a single file under the state dir's logs/
// directory; when logging is disabled every logger is a no-op so the
// TUI never gets stray writes on stdout.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/subsystem.
type Category string

const (
	CategoryBoot   Category = "boot"   // Startup, config resolution
	CategoryAPI    Category = "api"    // HTTP requests, refresh/retry flow
	CategoryAuth   Category = "auth"   // Credential store, session events
	CategoryCache  Category = "cache"  // Query cache fetches and invalidation
	CategoryForms  Category = "forms"  // Draft state, file staging
	CategoryExport Category = "export" // Spreadsheet downloads and rendering
	CategoryAudit  Category = "audit"  // Activity journal writes
)

// Options mirror config.LoggingConfig without importing it (the config
// package logs through this one during Load).
type Options struct {
	Enabled    bool
	Level      string
	Categories map[string]bool
}

var (
	mu      sync.RWMutex
	root    *zap.Logger
	opts    Options
	loggers = make(map[Category]*zap.SugaredLogger)
	nop     = zap.NewNop().Sugar()
)

// Initialize sets up the file-backed root logger. Call once at startup
// with the log directory; a disabled config makes this a silent no-op.
func Initialize(dir string, o Options) error {
	mu.Lock()
	defer mu.Unlock()

	opts = o
	loggers = make(map[Category]*zap.SugaredLogger)

	if !o.Enabled {
		root = nil
		return nil
	}
	if dir == "" {
		return fmt.Errorf("log directory required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	path := filepath.Join(dir, time.Now().Format("2006-01-02")+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(f),
		parseLevel(o.Level),
	)
	root = zap.New(core)
	return nil
}

func parseLevel(s string) zapcore.Level {
	switch s {
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

// Get returns the logger for a category, or a no-op logger when logging
// is disabled or the category is switched off in config.
func Get(category Category) *zap.SugaredLogger {
	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	r := root
	enabled := categoryEnabled(category)
	mu.RUnlock()

	if r == nil || !enabled {
		return nop
	}

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}
	l := root.Named(string(category)).Sugar()
	loggers[category] = l
	return l
}

func categoryEnabled(category Category) bool {
	if !opts.Enabled {
		return false
	}
	if opts.Categories == nil {
		return true
	}
	enabled, ok := opts.Categories[string(category)]
	if !ok {
		return true
	}
	return enabled
}

// Sync flushes the root logger. Call at shutdown.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if root != nil {
		_ = root.Sync()
	}
}

// Convenience helpers; no-ops when the category is disabled.

func API(format string, args ...interface{})    { Get(CategoryAPI).Infof(format, args...) }
func Auth(format string, args ...interface{})   { Get(CategoryAuth).Infof(format, args...) }
func Cache(format string, args ...interface{})  { Get(CategoryCache).Infof(format, args...) }
func Forms(format string, args ...interface{})  { Get(CategoryForms).Infof(format, args...) }
func Export(format string, args ...interface{}) { Get(CategoryExport).Infof(format, args...) }
func Audit(format string, args ...interface{})  { Get(CategoryAudit).Infof(format, args...) }

func APIDebug(format string, args ...interface{})   { Get(CategoryAPI).Debugf(format, args...) }
func CacheDebug(format string, args ...interface{}) { Get(CategoryCache).Debugf(format, args...) }
func FormsDebug(format string, args ...interface{}) { Get(CategoryForms).Debugf(format, args...) }

func APIWarn(format string, args ...interface{})  { Get(CategoryAPI).Warnf(format, args...) }
func AuthWarn(format string, args ...interface{}) { Get(CategoryAuth).Warnf(format, args...) }

func APIError(format string, args ...interface{})  { Get(CategoryAPI).Errorf(format, args...) }
func AuthError(format string, args ...interface{}) { Get(CategoryAuth).Errorf(format, args...) }
