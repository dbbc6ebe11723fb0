// Package logging builds the zap loggers used across payslipsync.
// Each component logs through a child named after its category; categories
// switched off in the configuration are silenced without touching callers.
package logging

import (
	"fmt"
	"strings"

	"payslipsync/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category names a component logger.
type Category string

const (
	CategoryBrowser   Category = "browser"   // Chrome lifecycle, tabs
	CategoryPortal    Category = "portal"    // login, navigation, listing, capture
	CategoryArchive   Category = "archive"   // Drive listing and uploads
	CategoryReconcile Category = "reconcile" // inventory comparison
	CategoryPipeline  Category = "pipeline"  // run sequencing
	CategoryHistory   Category = "history"   // run ledger
)

// New builds the root logger. The json format uses the production encoder,
// console the development one. An empty level means debug.
func New(cfg config.LoggingConfig) (*zap.Logger, error) {
	var zcfg zap.Config
	switch strings.ToLower(cfg.Format) {
	case "", "json":
		zcfg = zap.NewProductionConfig()
	case "console", "text":
		zcfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	level := cfg.Level
	if level == "" {
		level = "debug"
	}
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	zcfg.Level = lvl
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.Sampling = nil
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	if cfg.File != "" {
		zcfg.OutputPaths = append(zcfg.OutputPaths, cfg.File)
	}

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return WithCategories(logger, cfg), nil
}

// WithCategories wraps logger so that entries from disabled categories are
// dropped.
func WithCategories(logger *zap.Logger, cfg config.LoggingConfig) *zap.Logger {
	anyDisabled := false
	for name := range cfg.Categories {
		if !cfg.IsCategoryEnabled(name) {
			anyDisabled = true
			break
		}
	}
	if !anyDisabled {
		return logger
	}
	return logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return &categoryFilter{Core: core, cfg: cfg}
	}))
}

// For returns the child logger of a category.
func For(logger *zap.Logger, category Category) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger.Named(string(category))
}

// categoryFilter drops entries whose top-level logger name is disabled.
type categoryFilter struct {
	zapcore.Core
	cfg config.LoggingConfig
}

func (c *categoryFilter) With(fields []zapcore.Field) zapcore.Core {
	return &categoryFilter{Core: c.Core.With(fields), cfg: c.cfg}
}

func (c *categoryFilter) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	name, _, _ := strings.Cut(ent.LoggerName, ".")
	if !c.cfg.IsCategoryEnabled(name) {
		return ce
	}
	return c.Core.Check(ent, ce)
}
