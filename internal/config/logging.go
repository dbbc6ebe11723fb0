package config

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
	// File receives log output in addition to stderr when set.
	File string `yaml:"file,omitempty"`
	// Categories disables individual component loggers when set to false.
	Categories map[string]bool `yaml:"categories,omitempty"`
}

// IsCategoryEnabled reports whether logging is enabled for a category.
// Categories not listed are enabled.
func (c *LoggingConfig) IsCategoryEnabled(category string) bool {
	enabled, exists := c.Categories[category]
	return !exists || enabled
}
