package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"payslipsync/internal/browser"
	"payslipsync/internal/portal"

	"gopkg.in/yaml.v3"
)

// Config holds all payslipsync configuration.
type Config struct {
	Portal  PortalConfig   `yaml:"portal"`
	Archive ArchiveConfig  `yaml:"archive"`
	Browser browser.Config `yaml:"browser"`
	Timing  TimingConfig   `yaml:"timing"`
	History HistoryConfig  `yaml:"history"`
	Logging LoggingConfig  `yaml:"logging"`

	// WorkDir receives downloaded payslips until they are archived.
	WorkDir string `yaml:"work_dir"`
}

// PortalConfig configures access to the HR portal.
type PortalConfig struct {
	LoginURL string `yaml:"login_url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// ArchiveConfig configures the Drive archive.
type ArchiveConfig struct {
	// Folder is the Drive folder id.
	Folder string `yaml:"folder"`
	// Prefix is the leading part of every archive filename.
	Prefix          string `yaml:"prefix"`
	CredentialsFile string `yaml:"credentials_file"`
	// Concurrency caps parallel uploads; zero or less is unbounded.
	Concurrency int `yaml:"concurrency"`
}

// TimingConfig holds the portal waits as duration strings.
type TimingConfig struct {
	WaitTimeout    string `yaml:"wait_timeout"`
	SettleDelay    string `yaml:"settle_delay"`
	CaptureTimeout string `yaml:"capture_timeout"`
	// RunTimeout bounds a whole run. Empty means unbounded.
	RunTimeout string `yaml:"run_timeout"`
}

// HistoryConfig configures the run history ledger.
type HistoryConfig struct {
	// DatabasePath is the SQLite file. Empty disables the ledger.
	DatabasePath string `yaml:"database_path"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Portal: PortalConfig{
			LoginURL: portal.DefaultLoginURL,
		},
		Archive: ArchiveConfig{
			Concurrency: 4,
		},
		Browser: browser.DefaultConfig(),
		Timing: TimingConfig{
			WaitTimeout:    "30s",
			SettleDelay:    "500ms",
			CaptureTimeout: "5s",
		},
		History: HistoryConfig{
			DatabasePath: filepath.Join(".payslipsync", "history.db"),
		},
		Logging: LoggingConfig{
			Level:  "debug",
			Format: "json",
		},
		WorkDir: ".",
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	overrides := map[string]*string{
		"PORTAL_USERNAME":                &c.Portal.Username,
		"PORTAL_PASSWORD":                &c.Portal.Password,
		"PORTAL_LOGIN_URL":               &c.Portal.LoginURL,
		"ARCHIVE_FOLDER":                 &c.Archive.Folder,
		"ARCHIVE_PREFIX":                 &c.Archive.Prefix,
		"GOOGLE_APPLICATION_CREDENTIALS": &c.Archive.CredentialsFile,
		"LOG_LEVEL":                      &c.Logging.Level,
		"PAYSLIPSYNC_WORKDIR":            &c.WorkDir,
		"PAYSLIPSYNC_HISTORY_DB":         &c.History.DatabasePath,
	}
	for name, field := range overrides {
		if v := os.Getenv(name); v != "" {
			*field = v
		}
	}

	if v := os.Getenv("PAYSLIPSYNC_HEADLESS"); v != "" {
		if headless, err := strconv.ParseBool(v); err == nil {
			c.Browser.Headless = headless
		}
	}
}

// Validate checks that the values a run cannot default are present.
func (c *Config) Validate() error {
	var missing []string
	if c.Portal.Username == "" {
		missing = append(missing, "portal username (PORTAL_USERNAME)")
	}
	if c.Portal.Password == "" {
		missing = append(missing, "portal password (PORTAL_PASSWORD)")
	}
	if c.Archive.Folder == "" {
		missing = append(missing, "archive folder (ARCHIVE_FOLDER)")
	}
	if c.Archive.Prefix == "" {
		missing = append(missing, "archive prefix (ARCHIVE_PREFIX)")
	}
	if len(missing) > 0 {
		return errors.New("missing configuration: " + strings.Join(missing, ", "))
	}
	return nil
}

// GetWaitTimeout returns the bound on portal waits.
func (c *Config) GetWaitTimeout() time.Duration {
	return parseDuration(c.Timing.WaitTimeout, 30*time.Second)
}

// GetSettleDelay returns the settle delay around tab activation.
func (c *Config) GetSettleDelay() time.Duration {
	return parseDuration(c.Timing.SettleDelay, 500*time.Millisecond)
}

// GetCaptureTimeout returns the bound on payslip link capture.
func (c *Config) GetCaptureTimeout() time.Duration {
	return parseDuration(c.Timing.CaptureTimeout, 5*time.Second)
}

// GetRunTimeout returns the bound on a whole run, zero when unbounded.
func (c *Config) GetRunTimeout() time.Duration {
	return parseDuration(c.Timing.RunTimeout, 0)
}

// PortalSettings converts the configuration for the portal package.
func (c *Config) PortalSettings() portal.Config {
	return portal.Config{
		LoginURL:       c.Portal.LoginURL,
		Username:       c.Portal.Username,
		Password:       c.Portal.Password,
		WaitTimeout:    c.GetWaitTimeout(),
		SettleDelay:    c.GetSettleDelay(),
		CaptureTimeout: c.GetCaptureTimeout(),
		WorkDir:        c.WorkDir,
	}
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
