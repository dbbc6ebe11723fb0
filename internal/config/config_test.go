package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"payslipsync/internal/portal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"PORTAL_USERNAME", "PORTAL_PASSWORD", "PORTAL_LOGIN_URL",
		"ARCHIVE_FOLDER", "ARCHIVE_PREFIX", "GOOGLE_APPLICATION_CREDENTIALS",
		"LOG_LEVEL", "PAYSLIPSYNC_WORKDIR", "PAYSLIPSYNC_HISTORY_DB", "PAYSLIPSYNC_HEADLESS",
	} {
		t.Setenv(name, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, portal.DefaultLoginURL, cfg.Portal.LoginURL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 1366, cfg.Browser.ViewportWidth)
	assert.Equal(t, 30*time.Second, cfg.GetWaitTimeout())
	assert.Equal(t, 500*time.Millisecond, cfg.GetSettleDelay())
	assert.Equal(t, 5*time.Second, cfg.GetCaptureTimeout())
	assert.Zero(t, cfg.GetRunTimeout())
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("portal: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Portal.Username = "mario"
	cfg.Archive.Folder = "folder-id"
	cfg.Archive.Prefix = "Busta"
	cfg.Timing.SettleDelay = "2s"
	cfg.Browser.Launch = []string{"/usr/bin/chromium", "--no-sandbox"}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
	assert.Equal(t, 2*time.Second, loaded.GetSettleDelay())
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("archive:\n  prefix: Busta\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Busta", cfg.Archive.Prefix)
	assert.Equal(t, 4, cfg.Archive.Concurrency)
	assert.Equal(t, portal.DefaultLoginURL, cfg.Portal.LoginURL)
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORTAL_USERNAME")
	assert.Contains(t, err.Error(), "ARCHIVE_PREFIX")

	cfg.Portal.Username = "u"
	cfg.Portal.Password = "p"
	cfg.Archive.Folder = "f"
	cfg.Archive.Prefix = "x"
	assert.NoError(t, cfg.Validate())
}

func TestDurationFallbacks(t *testing.T) {
	cfg := &Config{Timing: TimingConfig{WaitTimeout: "soon", SettleDelay: "", CaptureTimeout: "1m", RunTimeout: "10m"}}

	assert.Equal(t, 30*time.Second, cfg.GetWaitTimeout())
	assert.Equal(t, 500*time.Millisecond, cfg.GetSettleDelay())
	assert.Equal(t, time.Minute, cfg.GetCaptureTimeout())
	assert.Equal(t, 10*time.Minute, cfg.GetRunTimeout())
}

func TestPortalSettings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Portal.Username = "mario"
	cfg.Portal.Password = "secret"
	cfg.WorkDir = "/tmp/payslips"

	assert.Equal(t, portal.Config{
		LoginURL:       portal.DefaultLoginURL,
		Username:       "mario",
		Password:       "secret",
		WaitTimeout:    30 * time.Second,
		SettleDelay:    500 * time.Millisecond,
		CaptureTimeout: 5 * time.Second,
		WorkDir:        "/tmp/payslips",
	}, cfg.PortalSettings())
}

func TestLoggingCategories(t *testing.T) {
	cfg := LoggingConfig{Categories: map[string]bool{"browser": false, "portal": true}}

	assert.False(t, cfg.IsCategoryEnabled("browser"))
	assert.True(t, cfg.IsCategoryEnabled("portal"))
	assert.True(t, cfg.IsCategoryEnabled("archive"))
	assert.True(t, (&LoggingConfig{}).IsCategoryEnabled("archive"))
}
