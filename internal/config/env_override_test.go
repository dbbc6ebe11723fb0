package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvOverrides(t *testing.T) {
	t.Run("credentials and archive", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PORTAL_USERNAME", "env-user")
		t.Setenv("PORTAL_PASSWORD", "env-pass")
		t.Setenv("ARCHIVE_FOLDER", "env-folder")
		t.Setenv("ARCHIVE_PREFIX", "Cedolino")
		t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/secrets/sa.json")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "env-user", cfg.Portal.Username)
		assert.Equal(t, "env-pass", cfg.Portal.Password)
		assert.Equal(t, "env-folder", cfg.Archive.Folder)
		assert.Equal(t, "Cedolino", cfg.Archive.Prefix)
		assert.Equal(t, "/secrets/sa.json", cfg.Archive.CredentialsFile)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("empty values keep configured ones", func(t *testing.T) {
		clearEnv(t)

		cfg := &Config{Portal: PortalConfig{Username: "file-user"}, WorkDir: "/data"}
		cfg.applyEnvOverrides()

		assert.Equal(t, "file-user", cfg.Portal.Username)
		assert.Equal(t, "/data", cfg.WorkDir)
	})

	t.Run("paths and log level", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LOG_LEVEL", "warn")
		t.Setenv("PAYSLIPSYNC_WORKDIR", "/var/lib/payslips")
		t.Setenv("PAYSLIPSYNC_HISTORY_DB", "")
		t.Setenv("PORTAL_LOGIN_URL", "https://portal.example/login.jsp")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "warn", cfg.Logging.Level)
		assert.Equal(t, "/var/lib/payslips", cfg.WorkDir)
		assert.Equal(t, DefaultConfig().History.DatabasePath, cfg.History.DatabasePath)
		assert.Equal(t, "https://portal.example/login.jsp", cfg.Portal.LoginURL)
	})

	t.Run("headless", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PAYSLIPSYNC_HEADLESS", "false")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.False(t, cfg.Browser.Headless)

		t.Setenv("PAYSLIPSYNC_HEADLESS", "not-a-bool")
		cfg = DefaultConfig()
		cfg.applyEnvOverrides()
		assert.True(t, cfg.Browser.Headless)
	})

	t.Run("applied on load", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ARCHIVE_PREFIX", "FromEnv")

		cfg, err := Load(t.TempDir() + "/absent.yaml")
		require.NoError(t, err)
		assert.Equal(t, "FromEnv", cfg.Archive.Prefix)
	})
}
