// Package browser drives a Chrome instance through go-rod and exposes the
// page capability the portal automation runs on.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// Config holds browser configuration.
type Config struct {
	DebuggerURL         string   `yaml:"debugger_url,omitempty" json:"debugger_url,omitempty"`
	Launch              []string `yaml:"launch,omitempty" json:"launch,omitempty"`
	Headless            bool     `yaml:"headless" json:"headless"`
	ViewportWidth       int      `yaml:"viewport_width" json:"viewport_width"`
	ViewportHeight      int      `yaml:"viewport_height" json:"viewport_height"`
	NavigationTimeoutMs int      `yaml:"navigation_timeout_ms" json:"navigation_timeout_ms"`
	SlowMotionMs        int      `yaml:"slow_motion_ms" json:"slow_motion_ms"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Headless:            true,
		ViewportWidth:       1366,
		ViewportHeight:      768,
		NavigationTimeoutMs: 30000,
		SlowMotionMs:        10,
	}
}

// IsHeadless returns the headless setting.
func (c Config) IsHeadless() bool {
	return c.Headless
}

// GetViewportWidth returns viewport width.
func (c Config) GetViewportWidth() int {
	if c.ViewportWidth == 0 {
		return 1366
	}
	return c.ViewportWidth
}

// GetViewportHeight returns viewport height.
func (c Config) GetViewportHeight() int {
	if c.ViewportHeight == 0 {
		return 768
	}
	return c.ViewportHeight
}

// NavigationTimeout returns the navigation timeout.
func (c Config) NavigationTimeout() time.Duration {
	if c.NavigationTimeoutMs == 0 {
		return 30 * time.Second
	}
	return time.Duration(c.NavigationTimeoutMs) * time.Millisecond
}

// SlowMotion returns the delay rod inserts between input actions.
func (c Config) SlowMotion() time.Duration {
	if c.SlowMotionMs <= 0 {
		return 0
	}
	return time.Duration(c.SlowMotionMs) * time.Millisecond
}

// SessionManager owns the Chrome instance for one run.
type SessionManager struct {
	cfg       Config
	logger    *zap.Logger
	mu        sync.Mutex
	browser   *rod.Browser
	incognito *rod.Browser
	launcher  *launcher.Launcher
	tabs      []*Tab
}

// NewSessionManager creates a new session manager.
func NewSessionManager(cfg Config, logger *zap.Logger) *SessionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionManager{cfg: cfg, logger: logger}
}

// Start connects to an existing Chrome or launches a new one.
func (m *SessionManager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.browser != nil {
		if _, err := m.browser.Version(); err == nil {
			return nil
		}
		m.logger.Warn("stale browser connection detected, reconnecting")
		_ = m.browser.Close()
		m.browser = nil
		m.incognito = nil
	}

	controlURL := m.cfg.DebuggerURL
	if controlURL == "" {
		l := m.newLauncher()
		url, err := l.Launch()
		if err != nil {
			return fmt.Errorf("launch chrome: %w", err)
		}
		m.launcher = l
		controlURL = url
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if d := m.cfg.SlowMotion(); d > 0 {
		browser = browser.SlowMotion(d)
	}
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect to chrome: %w", err)
	}

	incognito, err := browser.Incognito()
	if err != nil {
		_ = browser.Close()
		return fmt.Errorf("incognito context: %w", err)
	}

	m.browser = browser
	m.incognito = incognito
	m.logger.Debug("browser connected", zap.String("control_url", controlURL), zap.Bool("headless", m.cfg.IsHeadless()))
	return nil
}

func (m *SessionManager) newLauncher() *launcher.Launcher {
	l := launcher.New().Headless(m.cfg.IsHeadless())
	if len(m.cfg.Launch) == 0 {
		return l
	}
	l = l.Bin(m.cfg.Launch[0])
	for _, rawFlag := range m.cfg.Launch[1:] {
		flagStr := strings.TrimLeft(rawFlag, "-")
		name, val, hasVal := strings.Cut(flagStr, "=")
		if hasVal {
			l = l.Set(flags.Flag(name), val)
		} else {
			l = l.Set(flags.Flag(name))
		}
	}
	return l
}

// NewTab opens a blank page in the run's incognito context.
func (m *SessionManager) NewTab(ctx context.Context) (*Tab, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.incognito == nil {
		return nil, errors.New("browser not connected")
	}

	page, err := m.incognito.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	page = page.Context(ctx)

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             m.cfg.GetViewportWidth(),
		Height:            m.cfg.GetViewportHeight(),
		DeviceScaleFactor: 1.0,
		Mobile:            false,
	}).Call(page); err != nil {
		m.logger.Warn("failed to set viewport", zap.Error(err))
	}

	tab := &Tab{page: page, cfg: m.cfg}
	m.tabs = append(m.tabs, tab)
	return tab, nil
}

// Shutdown closes open tabs and the browser. A launched Chrome is also
// killed and its profile directory removed.
func (m *SessionManager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, tab := range m.tabs {
		_ = tab.page.Context(ctx).Close()
	}
	m.tabs = nil

	var err error
	if m.browser != nil {
		if m.launcher != nil {
			err = m.browser.Context(ctx).Close()
		} else if m.incognito != nil {
			// Attached to someone else's Chrome: only drop our context.
			err = m.incognito.Context(ctx).Close()
		}
		m.browser = nil
		m.incognito = nil
	}
	if m.launcher != nil {
		// Cleanup waits for the process to exit.
		if err != nil {
			m.launcher.Kill()
		}
		m.launcher.Cleanup()
		m.launcher = nil
	}
	return err
}
