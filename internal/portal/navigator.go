// Package portal automates the HR portal: login, navigation to the
// documents view, listing of the documents table and payslip download.
package portal

import (
	"context"
	"fmt"
	"time"

	"payslipsync/internal/browser"

	"go.uber.org/zap"
)

// Selectors of the portal layout.
const (
	usernameSelector = "input[name=m_cUserName]"
	passwordSelector = "input[name=m_cPassword]"
	submitSelector   = "input.Accedi_ctrl"
	mainFrameName    = "iframe[name=Main]"
	mySpaceAnchor    = "MySpace"
	inactiveTabLink  = "div.tabNavigation div.tab_item:not(.actived) a"
)

// DefaultLoginURL is the portal login page.
const DefaultLoginURL = "https://saas.hrzucchetti.it/mipstdscarrone/jsp/login.jsp"

// Config configures the portal automation.
type Config struct {
	LoginURL string
	Username string
	Password string

	// WaitTimeout bounds every wait for a frame, anchor, control or table.
	WaitTimeout time.Duration
	// SettleDelay is slept around tab activation; the portal gives no
	// readiness signal for that transition.
	SettleDelay time.Duration
	// CaptureTimeout bounds the wait for the captured payslip link.
	CaptureTimeout time.Duration
	// WorkDir receives downloaded payslips.
	WorkDir string
}

func (c Config) waitTimeout() time.Duration {
	if c.WaitTimeout <= 0 {
		return 30 * time.Second
	}
	return c.WaitTimeout
}

func (c Config) captureTimeout() time.Duration {
	if c.CaptureTimeout <= 0 {
		return 5 * time.Second
	}
	return c.CaptureTimeout
}

func (c Config) loginURL() string {
	if c.LoginURL == "" {
		return DefaultLoginURL
	}
	return c.LoginURL
}

// Navigator logs into the portal and reaches the documents view.
type Navigator struct {
	page   browser.Page
	cfg    Config
	logger *zap.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewNavigator creates a Navigator driving page.
func NewNavigator(page browser.Page, cfg Config, logger *zap.Logger) *Navigator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Navigator{page: page, cfg: cfg, logger: logger, sleep: sleepCtx}
}

// Open logs in and activates the documents tab. The returned Session owns
// the page exclusively and must be used sequentially.
func (n *Navigator) Open(ctx context.Context) (*Session, error) {
	n.logger.Info("navigating to login page", zap.String("url", n.cfg.loginURL()))
	if err := n.login(ctx); err != nil {
		return nil, err
	}

	s := &Session{page: n.page, cfg: n.cfg, logger: n.logger}
	frame, err := s.DocumentsFrame(ctx)
	if err != nil {
		if loginFormVisible, _ := n.page.Has(ctx, usernameSelector); loginFormVisible {
			return nil, fmt.Errorf("%w: still on login page: %v", ErrLogin, err)
		}
		return nil, err
	}

	n.logger.Info("navigating to MySpace")
	if err := n.goToMySpace(ctx, frame); err != nil {
		return nil, err
	}
	return s, nil
}

func (n *Navigator) login(ctx context.Context) error {
	if err := n.page.Navigate(ctx, n.cfg.loginURL()); err != nil {
		return fmt.Errorf("%w: open login page: %v", ErrNavigation, err)
	}
	n.waitLoad(ctx, "login page")
	if err := n.page.WaitForSelector(ctx, usernameSelector, n.cfg.waitTimeout()); err != nil {
		return fmt.Errorf("%w: login form: %v", ErrNavigation, err)
	}

	if err := n.page.Type(ctx, usernameSelector, n.cfg.Username); err != nil {
		return fmt.Errorf("%w: username field: %v", ErrLogin, err)
	}
	if err := n.page.Type(ctx, passwordSelector, n.cfg.Password); err != nil {
		return fmt.Errorf("%w: password field: %v", ErrLogin, err)
	}
	if err := n.page.Click(ctx, submitSelector); err != nil {
		return fmt.Errorf("%w: submit: %v", ErrLogin, err)
	}
	n.waitLoad(ctx, "post-login page")
	return nil
}

// waitLoad is best effort: the page may already be loaded by the time the
// wait starts, so a failure is only logged. The bounded waits that follow
// are the real gate.
func (n *Navigator) waitLoad(ctx context.Context, what string) {
	if err := n.page.WaitLoad(ctx); err != nil {
		n.logger.Warn("page load wait failed, continuing", zap.String("page", what), zap.Error(err))
	}
}

func (n *Navigator) goToMySpace(ctx context.Context, frame browser.Page) error {
	if err := frame.WaitForText(ctx, mySpaceAnchor, n.cfg.waitTimeout()); err != nil {
		return fmt.Errorf("%w: %s anchor: %v", ErrNavigation, mySpaceAnchor, err)
	}

	// The portal signals neither activation; each click waits a settle step.
	for step := 1; step <= 2; step++ {
		if err := n.settle(ctx, fmt.Sprintf("before tab activation %d", step)); err != nil {
			return err
		}
		if err := frame.Click(ctx, inactiveTabLink); err != nil {
			return fmt.Errorf("%w: tab activation %d: %v", ErrNavigation, step, err)
		}
	}
	return n.settle(ctx, "after tab activation")
}

func (n *Navigator) settle(ctx context.Context, reason string) error {
	if n.cfg.SettleDelay <= 0 {
		return nil
	}
	n.logger.Debug("settling", zap.String("step", reason), zap.Duration("delay", n.cfg.SettleDelay))
	return n.sleep(ctx, n.cfg.SettleDelay)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
