package portal

import (
	"context"
	"fmt"

	"payslipsync/internal/browser"

	"go.uber.org/zap"
)

// Session is a logged-in portal page positioned on the documents view.
type Session struct {
	page   browser.Page
	cfg    Config
	logger *zap.Logger
}

// DocumentsFrame resolves the content iframe. It is resolved again on every
// call because frame handles do not survive the portal's DOM updates.
func (s *Session) DocumentsFrame(ctx context.Context) (browser.Page, error) {
	frame, err := s.page.Frame(ctx, mainFrameName, s.cfg.waitTimeout())
	if err != nil {
		return nil, fmt.Errorf("%w: documents frame: %v", ErrNavigation, err)
	}
	return frame, nil
}
