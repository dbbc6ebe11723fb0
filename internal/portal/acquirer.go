package portal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"payslipsync/internal/browser"
	"payslipsync/internal/reconcile"

	"go.uber.org/zap"
)

// installCaptureJS replaces window.open in the documents frame so that the
// link a payslip row opens is stored instead of popping up a window.
const installCaptureJS = `
() => {
	window.__payslipLink = null;
	window.open = (url) => {
		window.__payslipLink = url == null ? null : String(url);
		return null;
	};
	return true;
}
`

const readCaptureJS = `() => window.__payslipLink || ""`

const capturePollInterval = 100 * time.Millisecond

// rowLinkXPath addresses the download anchor in the icon cell of the n-th
// (1-based) table row.
func rowLinkXPath(n int) string {
	return fmt.Sprintf("((%s//tr)[%d]/%s//a)[1]", documentsTableXPath, n, iconCellXPath)
}

// Acquirer downloads payslips by row index.
type Acquirer struct {
	session *Session
	cfg     Config
	logger  *zap.Logger
}

// NewAcquirer creates an Acquirer on an open session.
func NewAcquirer(session *Session, logger *zap.Logger) *Acquirer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Acquirer{session: session, cfg: session.cfg, logger: logger}
}

// Acquire downloads the payslip of row index into the work directory and
// returns the local path.
func (a *Acquirer) Acquire(ctx context.Context, index int) (string, error) {
	frame, err := a.session.DocumentsFrame(ctx)
	if err != nil {
		return "", err
	}

	if err := frame.Evaluate(ctx, installCaptureJS, nil); err != nil {
		return "", fmt.Errorf("%w: install hook for row %d: %v", ErrCapture, index, err)
	}
	if err := frame.ClickX(ctx, rowLinkXPath(index+1)); err != nil {
		return "", fmt.Errorf("%w: click row %d: %v", ErrCapture, index, err)
	}

	link, err := a.waitForLink(ctx, frame, index)
	if err != nil {
		return "", err
	}
	a.logger.Debug("captured payslip link", zap.Int("index", index), zap.String("link", link))

	data, err := frame.Fetch(ctx, link)
	if err != nil {
		return "", fmt.Errorf("%w: row %d: %v", ErrFetch, index, err)
	}

	path := filepath.Join(a.cfg.WorkDir, reconcile.ArtifactName(index))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	a.logger.Info("payslip downloaded", zap.Int("index", index), zap.String("path", path), zap.Int("bytes", len(data)))
	return path, nil
}

func (a *Acquirer) waitForLink(ctx context.Context, frame browser.Page, index int) (string, error) {
	deadline := time.Now().Add(a.cfg.captureTimeout())
	for {
		var link string
		if err := frame.Evaluate(ctx, readCaptureJS, &link); err != nil {
			return "", fmt.Errorf("%w: read link for row %d: %v", ErrCapture, index, err)
		}
		if link != "" {
			return link, nil
		}
		if time.Now().After(deadline) {
			return "", fmt.Errorf("%w: no link opened by row %d", ErrCapture, index)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(capturePollInterval):
		}
	}
}
