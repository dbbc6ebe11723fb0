package portal

import (
	"context"
	"errors"

	"payslipsync/internal/browser"
	"payslipsync/internal/reconcile"

	"go.uber.org/zap"
)

var errNotOpen = errors.New("portal session not open")

// Client bundles the page-bound steps of a run over one exclusive page:
// Open first, then ListDocuments and Acquire, one call at a time.
type Client struct {
	navigator *Navigator
	lister    *Lister
	logger    *zap.Logger
	acquirer  *Acquirer
}

// NewClient creates a Client driving page.
func NewClient(page browser.Page, cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		navigator: NewNavigator(page, cfg, logger),
		lister:    NewLister(cfg, logger),
		logger:    logger,
	}
}

// Open logs in and reaches the documents view.
func (c *Client) Open(ctx context.Context) error {
	session, err := c.navigator.Open(ctx)
	if err != nil {
		return err
	}
	c.acquirer = NewAcquirer(session, c.logger)
	return nil
}

// ListDocuments lists the rows of the documents table.
func (c *Client) ListDocuments(ctx context.Context) ([]reconcile.RemoteRow, error) {
	if c.acquirer == nil {
		return nil, errNotOpen
	}
	frame, err := c.acquirer.session.DocumentsFrame(ctx)
	if err != nil {
		return nil, err
	}
	return c.lister.List(ctx, frame)
}

// Acquire downloads the payslip of row index.
func (c *Client) Acquire(ctx context.Context, index int) (string, error) {
	if c.acquirer == nil {
		return "", errNotOpen
	}
	return c.acquirer.Acquire(ctx, index)
}
