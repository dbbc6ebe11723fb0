package portal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"payslipsync/internal/browser"
	"payslipsync/internal/reconcile"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// iconCellXPath matches the grid icon cell that leads every document row and
// holds its download anchor.
const iconCellXPath = "td[contains(@class,'icon_font_grid')]"

// documentsTableXPath selects the element whose rows make up the documents
// list: the grandparent of the first grid icon cell. A view without rows has
// no icon cell, so the table wait times out instead of yielding no rows.
const documentsTableXPath = "(//" + iconCellXPath + ")[1]/../.."

// Lister reads the documents table of a frame.
type Lister struct {
	timeout time.Duration
	logger  *zap.Logger
}

// NewLister creates a Lister whose table wait is bounded by cfg.WaitTimeout.
func NewLister(cfg Config, logger *zap.Logger) *Lister {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lister{timeout: cfg.waitTimeout(), logger: logger}
}

// List returns one row per table row in on-screen order. Rows that are not
// payslips keep their index but carry no label.
func (l *Lister) List(ctx context.Context, frame browser.Page) ([]reconcile.RemoteRow, error) {
	l.logger.Info("analyzing table content")
	markup, err := frame.HTMLX(ctx, documentsTableXPath, l.timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: documents table: %v", ErrNavigation, err)
	}

	rows, err := parseDocumentTable(markup)
	if err != nil {
		return nil, err
	}

	if ce := l.logger.Check(zap.DebugLevel, "documents table read"); ce != nil {
		labels := make([]string, 0, len(rows))
		for _, r := range rows {
			if r.Label != nil {
				labels = append(labels, *r.Label)
			}
		}
		ce.Write(zap.Int("rows", len(rows)), zap.Strings("labels", labels))
	}
	return rows, nil
}

// parseDocumentTable extracts the rows of a table section. The fourth cell
// is the label when the third cell carries the payslip marker.
func parseDocumentTable(markup string) ([]reconcile.RemoteRow, error) {
	// Wrapping keeps tbody/tr markup in table context; a markup that already
	// is a table just closes the empty outer one.
	doc, err := html.Parse(strings.NewReader("<table>" + markup + "</table>"))
	if err != nil {
		return nil, fmt.Errorf("parse documents table: %w", err)
	}

	rows := []reconcile.RemoteRow{}
	for _, tr := range collect(doc, atom.Tr) {
		row := reconcile.RemoteRow{Index: len(rows)}
		cells := cellsOf(tr)
		if len(cells) >= 4 && strings.Contains(textOf(cells[2]), reconcile.PayslipMarker) {
			label := textOf(cells[3])
			row.Label = &label
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// collect returns the elements of type a below n in document order.
func collect(n *html.Node, a atom.Atom) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == a {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func cellsOf(tr *html.Node) []*html.Node {
	var cells []*html.Node
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
			cells = append(cells, c)
		}
	}
	return cells
}

// textOf mirrors DOM textContent.
func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
