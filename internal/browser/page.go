package browser

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Page is the interactive page capability the portal automation consumes.
// Frames are Pages too: Frame resolves an iframe element to its document.
// Implementations are not safe for concurrent use.
type Page interface {
	Navigate(ctx context.Context, url string) error
	WaitLoad(ctx context.Context) error
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error
	WaitForText(ctx context.Context, text string, timeout time.Duration) error
	Has(ctx context.Context, selector string) (bool, error)
	Type(ctx context.Context, selector, text string) error
	Click(ctx context.Context, selector string) error
	ClickX(ctx context.Context, xpath string) error
	HTMLX(ctx context.Context, xpath string, timeout time.Duration) (string, error)
	Evaluate(ctx context.Context, js string, out interface{}, args ...interface{}) error
	Fetch(ctx context.Context, url string) ([]byte, error)
	Frame(ctx context.Context, selector string, timeout time.Duration) (Page, error)
}

// fetchJS downloads a resource with the page's cookies and returns it base64
// encoded, since evaluation results cross the protocol as JSON.
const fetchJS = `
async (url) => {
	const res = await fetch(url, { credentials: 'include' });
	if (!res.ok) {
		throw new Error('HTTP ' + res.status + ' fetching ' + url);
	}
	const bytes = new Uint8Array(await res.arrayBuffer());
	let bin = '';
	for (let i = 0; i < bytes.length; i += 0x8000) {
		bin += String.fromCharCode.apply(null, bytes.subarray(i, i + 0x8000));
	}
	return btoa(bin);
}
`

// Tab is a rod page (or iframe document) implementing Page.
type Tab struct {
	page *rod.Page
	cfg  Config
}

var _ Page = (*Tab)(nil)

// Navigate loads url in the tab.
func (t *Tab) Navigate(ctx context.Context, url string) error {
	return t.page.Context(ctx).Timeout(t.cfg.NavigationTimeout()).Navigate(url)
}

// WaitLoad waits for the window load event.
func (t *Tab) WaitLoad(ctx context.Context) error {
	return t.page.Context(ctx).Timeout(t.cfg.NavigationTimeout()).WaitLoad()
}

// WaitForSelector waits until an element matches selector.
func (t *Tab) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	el, err := t.page.Context(ctx).Timeout(timeout).Element(selector)
	if err != nil {
		return fmt.Errorf("wait for %q: %w", selector, err)
	}
	el.CancelTimeout()
	return nil
}

// WaitForText waits until some element's text contains text.
func (t *Tab) WaitForText(ctx context.Context, text string, timeout time.Duration) error {
	el, err := t.page.Context(ctx).Timeout(timeout).ElementR("*", regexp.QuoteMeta(text))
	if err != nil {
		return fmt.Errorf("wait for text %q: %w", text, err)
	}
	el.CancelTimeout()
	return nil
}

// Has reports whether an element matches selector right now.
func (t *Tab) Has(ctx context.Context, selector string) (bool, error) {
	has, _, err := t.page.Context(ctx).Has(selector)
	return has, err
}

// Type types text into the element matching selector.
func (t *Tab) Type(ctx context.Context, selector, text string) error {
	el, err := t.element(ctx, selector)
	if err != nil {
		return err
	}
	return el.Input(text)
}

// Click clicks the element matching selector.
func (t *Tab) Click(ctx context.Context, selector string) error {
	el, err := t.element(ctx, selector)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

// ClickX clicks the element matching an XPath expression.
func (t *Tab) ClickX(ctx context.Context, xpath string) error {
	el, err := t.page.Context(ctx).Timeout(t.cfg.NavigationTimeout()).ElementX(xpath)
	if err != nil {
		return fmt.Errorf("element %q not found: %w", xpath, err)
	}
	return el.CancelTimeout().Click(proto.InputMouseButtonLeft, 1)
}

// HTMLX returns the outer HTML of the element matching an XPath expression.
func (t *Tab) HTMLX(ctx context.Context, xpath string, timeout time.Duration) (string, error) {
	el, err := t.page.Context(ctx).Timeout(timeout).ElementX(xpath)
	if err != nil {
		return "", fmt.Errorf("element %q not found: %w", xpath, err)
	}
	return el.CancelTimeout().HTML()
}

// Evaluate runs js, a function expression, with args in the page and decodes
// its JSON result into out. out may be nil.
func (t *Tab) Evaluate(ctx context.Context, js string, out interface{}, args ...interface{}) error {
	res, err := t.page.Context(ctx).Evaluate(&rod.EvalOptions{
		JS:           js,
		JSArgs:       args,
		ByValue:      true,
		AwaitPromise: true,
		UserGesture:  true,
	})
	if err != nil {
		return err
	}
	if out == nil || res == nil {
		return nil
	}
	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return json.Unmarshal(raw, out)
}

// Fetch downloads url from inside the page so the session cookies apply.
func (t *Tab) Fetch(ctx context.Context, url string) ([]byte, error) {
	var encoded string
	if err := t.Evaluate(ctx, fetchJS, &encoded, url); err != nil {
		return nil, err
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode fetched body: %w", err)
	}
	return data, nil
}

// Frame returns the document of the iframe matching selector.
func (t *Tab) Frame(ctx context.Context, selector string, timeout time.Duration) (Page, error) {
	el, err := t.page.Context(ctx).Timeout(timeout).Element(selector)
	if err != nil {
		return nil, fmt.Errorf("frame %q not found: %w", selector, err)
	}
	frame, err := el.CancelTimeout().Frame()
	if err != nil {
		return nil, fmt.Errorf("frame %q content: %w", selector, err)
	}
	return &Tab{page: frame, cfg: t.cfg}, nil
}

func (t *Tab) element(ctx context.Context, selector string) (*rod.Element, error) {
	el, err := t.page.Context(ctx).Timeout(t.cfg.NavigationTimeout()).Element(selector)
	if err != nil {
		return nil, fmt.Errorf("element %q not found: %w", selector, err)
	}
	return el.CancelTimeout(), nil
}
