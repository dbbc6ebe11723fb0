package portal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"payslipsync/internal/browser"
)

// fakePage is a scripted browser.Page. The top-level page and the content
// frame are separate fakePages sharing one call log.
type fakePage struct {
	log *[]string

	navigateErr error
	waitLoadErr error
	selectorErr error
	typeErr     error
	hasLogin    bool

	frame    *fakePage
	frameErr error

	texts    map[string]bool
	clickErr error
	clicks   int
	typed    map[string]string

	tableHTML string
	htmlErr   error

	// links maps a clicked XPath to the URL its handler passes to window.open.
	links    map[string]string
	hooked   bool
	captured string
	clickedX []string

	bodies   map[string][]byte
	fetchErr error
}

var _ browser.Page = (*fakePage)(nil)

func newFakePortal() (*fakePage, *fakePage) {
	var log []string
	frame := &fakePage{
		log:    &log,
		texts:  map[string]bool{mySpaceAnchor: true},
		links:  map[string]string{},
		bodies: map[string][]byte{},
	}
	page := &fakePage{log: &log, frame: frame, typed: map[string]string{}}
	return page, frame
}

// settle stands in for the navigator's settle sleep and logs it in order
// with the page calls.
func (f *fakePage) settle(ctx context.Context, _ time.Duration) error {
	f.record("settle")
	return ctx.Err()
}

func (f *fakePage) record(format string, args ...interface{}) {
	*f.log = append(*f.log, fmt.Sprintf(format, args...))
}

func (f *fakePage) Navigate(_ context.Context, url string) error {
	f.record("navigate %s", url)
	return f.navigateErr
}

func (f *fakePage) WaitLoad(context.Context) error {
	f.record("wait load")
	return f.waitLoadErr
}

func (f *fakePage) WaitForSelector(_ context.Context, selector string, _ time.Duration) error {
	f.record("wait selector %s", selector)
	return f.selectorErr
}

func (f *fakePage) WaitForText(_ context.Context, text string, _ time.Duration) error {
	f.record("wait text %s", text)
	if !f.texts[text] {
		return errors.New("timeout")
	}
	return nil
}

func (f *fakePage) Has(_ context.Context, selector string) (bool, error) {
	return selector == usernameSelector && f.hasLogin, nil
}

func (f *fakePage) Type(_ context.Context, selector, text string) error {
	f.record("type %s", selector)
	if f.typeErr != nil {
		return f.typeErr
	}
	f.typed[selector] = text
	return nil
}

func (f *fakePage) Click(_ context.Context, selector string) error {
	f.record("click %s", selector)
	if f.clickErr != nil {
		return f.clickErr
	}
	f.clicks++
	return nil
}

func (f *fakePage) ClickX(_ context.Context, xpath string) error {
	f.record("clickx %s", xpath)
	link, ok := f.links[xpath]
	if !ok {
		return errors.New("element not found")
	}
	f.clickedX = append(f.clickedX, xpath)
	if f.hooked {
		f.captured = link
	}
	return nil
}

func (f *fakePage) HTMLX(_ context.Context, xpath string, _ time.Duration) (string, error) {
	f.record("html %s", xpath)
	return f.tableHTML, f.htmlErr
}

func (f *fakePage) Evaluate(_ context.Context, js string, out interface{}, _ ...interface{}) error {
	switch js {
	case installCaptureJS:
		f.hooked = true
		f.captured = ""
	case readCaptureJS:
		*out.(*string) = f.captured
	default:
		return fmt.Errorf("unexpected script %q", js)
	}
	return nil
}

func (f *fakePage) Fetch(_ context.Context, url string) ([]byte, error) {
	f.record("fetch %s", url)
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	body, ok := f.bodies[url]
	if !ok {
		return nil, errors.New("HTTP 404")
	}
	return body, nil
}

func (f *fakePage) Frame(_ context.Context, selector string, _ time.Duration) (browser.Page, error) {
	f.record("frame %s", selector)
	if f.frameErr != nil {
		return nil, f.frameErr
	}
	if f.frame == nil {
		return nil, errors.New("no frame")
	}
	return f.frame, nil
}
