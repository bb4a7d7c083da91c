package webscraper

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNavigationTimeout marks a navigation that did not reach the content-loaded state in time.
var ErrNavigationTimeout = errors.New("navigation timeout")

// Browser hands out rendering surfaces. It is opened once per run and shared across pages.
type Browser interface {
	OpenPage(ctx context.Context) (PageHandle, error)
	Close() error
}

// PageHandle is a single rendering surface, such as a browser tab.
type PageHandle interface {
	// Goto navigates to url and returns once the document content has loaded.
	Goto(ctx context.Context, url string, timeout time.Duration) error
	// AnchorHrefs returns the href of every anchor currently in the document.
	AnchorHrefs(ctx context.Context) ([]string, error)
	Close() error
}

// NavigationError carries the failure class reported by a browser.
type NavigationError struct {
	Class string
	Err   error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Class, e.Err)
}

func (e *NavigationError) Unwrap() error {
	return e.Err
}

// RenderFailure is the only error type returned by PageLoader.LoadLinks.
type RenderFailure struct {
	URL   string
	Class string
	Err   error
}

func (e *RenderFailure) Error() string {
	return fmt.Sprintf("render %s: %s: %v", e.URL, e.Class, e.Err)
}

func (e *RenderFailure) Unwrap() error {
	return e.Err
}

// Reason is the report text for this failure.
func (e *RenderFailure) Reason() string {
	return ReasonCrawlFailed + e.Class
}

// LinkLoader returns the raw outbound links of a rendered page.
type LinkLoader interface {
	LoadLinks(ctx context.Context, url string) ([]string, error)
}

// PageLoader opens a fresh page per call and extracts its anchor targets.
type PageLoader struct {
	browser Browser
	timeout time.Duration
}

func NewPageLoader(browser Browser, timeout time.Duration) *PageLoader {
	if timeout <= 0 {
		timeout = NavigationTimeout
	}
	return &PageLoader{browser: browser, timeout: timeout}
}

// LoadLinks renders url and returns the href of every anchor. Any error is a *RenderFailure.
func (l *PageLoader) LoadLinks(ctx context.Context, url string) (links []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			links = nil
			err = &RenderFailure{URL: url, Class: ClassNavigation, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	page, err := l.browser.OpenPage(ctx)
	if err != nil {
		return nil, newRenderFailure(url, err)
	}
	defer page.Close()

	if err := page.Goto(ctx, url, l.timeout); err != nil {
		return nil, newRenderFailure(url, err)
	}

	hrefs, err := page.AnchorHrefs(ctx)
	if err != nil {
		return nil, newRenderFailure(url, err)
	}
	return hrefs, nil
}

func newRenderFailure(url string, err error) *RenderFailure {
	return &RenderFailure{URL: url, Class: failureClass(err), Err: err}
}

func failureClass(err error) string {
	if errors.Is(err, ErrNavigationTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return ClassTimeout
	}
	var navErr *NavigationError
	if errors.As(err, &navErr) && navErr.Class != "" {
		return navErr.Class
	}
	return ClassNavigation
}
