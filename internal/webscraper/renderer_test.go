package webscraper

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePage struct {
	gotoErr   error
	hrefs     []string
	hrefsErr  error
	panicOn   string
	closed    int
	gotoURL   string
	gotoLimit time.Duration
}

func (p *fakePage) Goto(_ context.Context, url string, timeout time.Duration) error {
	if p.panicOn == "goto" {
		panic("renderer crashed")
	}
	p.gotoURL = url
	p.gotoLimit = timeout
	return p.gotoErr
}

func (p *fakePage) AnchorHrefs(context.Context) ([]string, error) {
	return p.hrefs, p.hrefsErr
}

func (p *fakePage) Close() error {
	p.closed++
	return nil
}

type fakeBrowser struct {
	page    *fakePage
	openErr error
	opened  int
}

func (b *fakeBrowser) OpenPage(context.Context) (PageHandle, error) {
	if b.openErr != nil {
		return nil, b.openErr
	}
	b.opened++
	return b.page, nil
}

func (b *fakeBrowser) Close() error { return nil }

func TestPageLoader_LoadLinks(t *testing.T) {
	t.Parallel()

	page := &fakePage{hrefs: []string{"http://site.test/a", "", "http://other.test/"}}
	browser := &fakeBrowser{page: page}
	loader := NewPageLoader(browser, 5*time.Second)

	links, err := loader.LoadLinks(context.Background(), "http://site.test/")

	require.NoError(t, err)
	assert.Equal(t, page.hrefs, links)
	assert.Equal(t, "http://site.test/", page.gotoURL)
	assert.Equal(t, 5*time.Second, page.gotoLimit)
	assert.Equal(t, 1, browser.opened)
	assert.Equal(t, 1, page.closed)
}

func TestPageLoader_DefaultTimeout(t *testing.T) {
	t.Parallel()

	page := &fakePage{}
	loader := NewPageLoader(&fakeBrowser{page: page}, 0)

	_, err := loader.LoadLinks(context.Background(), "http://site.test/")

	require.NoError(t, err)
	assert.Equal(t, NavigationTimeout, page.gotoLimit)
}

func TestPageLoader_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		browser   *fakeBrowser
		wantClass string
		wantClose int
	}{
		{
			name:      "navigation timeout",
			browser:   &fakeBrowser{page: &fakePage{gotoErr: fmt.Errorf("%w: 30000ms exceeded", ErrNavigationTimeout)}},
			wantClass: ClassTimeout,
			wantClose: 1,
		},
		{
			name:      "context deadline",
			browser:   &fakeBrowser{page: &fakePage{gotoErr: context.DeadlineExceeded}},
			wantClass: ClassTimeout,
			wantClose: 1,
		},
		{
			name:      "classified navigation error",
			browser:   &fakeBrowser{page: &fakePage{gotoErr: &NavigationError{Class: "DNSError", Err: errors.New("no such host")}}},
			wantClass: "DNSError",
			wantClose: 1,
		},
		{
			name:      "extraction error",
			browser:   &fakeBrowser{page: &fakePage{hrefsErr: errors.New("execution context destroyed")}},
			wantClass: ClassNavigation,
			wantClose: 1,
		},
		{
			name:      "panic during navigation",
			browser:   &fakeBrowser{page: &fakePage{panicOn: "goto"}},
			wantClass: ClassNavigation,
			wantClose: 1,
		},
		{
			name:      "open page error",
			browser:   &fakeBrowser{page: &fakePage{}, openErr: errors.New("browser has been closed")},
			wantClass: ClassNavigation,
			wantClose: 0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			loader := NewPageLoader(tc.browser, time.Second)

			links, err := loader.LoadLinks(context.Background(), "http://site.test/page")

			require.Error(t, err)
			assert.Nil(t, links)
			var rf *RenderFailure
			require.ErrorAs(t, err, &rf)
			assert.Equal(t, tc.wantClass, rf.Class)
			assert.Equal(t, "http://site.test/page", rf.URL)
			assert.Equal(t, ReasonCrawlFailed+tc.wantClass, rf.Reason())
			assert.Equal(t, tc.wantClose, tc.browser.page.closed)
		})
	}
}

func TestNavigationError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("net::ERR_NAME_NOT_RESOLVED")
	err := &RenderFailure{URL: "u", Class: "Error", Err: &NavigationError{Class: "Error", Err: cause}}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "net::ERR_NAME_NOT_RESOLVED")
}
