package webscraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

// StaticBrowser fetches pages over plain HTTP and reads anchors from the served markup.
// Scripts are not executed, so links inserted at runtime are not seen.
type StaticBrowser struct {
	client    *http.Client // The HTTP client to use
	userAgent string
}

func NewStaticBrowser(userAgent string) *StaticBrowser {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &StaticBrowser{
		client:    &http.Client{},
		userAgent: userAgent,
	}
}

func (b *StaticBrowser) OpenPage(ctx context.Context) (PageHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &staticPage{client: b.client, userAgent: b.userAgent}, nil
}

func (b *StaticBrowser) Close() error {
	b.client.CloseIdleConnections()
	return nil
}

type staticPage struct {
	client    *http.Client
	userAgent string
	finalURL  *url.URL
	doc       *goquery.Document
}

func (p *staticPage) Goto(ctx context.Context, target string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return &NavigationError{Class: "InvalidURLError", Err: err}
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	res, err := p.client.Do(req)
	if err != nil {
		return classifyHTTPError(err)
	}
	defer res.Body.Close()

	body, err := charset.NewReader(res.Body, res.Header.Get("Content-Type"))
	if err != nil {
		return &NavigationError{Class: "EncodingError", Err: err}
	}
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return classifyHTTPError(err)
	}

	p.finalURL = res.Request.URL
	p.doc = doc
	return nil
}

// AnchorHrefs mirrors the DOM's a.href: each href resolved against the document URL,
// and an empty string for anchors without one.
func (p *staticPage) AnchorHrefs(ctx context.Context) ([]string, error) {
	if p.doc == nil {
		return nil, &NavigationError{Class: ClassNavigation, Err: errors.New("page not loaded")}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base := p.finalURL
	if href, ok := p.doc.Find("base[href]").First().Attr("href"); ok {
		if u, err := p.finalURL.Parse(href); err == nil {
			base = u
		}
	}

	var hrefs []string
	p.doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			hrefs = append(hrefs, "")
			return
		}
		u, err := base.Parse(href)
		if err != nil {
			hrefs = append(hrefs, href)
			return
		}
		hrefs = append(hrefs, u.String())
	})
	return hrefs, nil
}

func (p *staticPage) Close() error {
	p.doc = nil
	return nil
}

func classifyHTTPError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrNavigationTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrNavigationTimeout, err)
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &NavigationError{Class: "DNSError", Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &NavigationError{Class: "ConnectionError", Err: err}
	}
	return &NavigationError{Class: ClassNavigation, Err: err}
}
