package webscraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// PlaywrightOptions configures the headless Chromium instance.
type PlaywrightOptions struct {
	Headless        bool
	InstallBrowsers bool
}

// PlaywrightBrowser renders pages in Chromium. One browser context is shared for the whole run
// and every OpenPage call creates a new tab in it.
type PlaywrightBrowser struct {
	pwClient *playwright.Playwright    // The Playwright client to use
	browser  playwright.Browser        // The Playwright browser to use
	context  playwright.BrowserContext // The context pages are opened in
}

// NewPlaywrightBrowser starts the Playwright driver and launches Chromium.
func NewPlaywrightBrowser(opts PlaywrightOptions) (*PlaywrightBrowser, error) {
	if opts.InstallBrowsers {
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
			return nil, fmt.Errorf("install playwright browsers: %w", err)
		}
	}

	pw, err := playwright.Run(&playwright.RunOptions{
		SkipInstallBrowsers: true,
	})
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	bctx, err := browser.NewContext()
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("create browser context: %w", err)
	}

	return &PlaywrightBrowser{
		pwClient: pw,
		browser:  browser,
		context:  bctx,
	}, nil
}

func (b *PlaywrightBrowser) OpenPage(ctx context.Context) (PageHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page, err := b.context.NewPage()
	if err != nil {
		return nil, classifyPlaywrightError(err)
	}
	return &playwrightPage{page: page}, nil
}

// Close tears down the context, the browser and the driver, in that order.
func (b *PlaywrightBrowser) Close() error {
	var errs []error
	if b.context != nil {
		if err := b.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser context: %w", err))
		}
	}
	if b.browser != nil {
		if err := b.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}
	if b.pwClient != nil {
		if err := b.pwClient.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop playwright: %w", err))
		}
	}
	return errors.Join(errs...)
}

type playwrightPage struct {
	page playwright.Page
}

func (p *playwrightPage) Goto(ctx context.Context, url string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return classifyPlaywrightError(err)
	}
	return nil
}

func (p *playwrightPage) AnchorHrefs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := p.page.Evaluate(anchorHrefsScript)
	if err != nil {
		return nil, classifyPlaywrightError(err)
	}
	values, ok := raw.([]interface{})
	if !ok {
		return nil, &NavigationError{Class: "TypeError", Err: fmt.Errorf("unexpected anchor list type %T", raw)}
	}

	hrefs := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			hrefs = append(hrefs, s)
		}
	}
	return hrefs, nil
}

func (p *playwrightPage) Close() error {
	return p.page.Close()
}

func classifyPlaywrightError(err error) error {
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %v", ErrNavigationTimeout, err)
	}
	var pwErr *playwright.Error
	if errors.As(err, &pwErr) && pwErr.Name != "" {
		return &NavigationError{Class: pwErr.Name, Err: err}
	}
	return &NavigationError{Class: ClassNavigation, Err: err}
}
