package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// PlaywrightDriver implements Driver over a Playwright browser context.
type PlaywrightDriver struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
}

// LaunchPlaywright starts the Playwright runtime and launches a Chromium
// context. The returned driver must be closed when the item is done.
func LaunchPlaywright(headless bool) (*PlaywrightDriver, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("starting playwright: %w", err)
	}
	b, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("launching chromium: %w", err)
	}
	bctx, err := b.NewContext()
	if err != nil {
		b.Close()
		pw.Stop()
		return nil, fmt.Errorf("creating browser context: %w", err)
	}
	return &PlaywrightDriver{pw: pw, browser: b, context: bctx}, nil
}

// NewPage implements Driver.
func (d *PlaywrightDriver) NewPage(ctx context.Context) (Page, error) {
	p, err := d.context.NewPage()
	if err != nil {
		return nil, err
	}
	return &playwrightPage{page: p, driver: d}, nil
}

// Close tears down the context, browser, and runtime.
func (d *PlaywrightDriver) Close() error {
	if err := d.context.Close(); err != nil {
		return err
	}
	if err := d.browser.Close(); err != nil {
		return err
	}
	return d.pw.Stop()
}

func ms(timeout time.Duration) *float64 {
	return playwright.Float(float64(timeout.Milliseconds()))
}

// playwrightPage adapts a playwright.Page to the Page contract.
type playwrightPage struct {
	page   playwright.Page
	driver *PlaywrightDriver
}

func (p *playwrightPage) URL() string  { return p.page.URL() }
func (p *playwrightPage) Closed() bool { return p.page.IsClosed() }

func (p *playwrightPage) Navigate(ctx context.Context, url string) error {
	_, err := p.page.Goto(url)
	return err
}

func (p *playwrightPage) Fill(ctx context.Context, selector, value string) error {
	return p.page.Fill(selector, value)
}

func (p *playwrightPage) Click(ctx context.Context, selector string) error {
	return p.page.Click(selector)
}

func (p *playwrightPage) Press(ctx context.Context, selector, key string) error {
	return p.page.Press(selector, key)
}

func (p *playwrightPage) SelectOption(ctx context.Context, selector, value string) error {
	_, err := p.page.SelectOption(selector, playwright.SelectOptionValues{
		Values: playwright.StringSlice(value),
	})
	return err
}

func (p *playwrightPage) Evaluate(ctx context.Context, expression string) (any, error) {
	return p.page.Evaluate(expression)
}

func (p *playwrightPage) EvalOnSelector(ctx context.Context, selector, expression string) (any, error) {
	return p.page.EvalOnSelector(selector, expression, nil)
}

func (p *playwrightPage) WaitForSelector(ctx context.Context, selector, state string, timeout time.Duration) error {
	opts := playwright.PageWaitForSelectorOptions{Timeout: ms(timeout)}
	switch state {
	case SelectorStateAttached:
		opts.State = playwright.WaitForSelectorStateAttached
	default:
		opts.State = playwright.WaitForSelectorStateVisible
	}
	_, err := p.page.WaitForSelector(selector, opts)
	return err
}

func (p *playwrightPage) WaitForURL(ctx context.Context, pattern string, timeout time.Duration) error {
	return p.page.WaitForURL(pattern, playwright.PageWaitForURLOptions{Timeout: ms(timeout)})
}

func (p *playwrightPage) WaitForLoadState(ctx context.Context, state string, timeout time.Duration) error {
	return p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   loadState(state),
		Timeout: ms(timeout),
	})
}

func loadState(state string) *playwright.LoadState {
	switch state {
	case LoadStateNetworkIdle:
		return playwright.LoadStateNetworkidle
	case LoadStateDOMContentLoaded:
		return playwright.LoadStateDomcontentloaded
	default:
		return playwright.LoadStateLoad
	}
}

func (p *playwrightPage) SetInputFiles(ctx context.Context, selector, path string) error {
	return p.page.SetInputFiles(selector, path)
}

func (p *playwrightPage) ExpectFileChooser(ctx context.Context, timeout time.Duration, trigger func() error) (FileChooser, error) {
	fc, err := p.page.ExpectFileChooser(trigger, playwright.PageExpectFileChooserOptions{Timeout: ms(timeout)})
	if err != nil {
		return nil, err
	}
	return &playwrightChooser{chooser: fc}, nil
}

func (p *playwrightPage) Content(ctx context.Context) (string, error) {
	return p.page.Content()
}

func (p *playwrightPage) Frame(ctx context.Context, selector string) (Frame, error) {
	handle, err := p.page.QuerySelector(selector)
	if err != nil {
		return nil, err
	}
	if handle == nil {
		return nil, fmt.Errorf("no element for selector %s", selector)
	}
	frame, err := handle.ContentFrame()
	if err != nil {
		return nil, err
	}
	if frame == nil {
		return nil, fmt.Errorf("element %s has no content frame", selector)
	}
	return &playwrightFrame{frame: frame, owner: p}, nil
}

func (p *playwrightPage) Screenshot(ctx context.Context) ([]byte, error) {
	return p.page.Screenshot()
}

func (p *playwrightPage) MouseMove(ctx context.Context, x, y int) error {
	return p.page.Mouse().Move(float64(x), float64(y))
}

func (p *playwrightPage) ExpectPage(ctx context.Context, timeout time.Duration, trigger func() error) (Page, error) {
	newPage, err := p.driver.context.ExpectPage(trigger, playwright.BrowserContextExpectPageOptions{Timeout: ms(timeout)})
	if err != nil {
		return nil, err
	}
	return &playwrightPage{page: newPage, driver: p.driver}, nil
}

// playwrightFrame adapts a playwright.Frame. Waits and events that only
// exist on pages are delegated to the owning page.
type playwrightFrame struct {
	frame playwright.Frame
	owner *playwrightPage
}

func (f *playwrightFrame) Owner() Page { return f.owner }

func (f *playwrightFrame) Fill(ctx context.Context, selector, value string) error {
	return f.frame.Fill(selector, value)
}

func (f *playwrightFrame) Click(ctx context.Context, selector string) error {
	return f.frame.Click(selector)
}

func (f *playwrightFrame) Press(ctx context.Context, selector, key string) error {
	return f.frame.Press(selector, key)
}

func (f *playwrightFrame) SelectOption(ctx context.Context, selector, value string) error {
	_, err := f.frame.SelectOption(selector, playwright.SelectOptionValues{
		Values: playwright.StringSlice(value),
	})
	return err
}

func (f *playwrightFrame) Evaluate(ctx context.Context, expression string) (any, error) {
	return f.frame.Evaluate(expression)
}

func (f *playwrightFrame) EvalOnSelector(ctx context.Context, selector, expression string) (any, error) {
	return f.frame.EvalOnSelector(selector, expression, nil)
}

func (f *playwrightFrame) WaitForSelector(ctx context.Context, selector, state string, timeout time.Duration) error {
	opts := playwright.FrameWaitForSelectorOptions{Timeout: ms(timeout)}
	switch state {
	case SelectorStateAttached:
		opts.State = playwright.WaitForSelectorStateAttached
	default:
		opts.State = playwright.WaitForSelectorStateVisible
	}
	_, err := f.frame.WaitForSelector(selector, opts)
	return err
}

func (f *playwrightFrame) WaitForURL(ctx context.Context, pattern string, timeout time.Duration) error {
	return f.frame.WaitForURL(pattern, playwright.FrameWaitForURLOptions{Timeout: ms(timeout)})
}

func (f *playwrightFrame) WaitForLoadState(ctx context.Context, state string, timeout time.Duration) error {
	return f.frame.WaitForLoadState(playwright.FrameWaitForLoadStateOptions{
		State:   loadState(state),
		Timeout: ms(timeout),
	})
}

func (f *playwrightFrame) SetInputFiles(ctx context.Context, selector, path string) error {
	return f.frame.SetInputFiles(selector, path)
}

func (f *playwrightFrame) ExpectFileChooser(ctx context.Context, timeout time.Duration, trigger func() error) (FileChooser, error) {
	// File chooser events surface on the owning page.
	return f.owner.ExpectFileChooser(ctx, timeout, trigger)
}

func (f *playwrightFrame) Content(ctx context.Context) (string, error) {
	return f.frame.Content()
}

func (f *playwrightFrame) Frame(ctx context.Context, selector string) (Frame, error) {
	handle, err := f.frame.QuerySelector(selector)
	if err != nil {
		return nil, err
	}
	if handle == nil {
		return nil, fmt.Errorf("no element for selector %s", selector)
	}
	child, err := handle.ContentFrame()
	if err != nil {
		return nil, err
	}
	if child == nil {
		return nil, fmt.Errorf("element %s has no content frame", selector)
	}
	return &playwrightFrame{frame: child, owner: f.owner}, nil
}

// playwrightChooser adapts the file chooser dialog.
type playwrightChooser struct {
	chooser playwright.FileChooser
}

func (c *playwrightChooser) SetFiles(ctx context.Context, path string) error {
	return c.chooser.SetFiles(path)
}
