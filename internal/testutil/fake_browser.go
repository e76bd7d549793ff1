// Package testutil provides fakes and fixtures shared across tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/reimburse-stack/reclaim/internal/browser"
)

// Call records one primitive invocation on a fake target.
type Call struct {
	Target   string // page name or frame selector
	Method   string
	Selector string
	Value    string
}

// Recorder collects calls across every target of one fake driver session.
type Recorder struct {
	mu    sync.Mutex
	Calls []Call
}

// Record appends a call.
func (r *Recorder) Record(c Call) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, c)
}

// ByMethod returns all recorded calls with the given method.
func (r *Recorder) ByMethod(method string) []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Call
	for _, c := range r.Calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// FakeDriver implements browser.Driver over scripted fake pages.
type FakeDriver struct {
	Recorder   *Recorder
	Page       *FakePage
	NewPageErr error
}

// NewFakeDriver creates a driver with one blank page.
func NewFakeDriver() *FakeDriver {
	rec := &Recorder{}
	return &FakeDriver{
		Recorder: rec,
		Page:     NewFakePage("main", rec),
	}
}

// NewPage implements browser.Driver.
func (d *FakeDriver) NewPage(ctx context.Context) (browser.Page, error) {
	if d.NewPageErr != nil {
		return nil, d.NewPageErr
	}
	d.Recorder.Record(Call{Target: d.Page.Name, Method: "new_page"})
	return d.Page, nil
}

// FakePage is a scripted browser.Page.
type FakePage struct {
	Name     string
	Recorder *Recorder

	URLValue   string
	ClosedFlag bool

	// Error hooks, keyed by method name ("fill", "click", "wait_for_selector", ...).
	Errs map[string]error

	// EvalResults maps expressions to canned Evaluate results.
	EvalResults map[string]any
	// FileInputSelectors marks selectors that probe as native file inputs.
	FileInputSelectors map[string]bool

	Frames         map[string]*FakeFrame
	NextPage       *FakePage // returned by ExpectPage
	Chooser        *FakeChooser
	ContentValue   string
	ScreenshotData []byte
}

// NewFakePage creates a page with the given name.
func NewFakePage(name string, rec *Recorder) *FakePage {
	return &FakePage{
		Name:               name,
		Recorder:           rec,
		URLValue:           "about:blank",
		Errs:               map[string]error{},
		EvalResults:        map[string]any{},
		FileInputSelectors: map[string]bool{},
		Frames:             map[string]*FakeFrame{},
		ContentValue:       "<html><body>" + name + "</body></html>",
		ScreenshotData:     []byte("png:" + name),
	}
}

func (p *FakePage) record(method, selector, value string) error {
	p.Recorder.Record(Call{Target: p.Name, Method: method, Selector: selector, Value: value})
	return p.Errs[method]
}

func (p *FakePage) URL() string  { return p.URLValue }
func (p *FakePage) Closed() bool { return p.ClosedFlag }

func (p *FakePage) Navigate(ctx context.Context, url string) error {
	p.URLValue = url
	return p.record("navigate", "", url)
}

func (p *FakePage) Fill(ctx context.Context, selector, value string) error {
	return p.record("fill", selector, value)
}

func (p *FakePage) Click(ctx context.Context, selector string) error {
	return p.record("click", selector, "")
}

func (p *FakePage) Press(ctx context.Context, selector, key string) error {
	return p.record("press", selector, key)
}

func (p *FakePage) SelectOption(ctx context.Context, selector, value string) error {
	return p.record("select_option", selector, value)
}

func (p *FakePage) Evaluate(ctx context.Context, expression string) (any, error) {
	if err := p.record("evaluate", "", expression); err != nil {
		return nil, err
	}
	return p.EvalResults[expression], nil
}

func (p *FakePage) EvalOnSelector(ctx context.Context, selector, expression string) (any, error) {
	if err := p.record("eval_on_selector", selector, expression); err != nil {
		return nil, err
	}
	return p.FileInputSelectors[selector], nil
}

func (p *FakePage) WaitForSelector(ctx context.Context, selector, state string, timeout time.Duration) error {
	return p.record("wait_for_selector", selector, state)
}

func (p *FakePage) WaitForURL(ctx context.Context, pattern string, timeout time.Duration) error {
	return p.record("wait_for_url", "", pattern)
}

func (p *FakePage) WaitForLoadState(ctx context.Context, state string, timeout time.Duration) error {
	return p.record("wait_for_load_state", "", state)
}

func (p *FakePage) SetInputFiles(ctx context.Context, selector, path string) error {
	return p.record("set_input_files", selector, path)
}

func (p *FakePage) ExpectFileChooser(ctx context.Context, timeout time.Duration, trigger func() error) (browser.FileChooser, error) {
	if err := trigger(); err != nil {
		return nil, err
	}
	if err := p.record("expect_file_chooser", "", ""); err != nil {
		return nil, err
	}
	if p.Chooser == nil {
		p.Chooser = &FakeChooser{Recorder: p.Recorder, Target: p.Name}
	}
	return p.Chooser, nil
}

func (p *FakePage) Content(ctx context.Context) (string, error) {
	if err := p.record("content", "", ""); err != nil {
		return "", err
	}
	return p.ContentValue, nil
}

func (p *FakePage) Frame(ctx context.Context, selector string) (browser.Frame, error) {
	if err := p.record("frame", selector, ""); err != nil {
		return nil, err
	}
	f, ok := p.Frames[selector]
	if !ok {
		return nil, fmt.Errorf("no frame for selector %s", selector)
	}
	return f, nil
}

func (p *FakePage) Screenshot(ctx context.Context) ([]byte, error) {
	if err := p.record("screenshot", "", ""); err != nil {
		return nil, err
	}
	return p.ScreenshotData, nil
}

func (p *FakePage) MouseMove(ctx context.Context, x, y int) error {
	return p.record("mouse_move", "", fmt.Sprintf("%d,%d", x, y))
}

func (p *FakePage) ExpectPage(ctx context.Context, timeout time.Duration, trigger func() error) (browser.Page, error) {
	if err := trigger(); err != nil {
		return nil, err
	}
	if err := p.record("expect_page", "", ""); err != nil {
		return nil, err
	}
	if p.NextPage == nil {
		return nil, fmt.Errorf("no page event within %s", timeout)
	}
	return p.NextPage, nil
}

// AddFrame registers a child frame reachable by selector.
func (p *FakePage) AddFrame(selector string) *FakeFrame {
	f := &FakeFrame{
		FakePage: NewFakePage("frame:"+selector, p.Recorder),
		owner:    p,
	}
	p.Frames[selector] = f
	return f
}

// FakeFrame is a scripted browser.Frame embedding page behavior.
type FakeFrame struct {
	*FakePage
	owner *FakePage
}

// Owner implements browser.Frame.
func (f *FakeFrame) Owner() browser.Page { return f.owner }

// FakeChooser is a scripted file-chooser dialog.
type FakeChooser struct {
	Recorder *Recorder
	Target   string
	Files    []string
	Err      error
}

// SetFiles implements browser.FileChooser.
func (c *FakeChooser) SetFiles(ctx context.Context, path string) error {
	c.Recorder.Record(Call{Target: c.Target, Method: "chooser_set_files", Value: path})
	if c.Err != nil {
		return c.Err
	}
	c.Files = append(c.Files, path)
	return nil
}
