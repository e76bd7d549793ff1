// Package browser tracks the current browser interaction target and exposes
// the navigation, interaction, and diagnostic primitives bound to it.
//
// The raw driver primitives (navigate, fill, click, screenshot) are an
// external capability supplied through the Driver, Page, and Frame contracts;
// this package owns context switching across pages, frames, and freshly
// opened windows, plus the forensic artifacts captured around switches.
package browser

import (
	"context"
	"time"
)

// Load states for WaitForLoadState.
const (
	LoadStateLoad             = "load"
	LoadStateDOMContentLoaded = "domcontentloaded"
	LoadStateNetworkIdle      = "networkidle"
)

// Selector wait states for WaitForSelector.
const (
	SelectorStateVisible  = "visible"
	SelectorStateAttached = "attached"
)

// Target is the set of interaction primitives common to pages and frames.
// Implementations enforce the supplied timeout; a zero timeout means the
// implementation's own default.
type Target interface {
	Fill(ctx context.Context, selector, value string) error
	Click(ctx context.Context, selector string) error
	Press(ctx context.Context, selector, key string) error
	SelectOption(ctx context.Context, selector, value string) error
	Evaluate(ctx context.Context, expression string) (any, error)
	EvalOnSelector(ctx context.Context, selector, expression string) (any, error)
	WaitForSelector(ctx context.Context, selector, state string, timeout time.Duration) error
	WaitForURL(ctx context.Context, pattern string, timeout time.Duration) error
	WaitForLoadState(ctx context.Context, state string, timeout time.Duration) error
	SetInputFiles(ctx context.Context, selector, path string) error
	ExpectFileChooser(ctx context.Context, timeout time.Duration, trigger func() error) (FileChooser, error)
	Content(ctx context.Context) (string, error)

	// Frame resolves a child frame by its frame-element selector. The
	// element must already be attached.
	Frame(ctx context.Context, selector string) (Frame, error)
}

// Page is a top-level browser page (including newly opened windows).
type Page interface {
	Target

	URL() string
	Navigate(ctx context.Context, url string) error
	Screenshot(ctx context.Context) ([]byte, error)
	MouseMove(ctx context.Context, x, y int) error
	Closed() bool

	// ExpectPage subscribes to the "new page opened" event, runs trigger,
	// and returns the new page once the event arrives or the timeout lapses.
	ExpectPage(ctx context.Context, timeout time.Duration, trigger func() error) (Page, error)
}

// Frame is an embedded frame carrying a reference to its owning page, so
// "exit to page" transitions need no attribute probing.
type Frame interface {
	Target

	Owner() Page
}

// FileChooser is an open file-selection dialog.
type FileChooser interface {
	SetFiles(ctx context.Context, path string) error
}

// Driver is the external browser capability. One driver session serves one
// work item; items share nothing.
type Driver interface {
	// NewPage opens a blank top-level page.
	NewPage(ctx context.Context) (Page, error)
}
