package browser

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/reimburse-stack/reclaim/internal/config"
	"github.com/reimburse-stack/reclaim/internal/errors"
)

// TargetKind discriminates the active interaction surface.
type TargetKind string

const (
	TargetPage   TargetKind = "page"
	TargetFrame  TargetKind = "frame"
	TargetWindow TargetKind = "window"
)

// isFileInputProbe asks whether a selector resolves to a native file input.
const isFileInputProbe = "el => el.tagName === 'INPUT' && el.type === 'file'"

// Tracker owns the handle to the current interaction target. Exactly one
// target is active at any time: a top-level page, an embedded frame, or a
// freshly opened window.
type Tracker struct {
	driver    Driver
	timeouts  config.TimeoutsConfig
	artifacts *Artifacts
	logger    *slog.Logger

	kind  TargetKind
	page  Page  // active page, or the frame's owner while kind == TargetFrame
	frame Frame // set only while kind == TargetFrame
}

// NewTracker creates a tracker with no active target.
func NewTracker(driver Driver, timeouts config.TimeoutsConfig, artifacts *Artifacts, logger *slog.Logger) *Tracker {
	return &Tracker{
		driver:    driver,
		timeouts:  timeouts,
		artifacts: artifacts,
		logger:    logger,
	}
}

// EnsureTarget opens a blank page if no target is active yet.
func (t *Tracker) EnsureTarget(ctx context.Context) error {
	if t.page != nil {
		return nil
	}
	page, err := t.driver.NewPage(ctx)
	if err != nil {
		return errors.Wrap(errors.CodeStepFailed, "failed to open blank page", err)
	}
	t.setPage(page, TargetPage)
	return nil
}

// Kind returns the kind of the active target.
func (t *Tracker) Kind() TargetKind {
	return t.kind
}

// active returns the current interaction target.
func (t *Tracker) active() Target {
	if t.kind == TargetFrame {
		return t.frame
	}
	return t.page
}

// ActivePage returns the page owning the active target. For a frame target
// this is the frame's owner, so screenshots always capture a full page.
func (t *Tracker) ActivePage() Page {
	if t.kind == TargetFrame && t.frame != nil {
		return t.frame.Owner()
	}
	return t.page
}

func (t *Tracker) setPage(page Page, kind TargetKind) {
	t.page = page
	t.frame = nil
	t.kind = kind
}

// Navigate opens a URL on the active page and waits for the network to
// settle. Navigation always exits any frame context.
func (t *Tracker) Navigate(ctx context.Context, url string) error {
	if err := t.EnsureTarget(ctx); err != nil {
		return err
	}
	page := t.ActivePage()
	if err := page.Navigate(ctx, url); err != nil {
		return errors.Wrapf(errors.CodeStepFailed, err, "navigation to %s failed", url)
	}
	t.setPage(page, TargetPage)
	if err := page.WaitForLoadState(ctx, LoadStateNetworkIdle, t.timeouts.Load); err != nil {
		return errors.WaitTimeout("load state "+LoadStateNetworkIdle, t.timeouts.Load.String()).WithCause(err)
	}
	return nil
}

// Fill fills a form field on the active target.
func (t *Tracker) Fill(ctx context.Context, selector, value string) error {
	return t.active().Fill(ctx, selector, value)
}

// Click clicks an element on the active target.
func (t *Tracker) Click(ctx context.Context, selector string) error {
	return t.active().Click(ctx, selector)
}

// Press sends a key press to an element on the active target.
func (t *Tracker) Press(ctx context.Context, selector, key string) error {
	return t.active().Press(ctx, selector, key)
}

// SelectOption selects a dropdown option on the active target.
func (t *Tracker) SelectOption(ctx context.Context, selector, value string) error {
	return t.active().SelectOption(ctx, selector, value)
}

// Evaluate runs a script expression in the active target.
func (t *Tracker) Evaluate(ctx context.Context, expression string) (any, error) {
	return t.active().Evaluate(ctx, expression)
}

// MouseMove moves the pointer on the page owning the active target.
func (t *Tracker) MouseMove(ctx context.Context, x, y int) error {
	return t.ActivePage().MouseMove(ctx, x, y)
}

// WaitForSelector waits for a selector on the active target. A zero timeout
// uses the configured default; an empty state waits for visibility.
func (t *Tracker) WaitForSelector(ctx context.Context, selector, state string, timeout int) error {
	d := t.timeouts.Wait
	if timeout > 0 {
		d = millis(timeout)
	}
	if state == "" {
		state = SelectorStateVisible
	}
	if err := t.active().WaitForSelector(ctx, selector, state, d); err != nil {
		return errors.WaitTimeout("selector "+selector, d.String()).WithCause(err)
	}
	return nil
}

// WaitForURL waits for the active target's URL to match a pattern.
func (t *Tracker) WaitForURL(ctx context.Context, pattern string, timeout int) error {
	d := t.timeouts.Wait
	if timeout > 0 {
		d = millis(timeout)
	}
	if err := t.active().WaitForURL(ctx, pattern, d); err != nil {
		return errors.WaitTimeout("url "+pattern, d.String()).WithCause(err)
	}
	return nil
}

// WaitForLoadState waits for the active target to reach a load state.
// An empty state waits for domcontentloaded.
func (t *Tracker) WaitForLoadState(ctx context.Context, state string, timeout int) error {
	d := t.timeouts.Wait
	if timeout > 0 {
		d = millis(timeout)
	}
	if state == "" {
		state = LoadStateDOMContentLoaded
	}
	if err := t.active().WaitForLoadState(ctx, state, d); err != nil {
		return errors.WaitTimeout("load state "+state, d.String()).WithCause(err)
	}
	return nil
}

// SwitchToFrame re-points the active target at an embedded frame, or back to
// the owning page when given the main-page sentinel. Switching into a frame
// proactively persists the frame's markup for forensics.
func (t *Tracker) SwitchToFrame(ctx context.Context, selector string) error {
	if selector == "__main_page__" {
		if t.kind == TargetFrame {
			t.setPage(t.frame.Owner(), TargetPage)
		}
		t.logger.Info("switched context back to the page level")
		return nil
	}

	if err := t.active().WaitForSelector(ctx, selector, SelectorStateAttached, t.timeouts.Wait); err != nil {
		return errors.FrameSwitch(selector, err)
	}

	frame, err := t.active().Frame(ctx, selector)
	if err != nil {
		return errors.FrameSwitch(selector, err)
	}
	if err := frame.WaitForLoadState(ctx, LoadStateLoad, t.timeouts.Wait); err != nil {
		return errors.FrameSwitch(selector, err)
	}

	t.page = frame.Owner()
	t.frame = frame
	t.kind = TargetFrame
	t.logger.Info("switched context to iframe", "selector", selector)

	t.saveSourceSnapshot(ctx, "iframe_switch_"+selector)
	return nil
}

// ClickExpectNewWindow clicks an element that opens a new window and
// re-points the active target at the new window once its load state settles.
// On timeout or post-switch failure, a screenshot of whichever target is
// available (new if partially created, otherwise original) is captured before
// the error surfaces.
func (t *Tracker) ClickExpectNewWindow(ctx context.Context, stepName, selector string) error {
	owner := t.ActivePage()

	newPage, err := owner.ExpectPage(ctx, t.timeouts.NewWindow, func() error {
		return t.active().Click(ctx, selector)
	})
	if err == nil {
		err = newPage.WaitForLoadState(ctx, LoadStateLoad, t.timeouts.Load)
	}

	if err != nil {
		t.logger.Error("error while opening or waiting for the new window", "error", err)
		if newPage != nil && !newPage.Closed() {
			t.capturePage(ctx, newPage, "NEW_WINDOW_"+stepName)
		} else {
			t.logger.Warn("new window was not created before the error, capturing original context")
			t.CaptureErrorScreenshot(ctx, stepName)
		}
		return errors.NewWindowFailed(selector, err)
	}

	t.setPage(newPage, TargetWindow)
	t.logger.Info("switched context to new window", "url", newPage.URL())
	t.saveSourceSnapshot(ctx, "new_window_from_click_on_"+truncate(selector, 30))
	return nil
}

// JSClick clicks an element via script evaluation instead of the pointer.
func (t *Tracker) JSClick(ctx context.Context, selector string) error {
	_, err := t.active().Evaluate(ctx, "document.querySelector('"+selector+"').click();")
	return err
}

// Upload assigns a local file to an upload control. A missing local file is
// a fatal precondition checked before any browser interaction. Native file
// inputs receive the file list directly; anything else opens a file-chooser
// dialog with a bounded wait.
func (t *Tracker) Upload(ctx context.Context, selector, filePath string) error {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return errors.UploadFailed(selector, err)
	}
	if _, err := os.Stat(absPath); err != nil {
		return errors.FileNotFound(absPath)
	}

	target := t.active()

	isInput, err := target.EvalOnSelector(ctx, selector, isFileInputProbe)
	if err != nil {
		return errors.UploadFailed(selector, err)
	}

	if b, ok := isInput.(bool); ok && b {
		t.logger.Info("selector is a file input, setting files directly", "selector", selector)
		if err := target.SetInputFiles(ctx, selector, absPath); err != nil {
			return errors.UploadFailed(selector, err)
		}
		return nil
	}

	t.logger.Info("expecting a file chooser after click", "selector", selector)
	chooser, err := target.ExpectFileChooser(ctx, t.timeouts.Dialog, func() error {
		return target.Click(ctx, selector)
	})
	if err != nil {
		return errors.UploadFailed(selector, err)
	}
	if err := chooser.SetFiles(ctx, absPath); err != nil {
		return errors.UploadFailed(selector, err)
	}
	return nil
}

// SnapshotSource saves the active target's markup under the requested output
// file name and returns the markup.
func (t *Tracker) SnapshotSource(ctx context.Context, outputFile string) (string, error) {
	content, err := t.active().Content(ctx)
	if err != nil {
		return "", err
	}
	path, err := t.artifacts.WriteSource(outputFile, content)
	if err != nil {
		return "", err
	}
	t.logger.Info("saved source code", "path", path)
	return content, nil
}

// SnapshotScreenshot captures the owning page under the requested output
// file name and returns the written path.
func (t *Tracker) SnapshotScreenshot(ctx context.Context, outputFile string) (string, error) {
	page := t.ActivePage()
	if page == nil || page.Closed() {
		return "", errors.New(errors.CodeStepFailed, "cannot take screenshot, target page is invalid or closed")
	}
	data, err := page.Screenshot(ctx)
	if err != nil {
		return "", err
	}
	path, err := t.artifacts.WriteScreenshot(outputFile, data)
	if err != nil {
		return "", err
	}
	t.logger.Info("saved screenshot", "path", path)
	return path, nil
}

// CaptureErrorScreenshot best-effort captures the active page keyed by step
// name. Failures are logged, never propagated.
func (t *Tracker) CaptureErrorScreenshot(ctx context.Context, stepName string) {
	page := t.ActivePage()
	if page == nil || page.Closed() {
		t.logger.Warn("could not take screenshot, target page is invalid or closed")
		return
	}
	t.capturePage(ctx, page, stepName)
}

func (t *Tracker) capturePage(ctx context.Context, page Page, name string) {
	data, err := page.Screenshot(ctx)
	if err != nil {
		t.logger.Error("failed to take screenshot", "error", err)
		return
	}
	path, err := t.artifacts.WriteErrorScreenshot(name, data)
	if err != nil {
		t.logger.Error("failed to write screenshot", "error", err)
		return
	}
	t.logger.Info("saved error screenshot", "path", path)
}

// saveSourceSnapshot best-effort persists the active target's markup after a
// context switch. Failures are logged, never propagated.
func (t *Tracker) saveSourceSnapshot(ctx context.Context, eventName string) {
	content, err := t.active().Content(ctx)
	if err != nil {
		t.logger.Warn("could not save source snapshot", "event", eventName, "error", err)
		return
	}
	path, err := t.artifacts.WriteSourceSnapshot(eventName, content)
	if err != nil {
		t.logger.Warn("could not write source snapshot", "event", eventName, "error", err)
		return
	}
	t.logger.Info("proactively saved source code", "path", path)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
