package browser_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/reimburse-stack/reclaim/internal/browser"
	"github.com/reimburse-stack/reclaim/internal/config"
	"github.com/reimburse-stack/reclaim/internal/errors"
	"github.com/reimburse-stack/reclaim/internal/logging"
	"github.com/reimburse-stack/reclaim/internal/testutil"
)

func newTracker(t *testing.T, driver *testutil.FakeDriver) (*browser.Tracker, string) {
	t.Helper()
	dir := t.TempDir()
	artifacts := browser.NewArtifacts(
		filepath.Join(dir, "screenshots"),
		filepath.Join(dir, "sources"),
	)
	tracker := browser.NewTracker(driver, config.Default().Timeouts, artifacts, logging.NewForTest())
	return tracker, dir
}

func TestTracker_EnsureTarget(t *testing.T) {
	driver := testutil.NewFakeDriver()
	tracker, _ := newTracker(t, driver)

	if err := tracker.EnsureTarget(context.Background()); err != nil {
		t.Fatalf("EnsureTarget failed: %v", err)
	}
	if tracker.Kind() != browser.TargetPage {
		t.Errorf("expected page target, got %s", tracker.Kind())
	}

	// Second call is a no-op.
	if err := tracker.EnsureTarget(context.Background()); err != nil {
		t.Fatalf("second EnsureTarget failed: %v", err)
	}
	if got := len(driver.Recorder.ByMethod("new_page")); got != 1 {
		t.Errorf("expected 1 new_page call, got %d", got)
	}
}

func TestTracker_Navigate(t *testing.T) {
	driver := testutil.NewFakeDriver()
	tracker, _ := newTracker(t, driver)

	if err := tracker.Navigate(context.Background(), "http://portal.example"); err != nil {
		t.Fatalf("Navigate failed: %v", err)
	}
	if driver.Page.URLValue != "http://portal.example" {
		t.Errorf("page did not navigate: %s", driver.Page.URLValue)
	}

	// Navigation waits for the network to settle.
	loads := driver.Recorder.ByMethod("wait_for_load_state")
	if len(loads) != 1 || loads[0].Value != browser.LoadStateNetworkIdle {
		t.Errorf("expected networkidle wait, got %v", loads)
	}
}

func TestTracker_SwitchToFrame(t *testing.T) {
	driver := testutil.NewFakeDriver()
	frame := driver.Page.AddFrame("#claims-frame")
	tracker, dir := newTracker(t, driver)

	if err := tracker.EnsureTarget(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := tracker.SwitchToFrame(context.Background(), "#claims-frame"); err != nil {
		t.Fatalf("SwitchToFrame failed: %v", err)
	}
	if tracker.Kind() != browser.TargetFrame {
		t.Fatalf("expected frame target, got %s", tracker.Kind())
	}

	// Interactions now land on the frame.
	if err := tracker.Fill(context.Background(), "#amount", "99"); err != nil {
		t.Fatal(err)
	}
	fills := driver.Recorder.ByMethod("fill")
	if len(fills) != 1 || fills[0].Target != frame.Name {
		t.Errorf("fill did not hit frame: %v", fills)
	}

	// Switching proactively persisted the frame's markup.
	entries, err := os.ReadDir(filepath.Join(dir, "sources"))
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected 1 source snapshot, got %v (%v)", entries, err)
	}
	if !strings.HasPrefix(entries[0].Name(), "source_after_iframe_switch") {
		t.Errorf("unexpected snapshot name: %s", entries[0].Name())
	}

	// Sentinel returns to the owning page.
	if err := tracker.SwitchToFrame(context.Background(), "__main_page__"); err != nil {
		t.Fatal(err)
	}
	if tracker.Kind() != browser.TargetPage {
		t.Errorf("expected page target after sentinel, got %s", tracker.Kind())
	}
}

func TestTracker_SwitchToFrame_Missing(t *testing.T) {
	driver := testutil.NewFakeDriver()
	tracker, _ := newTracker(t, driver)
	if err := tracker.EnsureTarget(context.Background()); err != nil {
		t.Fatal(err)
	}

	err := tracker.SwitchToFrame(context.Background(), "#no-such-frame")
	if err == nil {
		t.Fatal("expected error for missing frame")
	}
	if !errors.HasCode(err, errors.CodeFrameSwitch) {
		t.Errorf("expected %s, got %s", errors.CodeFrameSwitch, errors.Code(err))
	}
}

func TestTracker_ClickExpectNewWindow(t *testing.T) {
	driver := testutil.NewFakeDriver()
	popup := testutil.NewFakePage("popup", driver.Recorder)
	popup.URLValue = "http://portal.example/detail"
	driver.Page.NextPage = popup
	tracker, _ := newTracker(t, driver)
	if err := tracker.EnsureTarget(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := tracker.ClickExpectNewWindow(context.Background(), "open detail", "#detail-link"); err != nil {
		t.Fatalf("ClickExpectNewWindow failed: %v", err)
	}
	if tracker.Kind() != browser.TargetWindow {
		t.Errorf("expected window target, got %s", tracker.Kind())
	}
	if tracker.ActivePage().URL() != "http://portal.example/detail" {
		t.Errorf("active page is not the popup: %s", tracker.ActivePage().URL())
	}
}

func TestTracker_ClickExpectNewWindow_Timeout(t *testing.T) {
	driver := testutil.NewFakeDriver()
	// No NextPage configured: the page event never arrives.
	tracker, dir := newTracker(t, driver)
	if err := tracker.EnsureTarget(context.Background()); err != nil {
		t.Fatal(err)
	}

	err := tracker.ClickExpectNewWindow(context.Background(), "open detail", "#detail-link")
	if err == nil {
		t.Fatal("expected error when window never opens")
	}
	if !errors.HasCode(err, errors.CodeNewWindowFailed) {
		t.Errorf("expected %s, got %s", errors.CodeNewWindowFailed, errors.Code(err))
	}

	// The original context was captured before surfacing the error.
	entries, rerr := os.ReadDir(filepath.Join(dir, "screenshots"))
	if rerr != nil || len(entries) != 1 {
		t.Fatalf("expected exactly 1 screenshot, got %v (%v)", entries, rerr)
	}
	if !strings.HasPrefix(entries[0].Name(), "error_open_detail") {
		t.Errorf("unexpected screenshot name: %s", entries[0].Name())
	}
}

func TestTracker_ClickExpectNewWindow_PartialWindow(t *testing.T) {
	driver := testutil.NewFakeDriver()
	popup := testutil.NewFakePage("popup", driver.Recorder)
	popup.Errs["wait_for_load_state"] = fmt.Errorf("load never settled")
	driver.Page.NextPage = popup
	tracker, dir := newTracker(t, driver)
	if err := tracker.EnsureTarget(context.Background()); err != nil {
		t.Fatal(err)
	}

	err := tracker.ClickExpectNewWindow(context.Background(), "open detail", "#detail-link")
	if err == nil {
		t.Fatal("expected error when new window never settles")
	}

	// The partially created window was the screenshot subject.
	shots := driver.Recorder.ByMethod("screenshot")
	if len(shots) != 1 || shots[0].Target != "popup" {
		t.Errorf("expected screenshot of popup, got %v", shots)
	}
	entries, rerr := os.ReadDir(filepath.Join(dir, "screenshots"))
	if rerr != nil || len(entries) != 1 {
		t.Fatalf("expected 1 screenshot artifact, got %v (%v)", entries, rerr)
	}
	if !strings.Contains(entries[0].Name(), "NEW_WINDOW") {
		t.Errorf("unexpected screenshot name: %s", entries[0].Name())
	}
}

func TestTracker_Upload_NativeInput(t *testing.T) {
	driver := testutil.NewFakeDriver()
	driver.Page.FileInputSelectors["#upload"] = true
	tracker, _ := newTracker(t, driver)
	if err := tracker.EnsureTarget(context.Background()); err != nil {
		t.Fatal(err)
	}

	file := filepath.Join(t.TempDir(), "receipt.pdf")
	if err := os.WriteFile(file, []byte("pdf"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := tracker.Upload(context.Background(), "#upload", file); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	sets := driver.Recorder.ByMethod("set_input_files")
	if len(sets) != 1 {
		t.Fatalf("expected direct file set, got %v", driver.Recorder.Calls)
	}
	if len(driver.Recorder.ByMethod("expect_file_chooser")) != 0 {
		t.Error("native input should not open a chooser")
	}
}

func TestTracker_Upload_Chooser(t *testing.T) {
	driver := testutil.NewFakeDriver()
	// "#attach" is not a native file input.
	tracker, _ := newTracker(t, driver)
	if err := tracker.EnsureTarget(context.Background()); err != nil {
		t.Fatal(err)
	}

	file := filepath.Join(t.TempDir(), "receipt.png")
	if err := os.WriteFile(file, []byte("png"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := tracker.Upload(context.Background(), "#attach", file); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if len(driver.Recorder.ByMethod("click")) != 1 {
		t.Error("chooser path should click the trigger element")
	}
	chosen := driver.Recorder.ByMethod("chooser_set_files")
	if len(chosen) != 1 || !strings.HasSuffix(chosen[0].Value, "receipt.png") {
		t.Errorf("chooser did not receive the file: %v", chosen)
	}
}

func TestTracker_Upload_MissingFile(t *testing.T) {
	driver := testutil.NewFakeDriver()
	tracker, _ := newTracker(t, driver)
	if err := tracker.EnsureTarget(context.Background()); err != nil {
		t.Fatal(err)
	}

	err := tracker.Upload(context.Background(), "#upload", "/nowhere/receipt.pdf")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.HasCode(err, errors.CodeFileNotFound) {
		t.Errorf("expected %s, got %s", errors.CodeFileNotFound, errors.Code(err))
	}
	// Precondition fails before any browser interaction.
	if len(driver.Recorder.ByMethod("eval_on_selector")) != 0 {
		t.Error("missing file must fail before probing the selector")
	}
}

func TestTracker_Snapshots(t *testing.T) {
	driver := testutil.NewFakeDriver()
	driver.Page.ContentValue = "<html>claims</html>"
	tracker, dir := newTracker(t, driver)
	if err := tracker.EnsureTarget(context.Background()); err != nil {
		t.Fatal(err)
	}

	content, err := tracker.SnapshotSource(context.Background(), "page.html")
	if err != nil {
		t.Fatalf("SnapshotSource failed: %v", err)
	}
	if content != "<html>claims</html>" {
		t.Errorf("unexpected content: %s", content)
	}

	path, err := tracker.SnapshotScreenshot(context.Background(), "page.png")
	if err != nil {
		t.Fatalf("SnapshotScreenshot failed: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(path), "page_") {
		t.Errorf("expected timestamped name, got %s", filepath.Base(path))
	}

	sources, _ := os.ReadDir(filepath.Join(dir, "sources"))
	if len(sources) != 1 {
		t.Errorf("expected 1 source file, got %d", len(sources))
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"open detail", "open_detail"},
		{"fill #amount!", "fill__amount_"},
		{"plain_name", "plain_name"},
	}
	for _, tt := range tests {
		if got := browser.Sanitize(tt.input); got != tt.expected {
			t.Errorf("Sanitize(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}
