package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Artifacts writes diagnostic screenshots and page-source snapshots.
// Directories are created on first write.
type Artifacts struct {
	ScreenshotDir string
	SourceDir     string

	// now is swappable for tests.
	now func() time.Time
}

// NewArtifacts creates an artifact writer rooted at the given directories.
func NewArtifacts(screenshotDir, sourceDir string) *Artifacts {
	return &Artifacts{
		ScreenshotDir: screenshotDir,
		SourceDir:     sourceDir,
		now:           time.Now,
	}
}

// Sanitize replaces every character that is not alphanumeric or underscore
// with an underscore, keeping artifact names filesystem-safe.
func Sanitize(name string) string {
	var b strings.Builder
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
			b.WriteRune(c)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// WriteErrorScreenshot saves a diagnostic screenshot keyed by step name,
// as error_<step>_<timestamp>.png.
func (a *Artifacts) WriteErrorScreenshot(stepName string, data []byte) (string, error) {
	filename := fmt.Sprintf("error_%s_%d.png", Sanitize(stepName), a.now().Unix())
	return a.write(a.ScreenshotDir, filename, data)
}

// WriteScreenshot saves an explicitly requested screenshot, inserting a
// timestamp before the extension of the requested file name.
func (a *Artifacts) WriteScreenshot(outputFile string, data []byte) (string, error) {
	return a.write(a.ScreenshotDir, a.timestamped(outputFile), data)
}

// WriteSourceSnapshot proactively saves page markup after a context switch,
// as source_after_<event>_<timestamp>.html.
func (a *Artifacts) WriteSourceSnapshot(eventName, content string) (string, error) {
	filename := fmt.Sprintf("source_after_%s_%d.html", Sanitize(eventName), a.now().Unix())
	return a.write(a.SourceDir, filename, []byte(content))
}

// WriteSource saves explicitly requested page markup, inserting a timestamp
// before the extension of the requested file name.
func (a *Artifacts) WriteSource(outputFile, content string) (string, error) {
	return a.write(a.SourceDir, a.timestamped(outputFile), []byte(content))
}

func (a *Artifacts) timestamped(outputFile string) string {
	base := filepath.Base(outputFile)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return fmt.Sprintf("%s_%d%s", stem, a.now().Unix(), ext)
}

func (a *Artifacts) write(dir, filename string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}
