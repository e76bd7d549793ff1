// Package render turns source documents into page images suitable for OCR
// and multimodal inspection. PDFs contribute only their first page; scanned
// receipts carry the page as an embedded image, which is extracted directly.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/reimburse-stack/reclaim/internal/errors"
)

// imageExtensions lists the source formats passed through untouched.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".tiff": true,
	".webp": true,
}

// Renderer produces the page image for a source document.
type Renderer interface {
	PageImage(path string) ([]byte, error)
}

// FileRenderer reads image files directly and extracts the first-page image
// from PDFs via pdfcpu.
type FileRenderer struct{}

// NewFileRenderer creates a renderer.
func NewFileRenderer() *FileRenderer {
	return &FileRenderer{}
}

// PageImage returns the rendered first page of the document at path.
func (r *FileRenderer) PageImage(path string) ([]byte, error) {
	ext := strings.ToLower(filepath.Ext(path))

	if imageExtensions[ext] {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.SourceUnreadable(path, err)
		}
		return data, nil
	}

	if ext == ".pdf" {
		return r.firstPageImage(path)
	}

	return nil, errors.SourceUnreadable(path, fmt.Errorf("unsupported file type %s", ext))
}

// firstPageImage extracts the embedded image from page one of a PDF.
func (r *FileRenderer) firstPageImage(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.SourceUnreadable(path, err)
	}
	count, err := api.PageCount(f, nil)
	f.Close()
	if err != nil {
		return nil, errors.SourceUnreadable(path, err)
	}
	if count == 0 {
		return nil, errors.SourceUnreadable(path, fmt.Errorf("PDF has no pages"))
	}

	outDir, err := os.MkdirTemp("", "reclaim-render-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(outDir)

	if err := api.ExtractImagesFile(path, outDir, []string{"1"}, nil); err != nil {
		return nil, errors.SourceUnreadable(path, err)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, errors.SourceUnreadable(path, fmt.Errorf("no image on first page"))
	}

	data, err := os.ReadFile(filepath.Join(outDir, entries[0].Name()))
	if err != nil {
		return nil, errors.SourceUnreadable(path, err)
	}
	return data, nil
}
