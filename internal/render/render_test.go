package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/reimburse-stack/reclaim/internal/errors"
)

func TestPageImageReadsImageFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "receipt.png")
	content := []byte("fake-png-bytes")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewFileRenderer()
	data, err := r.PageImage(path)
	if err != nil {
		t.Fatalf("PageImage: %v", err)
	}
	if string(data) != string(content) {
		t.Errorf("data = %q, want %q", data, content)
	}
}

func TestPageImageMissingImage(t *testing.T) {
	r := NewFileRenderer()
	_, err := r.PageImage(filepath.Join(t.TempDir(), "gone.jpg"))
	if !errors.HasCode(err, errors.CodeSourceUnreadable) {
		t.Errorf("code = %v, want %s", errors.Code(err), errors.CodeSourceUnreadable)
	}
}

func TestPageImageUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewFileRenderer()
	_, err := r.PageImage(path)
	if !errors.HasCode(err, errors.CodeSourceUnreadable) {
		t.Errorf("code = %v, want %s", errors.Code(err), errors.CodeSourceUnreadable)
	}
}

func TestPageImageBadPDF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.pdf")
	if err := os.WriteFile(path, []byte("not a pdf"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewFileRenderer()
	_, err := r.PageImage(path)
	if !errors.HasCode(err, errors.CodeSourceUnreadable) {
		t.Errorf("code = %v, want %s", errors.Code(err), errors.CodeSourceUnreadable)
	}
}
