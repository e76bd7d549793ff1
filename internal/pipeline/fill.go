package pipeline

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/reimburse-stack/reclaim/internal/errors"
)

// Filler writes mapping instructions into a copy of the claim template.
type Filler struct {
	outDir    string
	sheetName string
	logger    *slog.Logger
}

// NewFiller creates a filler writing copies into outDir.
func NewFiller(outDir, sheetName string, logger *slog.Logger) *Filler {
	return &Filler{outDir: outDir, sheetName: sheetName, logger: logger}
}

// Fill copies templatePath to a fresh randomly suffixed file and writes each
// instruction's cells into the copy. The original template is never touched.
// Individual cell failures are logged and skipped; a missing template is
// fatal before any copy occurs.
func (f *Filler) Fill(templatePath string, instructions []MappingInstruction) (string, error) {
	if _, err := os.Stat(templatePath); err != nil {
		return "", errors.FileNotFound(templatePath)
	}

	outPath, err := f.copyTemplate(templatePath)
	if err != nil {
		return "", err
	}

	book, err := excelize.OpenFile(outPath)
	if err != nil {
		return "", fmt.Errorf("open spreadsheet copy: %w", err)
	}
	defer book.Close()

	for _, inst := range instructions {
		for _, cell := range inst.Cells {
			ref := fmt.Sprintf("%s%d", cell.Column, inst.TargetRow)
			if err := book.SetCellValue(f.sheetName, ref, cell.Value); err != nil {
				f.logger.Warn("skipping unwritable cell", "cell", ref, "error", err)
			}
		}
	}

	if err := book.Save(); err != nil {
		return "", fmt.Errorf("save spreadsheet: %w", err)
	}
	f.logger.Info("filled spreadsheet written", "path", outPath, "rows", len(instructions))
	return outPath, nil
}

func (f *Filler) copyTemplate(templatePath string) (string, error) {
	if err := os.MkdirAll(f.outDir, 0o755); err != nil {
		return "", err
	}

	base := filepath.Base(templatePath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	outPath := filepath.Join(f.outDir, fmt.Sprintf("%s_%s%s", stem, uuid.NewString()[:8], ext))

	src, err := os.Open(templatePath)
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", err
	}
	if err := dst.Close(); err != nil {
		return "", err
	}
	return outPath, nil
}
