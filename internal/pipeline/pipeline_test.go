package pipeline

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/reimburse-stack/reclaim/internal/errors"
	"github.com/reimburse-stack/reclaim/internal/logging"
)

type stubOCR struct {
	id   string
	text string
	err  error
}

func (s *stubOCR) ID() string { return s.id }

func (s *stubOCR) Recognize(ctx context.Context, image []byte) (string, error) {
	return s.text, s.err
}

type stubVision struct {
	response string
	err      error
	prompts  []string
}

func (s *stubVision) Infer(ctx context.Context, prompt string, image []byte) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.response, s.err
}

type stubRenderer struct {
	image []byte
	err   error
}

func (s *stubRenderer) PageImage(path string) ([]byte, error) {
	return s.image, s.err
}

func TestClassify(t *testing.T) {
	tests := []struct {
		path string
		want DocumentType
	}{
		{"flight_ticket_zhangsan.pdf", DocFlightTicket},
		{"air_booking.png", DocFlightTicket},
		{"train_G1234.jpg", DocTrainTicket},
		{"trip_itinerary.pdf", DocItinerary},
		{"hotel_invoice_003.pdf", DocInvoice},
		{"taxi_receipt.png", DocInvoice},
		{"reimbursement_template.xlsx", DocSpreadsheetTemplate},
		{"IMG_2041.jpg", DocUnknown},
	}
	c := NewFilenameClassifier()
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := c.Classify(tt.path); got != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", tt.path, got, tt.want)
			}
		})
	}
}

func newExtractor(primary, secondary *stubOCR, vision *stubVision, renderer *stubRenderer) *Extractor {
	return NewExtractor(primary, secondary, vision, renderer, logging.NewForTest())
}

func TestExtractBothOCREmptyFails(t *testing.T) {
	e := newExtractor(
		&stubOCR{id: "a"},
		&stubOCR{id: "b", err: fmt.Errorf("engine down")},
		&stubVision{response: "{}"},
		&stubRenderer{image: []byte("img")},
	)
	_, err := e.Extract(context.Background(), "hotel_invoice.png", DocInvoice)
	if !errors.HasCode(err, errors.CodeOCRAllEmpty) {
		t.Errorf("code = %v, want %s", errors.Code(err), errors.CodeOCRAllEmpty)
	}
}

func TestExtractSingleEngineSufficient(t *testing.T) {
	vision := &stubVision{response: `{"invoice_number": "INV-7", "amount": 337.60, "date": "2025-01-03"}`}
	e := newExtractor(
		&stubOCR{id: "a", text: "invoice INV-7 total 337.60"},
		&stubOCR{id: "b", err: fmt.Errorf("engine down")},
		vision,
		&stubRenderer{image: []byte("img")},
	)
	rec, err := e.Extract(context.Background(), "hotel_invoice.png", DocInvoice)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if rec.Fields["invoice_number"] != "INV-7" {
		t.Errorf("invoice_number = %v", rec.Fields["invoice_number"])
	}
	if len(vision.prompts) != 1 || !strings.Contains(vision.prompts[0], "'invoice_number'") {
		t.Errorf("prompt missing required field list: %v", vision.prompts)
	}
}

func TestExtractStripsMarkdownFence(t *testing.T) {
	vision := &stubVision{response: "```json\n{\"invoice_number\": \"X\", \"amount\": 10, \"date\": \"2025-02-01\"}\n```"}
	e := newExtractor(
		&stubOCR{id: "a", text: "text"},
		&stubOCR{id: "b", text: "text"},
		vision,
		&stubRenderer{image: []byte("img")},
	)
	rec, err := e.Extract(context.Background(), "invoice.png", DocInvoice)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if rec.Fields["invoice_number"] != "X" {
		t.Errorf("invoice_number = %v", rec.Fields["invoice_number"])
	}
}

func TestExtractMalformedAndIncompleteResponses(t *testing.T) {
	tests := []struct {
		name     string
		response string
		wantCode string
	}{
		{"not json", "sorry, I cannot help", errors.CodeLLMMalformed},
		{"fence without object", "```json\nnope\n```", errors.CodeLLMMalformed},
		{"missing required field", `{"invoice_number": "X", "date": "2025-02-01"}`, errors.CodeLLMIncomplete},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newExtractor(
				&stubOCR{id: "a", text: "text"},
				&stubOCR{id: "b", text: "text"},
				&stubVision{response: tt.response},
				&stubRenderer{image: []byte("img")},
			)
			_, err := e.Extract(context.Background(), "invoice.png", DocInvoice)
			if !errors.HasCode(err, tt.wantCode) {
				t.Errorf("code = %v, want %s", errors.Code(err), tt.wantCode)
			}
		})
	}
}

func TestExtractUnknownTypePlaceholder(t *testing.T) {
	e := newExtractor(
		&stubOCR{id: "a"},
		&stubOCR{id: "b"},
		&stubVision{},
		&stubRenderer{err: fmt.Errorf("should not render")},
	)
	rec, err := e.Extract(context.Background(), "IMG_2041.jpg", DocUnknown)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if rec.DocumentType != DocUnknown || len(rec.Fields) != 0 {
		t.Errorf("placeholder record = %+v", rec)
	}
}

func TestGenerateMappingMonotonicRows(t *testing.T) {
	records := []*ExtractionRecord{
		{DocumentType: DocFlightTicket, SourcePath: "f.pdf", Fields: map[string]any{
			"date": "2025-01-02", "departure": "Shanghai", "arrival": "Beijing", "amount": 1200.0,
		}},
		{DocumentType: DocInvoice, SourcePath: "i.pdf", Fields: map[string]any{
			"date": "2025-01-03", "invoice_number": "INV-9", "amount": 337.6,
		}},
		{DocumentType: DocUnknown, SourcePath: "u.jpg", Fields: map[string]any{}},
	}

	instructions := GenerateMapping(records, 2)
	if len(instructions) != 3 {
		t.Fatalf("len = %d", len(instructions))
	}
	seen := map[int]bool{}
	for i, inst := range instructions {
		if inst.TargetRow != 2+i {
			t.Errorf("row[%d] = %d, want %d", i, inst.TargetRow, 2+i)
		}
		if seen[inst.TargetRow] {
			t.Errorf("duplicate row %d", inst.TargetRow)
		}
		seen[inst.TargetRow] = true
	}

	flight := instructions[0]
	var detail, category any
	for _, cell := range flight.Cells {
		switch cell.Column {
		case "B":
			detail = cell.Value
		case "D":
			category = cell.Value
		}
	}
	if detail != "Shanghai - Beijing" {
		t.Errorf("detail = %v", detail)
	}
	if category != "Flight" {
		t.Errorf("category = %v", category)
	}
}

func TestAmountOf(t *testing.T) {
	tests := []struct {
		name   string
		rec    *ExtractionRecord
		want   float64
		wantOK bool
	}{
		{
			"primary key",
			&ExtractionRecord{DocumentType: DocInvoice, Fields: map[string]any{"amount": 10.5}},
			10.5, true,
		},
		{
			"fallback key",
			&ExtractionRecord{DocumentType: DocInvoice, Fields: map[string]any{"total": "42.50"}},
			42.5, true,
		},
		{
			"missing",
			&ExtractionRecord{DocumentType: DocInvoice, Fields: map[string]any{}},
			0, false,
		},
		{
			"no template",
			&ExtractionRecord{DocumentType: DocUnknown, Fields: map[string]any{"amount": 5.0}},
			0, false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := AmountOf(tt.rec)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("AmountOf() = %v, %v; want %v, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func writeTemplate(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "claim_template.xlsx")
	book := excelize.NewFile()
	if err := book.SetCellValue("Sheet1", "A1", "Date"); err != nil {
		t.Fatal(err)
	}
	if err := book.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	book.Close()
	return path
}

func hashFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return fmt.Sprintf("%x", sha256.Sum256(data))
}

func TestFillNeverMutatesTemplate(t *testing.T) {
	dir := t.TempDir()
	template := writeTemplate(t, dir)
	before := hashFile(t, template)

	filler := NewFiller(filepath.Join(dir, "out"), "Sheet1", logging.NewForTest())
	filledPath, err := filler.Fill(template, []MappingInstruction{
		{TargetRow: 2, Cells: []CellMapping{
			{Column: "A", Value: "2025-01-03"},
			{Column: "C", Value: 337.6},
			{Column: "D", Value: "Invoice"},
		}},
	})
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}

	if hashFile(t, template) != before {
		t.Error("template file was mutated")
	}
	if filledPath == template {
		t.Fatal("fill wrote to the template path")
	}
	if !strings.HasPrefix(filepath.Base(filledPath), "claim_template_") {
		t.Errorf("filled name = %s", filepath.Base(filledPath))
	}

	book, err := excelize.OpenFile(filledPath)
	if err != nil {
		t.Fatalf("open filled copy: %v", err)
	}
	defer book.Close()
	got, err := book.GetCellValue("Sheet1", "D2")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Invoice" {
		t.Errorf("D2 = %q", got)
	}
}

func TestFillMissingTemplateFatalBeforeCopy(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	filler := NewFiller(outDir, "Sheet1", logging.NewForTest())

	_, err := filler.Fill(filepath.Join(dir, "gone.xlsx"), nil)
	if !errors.HasCode(err, errors.CodeFileNotFound) {
		t.Fatalf("code = %v, want %s", errors.Code(err), errors.CodeFileNotFound)
	}
	if _, statErr := os.Stat(outDir); !os.IsNotExist(statErr) {
		t.Error("output dir created despite missing template")
	}
}

func TestPipelineRun(t *testing.T) {
	dir := t.TempDir()
	template := writeTemplate(t, dir)

	receipt := filepath.Join(dir, "hotel_invoice.png")
	if err := os.WriteFile(receipt, []byte("img"), 0o644); err != nil {
		t.Fatal(err)
	}

	vision := &stubVision{response: `{"invoice_number": "INV-9", "amount": 337.6, "date": "2025-01-03"}`}
	extractor := newExtractor(
		&stubOCR{id: "a", text: "hint"},
		&stubOCR{id: "b", text: "hint"},
		vision,
		&stubRenderer{image: []byte("img")},
	)
	filler := NewFiller(filepath.Join(dir, "out"), "Sheet1", logging.NewForTest())
	p := New(NewFilenameClassifier(), extractor, filler, 2, logging.NewForTest())

	// The template path passed among the receipts is skipped, not extracted.
	result, err := p.Run(context.Background(), []string{receipt, template}, template)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.TotalAmount != 337.6 {
		t.Errorf("total = %v", result.TotalAmount)
	}
	if len(result.SourcePaths) != 1 || result.SourcePaths[0] != receipt {
		t.Errorf("sources = %v", result.SourcePaths)
	}
	if result.FilledPath == "" {
		t.Error("no filled path")
	}
}
