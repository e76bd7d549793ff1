package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/reimburse-stack/reclaim/internal/ai"
	"github.com/reimburse-stack/reclaim/internal/errors"
	"github.com/reimburse-stack/reclaim/internal/render"
)

// Extractor produces structured fields from a source document using two OCR
// engines and a multimodal arbitration pass. The rendered page image is the
// ground truth; the OCR texts are hints only.
type Extractor struct {
	primary   ai.OCREngine
	secondary ai.OCREngine
	vision    ai.VisionClient
	renderer  render.Renderer
	logger    *slog.Logger
}

// NewExtractor creates an extractor.
func NewExtractor(primary, secondary ai.OCREngine, vision ai.VisionClient, renderer render.Renderer, logger *slog.Logger) *Extractor {
	return &Extractor{
		primary:   primary,
		secondary: secondary,
		vision:    vision,
		renderer:  renderer,
		logger:    logger,
	}
}

// Extract runs the dual-check strategy for one file. Document types without
// a field template yield a minimal placeholder record rather than an error.
func (e *Extractor) Extract(ctx context.Context, path string, docType DocumentType) (*ExtractionRecord, error) {
	tmpl, ok := TemplateFor(docType)
	if !ok {
		e.logger.Warn("no field template for document type, recording placeholder",
			"path", path, "document_type", string(docType))
		return &ExtractionRecord{
			DocumentType: docType,
			SourcePath:   path,
			Fields:       map[string]any{},
		}, nil
	}

	image, err := e.renderer.PageImage(path)
	if err != nil {
		return nil, err
	}

	text1, text2 := e.dualOCR(ctx, image)
	if text1 == "" && text2 == "" {
		return nil, errors.OCRAllEmpty(path)
	}

	raw, err := e.vision.Infer(ctx, arbitrationPrompt(tmpl, text1, text2), image)
	if err != nil {
		return nil, err
	}

	fields, err := parseArbitration(raw, tmpl)
	if err != nil {
		return nil, err
	}

	e.logger.Info("extraction complete", "path", path, "document_type", string(docType))
	return &ExtractionRecord{
		DocumentType: docType,
		SourcePath:   path,
		Fields:       fields,
	}, nil
}

// dualOCR runs both engines concurrently over the same image. Engine errors
// degrade to empty text; a single engine succeeding is enough to proceed.
func (e *Extractor) dualOCR(ctx context.Context, image []byte) (string, string) {
	var text1, text2 string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		text1 = e.runEngine(gctx, e.primary, image)
		return nil
	})
	g.Go(func() error {
		text2 = e.runEngine(gctx, e.secondary, image)
		return nil
	})
	g.Wait()
	return text1, text2
}

func (e *Extractor) runEngine(ctx context.Context, engine ai.OCREngine, image []byte) string {
	text, err := engine.Recognize(ctx, image)
	if err != nil {
		e.logger.Warn("OCR engine failed, treating output as empty", "engine", engine.ID(), "error", err)
		return ""
	}
	return text
}

// arbitrationPrompt instructs the multimodal service to treat the image as
// the single source of truth and the OCR results as hints only.
func arbitrationPrompt(tmpl FieldTemplate, text1, text2 string) string {
	var b strings.Builder
	b.WriteString("You are an expert financial auditor. You will be given an image of a document and two potentially imperfect OCR text results from that image. Your task is to act as the final authority.\n\n")
	b.WriteString("1. Analyze the document IMAGE as the single source of truth.\n")
	b.WriteString("2. Use the two OCR results as helpful, but potentially flawed, hints.\n")
	b.WriteString("3. Extract the key information from the IMAGE and structure it as a clean JSON object.\n\n")
	fmt.Fprintf(&b, "OCR Result 1:\n--- START ---\n%s\n--- END ---\n\n", text1)
	fmt.Fprintf(&b, "OCR Result 2:\n--- START ---\n%s\n--- END ---\n\n", text2)
	fmt.Fprintf(&b, "Based on the IMAGE, please extract the following fields: %s. ", quotedList(tmpl.Required))
	b.WriteString("Ensure any date is in 'YYYY-MM-DD' format and any amount is a number. Respond with only the JSON object.")
	return b.String()
}

func quotedList(fields []string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = "'" + f + "'"
	}
	return strings.Join(quoted, ", ")
}

// parseArbitration strips markdown fencing, decodes the JSON object, and
// checks every required field is present.
func parseArbitration(raw string, tmpl FieldTemplate) (map[string]any, error) {
	content := raw
	if strings.Contains(content, "```") {
		start := strings.Index(content, "{")
		end := strings.LastIndex(content, "}")
		if start < 0 || end < start {
			return nil, errors.LLMMalformed(fmt.Errorf("fenced response contains no JSON object"))
		}
		content = content[start : end+1]
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(content), &fields); err != nil {
		return nil, errors.LLMMalformed(err)
	}

	for _, key := range tmpl.Required {
		if _, ok := fields[key]; !ok {
			return nil, errors.LLMIncomplete(key)
		}
	}
	return fields, nil
}
