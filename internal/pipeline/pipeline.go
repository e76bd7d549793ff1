package pipeline

import (
	"context"
	"log/slog"
)

// Pipeline chains classification, extraction, mapping, and fill into the
// single operation the workflow interpreter delegates to.
type Pipeline struct {
	classifier Classifier
	extractor  *Extractor
	filler     *Filler
	firstRow   int
	logger     *slog.Logger
}

// New assembles the pipeline.
func New(classifier Classifier, extractor *Extractor, filler *Filler, firstDataRow int, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		classifier: classifier,
		extractor:  extractor,
		filler:     filler,
		firstRow:   firstDataRow,
		logger:     logger,
	}
}

// Run processes the receipt files against the claim template and returns the
// filled spreadsheet path, the original sources, and the claim total. Files
// classified as spreadsheet templates are excluded from extraction.
func (p *Pipeline) Run(ctx context.Context, receiptFiles []string, templatePath string) (*Result, error) {
	records := make([]*ExtractionRecord, 0, len(receiptFiles))
	sources := make([]string, 0, len(receiptFiles))

	for _, path := range receiptFiles {
		docType := p.classifier.Classify(path)
		if docType == DocSpreadsheetTemplate {
			p.logger.Info("skipping spreadsheet template among receipts", "path", path)
			continue
		}
		sources = append(sources, path)

		rec, err := p.extractor.Extract(ctx, path, docType)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	instructions := GenerateMapping(records, p.firstRow)
	filledPath, err := p.filler.Fill(templatePath, instructions)
	if err != nil {
		return nil, err
	}

	total := 0.0
	for _, rec := range records {
		if amount, ok := AmountOf(rec); ok {
			total += amount
		}
	}

	p.logger.Info("pipeline run complete",
		"filled_path", filledPath, "records", len(records), "total_amount", total)
	return &Result{
		FilledPath:  filledPath,
		SourcePaths: sources,
		TotalAmount: total,
	}, nil
}
