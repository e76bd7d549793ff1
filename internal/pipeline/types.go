// Package pipeline implements the document intelligence pipeline: classify
// source files, extract structured fields via dual OCR and multimodal
// arbitration, map the records onto spreadsheet rows, and fill a copy of the
// claim template.
package pipeline

// DocumentType categorizes a source file.
type DocumentType string

const (
	DocFlightTicket        DocumentType = "flight_ticket"
	DocTrainTicket         DocumentType = "train_ticket"
	DocInvoice             DocumentType = "invoice"
	DocItinerary           DocumentType = "itinerary"
	DocSpreadsheetTemplate DocumentType = "spreadsheet_template"
	DocUnknown             DocumentType = "unknown"
)

// ExtractionRecord holds the structured fields extracted from one source file.
type ExtractionRecord struct {
	DocumentType DocumentType   `json:"document_type"`
	SourcePath   string         `json:"source_path"`
	Fields       map[string]any `json:"structured_fields"`
}

// CellMapping places one value into one column of a target row.
type CellMapping struct {
	Column string
	Value  any
}

// MappingInstruction assigns one extraction record to a spreadsheet row.
// Rows are unique across the instructions produced in a single run.
type MappingInstruction struct {
	TargetRow int
	Cells     []CellMapping
}

// Result is what a completed pipeline run hands back to the caller.
type Result struct {
	FilledPath  string   `json:"filled_path"`
	SourcePaths []string `json:"original_source_paths"`
	TotalAmount float64  `json:"total_amount"`
}
