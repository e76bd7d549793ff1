package pipeline

import (
	"path/filepath"
	"strings"
)

// Classifier assigns a document type to a source file.
type Classifier interface {
	Classify(path string) DocumentType
}

// FilenameClassifier categorizes files by extension and filename keywords.
// A vision-backed classifier can replace it without touching the rest of
// the pipeline.
type FilenameClassifier struct{}

// NewFilenameClassifier creates a classifier.
func NewFilenameClassifier() *FilenameClassifier {
	return &FilenameClassifier{}
}

var spreadsheetExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".xls":  true,
}

// keywordRules is checked in order; the first match wins. More specific
// ticket keywords come before the generic invoice ones.
var keywordRules = []struct {
	keywords []string
	docType  DocumentType
}{
	{[]string{"flight", "air", "boarding", "机票"}, DocFlightTicket},
	{[]string{"train", "rail", "railway", "火车"}, DocTrainTicket},
	{[]string{"itinerary", "schedule", "行程"}, DocItinerary},
	{[]string{"invoice", "receipt", "fapiao", "发票"}, DocInvoice},
}

// Classify inspects the file name only. Spreadsheet files are always the
// claim template and are excluded from extraction by the caller.
func (c *FilenameClassifier) Classify(path string) DocumentType {
	if spreadsheetExtensions[strings.ToLower(filepath.Ext(path))] {
		return DocSpreadsheetTemplate
	}

	name := strings.ToLower(filepath.Base(path))
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(name, kw) {
				return rule.docType
			}
		}
	}
	return DocUnknown
}
