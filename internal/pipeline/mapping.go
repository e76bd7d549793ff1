package pipeline

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Claim sheet layout: date in A, route or reference detail in B, amount in
// C, category label in D.
const (
	columnDate     = "A"
	columnDetail   = "B"
	columnAmount   = "C"
	columnCategory = "D"
)

// GenerateMapping assigns each record, in order, to the next unused row
// starting at firstDataRow. Rows are strictly monotonic so no two records
// ever share one.
func GenerateMapping(records []*ExtractionRecord, firstDataRow int) []MappingInstruction {
	instructions := make([]MappingInstruction, 0, len(records))
	row := firstDataRow
	for _, rec := range records {
		instructions = append(instructions, MappingInstruction{
			TargetRow: row,
			Cells:     cellsFor(rec),
		})
		row++
	}
	return instructions
}

// cellsFor applies the per-type column rules. Records without a template
// still claim a row so a reviewer sees the gap, with only the category cell
// carrying the raw document type.
func cellsFor(rec *ExtractionRecord) []CellMapping {
	tmpl, ok := TemplateFor(rec.DocumentType)
	if !ok {
		return []CellMapping{
			{Column: columnCategory, Value: string(rec.DocumentType)},
		}
	}

	cells := make([]CellMapping, 0, 4)
	if v, ok := rec.Fields[tmpl.DateKey]; ok {
		cells = append(cells, CellMapping{Column: columnDate, Value: v})
	}
	if v := detailValue(rec, tmpl); v != nil {
		cells = append(cells, CellMapping{Column: columnDetail, Value: v})
	}
	if amount, ok := AmountOf(rec); ok {
		cells = append(cells, CellMapping{Column: columnAmount, Value: amount})
	}
	cells = append(cells, CellMapping{Column: columnCategory, Value: tmpl.Category})
	return cells
}

// detailValue prefers a departure-arrival route when both ends are present,
// falling back to the template's detail field.
func detailValue(rec *ExtractionRecord, tmpl FieldTemplate) any {
	dep, hasDep := rec.Fields["departure"].(string)
	arr, hasArr := rec.Fields["arrival"].(string)
	if hasDep && hasArr {
		return dep + " - " + arr
	}
	if v, ok := rec.Fields[tmpl.DetailKey]; ok {
		return v
	}
	return nil
}

// AmountOf returns the record's best-available amount, trying the type's
// amount keys in order. Missing or non-numeric amounts report false.
func AmountOf(rec *ExtractionRecord) (float64, bool) {
	tmpl, ok := TemplateFor(rec.DocumentType)
	if !ok {
		return 0, false
	}
	for _, key := range tmpl.AmountKeys {
		v, present := rec.Fields[key]
		if !present {
			continue
		}
		if amount, ok := toFloat(v); ok {
			return amount, true
		}
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
