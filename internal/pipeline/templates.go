package pipeline

// FieldTemplate describes what extraction must produce for one document type
// and how its fields land on the claim sheet.
type FieldTemplate struct {
	// Required lists the fields the arbitration response must contain.
	Required []string
	// AmountKeys are tried in order when summing the claim total.
	AmountKeys []string
	// DateKey and DetailKey feed columns A and B of the claim sheet.
	DateKey   string
	DetailKey string
	// Category is the human-readable label written to column D.
	Category string
}

var fieldTemplates = map[DocumentType]FieldTemplate{
	DocFlightTicket: {
		Required:   []string{"passenger_name", "flight_number", "departure", "arrival", "date", "amount"},
		AmountKeys: []string{"amount", "fare"},
		DateKey:    "date",
		DetailKey:  "flight_number",
		Category:   "Flight",
	},
	DocTrainTicket: {
		Required:   []string{"passenger_name", "train_number", "departure", "arrival", "date", "amount"},
		AmountKeys: []string{"amount", "fare"},
		DateKey:    "date",
		DetailKey:  "train_number",
		Category:   "Train",
	},
	DocInvoice: {
		Required:   []string{"invoice_number", "amount", "date"},
		AmountKeys: []string{"amount", "total"},
		DateKey:    "date",
		DetailKey:  "invoice_number",
		Category:   "Invoice",
	},
	DocItinerary: {
		Required:   []string{"traveler_name", "start_date", "end_date", "destination"},
		AmountKeys: []string{"total_amount", "amount"},
		DateKey:    "start_date",
		DetailKey:  "destination",
		Category:   "Itinerary",
	},
}

// TemplateFor returns the field template for a document type. The second
// return is false for types without a template; extraction then degrades to
// a placeholder record instead of failing.
func TemplateFor(docType DocumentType) (FieldTemplate, bool) {
	t, ok := fieldTemplates[docType]
	return t, ok
}
