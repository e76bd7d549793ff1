package types

import (
	"time"

	"github.com/google/uuid"
)

// WorkItem is one unit of input flowing through the engine: a reimbursement
// claim's source documents plus routing info. The payload is consumed as
// variables["input"] by the interpreter.
type WorkItem struct {
	ID      string         `json:"id"`
	Payload map[string]any `json:"payload"`

	// Output holds the final variable table on success.
	Output map[string]any `json:"output,omitempty"`
}

// NewWorkItem creates a work item with a generated id.
func NewWorkItem(payload map[string]any) *WorkItem {
	return &WorkItem{
		ID:      "item-" + uuid.NewString()[:8],
		Payload: payload,
	}
}

// WorkflowFile returns the workflow definition path from the payload.
func (w *WorkItem) WorkflowFile() string {
	if w.Payload == nil {
		return ""
	}
	if v, ok := w.Payload["workflow_file"].(string); ok {
		return v
	}
	return ""
}

// Failure is the structured reason a work item could not complete.
type Failure struct {
	Category string `json:"category"` // business | data_ai | automation
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// ReviewRecord is the durable, human-actionable trace of a failed work item.
// Created only on failure and never mutated afterward; it is superseded (not
// deleted) when a human resubmits corrected data.
type ReviewRecord struct {
	ID       string         `json:"id"`
	Payload  map[string]any `json:"payload"`
	Failure  Failure        `json:"failure"`
	SavedAt  time.Time      `json:"saved_at"`
}
