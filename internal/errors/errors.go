// Package errors provides structured, coded error types for reclaim.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Category groups error codes by their recovery path.
type Category string

const (
	CategoryBusiness   Category = "business"   // Bad input, reported immediately, no screenshot
	CategoryDataAI     Category = "data_ai"    // OCR/LLM failures, recoverable by human correction
	CategoryAutomation Category = "automation" // Browser interaction failures, diagnostics captured
	CategoryUnknown    Category = "unknown"
)

// Error codes for reclaim operations.
const (
	// Business/input errors
	CodeEmptyPayload     = "BIZ_001" // Work item payload is empty
	CodeMissingWorkflow  = "BIZ_002" // No workflow_file in payload
	CodeFileNotFound     = "BIZ_003" // Referenced file does not exist
	CodeWorkflowInvalid  = "BIZ_004" // Workflow definition failed to parse or validate
	CodeMissingStepParam = "BIZ_005" // Step missing a required parameter

	// Data/AI errors
	CodeOCRAllEmpty        = "AI_001" // Both OCR engines returned empty text
	CodeLLMMalformed       = "AI_002" // LLM response is not a well-formed JSON object
	CodeLLMIncomplete      = "AI_003" // LLM response missing a required field
	CodeServiceUnreachable = "AI_004" // OCR or LLM service could not be reached
	CodeSourceUnreadable   = "AI_005" // Source document could not be opened or rendered

	// Automation errors
	CodeStepFailed      = "AUTO_001" // Generic step failure
	CodeWaitTimeout     = "AUTO_002" // Selector/url/load-state wait timed out
	CodeNewWindowFailed = "AUTO_003" // New window did not open or settle
	CodeFrameSwitch     = "AUTO_004" // Frame resolution or attach failed
	CodeUploadFailed    = "AUTO_005" // File chooser or input assignment failed
)

// categories maps code prefixes to failure categories.
func categoryOf(code string) Category {
	switch {
	case len(code) >= 3 && code[:3] == "BIZ":
		return CategoryBusiness
	case len(code) >= 2 && code[:2] == "AI":
		return CategoryDataAI
	case len(code) >= 4 && code[:4] == "AUTO":
		return CategoryAutomation
	}
	return CategoryUnknown
}

// Error is the structured error type for reclaim operations.
type Error struct {
	Code    string         `json:"code"`              // Error code (e.g., "AI_001")
	Message string         `json:"message"`           // Human-readable message
	Details map[string]any `json:"details,omitempty"` // Context (step, selector, path, etc.)
	Cause   error          `json:"-"`                 // Wrapped error (not serialized)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Category returns the failure category for this error's code.
func (e *Error) Category() Category {
	return categoryOf(e.Code)
}

// WithDetail adds a detail to the error.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

// MarshalJSON implements json.Marshaler with the cause error message inlined.
func (e *Error) MarshalJSON() ([]byte, error) {
	type alias Error
	aux := struct {
		*alias
		Category Category `json:"category"`
		CauseMsg string   `json:"cause,omitempty"`
	}{
		alias:    (*alias)(e),
		Category: e.Category(),
	}
	if e.Cause != nil {
		aux.CauseMsg = e.Cause.Error()
	}
	return json.Marshal(aux)
}

// New creates a new Error.
func New(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new Error with a formatted message.
func Newf(code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with an Error.
func Wrap(code, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with a formatted Error.
func Wrapf(code string, err error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
	}
}

// --- Business Errors ---

// EmptyPayload creates an error for an empty work item payload.
func EmptyPayload(itemID string) *Error {
	return New(CodeEmptyPayload, "work item payload is empty").
		WithDetail("item_id", itemID)
}

// MissingWorkflow creates an error for a payload without a workflow file.
func MissingWorkflow(itemID string) *Error {
	return New(CodeMissingWorkflow, "no workflow_file specified in payload").
		WithDetail("item_id", itemID)
}

// FileNotFound creates an error for a missing file.
func FileNotFound(path string) *Error {
	return Newf(CodeFileNotFound, "file not found: %s", path).
		WithDetail("path", path)
}

// WorkflowInvalid creates an error for a bad workflow definition.
func WorkflowInvalid(path string, err error) *Error {
	return Wrap(CodeWorkflowInvalid, "invalid workflow definition", err).
		WithDetail("path", path)
}

// MissingStepParam creates an error for a step missing a required parameter.
func MissingStepParam(step, param string) *Error {
	return Newf(CodeMissingStepParam, "step %q missing required parameter: %s", step, param).
		WithDetail("step", step).
		WithDetail("param", param)
}

// --- Data/AI Errors ---

// OCRAllEmpty creates an error for both OCR engines returning nothing.
func OCRAllEmpty(path string) *Error {
	return Newf(CodeOCRAllEmpty, "both OCR engines returned empty text for %s", path).
		WithDetail("path", path)
}

// LLMMalformed creates an error for an unparseable LLM response.
func LLMMalformed(err error) *Error {
	return Wrap(CodeLLMMalformed, "LLM response is not a well-formed JSON object", err)
}

// LLMIncomplete creates an error for an LLM response missing a required field.
func LLMIncomplete(field string) *Error {
	return Newf(CodeLLMIncomplete, "LLM response missing required field: %s", field).
		WithDetail("field", field)
}

// ServiceUnreachable creates an error for an unreachable AI service.
func ServiceUnreachable(service string, err error) *Error {
	return Wrapf(CodeServiceUnreachable, err, "%s service unreachable", service).
		WithDetail("service", service)
}

// SourceUnreadable creates an error for an unreadable source document.
func SourceUnreadable(path string, err error) *Error {
	return Wrap(CodeSourceUnreadable, "failed to open or render source document", err).
		WithDetail("path", path)
}

// --- Automation Errors ---

// StepFailed wraps a step execution failure.
func StepFailed(step string, err error) *Error {
	return Wrapf(CodeStepFailed, err, "step %q failed", step).
		WithDetail("step", step)
}

// WaitTimeout creates an error for a timed-out wait.
func WaitTimeout(what string, timeout string) *Error {
	return Newf(CodeWaitTimeout, "timed out after %s waiting for %s", timeout, what).
		WithDetail("target", what).
		WithDetail("timeout", timeout)
}

// NewWindowFailed creates an error for a failed new-window switch.
func NewWindowFailed(selector string, err error) *Error {
	return Wrap(CodeNewWindowFailed, "new window did not open or settle", err).
		WithDetail("selector", selector)
}

// FrameSwitch creates an error for a failed frame context switch.
func FrameSwitch(selector string, err error) *Error {
	return Wrap(CodeFrameSwitch, "failed to switch to frame", err).
		WithDetail("selector", selector)
}

// UploadFailed creates an error for a failed file upload interaction.
func UploadFailed(selector string, err error) *Error {
	return Wrap(CodeUploadFailed, "file upload interaction failed", err).
		WithDetail("selector", selector)
}

// HasCode checks if an error is an Error with the given code.
// It handles wrapped errors by unwrapping to find an Error.
func HasCode(err error, code string) bool {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Code == code
	}
	return false
}

// Code returns the error code if err is an Error, empty string otherwise.
func Code(err error) string {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Code
	}
	return ""
}

// CategoryFor returns the failure category for err. Errors that are not
// structured Errors land in CategoryAutomation: unexpected failures during
// execution are treated like any other interaction failure.
func CategoryFor(err error) Category {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Category()
	}
	return CategoryAutomation
}
