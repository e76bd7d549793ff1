package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Format(t *testing.T) {
	err := New(CodeOCRAllEmpty, "both empty")
	if got := err.Error(); got != "[AI_001] both empty" {
		t.Errorf("unexpected error string: %q", got)
	}

	wrapped := Wrap(CodeStepFailed, "step failed", fmt.Errorf("boom"))
	if got := wrapped.Error(); !strings.Contains(got, "boom") {
		t.Errorf("expected cause in error string, got %q", got)
	}
}

func TestError_Category(t *testing.T) {
	tests := []struct {
		code     string
		expected Category
	}{
		{CodeEmptyPayload, CategoryBusiness},
		{CodeMissingWorkflow, CategoryBusiness},
		{CodeOCRAllEmpty, CategoryDataAI},
		{CodeServiceUnreachable, CategoryDataAI},
		{CodeWaitTimeout, CategoryAutomation},
		{CodeNewWindowFailed, CategoryAutomation},
		{"XYZ_999", CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "msg")
			if got := err.Category(); got != tt.expected {
				t.Errorf("expected category %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestCategoryFor_UnstructuredError(t *testing.T) {
	// Plain errors are treated as automation failures.
	if got := CategoryFor(fmt.Errorf("plain")); got != CategoryAutomation {
		t.Errorf("expected automation category, got %s", got)
	}
}

func TestHasCode_Wrapped(t *testing.T) {
	inner := FileNotFound("/tmp/missing.pdf")
	outer := fmt.Errorf("processing item: %w", inner)

	if !HasCode(outer, CodeFileNotFound) {
		t.Error("expected HasCode to find wrapped code")
	}
	if HasCode(outer, CodeOCRAllEmpty) {
		t.Error("HasCode matched wrong code")
	}
	if Code(outer) != CodeFileNotFound {
		t.Errorf("Code returned %q", Code(outer))
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := Wrap(CodeLLMMalformed, "bad json", cause)

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to reach cause")
	}
}

func TestError_MarshalJSON(t *testing.T) {
	err := OCRAllEmpty("/tmp/receipt.png").WithCause(fmt.Errorf("engine down"))

	data, merr := json.Marshal(err)
	if merr != nil {
		t.Fatalf("marshal failed: %v", merr)
	}

	var decoded map[string]any
	if uerr := json.Unmarshal(data, &decoded); uerr != nil {
		t.Fatalf("unmarshal failed: %v", uerr)
	}

	if decoded["code"] != "AI_001" {
		t.Errorf("expected code AI_001, got %v", decoded["code"])
	}
	if decoded["category"] != "data_ai" {
		t.Errorf("expected category data_ai, got %v", decoded["category"])
	}
	if decoded["cause"] != "engine down" {
		t.Errorf("expected cause message, got %v", decoded["cause"])
	}
}

func TestError_WithDetail(t *testing.T) {
	err := New(CodeWaitTimeout, "timeout").
		WithDetail("selector", "#submit").
		WithDetail("timeout", "30s")

	if err.Details["selector"] != "#submit" {
		t.Errorf("detail not recorded: %v", err.Details)
	}
}
