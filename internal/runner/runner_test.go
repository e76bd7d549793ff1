package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/reimburse-stack/reclaim/internal/browser"
	"github.com/reimburse-stack/reclaim/internal/config"
	"github.com/reimburse-stack/reclaim/internal/errors"
	"github.com/reimburse-stack/reclaim/internal/logging"
	"github.com/reimburse-stack/reclaim/internal/review"
	"github.com/reimburse-stack/reclaim/internal/testutil"
	"github.com/reimburse-stack/reclaim/internal/types"
	"github.com/reimburse-stack/reclaim/internal/workflow"
)

const submitWorkflow = `
name: submit claim
steps:
  - name: open portal
    action: browser_goto
    params:
      url: https://erp.example.com/claims
  - name: fill invoice number
    action: browser_fill
    params:
      selector: "#invoice_number"
      value: "{{input.invoice_number}}"
`

type env struct {
	runner *Runner
	driver *testutil.FakeDriver
	sink   *review.Sink
	dir    string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()

	workflowDir := filepath.Join(dir, "workflows")
	if err := os.MkdirAll(workflowDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(workflowDir, "submit.yaml"), []byte(submitWorkflow), 0o644); err != nil {
		t.Fatal(err)
	}

	driver := testutil.NewFakeDriver()
	sink := review.NewSink(filepath.Join(dir, "queue"), logging.NewForTest())
	r := New(
		driver,
		nil,
		workflow.NewLoader(workflowDir),
		sink,
		config.Default().Timeouts,
		browser.NewArtifacts(filepath.Join(dir, "screenshots"), filepath.Join(dir, "sources")),
		logging.NewForTest(),
	)
	return &env{runner: r, driver: driver, sink: sink, dir: dir}
}

func TestProcessItemSuccess(t *testing.T) {
	e := newEnv(t)

	item := types.NewWorkItem(map[string]any{
		"workflow_file":  "submit",
		"invoice_number": "INV-9",
	})
	if err := e.runner.ProcessItem(context.Background(), item); err != nil {
		t.Fatalf("ProcessItem: %v", err)
	}

	fills := e.driver.Recorder.ByMethod("fill")
	if len(fills) != 1 || fills[0].Value != "INV-9" {
		t.Errorf("fills = %+v", fills)
	}
	if item.Output == nil {
		t.Error("final variables not attached to item")
	}

	ids, err := e.sink.List()
	if err != nil || len(ids) != 0 {
		t.Errorf("review queue = %v, %v", ids, err)
	}
}

func TestProcessItemFailureRouting(t *testing.T) {
	tests := []struct {
		name         string
		payload      map[string]any
		breakMethod  string
		wantCode     string
		wantCategory string
	}{
		{
			name:         "empty payload",
			payload:      nil,
			wantCode:     errors.CodeEmptyPayload,
			wantCategory: "business",
		},
		{
			name:         "missing workflow",
			payload:      map[string]any{"invoice_number": "INV-9"},
			wantCode:     errors.CodeMissingWorkflow,
			wantCategory: "business",
		},
		{
			name:         "workflow file not found",
			payload:      map[string]any{"workflow_file": "does_not_exist"},
			wantCode:     errors.CodeFileNotFound,
			wantCategory: "business",
		},
		{
			name:         "browser step failure",
			payload:      map[string]any{"workflow_file": "submit", "invoice_number": "INV-9"},
			breakMethod:  "fill",
			wantCode:     errors.CodeStepFailed,
			wantCategory: "automation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			if tt.breakMethod != "" {
				e.driver.Page.Errs[tt.breakMethod] = fmt.Errorf("element detached")
			}

			item := types.NewWorkItem(tt.payload)
			if err := e.runner.ProcessItem(context.Background(), item); err == nil {
				t.Fatal("ProcessItem succeeded, want failure")
			}

			record, err := e.sink.Load(item.ID)
			if err != nil {
				t.Fatalf("no review record: %v", err)
			}
			if record.Failure.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", record.Failure.Code, tt.wantCode)
			}
			if record.Failure.Category != tt.wantCategory {
				t.Errorf("category = %s, want %s", record.Failure.Category, tt.wantCategory)
			}
		})
	}
}

func TestResubmitOverlaysCorrectedFields(t *testing.T) {
	e := newEnv(t)

	failure := types.Failure{Category: "data_ai", Code: "AI_002", Message: "LLM returned garbage"}
	original := map[string]any{"workflow_file": "submit", "invoice_number": "GARBAGE"}
	if err := e.sink.Save("item-fix1", original, failure); err != nil {
		t.Fatal(err)
	}

	corrected := map[string]any{"invoice_number": "INV-CORRECTED"}
	if err := e.runner.Resubmit(context.Background(), "item-fix1", corrected, ""); err != nil {
		t.Fatalf("Resubmit: %v", err)
	}

	fills := e.driver.Recorder.ByMethod("fill")
	if len(fills) != 1 || fills[0].Value != "INV-CORRECTED" {
		t.Errorf("fills = %+v", fills)
	}
}

func TestResubmitUnknownRecord(t *testing.T) {
	e := newEnv(t)
	if err := e.runner.Resubmit(context.Background(), "item-nope", nil, ""); err == nil {
		t.Fatal("Resubmit succeeded for missing record")
	}
}
