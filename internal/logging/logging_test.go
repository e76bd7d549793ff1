package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/reimburse-stack/reclaim/internal/config"
)

func TestNewFromConfig_NoFile(t *testing.T) {
	cfg := config.Default()

	logger, closer, err := NewFromConfig(cfg, t.TempDir())
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger")
	}
	if closer != nil {
		t.Error("expected nil closer without log file")
	}
}

func TestNewFromConfig_WithFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Logging.File = "logs/reclaim.log"
	cfg.Logging.Format = config.LogFormatText

	logger, closer, err := NewFromConfig(cfg, dir)
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}
	if closer == nil {
		t.Fatal("expected closer for log file")
	}
	defer closer.Close()

	logger.Info("hello", "key", "value")

	data, err := os.ReadFile(filepath.Join(dir, "logs", "reclaim.log"))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected log output in file")
	}
}

func TestNewForTest_Silent(t *testing.T) {
	logger := NewForTest()
	// Should not panic or write anywhere visible.
	logger.Info("discarded")
	logger.Error("discarded too")
}

func TestContextHelpers(t *testing.T) {
	base := NewForTest()

	if WithItem(base, "item-1") == nil {
		t.Error("WithItem returned nil")
	}
	if WithStep(base, "fill form", "browser_fill") == nil {
		t.Error("WithStep returned nil")
	}
	if WithWorkflow(base, "reimbursement") == nil {
		t.Error("WithWorkflow returned nil")
	}
}
