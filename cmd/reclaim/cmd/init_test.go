package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func useWorkDir(t *testing.T, dir string) {
	t.Helper()
	prev := workDir
	workDir = dir
	t.Cleanup(func() { workDir = prev })
}

func TestInitCreatesStructure(t *testing.T) {
	dir := t.TempDir()
	useWorkDir(t, dir)

	if err := runInit(initCmd, nil); err != nil {
		t.Fatalf("runInit failed: %v", err)
	}

	configPath := filepath.Join(dir, ".reclaim", "config.toml")
	configBytes, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	if !strings.Contains(string(configBytes), "[timeouts]") {
		t.Fatalf("expected timeouts section, got: %s", configBytes)
	}

	for _, subdir := range []string{"workflows", "output/screenshots", "output/sources", "review_queue", "output/spreadsheets"} {
		if _, err := os.Stat(filepath.Join(dir, subdir)); err != nil {
			t.Fatalf("expected %s to exist: %v", subdir, err)
		}
	}
}

func TestInitRefusesSecondRun(t *testing.T) {
	dir := t.TempDir()
	useWorkDir(t, dir)

	if err := runInit(initCmd, nil); err != nil {
		t.Fatalf("first runInit failed: %v", err)
	}
	if err := runInit(initCmd, nil); err == nil {
		t.Fatal("second runInit succeeded, want error")
	}
}
