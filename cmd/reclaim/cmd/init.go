package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/reimburse-stack/reclaim/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a reclaim project directory",
	Long: `Create the .reclaim/config.toml file and the directories the engine
writes to (workflows, output, review queue).`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	dir, err := getWorkDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(dir, config.ConfigFileName)
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("already initialized: %s exists", configPath)
	}

	cfg := config.Default()
	if err := cfg.Save(dir); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	for _, p := range []string{
		cfg.Paths.WorkflowDir,
		cfg.Paths.OutputDir,
		cfg.Paths.ScreenshotDir,
		cfg.Paths.SourceDir,
		cfg.Paths.ReviewQueueDir,
		cfg.Paths.SpreadsheetDir,
	} {
		if err := os.MkdirAll(resolvePath(dir, p), 0755); err != nil {
			return err
		}
	}

	fmt.Printf("Initialized reclaim project in %s\n", dir)
	return nil
}
