package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reimburse-stack/reclaim/internal/types"
)

var runCmd = &cobra.Command{
	Use:   "run <payload.json>",
	Short: "Process one work item",
	Long: `Run the workflow named in the payload's workflow_file against the
payload. The payload file holds one JSON object; it becomes the
variables["input"] table for the workflow.

A failed item is saved to the review queue and the command exits
non-zero.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

var runWorkflow string

func init() {
	runCmd.Flags().StringVar(&runWorkflow, "workflow", "", "override the payload's workflow_file")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading payload: %w", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("parsing payload: %w", err)
	}
	if runWorkflow != "" {
		payload["workflow_file"] = runWorkflow
	}

	r, driver, err := rt.newRunner()
	if err != nil {
		return err
	}
	defer driver.Close()

	item := types.NewWorkItem(payload)
	if err := r.ProcessItem(context.Background(), item); err != nil {
		return fmt.Errorf("item %s failed and was queued for review: %w", item.ID, err)
	}

	fmt.Printf("Item %s completed.\n", item.ID)
	return nil
}
