package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reimburse-stack/reclaim/internal/cli"
)

var resubmitCmd = &cobra.Command{
	Use:   "resubmit [item-id]",
	Short: "Resubmit a reviewed item with corrected fields",
	Long: `Replay a failed item from the review queue. Corrected fields overlay
the original payload and the submission workflow runs directly,
bypassing document extraction.

Without an item id, queued records are listed for selection.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResubmit,
}

var (
	resubmitFields   []string
	resubmitWorkflow string
	resubmitYes      bool
)

func init() {
	resubmitCmd.Flags().StringArrayVar(&resubmitFields, "field", nil, "corrected field (format: name=value)")
	resubmitCmd.Flags().StringVar(&resubmitWorkflow, "workflow", "", "submission workflow to run (default: the payload's workflow_file)")
	resubmitCmd.Flags().BoolVarP(&resubmitYes, "yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(resubmitCmd)
}

func runResubmit(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	var itemID string
	if len(args) == 1 {
		itemID = args[0]
	} else {
		itemID, err = pickReviewItem(rt)
		if err != nil {
			return err
		}
		if itemID == "" {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	corrected := make(map[string]any, len(resubmitFields))
	for _, f := range resubmitFields {
		parts := strings.SplitN(f, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid field format: %s (expected name=value)", f)
		}
		corrected[parts[0]] = parts[1]
	}

	if !resubmitYes {
		ok, err := cli.Confirm(fmt.Sprintf("Resubmit %s with %d corrected field(s)?", itemID, len(corrected)), false)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	r, driver, err := rt.newRunner()
	if err != nil {
		return err
	}
	defer driver.Close()

	if err := r.Resubmit(context.Background(), itemID, corrected, resubmitWorkflow); err != nil {
		return err
	}
	fmt.Printf("Item %s resubmitted successfully.\n", itemID)
	return nil
}

// pickReviewItem lets the user choose a queued record interactively.
func pickReviewItem(rt *runtime) (string, error) {
	ids, err := rt.sink.List()
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", fmt.Errorf("review queue is empty")
	}

	options := make([]cli.SelectOption, 0, len(ids))
	for _, id := range ids {
		label := id
		if record, err := rt.sink.Load(id); err == nil {
			label = fmt.Sprintf("%s  [%s/%s]  %s", record.ID, record.Failure.Category, record.Failure.Code, record.Failure.Message)
		}
		options = append(options, cli.SelectOption{Value: id, Label: label})
	}
	return cli.Select("Queued review records:", options)
}
