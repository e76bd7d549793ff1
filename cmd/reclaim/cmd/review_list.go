package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reviewListCmd = &cobra.Command{
	Use:   "list",
	Short: "List queued review records",
	Args:  cobra.NoArgs,
	RunE:  runReviewList,
}

func init() {
	reviewCmd.AddCommand(reviewListCmd)
}

func runReviewList(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	ids, err := rt.sink.List()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Println("Review queue is empty.")
		return nil
	}

	for _, id := range ids {
		record, err := rt.sink.Load(id)
		if err != nil {
			fmt.Printf("%s  (unreadable: %v)\n", id, err)
			continue
		}
		fmt.Printf("%s  [%s/%s]  %s\n", record.ID, record.Failure.Category, record.Failure.Code, record.Failure.Message)
	}
	return nil
}
