package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var reviewShowCmd = &cobra.Command{
	Use:   "show <item-id>",
	Short: "Show one review record",
	Args:  cobra.ExactArgs(1),
	RunE:  runReviewShow,
}

func init() {
	reviewCmd.AddCommand(reviewShowCmd)
}

func runReviewShow(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	record, err := rt.sink.Load(args[0])
	if err != nil {
		return fmt.Errorf("loading record %s: %w", args[0], err)
	}

	out, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
