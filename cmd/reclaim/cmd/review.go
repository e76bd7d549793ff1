package cmd

import (
	"github.com/spf13/cobra"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Inspect the human-review queue",
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}
