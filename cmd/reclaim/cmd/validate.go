package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <workflow>",
	Short: "Validate a workflow definition",
	Long: `Parse a workflow definition and check its structure without running it.

Checks:
- YAML syntax
- Action names
- Loop nesting rules`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	wf, err := rt.loader.Load(args[0])
	if err != nil {
		return err
	}

	unknown := 0
	for _, step := range wf.Steps {
		if !step.Action.Known() {
			fmt.Printf("  warning: step %q has unknown action %q (will be skipped)\n", step.Label(), step.Action)
			unknown++
		}
	}

	fmt.Printf("Workflow %q is valid: %d steps", wf.Name, len(wf.Steps))
	if unknown > 0 {
		fmt.Printf(", %d with unknown actions", unknown)
	}
	fmt.Println()
	return nil
}
