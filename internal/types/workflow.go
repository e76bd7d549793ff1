package types

import (
	"fmt"
)

// WorkflowDefinition is an ordered list of declarative steps. It is immutable
// once loaded for a run; the interpreter never writes back to it.
type WorkflowDefinition struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Validate checks the definition is well-formed.
func (w *WorkflowDefinition) Validate() error {
	if w.Name == "" {
		return fmt.Errorf("workflow name is required")
	}
	if len(w.Steps) == 0 {
		return fmt.Errorf("workflow %q has no steps", w.Name)
	}
	for i := range w.Steps {
		if err := w.Steps[i].Validate(); err != nil {
			return fmt.Errorf("workflow %q: %w", w.Name, err)
		}
	}
	return nil
}
