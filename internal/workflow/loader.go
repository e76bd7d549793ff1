// Package workflow loads and validates declarative workflow definitions.
package workflow

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/reimburse-stack/reclaim/internal/errors"
	"github.com/reimburse-stack/reclaim/internal/types"
)

// Loader resolves workflow references against the configured workflow
// directory. Absolute paths and paths carrying a directory component are
// used as-is; bare names resolve inside WorkflowDir.
type Loader struct {
	WorkflowDir string
}

// NewLoader creates a new workflow loader.
func NewLoader(workflowDir string) *Loader {
	return &Loader{WorkflowDir: workflowDir}
}

// Resolve maps a workflow reference to a file path.
func (l *Loader) Resolve(ref string) string {
	if filepath.IsAbs(ref) || strings.ContainsRune(ref, os.PathSeparator) {
		return ref
	}
	name := ref
	if filepath.Ext(name) == "" {
		name += ".yaml"
	}
	return filepath.Join(l.WorkflowDir, name)
}

// Load reads, parses, and validates a workflow definition. The returned
// definition is immutable for the duration of a run.
func (l *Loader) Load(ref string) (*types.WorkflowDefinition, error) {
	path := l.Resolve(ref)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileNotFound(path)
		}
		return nil, errors.WorkflowInvalid(path, err)
	}

	return Parse(data, path)
}

// Parse decodes and validates a workflow definition from YAML bytes.
func Parse(data []byte, path string) (*types.WorkflowDefinition, error) {
	var def types.WorkflowDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, errors.WorkflowInvalid(path, err)
	}

	if err := def.Validate(); err != nil {
		return nil, errors.WorkflowInvalid(path, err)
	}

	return &def, nil
}
