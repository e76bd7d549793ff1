package types

import (
	"fmt"
)

// ActionKind identifies what a step does. The action space is a closed,
// extensible registry: unrecognized kinds resolve to ActionNoOp at dispatch
// time rather than failing the run.
type ActionKind string

const (
	// Control-flow actions
	ActionLoop ActionKind = "loop" // Iterate nested steps over a list variable

	// AI actions
	ActionAIFillExcel ActionKind = "ai_fill_reimbursement_excel" // Document pipeline → spreadsheet

	// Browser actions
	ActionGoto             ActionKind = "browser_goto"
	ActionFill             ActionKind = "browser_fill"
	ActionClick            ActionKind = "browser_click"
	ActionPress            ActionKind = "browser_press"
	ActionSelectOption     ActionKind = "browser_select_option"
	ActionSwitchToFrame    ActionKind = "browser_switch_to_frame"
	ActionUploadFile       ActionKind = "browser_upload_file"
	ActionWaitForSelector  ActionKind = "browser_wait_for_selector"
	ActionWaitForURL       ActionKind = "browser_wait_for_url"
	ActionWaitForLoadState ActionKind = "browser_wait_for_load_state"
	ActionEvaluate         ActionKind = "browser_evaluate"
	ActionJSClick          ActionKind = "browser_js_click"
	ActionMouseMove        ActionKind = "browser_mouse_move"
	ActionGetSource        ActionKind = "browser_get_source"
	ActionScreenshot       ActionKind = "browser_screenshot"
	ActionLoginHumanLike   ActionKind = "browser_login_human_like"

	// ActionNoOp is the explicit variant unknown actions degrade to.
	ActionNoOp ActionKind = "noop"
)

// Known returns true if this is a recognized action kind.
func (a ActionKind) Known() bool {
	switch a {
	case ActionLoop, ActionAIFillExcel,
		ActionGoto, ActionFill, ActionClick, ActionPress, ActionSelectOption,
		ActionSwitchToFrame, ActionUploadFile, ActionWaitForSelector,
		ActionWaitForURL, ActionWaitForLoadState, ActionEvaluate,
		ActionJSClick, ActionMouseMove, ActionGetSource, ActionScreenshot,
		ActionLoginHumanLike, ActionNoOp:
		return true
	}
	return false
}

// MainPageSentinel is the browser_switch_to_frame selector that returns the
// active target to the frame's owning top-level page.
const MainPageSentinel = "__main_page__"

// Step is one declarative unit of a workflow definition. Params values may be
// literals or deferred {{path}} references resolved at execution time.
// Nested steps are only meaningful for looping actions.
type Step struct {
	Name     string         `yaml:"name,omitempty"`
	Action   ActionKind     `yaml:"action"`
	Params   map[string]any `yaml:"params,omitempty"`
	OutputTo string         `yaml:"output_to,omitempty"`
	Steps    []Step         `yaml:"steps,omitempty"` // Loop body
}

// Label returns the step's display name, falling back to the action kind.
func (s *Step) Label() string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("Unnamed Step (%s)", s.Action)
}

// Validate checks the step is well-formed.
func (s *Step) Validate() error {
	if s.Action == "" {
		return fmt.Errorf("step %q: action is required", s.Label())
	}
	if s.Action == ActionLoop && len(s.Steps) == 0 {
		return fmt.Errorf("step %q: loop requires nested steps", s.Label())
	}
	if s.Action != ActionLoop && len(s.Steps) > 0 {
		return fmt.Errorf("step %q: nested steps only allowed on loop", s.Label())
	}
	for i := range s.Steps {
		if err := s.Steps[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// StringParam returns a string-typed parameter, and whether it was present
// and a string.
func (s *Step) StringParam(params map[string]any, key string) (string, bool) {
	v, ok := params[key]
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}
