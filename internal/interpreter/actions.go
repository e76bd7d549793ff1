package interpreter

import (
	"context"
	"fmt"

	"github.com/reimburse-stack/reclaim/internal/errors"
	"github.com/reimburse-stack/reclaim/internal/template"
	"github.com/reimburse-stack/reclaim/internal/types"
)

// stringParam fetches a required string parameter from the resolved params.
func stringParam(step *types.Step, params map[string]any, key string) (string, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return "", errors.MissingStepParam(step.Label(), key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", errors.MissingStepParam(step.Label(), key)
	}
	return s, nil
}

// intParam returns an optional integer parameter, 0 when absent. YAML
// decodes numbers as int, but resolved variables may carry other widths.
func intParam(params map[string]any, key string) int {
	switch n := params[key].(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func boolParam(params map[string]any, key string) bool {
	b, _ := params[key].(bool)
	return b
}

func (i *Interpreter) runLoop(ctx context.Context, step *types.Step, params map[string]any) (any, error) {
	sourceName, err := stringParam(step, params, "source_list")
	if err != nil {
		return nil, err
	}
	loopVar, err := stringParam(step, params, "loop_variable")
	if err != nil {
		return nil, err
	}

	// A missing or non-list source variable means zero iterations, not an
	// error. The loop variable keeps its last value after the loop ends.
	items, _ := i.vars[sourceName].([]any)
	i.logger.Info("entering loop", "source_list", sourceName, "items", len(items))
	for _, item := range items {
		i.vars[loopVar] = item
		if err := i.executeSteps(ctx, step.Steps); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func (i *Interpreter) runAIFillExcel(ctx context.Context, step *types.Step, params map[string]any) (any, error) {
	templatePath, err := stringParam(step, params, "excel_template_path")
	if err != nil {
		return nil, err
	}
	raw, ok := params["receipt_files"]
	if !ok || raw == nil {
		return nil, errors.MissingStepParam(step.Label(), "receipt_files")
	}
	receipts, err := stringSlice(raw)
	if err != nil || len(receipts) == 0 {
		return nil, errors.MissingStepParam(step.Label(), "receipt_files")
	}

	result, err := i.pipeline.Run(ctx, receipts, templatePath)
	if err != nil {
		return nil, err
	}
	// Returned as a plain map so later steps can reference its fields
	// through templating.
	return map[string]any{
		"filled_path":           result.FilledPath,
		"original_source_paths": result.SourcePaths,
		"total_amount":          result.TotalAmount,
	}, nil
}

func stringSlice(v any) ([]string, error) {
	switch list := v.(type) {
	case []string:
		return list, nil
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, template.Stringify(item))
		}
		return out, nil
	case string:
		return []string{list}, nil
	default:
		return nil, fmt.Errorf("expected a list of file paths, got %T", v)
	}
}

func (i *Interpreter) runGoto(ctx context.Context, step *types.Step, params map[string]any) (any, error) {
	url, err := stringParam(step, params, "url")
	if err != nil {
		return nil, err
	}
	return nil, i.tracker.Navigate(ctx, url)
}

func (i *Interpreter) runFill(ctx context.Context, step *types.Step, params map[string]any) (any, error) {
	selector, err := stringParam(step, params, "selector")
	if err != nil {
		return nil, err
	}
	value, ok := params["value"]
	if !ok || value == nil {
		return nil, errors.MissingStepParam(step.Label(), "value")
	}
	return nil, i.tracker.Fill(ctx, selector, template.Stringify(value))
}

func (i *Interpreter) runClick(ctx context.Context, step *types.Step, params map[string]any) (any, error) {
	selector, err := stringParam(step, params, "selector")
	if err != nil {
		return nil, err
	}
	if boolParam(params, "opens_new_window") {
		return nil, i.tracker.ClickExpectNewWindow(ctx, step.Label(), selector)
	}
	return nil, i.tracker.Click(ctx, selector)
}

func (i *Interpreter) runPress(ctx context.Context, step *types.Step, params map[string]any) (any, error) {
	selector, err := stringParam(step, params, "selector")
	if err != nil {
		return nil, err
	}
	key, err := stringParam(step, params, "key")
	if err != nil {
		return nil, err
	}
	return nil, i.tracker.Press(ctx, selector, key)
}

func (i *Interpreter) runSelectOption(ctx context.Context, step *types.Step, params map[string]any) (any, error) {
	selector, err := stringParam(step, params, "selector")
	if err != nil {
		return nil, err
	}
	value, ok := params["value"]
	if !ok || value == nil {
		return nil, errors.MissingStepParam(step.Label(), "value")
	}
	return nil, i.tracker.SelectOption(ctx, selector, template.Stringify(value))
}

func (i *Interpreter) runSwitchToFrame(ctx context.Context, step *types.Step, params map[string]any) (any, error) {
	selector, err := stringParam(step, params, "selector")
	if err != nil {
		return nil, err
	}
	return nil, i.tracker.SwitchToFrame(ctx, selector)
}

func (i *Interpreter) runUploadFile(ctx context.Context, step *types.Step, params map[string]any) (any, error) {
	selector, err := stringParam(step, params, "selector")
	if err != nil {
		return nil, err
	}
	filePath, err := stringParam(step, params, "file_path")
	if err != nil {
		return nil, err
	}
	return nil, i.tracker.Upload(ctx, selector, filePath)
}

func (i *Interpreter) runWaitForSelector(ctx context.Context, step *types.Step, params map[string]any) (any, error) {
	selector, err := stringParam(step, params, "selector")
	if err != nil {
		return nil, err
	}
	state, _ := params["state"].(string)
	return nil, i.tracker.WaitForSelector(ctx, selector, state, intParam(params, "timeout"))
}

func (i *Interpreter) runWaitForURL(ctx context.Context, step *types.Step, params map[string]any) (any, error) {
	pattern, err := stringParam(step, params, "url_pattern")
	if err != nil {
		return nil, err
	}
	return nil, i.tracker.WaitForURL(ctx, pattern, intParam(params, "timeout"))
}

func (i *Interpreter) runWaitForLoadState(ctx context.Context, step *types.Step, params map[string]any) (any, error) {
	state, _ := params["state"].(string)
	return nil, i.tracker.WaitForLoadState(ctx, state, intParam(params, "timeout"))
}

func (i *Interpreter) runEvaluate(ctx context.Context, step *types.Step, params map[string]any) (any, error) {
	expression, err := stringParam(step, params, "expression")
	if err != nil {
		return nil, err
	}
	return i.tracker.Evaluate(ctx, expression)
}

func (i *Interpreter) runJSClick(ctx context.Context, step *types.Step, params map[string]any) (any, error) {
	selector, err := stringParam(step, params, "selector")
	if err != nil {
		return nil, err
	}
	return nil, i.tracker.JSClick(ctx, selector)
}

func (i *Interpreter) runMouseMove(ctx context.Context, step *types.Step, params map[string]any) (any, error) {
	x, hasX := params["x"]
	y, hasY := params["y"]
	if !hasX || x == nil {
		return nil, errors.MissingStepParam(step.Label(), "x")
	}
	if !hasY || y == nil {
		return nil, errors.MissingStepParam(step.Label(), "y")
	}
	return nil, i.tracker.MouseMove(ctx, intParam(params, "x"), intParam(params, "y"))
}

func (i *Interpreter) runGetSource(ctx context.Context, step *types.Step, params map[string]any) (any, error) {
	outputFile, err := stringParam(step, params, "output_file")
	if err != nil {
		return nil, err
	}
	return i.tracker.SnapshotSource(ctx, outputFile)
}

func (i *Interpreter) runScreenshot(ctx context.Context, step *types.Step, params map[string]any) (any, error) {
	outputFile, err := stringParam(step, params, "output_file")
	if err != nil {
		return nil, err
	}
	return i.tracker.SnapshotScreenshot(ctx, outputFile)
}
