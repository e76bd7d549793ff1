// Package interpreter executes declarative workflow definitions step by
// step against a browser context and the document pipeline. Steps run
// strictly in definition order; the first failure aborts the item.
package interpreter

import (
	"context"
	"log/slog"

	"github.com/reimburse-stack/reclaim/internal/browser"
	"github.com/reimburse-stack/reclaim/internal/errors"
	"github.com/reimburse-stack/reclaim/internal/logging"
	"github.com/reimburse-stack/reclaim/internal/pipeline"
	"github.com/reimburse-stack/reclaim/internal/template"
	"github.com/reimburse-stack/reclaim/internal/types"
)

// handler executes one resolved step and returns its result, if any.
type handler func(ctx context.Context, step *types.Step, params map[string]any) (any, error)

// Interpreter walks a workflow's steps, resolving parameters against the
// variable table before each dispatch.
type Interpreter struct {
	tracker  *browser.Tracker
	pipeline *pipeline.Pipeline
	logger   *slog.Logger

	vars     map[string]any
	registry map[types.ActionKind]handler
}

// New creates an interpreter bound to one browser tracker and pipeline.
// Each work item gets its own interpreter; nothing here is shared.
func New(tracker *browser.Tracker, p *pipeline.Pipeline, logger *slog.Logger) *Interpreter {
	i := &Interpreter{
		tracker:  tracker,
		pipeline: p,
		logger:   logger,
		vars:     map[string]any{},
	}
	i.registry = map[types.ActionKind]handler{
		types.ActionLoop:             i.runLoop,
		types.ActionAIFillExcel:      i.runAIFillExcel,
		types.ActionGoto:             i.runGoto,
		types.ActionFill:             i.runFill,
		types.ActionClick:            i.runClick,
		types.ActionPress:            i.runPress,
		types.ActionSelectOption:     i.runSelectOption,
		types.ActionSwitchToFrame:    i.runSwitchToFrame,
		types.ActionUploadFile:       i.runUploadFile,
		types.ActionWaitForSelector:  i.runWaitForSelector,
		types.ActionWaitForURL:       i.runWaitForURL,
		types.ActionWaitForLoadState: i.runWaitForLoadState,
		types.ActionEvaluate:         i.runEvaluate,
		types.ActionJSClick:          i.runJSClick,
		types.ActionMouseMove:        i.runMouseMove,
		types.ActionGetSource:        i.runGetSource,
		types.ActionScreenshot:       i.runScreenshot,
		types.ActionLoginHumanLike:   i.runLoginHumanLike,
	}
	return i
}

// Execute runs the workflow against the initial input payload, which is
// exposed to steps as variables["input"]. On success the final variable
// table is returned.
func (i *Interpreter) Execute(ctx context.Context, wf *types.WorkflowDefinition, input map[string]any) (map[string]any, error) {
	i.logger.Info("starting workflow", "workflow", wf.Name)

	if input == nil {
		input = map[string]any{}
	}
	i.vars = map[string]any{"input": input}

	if err := i.tracker.EnsureTarget(ctx); err != nil {
		return nil, err
	}
	if err := i.executeSteps(ctx, wf.Steps); err != nil {
		return nil, err
	}

	i.logger.Info("workflow completed successfully", "workflow", wf.Name)
	return i.vars, nil
}

// executeSteps runs a step list in order, recursing for loop bodies.
func (i *Interpreter) executeSteps(ctx context.Context, steps []types.Step) error {
	for idx := range steps {
		step := &steps[idx]
		params := template.ResolveParams(step.Params, i.vars)

		stepLogger := logging.WithStep(i.logger, step.Label(), string(step.Action))
		stepLogger.Info("executing step")

		fn, known := i.registry[step.Action]
		if !known {
			stepLogger.Warn("unknown or unhandled action, skipping")
			continue
		}

		result, err := fn(ctx, step, params)
		if err != nil {
			// The new-window path already captured the right target.
			if !errors.HasCode(err, errors.CodeNewWindowFailed) {
				stepLogger.Error("step failed", "error", err)
				i.tracker.CaptureErrorScreenshot(ctx, step.Label())
			}
			if errors.Code(err) == "" {
				return errors.StepFailed(step.Label(), err)
			}
			return err
		}

		if step.OutputTo != "" {
			i.vars[step.OutputTo] = result
			stepLogger.Info("stored step result", "variable", step.OutputTo)
		}
	}
	return nil
}

// Vars exposes the current variable table, for tests and the runner.
func (i *Interpreter) Vars() map[string]any {
	return i.vars
}
