// Package runner drives work items through the workflow engine and routes
// failures to the review sink. Items are processed share-nothing: each one
// gets its own browser target and interpreter.
package runner

import (
	"context"
	"log/slog"

	"github.com/reimburse-stack/reclaim/internal/browser"
	"github.com/reimburse-stack/reclaim/internal/config"
	"github.com/reimburse-stack/reclaim/internal/errors"
	"github.com/reimburse-stack/reclaim/internal/interpreter"
	"github.com/reimburse-stack/reclaim/internal/logging"
	"github.com/reimburse-stack/reclaim/internal/pipeline"
	"github.com/reimburse-stack/reclaim/internal/review"
	"github.com/reimburse-stack/reclaim/internal/types"
	"github.com/reimburse-stack/reclaim/internal/workflow"
)

// Runner owns the per-process collaborators and builds per-item ones.
type Runner struct {
	driver    browser.Driver
	pipeline  *pipeline.Pipeline
	loader    *workflow.Loader
	sink      *review.Sink
	timeouts  config.TimeoutsConfig
	artifacts *browser.Artifacts
	logger    *slog.Logger
}

// New creates a runner.
func New(driver browser.Driver, p *pipeline.Pipeline, loader *workflow.Loader, sink *review.Sink, timeouts config.TimeoutsConfig, artifacts *browser.Artifacts, logger *slog.Logger) *Runner {
	return &Runner{
		driver:    driver,
		pipeline:  p,
		loader:    loader,
		sink:      sink,
		timeouts:  timeouts,
		artifacts: artifacts,
		logger:    logger,
	}
}

// ProcessItem runs one work item end to end. Failures are saved for human
// review and returned; there are no retries.
func (r *Runner) ProcessItem(ctx context.Context, item *types.WorkItem) error {
	logger := logging.WithItem(r.logger, item.ID)
	logger.Info("processing work item")

	if err := r.runItem(ctx, item, logger); err != nil {
		r.failItem(item, err, logger)
		return err
	}

	logger.Info("work item completed")
	return nil
}

func (r *Runner) runItem(ctx context.Context, item *types.WorkItem, logger *slog.Logger) error {
	if len(item.Payload) == 0 {
		return errors.EmptyPayload(item.ID)
	}
	ref := item.WorkflowFile()
	if ref == "" {
		return errors.MissingWorkflow(item.ID)
	}

	wf, err := r.loader.Load(ref)
	if err != nil {
		return err
	}

	tracker := browser.NewTracker(r.driver, r.timeouts, r.artifacts, logger)
	interp := interpreter.New(tracker, r.pipeline, logger)

	vars, err := interp.Execute(ctx, wf, item.Payload)
	if err != nil {
		return err
	}
	item.Output = vars
	return nil
}

// failItem converts the error into a structured failure and makes it
// durable in the review queue.
func (r *Runner) failItem(item *types.WorkItem, err error, logger *slog.Logger) {
	failure := types.Failure{
		Category: string(errors.CategoryFor(err)),
		Code:     errors.Code(err),
		Message:  err.Error(),
	}
	if failure.Code == "" {
		failure.Code = errors.CodeStepFailed
	}
	logger.Error("work item failed",
		"category", failure.Category, "code", failure.Code, "error", err)

	if saveErr := r.sink.Save(item.ID, item.Payload, failure); saveErr != nil {
		logger.Error("could not save item for review", "error", saveErr)
	}
}

// Resubmit replays a previously failed item with human-corrected fields.
// The corrected data overlays the original payload and the submission
// workflow runs directly, bypassing classification and extraction.
func (r *Runner) Resubmit(ctx context.Context, itemID string, corrected map[string]any, workflowRef string) error {
	record, err := r.sink.Load(itemID)
	if err != nil {
		return err
	}

	payload := map[string]any{}
	for k, v := range record.Payload {
		payload[k] = v
	}
	for k, v := range corrected {
		payload[k] = v
	}
	if workflowRef != "" {
		payload["workflow_file"] = workflowRef
	}

	item := &types.WorkItem{ID: itemID + "-resubmit", Payload: payload}
	logger := logging.WithItem(r.logger, item.ID)
	logger.Info("resubmitting reviewed item", "original_id", itemID)
	return r.ProcessItem(ctx, item)
}
