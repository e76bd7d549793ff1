package cmd

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/reimburse-stack/reclaim/internal/ai"
	"github.com/reimburse-stack/reclaim/internal/browser"
	"github.com/reimburse-stack/reclaim/internal/config"
	"github.com/reimburse-stack/reclaim/internal/logging"
	"github.com/reimburse-stack/reclaim/internal/pipeline"
	"github.com/reimburse-stack/reclaim/internal/render"
	"github.com/reimburse-stack/reclaim/internal/review"
	"github.com/reimburse-stack/reclaim/internal/runner"
	"github.com/reimburse-stack/reclaim/internal/workflow"
)

var (
	// Version is set at build time via ldflags
	Version = "dev"

	// Global flags
	workDir  string
	headless bool
)

var rootCmd = &cobra.Command{
	Use:   "reclaim",
	Short: "Reclaim - reimbursement claim automation",
	Long: `Reclaim processes reimbursement claims end to end: it drives the
business system's web UI from declarative YAML workflows, extracts
structured data from receipts with dual OCR and multimodal arbitration,
fills the claim spreadsheet, and parks anything that fails in a review
queue for a human.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&workDir, "workdir", "C", "", "working directory (default: current)")
	rootCmd.PersistentFlags().BoolVar(&headless, "headless", true, "run the browser headless")

	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("reclaim {{.Version}}\n")
}

// getWorkDir returns the effective working directory.
func getWorkDir() (string, error) {
	if workDir != "" {
		return workDir, nil
	}
	return os.Getwd()
}

// resolvePath anchors a configured path at the working directory.
func resolvePath(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// runtime bundles the per-invocation collaborators.
type runtime struct {
	cfg    *config.Config
	dir    string
	logger *slog.Logger
	closer io.Closer
	sink   *review.Sink
	loader *workflow.Loader
}

// newRuntime loads config and builds the logger, loader, and sink.
func newRuntime() (*runtime, error) {
	dir, err := getWorkDir()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	logger, closer, err := logging.NewFromConfig(cfg, dir)
	if err != nil {
		return nil, err
	}
	return &runtime{
		cfg:    cfg,
		dir:    dir,
		logger: logger,
		closer: closer,
		sink:   review.NewSink(resolvePath(dir, cfg.Paths.ReviewQueueDir), logger),
		loader: workflow.NewLoader(resolvePath(dir, cfg.Paths.WorkflowDir)),
	}, nil
}

func (rt *runtime) close() {
	if rt.closer != nil {
		rt.closer.Close()
	}
}

// newPipeline wires the document intelligence stages from config.
func (rt *runtime) newPipeline() *pipeline.Pipeline {
	extractor := pipeline.NewExtractor(
		ai.NewHTTPOCREngine(rt.cfg.AI.OCRPrimary),
		ai.NewHTTPOCREngine(rt.cfg.AI.OCRSecondary),
		ai.NewChatVisionClient(rt.cfg.AI.LLM, rt.cfg.LLMAPIKey()),
		render.NewFileRenderer(),
		rt.logger,
	)
	filler := pipeline.NewFiller(
		resolvePath(rt.dir, rt.cfg.Paths.SpreadsheetDir),
		rt.cfg.Spreadsheet.SheetName,
		rt.logger,
	)
	return pipeline.New(
		pipeline.NewFilenameClassifier(),
		extractor,
		filler,
		rt.cfg.Spreadsheet.FirstDataRow,
		rt.logger,
	)
}

// newRunner launches a browser and assembles the work item runner. The
// returned driver must be closed after all items are processed.
func (rt *runtime) newRunner() (*runner.Runner, *browser.PlaywrightDriver, error) {
	driver, err := browser.LaunchPlaywright(headless)
	if err != nil {
		return nil, nil, err
	}
	artifacts := browser.NewArtifacts(
		resolvePath(rt.dir, rt.cfg.Paths.ScreenshotDir),
		resolvePath(rt.dir, rt.cfg.Paths.SourceDir),
	)
	r := runner.New(driver, rt.newPipeline(), rt.loader, rt.sink, rt.cfg.Timeouts, artifacts, rt.logger)
	return r, driver, nil
}
