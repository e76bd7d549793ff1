// Package config provides layered TOML configuration for reclaim.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// LogLevel specifies the logging verbosity.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogFormat specifies the log output format.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

// PathsConfig holds filesystem layout for run artifacts.
type PathsConfig struct {
	WorkflowDir    string `toml:"workflow_dir"`
	OutputDir      string `toml:"output_dir"`
	ScreenshotDir  string `toml:"screenshot_dir"`
	SourceDir      string `toml:"source_dir"`
	ReviewQueueDir string `toml:"review_queue_dir"`
	SpreadsheetDir string `toml:"spreadsheet_dir"`
}

// TimeoutsConfig holds interaction timeouts. Waits default to 30s, transient
// dialogs (file choosers, new-window events) to 15s, page loads to 60s.
type TimeoutsConfig struct {
	Wait      time.Duration `toml:"wait"`
	Dialog    time.Duration `toml:"dialog"`
	NewWindow time.Duration `toml:"new_window"`
	Load      time.Duration `toml:"load"`
}

// OCREngineConfig identifies one OCR engine endpoint.
type OCREngineConfig struct {
	URL      string `toml:"url"`
	EngineID string `toml:"engine_id"`
}

// LLMConfig identifies the multimodal reasoning endpoint.
type LLMConfig struct {
	URL       string `toml:"url"`
	Model     string `toml:"model"`
	APIKeyEnv string `toml:"api_key_env"` // Env var holding the bearer token
}

// AIConfig holds the external AI service endpoints.
type AIConfig struct {
	OCRPrimary   OCREngineConfig `toml:"ocr_primary"`
	OCRSecondary OCREngineConfig `toml:"ocr_secondary"`
	LLM          LLMConfig       `toml:"llm"`
}

// SpreadsheetConfig holds spreadsheet fill settings.
type SpreadsheetConfig struct {
	SheetName    string `toml:"sheet_name"`
	FirstDataRow int    `toml:"first_data_row"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  LogLevel  `toml:"level"`
	Format LogFormat `toml:"format"`
	File   string    `toml:"file"`
}

// Config is the main configuration struct for reclaim.
type Config struct {
	Version     string            `toml:"version"`
	Paths       PathsConfig       `toml:"paths"`
	Timeouts    TimeoutsConfig    `toml:"timeouts"`
	AI          AIConfig          `toml:"ai"`
	Spreadsheet SpreadsheetConfig `toml:"spreadsheet"`
	Logging     LoggingConfig     `toml:"logging"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Version: "1",
		Paths: PathsConfig{
			WorkflowDir:    "workflows",
			OutputDir:      "output",
			ScreenshotDir:  "output/screenshots",
			SourceDir:      "output/sources",
			ReviewQueueDir: "review_queue",
			SpreadsheetDir: "output/spreadsheets",
		},
		Timeouts: TimeoutsConfig{
			Wait:      30 * time.Second,
			Dialog:    15 * time.Second,
			NewWindow: 15 * time.Second,
			Load:      60 * time.Second,
		},
		AI: AIConfig{
			OCRPrimary:   OCREngineConfig{EngineID: "ocr_provider_1"},
			OCRSecondary: OCREngineConfig{EngineID: "ocr_provider_2"},
			LLM: LLMConfig{
				Model:     "google/gemma-3-27b",
				APIKeyEnv: "RECLAIM_LLM_API_KEY",
			},
		},
		Spreadsheet: SpreadsheetConfig{
			SheetName:    "Sheet1",
			FirstDataRow: 2,
		},
		Logging: LoggingConfig{
			Level:  LogLevelInfo,
			Format: LogFormatJSON,
		},
	}
}

// ConfigFileName is the project configuration file, relative to the base dir.
const ConfigFileName = ".reclaim/config.toml"

// Load reads configuration from the given base directory, applying the
// project file over defaults. A missing config file is not an error.
func Load(baseDir string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(baseDir, ConfigFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Timeouts.Wait <= 0 {
		return fmt.Errorf("timeouts.wait must be positive, got %s", c.Timeouts.Wait)
	}
	if c.Timeouts.Dialog <= 0 {
		return fmt.Errorf("timeouts.dialog must be positive, got %s", c.Timeouts.Dialog)
	}
	if c.Spreadsheet.FirstDataRow < 1 {
		return fmt.Errorf("spreadsheet.first_data_row must be >= 1, got %d", c.Spreadsheet.FirstDataRow)
	}
	switch c.Logging.Level {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError, "":
	default:
		return fmt.Errorf("invalid logging.level: %s", c.Logging.Level)
	}
	return nil
}

// Save writes the configuration to the project file under baseDir.
func (c *Config) Save(baseDir string) error {
	path := filepath.Join(baseDir, ConfigFileName)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(c)
}

// LogFile returns the absolute log file path, or empty if file logging is off.
func (c *Config) LogFile(baseDir string) string {
	if c.Logging.File == "" {
		return ""
	}
	if filepath.IsAbs(c.Logging.File) {
		return c.Logging.File
	}
	return filepath.Join(baseDir, c.Logging.File)
}

// LLMAPIKey resolves the LLM bearer token from the configured env var.
func (c *Config) LLMAPIKey() string {
	if c.AI.LLM.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.AI.LLM.APIKeyEnv)
}
