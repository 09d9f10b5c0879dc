// =============================================================================
// Timesheet & Invoice Merger - Configuration Module
// =============================================================================
//
// This module is responsible for loading the application configuration.
// The configuration is read once at process start and passed explicitly into
// the orchestrator; pipeline components never read package-level state.
//
// CONFIGURATION SOURCES (later wins):
//   1. Built-in defaults
//   2. The YAML file (config.yaml by default, --config to override)
//   3. TSMERGE_* environment variables
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// RootDir is the top of the client/month/week folder layout:
	//   {root_dir}/{client}/{month folder}/Week MM-DD/
	RootDir string `yaml:"root_dir"`

	// TempDir is where the run-scoped scratch directory is created.
	// Default: the OS temp directory.
	TempDir string `yaml:"temp_dir"`

	// =========================================================================
	// LEDGER SETTINGS
	// =========================================================================

	// LedgerFile is the shared workbook that records output paths.
	LedgerFile string `yaml:"ledger_file"`

	// Ledger holds the sheet/column layout of the workbook.
	Ledger LedgerConfig `yaml:"ledger"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogDir receives one run log per execution.
	// Default: "./logs"
	LogDir string `yaml:"log_dir"`

	// LogLevel controls diagnostic output on stderr.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogRetentionDays removes run logs older than this at run start.
	// 0 keeps everything.
	LogRetentionDays int `yaml:"log_retention_days"`

	// JournalFile is the SQLite run history. Empty disables the journal.
	// Default: "./logs/history.db"
	JournalFile *string `yaml:"journal_file"`

	// =========================================================================
	// CLIENT SETTINGS
	// =========================================================================

	// Clients is the list the operator selects from.
	Clients []string `yaml:"clients"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// Converter configures the external word-document renderer.
	Converter ConverterConfig `yaml:"converter"`

	// Normalize configures page orientation and image encoding.
	Normalize NormalizeConfig `yaml:"normalize"`
}

// =============================================================================
// LEDGER CONFIGURATION
// =============================================================================

// LedgerConfig describes where client names and output paths live.
type LedgerConfig struct {
	// Sheet is the worksheet name. Empty means the first sheet.
	Sheet string `yaml:"sheet"`

	// NameColumn holds client names. Default: "B"
	NameColumn string `yaml:"name_column"`

	// PathColumn receives the merged output path. Default: "G"
	PathColumn string `yaml:"path_column"`

	// StartRow is the first data row (1-based). Default: 4
	StartRow int `yaml:"start_row"`

	// CaseInsensitiveFallback retries a failed exact match ignoring case.
	// Default: true
	CaseInsensitiveFallback *bool `yaml:"case_insensitive_fallback"`
}

// FallbackEnabled reports the effective fallback setting.
func (l LedgerConfig) FallbackEnabled() bool {
	return l.CaseInsensitiveFallback == nil || *l.CaseInsensitiveFallback
}

// =============================================================================
// CONVERTER CONFIGURATION
// =============================================================================

// ConverterConfig configures the office-document to PDF converter.
type ConverterConfig struct {
	// Command is the converter binary. Default: "soffice"
	Command string `yaml:"command"`

	// Args precede the output directory and input file.
	// Default: ["--headless", "--convert-to", "pdf"]
	Args []string `yaml:"args"`

	// Timeout bounds a single conversion. Default: 2m
	Timeout Duration `yaml:"timeout"`
}

// =============================================================================
// NORMALIZE CONFIGURATION
// =============================================================================

// NormalizeConfig configures orientation normalization.
type NormalizeConfig struct {
	// RotateRatio rotates a page when width > height * RotateRatio.
	// 1.0 is the plain landscape rule. Default: 1.0
	RotateRatio float64 `yaml:"rotate_ratio"`

	// JPEGQuality is used when re-encoding images. Default: 90
	JPEGQuality int `yaml:"jpeg_quality"`
}

// Duration is a time.Duration that unmarshals from "2m"-style strings.
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read, parsed, or validated.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes, overrides from the environment, defaults, and validates.
func Parse(data []byte) (*MainConfig, error) {
	var config MainConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(&config, os.LookupEnv)
	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyEnvOverrides replaces file values with TSMERGE_* variables when set.
func applyEnvOverrides(config *MainConfig, lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str("TSMERGE_ROOT_DIR", &config.RootDir)
	str("TSMERGE_LEDGER_FILE", &config.LedgerFile)
	str("TSMERGE_LOG_DIR", &config.LogDir)
	str("TSMERGE_LOG_LEVEL", &config.LogLevel)
	str("TSMERGE_CONVERTER", &config.Converter.Command)

	// An explicitly empty journal variable disables the journal.
	if v, ok := lookup("TSMERGE_JOURNAL_FILE"); ok {
		v = strings.TrimSpace(v)
		config.JournalFile = &v
	}
	if v, ok := lookup("TSMERGE_CONVERTER_TIMEOUT"); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			config.Converter.Timeout = Duration(d)
		}
	}
	if v, ok := lookup("TSMERGE_LOG_RETENTION_DAYS"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			config.LogRetentionDays = n
		}
	}
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.TempDir == "" {
		config.TempDir = os.TempDir()
	}
	if config.LogDir == "" {
		config.LogDir = "./logs"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.JournalFile == nil {
		def := "./logs/history.db"
		config.JournalFile = &def
	}

	if config.Ledger.NameColumn == "" {
		config.Ledger.NameColumn = "B"
	}
	if config.Ledger.PathColumn == "" {
		config.Ledger.PathColumn = "G"
	}
	if config.Ledger.StartRow == 0 {
		config.Ledger.StartRow = 4
	}

	if config.Converter.Command == "" {
		config.Converter.Command = "soffice"
	}
	if len(config.Converter.Args) == 0 {
		config.Converter.Args = []string{"--headless", "--convert-to", "pdf"}
	}
	if config.Converter.Timeout == 0 {
		config.Converter.Timeout = Duration(2 * time.Minute)
	}

	if config.Normalize.RotateRatio == 0 {
		config.Normalize.RotateRatio = 1.0
	}
	if config.Normalize.JPEGQuality == 0 {
		config.Normalize.JPEGQuality = 90
	}

	config.LedgerFile = strings.TrimSpace(config.LedgerFile)
	config.RootDir = strings.TrimSpace(config.RootDir)
	config.Ledger.NameColumn = strings.ToUpper(strings.TrimSpace(config.Ledger.NameColumn))
	config.Ledger.PathColumn = strings.ToUpper(strings.TrimSpace(config.Ledger.PathColumn))
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	if config.RootDir == "" {
		return fmt.Errorf("root_dir is required")
	}
	if config.LedgerFile == "" {
		return fmt.Errorf("ledger_file is required")
	}

	for _, col := range []string{config.Ledger.NameColumn, config.Ledger.PathColumn} {
		if _, err := excelize.ColumnNameToNumber(col); err != nil {
			return fmt.Errorf("invalid ledger column %q: %w", col, err)
		}
	}
	if config.Ledger.NameColumn == config.Ledger.PathColumn {
		return fmt.Errorf("ledger name_column and path_column must differ")
	}
	if config.Ledger.StartRow < 1 {
		return fmt.Errorf("ledger start_row must be >= 1, got %d", config.Ledger.StartRow)
	}

	switch strings.ToLower(config.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", config.LogLevel)
	}
	if config.LogRetentionDays < 0 {
		return fmt.Errorf("log_retention_days must be >= 0")
	}

	if config.Converter.Timeout.Std() <= 0 {
		return fmt.Errorf("converter timeout must be positive")
	}
	if config.Normalize.RotateRatio < 1.0 {
		return fmt.Errorf("normalize rotate_ratio must be >= 1.0, got %g", config.Normalize.RotateRatio)
	}
	if config.Normalize.JPEGQuality < 1 || config.Normalize.JPEGQuality > 100 {
		return fmt.Errorf("normalize jpeg_quality must be 1-100, got %d", config.Normalize.JPEGQuality)
	}

	// Create the log directory if it doesn't exist.
	if err := os.MkdirAll(config.LogDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", config.LogDir, err)
	}

	return nil
}

// Journal returns the journal path, or "" when disabled.
func (c *MainConfig) Journal() string {
	if c.JournalFile == nil {
		return ""
	}
	return *c.JournalFile
}

// HasClient reports whether name is in the configured client list.
func (c *MainConfig) HasClient(name string) bool {
	for _, known := range c.Clients {
		if known == name {
			return true
		}
	}
	return false
}
