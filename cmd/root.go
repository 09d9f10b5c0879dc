// =============================================================================
// Timesheet & Invoice Merger - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (tsmerge)
//   ├── runCmd     (tsmerge run)
//   ├── scanCmd    (tsmerge scan)
//   ├── historyCmd (tsmerge history)
//   └── versionCmd (tsmerge version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose)
//   2. Loading the configuration once, before any subcommand runs
//   3. Setting up diagnostic logging on stderr
//
// =============================================================================

package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/config"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// mainConfig is loaded by the root command before a subcommand runs.
var mainConfig *config.MainConfig

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "tsmerge",
	Short: "Timesheet & Invoice Merger - Compile weekly client billing packets",

	Long: `tsmerge compiles the weekly billing packet for each selected client: it finds
the client's "Week MM-DD" folder, turns the invoice and every timesheet (PDF,
image, Word) into portrait PDF pages, merges them into one PDF with the invoice
first, and records the output path in the shared billing ledger.

Folder layout:
  {root_dir}/{client}/{month folder}/Week MM-DD/

Example Usage:
  tsmerge scan --all --week 08-03             # Show which week folders exist
  tsmerge run --clients Acme,Globex --week 08-03
  tsmerge run --all --month 8 --day 3 --tui   # Interactive dashboard
  tsmerge history --limit 5                   # Recent runs`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch cmd.Name() {
		case "tsmerge", "version", "help", "completion":
			return nil
		}
		cfg, err := config.LoadMainConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load main config: %w", err)
		}
		mainConfig = cfg
		setupLogging(cfg.LogLevel)
		return nil
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setupLogging installs the stderr diagnostic logger. --verbose forces debug.
func setupLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	// Persistent flags are available to this command and all subcommands.
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging on stderr",
	)
}
