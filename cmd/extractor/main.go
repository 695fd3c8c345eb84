// Package main provides the CLI entry point for the extractor tool.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kostasandrews/ExtractorFileTool/internal/cli"
	"github.com/kostasandrews/ExtractorFileTool/internal/config"
	"github.com/kostasandrews/ExtractorFileTool/internal/logger"
	"github.com/kostasandrews/ExtractorFileTool/internal/report"
	"github.com/kostasandrews/ExtractorFileTool/internal/runtime"
)

// Exit codes
const (
	ExitSuccess         = 0
	ExitValidationError = 1
	ExitParseError      = 2
	ExitRuntimeError    = 3
)

var (
	// Global flags
	verbose   bool
	quiet     bool
	logFormat string
	logFile   string

	// Run command flags
	dryRun          bool
	normalizeQuotes bool
	summaryFile     string

	// Build information (set via ldflags during build)
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		exitWith(ExitRuntimeError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "extractor",
	Short: "Extractor - Key-driven extraction of delimited files",
	Long: `Extractor filters large delimited files down to the rows related to a
sample of records.

A plan file names a sample file whose key column seeds a set of keys,
and an ordered list of extraction steps. Each step keeps the rows of its
input file whose key column value is in the key set, writes them to the
output file, and can harvest further keys for the steps after it.

Examples:
  # Validate a plan file
  extractor validate extraction_info.json

  # Run the plan in the default location (extraction_info.json)
  extractor run

  # Run a specific plan without writing output files
  extractor run --dry-run plans/customers.yaml`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		configureLogging()
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <plan-file>",
	Short: "Validate an extraction plan file",
	Long: `Validate an extraction plan file against the schema.

Supports both JSON and YAML formats. The format is auto-detected
based on file extension (.json, .yaml, .yml) or content.

Exit codes:
  0 - Plan is valid
  1 - Validation errors (schema violations)
  2 - Parse errors (invalid JSON/YAML syntax)

Examples:
  extractor validate extraction_info.json
  extractor validate plans/customers.yaml
  extractor validate --verbose extraction_info.json`,
	Args: cobra.ExactArgs(1),
	Run:  runValidate,
}

var runCmd = &cobra.Command{
	Use:   "run [plan-file]",
	Short: "Run an extraction plan",
	Long: `Run the extraction plan in the given file. Without an argument the
plan is read from ` + config.DefaultPlanFile + ` in the working directory.

The plan file is first validated against the schema. If validation
fails, no extraction runs.

Exit codes:
  0 - Extraction completed successfully
  1 - Validation or configuration errors
  2 - Parse errors
  3 - Runtime errors (missing inputs, malformed data, write failures)

Examples:
  extractor run
  extractor run plans/customers.json
  extractor run --dry-run --verbose extraction_info.json
  extractor run --summary-file out/summary.json extraction_info.json`,
	Args: cobra.MaximumNArgs(1),
	Run:  runExtraction,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print version, commit hash, and build date information.",
	Run:   runVersion,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "Log output format (json or human)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file in addition to the console")

	// Run command flags
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Read and filter without writing any output files")
	runCmd.Flags().BoolVar(&normalizeQuotes, "normalize-quotes", false, "Rewrite apostrophes and typographic quotes in input files before the run")
	runCmd.Flags().StringVar(&summaryFile, "summary-file", "", "Write the run summary as JSON to this file")

	// Add commands
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

// configureLogging applies the global logging flags.
func configureLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	} else if quiet {
		level = slog.LevelError
	}

	format := logger.FormatJSON
	switch logFormat {
	case "json", "":
		format = logger.FormatJSON
	case "human":
		format = logger.FormatHuman
	default:
		fmt.Fprintf(os.Stderr, "✗ Invalid log format %q (use json or human)\n", logFormat)
		exitWith(ExitValidationError)
	}

	if logFile != "" {
		if err := logger.SetLogFile(logFile, level, format); err != nil {
			fmt.Fprintf(os.Stderr, "✗ Failed to open log file: %v\n", err)
			exitWith(ExitRuntimeError)
		}
		return
	}
	logger.SetLevelAndFormat(level, format)
}

// exitWith closes the log file, if any, and exits with the given code.
func exitWith(code int) {
	logger.CloseLogFile()
	os.Exit(code)
}

// loadPlan parses and validates the plan file, exiting on parse or
// validation errors.
func loadPlan(planPath string) *config.Result {
	result := config.ParsePlan(planPath)

	if len(result.ParseErrors) > 0 {
		cli.PrintParseErrors(result.ParseErrors, verbose)
		exitWith(ExitParseError)
	}

	if len(result.ValidationErrors) > 0 {
		cli.PrintValidationErrors(result.ValidationErrors, verbose, quiet)
		exitWith(ExitValidationError)
	}

	return result
}

func runValidate(_ *cobra.Command, args []string) {
	planPath := args[0]

	if !quiet {
		fmt.Printf("Validating plan: %s\n", planPath)
	}

	result := loadPlan(planPath)

	if !quiet {
		fmt.Printf("✓ Plan is valid (format: %s)\n", result.Format)

		if verbose {
			plan, err := config.ConvertToPlan(result.Data)
			if err != nil {
				fmt.Fprintf(os.Stderr, "✗ Invalid plan: %v\n", err)
				exitWith(ExitValidationError)
			}
			cli.PrintPlanSummary(plan)
		}
	}

	exitWith(ExitSuccess)
}

func runExtraction(_ *cobra.Command, args []string) {
	planPath := config.DefaultPlanFile
	if len(args) == 1 {
		planPath = args[0]
	}

	if !quiet {
		fmt.Printf("Loading plan: %s\n", planPath)
	}

	result := loadPlan(planPath)

	plan, err := config.ConvertToPlan(result.Data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ Invalid plan: %v\n", err)
		exitWith(ExitValidationError)
	}

	if !quiet {
		fmt.Printf("✓ Plan loaded (format: %s, steps: %d)\n", result.Format, len(plan.Steps))
	}

	exec, err := runtime.NewExecutor(plan, runtime.Options{
		PlanPath:        planPath,
		DryRun:          dryRun,
		NormalizeQuotes: normalizeQuotes,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ %v\n", err)
		exitWith(exitCodeForError(err))
	}

	// Cancel the run cleanly on Ctrl-C or SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !quiet {
		if dryRun {
			fmt.Println("Running extraction (dry-run mode - no files will be written)...")
		} else {
			fmt.Println("Running extraction...")
		}
	}

	runResult, runErr := exec.Run(ctx)

	if summaryFile != "" && runResult != nil {
		if err := report.Save(summaryFile, runResult); err != nil {
			fmt.Fprintf(os.Stderr, "✗ Failed to write summary file: %v\n", err)
		}
	}

	cli.PrintRunResult(runResult, runErr, cli.OutputOptions{
		Verbose: verbose,
		Quiet:   quiet,
		DryRun:  dryRun,
	})

	if runErr != nil {
		exitWith(exitCodeForError(runErr))
	}

	exitWith(ExitSuccess)
}

func runVersion(_ *cobra.Command, _ []string) {
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Commit: %s\n", commit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// exitCodeForError maps an error to the process exit code. Configuration
// errors are plan problems (exit 1); everything else failed at runtime
// (exit 3).
func exitCodeForError(err error) int {
	if runtime.GetErrorCategory(err) == runtime.CategoryConfiguration {
		return ExitValidationError
	}
	return ExitRuntimeError
}
