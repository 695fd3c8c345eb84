// Package cli provides output formatting for the extractor command line.
package cli

import (
	"fmt"
	"os"

	"github.com/kostasandrews/ExtractorFileTool/internal/errhandling"
	"github.com/kostasandrews/ExtractorFileTool/pkg/extraction"
)

// OutputOptions configures CLI output behavior.
type OutputOptions struct {
	Verbose bool
	Quiet   bool
	DryRun  bool
}

// PrintRunResult displays the outcome of an extraction run. Errors always
// print; the success summary honors quiet mode.
func PrintRunResult(result *extraction.RunResult, err error, opts OutputOptions) {
	if result == nil {
		fmt.Fprintln(os.Stderr, "✗ No run result available")
		return
	}

	if err != nil {
		printRunFailure(result)
		return
	}

	if opts.Quiet {
		return
	}

	if result.DryRun {
		fmt.Println("✓ Dry run completed (no files were written)")
	} else {
		fmt.Println("✓ Extraction completed")
	}
	fmt.Printf("  Keys: %d seeded, %d final\n", result.KeysSeeded, result.KeysFinal)

	for _, step := range result.Steps {
		printStepResult(step, opts.Verbose)
	}

	if opts.Verbose {
		fmt.Printf("  Total duration: %v\n", result.CompletedAt.Sub(result.StartedAt))
	}
}

// printRunFailure prints the failure details of a run to stderr.
func printRunFailure(result *extraction.RunResult) {
	fmt.Fprintln(os.Stderr, "✗ Extraction failed")
	if result.Error == nil {
		return
	}

	fmt.Fprintf(os.Stderr, "  Category: %s\n", result.Error.Category)
	if result.Error.StepIndex != errhandling.NoStep {
		fmt.Fprintf(os.Stderr, "  Step: %d\n", result.Error.StepIndex)
	}
	if result.Error.Path != "" {
		fmt.Fprintf(os.Stderr, "  File: %s\n", result.Error.Path)
	}
	fmt.Fprintf(os.Stderr, "  Error: %s\n", result.Error.Message)
}

// printStepResult prints one step's summary line.
func printStepResult(step extraction.StepResult, verbose bool) {
	fmt.Printf("  Step %d: %s\n", step.Index, step.Input)
	fmt.Printf("    Rows: %d read, %d kept", step.RowsRead, step.RowsKept)
	if step.RowsSkipped > 0 {
		fmt.Printf(", %d skipped", step.RowsSkipped)
	}
	fmt.Println()
	if step.KeysAdded > 0 {
		fmt.Printf("    Keys added: %d\n", step.KeysAdded)
	}
	if verbose {
		fmt.Printf("    Output: %s\n", step.Output)
		fmt.Printf("    Duration: %v\n", step.Duration)
	}
}

// PrintPlanSummary prints the parsed plan's shape for the validate command.
func PrintPlanSummary(plan *extraction.Plan) {
	if plan == nil {
		return
	}

	fmt.Printf("  Sample file: %s\n", plan.Main.SampleFile)
	fmt.Printf("  Key column: %s\n", plan.Main.KeyColumn)
	fmt.Printf("  Steps: %d\n", len(plan.Steps))
	for i, step := range plan.Steps {
		extras := ""
		if len(step.RelevantKeys) > 0 {
			extras += fmt.Sprintf(", harvests %d column(s)", len(step.RelevantKeys))
		}
		if step.Condition != "" {
			extras += ", condition"
		}
		if step.Script != "" || step.ScriptFile != "" {
			extras += ", script"
		}
		fmt.Printf("    %d: %s -> %s%s\n", i, step.Input, step.Output, extras)
	}
}
